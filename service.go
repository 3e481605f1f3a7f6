package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

func getStructName(myvar interface{}) string {
	t := reflect.TypeOf(myvar)
	if t.Kind() == reflect.Ptr {
		return t.Elem().Name()
	}
	return t.Name()
}

// jsonName returns the column name for a struct field from its json tag; "" means skip
func jsonName(f reflect.StructField) string {
	if f.PkgPath != "" {
		return "" // unexported
	}
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name := strings.Split(tag, ",")[0] // in case there are options like omitempty
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

/*
structToMap turns a db struct into the map the db & cache layers work with. Pointers are dereferenced
so nil optional fields bind as NULL. A *map[string]interface{} is passed through (copied) so rows
that were never unmarshalled into their struct can be fed back into the storage.
*/
func structToMap(obj interface{}) (map[string]interface{}, error) {
	if m, ok := obj.(*map[string]interface{}); ok {
		if m == nil || *m == nil {
			return nil, errors.New("storage: nil map")
		}
		out := make(map[string]interface{}, len(*m))
		for k, v := range *m {
			out[k] = v
		}
		return out, nil
	}

	v := reflect.ValueOf(obj)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, errors.New("storage: nil pointer")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("storage: expected struct but got %s", v.Kind())
	}

	t := v.Type()
	objMap := make(map[string]interface{}, t.NumField()+1)
	for i := 0; i < t.NumField(); i++ {
		name := jsonName(t.Field(i))
		if name == "" {
			continue
		}

		f := v.Field(i)
		if f.Kind() == reflect.Ptr {
			if f.IsNil() {
				objMap[name] = nil
				continue
			}
			f = f.Elem()
		}
		objMap[name] = f.Interface()
	}

	objMap[objMapStructNameKey] = t.Name()
	return objMap, nil
}

// stripInternal returns m without the storage's bookkeeping keys
func stripInternal(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if k == objMapStructNameKey || k == objMapStructPrimaryKey {
			continue
		}
		out[k] = v
	}
	return out
}

// mapToStruct fills obj (a pointer to a struct or to a map) from the row
func mapToStruct(m map[string]interface{}, obj interface{}) error {
	if dst, ok := obj.(*map[string]interface{}); ok {
		if *dst == nil {
			*dst = map[string]interface{}{}
		}
		for k, v := range m {
			(*dst)[k] = v
		}
		return nil
	}

	b, err := json.Marshal(stripInternal(m))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, obj)
}

// mapsToStruct fills dest, a pointer to a slice of structs (or struct pointers), from the rows
func mapsToStruct(rows []map[string]interface{}, dest interface{}) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return errors.New("storage: dest must be a non-nil pointer to a slice")
	}
	if v.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("storage: expected slice but got %s", v.Elem().Kind())
	}

	clean := make([]map[string]interface{}, 0, len(rows))
	for _, r := range rows {
		clean = append(clean, stripInternal(r))
	}

	b, err := json.Marshal(clean)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}
