package storage

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

func (t *Table) validate() error {
	if t.Struct == nil {
		return errors.New("Struct must be set")
	}

	t.parseTableName()

	if t.TableName == "" {
		return fmt.Errorf("Table: %s Err: TableName must be set", t.tableName)
	}

	if t.PrimaryKeyField == "" {
		return fmt.Errorf("Table: %s Err: PrimaryKeyField must be set", t.tableName)
	}

	if t.PrimaryQueryName == "" {
		return fmt.Errorf("Table: %s Err: PrimaryQueryName must be set", t.tableName)
	}

	if len(t.Queries) == 0 {
		return fmt.Errorf("Table: %s Err: Queries must be set", t.tableName)
	}

	err := t.validateAndParseObjMap()
	if err != nil {
		return err
	}

	t.parseDeleteQuery()

	return t.validateInsertUpdateDeleteQueries()
}

func (t *Table) validateAndParseObjMap() error {
	objMap, err := structToMap(t.Struct)
	if err != nil {
		return fmt.Errorf("error getting struct map for %s: %s", t.tableName, err)
	}

	if _, ok := objMap[t.PrimaryKeyField]; !ok {
		return fmt.Errorf("Table: %s Err: PrimaryKeyField %s is not a field of the struct", t.tableName, t.PrimaryKeyField)
	}
	if _, ok := objMap[t.TouchField]; t.TouchField != "" && !ok {
		return fmt.Errorf("Table: %s Err: TouchField %s is not a field of the struct", t.tableName, t.TouchField)
	}

	t.columns = map[string]struct{}{}
	for k := range objMap {
		if k == objMapStructNameKey {
			continue
		}
		t.columns[k] = struct{}{}
	}

	objMap[objMapStructPrimaryKey] = t.PrimaryKeyField

	t.objMap = objMap
	return nil
}

func (t *Table) validateInsertUpdateDeleteQueries() error {
	// insert query & update query aren't required e.g. a read-only table

	if !hasReturning(t.InsertQuery) && t.InsertQuery != "" {
		return fmt.Errorf("Table: %s Err: InsertQuery must end with `returning *`", t.tableName)
	}

	if !hasReturning(t.UpdateQuery) && t.UpdateQuery != "" {
		return fmt.Errorf("Table: %s Err: UpdateQuery must end with `returning *`", t.tableName)
	}

	if !hasReturning(t.DeleteQuery) {
		return fmt.Errorf("Table: %s Err: DeleteQuery must end with `returning *`", t.tableName)
	}
	return nil
}

func hasReturning(q string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(q)), "returning *")
}

func (t *Table) parseTableName() {
	// optimization but this is used so many times that it's worth it given it uses reflection
	t.tableName = getStructName(t.Struct)
}

func (t *Table) parseDeleteQuery() {
	if t.DeleteQuery != "" {
		return
	}
	t.DeleteQuery = fmt.Sprintf("DELETE FROM %s WHERE %s=:%s RETURNING *", t.TableName, t.PrimaryKeyField, t.PrimaryKeyField)
}

// patchColumns checks the patch against the struct's columns & returns them sorted so the generated query is stable
func (t *Table) patchColumns(fields map[string]interface{}) ([]string, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty patch", ErrUnknownField)
	}

	cols := make([]string, 0, len(fields))
	for k := range fields {
		if _, ok := t.columns[k]; !ok || k == t.PrimaryKeyField || k == t.TouchField {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, t.TableName, k)
		}
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols, nil
}
