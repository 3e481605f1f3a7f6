package storage

import (
	"errors"
	"fmt"
	"strings"
)

func (q *Query) validate() error {
	err := q.validateName()
	if err != nil {
		return err
	}

	err = q.validateAndParseCacheFields()
	if err != nil {
		return err
	}

	q.parseDefaultActions()

	err = q.validateAndParseCacheDataStructure()
	if err != nil {
		return err
	}

	return q.validateDeleteAction()
}

func (q *Query) validateName() error {
	if q.Name == "" {
		return errors.New("name is required")
	}
	if q.Query == "" {
		return fmt.Errorf("query %s: Query is required", q.Name)
	}
	return nil
}

// parseDefaultActions resolves CacheDefault: no action for insert/update/select, delete the key on delete
func (q *Query) parseDefaultActions() {
	if q.InsertAction == CacheDefault {
		q.InsertAction = CacheNoAction
	}
	if q.UpdateAction == CacheDefault {
		q.UpdateAction = CacheNoAction
	}
	if q.SelectAction == CacheDefault {
		q.SelectAction = CacheNoAction
	}
	if q.DeleteAction == CacheDefault {
		q.DeleteAction = CacheDel
	}
}

// validateAndParseCacheFields takes in a generic key e.g. `leads|lead_id=%v` and places the lead_id into the cacheKeyFields
func (q *Query) validateAndParseCacheFields() error {
	q.cacheKeyFields = []string{}

	if q.CacheKey == "" {
		return fmt.Errorf("query %s: CacheKey is required", q.Name)
	}

	keys := strings.Split(q.CacheKey, "|")
	if strings.Contains(keys[0], `%v`) {
		return fmt.Errorf("invalid CacheKey %s; must not contain `%%v` in the first pipe", q.CacheKey)
	}

	fields := []string{}
	for _, key := range keys[1:] {
		if !strings.Contains(key, `=%v`) {
			// field doesn't have a placeholder value; continue
			continue
		}

		parts := strings.Split(key, "=")
		if len(parts) != 2 || parts[0] == "" || parts[1] != `%v` {
			return fmt.Errorf("invalid CacheKey %s; a pipe must be in the format `column=%%v`", q.CacheKey)
		}
		fields = append(fields, parts[0])
	}

	q.cacheKeyFields = fields
	return nil
}

// validateAndParseCacheDataStructure parses the Insert, Select, and Update actions and sets the cacheDataStructure based off of the actions
func (q *Query) validateAndParseCacheDataStructure() error {
	m := map[string]CacheDataStructure{}

	for name, action := range map[string]CacheAction{
		"insert": q.InsertAction,
		"update": q.UpdateAction,
		"select": q.SelectAction,
	} {
		switch action {
		case CacheLPush, CacheRPush:
			m[name] = CacheDataStructureList
		case CacheSet:
			m[name] = CacheDataStructureStruct
		case CacheNoAction, CacheDel:
		default:
			return fmt.Errorf("query %s: %s action %d is not allowed", q.Name, name, action)
		}
	}

	if len(m) == 0 {
		// everything is CacheNoAction
		return nil
	}

	c := CacheDataStructureDefault
	for _, v := range m {
		// first time through; set c to the first value
		if c == CacheDataStructureDefault {
			c = v
			continue
		}

		if c != v {
			return fmt.Errorf("query %s: all actions must be the same datastructure", q.Name)
		}
	}

	q.cacheDataStructure = c // assign the cacheDataStructure a value

	return nil
}

func (q *Query) validateDeleteAction() error {
	switch q.DeleteAction {
	case CacheDel, CacheNoAction:
		return nil
	case CacheLRem:
		if !q.isList() {
			return fmt.Errorf("query %s: CacheLRem is only valid on lists", q.Name)
		}
		return nil
	}
	return fmt.Errorf("query %s: delete action %d is not allowed", q.Name, q.DeleteAction)
}

func (q *Query) parseFullCacheKey(service string) {
	// this is an optimization so we don't need to concat the prefix on every lookup
	q.fullCacheKey = fmt.Sprintf("%s%s|%s", cacheKeyPrefix, service, q.CacheKey)
}

func (q *Query) parseTTL(defaultTTL int) {
	if q.CacheTTL == 0 {
		q.CacheTTL = defaultTTL
	}
}

func (q *Query) parseLimitOffsetQuery() {
	q.queryLimitOffset = q.Query + " LIMIT :limit OFFSET :offset"
}
