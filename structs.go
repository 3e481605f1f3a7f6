package storage

import (
	"fmt"
	"strings"
)

type actionTypes int32

const (
	actionSelect actionTypes = iota
	actionInsert
	actionUpdate
	actionDelete
)

func (a actionTypes) String() string {
	switch a {
	case actionSelect:
		return "select"
	case actionInsert:
		return "insert"
	case actionUpdate:
		return "update"
	case actionDelete:
		return "delete"
	}
	return "unknown"
}

const (
	objMapStructNameKey    = "_structName"
	objMapStructPrimaryKey = "_primaryKey"
)

const (
	cacheKeyPrefix = "service:"
)

// Define the cache actions you can take
type CacheAction int32

const (
	CacheDefault  CacheAction = iota
	CacheNoAction             // do nothing
	CacheDel
	CacheSet
	CacheLPush
	CacheRPush
	CacheLRem // remove the primary key from a list; only valid as a DeleteAction
)

type CacheDataStructure int32

const (
	CacheDataStructureDefault CacheDataStructure = iota
	CacheDataStructureStruct
	CacheDataStructureList
)

/*
Query is a named select with the cache behaviour attached to it.

CacheKey is the part after `service:{serviceName}|` and uses `column=%v` segments for the dynamic
values e.g. `leads|id=%v` or `lead_interactions|lead_id=%v`. A query whose actions push/pop ids is a
list and must name the primary query of the table it stores ids of in CachePrimaryQueryStored.
*/
type Query struct {
	Name     string
	CacheKey string
	Query    string // named sql query e.g. `select * from leads where id=:id`

	CachePrimaryQueryStored string

	CacheTTL int // seconds; 0 falls back to the storage's DefaultTTL

	InsertAction CacheAction
	UpdateAction CacheAction
	DeleteAction CacheAction // CacheDefault deletes the key
	SelectAction CacheAction

	cacheKeyFields     []string
	cacheDataStructure CacheDataStructure
	fullCacheKey       string
	queryLimitOffset   string
}

// getKeyName takes a cache's abstract key, e.g. `service:crm|leads|id=%v` and returns the key name e.g. `service:crm|leads|id=42`
func (q *Query) getKeyName(objMap map[string]interface{}) string {
	args := make([]interface{}, 0, len(q.cacheKeyFields))
	for _, field := range q.cacheKeyFields {
		args = append(args, objMap[field])
	}

	return fmt.Sprintf(q.fullCacheKey, args...)
}

func (q *Query) isList() bool {
	return q.cacheDataStructure == CacheDataStructureList
}

// Table is the struct that holds the config for both cache & db and is associated to a specific DB Struct
type Table struct {
	Struct    interface{} // DB struct this is based off of
	TableName string      // sql table name e.g. leads

	PrimaryKeyField  string // column of the primary key e.g. id
	PrimaryQueryName string // name of the query that fetches by the primary key e.g. LeadsGetByID
	GenerateID       bool   // fill an empty primary key with a uuid before insert

	InsertQuery string // must end with `RETURNING *`
	UpdateQuery string // optional full-row update; must end with `RETURNING *`
	DeleteQuery string // generated from TableName & PrimaryKeyField when empty

	TouchField string // optional column set to now() by every patch e.g. updated_at

	Queries []*Query

	tableName string // struct name
	objMap    map[string]interface{}
	columns   map[string]struct{}
}

// patchQuery builds an update for only the given columns. Columns must have been checked against t.columns.
func (t *Table) patchQuery(columns []string) string {
	sets := make([]string, 0, len(columns))
	for _, c := range columns {
		sets = append(sets, fmt.Sprintf("%s=:%s", c, c))
	}
	if t.TouchField != "" {
		sets = append(sets, t.TouchField+"=now()")
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s=:%s RETURNING *",
		t.TableName, strings.Join(sets, ", "), t.PrimaryKeyField, t.PrimaryKeyField)
}

// SelectOptions bounds the ids read from a cached list. Limit < 0 means everything.
type SelectOptions struct {
	Limit  int
	Offset int

	// FetchAllData hydrates every row from its primary key; when false only the primary keys are returned
	FetchAllData bool

	cacheStop int
}

func (o *SelectOptions) validateAndParse() error {
	if o.Offset < 0 {
		return fmt.Errorf("storage: offset must be >= 0; got %d", o.Offset)
	}
	if o.Limit == 0 {
		return fmt.Errorf("storage: limit must be set; use -1 for all rows")
	}

	// LRANGE's stop is inclusive
	if o.Limit < 0 {
		o.cacheStop = -1
	} else {
		o.cacheStop = o.Offset + o.Limit - 1
	}
	return nil
}

// window applies the options to an already fetched slice
func (o *SelectOptions) window(n int) (int, int) {
	start := o.Offset
	if start > n {
		start = n
	}
	end := n
	if o.Limit >= 0 && start+o.Limit < n {
		end = start + o.Limit
	}
	return start, end
}
