package storage

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryValidate(t *testing.T) {
	cases := map[string]struct {
		q       Query
		wantErr bool
	}{
		"row": {
			q: Query{Name: "a", CacheKey: "leads|id=%v", Query: "select 1", SelectAction: CacheSet},
		},
		"list": {
			q: Query{Name: "a", CacheKey: "leads|all", Query: "select 1", InsertAction: CacheLPush, SelectAction: CacheRPush, DeleteAction: CacheLRem},
		},
		"no name": {
			q:       Query{CacheKey: "leads|id=%v", Query: "select 1"},
			wantErr: true,
		},
		"no query": {
			q:       Query{Name: "a", CacheKey: "leads|id=%v"},
			wantErr: true,
		},
		"no cache key": {
			q:       Query{Name: "a", Query: "select 1"},
			wantErr: true,
		},
		"placeholder in first pipe": {
			q:       Query{Name: "a", CacheKey: "leads=%v|x", Query: "select 1"},
			wantErr: true,
		},
		"bad placeholder": {
			q:       Query{Name: "a", CacheKey: "leads|=%v", Query: "select 1"},
			wantErr: true,
		},
		"mixed structures": {
			q:       Query{Name: "a", CacheKey: "leads|all", Query: "select 1", InsertAction: CacheLPush, SelectAction: CacheSet},
			wantErr: true,
		},
		"lrem on a row": {
			q:       Query{Name: "a", CacheKey: "leads|id=%v", Query: "select 1", SelectAction: CacheSet, DeleteAction: CacheLRem},
			wantErr: true,
		},
		"lrem as select": {
			q:       Query{Name: "a", CacheKey: "leads|all", Query: "select 1", SelectAction: CacheLRem},
			wantErr: true,
		},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			q := c.q
			err := q.validate()
			if c.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestQueryDefaults(t *testing.T) {
	q := Query{Name: "a", CacheKey: "lead_interactions|lead_id=%v|type=%v", Query: "select 1"}
	require.NoError(t, q.validate())

	assert.Equal(t, CacheNoAction, q.InsertAction)
	assert.Equal(t, CacheNoAction, q.SelectAction)
	assert.Equal(t, CacheDel, q.DeleteAction)
	assert.Equal(t, []string{"lead_id", "type"}, q.cacheKeyFields)

	q.parseFullCacheKey("crm")
	q.parseTTL(60)
	assert.Equal(t, 60, q.CacheTTL)
	assert.Equal(t, "service:crm|lead_interactions|lead_id=l1|type=call",
		q.getKeyName(map[string]interface{}{"lead_id": "l1", "type": "call"}))
}

func TestTableValidate(t *testing.T) {
	table := testTables()[0]
	require.NoError(t, table.validate())
	assert.Equal(t, "Leads", table.tableName)
	assert.Equal(t, "DELETE FROM leads WHERE id=:id RETURNING *", table.DeleteQuery)
	assert.Contains(t, table.columns, "assigned_to")

	bad := testTables()[0]
	bad.PrimaryKeyField = "uuid"
	assert.Error(t, bad.validate())

	bad = testTables()[0]
	bad.InsertQuery = "INSERT INTO leads (id) VALUES (:id)"
	assert.Error(t, bad.validate())

	bad = testTables()[0]
	bad.Struct = nil
	assert.Error(t, bad.validate())
}

func TestPatchColumns(t *testing.T) {
	table := testTables()[0]
	require.NoError(t, table.validate())

	cols, err := table.patchColumns(map[string]interface{}{"status": "won", "name": "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "status"}, cols)
	assert.Equal(t, "UPDATE leads SET name=:name, status=:status WHERE id=:id RETURNING *", table.patchQuery(cols))

	touched := testTables()[0]
	touched.TouchField = "created_at"
	require.NoError(t, touched.validate())
	assert.Equal(t, "UPDATE leads SET status=:status, created_at=now() WHERE id=:id RETURNING *",
		touched.patchQuery([]string{"status"}))
	_, err = touched.patchColumns(map[string]interface{}{"created_at": "2024-01-01"})
	assert.ErrorIs(t, err, ErrUnknownField, "the touched column is only written by the db")

	touched.TouchField = "updated"
	assert.Error(t, touched.validate())
}

func TestSelectOptions(t *testing.T) {
	o := &SelectOptions{Limit: 10, Offset: 5}
	require.NoError(t, o.validateAndParse())
	assert.Equal(t, 14, o.cacheStop)

	start, end := o.window(8)
	assert.Equal(t, 5, start)
	assert.Equal(t, 8, end)

	start, end = o.window(3)
	assert.Equal(t, 3, start)
	assert.Equal(t, 3, end)

	all := &SelectOptions{Limit: -1}
	require.NoError(t, all.validateAndParse())
	assert.Equal(t, -1, all.cacheStop)

	assert.Error(t, (&SelectOptions{}).validateAndParse())
	assert.Error(t, (&SelectOptions{Limit: 1, Offset: -2}).validateAndParse())
}

func newConns(t *testing.T) (*sqlx.DB, redis.UniversalClient) {
	t.Helper()
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	mr := miniredis.RunT(t)
	return sqlx.NewDb(mockDB, "postgres"), redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestNew_RejectsBadConfig(t *testing.T) {
	db, rdb := newConns(t)

	_, err := New(&Config{Tables: testTables(), ServiceName: "test"})
	assert.Error(t, err, "connections are required")

	_, err = New(&Config{ReadOnlyDbConn: db, WriteOnlyDbConn: db, Redis: rdb, Tables: testTables()})
	assert.Error(t, err, "service name is required")

	dup := testTables()
	dup[0].Queries = append(dup[0].Queries, &Query{Name: testLeadsGetAll, CacheKey: "leads|x", Query: "select 1"})
	_, err = New(&Config{ReadOnlyDbConn: db, WriteOnlyDbConn: db, Redis: rdb, Tables: dup, ServiceName: "test"})
	assert.Error(t, err, "query names are unique")

	twice := append(testTables(), testTables()...)
	_, err = New(&Config{ReadOnlyDbConn: db, WriteOnlyDbConn: db, Redis: rdb, Tables: twice, ServiceName: "test"})
	assert.Error(t, err, "a struct maps to one table")

	noPrimary := testTables()
	noPrimary[0].Queries[1].CachePrimaryQueryStored = ""
	_, err = New(&Config{ReadOnlyDbConn: db, WriteOnlyDbConn: db, Redis: rdb, Tables: noPrimary, ServiceName: "test"})
	assert.Error(t, err, "lists name the query of the rows they store")

	wrongPrimary := testTables()
	wrongPrimary[0].Queries[1].CachePrimaryQueryStored = testLeadsByStatus
	_, err = New(&Config{ReadOnlyDbConn: db, WriteOnlyDbConn: db, Redis: rdb, Tables: wrongPrimary, ServiceName: "test"})
	assert.Error(t, err)

	missing := testTables()
	missing[0].PrimaryQueryName = "Nope"
	_, err = New(&Config{ReadOnlyDbConn: db, WriteOnlyDbConn: db, Redis: rdb, Tables: missing, ServiceName: "test"})
	assert.Error(t, err)
}

func TestKeyedLists(t *testing.T) {
	table := testTables()[0]
	require.NoError(t, table.validate())
	for _, q := range table.Queries {
		require.NoError(t, q.validate())
	}

	got := keyedLists(table, []string{"assigned_to", "name"})
	require.Len(t, got, 1)
	assert.Equal(t, testLeadsByOwner, got[0].Name)

	assert.Empty(t, keyedLists(table, []string{"name", "status"}), "uncached and unkeyed lists never move")
}
