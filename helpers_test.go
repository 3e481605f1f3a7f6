package storage

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type Leads struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	AssignedTo *string   `json:"assigned_to"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	testLeadsGetByID  = "LeadsGetByID"
	testLeadsGetAll   = "LeadsGetAll"
	testLeadsByStatus = "LeadsByStatus"
	testLeadsByOwner  = "LeadsByOwner"
)

var leadColumns = []string{"id", "name", "status", "assigned_to", "created_at"}

func testTables() []*Table {
	return []*Table{
		{
			Struct:           Leads{},
			TableName:        "leads",
			PrimaryKeyField:  "id",
			PrimaryQueryName: testLeadsGetByID,
			GenerateID:       true,
			InsertQuery:      `INSERT INTO leads (id, name, status) VALUES (:id, :name, :status) RETURNING *`,
			Queries: []*Query{
				{
					Name:         testLeadsGetByID,
					CacheKey:     "leads|id=%v",
					Query:        "select * from leads where id=:id",
					InsertAction: CacheSet,
					UpdateAction: CacheSet,
					SelectAction: CacheSet,
					DeleteAction: CacheDel,
				},
				{
					Name:                    testLeadsGetAll,
					CacheKey:                "leads|all",
					CachePrimaryQueryStored: testLeadsGetByID,
					Query:                   "select * from leads order by created_at desc",
					InsertAction:            CacheLPush,
					UpdateAction:            CacheNoAction,
					SelectAction:            CacheRPush,
					DeleteAction:            CacheLRem,
				},
				{
					Name:                    testLeadsByOwner,
					CacheKey:                "leads|assigned_to=%v",
					CachePrimaryQueryStored: testLeadsGetByID,
					Query:                   "select * from leads where assigned_to=:assigned_to order by created_at desc",
					InsertAction:            CacheLPush,
					UpdateAction:            CacheNoAction,
					SelectAction:            CacheRPush,
					DeleteAction:            CacheLRem,
				},
				{
					Name:     testLeadsByStatus,
					CacheKey: "leads|status=%v",
					Query:    "select * from leads where status=:status",
				},
			},
		},
	}
}

type harness struct {
	s     Storage
	mock  sqlmock.Sqlmock
	redis *miniredis.Miniredis
	logs  *test.Hook
}

func newHarness(t *testing.T, conf *Config) *harness {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	db := sqlx.NewDb(mockDB, "postgres")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	if conf == nil {
		conf = &Config{}
	}
	conf.ReadOnlyDbConn = db
	conf.WriteOnlyDbConn = db
	conf.Redis = rdb
	conf.Logger = logrus.NewEntry(logger)
	if conf.Tables == nil {
		conf.Tables = testTables()
	}
	if conf.ServiceName == "" {
		conf.ServiceName = "test"
	}

	s, err := New(conf)
	require.NoError(t, err)

	return &harness{s: s, mock: mock, redis: mr, logs: hook}
}

func leadRows(leads ...Leads) *sqlmock.Rows {
	rows := sqlmock.NewRows(leadColumns)
	for _, l := range leads {
		var assigned interface{}
		if l.AssignedTo != nil {
			assigned = *l.AssignedTo
		}
		rows.AddRow(l.ID, l.Name, l.Status, assigned, l.CreatedAt)
	}
	return rows
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
