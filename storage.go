package storage

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultTTL is used for queries that don't set a CacheTTL & a Config without DefaultTTL
	DefaultTTL = 3600 * 24 * 7 // 7 days
)

// Storage is the API of this package: tables registered in Config are read through redis and
// written to the db first, with the cache updated after the write is confirmed.
type Storage interface {
	// TXBegin starts a transaction; cache actions are replayed only once TXEnd commits
	TXBegin(ctx context.Context) (TxInterface, error)

	// Insert inserts obj using its table's InsertQuery and fills obj with the returned row
	Insert(ctx context.Context, obj interface{}) error
	// Update writes every column of obj using its table's UpdateQuery
	Update(ctx context.Context, obj interface{}) error
	// Patch updates only the given columns of the row with primary key id and fills obj with the result
	Patch(ctx context.Context, obj interface{}, id interface{}, fields map[string]interface{}) error
	// Delete deletes the row with primary key id and fills obj with the deleted row
	Delete(ctx context.Context, obj interface{}, id interface{}) error

	// Select fills out the obj for its response
	Select(ctx context.Context, obj interface{}, queryName string) error

	/*
		SelectAll fills out dest (a pointer to a slice) as the response; obj carries the values of the query's
		named parameters. Note: you could actually take the query and find the struct, make it a slice of structs,
		etc but that's actually not the most developer-friendly way because then you'd have to type-cast and check
		the objs being returned.
	*/
	SelectAll(ctx context.Context, obj interface{}, dest interface{}, queryName string, opts *SelectOptions) error

	DeleteKeys(ctx context.Context, objs ...interface{}) error // Deletes the object's keys from the cache

	// Clear deletes every cached key of this service such as during a migration
	Clear(ctx context.Context) error
}

type Config struct {
	ReadOnlyDbConn  *sqlx.DB
	WriteOnlyDbConn *sqlx.DB
	Redis           redis.UniversalClient
	Tables          []*Table

	ServiceName string
	DefaultTTL  int // seconds

	Debugger bool          // logs every cache & db step at debug level
	Logger   *logrus.Entry // optional; defaults to the standard logrus logger
	Metrics  *Metrics      // optional

	DisableConcurrency bool // hydrate cached lists one row at a time
	ExplainQueries     bool // EXPLAIN every cached query in New
}

// storage is the private implementation of the API
type storage struct {
	db    *db
	cache *cache

	serviceName        string
	defaultTTL         int
	disableConcurrency bool
	metrics            *Metrics
	log                *logger

	queries       map[string]*Query // query.Name -> query
	queryToTable  map[string]*Table // query.Name -> table the query selects from
	structToTable map[string]*Table // struct name -> table
}

// New returns a Storage after validating every table & query in conf
func New(conf *Config) (Storage, error) {
	if conf.ReadOnlyDbConn == nil || conf.WriteOnlyDbConn == nil {
		return nil, errors.New("storage: db connections must be set")
	}
	if conf.Redis == nil {
		return nil, errors.New("storage: redis must be set")
	}

	log := newLogger(conf.Logger, conf.Debugger, conf.ServiceName)

	s := &storage{
		db:                 newDB(conf),
		cache:              newCache(conf.Redis, conf.Metrics, log),
		log:                log,
		serviceName:        conf.ServiceName,
		defaultTTL:         conf.DefaultTTL,
		disableConcurrency: conf.DisableConcurrency,
		metrics:            conf.Metrics,
		queries:            map[string]*Query{},
		queryToTable:       map[string]*Table{},
		structToTable:      map[string]*Table{},
	}
	if s.defaultTTL == 0 {
		s.defaultTTL = DefaultTTL
	}

	for _, t := range conf.Tables {
		err := t.validate()
		if err != nil {
			return nil, err
		}

		if _, ok := s.structToTable[t.tableName]; ok {
			return nil, fmt.Errorf("storage: struct %s registered twice", t.tableName)
		}
		s.structToTable[t.tableName] = t

		for _, q := range t.Queries {
			err = q.validate()
			if err != nil {
				return nil, err
			}
			if _, ok := s.queries[q.Name]; ok {
				return nil, fmt.Errorf("storage: query %s registered twice", q.Name)
			}

			q.parseTTL(s.defaultTTL)
			q.parseFullCacheKey(s.serviceName)
			q.parseLimitOffsetQuery()

			s.queries[q.Name] = q
			s.queryToTable[q.Name] = t
		}

		if _, ok := s.queries[t.PrimaryQueryName]; !ok {
			return nil, fmt.Errorf("Table: %s Err: PrimaryQueryName %s is not one of its queries", t.tableName, t.PrimaryQueryName)
		}
	}

	err := s.validate()
	if err != nil {
		return nil, err
	}

	if conf.ExplainQueries {
		err = s.explainQueries(context.Background())
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

// tableFor returns the table registered for the struct the objMap came from
func (s *storage) tableFor(objMap map[string]interface{}) (*Table, error) {
	structName, _ := objMap[objMapStructNameKey].(string)
	if structName == "" {
		return nil, errors.New("struct name cannot be blank")
	}

	table, ok := s.structToTable[structName]
	if !ok {
		return nil, fmt.Errorf("%w: no table found for %s", ErrNotConfigured, structName)
	}
	return table, nil
}

func (s *storage) Insert(ctx context.Context, obj interface{}) (err error) {
	objMap, err := structToMap(obj)
	if err != nil {
		return err
	}
	table, err := s.tableFor(objMap)
	if err != nil {
		return err
	}
	defer s.metrics.observe(table.TableName, "insert", time.Now(), &err)

	objMap, err = s.insert(ctx, table, objMap, s.db.writeConn())
	if err != nil {
		return err
	}

	s.afterWrite(ctx, objMap, actionInsert)
	return mapToStruct(objMap, obj)
}

func (s *storage) Update(ctx context.Context, obj interface{}) (err error) {
	objMap, err := structToMap(obj)
	if err != nil {
		return err
	}
	table, err := s.tableFor(objMap)
	if err != nil {
		return err
	}
	defer s.metrics.observe(table.TableName, "update", time.Now(), &err)

	objMap, prev, err := s.update(ctx, table, objMap, s.db.writeConn())
	if err != nil {
		return err
	}

	s.afterWrite(ctx, objMap, actionUpdate)
	s.afterMove(ctx, prev, objMap)
	return mapToStruct(objMap, obj)
}

func (s *storage) Patch(ctx context.Context, obj interface{}, id interface{}, fields map[string]interface{}) (err error) {
	objMap, err := structToMap(obj)
	if err != nil {
		return err
	}
	table, err := s.tableFor(objMap)
	if err != nil {
		return err
	}
	defer s.metrics.observe(table.TableName, "patch", time.Now(), &err)

	objMap, prev, err := s.patch(ctx, table, objMap, id, fields, s.db.writeConn())
	if err != nil {
		return err
	}

	s.afterWrite(ctx, objMap, actionUpdate)
	s.afterMove(ctx, prev, objMap)
	return mapToStruct(objMap, obj)
}

func (s *storage) Delete(ctx context.Context, obj interface{}, id interface{}) (err error) {
	objMap, err := structToMap(obj)
	if err != nil {
		return err
	}
	table, err := s.tableFor(objMap)
	if err != nil {
		return err
	}
	defer s.metrics.observe(table.TableName, "delete", time.Now(), &err)

	objMap, err = s.delete(ctx, table, objMap, id, s.db.writeConn())
	if err != nil {
		return err
	}

	s.afterWrite(ctx, objMap, actionDelete)
	return mapToStruct(objMap, obj)
}

func (s *storage) Select(ctx context.Context, obj interface{}, queryName string) (err error) {
	if q, ok := s.queryToTable[queryName]; ok {
		defer s.metrics.observe(q.TableName, "select", time.Now(), &err)
	}
	return s.selectOne(ctx, obj, queryName, s.db.readConn())
}

func (s *storage) SelectAll(ctx context.Context, obj interface{}, dest interface{}, queryName string, opts *SelectOptions) (err error) {
	if q, ok := s.queryToTable[queryName]; ok {
		defer s.metrics.observe(q.TableName, "select_all", time.Now(), &err)
	}
	return s.selectAll(ctx, obj, dest, queryName, opts, s.db.readConn())
}

func (s *storage) DeleteKeys(ctx context.Context, objs ...interface{}) error {
	for _, obj := range objs {
		objMap, err := structToMap(obj)
		if err != nil {
			return err
		}
		err = s.invalidate(ctx, objMap)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *storage) Clear(ctx context.Context) error {
	return s.cache.clear(ctx, fmt.Sprintf("%s%s|*", cacheKeyPrefix, s.serviceName))
}

// newID fills an empty primary key with a uuid when the table asks for it
func newID(table *Table, objMap map[string]interface{}) {
	if !table.GenerateID {
		return
	}
	v := objMap[table.PrimaryKeyField]
	if v == nil || reflect.ValueOf(v).IsZero() {
		objMap[table.PrimaryKeyField] = uuid.NewString()
	}
}
