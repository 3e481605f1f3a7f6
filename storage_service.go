package storage

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"
)

func (s *storage) selectOne(ctx context.Context, obj interface{}, queryName string, conn InsertInterface) error {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr {
		return fmt.Errorf("obj not pointer; is %T", obj)
	}

	q, ok := s.queries[queryName]
	if !ok {
		return fmt.Errorf("%w: query %s", ErrNotConfigured, queryName)
	}

	objMap, err := structToMap(obj)
	if err != nil {
		return err
	}

	if q.SelectAction == CacheSet {
		// get the cache key name
		keyName := q.getKeyName(objMap)

		// the obj should be of the value that the cache is expecting so we can then just unmarshal into that
		err = s.cache.get(ctx, keyName, obj)
		if err == nil {
			s.log.debug("found %s in cache", keyName)
			return nil
		}

		// a broken cache shouldn't take reads down with it; fall through to the db
		if err != redis.Nil {
			s.log.warn("cache get %s: %v", keyName, err)
		}
	}

	res, err := s.db.query(ctx, objMap, q.Query, conn)
	if err != nil {
		return err
	}
	if len(res) == 0 {
		return ErrNotFound
	}

	// update the cache
	err = s.cacheActionSelect(ctx, res[0], res[:1], q)
	if err != nil {
		s.log.warn("cache select action for %s: %v", q.Name, err)
	}

	return mapToStruct(res[0], obj)
}

/*
selectAll is the full-fetch-then-cache path. For list queries the cache holds the ordered primary keys
under the query's key and every row under its primary query's key; on a miss the whole list is read
from the db, pushed to the cache and the requested window returned.
*/
func (s *storage) selectAll(ctx context.Context, obj interface{}, dest interface{}, queryName string, opts *SelectOptions, conn InsertInterface) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr {
		return fmt.Errorf("dest not pointer; is %T", dest)
	}

	if opts == nil {
		opts = &SelectOptions{Limit: -1, FetchAllData: true}
	}
	err := opts.validateAndParse()
	if err != nil {
		return err
	}

	q, ok := s.queries[queryName]
	if !ok {
		return fmt.Errorf("%w: query %s", ErrNotConfigured, queryName)
	}

	objMap, err := structToMap(obj)
	if err != nil {
		return err
	}

	// there's no list in the cache for this query so just do the query and return
	if !q.isList() || q.SelectAction == CacheNoAction {
		query := q.Query
		if opts.Limit >= 0 {
			objMap["limit"] = opts.Limit
			objMap["offset"] = opts.Offset
			query = q.queryLimitOffset
		}

		objs, err := s.db.query(ctx, objMap, query, conn)
		if err != nil {
			s.log.debug("error: %+v", err)
			return err
		}
		if opts.Limit < 0 {
			start, end := opts.window(len(objs))
			objs = objs[start:end]
		}
		return mapsToStruct(objs, dest)
	}

	// get the cache key name
	keyName := q.getKeyName(objMap)

	exists, err := s.cache.Exists(ctx, keyName).Result()
	if err != nil {
		s.log.warn("cache exists %s: %v", keyName, err)
		exists = 0
	}

	if exists == 1 {
		ids, err := s.cache.ids(ctx, keyName, int64(opts.Offset), int64(opts.cacheStop))
		if err == nil {
			s.log.debug("found ids in LRange for %s; values: %+v", keyName, ids)

			res, err := s.hydrate(ctx, q, ids, opts, conn)
			if err != nil {
				return err
			}
			return mapsToStruct(res, dest)
		}
		s.log.warn("cache lrange %s: %v", keyName, err)
	}
	s.metrics.cacheMiss()

	// the list wasn't found in the cache; get the whole list from the database and then set the cache
	objs, err := s.db.query(ctx, objMap, q.Query, conn)
	if err != nil {
		s.log.debug("error: %+v", err)
		return err
	}

	s.log.debug("updating cache for %s with %d rows", keyName, len(objs))
	err = s.cacheActionSelect(ctx, objMap, objs, q)
	if err != nil {
		s.log.warn("cache select action for %s: %v", q.Name, err)
	}

	start, end := opts.window(len(objs))
	objs = objs[start:end]

	if !opts.FetchAllData {
		pk := s.queryToTable[q.CachePrimaryQueryStored].PrimaryKeyField
		keys := make([]map[string]interface{}, 0, len(objs))
		for _, o := range objs {
			keys = append(keys, map[string]interface{}{pk: o[pk]})
		}
		objs = keys
	}

	return mapsToStruct(objs, dest)
}

// hydrate turns a cached list of primary keys back into rows, in order. Rows deleted since the list was
// cached are skipped.
func (s *storage) hydrate(ctx context.Context, q *Query, ids []string, opts *SelectOptions, conn InsertInterface) ([]map[string]interface{}, error) {
	primary := s.queryToTable[q.CachePrimaryQueryStored]

	rows := make([]map[string]interface{}, len(ids))
	missing := make([]bool, len(ids))

	if !opts.FetchAllData {
		for i, id := range ids {
			rows[i] = map[string]interface{}{primary.PrimaryKeyField: id}
		}
		return rows, nil
	}

	fetch := func(ctx context.Context, i int, id string) error {
		// get the row that corresponds to the primary key's id stored -> row
		row := make(map[string]interface{}, len(primary.objMap))
		for k, v := range primary.objMap {
			row[k] = v
		}
		row[primary.PrimaryKeyField] = id

		err := s.selectOne(ctx, &row, q.CachePrimaryQueryStored, conn)
		if err == ErrNotFound {
			missing[i] = true
			return nil
		}
		if err != nil {
			return err
		}
		rows[i] = row
		return nil
	}

	// sqlx.Tx isn't safe for concurrent use
	_, isTx := conn.(interface{ Commit() error })

	if s.disableConcurrency || isTx {
		s.log.debug("fetching without concurrency")
		for i, id := range ids {
			if err := fetch(ctx, i, id); err != nil {
				return nil, err
			}
		}
	} else {
		s.log.debug("fetching with concurrency")
		g, gctx := errgroup.WithContext(ctx)
		for i, id := range ids {
			i, id := i, id
			g.Go(func() error {
				return fetch(gctx, i, id)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	out := make([]map[string]interface{}, 0, len(rows))
	for i, r := range rows {
		if missing[i] {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *storage) insert(ctx context.Context, table *Table, objMap map[string]interface{}, conn InsertInterface) (map[string]interface{}, error) {
	if table.InsertQuery == "" {
		return nil, fmt.Errorf("%w: no InsertQuery for %s", ErrNotConfigured, table.tableName)
	}

	newID(table, objMap)

	res, err := s.db.query(ctx, objMap, table.InsertQuery, conn)
	if err != nil {
		return nil, err
	}

	if len(res) != 1 {
		return nil, fmt.Errorf("insert did not return a single row; returned: %d", len(res))
	}

	// objMap probably has stuff we need, such as private keys, so we'll just overwrite the fields we have and return objMap
	for k, v := range res[0] {
		objMap[k] = v
	}
	return objMap, nil
}

func (s *storage) update(ctx context.Context, table *Table, objMap map[string]interface{}, conn InsertInterface) (map[string]interface{}, map[string]interface{}, error) {
	if table.UpdateQuery == "" {
		return nil, nil, fmt.Errorf("%w: no UpdateQuery for %s", ErrNotConfigured, table.tableName)
	}

	cols := make([]string, 0, len(table.columns))
	for c := range table.columns {
		cols = append(cols, c)
	}
	prev, err := s.before(ctx, table, objMap, objMap[table.PrimaryKeyField], cols, conn)
	if err != nil {
		return nil, nil, err
	}

	res, err := s.db.query(ctx, objMap, table.UpdateQuery, conn)
	if err != nil {
		return nil, nil, err
	}

	if len(res) == 0 {
		return nil, nil, ErrNotFound
	}
	if len(res) != 1 {
		return nil, nil, fmt.Errorf("update did not return a single row; returned: %d", len(res))
	}

	for k, v := range res[0] {
		objMap[k] = v
	}
	return objMap, prev, nil
}

// patch returns the patched row and, when the patch touches a keyed list's column, the row as it was
func (s *storage) patch(ctx context.Context, table *Table, objMap map[string]interface{}, id interface{}, fields map[string]interface{}, conn InsertInterface) (map[string]interface{}, map[string]interface{}, error) {
	cols, err := table.patchColumns(fields)
	if err != nil {
		return nil, nil, err
	}

	prev, err := s.before(ctx, table, objMap, id, cols, conn)
	if err != nil {
		return nil, nil, err
	}

	args := map[string]interface{}{
		objMapStructNameKey:   objMap[objMapStructNameKey],
		table.PrimaryKeyField: id,
	}
	for _, c := range cols {
		args[c] = fields[c]
	}

	res, err := s.db.query(ctx, args, table.patchQuery(cols), conn)
	if err != nil {
		return nil, nil, err
	}
	if len(res) == 0 {
		return nil, nil, ErrNotFound
	}
	return res[0], prev, nil
}

// keyedLists returns the cached lists whose key reads one of cols e.g. lead_interactions|lead_id=%v;
// writing one of those columns can move a row from one list to another
func keyedLists(table *Table, cols []string) []*Query {
	var out []*Query
	for _, q := range table.Queries {
		if !q.isList() {
			continue
		}
	fields:
		for _, f := range q.cacheKeyFields {
			for _, c := range cols {
				if f == c {
					out = append(out, q)
					break fields
				}
			}
		}
	}
	return out
}

// before reads the row from the db ahead of a write that may move it between keyed lists. It returns
// nil when no keyed list is affected.
func (s *storage) before(ctx context.Context, table *Table, objMap map[string]interface{}, id interface{}, cols []string, conn InsertInterface) (map[string]interface{}, error) {
	if len(keyedLists(table, cols)) == 0 {
		return nil, nil
	}

	args := map[string]interface{}{
		objMapStructNameKey:   objMap[objMapStructNameKey],
		table.PrimaryKeyField: id,
	}
	res, err := s.db.query(ctx, args, s.queries[table.PrimaryQueryName].Query, conn)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, ErrNotFound
	}
	return res[0], nil
}

// delete removes the row; the returned row is what the cache actions run against
func (s *storage) delete(ctx context.Context, table *Table, objMap map[string]interface{}, id interface{}, conn InsertInterface) (map[string]interface{}, error) {
	args := map[string]interface{}{
		objMapStructNameKey:   objMap[objMapStructNameKey],
		table.PrimaryKeyField: id,
	}

	res, err := s.db.query(ctx, args, table.DeleteQuery, conn)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, ErrNotFound
	}
	return res[0], nil
}
