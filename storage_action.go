package storage

import (
	"context"
	"errors"
	"fmt"
)

// afterWrite runs the cache actions for a confirmed write. The db is the source of truth so a failing
// cache is logged and the affected keys dropped instead of failing the write.
func (s *storage) afterWrite(ctx context.Context, objMap map[string]interface{}, action actionTypes) {
	err := s.actionNonSelect(ctx, objMap, action)
	if err == nil {
		return
	}

	s.log.warn("cache %s action: %v", action, err)

	// As Logan says: deleting the key is never the wrong move.
	err = s.invalidate(ctx, objMap)
	if err != nil {
		s.log.warn("cache invalidate after failed %s action: %v", action, err)
	}
}

// afterMove fixes the keyed lists a row left or joined when a write changed their key columns. The id is
// LRem'd from the old list; the new list is dropped and rebuilt on its next select since where the row
// sorts in it isn't known here.
func (s *storage) afterMove(ctx context.Context, prev, objMap map[string]interface{}) {
	if prev == nil {
		return
	}
	table, err := s.tableFor(objMap)
	if err != nil {
		s.log.warn("cache move: %v", err)
		return
	}

	cols := make([]string, 0, len(table.columns))
	for c := range table.columns {
		cols = append(cols, c)
	}
	for _, q := range keyedLists(table, cols) {
		from, to := q.getKeyName(prev), q.getKeyName(objMap)
		if from == to {
			continue
		}
		s.log.debug("row moved from %s to %s", from, to)

		stale := []string{to}
		err := s.cache.LRem(ctx, from, 0, s.storedPrimaryKey(q, prev)).Err()
		if err != nil {
			s.log.warn("cache lrem %s: %v", from, err)
			stale = append(stale, from)
		}
		err = s.cache.Del(ctx, stale...).Err()
		if err != nil {
			s.log.warn("cache del %v: %v", stale, err)
		}
	}
}

/*
actionNonSelect takes an action on a specific row (not rows) that has been inserted, updated or deleted. This will cause:
 1. individual rows to be updated in cache (e.g. a lead by id)
 2. lists to be LPushX'd / RPushX'd / LRem'd; the X means a list that isn't cached yet is left alone so
    the next select builds it from the db
*/
func (s *storage) actionNonSelect(ctx context.Context, objMap map[string]interface{}, action actionTypes) error {
	if action == actionSelect {
		return errors.New("cannot do actionSelect in actionNonSelect")
	}

	table, err := s.tableFor(objMap)
	if err != nil {
		return err
	}

	var errs []error
	for _, q := range table.Queries {
		var actionToTake CacheAction
		switch action {
		case actionInsert:
			actionToTake = q.InsertAction
		case actionUpdate:
			actionToTake = q.UpdateAction
		case actionDelete:
			actionToTake = q.DeleteAction
		}

		keyName := q.getKeyName(objMap)
		s.log.debug("%s action %d on %s", action, actionToTake, keyName)

		var err error
		switch actionToTake {
		case CacheNoAction:
			// don't do anything

		case CacheSet:
			err = s.cache.set(ctx, keyName, objMap, q.CacheTTL)

		case CacheDel:
			err = s.cache.Del(ctx, keyName).Err()

		case CacheLPush:
			err = s.cache.LPushX(ctx, keyName, s.storedPrimaryKey(q, objMap)).Err()

		case CacheRPush:
			err = s.cache.RPushX(ctx, keyName, s.storedPrimaryKey(q, objMap)).Err()

		case CacheLRem:
			err = s.cache.LRem(ctx, keyName, 0, s.storedPrimaryKey(q, objMap)).Err()

		default:
			err = fmt.Errorf("unknown %s action %d", action, actionToTake)
		}

		// do not return; we want to update all the queries
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", keyName, err))
		}
	}

	return errors.Join(errs...)
}

// storedPrimaryKey returns the value a list query stores for objMap e.g. the lead's id
func (s *storage) storedPrimaryKey(q *Query, objMap map[string]interface{}) interface{} {
	t := s.queryToTable[q.CachePrimaryQueryStored]
	return objMap[t.PrimaryKeyField]
}

// cacheActionSelect caches what a select read from the db. keyMap supplies the key's fields.
func (s *storage) cacheActionSelect(ctx context.Context, keyMap map[string]interface{}, objs []map[string]interface{}, q *Query) error {
	keyName := q.getKeyName(keyMap)

	switch q.SelectAction {
	case CacheNoAction:
		return nil

	case CacheSet:
		if len(objs) == 0 {
			return nil
		}
		return s.cache.set(ctx, keyName, objs[0], q.CacheTTL)

	case CacheDel:
		return s.cache.Del(ctx, keyName).Err()

	case CacheLPush, CacheRPush:
		ids := make([]interface{}, 0, len(objs))
		for _, o := range objs {
			ids = append(ids, s.storedPrimaryKey(q, o))
		}
		if q.SelectAction == CacheLPush {
			// LPUSH of a,b,c leaves c,b,a
			for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}

		err := s.cache.pushList(ctx, keyName, ids, q.CacheTTL)
		if err != nil {
			return err
		}
		return s.warmRows(ctx, q, objs)
	}

	return fmt.Errorf("unknown select action %d", q.SelectAction)
}

// warmRows caches every row of a freshly read list under its primary query's key so hydrating the list
// doesn't go back to the db row by row
func (s *storage) warmRows(ctx context.Context, q *Query, objs []map[string]interface{}) error {
	primary, ok := s.queries[q.CachePrimaryQueryStored]
	if !ok || primary.SelectAction != CacheSet || len(objs) == 0 {
		return nil
	}

	pipe := s.cache.Pipeline()
	for _, o := range objs {
		b, err := jsonRow(o)
		if err != nil {
			return err
		}
		pipe.Set(ctx, primary.getKeyName(o), b, ttl(primary.CacheTTL))
	}
	_, err := pipe.Exec(ctx)
	return err
}

// invalidate deletes every key of every query of the objMap's table
func (s *storage) invalidate(ctx context.Context, objMap map[string]interface{}) error {
	table, err := s.tableFor(objMap)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(table.Queries))
	for _, q := range table.Queries {
		keys = append(keys, q.getKeyName(objMap))
	}
	return s.cache.Del(ctx, keys...).Err()
}
