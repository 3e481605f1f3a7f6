package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Tx struct {
	s  *storage
	tx *sqlx.Tx

	actions []txAction
}

type txAction struct {
	action actionTypes
	obj    map[string]interface{}
	prev   map[string]interface{} // set when an update moved the row between keyed lists
}

type TxInterface interface {
	TXInsert(ctx context.Context, obj interface{}) error
	TXUpdate(ctx context.Context, obj interface{}) error
	TXPatch(ctx context.Context, obj interface{}, id interface{}, fields map[string]interface{}) error
	TXDelete(ctx context.Context, obj interface{}, id interface{}) error

	// TXEnd commits & then replays the cache actions of every write in the tx
	TXEnd(ctx context.Context) error
	// TXRollback aborts the tx; no cache action is taken
	TXRollback() error

	// Select is for fetching one row where obj will be the result
	TxSelect(ctx context.Context, obj interface{}, queryName string) error

	// SelectAll is for fetching all rows where objs will be the results
	TxSelectAll(ctx context.Context, obj interface{}, objs interface{}, queryName string, opts *SelectOptions) error
}

func (s *storage) TXBegin(ctx context.Context) (TxInterface, error) {
	tx, err := s.db.writeConn().BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	return &Tx{
		s:       s,
		tx:      tx,
		actions: []txAction{},
	}, nil
}

func (t *Tx) TXInsert(ctx context.Context, obj interface{}) error {
	objMap, err := structToMap(obj)
	if err != nil {
		return err
	}
	table, err := t.s.tableFor(objMap)
	if err != nil {
		return err
	}

	// set the objMap to the return value
	objMap, err = t.s.insert(ctx, table, objMap, t.tx)
	if err != nil {
		return err
	}

	t.actions = append(t.actions, txAction{
		action: actionInsert,
		obj:    objMap,
	})

	return mapToStruct(objMap, obj)
}

func (t *Tx) TXUpdate(ctx context.Context, obj interface{}) error {
	objMap, err := structToMap(obj)
	if err != nil {
		return err
	}
	table, err := t.s.tableFor(objMap)
	if err != nil {
		return err
	}

	objMap, prev, err := t.s.update(ctx, table, objMap, t.tx)
	if err != nil {
		return err
	}

	t.actions = append(t.actions, txAction{
		action: actionUpdate,
		obj:    objMap,
		prev:   prev,
	})
	return mapToStruct(objMap, obj)
}

func (t *Tx) TXPatch(ctx context.Context, obj interface{}, id interface{}, fields map[string]interface{}) error {
	objMap, err := structToMap(obj)
	if err != nil {
		return err
	}
	table, err := t.s.tableFor(objMap)
	if err != nil {
		return err
	}

	objMap, prev, err := t.s.patch(ctx, table, objMap, id, fields, t.tx)
	if err != nil {
		return err
	}

	t.actions = append(t.actions, txAction{
		action: actionUpdate,
		obj:    objMap,
		prev:   prev,
	})
	return mapToStruct(objMap, obj)
}

func (t *Tx) TXDelete(ctx context.Context, obj interface{}, id interface{}) error {
	objMap, err := structToMap(obj)
	if err != nil {
		return err
	}
	table, err := t.s.tableFor(objMap)
	if err != nil {
		return err
	}

	objMap, err = t.s.delete(ctx, table, objMap, id, t.tx)
	if err != nil {
		return err
	}

	t.actions = append(t.actions, txAction{
		action: actionDelete,
		obj:    objMap,
	})
	return mapToStruct(objMap, obj)
}

func (t *Tx) TxSelect(ctx context.Context, obj interface{}, queryName string) error {
	return t.s.selectOne(ctx, obj, queryName, t.tx)
}

func (t *Tx) TxSelectAll(ctx context.Context, obj interface{}, objs interface{}, queryName string, opts *SelectOptions) error {
	return t.s.selectAll(ctx, obj, objs, queryName, opts, t.tx)
}

func (t *Tx) TXRollback() error {
	t.actions = nil
	return t.tx.Rollback()
}

func (t *Tx) TXEnd(ctx context.Context) error {
	err := t.tx.Commit()
	if err != nil {
		t.tx.Rollback()
		return err
	}

	for _, action := range t.actions {
		t.s.afterWrite(ctx, action.obj, action.action)
		t.s.afterMove(ctx, action.prev, action.obj)
	}
	t.actions = nil

	return nil
}
