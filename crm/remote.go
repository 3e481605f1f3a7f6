package crm

import (
	"context"

	storage "github.com/osr-alliance/backend-lib-crm"
)

// Patch holds the columns of a partial update keyed by their json name.
type Patch map[string]any

// Remote is the table a Store mirrors.
type Remote[T any] interface {
	// List returns every row, newest first
	List(ctx context.Context) ([]T, error)
	Insert(ctx context.Context, item T) (T, error)
	// InsertMany inserts all items or none
	InsertMany(ctx context.Context, items []T) ([]T, error)
	Update(ctx context.Context, id string, patch Patch) (T, error)
	Delete(ctx context.Context, id string) error
}

// TableRemote is a Remote backed by a storage table. listQuery must be a cached list query; filter
// carries its named parameters (the zero value for the full table).
type TableRemote[T any] struct {
	storage   storage.Storage
	listQuery string
	filter    T
}

func NewTableRemote[T any](s storage.Storage, listQuery string, filter T) *TableRemote[T] {
	return &TableRemote[T]{
		storage:   s,
		listQuery: listQuery,
		filter:    filter,
	}
}

func (r *TableRemote[T]) List(ctx context.Context) ([]T, error) {
	filter := r.filter
	out := []T{}
	err := r.storage.SelectAll(ctx, &filter, &out, r.listQuery, &storage.SelectOptions{
		Limit:        -1,
		FetchAllData: true,
	})
	return out, err
}

func (r *TableRemote[T]) Insert(ctx context.Context, item T) (T, error) {
	err := r.storage.Insert(ctx, &item)
	return item, err
}

func (r *TableRemote[T]) InsertMany(ctx context.Context, items []T) ([]T, error) {
	tx, err := r.storage.TXBegin(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		item := item
		if err := tx.TXInsert(ctx, &item); err != nil {
			tx.TXRollback()
			return nil, err
		}
		out = append(out, item)
	}

	if err := tx.TXEnd(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TableRemote[T]) Update(ctx context.Context, id string, patch Patch) (T, error) {
	var out T
	err := r.storage.Patch(ctx, &out, id, patch)
	return out, err
}

func (r *TableRemote[T]) Delete(ctx context.Context, id string) error {
	var out T
	return r.storage.Delete(ctx, &out, id)
}
