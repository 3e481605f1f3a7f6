package crm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Entity is a record with an opaque id.
type Entity interface {
	Key() string
}

type storeOptions struct {
	notifier Notifier
	log      *logrus.Entry
}

type Option func(*storeOptions)

// WithNotifier sets where success & failure notifications go; they are logged by default.
func WithNotifier(n Notifier) Option {
	return func(o *storeOptions) { o.notifier = n }
}

func WithLogger(l *logrus.Entry) Option {
	return func(o *storeOptions) { o.log = l }
}

/*
Store mirrors one remote table in memory. The list is a set keyed by Key(): Fetch replaces it with
the remote's rows and every mutation goes to the remote first, touching the local list only once the
remote has confirmed it. Add prepends, Update replaces in place, Delete removes.

Failed mutations notify the user & return the error; a failed Fetch is only logged and leaves the
previous list in place.
*/
type Store[T Entity] struct {
	name     string
	remote   Remote[T]
	notifier Notifier
	log      *logrus.Entry

	mu     sync.RWMutex
	items  []T
	loaded bool
}

// NewStore returns an empty store; name is the singular entity name used in notifications e.g. "lead".
func NewStore[T Entity](name string, remote Remote[T], opts ...Option) *Store[T] {
	o := storeOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logrus.NewEntry(logrus.StandardLogger())
	}
	o.log = o.log.WithField("entity", name)
	if o.notifier == nil {
		o.notifier = LogNotifier{Log: o.log}
	}

	return &Store[T]{
		name:     name,
		remote:   remote,
		notifier: o.notifier,
		log:      o.log,
	}
}

func (s *Store[T]) Name() string { return s.name }

// Fetch replaces the local list with the remote's.
func (s *Store[T]) Fetch(ctx context.Context) {
	items, err := s.remote.List(ctx)
	if err != nil {
		s.log.WithError(err).Warn("fetch failed; keeping cached list")
		return
	}

	items = dedupe(items)

	s.mu.Lock()
	s.items = items
	s.loaded = true
	s.mu.Unlock()

	s.log.WithField("count", len(items)).Debug("fetched")
}

// Loaded reports whether a Fetch has ever succeeded.
func (s *Store[T]) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Items returns a copy of the list, newest first.
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.Key() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Search filters the list by a case-insensitive substring of the entity's searchable fields.
func (s *Store[T]) Search(q string) []T {
	return s.Query(Criteria{Q: q})
}

// Query is Search narrowed by status and source.
func (s *Store[T]) Query(c Criteria) []T {
	items := s.Items()
	out := items[:0]
	for _, item := range items {
		if c.Match(item) {
			out = append(out, item)
		}
	}
	return out
}

// Add inserts item remotely & puts the stored record first in the list.
func (s *Store[T]) Add(ctx context.Context, item T) (T, error) {
	created, err := s.remote.Insert(ctx, item)
	if err != nil {
		s.failed(ctx, "add", err)
		var zero T
		return zero, fmt.Errorf("add %s: %w", s.name, err)
	}

	s.mu.Lock()
	s.items = prepend(s.items, created)
	s.mu.Unlock()

	s.succeeded(ctx, "added")
	return created, nil
}

// AddMany inserts every item in one remote transaction. The list ends up as if Add had been called for
// each item in order, so the last item is first.
func (s *Store[T]) AddMany(ctx context.Context, items []T) ([]T, error) {
	if len(items) == 0 {
		return nil, nil
	}

	created, err := s.remote.InsertMany(ctx, items)
	if err != nil {
		s.failed(ctx, "import", err)
		return nil, fmt.Errorf("add %d %s: %w", len(items), plural(s.name), err)
	}

	s.mu.Lock()
	for _, c := range created {
		s.items = prepend(s.items, c)
	}
	s.mu.Unlock()

	s.notify(ctx, Notification{
		Level:   LevelSuccess,
		Title:   "Success",
		Message: fmt.Sprintf("%d %s imported successfully", len(created), plural(s.name)),
	})
	return created, nil
}

// Update applies patch remotely & replaces the record with that id in place.
func (s *Store[T]) Update(ctx context.Context, id string, patch Patch) (T, error) {
	updated, err := s.remote.Update(ctx, id, patch)
	if err != nil {
		s.failed(ctx, "update", err)
		var zero T
		return zero, fmt.Errorf("update %s %s: %w", s.name, id, err)
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].Key() == id {
			s.items[i] = updated
			break
		}
	}
	s.mu.Unlock()

	s.succeeded(ctx, "updated")
	return updated, nil
}

// Delete deletes remotely & drops the record from the list.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	err := s.remote.Delete(ctx, id)
	if err != nil {
		s.failed(ctx, "delete", err)
		return fmt.Errorf("delete %s %s: %w", s.name, id, err)
	}

	s.mu.Lock()
	s.items = without(s.items, id)
	s.mu.Unlock()

	s.succeeded(ctx, "deleted")
	return nil
}

func (s *Store[T]) succeeded(ctx context.Context, verb string) {
	s.notify(ctx, Notification{
		Level:   LevelSuccess,
		Title:   "Success",
		Message: fmt.Sprintf("%s %s successfully", title(s.name), verb),
	})
}

func (s *Store[T]) failed(ctx context.Context, verb string, err error) {
	s.notify(ctx, Notification{
		Level:   LevelError,
		Title:   "Error",
		Message: fmt.Sprintf("Failed to %s %s: %v", verb, s.name, err),
	})
}

func (s *Store[T]) notify(ctx context.Context, n Notification) {
	n.Entity = s.name
	n.At = time.Now()
	s.notifier.Notify(ctx, n)
}

func prepend[T Entity](items []T, item T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, item)
	for _, it := range items {
		if it.Key() != item.Key() {
			out = append(out, it)
		}
	}
	return out
}

func without[T Entity](items []T, id string) []T {
	out := items[:0]
	for _, it := range items {
		if it.Key() != id {
			out = append(out, it)
		}
	}
	return out
}

// dedupe keeps the first occurrence of every id
func dedupe[T Entity](items []T) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.Key()]; ok {
			continue
		}
		seen[it.Key()] = struct{}{}
		out = append(out, it)
	}
	return out
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func plural(s string) string {
	if strings.HasSuffix(s, "y") {
		return strings.TrimSuffix(s, "y") + "ies"
	}
	return s + "s"
}
