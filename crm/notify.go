package crm

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is what a user is shown after a mutation.
type Notification struct {
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Entity  string    `json:"entity"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to a Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// LogNotifier writes notifications to a logrus entry.
type LogNotifier struct {
	Log *logrus.Entry
}

func (l LogNotifier) Notify(_ context.Context, n Notification) {
	entry := l.Log
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	entry = entry.WithFields(logrus.Fields{"entity": n.Entity, "title": n.Title})
	if n.Level == LevelError {
		entry.Error(n.Message)
		return
	}
	entry.Info(n.Message)
}

// Multi fans a notification out to every notifier.
func Multi(notifiers ...Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, n Notification) {
		for _, nt := range notifiers {
			nt.Notify(ctx, n)
		}
	})
}

// Feed keeps the most recent notifications so a client can poll for them.
type Feed struct {
	mu    sync.Mutex
	size  int
	items []Notification
}

func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 50
	}
	return &Feed{size: size}
}

func (f *Feed) Notify(_ context.Context, n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items = append(f.items, n)
	if len(f.items) > f.size {
		f.items = f.items[len(f.items)-f.size:]
	}
}

// Recent returns the kept notifications, newest first.
func (f *Feed) Recent() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Notification, 0, len(f.items))
	for i := len(f.items) - 1; i >= 0; i-- {
		out = append(out, f.items[i])
	}
	return out
}
