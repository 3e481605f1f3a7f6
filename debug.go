package storage

import (
	"github.com/sirupsen/logrus"
)

// logger is owned by one storage; a nil *logger is silent
type logger struct {
	entry           *logrus.Entry
	debuggerEnabled bool
}

func (l *logger) debug(s string, args ...interface{}) {
	if l != nil && l.debuggerEnabled && l.entry != nil {
		l.entry.Debugf(s, args...)
	}
}

func (l *logger) warn(s string, args ...interface{}) {
	if l != nil && l.entry != nil {
		l.entry.Warnf(s, args...)
	}
}

// newLogger is called by New; entry may be nil in which case the standard logrus logger is used
func newLogger(entry *logrus.Entry, enabled bool, serviceName string) *logger {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return &logger{
		entry:           entry.WithField("component", "storage").WithField("service", serviceName),
		debuggerEnabled: enabled,
	}
}
