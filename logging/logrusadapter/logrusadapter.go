// Package logrusadapter adapts a logrus logger to cache.Logger.
package logrusadapter

import (
	"github.com/sirupsen/logrus"

	"github.com/romcache/romcache/cache"
)

// Adapter implements cache.Logger by delegating to a logrus.FieldLogger.
type Adapter struct {
	log logrus.FieldLogger
}

// New wraps log as a cache.Logger. If log is nil, logrus.StandardLogger
// is used.
func New(log logrus.FieldLogger) *Adapter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Adapter{log: log}
}

func (a *Adapter) Debugf(format string, args ...any) { a.log.Debugf(format, args...) }
func (a *Adapter) Warnf(format string, args ...any)  { a.log.Warnf(format, args...) }
func (a *Adapter) Errorf(format string, args ...any) { a.log.Errorf(format, args...) }

var _ cache.Logger = (*Adapter)(nil)
