// Package logrus adapts a *logrus.Entry to cachegate.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/cachegate"
)

var _ cachegate.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

func (l LogrusLogger) Debug(msg string, f cachegate.Fields) { l.entry(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f cachegate.Fields)  { l.entry(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f cachegate.Fields)  { l.entry(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f cachegate.Fields) { l.entry(f).Error(msg) }

// entry moves an "err" field into logrus' own error slot.
func (l LogrusLogger) entry(f cachegate.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	lf := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			lf[logrus.ErrorKey] = err
			continue
		}
		lf[k] = v
	}
	return l.E.WithFields(lf)
}
