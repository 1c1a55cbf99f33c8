// Package logrus adapts a *logrus.Entry to bebopffi.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/bebopffi"
)

var _ bebopffi.Logger = Logger{}

type Logger struct{ E *logrus.Entry }

// New tags every line with component=bebop.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "bebop")}
}

func (l Logger) Debug(msg string, f bebopffi.Fields) { l.E.WithFields(logrus.Fields(f)).Debug(msg) }
func (l Logger) Info(msg string, f bebopffi.Fields)  { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l Logger) Warn(msg string, f bebopffi.Fields)  { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l Logger) Error(msg string, f bebopffi.Fields) { l.E.WithFields(logrus.Fields(f)).Error(msg) }
