// Package log wraps logrus with the level helpers used across sosfetch.
package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

var (
	// DebugLevel logs every rendered remote command.
	DebugLevel = logrus.DebugLevel
	// InfoLevel is the default.
	InfoLevel = logrus.InfoLevel
	// WarnLevel is used for failed invocations and best-effort sinks.
	WarnLevel = logrus.WarnLevel
)

// Fields is an alias so callers do not need to import logrus.
type Fields = logrus.Fields

func init() {
	format := new(logrus.TextFormatter)
	format.FullTimestamp = true
	format.TimestampFormat = "2006-01-02 15:04:05"
	logrus.SetFormatter(format)
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(logrus.InfoLevel)
}

// Level sets output level
func Level(level logrus.Level) {
	logrus.SetLevel(level)
}

// Check logs msg together with err at the given level when err is not nil.
// It reports whether err was set.
func Check(level logrus.Level, msg string, err error) bool {
	if err != nil {
		logrus.WithError(err).Log(level, msg)
		return true
	}
	logrus.Debug(msg)
	return false
}

// With returns an entry carrying the given fields.
func With(fields Fields) *logrus.Entry {
	return logrus.WithFields(fields)
}

// Debug logs debug information
func Debug(msg ...interface{}) {
	logrus.Debug(msg...)
}

// Info keeps process working after showing information message.
func Info(msg ...interface{}) {
	logrus.Info(msg...)
}
