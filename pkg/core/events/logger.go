package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/sirupsen/logrus"
)

// watermillLogger 将watermill日志转接到logrus
// debug/trace级别的日志只在对应开关打开时输出
type watermillLogger struct {
	entry *logrus.Entry
	debug bool
	trace bool
}

func newWatermillLogger(entry *logrus.Entry, debug, trace bool) watermill.LoggerAdapter {
	return &watermillLogger{entry: entry, debug: debug, trace: trace}
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.withFields(fields).WithError(err).Errorf("❌ [watermill] %s", msg)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.withFields(fields).Debugf("[watermill] %s", msg)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	if !l.debug {
		return
	}
	l.withFields(fields).Debugf("[watermill] %s", msg)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	if !l.trace {
		return
	}
	l.withFields(fields).Tracef("[watermill] %s", msg)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{entry: l.withFields(fields), debug: l.debug, trace: l.trace}
}

func (l *watermillLogger) withFields(fields watermill.LogFields) *logrus.Entry {
	if len(fields) == 0 {
		return l.entry
	}
	return l.entry.WithFields(logrus.Fields(fields))
}
