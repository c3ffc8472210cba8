package events

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newBufferedEntry() (*logrus.Entry, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := logrus.New()
	l.SetOutput(buf)
	l.SetLevel(logrus.TraceLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l.WithField("component", "events"), buf
}

func TestWatermillLogger_RoutesThroughLogrus(t *testing.T) {
	entry, buf := newBufferedEntry()
	wl := newWatermillLogger(entry, false, false).With(watermill.LogFields{"topic": "deeplink.url"})

	wl.Error("publish failed", errors.New("closed"), nil)
	out := buf.String()
	assert.Contains(t, out, "level=error")
	assert.Contains(t, out, "publish failed")
	assert.Contains(t, out, "topic=deeplink.url")
	assert.Contains(t, out, "component=events")
	assert.Contains(t, out, "error=closed")
}

func TestWatermillLogger_DebugAndTraceAreGated(t *testing.T) {
	entry, buf := newBufferedEntry()
	quiet := newWatermillLogger(entry, false, false)
	quiet.Debug("subscribing", nil)
	quiet.Trace("sending", nil)
	assert.Empty(t, buf.String())

	verbose := newWatermillLogger(entry, true, true)
	verbose.Debug("subscribing", watermill.LogFields{"n": 1})
	verbose.Trace("sending", nil)
	assert.Contains(t, buf.String(), "subscribing")
	assert.Contains(t, buf.String(), "sending")
}
