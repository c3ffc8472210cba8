package deeplink

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/grocery-core/pkg/core/deferred"
	"github.com/LENAX/grocery-core/pkg/core/events"
)

type recorder struct {
	mu   sync.Mutex
	urls []string
	srcs []string
}

func (r *recorder) handle(url, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, url)
	r.srcs = append(r.srcs, source)
}

func (r *recorder) snapshot() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls...), append([]string(nil), r.srcs...)
}

func TestListener_InitialURLIsDeferred(t *testing.T) {
	clock := deferred.NewFakeClock(time.Now())
	scheduler := deferred.NewScheduler(clock)
	rec := &recorder{}

	l := NewListener(nil, scheduler, rec.handle)
	require.NoError(t, l.Start("grocerylist://invite?token=abc", 800*time.Millisecond))

	clock.Advance(799 * time.Millisecond)
	urls, _ := rec.snapshot()
	assert.Empty(t, urls)

	clock.Advance(time.Millisecond)
	urls, srcs := rec.snapshot()
	assert.Equal(t, []string{"grocerylist://invite?token=abc"}, urls)
	assert.Equal(t, []string{"initial"}, srcs)
}

func TestListener_StopCancelsInitialURL(t *testing.T) {
	clock := deferred.NewFakeClock(time.Now())
	scheduler := deferred.NewScheduler(clock)
	rec := &recorder{}

	l := NewListener(nil, scheduler, rec.handle)
	require.NoError(t, l.Start("grocerylist://invite?token=abc", 800*time.Millisecond))
	l.Stop()
	clock.Advance(time.Second)

	urls, _ := rec.snapshot()
	assert.Empty(t, urls)
}

func TestListener_LiveURLsFromBus(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	rec := &recorder{}

	l := NewListener(bus, deferred.NewScheduler(nil), rec.handle)
	require.NoError(t, l.Start("", 0))
	defer l.Stop()

	require.NoError(t, bus.Publish(context.Background(), events.NewDeepLinkEvent("grocerylist://invite?token=live", "api")))

	assert.Eventually(t, func() bool {
		urls, _ := rec.snapshot()
		return len(urls) == 1
	}, time.Second, 5*time.Millisecond)
	urls, srcs := rec.snapshot()
	assert.Equal(t, "grocerylist://invite?token=live", urls[0])
	assert.Equal(t, "api", srcs[0])
}

func TestListener_HandlerPanicIsContained(t *testing.T) {
	clock := deferred.NewFakeClock(time.Now())
	l := NewListener(nil, deferred.NewScheduler(clock), func(string, string) { panic("boom") })
	require.NoError(t, l.Start("grocerylist://invite?token=abc", 0))

	assert.NotPanics(t, func() { clock.Advance(time.Millisecond) })
}

func TestListener_StartTwice(t *testing.T) {
	rec := &recorder{}
	l := NewListener(nil, nil, rec.handle)
	require.NoError(t, l.Start("", 0))
	assert.Error(t, l.Start("", 0))

	assert.Error(t, NewListener(nil, nil, nil).Start("", 0))
}

func TestListener_DropsLinksPublishedBeforeTheLatest(t *testing.T) {
	rec := &recorder{}
	l := NewListener(nil, nil, rec.handle)

	newer := events.NewDeepLinkEvent("grocerylist://invite?token=t2", "api")
	newer.Seq = 2
	older := events.NewDeepLinkEvent("grocerylist://invite?token=t1", "api")
	older.Seq = 1
	latest := events.NewDeepLinkEvent("grocerylist://invite?token=t3", "api")
	latest.Seq = 3

	l.deliverLive(newer)
	l.deliverLive(older)
	l.deliverLive(latest)

	urls, _ := rec.snapshot()
	assert.Equal(t, []string{"grocerylist://invite?token=t2", "grocerylist://invite?token=t3"}, urls)
}
