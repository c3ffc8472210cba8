package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu     sync.Mutex
	events []*Event
}

func (c *collector) handle(evt *Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *collector) urls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.URL())
	}
	return out
}

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	c := &collector{}
	_, err := bus.Subscribe(TopicDeepLinkURL, c.handle)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), NewDeepLinkEvent("grocerylist://invite?token=abc", "test")))

	assert.Eventually(t, func() bool { return len(c.urls()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"grocerylist://invite?token=abc"}, c.urls())
	assert.Equal(t, int64(1), bus.Published())
}

func TestBus_TopicsAreIsolated(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	links := &collector{}
	banners := &collector{}
	_, err := bus.Subscribe(TopicDeepLinkURL, links.handle)
	require.NoError(t, err)
	_, err = bus.Subscribe(TopicBannerChanged, banners.handle)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), NewBannerEvent("hello", 3)))

	assert.Eventually(t, func() bool {
		banners.mu.Lock()
		defer banners.mu.Unlock()
		return len(banners.events) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, links.urls())

	banners.mu.Lock()
	assert.Equal(t, "hello", banners.events[0].Payload["text"])
	assert.Equal(t, "3", banners.events[0].Payload["version"])
	banners.mu.Unlock()
}

func TestBus_HandlerFailureDoesNotStopSubscription(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var mu sync.Mutex
	calls := 0
	_, err := bus.Subscribe(TopicDeepLinkURL, func(evt *Event) error {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		switch n {
		case 1:
			return errors.New("handler failed")
		case 2:
			panic("handler panicked")
		}
		return nil
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(context.Background(), NewDeepLinkEvent("x", "test")))
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 3
	}, time.Second, 5*time.Millisecond)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	c := &collector{}
	id, err := bus.Subscribe(TopicDeepLinkURL, c.handle)
	require.NoError(t, err)
	bus.Unsubscribe(id)
	bus.Unsubscribe(id)

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, bus.Publish(context.Background(), NewDeepLinkEvent("x", "test")))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, c.urls())
}

func TestBus_Close(t *testing.T) {
	bus := NewBus()
	_, err := bus.Subscribe(TopicDeepLinkURL, func(*Event) error { return nil })
	require.NoError(t, err)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(context.Background(), NewDeepLinkEvent("x", "test")), ErrBusClosed)
	_, err = bus.Subscribe(TopicDeepLinkURL, func(*Event) error { return nil })
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestBus_PublishValidation(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	assert.Error(t, bus.Publish(context.Background(), nil))
	assert.Error(t, bus.Publish(context.Background(), &Event{}))
	_, err := bus.Subscribe(TopicDeepLinkURL, nil)
	assert.Error(t, err)
}

func TestBus_PublishAssignsIncreasingSeq(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var seqs []uint64
	for i := 0; i < 3; i++ {
		evt := NewDeepLinkEvent("grocerylist://invite?token=abc", "test")
		require.NoError(t, bus.Publish(context.Background(), evt))
		seqs = append(seqs, evt.Seq)
	}
	assert.Equal(t, []uint64{1, 2, 3}, seqs)
}
