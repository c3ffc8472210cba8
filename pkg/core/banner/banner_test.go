package banner

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBanner_LastWriteWins(t *testing.T) {
	b := New()

	_, ok := b.Get()
	assert.False(t, ok)

	b.Set("first")
	b.Set("second")

	msg, ok := b.Get()
	require.True(t, ok)
	assert.Equal(t, "second", msg.Text)
	assert.Equal(t, uint64(2), msg.Version)
	assert.Equal(t, "second", b.Text())
}

func TestBanner_Clear(t *testing.T) {
	b := New()
	b.Set("hello")
	b.Clear()

	_, ok := b.Get()
	assert.False(t, ok)
	assert.Equal(t, "", b.Text())
}

func TestBanner_Subscribe(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe(4)

	b.Set("a")
	b.Set("b")

	assert.Equal(t, "a", (<-ch).Text)
	assert.Equal(t, "b", (<-ch).Text)

	cancel()
	cancel() // 重复取消是安全的
	_, open := <-ch
	assert.False(t, open)

	// 取消后写入不会panic
	b.Set("c")
}

func TestBanner_SlowSubscriberDoesNotBlockWriters(t *testing.T) {
	b := New()
	_, cancel := b.Subscribe(1)
	defer cancel()

	for i := 0; i < 100; i++ {
		b.Set(fmt.Sprintf("msg-%d", i))
	}
	assert.Equal(t, "msg-99", b.Text())
}

func TestBanner_ConcurrentWriters(t *testing.T) {
	b := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b.Set(fmt.Sprintf("w-%d", i))
		}(i)
	}
	wg.Wait()

	msg, ok := b.Get()
	require.True(t, ok)
	assert.Equal(t, uint64(50), msg.Version)
}
