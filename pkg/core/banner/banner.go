// Package banner 提供全局唯一的用户提示消息槽
package banner

import (
	"sync"
	"time"
)

// Message 提示消息快照
type Message struct {
	Text      string    `json:"text"`
	Version   uint64    `json:"version"` // 每次写入递增
	UpdatedAt time.Time `json:"updated_at"`
}

// Sink 提示消息写入接口，任何组件都可以通过它请求设置提示
type Sink interface {
	Set(text string)
}

// Banner 提示消息槽（对外导出）
// 只保存一条消息，新消息覆盖旧消息（后写者胜），不排队
type Banner struct {
	mu          sync.RWMutex
	current     Message
	subscribers map[int]chan Message
	nextID      int
}

// New 创建提示消息槽
func New() *Banner {
	return &Banner{
		subscribers: make(map[int]chan Message),
	}
}

// Set 设置提示消息，空字符串等价于清除
func (b *Banner) Set(text string) {
	b.Put(text)
}

// Put 设置提示消息并返回写入后的快照
func (b *Banner) Put(text string) Message {
	b.mu.Lock()
	b.current = Message{
		Text:      text,
		Version:   b.current.Version + 1,
		UpdatedAt: time.Now(),
	}
	msg := b.current

	// 持锁非阻塞投递：订阅者处理不过来时丢弃，且不会与取消订阅的close竞争
	for _, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
	b.mu.Unlock()
	return msg
}

// Clear 清除提示消息
func (b *Banner) Clear() {
	b.Set("")
}

// Get 获取当前提示消息，无消息时第二个返回值为false
func (b *Banner) Get() (Message, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current, b.current.Text != ""
}

// Text 获取当前提示文本
func (b *Banner) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current.Text
}

// Subscribe 订阅提示消息变化
// 返回只读通道与取消订阅函数，取消后通道被关闭
func (b *Banner) Subscribe(buffer int) (<-chan Message, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Message, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}
