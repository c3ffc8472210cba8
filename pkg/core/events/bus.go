package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/LENAX/grocery-core/pkg/logger"
)

// ErrBusClosed 事件总线已关闭
var ErrBusClosed = errors.New("事件总线已关闭")

var log = logger.WithComponent("events")

// Handler 事件处理函数
type Handler func(evt *Event) error

// SubscriptionID 订阅ID
type SubscriptionID string

// Option 事件总线配置选项
type Option func(*busOptions)

type busOptions struct {
	debug bool
	trace bool
}

// WithDebug 打开watermill的debug日志
func WithDebug(debug bool) Option {
	return func(o *busOptions) {
		o.debug = debug
	}
}

// WithTrace 打开watermill的trace日志
func WithTrace(trace bool) Option {
	return func(o *busOptions) {
		o.trace = trace
	}
}

// Bus 进程内事件总线（对外导出）
// 非持久化：订阅之前发布的事件不会补发
type Bus struct {
	pubsub *gochannel.GoChannel

	mu     sync.Mutex
	subs   map[SubscriptionID]context.CancelFunc
	closed bool
	wg     sync.WaitGroup

	published int64
	seq       uint64
}

// NewBus 创建事件总线
func NewBus(opts ...Option) *Bus {
	options := &busOptions{}
	for _, opt := range opts {
		opt(options)
	}

	wmLogger := newWatermillLogger(log, options.debug, options.trace)
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		wmLogger,
	)

	return &Bus{
		pubsub: pubsub,
		subs:   make(map[SubscriptionID]context.CancelFunc),
	}
}

// Publish 发布事件
func (b *Bus) Publish(ctx context.Context, evt *Event) error {
	if evt == nil {
		return fmt.Errorf("事件不能为空")
	}
	if evt.Topic == "" {
		return fmt.Errorf("事件主题不能为空")
	}

	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrBusClosed
	}

	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	// gochannel不等待确认时订阅方可能乱序收到，订阅方按Seq判断新旧
	evt.Seq = atomic.AddUint64(&b.seq, 1)

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	msg := message.NewMessage(evt.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("topic", string(evt.Topic))
	msg.Metadata.Set("source", evt.Source)
	msg.Metadata.Set("timestamp", evt.Timestamp.Format(time.RFC3339Nano))
	msg.Metadata.Set("seq", strconv.FormatUint(evt.Seq, 10))

	if err := b.pubsub.Publish(string(evt.Topic), msg); err != nil {
		return fmt.Errorf("发布事件失败: %w", err)
	}
	atomic.AddInt64(&b.published, 1)
	return nil
}

// Subscribe 订阅主题，handler在独立goroutine中按序处理该订阅的事件
// handler返回的错误和panic只记录日志，消息始终被确认
func (b *Bus) Subscribe(topic Topic, handler Handler) (SubscriptionID, error) {
	if handler == nil {
		return "", fmt.Errorf("事件处理函数不能为空")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return "", ErrBusClosed
	}

	ctx, cancel := context.WithCancel(context.Background())
	messages, err := b.pubsub.Subscribe(ctx, string(topic))
	if err != nil {
		cancel()
		return "", fmt.Errorf("订阅主题 %s 失败: %w", topic, err)
	}

	id := SubscriptionID(fmt.Sprintf("sub-%s", uuid.NewString()[:8]))
	b.subs[id] = cancel

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range messages {
			b.dispatch(topic, msg, handler)
			msg.Ack()
		}
		log.Debugf("[事件总线] 订阅已结束: ID=%s, Topic=%s", id, topic)
	}()

	log.Debugf("[事件总线] 新增订阅: ID=%s, Topic=%s", id, topic)
	return id, nil
}

func (b *Bus) dispatch(topic Topic, msg *message.Message, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("❌ [事件总线] 处理事件panic: Topic=%s, MsgID=%s, Error=%v\n%s", topic, msg.UUID, r, debug.Stack())
		}
	}()

	var evt Event
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		log.Warnf("⚠️ [事件总线] 无法解析事件: Topic=%s, MsgID=%s, Error=%v", topic, msg.UUID, err)
		return
	}
	if err := handler(&evt); err != nil {
		log.Warnf("⚠️ [事件总线] 事件处理失败: Topic=%s, EventID=%s, Error=%v", topic, evt.ID, err)
	}
}

// Unsubscribe 取消订阅
func (b *Bus) Unsubscribe(id SubscriptionID) {
	b.mu.Lock()
	cancel, exists := b.subs[id]
	delete(b.subs, id)
	b.mu.Unlock()

	if exists {
		cancel()
	}
}

// Published 返回已发布的事件数
func (b *Bus) Published() int64 {
	return atomic.LoadInt64(&b.published)
}

// Close 关闭总线并等待所有订阅goroutine退出
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	cancels := make([]context.CancelFunc, 0, len(b.subs))
	for id, cancel := range b.subs {
		cancels = append(cancels, cancel)
		delete(b.subs, id)
	}
	b.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	err := b.pubsub.Close()
	b.wg.Wait()
	log.Infof("✅ [事件总线] 已关闭")
	return err
}
