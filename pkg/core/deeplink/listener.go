package deeplink

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/LENAX/grocery-core/pkg/core/deferred"
	"github.com/LENAX/grocery-core/pkg/core/events"
	"github.com/LENAX/grocery-core/pkg/logger"
)

const initialLinkTaskID = "deeplink-initial-url"

var log = logger.WithComponent("deeplink")

// URLHandler 处理一条传入的URL
type URLHandler func(url, source string)

// Listener 深度链接监听器（对外导出）
// 启动时的初始URL与运行中通过事件总线到达的URL走同一个处理函数
type Listener struct {
	bus       *events.Bus
	scheduler *deferred.Scheduler
	handler   URLHandler

	mu      sync.Mutex
	subID   events.SubscriptionID
	started bool

	// deliverMu 串行化投递，lastSeq为已投递的最新运行时链接序号
	deliverMu sync.Mutex
	lastSeq   uint64
}

// NewListener 创建深度链接监听器
func NewListener(bus *events.Bus, scheduler *deferred.Scheduler, handler URLHandler) *Listener {
	return &Listener{
		bus:       bus,
		scheduler: scheduler,
		handler:   handler,
	}
}

// Start 订阅运行时链接，并在delay之后投递初始URL（为空则不投递）
func (l *Listener) Start(initialURL string, delay time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return fmt.Errorf("深度链接监听器已启动")
	}
	if l.handler == nil {
		return fmt.Errorf("URL处理函数不能为空")
	}

	if l.bus != nil {
		id, err := l.bus.Subscribe(events.TopicDeepLinkURL, func(evt *events.Event) error {
			l.deliverLive(evt)
			return nil
		})
		if err != nil {
			return fmt.Errorf("订阅深度链接失败: %w", err)
		}
		l.subID = id
	}

	if initialURL != "" && l.scheduler != nil {
		if err := l.scheduler.Schedule(initialLinkTaskID, delay, func() {
			l.deliverMu.Lock()
			defer l.deliverMu.Unlock()
			l.deliver(initialURL, "initial")
		}); err != nil {
			log.Warnf("⚠️ [深度链接] 调度初始URL失败: %v", err)
		}
	}

	l.started = true
	log.Infof("✅ [深度链接] 监听器已启动: InitialURL=%t", initialURL != "")
	return nil
}

// deliverLive 投递总线上的链接，比已投递链接更早发布的事件被丢弃
func (l *Listener) deliverLive(evt *events.Event) {
	l.deliverMu.Lock()
	defer l.deliverMu.Unlock()

	if evt.Seq != 0 && evt.Seq <= l.lastSeq {
		log.Debugf("[深度链接] 丢弃过期的链接事件: Seq=%d, Latest=%d, Source=%s", evt.Seq, l.lastSeq, evt.Source)
		return
	}
	if evt.Seq > l.lastSeq {
		l.lastSeq = evt.Seq
	}
	l.deliver(evt.URL(), evt.Source)
}

func (l *Listener) deliver(url, source string) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("❌ [深度链接] 处理URL时panic: Source=%s, Error=%v\n%s", source, r, debug.Stack())
		}
	}()
	log.Debugf("[深度链接] 收到URL: Source=%s, URL=%s", source, url)
	l.handler(url, source)
}

// Stop 取消订阅并撤销尚未投递的初始URL
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.started {
		return
	}
	if l.scheduler != nil {
		l.scheduler.Cancel(initialLinkTaskID)
	}
	if l.bus != nil && l.subID != "" {
		l.bus.Unsubscribe(l.subID)
		l.subID = ""
	}
	l.started = false
	log.Infof("[深度链接] 监听器已停止")
}
