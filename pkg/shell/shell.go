// Package shell 组合初始化器、深度链接与邀请流程，负责故障隔离与资源清理
package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/LENAX/grocery-core/pkg/config"
	"github.com/LENAX/grocery-core/pkg/core/banner"
	"github.com/LENAX/grocery-core/pkg/core/deeplink"
	"github.com/LENAX/grocery-core/pkg/core/deferred"
	"github.com/LENAX/grocery-core/pkg/core/events"
	"github.com/LENAX/grocery-core/pkg/core/initializer"
	"github.com/LENAX/grocery-core/pkg/core/invitation"
	"github.com/LENAX/grocery-core/pkg/logger"
	"github.com/LENAX/grocery-core/pkg/plugin"
	"github.com/LENAX/grocery-core/pkg/store"
	"github.com/LENAX/grocery-core/pkg/syncmanager"
)

// ErrShellClosed 应用壳已关闭
var ErrShellClosed = errors.New("应用壳已关闭")

var log = logger.WithComponent("shell")

// StoreFactory 存储构造函数，返回错误时应用壳降级为NoopStore
type StoreFactory func() (store.Store, error)

// Deps 应用壳依赖（对外导出）
// 未设置的字段使用基于配置的默认实现
type Deps struct {
	StoreFactory StoreFactory
	Decliner     store.Decliner
	Lookup       config.LookupFunc
	Clock        deferred.Clock
	Hooks        plugin.PluginManager
	Bus          *events.Bus
	MemoryProbe  initializer.MemoryProbe
}

// Shell 应用壳（对外导出）
// 拥有横幅、待处理邀请和最近一次初始化结果，并按区域隔离故障
type Shell struct {
	cfg    *config.AppConfig
	lookup config.LookupFunc
	hooks  plugin.PluginManager

	store    store.Store
	storeErr error

	banner      *banner.Banner
	sink        *bannerSink
	scheduler   *deferred.Scheduler
	bus         *events.Bus
	ownsBus     bool
	interp      *deeplink.Interpreter
	flow        *invitation.Flow
	listener    *deeplink.Listener
	syncManager *syncmanager.Manager
	initializer *initializer.SequentialInitializer

	mu          sync.RWMutex
	lastResult  *initializer.Result
	booted      bool
	closed      bool
	bannerSubID events.SubscriptionID
	cancelBoot  context.CancelFunc
	bootDone    chan struct{}
	closedCh    chan struct{}
}

// New 创建应用壳
// 存储由构造函数的结果选择：构造失败时记录日志并使用NoopStore
func New(cfg *config.AppConfig, deps Deps) *Shell {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	g := &cfg.Grocery

	s := &Shell{
		cfg:      cfg,
		lookup:   deps.Lookup,
		hooks:    deps.Hooks,
		banner:   banner.New(),
		bus:      deps.Bus,
		bootDone: make(chan struct{}),
		closedCh: make(chan struct{}),
	}
	if s.lookup == nil {
		s.lookup = os.LookupEnv
	}
	if s.bus == nil {
		s.bus = events.NewBus(
			events.WithDebug(cfg.IsDebugLog()),
			events.WithTrace(strings.EqualFold(g.General.LogLevel, "trace")),
		)
		s.ownsBus = true
	}

	s.store, s.storeErr = openStore(cfg, deps.StoreFactory)
	s.sink = &bannerSink{banner: s.banner, bus: s.bus}
	s.scheduler = deferred.NewScheduler(deps.Clock)
	s.interp = deeplink.NewInterpreter(g.DeepLink.Scheme, g.DeepLink.WebHost)

	flowOpts := make([]invitation.Option, 0, 2)
	if s.hooks != nil {
		flowOpts = append(flowOpts, invitation.WithHooks(s.hooks))
	}
	s.flow = invitation.NewFlow(s.interp, s.store, selectDecliner(cfg, deps.Decliner, s.store), s.sink, flowOpts...)
	s.listener = deeplink.NewListener(s.bus, s.scheduler, s.handleURL)

	var syncer syncmanager.Syncer
	if sy, ok := s.store.(syncmanager.Syncer); ok {
		syncer = sy
	}
	s.syncManager = syncmanager.NewManager(syncer, g.Sync.Schedule)

	initOpts := []initializer.Option{initializer.WithDefaultTimeout(cfg.GetDefaultTaskTimeout())}
	if s.hooks != nil {
		initOpts = append(initOpts, initializer.WithHooks(s.hooks))
	}
	if probe := selectMemoryProbe(cfg, deps.MemoryProbe); probe != nil {
		initOpts = append(initOpts, initializer.WithMemoryProbe(probe))
	}
	s.initializer = initializer.NewSequentialInitializer(initOpts...)

	// 横幅持久化走事件总线，与写入方解耦
	if id, err := s.bus.Subscribe(events.TopicBannerChanged, s.persistBanner); err != nil {
		log.Warnf("⚠️ [应用壳] 订阅横幅变化失败: %v", err)
	} else {
		s.bannerSubID = id
	}
	return s
}

func openStore(cfg *config.AppConfig, factory StoreFactory) (store.Store, error) {
	if factory == nil {
		db := cfg.Grocery.Storage.Database
		dbType, dsn := cfg.GetDatabaseType(), cfg.GetDatabaseDSN()
		factory = func() (store.Store, error) {
			return store.Open(dbType, dsn, store.WithPool(db.MaxOpenConns, db.MaxIdleConns, db.ConnMaxLifetime, db.ConnMaxIdleTime))
		}
	}

	st, err := safeOpen(factory)
	if err != nil {
		log.Errorf("❌ [应用壳] 存储初始化失败，使用降级存储: %v", err)
		return store.NewNoopStore(err), err
	}
	return st, nil
}

func safeOpen(factory StoreFactory) (st store.Store, err error) {
	defer func() {
		if r := recover(); r != nil {
			st, err = nil, fmt.Errorf("存储构造panic: %v", r)
		}
	}()
	st, err = factory()
	if err == nil && st == nil {
		err = errors.New("存储构造函数返回空值")
	}
	return st, err
}

// selectDecliner 优先使用显式依赖，其次是配置的HTTP后端，最后是存储自身
func selectDecliner(cfg *config.AppConfig, explicit store.Decliner, st store.Store) store.Decliner {
	if explicit != nil {
		return explicit
	}
	inv := cfg.Grocery.Invitation
	if inv.BackendURL != "" {
		return invitation.NewHTTPBackend(inv.BackendURL, inv.RequestTimeout)
	}
	if d, ok := st.(store.Decliner); ok {
		return d
	}
	return nil
}

func selectMemoryProbe(cfg *config.AppConfig, explicit initializer.MemoryProbe) initializer.MemoryProbe {
	if explicit != nil {
		return explicit
	}
	if !cfg.Grocery.Initializer.MemoryProbe {
		return nil
	}
	probe, err := initializer.NewProcessMemoryProbe()
	if err != nil {
		log.Warnf("⚠️ [应用壳] 内存采样不可用: %v", err)
		return nil
	}
	return probe
}

// bannerSink 写入横幅并广播变化
type bannerSink struct {
	banner *banner.Banner
	bus    *events.Bus
}

func (b *bannerSink) Set(text string) {
	msg := b.banner.Put(text)
	if err := b.bus.Publish(context.Background(), events.NewBannerEvent(msg.Text, msg.Version)); err != nil && !errors.Is(err, events.ErrBusClosed) {
		log.Warnf("⚠️ [应用壳] 广播横幅变化失败: %v", err)
	}
}

// persistBanner 将横幅写入存储，乱序到达的旧版本被丢弃
func (s *Shell) persistBanner(evt *events.Event) error {
	version, err := strconv.ParseUint(evt.Payload["version"], 10, 64)
	if err != nil {
		return fmt.Errorf("横幅版本无效: %w", err)
	}
	if current, _ := s.banner.Get(); current.Version != version {
		return nil
	}
	s.store.SetBanner(evt.Payload["text"])
	return nil
}

// SetBanner 设置横幅（对外导出）
func (s *Shell) SetBanner(text string) {
	s.sink.Set(text)
}

// Banner 返回横幅槽
func (s *Shell) Banner() *banner.Banner { return s.banner }

// Flow 返回邀请接纳流程
func (s *Shell) Flow() *invitation.Flow { return s.flow }

// Bus 返回事件总线
func (s *Shell) Bus() *events.Bus { return s.bus }

// Store 返回当前使用的存储（可能是NoopStore）
func (s *Shell) Store() store.Store { return s.store }

// StoreError 返回存储构造失败的原因
func (s *Shell) StoreError() error { return s.storeErr }

// Interpreter 返回深度链接解释器
func (s *Shell) Interpreter() *deeplink.Interpreter { return s.interp }

// Scheduler 返回延迟任务调度器
func (s *Shell) Scheduler() *deferred.Scheduler { return s.scheduler }

// SyncManager 返回同步管理器
func (s *Shell) SyncManager() *syncmanager.Manager { return s.syncManager }

// Plugins 返回已注册的生命周期插件名称
func (s *Shell) Plugins() []string {
	if s.hooks == nil {
		return nil
	}
	return s.hooks.ListPlugins()
}

// Config 返回配置
func (s *Shell) Config() *config.AppConfig { return s.cfg }

// LastResult 返回最近一次初始化结果
func (s *Shell) LastResult() (*initializer.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult, s.lastResult != nil
}

// PublishURL 通过事件总线投递运行时深度链接
func (s *Shell) PublishURL(ctx context.Context, url, source string) error {
	return s.bus.Publish(ctx, events.NewDeepLinkEvent(url, source))
}

// handleURL 初始URL与运行时URL的统一入口
func (s *Shell) handleURL(url, source string) {
	err := s.Guard(RegionModal, func() error {
		outcome := s.flow.HandleURL(url)
		log.Debugf("[应用壳] 深度链接处理结果: Source=%s, Outcome=%s", source, outcome)
		return nil
	})
	if errors.Is(err, ErrRegionPanicked) {
		s.SetBanner(MessageLinkFailed)
	}
}

// Close 取消延迟任务、停止同步与监听、等待拒绝通知，然后关闭总线和存储（对外导出）
func (s *Shell) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closedCh)
	cancelBoot := s.cancelBoot
	s.mu.Unlock()

	if cancelBoot != nil {
		cancelBoot()
	}
	s.listener.Stop()
	// 等待正在执行的延迟回调，之后同步管理器不会再被启动
	s.scheduler.Close()
	s.syncManager.Cleanup()
	s.flow.Wait()

	var errs []error
	if s.bannerSubID != "" {
		s.bus.Unsubscribe(s.bannerSubID)
	}
	if s.ownsBus {
		if err := s.bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭事件总线失败: %w", err))
		}
	}
	if closer, ok := s.store.(store.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭存储失败: %w", err))
		}
	}

	log.Infof("✅ [应用壳] 已关闭")
	return errors.Join(errs...)
}
