// Package syncmanager 周期性执行后台同步
package syncmanager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LENAX/grocery-core/pkg/logger"
	"github.com/LENAX/grocery-core/pkg/store"
)

const DefaultSchedule = "@every 30s"

var (
	// ErrSyncDisabled 存储尚未启用同步
	ErrSyncDisabled = errors.New("同步尚未启用")
	// ErrNoSyncer 没有可用的同步源
	ErrNoSyncer = errors.New("没有可用的同步源")
)

var log = logger.WithComponent("sync")

// Syncer 可同步的存储
type Syncer interface {
	SyncOnce(ctx context.Context) (store.SyncReport, error)
	SyncEnabled() bool
}

// Stats 同步管理器运行统计
type Stats struct {
	Initialized bool              `json:"initialized"`
	Schedule    string            `json:"schedule"`
	Passes      int64             `json:"passes"`
	Failures    int64             `json:"failures"`
	LastReport  *store.SyncReport `json:"last_report,omitempty"`
	LastError   string            `json:"last_error,omitempty"`
	NextRun     *time.Time        `json:"next_run,omitempty"`
}

// Manager 同步管理器（对外导出）
// Initialize之后按cron表达式周期执行同步，存储启用同步之前的周期被跳过
type Manager struct {
	cron     *cron.Cron
	syncer   Syncer
	schedule string

	mu          sync.RWMutex
	entryID     cron.EntryID
	initialized bool
	lastReport  *store.SyncReport
	lastError   string

	passes   int64
	failures int64

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager 创建同步管理器，schedule为空时使用DefaultSchedule
func NewManager(syncer Syncer, schedule string) *Manager {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	cronLogger := cron.PrintfLogger(log)
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cron: cron.New(
			cron.WithSeconds(), // 支持秒级精度
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		syncer:   syncer,
		schedule: schedule,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Initialize 注册周期同步任务并启动调度（对外导出）
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}
	if m.syncer == nil {
		return ErrNoSyncer
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(m.schedule); err != nil {
		return fmt.Errorf("同步计划 %q 无效: %w", m.schedule, err)
	}

	entryID, err := m.cron.AddFunc(m.schedule, m.tick)
	if err != nil {
		return fmt.Errorf("添加同步任务失败: %w", err)
	}
	m.entryID = entryID
	m.initialized = true
	m.cron.Start()

	log.Infof("✅ [同步管理器] 已启动: Schedule=%s", m.schedule)
	return nil
}

// tick cron触发的一次同步
func (m *Manager) tick() {
	if _, err := m.RunOnce(m.ctx); err != nil && !errors.Is(err, ErrSyncDisabled) {
		log.Warnf("⚠️ [同步管理器] 同步失败: %v", err)
	}
}

// RunOnce 立即执行一次同步（对外导出）
func (m *Manager) RunOnce(ctx context.Context) (store.SyncReport, error) {
	if m.syncer == nil {
		return store.SyncReport{}, ErrNoSyncer
	}
	if !m.syncer.SyncEnabled() {
		log.Debugf("[同步管理器] 同步尚未启用，跳过")
		return store.SyncReport{}, ErrSyncDisabled
	}

	report, err := m.syncer.SyncOnce(ctx)
	atomic.AddInt64(&m.passes, 1)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		atomic.AddInt64(&m.failures, 1)
		m.lastError = err.Error()
		return report, err
	}
	m.lastReport = &report
	m.lastError = ""
	if report.Expired > 0 {
		log.Infof("🔄 [同步管理器] 同步完成: 过期邀请=%d", report.Expired)
	}
	return report, nil
}

// Stats 返回运行统计
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{
		Initialized: m.initialized,
		Schedule:    m.schedule,
		Passes:      atomic.LoadInt64(&m.passes),
		Failures:    atomic.LoadInt64(&m.failures),
		LastReport:  m.lastReport,
		LastError:   m.lastError,
	}
	if m.initialized {
		if next := m.cron.Entry(m.entryID).Next; !next.IsZero() {
			stats.NextRun = &next
		}
	}
	return stats
}

// Cleanup 停止周期同步并等待正在执行的同步结束（对外导出）
func (m *Manager) Cleanup() {
	m.mu.Lock()
	initialized := m.initialized
	if initialized {
		m.cron.Remove(m.entryID)
		m.initialized = false
	}
	m.mu.Unlock()

	m.cancel()
	if initialized {
		<-m.cron.Stop().Done()
		log.Infof("✅ [同步管理器] 已停止")
	}
}
