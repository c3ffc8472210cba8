package shell

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/LENAX/grocery-core/pkg/config"
	"github.com/LENAX/grocery-core/pkg/core/initializer"
)

const (
	TaskIDSyncManagerInit = "sync-manager-init"

	syncManagerInitTimeout = 2 * time.Second

	startupTaskID      = "startup-initialization"
	deferredSyncInitID = "deferred-sync-manager-init"
	deferredSyncStart  = "deferred-sync-start"
)

// Boot 启动应用壳（对外导出）
// 初始化序列在startup_delay之后于延迟调度器上执行，调用立即返回
// 同时启动深度链接监听，初始URL在initial_delay之后投递
func (s *Shell) Boot(ctx context.Context, initialURL string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrShellClosed
	}
	if s.booted {
		s.mu.Unlock()
		return fmt.Errorf("应用壳已启动")
	}
	s.booted = true
	// 关闭时取消初始化序列，避免Close等待剩余任务
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelBoot = cancel
	s.mu.Unlock()

	g := s.cfg.Grocery
	if initialURL == "" {
		initialURL = g.DeepLink.InitialURL
	}

	if err := s.scheduler.Schedule(startupTaskID, g.Initializer.StartupDelay, func() {
		defer close(s.bootDone)
		s.RunInitialization(runCtx)
	}); err != nil {
		return fmt.Errorf("调度初始化失败: %w", err)
	}

	if err := s.listener.Start(initialURL, g.DeepLink.InitialDelay); err != nil {
		return fmt.Errorf("启动深度链接监听失败: %w", err)
	}

	log.Infof("🚀 [应用壳] 已启动: StartupDelay=%s, Store=%T", g.Initializer.StartupDelay, s.store)
	return nil
}

// WaitBoot 等待Boot调度的初始化序列结束
func (s *Shell) WaitBoot(ctx context.Context) (*initializer.Result, error) {
	select {
	case <-s.bootDone:
		result, _ := s.LastResult()
		return result, nil
	case <-s.closedCh:
		return nil, ErrShellClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Tasks 返回启动初始化任务列表（按执行顺序）
func (s *Shell) Tasks() []initializer.TaskDescriptor {
	g := s.cfg.Grocery

	return []initializer.TaskDescriptor{
		// 1. 环境校验（关键任务）：只有非开发环境下校验失败才算失败
		initializer.EnvValidationTask(func(ctx context.Context) error {
			missing := config.MissingEnvironmentKeys(s.cfg, s.lookup)
			if len(missing) == 0 {
				return nil
			}
			if s.cfg.IsDev() {
				log.Warnf("⚠️ [应用壳] 缺少环境变量（开发环境忽略）: %v", missing)
				return nil
			}
			return fmt.Errorf("%s: 缺少 %v", errEnvironmentInvalid, missing)
		}),

		// 2. 用户初始化（非关键任务）
		initializer.UserInitTask(func(ctx context.Context) error {
			return s.store.InitializeUser(ctx)
		}),

		// 3. 同步管理器初始化（非关键任务，延迟执行）
		initializer.NewTask(TaskIDSyncManagerInit, func(ctx context.Context) error {
			if !g.Sync.Enabled {
				return nil
			}
			return s.scheduler.Schedule(deferredSyncInitID, g.Sync.InitDelay, func() {
				if err := s.syncManager.Initialize(); err != nil {
					log.Warnf("⚠️ [应用壳] 同步管理器初始化失败: %v", err)
				}
			})
		},
			initializer.WithCritical(false),
			initializer.WithTimeout(syncManagerInitTimeout),
			initializer.WithDescription("延迟初始化同步管理器"),
		),

		// 4. 同步服务启动（非关键任务，进一步延迟）
		initializer.SyncInitTask(func(ctx context.Context) error {
			if !g.Sync.Enabled {
				return nil
			}
			return s.scheduler.Schedule(deferredSyncStart, g.Sync.StartDelay, func() {
				s.store.StartSync()
			})
		}),
	}
}

// RunInitialization 同步执行初始化序列并根据结果设置横幅（对外导出）
func (s *Shell) RunInitialization(ctx context.Context) (result *initializer.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("❌ [应用壳] 初始化过程崩溃: %v\n%s", r, debug.Stack())
			s.SetBanner(MessageInitCrashed)
			result = &initializer.Result{Success: false, FailedTasks: []string{}}
		}
		s.mu.Lock()
		s.lastResult = result
		s.mu.Unlock()
	}()

	result = s.initializer.Initialize(ctx, s.Tasks())
	s.applyResult(result)
	return result
}

// applyResult 将初始化结果转换为横幅
func (s *Shell) applyResult(result *initializer.Result) {
	if result.Success && len(result.FailedTasks) == 0 {
		log.Infof("✅ [应用壳] 顺序初始化成功完成")
		return
	}

	log.Warnf("⚠️ [应用壳] 部分初始化任务失败: %v", result.FailedTasks)
	switch {
	case result.HasFailed(initializer.TaskIDEnvValidation):
		s.SetBanner(MessageConfigIssue)
	case len(result.FailedTasks) > 0:
		s.SetBanner(MessageLimited)
	}
}

// IsClosed 是否已关闭
func (s *Shell) IsClosed() bool {
	select {
	case <-s.closedCh:
		return true
	default:
		return false
	}
}
