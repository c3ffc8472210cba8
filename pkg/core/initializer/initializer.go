package initializer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/LENAX/grocery-core/pkg/logger"
	"github.com/LENAX/grocery-core/pkg/plugin"
)

var (
	// ErrTaskTimeout 任务执行超时
	ErrTaskTimeout = errors.New("初始化任务超时")
	// ErrTaskPanicked 任务执行过程中发生panic
	ErrTaskPanicked = errors.New("初始化任务panic")
)

var log = logger.WithComponent("initializer")

// SequentialInitializer 顺序初始化器（对外导出）
// 按列表顺序逐个执行任务，任意时刻只有一个任务在等待，避免启动阶段的资源峰值
// 初始化器本身不跨运行保存状态
type SequentialInitializer struct {
	opts *options
}

// NewSequentialInitializer 创建顺序初始化器
func NewSequentialInitializer(opts ...Option) *SequentialInitializer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &SequentialInitializer{opts: o}
}

// Initialize 顺序执行初始化任务并返回结构化结果（对外导出）
// 任务失败不会向调用方传播：错误与panic均被捕获并记录在结果中
// 关键任务失败或ctx取消时立即停止，后续任务标记为NotRun
func (s *SequentialInitializer) Initialize(ctx context.Context, tasks []TaskDescriptor) *Result {
	result := &Result{
		RunID:       uuid.NewString(),
		Success:     true,
		FailedTasks: make([]string, 0),
		Outcomes:    make([]TaskOutcome, 0, len(tasks)),
		StartedAt:   time.Now(),
	}
	seen := make(map[string]struct{}, len(tasks))

	log.Infof("🚀 [初始化器] 开始顺序初始化: RunID=%s, 任务数=%d", result.RunID, len(tasks))

	stopped := false
	for _, task := range tasks {
		if stopped {
			result.Outcomes = append(result.Outcomes, TaskOutcome{ID: task.ID, Critical: task.Critical, Status: TaskStatusNotRun})
			continue
		}

		if reason := validateTask(task, seen); reason != "" {
			log.Warnf("⚠️ [初始化器] 跳过非法任务: TaskID=%q, 原因=%s", task.ID, reason)
			result.Skipped = append(result.Skipped, task.ID)
			result.Outcomes = append(result.Outcomes, TaskOutcome{ID: task.ID, Critical: task.Critical, Status: TaskStatusSkipped, Error: reason})
			continue
		}
		seen[task.ID] = struct{}{}

		if err := ctx.Err(); err != nil {
			result.Canceled = true
			result.Success = false
			stopped = true
			result.Outcomes = append(result.Outcomes, TaskOutcome{ID: task.ID, Critical: task.Critical, Status: TaskStatusNotRun})
			continue
		}

		outcome := s.execute(ctx, result.RunID, task)
		result.Outcomes = append(result.Outcomes, outcome)

		if !outcome.Status.IsFailure() {
			continue
		}
		result.recordFailure(task.ID)

		if ctx.Err() != nil {
			log.Warnf("⚠️ [初始化器] 初始化被取消: TaskID=%s", task.ID)
			result.Canceled = true
			result.Success = false
			stopped = true
			continue
		}
		if task.Critical {
			log.Errorf("❌ [初始化器] 关键任务失败，中止后续任务: TaskID=%s, Error=%s", task.ID, outcome.Error)
			result.CriticalFailure = task.ID
			result.Success = false
			stopped = true
		}
	}

	result.Duration = time.Since(result.StartedAt)

	status := "Success"
	if !result.Success {
		status = "Failed"
	}
	s.trigger(ctx, plugin.EventInitCompleted, plugin.PluginData{
		RunID:    result.RunID,
		Status:   status,
		Duration: result.Duration.Seconds(),
		Data: map[string]interface{}{
			"failed_tasks": result.FailedTasks,
		},
	})

	if result.Success {
		log.Infof("✅ [初始化器] 顺序初始化完成: RunID=%s, 耗时=%s, 非关键失败=%v", result.RunID, result.Duration, result.FailedTasks)
	} else {
		log.Warnf("⚠️ [初始化器] 顺序初始化未成功: RunID=%s, 失败任务=%v, 关键失败=%s, 取消=%v",
			result.RunID, result.FailedTasks, result.CriticalFailure, result.Canceled)
	}
	return result
}

// validateTask 校验任务描述，返回非空字符串表示跳过原因
func validateTask(task TaskDescriptor, seen map[string]struct{}) string {
	if task.ID == "" {
		return "任务ID为空"
	}
	if task.Action == nil {
		return "任务动作为空"
	}
	if _, dup := seen[task.ID]; dup {
		return "任务ID重复"
	}
	return ""
}

// execute 执行单个任务并采样内存
func (s *SequentialInitializer) execute(ctx context.Context, runID string, task TaskDescriptor) TaskOutcome {
	outcome := TaskOutcome{ID: task.ID, Critical: task.Critical}
	outcome.RSSBefore = s.sampleRSS()

	s.trigger(ctx, plugin.EventTaskStarted, plugin.PluginData{RunID: runID, TaskID: task.ID, Critical: task.Critical})
	log.Debugf("[初始化器] 执行任务: TaskID=%s, Critical=%v", task.ID, task.Critical)

	start := time.Now()
	status, err := s.runTask(ctx, task)
	outcome.Duration = time.Since(start)
	outcome.Status = status
	if err != nil {
		outcome.Error = err.Error()
	}
	outcome.RSSAfter = s.sampleRSS()

	event := plugin.EventTaskSuccess
	switch status {
	case TaskStatusTimeout:
		event = plugin.EventTaskTimeout
		log.Warnf("⏱️ [初始化器] 任务超时: TaskID=%s, Timeout=%s", task.ID, s.timeoutOf(task))
	case TaskStatusFailed:
		event = plugin.EventTaskFailed
		log.Warnf("⚠️ [初始化器] 任务失败: TaskID=%s, Error=%v", task.ID, err)
	default:
		log.Infof("✅ [初始化器] 任务完成: TaskID=%s, 耗时=%s", task.ID, outcome.Duration)
	}
	if outcome.RSSAfter > 0 {
		log.Debugf("[初始化器] 内存采样: TaskID=%s, RSS=%d -> %d", task.ID, outcome.RSSBefore, outcome.RSSAfter)
	}

	s.trigger(ctx, event, plugin.PluginData{
		RunID:    runID,
		TaskID:   task.ID,
		Critical: task.Critical,
		Status:   string(status),
		Duration: outcome.Duration.Seconds(),
		Error:    err,
	})
	return outcome
}

// runTask 执行任务动作，并与超时计时器竞争
// 超时后不取消仍在运行的动作，其结果被丢弃
func (s *SequentialInitializer) runTask(ctx context.Context, task TaskDescriptor) (TaskStatus, error) {
	timeout := s.timeoutOf(task)

	// 带缓冲，超时后迟到的结果不会阻塞动作所在的goroutine
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: %v", ErrTaskPanicked, r)
			}
		}()
		done <- task.Action(ctx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return TaskStatusFailed, err
		}
		return TaskStatusSuccess, nil
	case <-timer.C:
		return TaskStatusTimeout, fmt.Errorf("%w: %s 超过 %s", ErrTaskTimeout, task.ID, timeout)
	case <-ctx.Done():
		return TaskStatusFailed, ctx.Err()
	}
}

func (s *SequentialInitializer) timeoutOf(task TaskDescriptor) time.Duration {
	if task.Timeout > 0 {
		return task.Timeout
	}
	return s.opts.defaultTimeout
}

func (s *SequentialInitializer) sampleRSS() uint64 {
	if s.opts.memoryProbe == nil {
		return 0
	}
	rss, err := s.opts.memoryProbe.RSS()
	if err != nil {
		return 0
	}
	return rss
}

func (s *SequentialInitializer) trigger(ctx context.Context, event plugin.TriggerEvent, data plugin.PluginData) {
	if s.opts.hooks == nil {
		return
	}
	if err := s.opts.hooks.Trigger(ctx, event, data); err != nil {
		log.Warnf("⚠️ [初始化器] 触发插件失败: Event=%s, Error=%v", event, err)
	}
}
