// Package initializer 提供启动任务的顺序初始化引擎
package initializer

import (
	"context"
	"time"
)

// 内置初始化任务ID
const (
	TaskIDEnvValidation = "environment-validation"
	TaskIDUserInit      = "user-initialization"
	TaskIDSyncInit      = "sync-initialization"
)

// Action 初始化任务动作，返回error或panic均视为任务失败
type Action func(ctx context.Context) error

// TaskDescriptor 初始化任务描述（对外导出）
// 创建后不应再修改，列表顺序即执行顺序
type TaskDescriptor struct {
	ID          string        // 任务ID，单次运行内唯一
	Description string        // 任务描述
	Action      Action        // 任务动作
	Critical    bool          // 是否为关键任务，失败即中止后续任务
	Timeout     time.Duration // 超时时间，<=0时使用初始化器默认值
}

// TaskOption 任务配置选项
type TaskOption func(*TaskDescriptor)

// WithCritical 设置任务是否为关键任务
func WithCritical(critical bool) TaskOption {
	return func(t *TaskDescriptor) {
		t.Critical = critical
	}
}

// WithTimeout 设置任务超时时间
func WithTimeout(timeout time.Duration) TaskOption {
	return func(t *TaskDescriptor) {
		if timeout > 0 {
			t.Timeout = timeout
		}
	}
}

// WithDescription 设置任务描述
func WithDescription(desc string) TaskOption {
	return func(t *TaskDescriptor) {
		t.Description = desc
	}
}

// NewTask 创建初始化任务（对外导出）
// 默认非关键任务，超时时间使用初始化器默认值
func NewTask(id string, action Action, opts ...TaskOption) TaskDescriptor {
	task := TaskDescriptor{
		ID:     id,
		Action: action,
	}
	for _, opt := range opts {
		opt(&task)
	}
	return task
}

// EnvValidationTask 环境校验任务（关键任务，快速完成）
func EnvValidationTask(action Action) TaskDescriptor {
	return NewTask(TaskIDEnvValidation, action,
		WithCritical(true),
		WithTimeout(1*time.Second),
		WithDescription("校验运行环境配置"),
	)
}

// UserInitTask 用户初始化任务（非关键任务，允许失败）
func UserInitTask(action Action) TaskDescriptor {
	return NewTask(TaskIDUserInit, action,
		WithCritical(false),
		WithTimeout(5*time.Second),
		WithDescription("初始化本地用户身份"),
	)
}

// SyncInitTask 同步服务启动任务（非关键任务）
func SyncInitTask(action Action) TaskDescriptor {
	return NewTask(TaskIDSyncInit, action,
		WithCritical(false),
		WithTimeout(3*time.Second),
		WithDescription("启动后台同步服务"),
	)
}
