package initializer

import "time"

// TaskStatus 初始化任务执行状态
type TaskStatus string

const (
	TaskStatusSuccess TaskStatus = "Success" // 执行成功
	TaskStatusFailed  TaskStatus = "Failed"  // 执行失败（返回错误或panic）
	TaskStatusTimeout TaskStatus = "Timeout" // 执行超时
	TaskStatusSkipped TaskStatus = "Skipped" // 描述非法（ID为空、重复或无动作），未执行
	TaskStatusNotRun  TaskStatus = "NotRun"  // 因关键任务失败或取消而未执行
)

// IsFailure 是否为失败状态（失败或超时）
func (s TaskStatus) IsFailure() bool {
	return s == TaskStatusFailed || s == TaskStatusTimeout
}

// TaskOutcome 单个任务的执行结果
type TaskOutcome struct {
	ID        string        `json:"id"`
	Critical  bool          `json:"critical"`
	Status    TaskStatus    `json:"status"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	RSSBefore uint64        `json:"rss_before,omitempty"`
	RSSAfter  uint64        `json:"rss_after,omitempty"`
}

// Result 初始化结果（对外导出）
// 每次运行新建，由调用方消费，不做持久化
type Result struct {
	RunID           string        `json:"run_id"`
	Success         bool          `json:"success"`      // 无关键任务失败时为true
	FailedTasks     []string      `json:"failed_tasks"` // 按失败顺序记录的任务ID，无重复
	CriticalFailure string        `json:"critical_failure,omitempty"`
	Canceled        bool          `json:"canceled"`
	Skipped         []string      `json:"skipped,omitempty"`
	Outcomes        []TaskOutcome `json:"outcomes"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
}

// HasFailed 判断指定任务是否失败
func (r *Result) HasFailed(taskID string) bool {
	for _, id := range r.FailedTasks {
		if id == taskID {
			return true
		}
	}
	return false
}

// Outcome 获取指定任务的执行结果
func (r *Result) Outcome(taskID string) (TaskOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.ID == taskID {
			return o, true
		}
	}
	return TaskOutcome{}, false
}

// recordFailure 记录失败任务（保持插入顺序且去重）
func (r *Result) recordFailure(taskID string) {
	if r.HasFailed(taskID) {
		return
	}
	r.FailedTasks = append(r.FailedTasks, taskID)
}
