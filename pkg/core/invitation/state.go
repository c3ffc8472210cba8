package invitation

// FlowState 邀请接纳流程状态枚举（对外导出）
type FlowState string

const (
	// FlowStateIdle 空闲状态（没有待处理邀请）
	FlowStateIdle FlowState = "Idle"
	// FlowStatePending 待确认状态（邀请等待用户接受或拒绝）
	FlowStatePending FlowState = "Pending"
	// FlowStateAccepting 接受中状态（正在调用存储接受邀请）
	FlowStateAccepting FlowState = "Accepting"
)

// IsValid 检查状态是否有效（对外导出）
func (s FlowState) IsValid() bool {
	switch s {
	case FlowStateIdle, FlowStatePending, FlowStateAccepting:
		return true
	default:
		return false
	}
}

// CanTransitionTo 检查是否可以转换到目标状态（对外导出）
func (s FlowState) CanTransitionTo(target FlowState) bool {
	switch s {
	case FlowStateIdle:
		// Idle只能转换到Pending
		return target == FlowStatePending
	case FlowStatePending:
		// Pending可以被新邀请替换，也可以转换到Accepting或Idle
		return target == FlowStatePending || target == FlowStateAccepting || target == FlowStateIdle
	case FlowStateAccepting:
		// Accepting无论结果如何都回到Idle
		return target == FlowStateIdle
	default:
		return false
	}
}

// Outcome 流程边界调用的结果类型（对外导出）
type Outcome string

const (
	OutcomeQueued          Outcome = "queued"          // 邀请进入待确认状态
	OutcomeIgnored         Outcome = "ignored"         // 不是邀请链接
	OutcomeExpired         Outcome = "expired"         // 邀请已过期
	OutcomeBusy            Outcome = "busy"            // 正在接受另一个邀请
	OutcomeNoPending       Outcome = "no_pending"      // 没有待确认的邀请
	OutcomeAccepted        Outcome = "accepted"        // 接受成功
	OutcomeRejected        Outcome = "rejected"        // 业务失败
	OutcomeUnauthenticated Outcome = "unauthenticated" // 用户尚未设置名称
	OutcomeError           Outcome = "error"           // 接受时出现异常
	OutcomeDeclined        Outcome = "declined"        // 用户拒绝邀请
)
