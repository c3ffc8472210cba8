// Package invitation 实现邀请接纳流程：解析、校验、确认、接受或拒绝
package invitation

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/LENAX/grocery-core/pkg/core/banner"
	"github.com/LENAX/grocery-core/pkg/core/deeplink"
	"github.com/LENAX/grocery-core/pkg/logger"
	"github.com/LENAX/grocery-core/pkg/plugin"
	"github.com/LENAX/grocery-core/pkg/store"
)

var log = logger.WithComponent("invitation")

// Acceptor 按token接受邀请的协作方
type Acceptor interface {
	AcceptInvitation(ctx context.Context, token string) (store.AcceptResult, error)
}

// Option 流程配置选项
type Option func(*Flow)

// WithHooks 设置生命周期插件管理器
func WithHooks(pm plugin.PluginManager) Option {
	return func(f *Flow) {
		f.hooks = pm
	}
}

// WithNow 替换过期判断使用的当前时间
func WithNow(now func() time.Time) Option {
	return func(f *Flow) {
		if now != nil {
			f.now = now
		}
	}
}

// Flow 邀请接纳流程（对外导出）
// 同一时刻最多一个邀请处于Pending或Accepting，新的有效邀请替换Pending中的邀请
// 流程是待处理邀请的唯一写入者，面向用户的失败只通过横幅体现
type Flow struct {
	interp   *deeplink.Interpreter
	acceptor Acceptor
	decliner store.Decliner
	banner   banner.Sink
	hooks    plugin.PluginManager
	now      func() time.Time

	mu      sync.Mutex
	state   FlowState
	pending *deeplink.Payload

	declines sync.WaitGroup
}

// NewFlow 创建邀请接纳流程
// decliner可以为nil，此时拒绝只在本地生效
func NewFlow(interp *deeplink.Interpreter, acceptor Acceptor, decliner store.Decliner, sink banner.Sink, opts ...Option) *Flow {
	if interp == nil {
		interp = deeplink.NewInterpreter("", "")
	}
	f := &Flow{
		interp:   interp,
		acceptor: acceptor,
		decliner: decliner,
		banner:   sink,
		now:      time.Now,
		state:    FlowStateIdle,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// HandleURL 解析URL并交给Receive，非邀请链接被静默忽略
func (f *Flow) HandleURL(raw string) Outcome {
	payload, ok := f.interp.Parse(raw)
	if !ok {
		log.Debugf("[邀请] 不是有效的邀请链接，忽略")
		return OutcomeIgnored
	}
	return f.Receive(payload)
}

// Receive 接收已解析的邀请负载
// 已过期的邀请只设置横幅，不会进入Pending
func (f *Flow) Receive(payload deeplink.Payload) Outcome {
	if payload.Token == "" {
		return OutcomeIgnored
	}

	if payload.IsExpired(f.now()) {
		log.Infof("⚠️ [邀请] 邀请已过期: Token=%s, Expires=%s", maskToken(payload.Token), payload.Expires.Format(time.RFC3339))
		f.setBanner(MessageExpired)
		f.trigger(plugin.EventInvitationExpired, payload, nil)
		return OutcomeExpired
	}

	f.mu.Lock()
	if f.state == FlowStateAccepting {
		f.mu.Unlock()
		log.Warnf("⚠️ [邀请] 正在接受其他邀请，丢弃新邀请: Token=%s", maskToken(payload.Token))
		return OutcomeBusy
	}
	replaced := f.pending != nil
	p := payload
	f.pending = &p
	f.transitionLocked(FlowStatePending)
	f.mu.Unlock()

	log.Infof("📨 [邀请] 收到邀请: Token=%s, From=%s, List=%s, 替换=%v", maskToken(payload.Token), payload.FromName, payload.ListName, replaced)
	f.trigger(plugin.EventInvitationReceived, payload, nil)
	return OutcomeQueued
}

// Accept 用户确认接受待处理邀请
// 存储调用最多一次；无论结果如何待处理邀请都被清除且只清除一次
func (f *Flow) Accept(ctx context.Context) Outcome {
	f.mu.Lock()
	switch f.state {
	case FlowStateAccepting:
		f.mu.Unlock()
		return OutcomeBusy
	case FlowStateIdle:
		f.mu.Unlock()
		return OutcomeNoPending
	}
	inv := *f.pending
	f.transitionLocked(FlowStateAccepting)
	f.mu.Unlock()

	log.Infof("🤝 [邀请] 开始接受邀请: Token=%s", maskToken(inv.Token))
	result, err := f.callAccept(ctx, inv.Token)

	f.mu.Lock()
	f.pending = nil
	f.transitionLocked(FlowStateIdle)
	f.mu.Unlock()

	var (
		outcome Outcome
		message string
	)
	switch {
	case err != nil && isUnauthenticated("", err):
		outcome, message = OutcomeUnauthenticated, MessageUnauthenticated
	case err != nil:
		log.Errorf("❌ [邀请] 接受邀请异常: Token=%s, Error=%v", maskToken(inv.Token), err)
		outcome, message = OutcomeError, MessageUnexpected
	case result.Success:
		outcome, message = OutcomeAccepted, successMessage(inv.ListName)
	default:
		message, outcome = failureMessage(result.Error)
		log.Warnf("⚠️ [邀请] 接受邀请失败: Token=%s, Reason=%s", maskToken(inv.Token), result.Error)
	}
	f.setBanner(message)

	event := plugin.EventInvitationRejected
	if outcome == OutcomeAccepted {
		event = plugin.EventInvitationAccepted
		log.Infof("✅ [邀请] 已加入清单: Token=%s, List=%s", maskToken(inv.Token), inv.ListName)
	}
	f.trigger(event, inv, map[string]interface{}{"outcome": string(outcome)})
	return outcome
}

// callAccept 调用存储接受邀请，panic被视为异常
func (f *Flow) callAccept(ctx context.Context, token string) (result store.AcceptResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("❌ [邀请] 接受邀请时panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("接受邀请panic: %v", r)
		}
	}()
	if f.acceptor == nil {
		return store.AcceptResult{}, store.ErrStoreUnavailable
	}
	return f.acceptor.AcceptInvitation(ctx, token)
}

// Decline 用户拒绝待处理邀请
// 本地状态同步清除，随后在后台尽力通知后端，通知失败只记录日志
func (f *Flow) Decline(ctx context.Context) Outcome {
	f.mu.Lock()
	switch f.state {
	case FlowStateAccepting:
		f.mu.Unlock()
		return OutcomeBusy
	case FlowStateIdle:
		f.mu.Unlock()
		return OutcomeNoPending
	}
	inv := *f.pending
	f.pending = nil
	f.transitionLocked(FlowStateIdle)
	f.mu.Unlock()

	log.Infof("🙅 [邀请] 用户拒绝邀请: Token=%s", maskToken(inv.Token))
	f.trigger(plugin.EventInvitationDeclined, inv, nil)

	if f.decliner != nil {
		notifyCtx := context.WithoutCancel(ctx)
		f.declines.Add(1)
		go f.notifyDecline(notifyCtx, inv.Token)
	}
	return OutcomeDeclined
}

func (f *Flow) notifyDecline(ctx context.Context, token string) {
	defer f.declines.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("❌ [邀请] 拒绝通知panic: Token=%s, Error=%v", maskToken(token), r)
		}
	}()
	if err := f.decliner.DeclineInvitation(ctx, token); err != nil {
		log.Warnf("⚠️ [邀请] 拒绝通知失败（已忽略）: Token=%s, Error=%v", maskToken(token), err)
		return
	}
	log.Debugf("[邀请] 拒绝通知已送达: Token=%s", maskToken(token))
}

// Pending 返回当前待处理（或接受中）的邀请
func (f *Flow) Pending() (deeplink.Payload, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil {
		return deeplink.Payload{}, false
	}
	return *f.pending, true
}

// State 返回当前流程状态
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Wait 等待所有后台拒绝通知结束
func (f *Flow) Wait() {
	f.declines.Wait()
}

func (f *Flow) transitionLocked(target FlowState) {
	if !f.state.CanTransitionTo(target) {
		log.Warnf("⚠️ [邀请] 非预期的状态转换: %s -> %s", f.state, target)
	}
	f.state = target
}

func (f *Flow) setBanner(message string) {
	if f.banner == nil {
		return
	}
	f.banner.Set(message)
}

func (f *Flow) trigger(event plugin.TriggerEvent, inv deeplink.Payload, extra map[string]interface{}) {
	if f.hooks == nil {
		return
	}
	data := map[string]interface{}{
		"token":     inv.Token,
		"from_name": inv.FromName,
		"list_name": inv.ListName,
	}
	for k, v := range extra {
		data[k] = v
	}
	if err := f.hooks.Trigger(context.Background(), event, plugin.PluginData{Data: data}); err != nil {
		log.Warnf("⚠️ [邀请] 触发插件失败: Event=%s, Error=%v", event, err)
	}
}

// maskToken 日志中只保留token前4位
func maskToken(token string) string {
	if len(token) <= 4 {
		return token
	}
	return token[:4] + "***"
}
