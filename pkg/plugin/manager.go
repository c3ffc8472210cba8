package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// TriggerEvent 插件触发事件类型（对外导出）
type TriggerEvent string

const (
	// 初始化事件
	EventTaskStarted   TriggerEvent = "task.started"   // 初始化任务开始执行
	EventTaskSuccess   TriggerEvent = "task.success"   // 初始化任务执行成功
	EventTaskFailed    TriggerEvent = "task.failed"    // 初始化任务执行失败
	EventTaskTimeout   TriggerEvent = "task.timeout"   // 初始化任务执行超时
	EventInitCompleted TriggerEvent = "init.completed" // 初始化序列结束

	// 邀请事件
	EventInvitationReceived TriggerEvent = "invitation.received" // 收到有效邀请
	EventInvitationExpired  TriggerEvent = "invitation.expired"  // 邀请已过期
	EventInvitationAccepted TriggerEvent = "invitation.accepted" // 邀请接受成功
	EventInvitationRejected TriggerEvent = "invitation.rejected" // 邀请接受失败（业务失败或异常）
	EventInvitationDeclined TriggerEvent = "invitation.declined" // 用户拒绝邀请
)

// PluginBinding 插件绑定规则（对外导出）
type PluginBinding struct {
	PluginName string            // 插件名称
	Event      TriggerEvent      // 触发事件
	Params     map[string]string // 插件初始化参数
}

// PluginData 传递给插件的数据（对外导出）
type PluginData struct {
	Event    TriggerEvent           // 触发事件
	RunID    string                 // 初始化运行ID（如果有）
	TaskID   string                 // 初始化任务ID（如果有）
	Critical bool                   // 任务是否为关键任务
	Status   string                 // 状态
	Duration float64                // 耗时（秒）
	Error    error                  // 错误信息（如果有）
	Data     map[string]interface{} // 自定义数据
}

// PluginManager 插件管理器接口（对外导出）
type PluginManager interface {
	// Register 注册插件
	Register(plugin Plugin) error
	// RegisterWithInit 注册并初始化插件
	RegisterWithInit(plugin Plugin, params map[string]string) error
	// Bind 绑定插件到事件
	Bind(binding PluginBinding) error
	// Trigger 触发插件
	Trigger(ctx context.Context, event TriggerEvent, data PluginData) error
	// GetPlugin 获取已注册的插件
	GetPlugin(name string) (Plugin, bool)
	// ListPlugins 列出所有已注册的插件（按名称排序）
	ListPlugins() []string
}

// pluginManagerImpl 插件管理器实现（内部实现）
type pluginManagerImpl struct {
	plugins  map[string]Plugin                // 已注册的插件（插件名称 -> 插件实例）
	bindings map[TriggerEvent][]PluginBinding // 事件绑定（事件类型 -> 绑定列表）
	mu       sync.RWMutex                     // 读写锁
}

// NewPluginManager 创建插件管理器（对外导出）
func NewPluginManager() PluginManager {
	return &pluginManagerImpl{
		plugins:  make(map[string]Plugin),
		bindings: make(map[TriggerEvent][]PluginBinding),
	}
}

// Register 注册插件（实现PluginManager接口）
func (pm *pluginManagerImpl) Register(plugin Plugin) error {
	if plugin == nil {
		return fmt.Errorf("插件不能为空")
	}

	name := plugin.Name()
	if name == "" {
		return fmt.Errorf("插件名称不能为空")
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	if _, exists := pm.plugins[name]; exists {
		return fmt.Errorf("插件 %s 已注册", name)
	}

	pm.plugins[name] = plugin
	return nil
}

// RegisterWithInit 注册并初始化插件（实现PluginManager接口）
func (pm *pluginManagerImpl) RegisterWithInit(plugin Plugin, params map[string]string) error {
	if err := pm.Register(plugin); err != nil {
		return err
	}

	// 初始化插件
	if err := plugin.Init(params); err != nil {
		// 初始化失败，移除已注册的插件
		pm.mu.Lock()
		delete(pm.plugins, plugin.Name())
		pm.mu.Unlock()
		return fmt.Errorf("插件 %s 初始化失败: %w", plugin.Name(), err)
	}

	return nil
}

// Bind 绑定插件到事件（实现PluginManager接口）
func (pm *pluginManagerImpl) Bind(binding PluginBinding) error {
	if binding.PluginName == "" {
		return fmt.Errorf("插件名称不能为空")
	}

	if binding.Event == "" {
		return fmt.Errorf("触发事件不能为空")
	}

	pm.mu.RLock()
	_, exists := pm.plugins[binding.PluginName]
	pm.mu.RUnlock()

	if !exists {
		return fmt.Errorf("插件 %s 未注册", binding.PluginName)
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	for _, existing := range pm.bindings[binding.Event] {
		if existing.PluginName == binding.PluginName {
			return nil // 同一插件对同一事件只绑定一次
		}
	}
	pm.bindings[binding.Event] = append(pm.bindings[binding.Event], binding)
	return nil
}

// Trigger 触发插件（实现PluginManager接口）
func (pm *pluginManagerImpl) Trigger(ctx context.Context, event TriggerEvent, data PluginData) error {
	pm.mu.RLock()
	bindings, exists := pm.bindings[event]
	pm.mu.RUnlock()

	if !exists || len(bindings) == 0 {
		return nil // 没有绑定，直接返回
	}
	data.Event = event

	var errors []error
	for _, binding := range bindings {
		// 获取插件
		pm.mu.RLock()
		plugin, exists := pm.plugins[binding.PluginName]
		pm.mu.RUnlock()

		if !exists {
			continue // 插件不存在，跳过
		}

		// 执行插件
		if err := safeExecute(plugin, data); err != nil {
			errors = append(errors, fmt.Errorf("插件 %s 执行失败: %w", binding.PluginName, err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("触发插件失败: %v", errors)
	}

	return nil
}

// GetPlugin 获取已注册的插件（实现PluginManager接口）
func (pm *pluginManagerImpl) GetPlugin(name string) (Plugin, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	plugin, exists := pm.plugins[name]
	return plugin, exists
}

// ListPlugins 列出所有已注册的插件（实现PluginManager接口）
func (pm *pluginManagerImpl) ListPlugins() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	names := make([]string, 0, len(pm.plugins))
	for name := range pm.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// safeExecute 执行插件并捕获panic，插件故障不向调用方扩散
func safeExecute(p Plugin, data PluginData) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("插件panic: %v", r)
		}
	}()
	return p.Execute(data)
}
