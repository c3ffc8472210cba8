package plugin

// Plugin 生命周期插件基础接口（对外导出）
type Plugin interface {
	// Name 插件名称
	Name() string
	// Init 初始化插件
	Init(params map[string]string) error
	// Execute 执行插件逻辑，data为PluginData
	Execute(data PluginData) error
}
