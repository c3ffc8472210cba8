package plugin

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsPlugin 将生命周期事件记录为Prometheus指标（对外导出）
type MetricsPlugin struct {
	name string

	taskRuns       *prometheus.CounterVec
	taskDuration   *prometheus.HistogramVec
	initRuns       *prometheus.CounterVec
	invitationRuns *prometheus.CounterVec
}

// NewMetricsPlugin 创建指标插件并注册到registry
func NewMetricsPlugin(registry prometheus.Registerer) (*MetricsPlugin, error) {
	p := &MetricsPlugin{
		name: "metrics",
		taskRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "grocery",
				Subsystem: "initializer",
				Name:      "tasks_total",
				Help:      "Total number of initialization task runs by outcome.",
			},
			[]string{"task", "status"},
		),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "grocery",
				Subsystem: "initializer",
				Name:      "task_duration_seconds",
				Help:      "Duration of initialization tasks.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms ~ 8s
			},
			[]string{"task"},
		),
		initRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "grocery",
				Subsystem: "initializer",
				Name:      "runs_total",
				Help:      "Total number of initialization runs by result.",
			},
			[]string{"success"},
		),
		invitationRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "grocery",
				Subsystem: "invitation",
				Name:      "events_total",
				Help:      "Total number of invitation admission events.",
			},
			[]string{"event"},
		),
	}

	if registry != nil {
		for _, c := range []prometheus.Collector{p.taskRuns, p.taskDuration, p.initRuns, p.invitationRuns} {
			if err := registry.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

// Name 插件名称（实现Plugin接口）
func (p *MetricsPlugin) Name() string {
	return p.name
}

// Init 初始化插件（实现Plugin接口）
func (p *MetricsPlugin) Init(params map[string]string) error {
	return nil
}

// Execute 记录指标（实现Plugin接口）
func (p *MetricsPlugin) Execute(data PluginData) error {
	switch data.Event {
	case EventTaskSuccess, EventTaskFailed, EventTaskTimeout:
		p.taskRuns.WithLabelValues(data.TaskID, data.Status).Inc()
		p.taskDuration.WithLabelValues(data.TaskID).Observe(data.Duration)
	case EventInitCompleted:
		success := "false"
		if data.Status == "Success" {
			success = "true"
		}
		p.initRuns.WithLabelValues(success).Inc()
	case EventInvitationReceived, EventInvitationExpired, EventInvitationAccepted,
		EventInvitationRejected, EventInvitationDeclined:
		p.invitationRuns.WithLabelValues(string(data.Event)).Inc()
	}
	return nil
}

// AllEvents 返回指标插件关心的全部事件
func AllEvents() []TriggerEvent {
	return []TriggerEvent{
		EventTaskStarted, EventTaskSuccess, EventTaskFailed, EventTaskTimeout, EventInitCompleted,
		EventInvitationReceived, EventInvitationExpired, EventInvitationAccepted,
		EventInvitationRejected, EventInvitationDeclined,
	}
}

// BindAll 将插件注册并绑定到所有生命周期事件
// 同一插件实例已注册时跳过注册，重复的绑定会被忽略
func BindAll(pm PluginManager, p Plugin) error {
	existing, ok := pm.GetPlugin(p.Name())
	switch {
	case !ok:
		if err := pm.RegisterWithInit(p, nil); err != nil {
			return err
		}
	case existing != p:
		return fmt.Errorf("插件 %s 已注册为其他实例", p.Name())
	}
	for _, event := range AllEvents() {
		if err := pm.Bind(PluginBinding{PluginName: p.Name(), Event: event}); err != nil {
			return err
		}
	}
	return nil
}
