// Package events 提供进程内事件总线（基于watermill gochannel）
package events

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Topic 事件主题
type Topic string

const (
	TopicDeepLinkURL   Topic = "deeplink.url"   // 运行时收到的深度链接
	TopicBannerChanged Topic = "banner.changed" // 横幅内容变化
)

// Event 事件基础结构
type Event struct {
	ID        string            `json:"id"`        // 事件ID（UUID）
	Topic     Topic             `json:"topic"`     // 事件主题
	Source    string            `json:"source"`    // 事件来源（api/cli/initial等）
	Timestamp time.Time         `json:"timestamp"` // 事件时间
	Seq       uint64            `json:"seq"`       // 发布序号，由总线在发布时分配，单调递增
	Payload   map[string]string `json:"payload"`   // 事件负载
}

// NewEvent 创建事件
func NewEvent(topic Topic, source string, payload map[string]string) *Event {
	if payload == nil {
		payload = make(map[string]string)
	}
	return &Event{
		ID:        uuid.NewString(),
		Topic:     topic,
		Source:    source,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// NewDeepLinkEvent 创建深度链接事件
func NewDeepLinkEvent(url, source string) *Event {
	return NewEvent(TopicDeepLinkURL, source, map[string]string{"url": url})
}

// NewBannerEvent 创建横幅变化事件
func NewBannerEvent(text string, version uint64) *Event {
	return NewEvent(TopicBannerChanged, "shell", map[string]string{
		"text":    text,
		"version": strconv.FormatUint(version, 10),
	})
}

// URL 返回深度链接事件携带的URL
func (e *Event) URL() string {
	if e == nil || e.Payload == nil {
		return ""
	}
	return e.Payload["url"]
}
