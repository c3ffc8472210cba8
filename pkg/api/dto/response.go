package dto

import (
	"time"

	"github.com/LENAX/grocery-core/pkg/core/deeplink"
)

// APIResponse 通用API响应结构
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) APIResponse[any] {
	return APIResponse[any]{
		Code:    code,
		Message: message,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string   `json:"status"`
	Version   string   `json:"version"`
	Uptime    string   `json:"uptime"`
	Timestamp string   `json:"timestamp"`
	Store     string   `json:"store"`
	StoreErr  string   `json:"store_error,omitempty"`
	Plugins   []string `json:"plugins"`
}

// ParseResponse 深度链接解析结果
type ParseResponse struct {
	URL     string            `json:"url"`
	Valid   bool              `json:"valid"`
	Expired bool              `json:"expired"`
	Payload *deeplink.Payload `json:"payload,omitempty"`
}

// InvitationState 邀请流程状态
type InvitationState struct {
	State   string            `json:"state"`
	Pending *deeplink.Payload `json:"pending,omitempty"`
}

// OutcomeResponse 邀请操作结果
type OutcomeResponse struct {
	Outcome string `json:"outcome"`
	Banner  string `json:"banner,omitempty"`
}

// BannerResponse 横幅快照
type BannerResponse struct {
	Text      string    `json:"text"`
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InvitationDetail 已创建的邀请
type InvitationDetail struct {
	Token     string     `json:"token"`
	ListID    string     `json:"list_id"`
	ListName  string     `json:"list_name"`
	FromName  string     `json:"from_name,omitempty"`
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	AppURL    string     `json:"app_url"`
	WebURL    string     `json:"web_url"`
}

// ListSummary 购物清单摘要
type ListSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// UserDetail 当前用户
type UserDetail struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ListResponse 列表响应
type ListResponse[T any] struct {
	Total int `json:"total"`
	Items []T `json:"items"`
}
