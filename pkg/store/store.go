// Package store 定义应用壳依赖的存储协作方及其实现
package store

import (
	"context"
	"time"
)

// AcceptResult 接受邀请的业务结果
// Success为false时Error携带面向用户的失败原因
type AcceptResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Store 存储协作方接口（对外导出）
type Store interface {
	// InitializeUser 初始化本地用户身份
	InitializeUser(ctx context.Context) error
	// StartSync 启动后台同步
	StartSync()
	// AcceptInvitation 按token接受邀请
	AcceptInvitation(ctx context.Context, token string) (AcceptResult, error)
	// SetBanner 设置面向用户的横幅消息
	SetBanner(message string)
}

// Decliner 可以记录邀请被拒绝的协作方
type Decliner interface {
	DeclineInvitation(ctx context.Context, token string) error
}

// Closer 持有需要释放资源的存储实现
type Closer interface {
	Close() error
}

// Directory 用户、清单与邀请的管理操作
type Directory interface {
	CurrentUser(ctx context.Context) (User, error)
	SetUserName(ctx context.Context, name string) (User, error)
	CreateList(ctx context.Context, name string) (GroceryList, error)
	Lists(ctx context.Context) ([]GroceryList, error)
	CreateInvitation(ctx context.Context, listID string, ttl time.Duration) (Invitation, error)
	GetInvitation(ctx context.Context, token string) (Invitation, error)
}
