package store

import "errors"

var (
	// ErrNotAuthenticated 当前用户尚未设置名称
	ErrNotAuthenticated = errors.New("User not authenticated")
	// ErrInvitationNotFound 邀请不存在
	ErrInvitationNotFound = errors.New("Invitation not found")
	// ErrInvitationExpired 邀请已过期
	ErrInvitationExpired = errors.New("Invitation has expired")
	// ErrInvitationUsed 邀请已被使用或已被拒绝
	ErrInvitationUsed = errors.New("Invitation is no longer valid")
	// ErrStoreUnavailable 存储未能初始化
	ErrStoreUnavailable = errors.New("Store initialization failed")
)
