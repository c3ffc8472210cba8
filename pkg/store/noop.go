package store

import (
	"context"

	"github.com/LENAX/grocery-core/pkg/logger"
)

// NoopStore 存储初始化失败时使用的空实现
// 除接受邀请返回固定失败外，其余方法只记录日志
type NoopStore struct {
	cause error
}

// NewNoopStore 创建空存储，cause为导致降级的原因
func NewNoopStore(cause error) *NoopStore {
	return &NoopStore{cause: cause}
}

// Cause 返回降级原因
func (s *NoopStore) Cause() error {
	return s.cause
}

func (s *NoopStore) InitializeUser(ctx context.Context) error {
	logger.WithComponent("store").Warnf("⚠️ [存储] 存储不可用，跳过用户初始化")
	return nil
}

func (s *NoopStore) StartSync() {
	logger.WithComponent("store").Warnf("⚠️ [存储] 存储不可用，同步已禁用")
}

func (s *NoopStore) AcceptInvitation(ctx context.Context, token string) (AcceptResult, error) {
	return AcceptResult{Success: false, Error: ErrStoreUnavailable.Error()}, nil
}

func (s *NoopStore) SetBanner(message string) {
	logger.WithComponent("store").Warnf("⚠️ [存储] 存储不可用，横幅已禁用: %s", message)
}
