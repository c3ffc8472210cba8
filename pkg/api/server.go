package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/LENAX/grocery-core/pkg/config"
	"github.com/LENAX/grocery-core/pkg/logger"
	"github.com/LENAX/grocery-core/pkg/shell"
)

var log = logger.WithComponent("api")

// ServerConfig API服务器配置
type ServerConfig struct {
	Host         string        // 监听地址
	Port         int           // 监听端口
	ReadTimeout  time.Duration // 读取超时
	WriteTimeout time.Duration // 写入超时
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "127.0.0.1",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// ServerConfigFrom 从应用配置构造服务器配置
func ServerConfigFrom(cfg *config.AppConfig) ServerConfig {
	s := cfg.Grocery.Server
	return ServerConfig{
		Host:         s.Host,
		Port:         s.Port,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
	}
}

// APIServer HTTP API服务器
type APIServer struct {
	shell      *shell.Shell
	gatherer   prometheus.Gatherer
	httpServer *http.Server
	config     ServerConfig
	version    string
}

// NewAPIServer 创建API服务器
func NewAPIServer(sh *shell.Shell, gatherer prometheus.Gatherer, config ServerConfig, version string) *APIServer {
	return &APIServer{
		shell:    sh,
		gatherer: gatherer,
		config:   config,
		version:  version,
	}
}

// Handler 返回路由，便于测试中直接使用
func (s *APIServer) Handler() *gin.Engine {
	return SetupRouter(s.shell, s.gatherer, s.version)
}

// Start 启动服务器，阻塞直到服务器关闭
func (s *APIServer) Start() error {
	addr := s.Addr()
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	log.Infof("🚀 [API] Grocery Core API Server starting on %s", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen failed: %w", err)
	}
	return nil
}

// Shutdown 优雅关闭服务器
func (s *APIServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	log.Infof("🛑 [API] Shutting down API Server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Infof("✅ [API] API Server stopped")
	return nil
}

// Addr 获取服务器地址
func (s *APIServer) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
