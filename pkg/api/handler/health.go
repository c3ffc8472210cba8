package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/grocery-core/pkg/api/dto"
	"github.com/LENAX/grocery-core/pkg/shell"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	shell     *shell.Shell
	version   string
	startTime time.Time
}

// NewHealthHandler 创建HealthHandler
func NewHealthHandler(sh *shell.Shell, version string) *HealthHandler {
	return &HealthHandler{
		shell:     sh,
		version:   version,
		startTime: time.Now(),
	}
}

// Health 健康检查
// GET /health
// 存储降级时仍返回200，由store字段标明
func (h *HealthHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    formatDuration(time.Since(h.startTime)),
		Timestamp: time.Now().Format(time.RFC3339),
		Store:     fmt.Sprintf("%T", h.shell.Store()),
		Plugins:   h.shell.Plugins(),
	}
	if resp.Plugins == nil {
		resp.Plugins = []string{}
	}
	if err := h.shell.StoreError(); err != nil {
		resp.Status = "degraded"
		resp.StoreErr = err.Error()
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// Ready 就绪检查，初始化序列结束后才就绪
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if _, ok := h.shell.LastResult(); !ok {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(503, "初始化尚未完成"))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(map[string]string{
		"status": "ready",
	}))
}

// formatDuration 格式化持续时间
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
