package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/grocery-core/pkg/api/dto"
	"github.com/LENAX/grocery-core/pkg/shell"
	"github.com/LENAX/grocery-core/pkg/syncmanager"
)

// InitHandler 初始化结果与同步API处理器
type InitHandler struct {
	shell *shell.Shell
}

// NewInitHandler 创建InitHandler
func NewInitHandler(sh *shell.Shell) *InitHandler {
	return &InitHandler{shell: sh}
}

// Result 获取最近一次初始化结果
// GET /api/v1/init/result
func (h *InitHandler) Result(c *gin.Context) {
	result, ok := h.shell.LastResult()
	if !ok {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "初始化尚未执行"))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}

// Tasks 列出启动任务
// GET /api/v1/init/tasks
func (h *InitHandler) Tasks(c *gin.Context) {
	tasks := h.shell.Tasks()
	items := make([]map[string]interface{}, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, map[string]interface{}{
			"id":          t.ID,
			"critical":    t.Critical,
			"timeout":     t.Timeout.String(),
			"description": t.Description,
		})
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[map[string]interface{}]{
		Total: len(items),
		Items: items,
	}))
}

// SyncStats 获取同步统计
// GET /api/v1/sync
func (h *InitHandler) SyncStats(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(h.shell.SyncManager().Stats()))
}

// SyncNow 立即执行一次同步
// POST /api/v1/sync
func (h *InitHandler) SyncNow(c *gin.Context) {
	report, err := h.shell.SyncManager().RunOnce(c.Request.Context())
	switch {
	case errors.Is(err, syncmanager.ErrSyncDisabled), errors.Is(err, syncmanager.ErrNoSyncer):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(409, err.Error()))
	case err != nil:
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("同步失败: %v", err)))
	default:
		c.JSON(http.StatusOK, dto.NewSuccessResponse(report))
	}
}
