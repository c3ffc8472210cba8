package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/grocery-core/pkg/api/dto"
	"github.com/LENAX/grocery-core/pkg/shell"
)

// DeepLinkHandler 深度链接API处理器
type DeepLinkHandler struct {
	shell *shell.Shell
}

// NewDeepLinkHandler 创建DeepLinkHandler
func NewDeepLinkHandler(sh *shell.Shell) *DeepLinkHandler {
	return &DeepLinkHandler{shell: sh}
}

// Open 投递运行时深度链接，处理是异步的
// POST /api/v1/deeplinks
func (h *DeepLinkHandler) Open(c *gin.Context) {
	var req dto.OpenLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("请求参数错误: %v", err)))
		return
	}

	if err := h.shell.PublishURL(c.Request.Context(), req.URL, req.GetSource()); err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(503, fmt.Sprintf("投递深度链接失败: %v", err)))
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(map[string]string{
		"url":    req.URL,
		"source": req.GetSource(),
	}))
}

// Parse 只解析不投递
// POST /api/v1/deeplinks/parse
func (h *DeepLinkHandler) Parse(c *gin.Context) {
	var req dto.ParseLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("请求参数错误: %v", err)))
		return
	}

	resp := dto.ParseResponse{URL: req.URL}
	if payload, ok := h.shell.Interpreter().Parse(req.URL); ok {
		resp.Valid = true
		resp.Expired = payload.IsExpired(time.Now())
		resp.Payload = &payload
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
