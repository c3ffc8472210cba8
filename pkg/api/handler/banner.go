package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/LENAX/grocery-core/pkg/api/dto"
	"github.com/LENAX/grocery-core/pkg/core/banner"
	"github.com/LENAX/grocery-core/pkg/logger"
	"github.com/LENAX/grocery-core/pkg/shell"
)

var log = logger.WithComponent("api")

const (
	wsWriteTimeout = 5 * time.Second
	wsPingInterval = 30 * time.Second
)

// BannerHandler 横幅API处理器
type BannerHandler struct {
	shell    *shell.Shell
	upgrader websocket.Upgrader
}

// NewBannerHandler 创建BannerHandler
func NewBannerHandler(sh *shell.Shell) *BannerHandler {
	return &BannerHandler{
		shell: sh,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Get 获取当前横幅
// GET /api/v1/banner
func (h *BannerHandler) Get(c *gin.Context) {
	msg, _ := h.shell.Banner().Get()
	c.JSON(http.StatusOK, dto.NewSuccessResponse(toBannerResponse(msg)))
}

// Set 设置横幅，空文本等价于清除
// PUT /api/v1/banner
func (h *BannerHandler) Set(c *gin.Context) {
	var req dto.SetBannerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("请求参数错误: %v", err)))
		return
	}
	h.shell.SetBanner(req.Text)
	msg, _ := h.shell.Banner().Get()
	c.JSON(http.StatusOK, dto.NewSuccessResponse(toBannerResponse(msg)))
}

// Clear 清除横幅
// DELETE /api/v1/banner
func (h *BannerHandler) Clear(c *gin.Context) {
	h.shell.SetBanner("")
	c.JSON(http.StatusOK, dto.NewSuccessResponse(map[string]string{"status": "cleared"}))
}

// Stream 通过WebSocket推送横幅变化，连接建立时先推送当前快照
// GET /api/v1/banner/ws
func (h *BannerHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("⚠️ [横幅推送] WebSocket升级失败: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.shell.Banner().Subscribe(0)
	defer cancel()

	// 读循环只用于感知客户端断开
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	current, _ := h.shell.Banner().Get()
	if err := writeBanner(conn, current); err != nil {
		return
	}

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-updates:
			if !ok {
				return
			}
			if err := writeBanner(conn, msg); err != nil {
				log.Debugf("[横幅推送] 写入失败，断开连接: %v", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

func writeBanner(conn *websocket.Conn, msg banner.Message) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(toBannerResponse(msg))
}

func toBannerResponse(msg banner.Message) dto.BannerResponse {
	return dto.BannerResponse{Text: msg.Text, Version: msg.Version, UpdatedAt: msg.UpdatedAt}
}
