package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/grocery-core/pkg/api/dto"
	"github.com/LENAX/grocery-core/pkg/core/invitation"
	"github.com/LENAX/grocery-core/pkg/shell"
)

// InvitationHandler 待处理邀请API处理器
type InvitationHandler struct {
	shell *shell.Shell
}

// NewInvitationHandler 创建InvitationHandler
func NewInvitationHandler(sh *shell.Shell) *InvitationHandler {
	return &InvitationHandler{shell: sh}
}

// Get 获取邀请流程状态
// GET /api/v1/invitation
func (h *InvitationHandler) Get(c *gin.Context) {
	flow := h.shell.Flow()
	resp := dto.InvitationState{State: string(flow.State())}
	if p, ok := flow.Pending(); ok {
		resp.Pending = &p
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// Accept 接受待处理邀请
// POST /api/v1/invitation/accept
func (h *InvitationHandler) Accept(c *gin.Context) {
	outcome := h.shell.Flow().Accept(c.Request.Context())
	h.respond(c, outcome)
}

// Decline 拒绝待处理邀请，后端通知异步进行
// POST /api/v1/invitation/decline
func (h *InvitationHandler) Decline(c *gin.Context) {
	outcome := h.shell.Flow().Decline(c.Request.Context())
	h.respond(c, outcome)
}

func (h *InvitationHandler) respond(c *gin.Context, outcome invitation.Outcome) {
	status := http.StatusOK
	switch outcome {
	case invitation.OutcomeNoPending:
		status = http.StatusNotFound
	case invitation.OutcomeBusy:
		status = http.StatusConflict
	}
	c.JSON(status, dto.NewSuccessResponse(dto.OutcomeResponse{
		Outcome: string(outcome),
		Banner:  h.shell.Banner().Text(),
	}))
}
