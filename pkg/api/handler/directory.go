package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/grocery-core/pkg/api/dto"
	"github.com/LENAX/grocery-core/pkg/core/deeplink"
	"github.com/LENAX/grocery-core/pkg/shell"
	"github.com/LENAX/grocery-core/pkg/store"
)

// DirectoryHandler 用户、清单与邀请管理API处理器
// 只在存储实现了store.Directory时可用（降级存储不支持）
type DirectoryHandler struct {
	shell *shell.Shell
}

// NewDirectoryHandler 创建DirectoryHandler
func NewDirectoryHandler(sh *shell.Shell) *DirectoryHandler {
	return &DirectoryHandler{shell: sh}
}

func (h *DirectoryHandler) directory(c *gin.Context) (store.Directory, bool) {
	dir, ok := h.shell.Store().(store.Directory)
	if !ok {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(503, "存储未配置"))
		return nil, false
	}
	return dir, true
}

// CurrentUser 获取当前用户
// GET /api/v1/user
func (h *DirectoryHandler) CurrentUser(c *gin.Context) {
	dir, ok := h.directory(c)
	if !ok {
		return
	}
	user, err := dir.CurrentUser(c.Request.Context())
	if err != nil {
		writeStoreError(c, "查询用户失败", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(toUserDetail(user)))
}

// SetUserName 设置当前用户名称
// PUT /api/v1/user/name
func (h *DirectoryHandler) SetUserName(c *gin.Context) {
	dir, ok := h.directory(c)
	if !ok {
		return
	}
	var req dto.SetUserNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("请求参数错误: %v", err)))
		return
	}
	user, err := dir.SetUserName(c.Request.Context(), req.Name)
	if err != nil {
		writeStoreError(c, "设置用户名称失败", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(toUserDetail(user)))
}

// ListLists 列出当前用户加入的清单
// GET /api/v1/lists
func (h *DirectoryHandler) ListLists(c *gin.Context) {
	dir, ok := h.directory(c)
	if !ok {
		return
	}
	lists, err := dir.Lists(c.Request.Context())
	if err != nil {
		writeStoreError(c, "查询清单失败", err)
		return
	}
	items := make([]dto.ListSummary, 0, len(lists))
	for _, l := range lists {
		items = append(items, dto.ListSummary{ID: l.ID, Name: l.Name, OwnerID: l.OwnerID, CreatedAt: l.CreatedAt})
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.ListSummary]{
		Total: len(items),
		Items: items,
	}))
}

// CreateList 创建清单
// POST /api/v1/lists
func (h *DirectoryHandler) CreateList(c *gin.Context) {
	dir, ok := h.directory(c)
	if !ok {
		return
	}
	var req dto.CreateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("请求参数错误: %v", err)))
		return
	}
	list, err := dir.CreateList(c.Request.Context(), req.Name)
	if err != nil {
		writeStoreError(c, "创建清单失败", err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.ListSummary{
		ID: list.ID, Name: list.Name, OwnerID: list.OwnerID, CreatedAt: list.CreatedAt,
	}))
}

// CreateInvitation 为清单创建邀请并返回可分享的链接
// POST /api/v1/lists/:id/invitations
func (h *DirectoryHandler) CreateInvitation(c *gin.Context) {
	dir, ok := h.directory(c)
	if !ok {
		return
	}
	var req dto.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("请求参数错误: %v", err)))
		return
	}
	inv, err := dir.CreateInvitation(c.Request.Context(), c.Param("id"), time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		writeStoreError(c, "创建邀请失败", err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(toInvitationDetail(h.shell.Interpreter(), inv)))
}

// GetInvitation 按token查询邀请
// GET /api/v1/invitations/:token
func (h *DirectoryHandler) GetInvitation(c *gin.Context) {
	dir, ok := h.directory(c)
	if !ok {
		return
	}
	inv, err := dir.GetInvitation(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeStoreError(c, "查询邀请失败", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(toInvitationDetail(h.shell.Interpreter(), inv)))
}

func writeStoreError(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, store.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(401, err.Error()))
	case errors.Is(err, store.ErrInvitationNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("%s: %v", action, err)))
	}
}

func toUserDetail(u store.User) dto.UserDetail {
	return dto.UserDetail{ID: u.ID, Name: u.Name, CreatedAt: u.CreatedAt}
}

func toInvitationDetail(interp *deeplink.Interpreter, inv store.Invitation) dto.InvitationDetail {
	payload := deeplink.Payload{
		Token:    inv.Token,
		FromName: inv.FromName,
		ListName: inv.ListName,
		Expires:  inv.Expires(),
	}
	return dto.InvitationDetail{
		Token:     inv.Token,
		ListID:    inv.ListID,
		ListName:  inv.ListName,
		FromName:  inv.FromName,
		Status:    string(inv.Status),
		ExpiresAt: inv.Expires(),
		AppURL:    interp.InviteURL(payload),
		WebURL:    interp.WebInviteURL(payload),
	}
}
