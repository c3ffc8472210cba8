// Package client grocery-core HTTP API客户端
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/LENAX/grocery-core/pkg/api/dto"
	"github.com/LENAX/grocery-core/pkg/core/initializer"
	"github.com/LENAX/grocery-core/pkg/syncmanager"
)

// Client HTTP API客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New 创建客户端
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ========== 健康检查 ==========

// Health 查询服务健康状态
func (c *Client) Health() (*dto.HealthResponse, error) {
	var resp dto.APIResponse[dto.HealthResponse]
	if err := c.get("/health", &resp); err != nil {
		return nil, err
	}
	return unwrap(resp)
}

// ========== 深度链接 ==========

// OpenLink 投递深度链接
func (c *Client) OpenLink(rawURL, source string) error {
	var resp dto.APIResponse[map[string]string]
	if err := c.send(http.MethodPost, "/api/v1/deeplinks", dto.OpenLinkRequest{URL: rawURL, Source: source}, &resp); err != nil {
		return err
	}
	_, err := unwrap(resp)
	return err
}

// ========== 邀请 ==========

// Invitation 查询邀请流程状态
func (c *Client) Invitation() (*dto.InvitationState, error) {
	var resp dto.APIResponse[dto.InvitationState]
	if err := c.get("/api/v1/invitation", &resp); err != nil {
		return nil, err
	}
	return unwrap(resp)
}

// Accept 接受待处理邀请
func (c *Client) Accept() (*dto.OutcomeResponse, error) {
	var resp dto.APIResponse[dto.OutcomeResponse]
	if err := c.send(http.MethodPost, "/api/v1/invitation/accept", nil, &resp); err != nil {
		return nil, err
	}
	return unwrap(resp)
}

// Decline 拒绝待处理邀请
func (c *Client) Decline() (*dto.OutcomeResponse, error) {
	var resp dto.APIResponse[dto.OutcomeResponse]
	if err := c.send(http.MethodPost, "/api/v1/invitation/decline", nil, &resp); err != nil {
		return nil, err
	}
	return unwrap(resp)
}

// CreateInvitation 为清单创建邀请
func (c *Client) CreateInvitation(listID string, ttl time.Duration) (*dto.InvitationDetail, error) {
	req := dto.CreateInvitationRequest{TTLSeconds: int(ttl / time.Second)}
	var resp dto.APIResponse[dto.InvitationDetail]
	if err := c.send(http.MethodPost, "/api/v1/lists/"+url.PathEscape(listID)+"/invitations", req, &resp); err != nil {
		return nil, err
	}
	return unwrap(resp)
}

// GetInvitation 按token查询邀请
func (c *Client) GetInvitation(token string) (*dto.InvitationDetail, error) {
	var resp dto.APIResponse[dto.InvitationDetail]
	if err := c.get("/api/v1/invitations/"+url.PathEscape(token), &resp); err != nil {
		return nil, err
	}
	return unwrap(resp)
}

// ========== 清单与用户 ==========

// Lists 列出清单
func (c *Client) Lists() (*dto.ListResponse[dto.ListSummary], error) {
	var resp dto.APIResponse[dto.ListResponse[dto.ListSummary]]
	if err := c.get("/api/v1/lists", &resp); err != nil {
		return nil, err
	}
	return unwrap(resp)
}

// CreateList 创建清单
func (c *Client) CreateList(name string) (*dto.ListSummary, error) {
	var resp dto.APIResponse[dto.ListSummary]
	if err := c.send(http.MethodPost, "/api/v1/lists", dto.CreateListRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return unwrap(resp)
}

// SetUserName 设置当前用户名称
func (c *Client) SetUserName(name string) (*dto.UserDetail, error) {
	var resp dto.APIResponse[dto.UserDetail]
	if err := c.send(http.MethodPut, "/api/v1/user/name", dto.SetUserNameRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return unwrap(resp)
}

// ========== 横幅 ==========

// Banner 查询当前横幅
func (c *Client) Banner() (*dto.BannerResponse, error) {
	var resp dto.APIResponse[dto.BannerResponse]
	if err := c.get("/api/v1/banner", &resp); err != nil {
		return nil, err
	}
	return unwrap(resp)
}

// ClearBanner 清除横幅
func (c *Client) ClearBanner() error {
	var resp dto.APIResponse[map[string]string]
	if err := c.send(http.MethodDelete, "/api/v1/banner", nil, &resp); err != nil {
		return err
	}
	_, err := unwrap(resp)
	return err
}

// WatchBanner 订阅横幅变化，fn返回false或连接断开时结束
func (c *Client) WatchBanner(fn func(dto.BannerResponse) bool) error {
	wsURL, err := c.wsURL("/api/v1/banner/ws")
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("连接横幅推送失败: %w", err)
	}
	defer conn.Close()

	for {
		var msg dto.BannerResponse
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("读取横幅推送失败: %w", err)
		}
		if !fn(msg) {
			return nil
		}
	}
}

// ========== 初始化与同步 ==========

// InitResult 查询最近一次初始化结果
func (c *Client) InitResult() (*initializer.Result, error) {
	var resp dto.APIResponse[initializer.Result]
	if err := c.get("/api/v1/init/result", &resp); err != nil {
		return nil, err
	}
	return unwrap(resp)
}

// SyncStats 查询同步统计
func (c *Client) SyncStats() (*syncmanager.Stats, error) {
	var resp dto.APIResponse[syncmanager.Stats]
	if err := c.get("/api/v1/sync", &resp); err != nil {
		return nil, err
	}
	return unwrap(resp)
}

// ========== 内部方法 ==========

func (c *Client) wsURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("服务器地址无效: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}

func (c *Client) get(path string, result interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	return c.parseResponse(resp, result)
}

func (c *Client) send(method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求体失败: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	return c.parseResponse(resp, result)
}

func (c *Client) parseResponse(resp *http.Response, result interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应体失败: %w", err)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("解析响应失败: %w, body: %s", err, string(body))
	}

	return nil
}

func unwrap[T any](resp dto.APIResponse[T]) (*T, error) {
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}
