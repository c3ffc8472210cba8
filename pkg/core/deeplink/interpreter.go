// Package deeplink 将外部传入的URL解析为邀请负载
package deeplink

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultScheme  = "grocerylist"
	DefaultWebHost = "grocery.app"

	invitePath = "invite"

	// 大于等于该值的数字时间戳按毫秒解释
	millisecondThreshold = 1_000_000_000_000
)

// Payload 邀请负载
type Payload struct {
	Token    string     `json:"token"`
	FromName string     `json:"from_name,omitempty"`
	ListName string     `json:"list_name,omitempty"`
	Expires  *time.Time `json:"expires,omitempty"`
}

// IsExpired 判断邀请在now时刻是否已过期，没有过期时间的邀请永不过期
func (p Payload) IsExpired(now time.Time) bool {
	return p.Expires != nil && now.After(*p.Expires)
}

// Interpreter 深度链接解释器（对外导出）
// 只负责解析，不判断过期
type Interpreter struct {
	Scheme  string // 应用自定义scheme，如 grocerylist
	WebHost string // Web邀请链接的域名，如 grocery.app
}

// NewInterpreter 创建解释器，参数为空时使用默认值
func NewInterpreter(scheme, webHost string) *Interpreter {
	if scheme == "" {
		scheme = DefaultScheme
	}
	if webHost == "" {
		webHost = DefaultWebHost
	}
	return &Interpreter{
		Scheme:  strings.ToLower(scheme),
		WebHost: strings.ToLower(webHost),
	}
}

// Parse 解析URL，第二个返回值为false表示不是邀请链接
// 任何输入都不会panic
func (i *Interpreter) Parse(raw string) (payload Payload, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			payload, ok = Payload{}, false
		}
	}()

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Payload{}, false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Payload{}, false
	}

	segments, matched := i.segments(u)
	if !matched || len(segments) == 0 || !strings.EqualFold(segments[0], invitePath) {
		return Payload{}, false
	}
	if len(segments) > 2 {
		return Payload{}, false
	}

	query := u.Query()
	token := ""
	if len(segments) == 2 {
		token = segments[1]
	} else {
		token = query.Get("token")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Payload{}, false
	}

	payload = Payload{
		Token:    token,
		FromName: firstValue(query, "from", "fromName", "inviter"),
		ListName: firstValue(query, "list", "listName", "name"),
		Expires:  parseExpires(query.Get("expires")),
	}
	return payload, true
}

// segments 返回与邀请相关的路径片段；scheme或域名不匹配时matched为false
func (i *Interpreter) segments(u *url.URL) (segments []string, matched bool) {
	scheme := strings.ToLower(u.Scheme)
	var path string

	switch {
	case scheme == i.Scheme:
		// grocerylist://invite/T 中 invite 被解析为host
		path = u.Host + "/" + u.Opaque + "/" + u.Path
	case scheme == "http" || scheme == "https":
		host := strings.ToLower(u.Hostname())
		host = strings.TrimPrefix(host, "www.")
		if host != i.WebHost {
			return nil, false
		}
		path = u.Path
	default:
		return nil, false
	}

	for _, part := range strings.Split(path, "/") {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments, true
}

func firstValue(query url.Values, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(query.Get(key)); v != "" {
			return v
		}
	}
	return ""
}

// parseExpires 解析过期时间（RFC3339或Unix秒/毫秒），无法解析时视为没有过期时间
func parseExpires(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t
	}

	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return nil
	}
	var t time.Time
	if n >= millisecondThreshold {
		t = time.UnixMilli(n).UTC()
	} else {
		t = time.Unix(n, 0).UTC()
	}
	return &t
}
