package deeplink

import (
	"net/url"
	"strconv"
)

// InviteURL 按应用scheme生成邀请链接，Parse可以还原出同一负载
func (i *Interpreter) InviteURL(p Payload) string {
	return i.build(&url.URL{Scheme: i.Scheme, Host: invitePath}, p)
}

// WebInviteURL 生成Web邀请链接，供无法识别自定义scheme的渠道分享
func (i *Interpreter) WebInviteURL(p Payload) string {
	return i.build(&url.URL{Scheme: "https", Host: i.WebHost, Path: "/" + invitePath}, p)
}

func (i *Interpreter) build(u *url.URL, p Payload) string {
	q := url.Values{}
	q.Set("token", p.Token)
	if p.FromName != "" {
		q.Set("from", p.FromName)
	}
	if p.ListName != "" {
		q.Set("list", p.ListName)
	}
	if p.Expires != nil {
		q.Set("expires", strconv.FormatInt(p.Expires.UnixMilli(), 10))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
