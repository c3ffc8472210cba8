package dto

// OpenLinkRequest 投递深度链接请求
type OpenLinkRequest struct {
	URL    string `json:"url" binding:"required"`
	Source string `json:"source" binding:"omitempty"`
}

// ParseLinkRequest 解析深度链接请求
type ParseLinkRequest struct {
	URL string `json:"url" binding:"required"`
}

// CreateListRequest 创建清单请求
type CreateListRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateInvitationRequest 创建邀请请求
type CreateInvitationRequest struct {
	TTLSeconds int `json:"ttl_seconds" binding:"omitempty,min=0"`
}

// SetUserNameRequest 设置用户名请求
type SetUserNameRequest struct {
	Name string `json:"name" binding:"required"`
}

// SetBannerRequest 设置横幅请求
type SetBannerRequest struct {
	Text string `json:"text" binding:"omitempty"`
}

// GetSource 获取来源，默认为api
func (r *OpenLinkRequest) GetSource() string {
	if r.Source == "" {
		return "api"
	}
	return r.Source
}
