package store

import (
	"database/sql"
	"time"
)

// InvitationStatus 邀请状态
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusDeclined InvitationStatus = "declined"
	InvitationStatusExpired  InvitationStatus = "expired"
)

// User 本地用户
type User struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Authenticated 用户设置了名称后才能接受邀请
func (u User) Authenticated() bool {
	return u.Name != ""
}

// GroceryList 购物清单
type GroceryList struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Invitation 清单邀请
type Invitation struct {
	Token     string           `db:"token" json:"token"`
	ListID    string           `db:"list_id" json:"list_id"`
	ListName  string           `db:"list_name" json:"list_name"`
	FromName  string           `db:"from_name" json:"from_name"`
	Status    InvitationStatus `db:"status" json:"status"`
	ExpiresAt sql.NullTime     `db:"expires_at" json:"-"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// Expires 返回过期时间，没有过期时间时返回nil
func (i Invitation) Expires() *time.Time {
	if !i.ExpiresAt.Valid {
		return nil
	}
	t := i.ExpiresAt.Time
	return &t
}

// IsExpired 判断邀请在now时刻是否已过期
func (i Invitation) IsExpired(now time.Time) bool {
	return i.ExpiresAt.Valid && now.After(i.ExpiresAt.Time)
}

// SyncReport 一次同步的结果
type SyncReport struct {
	Expired  int       `json:"expired"`
	SyncedAt time.Time `json:"synced_at"`
}
