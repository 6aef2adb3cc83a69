// Package models - model người dùng (User) thuộc domain auth.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthProvider là một liên kết xác thực của người dùng với một nhà cung cấp định danh.
// Provider "local" lưu bcrypt hash của mật khẩu trong Token;
// provider bên ngoài (IdP) lưu ID người dùng phía IdP trong UserID.
type AuthProvider struct {
	Provider string `json:"provider" bson:"provider"`
	UserID   string `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Token    string `json:"-" bson:"token,omitempty"`
}

// User định nghĩa mô hình người dùng.
// Roles là danh sách role cố định của user; role tạm thời theo IP (org_roles)
// nằm trên token, không nằm ở đây.
// Service khác nil đánh dấu đây là service account (badge service, ...).
type User struct {
	ID       primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Username string             `json:"username" bson:"username" index:"unique"`
	Email    string             `json:"email,omitempty" bson:"email,omitempty" index:"unique,sparse"`
	FullName string             `json:"full_name,omitempty" bson:"full_name,omitempty"`

	// Auth chứa các liên kết xác thực; một user có thể có nhiều provider
	Auth []AuthProvider `json:"-" bson:"auth"`

	// Roles là các role cố định (subscriber, demo, admin, service, ...)
	Roles []string `json:"roles,omitempty" bson:"roles,omitempty"`
	// Groups là các group mà user thuộc về (dùng trong permission của project/node)
	Groups []primitive.ObjectID `json:"groups,omitempty" bson:"groups,omitempty"`

	// Service đánh dấu service account; key là tên dịch vụ,
	// value là cấu hình riêng (ví dụ badger: danh sách role được phép quản lý)
	Service map[string][]string `json:"service,omitempty" bson:"service,omitempty"`

	Settings  UserSettings       `json:"settings,omitempty" bson:"settings,omitempty"`
	AvatarID  primitive.ObjectID `json:"avatar,omitempty" bson:"avatar,omitempty"`

	CreatedAt time.Time `json:"_created,omitempty" bson:"_created,omitempty"`
	UpdatedAt time.Time `json:"_updated,omitempty" bson:"_updated,omitempty"`
	Etag      string    `json:"_etag,omitempty" bson:"_etag,omitempty"`
}

// UserSettings là các tuỳ chọn cá nhân của user
type UserSettings struct {
	EmailCommunications int `json:"email_communications" bson:"email_communications"`
}

// HasRole kiểm tra user có một trong các role được nêu không
func (u *User) HasRole(roles ...string) bool {
	for _, have := range u.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// AuthFor trả về liên kết xác thực theo provider (nil nếu không có)
func (u *User) AuthFor(provider string) *AuthProvider {
	for i := range u.Auth {
		if u.Auth[i].Provider == provider {
			return &u.Auth[i]
		}
	}
	return nil
}

// IsServiceAccount kiểm tra user có phải service account không
func (u *User) IsServiceAccount() bool {
	return u.HasRole(RoleService)
}

// Các role hệ thống
const (
	RoleAdmin      = "admin"
	RoleSubscriber = "subscriber"
	RoleDemo       = "demo"
	RoleService    = "service"
	RoleBadger     = "badger"
	// RoleHasSubscription: có subscription trên IdP nhưng có thể chưa kích hoạt
	RoleHasSubscription = "has_subscription"
)
