// Package models - Token xác thực thuộc domain auth.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Token là một token xác thực đã cấp cho người dùng.
// Token mới chỉ lưu TokenHashed (HMAC-SHA256 của token gốc);
// document cũ còn giữ token dạng thô trong Token và được nâng cấp
// sang TokenHashed ngay lần xác thực đầu tiên gặp lại.
type Token struct {
	ID     primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	UserID primitive.ObjectID `json:"user" bson:"user" index:"single"`

	// Token dạng thô, chỉ còn trên các document cũ chưa nâng cấp
	Token string `json:"-" bson:"token,omitempty"`
	// TokenHashed là HMAC-SHA256 của token, encode base64 (altchars xy)
	TokenHashed string `json:"-" bson:"token_hashed,omitempty" index:"unique,sparse"`

	ExpireTime time.Time `json:"expire_time" bson:"expire_time" index:"single"`

	// IsSubclientToken đánh dấu token cấp cho subclient của IdP
	IsSubclientToken bool `json:"is_subclient_token,omitempty" bson:"is_subclient_token,omitempty"`

	// OAuthScopes là các scope mà IdP gắn với token này
	OAuthScopes []string `json:"oauth_scopes,omitempty" bson:"oauth_scopes,omitempty"`

	// OrgRoles là các role tạm thời suy ra từ IP của người dùng lúc đăng nhập
	// (tổ chức có dải IP được cấu hình). Chỉ sống cùng token.
	OrgRoles []string `json:"org_roles,omitempty" bson:"org_roles,omitempty"`

	CreatedAt time.Time `json:"_created,omitempty" bson:"_created,omitempty"`
	UpdatedAt time.Time `json:"_updated,omitempty" bson:"_updated,omitempty"`
	Etag      string    `json:"_etag,omitempty" bson:"_etag,omitempty"`
}

// IsExpired kiểm tra token đã hết hạn chưa
func (t *Token) IsExpired() bool {
	return !t.ExpireTime.After(time.Now().UTC())
}
