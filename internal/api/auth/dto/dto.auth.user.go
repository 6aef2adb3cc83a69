// Package dto - các cấu trúc input cho domain auth.
package dto

// UserUpdateInput là dữ liệu người dùng tự cập nhật hồ sơ của mình.
// Username và Email phải hợp lệ; roles/groups không sửa được qua đường này.
type UserUpdateInput struct {
	Username string `json:"username,omitempty" bson:"username,omitempty" validate:"omitempty,min=3,max=128,no_xss"`
	Email    string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	FullName string `json:"full_name,omitempty" bson:"full_name,omitempty" validate:"omitempty,max=256,no_xss"`
}

// UserCreateInput là dữ liệu tạo user qua API quản trị.
type UserCreateInput struct {
	Username string   `json:"username" bson:"username" validate:"required,min=3,max=128,no_xss"`
	Email    string   `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	FullName string   `json:"full_name,omitempty" bson:"full_name,omitempty" validate:"omitempty,max=256"`
	Roles    []string `json:"roles,omitempty" bson:"roles,omitempty"`
}

// MakeTokenInput là dữ liệu đăng nhập local để cấp token.
type MakeTokenInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// StoreSubclientTokenInput là dữ liệu lưu subclient token do IdP cấp.
type StoreSubclientTokenInput struct {
	UserID      string `json:"user_id" validate:"required"`
	SubclientID string `json:"subclient_id" validate:"required"`
	Token       string `json:"token" validate:"required"`
}

// CreateLocalUserInput là dữ liệu tạo tài khoản local (chỉ admin).
type CreateLocalUserInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// BadgerInput là yêu cầu cấp/thu hồi role qua service account badger.
type BadgerInput struct {
	Action    string `json:"action" validate:"required,oneof=grant revoke"`
	Role      string `json:"role" validate:"required"`
	UserEmail string `json:"user_email" validate:"required,email"`
}

// CreateServiceAccountInput là dữ liệu tạo service account (chỉ admin).
type CreateServiceAccountInput struct {
	Email       string   `json:"email" validate:"required,email"`
	ServiceName string   `json:"service_name" validate:"required,oneof=badger"`
	ManageRoles []string `json:"manage_roles,omitempty"`
}
