// Package dto - các cấu trúc input cho domain organization.
package dto

// OrganizationCreateInput là dữ liệu tạo tổ chức mới.
type OrganizationCreateInput struct {
	Name      string   `json:"name" validate:"required,no_xss"`
	SeatCount int      `json:"seat_count" validate:"required,min=1"`
	OrgRoles  []string `json:"org_roles,omitempty" validate:"dive,org_role"`
}

// OrganizationUpdateInput dùng cho CRUD admin (update-by-id).
type OrganizationUpdateInput struct {
	Name        string   `json:"name,omitempty" bson:"name,omitempty" validate:"omitempty,no_xss"`
	Description string   `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,no_xss"`
	Website     string   `json:"website,omitempty" bson:"website,omitempty" validate:"omitempty,no_xss"`
	Location    string   `json:"location,omitempty" bson:"location,omitempty" validate:"omitempty,no_xss"`
	SeatCount   int      `json:"seat_count,omitempty" bson:"seat_count,omitempty" validate:"omitempty,min=1"`
	OrgRoles    []string `json:"org_roles,omitempty" bson:"org_roles,omitempty" validate:"dive,org_role"`
}

// PatchInput là một thao tác PATCH có tên trên tổ chức.
// Op quyết định các field còn lại được dùng thế nào.
type PatchInput struct {
	Op string `json:"op" validate:"required,oneof=assign-users assign-user remove-user assign-admin edit-from-web"`

	// assign-users
	Emails []string `json:"emails,omitempty" validate:"dive,email"`

	// assign-user / remove-user / assign-admin
	UserID string `json:"user_id,omitempty" validate:"omitempty,objectid"`
	// remove-user: có thể gỡ theo email thay vì user_id
	Email string `json:"email,omitempty" validate:"omitempty,email"`

	// edit-from-web
	Name        string   `json:"name,omitempty" validate:"omitempty,no_xss"`
	Description string   `json:"description,omitempty" validate:"omitempty,no_xss"`
	Website     string   `json:"website,omitempty" validate:"omitempty,no_xss"`
	Location    string   `json:"location,omitempty" validate:"omitempty,no_xss"`
	IPRanges    []string `json:"ip_ranges,omitempty"`
	// Chỉ platform admin được sửa hai field sau
	SeatCount *int     `json:"seat_count,omitempty" validate:"omitempty,min=1"`
	OrgRoles  []string `json:"org_roles,omitempty" validate:"dive,org_role"`
}
