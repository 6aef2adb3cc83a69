// Package dto - các cấu trúc input cho domain project.
package dto

// ProjectCreateInput là dữ liệu tạo project mới.
type ProjectCreateInput struct {
	Name     string `json:"name" validate:"required,min=1,max=128,no_xss"`
	Category string `json:"category" validate:"required,oneof=assets course workshop film home"`
}

// ProjectUpdateInput dùng cho PUT cập nhật project.
// Mutation đi qua PUT, project không hỗ trợ PATCH.
type ProjectUpdateInput struct {
	Name        string `json:"name,omitempty" bson:"name,omitempty" validate:"omitempty,no_xss"`
	Description string `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,no_xss"`
	Status      string `json:"status,omitempty" bson:"status,omitempty" validate:"omitempty,oneof=published pending deleted"`
	Category    string `json:"category,omitempty" bson:"category,omitempty" validate:"omitempty,oneof=assets course workshop film home"`
}
