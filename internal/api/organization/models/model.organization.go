// Package models - model cho domain organization.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IPRange là một dải IP của tổ chức.
// Start/End là 16 byte big-endian (IPv4 lưu dạng IPv4-mapped IPv6)
// để MongoDB so sánh thứ tự trực tiếp trên bytes.
type IPRange struct {
	Start  []byte `json:"start" bson:"start"`
	End    []byte `json:"end" bson:"end"`
	Human  string `json:"human" bson:"human"`
	Prefix int    `json:"prefix" bson:"prefix"`
}

// Organization là tổ chức với quản lý seat và role theo IP.
type Organization struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AdminUID    primitive.ObjectID `json:"admin_uid" bson:"admin_uid" index:"single"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Website     string             `json:"website,omitempty" bson:"website,omitempty"`
	Location    string             `json:"location,omitempty" bson:"location,omitempty"`

	// SeatCount giới hạn |Members| + |UnknownMembers|
	SeatCount int `json:"seat_count" bson:"seat_count"`

	// Members là các user đã tồn tại trong hệ thống
	Members []primitive.ObjectID `json:"members,omitempty" bson:"members,omitempty" index:"single"`
	// UnknownMembers là email của thành viên chưa có tài khoản
	UnknownMembers []string `json:"unknown_members,omitempty" bson:"unknown_members,omitempty"`

	// OrgRoles cấp cho thành viên, bắt buộc prefix "org-"
	OrgRoles []string `json:"org_roles,omitempty" bson:"org_roles,omitempty"`

	// IPRanges cấp OrgRoles tạm thời cho request đến từ dải IP này
	IPRanges []IPRange `json:"ip_ranges,omitempty" bson:"ip_ranges,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"_created"`
	UpdatedAt time.Time `json:"updated_at" bson:"_updated"`
	Etag      string    `json:"etag" bson:"_etag"`
}

// SeatsUsed đếm số seat đang dùng.
func (o *Organization) SeatsUsed() int {
	return len(o.Members) + len(o.UnknownMembers)
}

// HasMember kiểm tra user đã là thành viên chưa.
func (o *Organization) HasMember(userID primitive.ObjectID) bool {
	for _, m := range o.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// IsAdmin kiểm tra user có phải admin của tổ chức không.
func (o *Organization) IsAdmin(userID primitive.ObjectID) bool {
	return o.AdminUID == userID
}
