// Package models - model cho domain project, bao gồm cấu trúc permission
// dùng chung cho cả project, node_type và node.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Các category hợp lệ của project
const (
	CategoryAssets   = "assets"
	CategoryCourse   = "course"
	CategoryWorkshop = "workshop"
	CategoryFilm     = "film"
	CategoryHome     = "home"
)

// UserPermission cấp các HTTP method cho một user cụ thể.
type UserPermission struct {
	User    primitive.ObjectID `json:"user" bson:"user"`
	Methods []string           `json:"methods" bson:"methods"`
}

// GroupPermission cấp các HTTP method cho một group.
type GroupPermission struct {
	Group   primitive.ObjectID `json:"group" bson:"group"`
	Methods []string           `json:"methods" bson:"methods"`
}

// Permissions là một ACL: user, group và pseudo-principal world.
type Permissions struct {
	Users  []UserPermission  `json:"users,omitempty" bson:"users,omitempty"`
	Groups []GroupPermission `json:"groups,omitempty" bson:"groups,omitempty"`
	World  []string          `json:"world,omitempty" bson:"world,omitempty"`
}

// IsEmpty kiểm tra ACL không cấp gì cả.
func (p *Permissions) IsEmpty() bool {
	return len(p.Users) == 0 && len(p.Groups) == 0 && len(p.World) == 0
}

// NodeType là schema động cho một loại node trong project.
// DynSchema mô tả cấu trúc properties của node, FormSchema mô tả form nhập liệu.
type NodeType struct {
	Name        string       `json:"name" bson:"name"`
	Description string       `json:"description,omitempty" bson:"description,omitempty"`
	DynSchema   bson.M       `json:"dyn_schema,omitempty" bson:"dyn_schema,omitempty"`
	FormSchema  bson.M       `json:"form_schema,omitempty" bson:"form_schema,omitempty"`
	ParentTypes []string     `json:"parent,omitempty" bson:"parent,omitempty"`
	Permissions *Permissions `json:"permissions,omitempty" bson:"permissions,omitempty"`
}

// Project chứa các node và file, với schema node_types nhúng kèm snapshot.
type Project struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	URL         string             `json:"url" bson:"url" index:"unique"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Category    string             `json:"category" bson:"category"`
	User        primitive.ObjectID `json:"user" bson:"user" index:"single"`
	Status      string             `json:"status,omitempty" bson:"status,omitempty"`

	// IsPrivate suy ra từ permissions: true khi world không có GET
	IsPrivate bool `json:"is_private" bson:"is_private"`

	NodeTypes   []NodeType  `json:"node_types,omitempty" bson:"node_types,omitempty"`
	Permissions Permissions `json:"permissions" bson:"permissions"`

	// Các node đặc biệt của project, cần dọn tham chiếu khi node bị xoá
	HeaderNode    *primitive.ObjectID  `json:"header_node,omitempty" bson:"header_node,omitempty"`
	NodesBlog     []primitive.ObjectID `json:"nodes_blog,omitempty" bson:"nodes_blog,omitempty"`
	NodesFeatured []primitive.ObjectID `json:"nodes_featured,omitempty" bson:"nodes_featured,omitempty"`
	NodesLatest   []primitive.ObjectID `json:"nodes_latest,omitempty" bson:"nodes_latest,omitempty"`

	PictureHeader *primitive.ObjectID `json:"picture_header,omitempty" bson:"picture_header,omitempty"`
	PictureSquare *primitive.ObjectID `json:"picture_square,omitempty" bson:"picture_square,omitempty"`

	Deleted bool `json:"_deleted,omitempty" bson:"_deleted,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"_created"`
	UpdatedAt time.Time `json:"updated_at" bson:"_updated"`
	Etag      string    `json:"etag" bson:"_etag"`
}

// NodeTypeByName tìm node_type nhúng theo tên, nil nếu không có.
func (p *Project) NodeTypeByName(name string) *NodeType {
	for i := range p.NodeTypes {
		if p.NodeTypes[i].Name == name {
			return &p.NodeTypes[i]
		}
	}
	return nil
}

// DeriveIsPrivate tính lại is_private từ world permissions.
func (p *Project) DeriveIsPrivate() {
	for _, m := range p.Permissions.World {
		if m == "GET" {
			p.IsPrivate = false
			return
		}
	}
	p.IsPrivate = true
}
