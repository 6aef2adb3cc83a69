// Package models - Group thuộc domain auth.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group là một nhóm người dùng. Permission của project/node tham chiếu group
// theo ObjectID; các role hệ thống (admin, demo, subscriber) có group trùng tên
// để gán quyền theo role.
type Group struct {
	ID   primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Name string             `json:"name" bson:"name" index:"unique"`

	CreatedAt time.Time `json:"_created,omitempty" bson:"_created,omitempty"`
	UpdatedAt time.Time `json:"_updated,omitempty" bson:"_updated,omitempty"`
	Etag      string    `json:"_etag,omitempty" bson:"_etag,omitempty"`
}
