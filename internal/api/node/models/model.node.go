// Package models - model cho domain node (content của project).
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	projectmodels "github.com/armadillica/pillar-sub000/internal/api/project/models"
)

// Các node_type được hệ thống xử lý đặc biệt
const (
	NodeTypeAsset   = "asset"
	NodeTypeComment = "comment"
	NodeTypeTexture = "texture"
	NodeTypeGroup   = "group"
	NodeTypeBlog    = "blog"
	NodeTypePost    = "post"
)

// Rating là một lượt vote của một user trên comment
type Rating struct {
	User       primitive.ObjectID `json:"user" bson:"user"`               // User đã vote
	IsPositive bool               `json:"is_positive" bson:"is_positive"` // true = upvote, false = downvote
}

// Attachment trỏ một slug trong markdown tới một file document
type Attachment struct {
	Oid        primitive.ObjectID `json:"oid" bson:"oid"`                                         // ID của file document
	Collection string             `json:"collection,omitempty" bson:"collection,omitempty"`       // Mặc định "files"
	Link       string             `json:"link,omitempty" bson:"link,omitempty"`                   // self / none / custom
	LinkCustom string             `json:"link_custom,omitempty" bson:"link_custom,omitempty"`     // URL khi link=custom
}

// Node là đơn vị content trong một project: asset, comment, post, texture, group...
// Properties chứa dữ liệu động theo dyn_schema của node_type tương ứng.
type Node struct {
	ID          primitive.ObjectID        `json:"id,omitempty" bson:"_id,omitempty"`
	Project     primitive.ObjectID        `json:"project" bson:"project" index:"single"`                        // Project chứa node
	NodeType    string                    `json:"node_type" bson:"node_type" index:"single"`                    // Tên node_type trong project.node_types
	Parent      *primitive.ObjectID       `json:"parent,omitempty" bson:"parent,omitempty" index:"single"`      // Node cha (group, comment thread...)
	User        primitive.ObjectID        `json:"user" bson:"user" index:"single"`                              // Người tạo
	Name            string                `json:"name" bson:"name"`                                                   // Tên hiển thị
	Description     string                `json:"description,omitempty" bson:"description,omitempty"`                 // Markdown
	DescriptionHTML string                `json:"description_html,omitempty" bson:"description_html,omitempty"`       // HTML đã render + sanitize từ Description
	Picture     *primitive.ObjectID       `json:"picture,omitempty" bson:"picture,omitempty"`                   // File ID của ảnh đại diện
	Properties  bson.M                    `json:"properties" bson:"properties"`                                 // Dữ liệu theo dyn_schema
	Permissions *projectmodels.Permissions `json:"permissions,omitempty" bson:"permissions,omitempty"`          // ACL riêng của node (merge lên trên project + node_type)
	ShortCode   string                    `json:"short_code,omitempty" bson:"short_code,omitempty" index:"unique,sparse"` // Mã chia sẻ ngắn
	Deleted     bool                      `json:"_deleted,omitempty" bson:"_deleted,omitempty"`                 // Soft-delete
	CreatedAt   time.Time                 `json:"created_at" bson:"_created"`
	UpdatedAt   time.Time                 `json:"updated_at" bson:"_updated"`
	Etag        string                    `json:"etag,omitempty" bson:"_etag,omitempty"`
}

// PropString đọc một property kiểu string, trả về "" nếu không có
func (n *Node) PropString(key string) string {
	if n.Properties == nil {
		return ""
	}
	s, _ := n.Properties[key].(string)
	return s
}

// PropObjectID đọc một property kiểu ObjectID, trả về NilObjectID nếu không có
func (n *Node) PropObjectID(key string) primitive.ObjectID {
	if n.Properties == nil {
		return primitive.NilObjectID
	}
	id, _ := n.Properties[key].(primitive.ObjectID)
	return id
}

// Attachments đọc mapping slug → attachment từ properties.
// Hỗ trợ cả shape cũ dạng list-of-groups lẫn shape mapping hiện tại.
func (n *Node) Attachments() map[string]Attachment {
	if n.Properties == nil {
		return nil
	}
	raw, ok := n.Properties["attachments"]
	if !ok {
		return nil
	}
	result := map[string]Attachment{}
	switch typed := raw.(type) {
	case bson.M:
		for slug, entry := range typed {
			if att, ok := decodeAttachment(entry); ok {
				result[slug] = att
			}
		}
	case map[string]interface{}:
		for slug, entry := range typed {
			if att, ok := decodeAttachment(entry); ok {
				result[slug] = att
			}
		}
	case bson.A:
		// Shape cũ: [{files: [{slug, file, ...}]}]
		for _, group := range typed {
			groupDoc, ok := group.(bson.M)
			if !ok {
				continue
			}
			files, _ := groupDoc["files"].(bson.A)
			for _, entry := range files {
				fileDoc, ok := entry.(bson.M)
				if !ok {
					continue
				}
				slug, _ := fileDoc["slug"].(string)
				oid, _ := fileDoc["file"].(primitive.ObjectID)
				if slug == "" || oid.IsZero() {
					continue
				}
				result[slug] = Attachment{Oid: oid}
			}
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func decodeAttachment(entry interface{}) (Attachment, bool) {
	doc, ok := entry.(bson.M)
	if !ok {
		if plain, okPlain := entry.(map[string]interface{}); okPlain {
			doc = bson.M(plain)
		} else {
			return Attachment{}, false
		}
	}
	oid, _ := doc["oid"].(primitive.ObjectID)
	if oid.IsZero() {
		return Attachment{}, false
	}
	att := Attachment{Oid: oid}
	att.Collection, _ = doc["collection"].(string)
	att.Link, _ = doc["link"].(string)
	att.LinkCustom, _ = doc["link_custom"].(string)
	return att, true
}

// Ratings đọc danh sách vote từ properties của comment
func (n *Node) Ratings() []Rating {
	if n.Properties == nil {
		return nil
	}
	raw, ok := n.Properties["ratings"].(bson.A)
	if !ok {
		return nil
	}
	ratings := make([]Rating, 0, len(raw))
	for _, entry := range raw {
		doc, ok := entry.(bson.M)
		if !ok {
			continue
		}
		user, _ := doc["user"].(primitive.ObjectID)
		isPositive, _ := doc["is_positive"].(bool)
		if user.IsZero() {
			continue
		}
		ratings = append(ratings, Rating{User: user, IsPositive: isPositive})
	}
	return ratings
}
