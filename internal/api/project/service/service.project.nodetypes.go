package projectsvc

import (
	models "github.com/armadillica/pillar-sub000/internal/api/project/models"

	"go.mongodb.org/mongo-driver/bson"
)

// defaultNodeTypes trả về các node_type được seed cho project mới.
// Mỗi project giữ snapshot schema riêng nên nội dung cũ vẫn validate được
// kể cả khi schema toàn cục thay đổi về sau.
func defaultNodeTypes(perms models.Permissions) []models.NodeType {
	withPerms := func(nt models.NodeType) models.NodeType {
		p := perms
		nt.Permissions = &p
		return nt
	}

	return []models.NodeType{
		withPerms(models.NodeType{
			Name:        "group",
			Description: "Folder gom các node con",
			DynSchema: bson.M{
				"order":        bson.M{"type": "string", "allowed": []string{"asc", "desc"}, "default": "asc"},
				"url":          bson.M{"type": "string"},
				"status":       bson.M{"type": "string", "allowed": []string{"published", "pending"}},
				"notes":        bson.M{"type": "string", "maxlength": 256},
			},
			FormSchema:  bson.M{},
			ParentTypes: []string{"group", "project"},
		}),
		withPerms(models.NodeType{
			Name:        "asset",
			Description: "Asset cơ bản: ảnh, video hoặc file bất kỳ",
			DynSchema: bson.M{
				"status":       bson.M{"type": "string", "allowed": []string{"published", "pending", "processing"}},
				"content_type": bson.M{"type": "string"},
				"file":         bson.M{"type": "objectid"},
				"attachments":  bson.M{"type": "dict"},
				"order":        bson.M{"type": "integer"},
				"tags":         bson.M{"type": "list", "schema": bson.M{"type": "string"}},
				"categories":   bson.M{"type": "string"},
				"license_type": bson.M{"type": "string", "default": "cc-by"},
				"duration_seconds": bson.M{"type": "integer"},
			},
			FormSchema:  bson.M{"content_type": bson.M{"visible": false}, "duration_seconds": bson.M{"visible": false}},
			ParentTypes: []string{"group"},
		}),
		withPerms(models.NodeType{
			Name:        "comment",
			Description: "Bình luận trên node khác, có rating",
			DynSchema: bson.M{
				"content":       bson.M{"type": "string", "minlength": 5, "required": true},
				"status":        bson.M{"type": "string", "allowed": []string{"published", "deleted", "flagged", "edited"}},
				"rating_positive": bson.M{"type": "integer"},
				"rating_negative": bson.M{"type": "integer"},
				"ratings": bson.M{"type": "list"},
				"confidence":    bson.M{"type": "float"},
				"is_reply":      bson.M{"type": "boolean"},
			},
			FormSchema:  bson.M{},
			ParentTypes: []string{"asset", "comment", "post"},
		}),
		withPerms(models.NodeType{
			Name:        "blog",
			Description: "Danh sách các bài post của project",
			DynSchema: bson.M{
				"categories": bson.M{"type": "list", "schema": bson.M{"type": "string"}},
				"template":   bson.M{"type": "string"},
			},
			FormSchema:  bson.M{},
			ParentTypes: []string{"project"},
		}),
		withPerms(models.NodeType{
			Name:        "post",
			Description: "Bài viết thuộc blog, nội dung markdown",
			DynSchema: bson.M{
				"content":    bson.M{"type": "string", "minlength": 5, "maxlength": 90000, "required": true},
				"status":     bson.M{"type": "string", "allowed": []string{"published", "pending"}, "default": "pending"},
				"url":        bson.M{"type": "string"},
				"attachments": bson.M{"type": "dict"},
			},
			FormSchema:  bson.M{},
			ParentTypes: []string{"blog"},
		}),
		withPerms(models.NodeType{
			Name:        "texture",
			Description: "Texture với nhiều file ảnh theo map_type",
			DynSchema: bson.M{
				"status": bson.M{"type": "string", "allowed": []string{"published", "pending"}},
				"files": bson.M{"type": "list", "schema": bson.M{"type": "dict", "schema": bson.M{
					"file":     bson.M{"type": "objectid", "required": true},
					"map_type": bson.M{"type": "string", "allowed": []string{"color", "specular", "bump", "normal", "depth", "alpha", "id", "fabric"}},
				}}},
				"is_tileable": bson.M{"type": "boolean"},
				"is_landscape": bson.M{"type": "boolean"},
				"resolution":  bson.M{"type": "string"},
				"aspect_ratio": bson.M{"type": "float"},
				"order":       bson.M{"type": "integer"},
				"tags":        bson.M{"type": "list", "schema": bson.M{"type": "string"}},
			},
			FormSchema:  bson.M{},
			ParentTypes: []string{"group"},
		}),
	}
}
