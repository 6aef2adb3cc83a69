// Package nodesvc - service cho domain node.
package nodesvc

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "github.com/armadillica/pillar-sub000/internal/api/base/service"
	filesvc "github.com/armadillica/pillar-sub000/internal/api/file/service"
	models "github.com/armadillica/pillar-sub000/internal/api/node/models"
	projectsvc "github.com/armadillica/pillar-sub000/internal/api/project/service"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"
)

// NodeService quản lý node content: asset, comment, texture, post...
// Các hook trước khi ghi (content_type, default picture, texture sort,
// markdown render) chạy trong CreateNode/UpdateNode.
type NodeService struct {
	*basesvc.BaseServiceMongoImpl[models.Node]
	files    *filesvc.FileService
	projects *projectsvc.ProjectService
}

// NewNodeService tạo NodeService.
func NewNodeService(files *filesvc.FileService, projects *projectsvc.ProjectService) (*NodeService, error) {
	col, exists := global.RegistryCollections.Get(global.MongoDB_ColNames.Nodes)
	if !exists {
		return nil, common.NewError(
			common.ErrCodeDatabaseConnection,
			"Không tìm thấy collection nodes",
			common.StatusInternalServerError,
			nil,
		)
	}
	return &NodeService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[models.Node](col),
		files:                files,
		projects:             projects,
	}, nil
}

// FindActiveById tìm node theo id, bỏ qua node đã soft-delete.
func (s *NodeService) FindActiveById(ctx context.Context, id primitive.ObjectID) (models.Node, error) {
	return s.FindOne(ctx, bson.M{"_id": id, "_deleted": bson.M{"$ne": true}}, nil)
}

// CreateNode tạo node mới sau khi chạy các hook chuẩn bị.
func (s *NodeService) CreateNode(ctx context.Context, node models.Node) (models.Node, error) {
	if node.Properties == nil {
		node.Properties = bson.M{}
	}
	if err := s.deductContentTypeAndDuration(ctx, &node, false); err != nil {
		return models.Node{}, err
	}
	s.setDefaultPicture(&node)
	textureSortFiles(&node)
	if err := s.renderMarkdownFields(ctx, &node); err != nil {
		return models.Node{}, err
	}

	created, err := s.InsertOne(ctx, node)
	if err != nil {
		return models.Node{}, err
	}
	logrus.Infof("✅ [NODE] Đã tạo node %s loại %s trong project %s",
		created.ID.Hex(), created.NodeType, created.Project.Hex())
	return created, nil
}

// UpdateNode ghi lại node đã được handler merge input vào.
// Chạy lại các hook chuẩn bị rồi Set các field nội dung.
func (s *NodeService) UpdateNode(ctx context.Context, node *models.Node) (models.Node, error) {
	if node.Properties == nil {
		node.Properties = bson.M{}
	}
	if err := s.deductContentTypeAndDuration(ctx, node, true); err != nil {
		return models.Node{}, err
	}
	textureSortFiles(node)
	if err := s.renderMarkdownFields(ctx, node); err != nil {
		return models.Node{}, err
	}

	set := bson.M{
		"name":             node.Name,
		"description":      node.Description,
		"description_html": node.DescriptionHTML,
		"properties":       node.Properties,
	}
	if node.Picture != nil {
		set["picture"] = *node.Picture
	}
	if node.Parent != nil {
		set["parent"] = *node.Parent
	}
	if node.Permissions != nil {
		set["permissions"] = *node.Permissions
	}
	return s.UpdateById(ctx, node.ID, &basesvc.UpdateData{Set: set})
}

// SoftDelete đánh dấu node đã xóa và dọn các tham chiếu từ project cha.
func (s *NodeService) SoftDelete(ctx context.Context, nodeID primitive.ObjectID) error {
	node, err := s.FindActiveById(ctx, nodeID)
	if err != nil {
		return err
	}
	if _, err := s.UpdateById(ctx, nodeID, &basesvc.UpdateData{
		Set: bson.M{"_deleted": true},
	}); err != nil {
		return err
	}
	if err := s.projects.RemoveNodeReferences(ctx, node.Project, nodeID); err != nil {
		logrus.Warnf("⚠️ [NODE] Không dọn được tham chiếu node %s khỏi project %s: %v",
			nodeID.Hex(), node.Project.Hex(), err)
	}
	logrus.Infof("🧹 [NODE] Đã soft-delete node %s", nodeID.Hex())
	return nil
}

// FindTagged trả về các node public mang tag cho trước, mới nhất trước.
// Chỉ lấy node thuộc project công khai.
func (s *NodeService) FindTagged(ctx context.Context, tag string) ([]bson.M, error) {
	cursor, err := s.Collection().Aggregate(ctx, []bson.M{
		{"$match": bson.M{
			"properties.tags": tag,
			"_deleted":        bson.M{"$ne": true},
		}},
		{"$lookup": bson.M{
			"from":         global.MongoDB_ColNames.Projects,
			"localField":   "project",
			"foreignField": "_id",
			"as":           "_project",
		}},
		{"$unwind": "$_project"},
		{"$match": bson.M{"_project.is_private": false}},
		{"$addFields": bson.M{
			"project_name": "$_project.name",
			"project_url":  "$_project.url",
		}},
		{"$project": bson.M{"_project": false}},
		{"$sort": bson.M{"_created": -1}},
	})
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	var results []bson.M
	if err := cursor.All(ctx, &results); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return results, nil
}

// deductContentTypeAndDuration suy ra properties.content_type từ MIME type
// của file đính kèm, và duration_seconds cho video.
// Asset không có file: được phép khi tạo, bị từ chối khi sửa.
func (s *NodeService) deductContentTypeAndDuration(ctx context.Context, node *models.Node, isUpdate bool) error {
	if node.NodeType != models.NodeTypeAsset {
		return nil
	}

	fileID := node.PropObjectID("file")
	if fileID.IsZero() {
		if !isUpdate {
			return nil
		}
		logrus.Warnf("⚠️ [NODE] Asset %s không có properties.file, từ chối", node.ID.Hex())
		return common.NewError(
			common.ErrCodeValidationInput,
			"Asset node thiếu properties.file",
			common.StatusUnprocessable,
			nil,
		)
	}

	file, err := s.files.FindOneById(ctx, fileID)
	if err != nil {
		if common.IsNotFound(err) {
			return common.NewError(
				common.ErrCodeValidationInput,
				"properties.file trỏ tới file không tồn tại",
				common.StatusUnprocessable,
				nil,
			)
		}
		return err
	}

	var contentType string
	switch file.ContentTypeMajor() {
	case "video":
		contentType = "video"
	case "image":
		contentType = "image"
	default:
		contentType = "file"
	}
	node.Properties["content_type"] = contentType

	if contentType == "video" {
		if len(file.Variations) > 0 && file.Variations[0].Duration > 0 {
			node.Properties["duration_seconds"] = int(file.Variations[0].Duration)
		} else {
			logrus.Warnf("⚠️ [NODE] Video file %s không có duration", fileID.Hex())
		}
	}
	return nil
}

// setDefaultPicture gán picture mặc định khi tạo node chưa có picture:
// asset ảnh lấy chính file đó, texture lấy color map.
func (s *NodeService) setDefaultPicture(node *models.Node) {
	if node.Picture != nil {
		return
	}
	switch node.NodeType {
	case models.NodeTypeAsset:
		if node.PropString("content_type") != "image" {
			return
		}
		if fileID := node.PropObjectID("file"); !fileID.IsZero() {
			node.Picture = &fileID
		}
	case models.NodeTypeTexture:
		files, ok := node.Properties["files"].(bson.A)
		if !ok || len(files) == 0 {
			return
		}
		pick := func(entry interface{}) (primitive.ObjectID, bool) {
			doc, ok := entry.(bson.M)
			if !ok {
				return primitive.NilObjectID, false
			}
			id, _ := doc["file"].(primitive.ObjectID)
			return id, !id.IsZero()
		}
		for _, entry := range files {
			doc, ok := entry.(bson.M)
			if ok && doc["map_type"] == "color" {
				if id, found := pick(entry); found {
					node.Picture = &id
					return
				}
			}
		}
		if id, found := pick(files[0]); found {
			node.Picture = &id
		}
	}
}

// textureSortFiles sắp xếp properties.files của texture theo map_type,
// đẩy color map lên đầu.
func textureSortFiles(node *models.Node) {
	if node.NodeType != models.NodeTypeTexture {
		return
	}
	files, ok := node.Properties["files"].(bson.A)
	if !ok || len(files) < 2 {
		return
	}
	sortKey := func(entry interface{}) string {
		doc, ok := entry.(bson.M)
		if !ok {
			return ""
		}
		mapType, _ := doc["map_type"].(string)
		if mapType == "color" {
			// Color map luôn đứng đầu
			return "\x00"
		}
		return mapType
	}
	sort.SliceStable(files, func(i, j int) bool {
		return strings.Compare(sortKey(files[i]), sortKey(files[j])) < 0
	})
	node.Properties["files"] = files
}
