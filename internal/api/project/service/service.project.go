// Package projectsvc - service cho domain project.
package projectsvc

import (
	"context"
	"fmt"
	"time"

	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	basesvc "github.com/armadillica/pillar-sub000/internal/api/base/service"
	models "github.com/armadillica/pillar-sub000/internal/api/project/models"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"
	"github.com/armadillica/pillar-sub000/internal/storage"
	"github.com/armadillica/pillar-sub000/internal/utility"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// defaultAdminGroupMethods là quyền cấp cho admin group của project mới
var defaultAdminGroupMethods = []string{"GET", "PUT", "POST", "DELETE"}

// ProjectService quản lý project: tạo kèm admin group + node_types mặc định,
// soft-delete và dọn tham chiếu node.
type ProjectService struct {
	*basesvc.BaseServiceMongoImpl[models.Project]
	users *authsvc.UserService
}

// NewProjectService tạo ProjectService.
func NewProjectService(users *authsvc.UserService) (*ProjectService, error) {
	col, exists := global.RegistryCollections.Get(global.MongoDB_ColNames.Projects)
	if !exists {
		return nil, common.NewError(
			common.ErrCodeDatabaseConnection,
			"Không tìm thấy collection projects",
			common.StatusInternalServerError,
			nil,
		)
	}
	return &ProjectService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[models.Project](col),
		users:                users,
	}, nil
}

// CreateProject tạo project mới cho một user.
// Sau khi insert: tạo admin group mang tên project id, đưa owner vào group,
// gán quyền admin group lên project và mọi node_type mặc định, sinh url,
// và khởi tạo bucket trên storage backend mặc định.
func (s *ProjectService) CreateProject(ctx context.Context, name, category string, owner *authsvc.AuthSession) (models.Project, error) {
	project := models.Project{
		Name:     name,
		Category: category,
		User:     owner.User.ID,
		Status:   "pending",
	}

	created, err := s.InsertOne(ctx, project)
	if err != nil {
		return models.Project{}, err
	}

	// Admin group mang tên project id
	group, err := s.users.EnsureGroup(ctx, created.ID.Hex())
	if err != nil {
		return models.Project{}, err
	}
	if err := s.users.AddToGroup(ctx, owner.User.ID, group.ID); err != nil {
		return models.Project{}, err
	}

	// Admin của platform tạo project công khai mặc định, user thường tạo project private
	var world []string
	if owner.IsAdmin() {
		world = []string{"GET"}
	}
	perms := models.Permissions{
		World: world,
		Groups: []models.GroupPermission{
			{Group: group.ID, Methods: append([]string{}, defaultAdminGroupMethods...)},
		},
	}

	url := fmt.Sprintf("p-%s", created.ID.Hex())
	if category == models.CategoryHome {
		url = "home"
	}

	created.Permissions = perms
	created.NodeTypes = defaultNodeTypes(perms)
	created.URL = url
	created.DeriveIsPrivate()

	updated, err := s.UpdateById(ctx, created.ID, &basesvc.UpdateData{
		Set: bson.M{
			"permissions": created.Permissions,
			"node_types":  created.NodeTypes,
			"url":         created.URL,
			"is_private":  created.IsPrivate,
		},
	})
	if err != nil {
		return models.Project{}, err
	}

	// Mỗi project có bucket riêng đặt theo id trên backend mặc định
	if backend, err := storage.GetBackend(global.ServerConfig.StorageBackend); err == nil {
		backend.GetBucket(created.ID.Hex())
	} else {
		logrus.WithFields(logrus.Fields{
			"project_id": created.ID.Hex(),
			"backend":    global.ServerConfig.StorageBackend,
			"error":      err,
		}).Warn("⚠️ [PROJECT] Không khởi tạo được bucket cho project mới")
	}

	logrus.WithFields(logrus.Fields{
		"project_id": updated.ID.Hex(),
		"owner":      owner.User.ID.Hex(),
		"url":        updated.URL,
	}).Info("✅ [PROJECT] Đã tạo project mới kèm admin group")
	return updated, nil
}

// UpdateProject cập nhật project, tính lại is_private khi permissions thay đổi.
func (s *ProjectService) UpdateProject(ctx context.Context, projectID primitive.ObjectID, data *basesvc.UpdateData) (models.Project, error) {
	if data.Set != nil {
		if rawPerms, ok := data.Set["permissions"]; ok {
			isPrivate := true
			if perms, ok := rawPerms.(models.Permissions); ok {
				for _, m := range perms.World {
					if m == "GET" {
						isPrivate = false
					}
				}
			}
			data.Set["is_private"] = isPrivate
		}
	}
	return s.UpdateById(ctx, projectID, data)
}

// SoftDelete đánh dấu project đã xoá thay vì xoá hẳn document.
func (s *ProjectService) SoftDelete(ctx context.Context, projectID primitive.ObjectID) error {
	_, err := s.UpdateById(ctx, projectID, &basesvc.UpdateData{
		Set: bson.M{"_deleted": true},
	})
	if err != nil {
		return err
	}
	logrus.WithField("project_id", projectID.Hex()).Info("🧹 [PROJECT] Đã soft-delete project")
	return nil
}

// FindActiveById tìm project chưa bị soft-delete.
func (s *ProjectService) FindActiveById(ctx context.Context, projectID primitive.ObjectID) (models.Project, error) {
	return s.FindOne(ctx, bson.M{
		"_id":      projectID,
		"_deleted": bson.M{"$ne": true},
	}, nil)
}

// RemoveNodeReferences gỡ mọi tham chiếu tới một node khỏi project
// (header_node, nodes_blog, nodes_featured, nodes_latest). Gọi khi node bị xoá.
// Update chạm đúng các field tham chiếu; _etag và _updated được stamp lại.
func (s *ProjectService) RemoveNodeReferences(ctx context.Context, projectID, nodeID primitive.ObjectID) error {
	_, err := s.Collection().UpdateOne(ctx,
		bson.M{"_id": projectID, "header_node": nodeID},
		bson.M{"$unset": bson.M{"header_node": ""}},
	)
	if err != nil {
		return common.ConvertMongoError(err)
	}

	_, err = s.Collection().UpdateByID(ctx, projectID, bson.M{
		"$pull": bson.M{
			"nodes_blog":     nodeID,
			"nodes_featured": nodeID,
			"nodes_latest":   nodeID,
		},
		"$set": bson.M{
			"_updated": time.Now().UTC().Truncate(time.Millisecond),
			"_etag":    utility.RandomEtag(),
		},
	})
	return common.ConvertMongoError(err)
}
