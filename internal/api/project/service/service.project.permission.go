// Permission engine: hợp nhất ACL của project, node_type và node,
// rồi tính tập HTTP method một user được phép dùng trên tài nguyên.
package projectsvc

import (
	"context"
	"sort"

	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	models "github.com/armadillica/pillar-sub000/internal/api/project/models"
	"github.com/armadillica/pillar-sub000/internal/global"
	"github.com/armadillica/pillar-sub000/internal/utility"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MergePermissions hợp nhất một danh sách ACL.
// Với mỗi principal (user, group, world) tập method kết quả là HỢP của các
// method được cấp qua tất cả ACL. Phép hợp nhất có tính giao hoán và kết hợp.
// Khi cấu hình Testing bật, output được sort để test ổn định.
func MergePermissions(acls ...models.Permissions) models.Permissions {
	testing := global.ServerConfig != nil && global.ServerConfig.Testing

	userMethods := map[primitive.ObjectID][]string{}
	var userOrder []primitive.ObjectID
	groupMethods := map[primitive.ObjectID][]string{}
	var groupOrder []primitive.ObjectID
	var world []string

	for _, acl := range acls {
		for _, up := range acl.Users {
			if _, seen := userMethods[up.User]; !seen {
				userOrder = append(userOrder, up.User)
			}
			userMethods[up.User] = utility.Union(userMethods[up.User], up.Methods)
		}
		for _, gp := range acl.Groups {
			if _, seen := groupMethods[gp.Group]; !seen {
				groupOrder = append(groupOrder, gp.Group)
			}
			groupMethods[gp.Group] = utility.Union(groupMethods[gp.Group], gp.Methods)
		}
		world = utility.Union(world, acl.World)
	}

	if testing {
		sort.Slice(userOrder, func(i, j int) bool { return userOrder[i].Hex() < userOrder[j].Hex() })
		sort.Slice(groupOrder, func(i, j int) bool { return groupOrder[i].Hex() < groupOrder[j].Hex() })
		world = utility.SortedStrings(world)
	}

	var merged models.Permissions
	for _, uid := range userOrder {
		methods := userMethods[uid]
		if testing {
			methods = utility.SortedStrings(methods)
		}
		merged.Users = append(merged.Users, models.UserPermission{User: uid, Methods: methods})
	}
	for _, gid := range groupOrder {
		methods := groupMethods[gid]
		if testing {
			methods = utility.SortedStrings(methods)
		}
		merged.Groups = append(merged.Groups, models.GroupPermission{Group: gid, Methods: methods})
	}
	merged.World = world
	return merged
}

// AllowedMethods tính tập method được phép từ một ACL đã hợp nhất.
// session nil nghĩa là anonymous: chỉ world được tính.
// Admin khớp mọi entry user/group bất kể principal.
func AllowedMethods(acl models.Permissions, session *authsvc.AuthSession) []string {
	var allowed []string

	if session != nil {
		isAdmin := session.IsAdmin()
		groupSet := map[primitive.ObjectID]bool{}
		for _, g := range session.User.Groups {
			groupSet[g] = true
		}

		for _, gp := range acl.Groups {
			if isAdmin || groupSet[gp.Group] {
				allowed = utility.Union(allowed, gp.Methods)
			}
		}
		for _, up := range acl.Users {
			if isAdmin || up.User == session.User.ID {
				allowed = utility.Union(allowed, up.Methods)
			}
		}
	}

	allowed = utility.Union(allowed, acl.World)
	if global.ServerConfig != nil && global.ServerConfig.Testing {
		allowed = utility.SortedStrings(allowed)
	}
	return allowed
}

// PermissionInspector tính quyền trên tài nguyên với cache theo request.
// Tạo một inspector mới cho mỗi request; cache không bao giờ dùng chung
// giữa các request.
type PermissionInspector struct {
	projects *ProjectService

	// cache theo (project_id, node_type_name), sống trong một request
	cache map[permCacheKey]*projectNodeTypeACL
}

type permCacheKey struct {
	projectID    primitive.ObjectID
	nodeTypeName string
}

type projectNodeTypeACL struct {
	projectACL  models.Permissions
	nodeTypeACL *models.Permissions
}

// NewPermissionInspector tạo inspector cho một request.
func NewPermissionInspector(projects *ProjectService) *PermissionInspector {
	return &PermissionInspector{
		projects: projects,
		cache:    map[permCacheKey]*projectNodeTypeACL{},
	}
}

// ProjectMethods tính method được phép trên một project.
// nodeTypeName khác rỗng thì hợp nhất thêm ACL của node_type đó.
func (pi *PermissionInspector) ProjectMethods(project *models.Project, nodeTypeName string, session *authsvc.AuthSession) []string {
	if nodeTypeName == "" {
		return AllowedMethods(project.Permissions, session)
	}

	acls := []models.Permissions{project.Permissions}
	if nt := project.NodeTypeByName(nodeTypeName); nt != nil && nt.Permissions != nil {
		acls = append(acls, *nt.Permissions)
	}
	return AllowedMethods(MergePermissions(acls...), session)
}

// NodeMethods tính method được phép trên một node:
// hợp nhất (ACL project) + (ACL node_type của node) + (ACL riêng của node).
func (pi *PermissionInspector) NodeMethods(ctx context.Context, projectID primitive.ObjectID, nodeTypeName string, nodeACL *models.Permissions, session *authsvc.AuthSession) ([]string, error) {
	cached, err := pi.lookup(ctx, projectID, nodeTypeName)
	if err != nil {
		return nil, err
	}

	acls := []models.Permissions{cached.projectACL}
	if cached.nodeTypeACL != nil {
		acls = append(acls, *cached.nodeTypeACL)
	}
	if nodeACL != nil {
		acls = append(acls, *nodeACL)
	}
	return AllowedMethods(MergePermissions(acls...), session), nil
}

// CollectionMethods tính method cho tài nguyên của collection khác
// (chỉ cần tham chiếu project): chỉ ACL của project được dùng.
func (pi *PermissionInspector) CollectionMethods(ctx context.Context, projectID primitive.ObjectID, session *authsvc.AuthSession) ([]string, error) {
	cached, err := pi.lookup(ctx, projectID, "")
	if err != nil {
		return nil, err
	}
	return AllowedMethods(cached.projectACL, session), nil
}

// lookup tải ACL project + node_type với projection tối thiểu, cache theo request
func (pi *PermissionInspector) lookup(ctx context.Context, projectID primitive.ObjectID, nodeTypeName string) (*projectNodeTypeACL, error) {
	key := permCacheKey{projectID: projectID, nodeTypeName: nodeTypeName}
	if cached, found := pi.cache[key]; found {
		return cached, nil
	}

	projection := bson.M{"permissions": 1}
	if nodeTypeName != "" {
		projection["node_types"] = bson.M{"$elemMatch": bson.M{"name": nodeTypeName}}
	}
	opts := options.FindOne().SetProjection(projection)
	project, err := pi.projects.FindOne(ctx, bson.M{"_id": projectID}, opts)
	if err != nil {
		return nil, err
	}

	entry := &projectNodeTypeACL{projectACL: project.Permissions}
	if nt := project.NodeTypeByName(nodeTypeName); nt != nil {
		entry.nodeTypeACL = nt.Permissions
	}

	pi.cache[key] = entry
	return entry, nil
}

// HasMethod kiểm tra method có trong tập được phép không.
func HasMethod(allowed []string, method string) bool {
	return utility.Contains(allowed, method)
}
