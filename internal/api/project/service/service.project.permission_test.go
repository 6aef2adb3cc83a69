package projectsvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/armadillica/pillar-sub000/config"
	authmodels "github.com/armadillica/pillar-sub000/internal/api/auth/models"
	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	models "github.com/armadillica/pillar-sub000/internal/api/project/models"
	"github.com/armadillica/pillar-sub000/internal/global"
)

func withTestConfig(t *testing.T) {
	t.Helper()
	old := global.ServerConfig
	global.ServerConfig = &config.Configuration{Testing: true}
	t.Cleanup(func() { global.ServerConfig = old })
}

func sessionWith(userID primitive.ObjectID, groups []primitive.ObjectID, roles ...string) *authsvc.AuthSession {
	return &authsvc.AuthSession{
		User:           authmodels.User{ID: userID, Groups: groups},
		EffectiveRoles: roles,
	}
}

func TestMergePermissions_HopMethodTheoPrincipal(t *testing.T) {
	withTestConfig(t)

	user := primitive.NewObjectID()
	group := primitive.NewObjectID()

	a := models.Permissions{
		Users:  []models.UserPermission{{User: user, Methods: []string{"GET"}}},
		Groups: []models.GroupPermission{{Group: group, Methods: []string{"GET", "POST"}}},
		World:  []string{"GET"},
	}
	b := models.Permissions{
		Users:  []models.UserPermission{{User: user, Methods: []string{"PUT"}}},
		Groups: []models.GroupPermission{{Group: group, Methods: []string{"DELETE"}}},
	}

	merged := MergePermissions(a, b)

	assert.Len(t, merged.Users, 1)
	assert.Equal(t, user, merged.Users[0].User)
	assert.Equal(t, []string{"GET", "PUT"}, merged.Users[0].Methods)

	assert.Len(t, merged.Groups, 1)
	assert.Equal(t, []string{"DELETE", "GET", "POST"}, merged.Groups[0].Methods)

	assert.Equal(t, []string{"GET"}, merged.World)
}

func TestMergePermissions_GiaoHoan(t *testing.T) {
	withTestConfig(t)

	u1 := primitive.NewObjectID()
	u2 := primitive.NewObjectID()

	a := models.Permissions{
		Users: []models.UserPermission{{User: u1, Methods: []string{"GET"}}},
		World: []string{"GET"},
	}
	b := models.Permissions{
		Users: []models.UserPermission{
			{User: u1, Methods: []string{"POST"}},
			{User: u2, Methods: []string{"GET"}},
		},
	}

	ab := MergePermissions(a, b)
	ba := MergePermissions(b, a)
	assert.Equal(t, ab, ba)
}

func TestMergePermissions_NhieuACLKetHop(t *testing.T) {
	withTestConfig(t)

	user := primitive.NewObjectID()
	project := models.Permissions{Users: []models.UserPermission{{User: user, Methods: []string{"GET"}}}}
	nodeType := models.Permissions{Users: []models.UserPermission{{User: user, Methods: []string{"POST"}}}}
	node := models.Permissions{World: []string{"GET"}}

	// ((project ⊕ nodeType) ⊕ node) == (project ⊕ (nodeType ⊕ node))
	left := MergePermissions(MergePermissions(project, nodeType), node)
	right := MergePermissions(project, MergePermissions(nodeType, node))
	assert.Equal(t, left, right)
}

func TestAllowedMethods_AnonymousChiCoWorld(t *testing.T) {
	withTestConfig(t)

	acl := models.Permissions{
		Users: []models.UserPermission{{User: primitive.NewObjectID(), Methods: []string{"PUT"}}},
		World: []string{"GET"},
	}

	assert.Equal(t, []string{"GET"}, AllowedMethods(acl, nil))
}

func TestAllowedMethods_UserVaGroupKhop(t *testing.T) {
	withTestConfig(t)

	userID := primitive.NewObjectID()
	groupID := primitive.NewObjectID()

	acl := models.Permissions{
		Users: []models.UserPermission{
			{User: userID, Methods: []string{"PUT"}},
			{User: primitive.NewObjectID(), Methods: []string{"DELETE"}},
		},
		Groups: []models.GroupPermission{
			{Group: groupID, Methods: []string{"POST"}},
			{Group: primitive.NewObjectID(), Methods: []string{"DELETE"}},
		},
		World: []string{"GET"},
	}

	session := sessionWith(userID, []primitive.ObjectID{groupID}, "subscriber")
	allowed := AllowedMethods(acl, session)

	// Entry của user/group khác không được tính
	assert.Equal(t, []string{"GET", "POST", "PUT"}, allowed)
}

func TestAllowedMethods_AdminKhopMoiEntry(t *testing.T) {
	withTestConfig(t)

	acl := models.Permissions{
		Users:  []models.UserPermission{{User: primitive.NewObjectID(), Methods: []string{"PUT"}}},
		Groups: []models.GroupPermission{{Group: primitive.NewObjectID(), Methods: []string{"DELETE"}}},
		World:  []string{"GET"},
	}

	admin := sessionWith(primitive.NewObjectID(), nil, authmodels.RoleAdmin)
	allowed := AllowedMethods(acl, admin)

	assert.Equal(t, []string{"DELETE", "GET", "PUT"}, allowed)
}

func TestHasMethod(t *testing.T) {
	assert.True(t, HasMethod([]string{"GET", "PUT"}, "PUT"))
	assert.False(t, HasMethod([]string{"GET"}, "DELETE"))
	assert.False(t, HasMethod(nil, "GET"))
}
