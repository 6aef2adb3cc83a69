// Package authsvc - service người dùng (User).
package authsvc

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	models "github.com/armadillica/pillar-sub000/internal/api/auth/models"
	basesvc "github.com/armadillica/pillar-sub000/internal/api/base/service"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"

	"github.com/sirupsen/logrus"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Số lần thử lại khi username sinh ra bị trùng
const usernameUpsertRetries = 5

// UserService là cấu trúc chứa các phương thức liên quan đến người dùng
type UserService struct {
	*basesvc.BaseServiceMongoImpl[models.User]
	groupService *basesvc.BaseServiceMongoImpl[models.Group]
}

// NewUserService tạo mới UserService
func NewUserService() (*UserService, error) {
	userCollection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Users)
	if !exist {
		return nil, fmt.Errorf("failed to get users collection: %v", common.ErrNotFound)
	}
	groupCollection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Groups)
	if !exist {
		return nil, fmt.Errorf("failed to get groups collection: %v", common.ErrNotFound)
	}

	return &UserService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[models.User](userCollection),
		groupService:         basesvc.NewBaseServiceMongo[models.Group](groupCollection),
	}, nil
}

// FindByAuthProvider tìm user theo liên kết xác thực (provider + ID phía provider).
func (s *UserService) FindByAuthProvider(ctx context.Context, provider, providerUserID string) (models.User, error) {
	return s.FindOne(ctx, bson.M{
		"auth": bson.M{
			"$elemMatch": bson.M{
				"provider": provider,
				"user_id":  providerUserID,
			},
		},
	}, nil)
}

// FindByEmail tìm user theo email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.FindOne(ctx, bson.M{"email": email}, nil)
}

// EnsureUserExists đảm bảo user gắn với liên kết IdP tồn tại trong database.
// Tra theo provider + ID phía provider trước; không có thì tra theo email
// để gắn thêm liên kết vào tài khoản sẵn có (ví dụ đã đăng ký bằng mật khẩu
// local rồi mới đăng nhập qua IdP). Cả hai đều không có mới tạo user mới
// với username duy nhất suy ra từ email. Trả về user và cờ created.
func (s *UserService) EnsureUserExists(ctx context.Context, provider, providerUserID, email, fullName string) (models.User, bool, error) {
	user, err := s.FindByAuthProvider(ctx, provider, providerUserID)
	if err == nil {
		return user, false, nil
	}
	if !common.IsNotFound(err) {
		return models.User{}, false, err
	}

	if email != "" {
		user, err = s.FindByEmail(ctx, email)
		if err == nil {
			linked, linkErr := s.linkAuthProvider(ctx, user.ID, provider, providerUserID)
			if linkErr != nil {
				return models.User{}, false, linkErr
			}
			return linked, false, nil
		}
		if !common.IsNotFound(err) {
			return models.User{}, false, err
		}
	}

	created, err := s.createFromProvider(ctx, provider, providerUserID, email, fullName)
	if err != nil {
		return models.User{}, false, err
	}
	return created, true, nil
}

// linkAuthProvider gắn thêm một liên kết xác thực vào user sẵn có.
func (s *UserService) linkAuthProvider(ctx context.Context, userID primitive.ObjectID, provider, providerUserID string) (models.User, error) {
	updated, err := s.UpdateById(ctx, userID, &basesvc.UpdateData{
		AddToSet: bson.M{
			"auth": models.AuthProvider{Provider: provider, UserID: providerUserID},
		},
	})
	if err != nil {
		return models.User{}, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  userID.Hex(),
		"provider": provider,
	}).Info("✅ [AUTH] Đã gắn liên kết xác thực mới vào tài khoản sẵn có")
	return updated, nil
}

// createFromProvider tạo user mới từ thông tin IdP, thử lại khi trùng username.
func (s *UserService) createFromProvider(ctx context.Context, provider, providerUserID, email, fullName string) (models.User, error) {
	base := usernameFromEmail(email)

	var lastErr error
	for attempt := 0; attempt < usernameUpsertRetries; attempt++ {
		username := base
		if attempt > 0 {
			username = base + strconv.Itoa(attempt)
		}

		user := models.User{
			Username: username,
			Email:    email,
			FullName: fullName,
			Auth: []models.AuthProvider{
				{Provider: provider, UserID: providerUserID},
			},
			Roles:  []string{},
			Groups: []primitive.ObjectID{},
		}

		created, err := s.InsertOne(ctx, user)
		if err == nil {
			logrus.WithFields(logrus.Fields{
				"username": username,
				"provider": provider,
			}).Info("✅ [AUTH] Đã tạo user mới từ IdP")
			return created, nil
		}
		if !common.IsDuplicate(err) {
			return models.User{}, err
		}
		lastErr = err
	}

	return models.User{}, common.NewError(
		common.ErrCodeDatabase,
		fmt.Sprintf("Không tạo được username duy nhất từ '%s' sau %d lần thử", base, usernameUpsertRetries),
		common.StatusInternalServerError,
		lastErr,
	)
}

// usernameFromEmail suy ra username từ phần trước dấu @ của email
func usernameFromEmail(email string) string {
	local := email
	if idx := strings.Index(email, "@"); idx > 0 {
		local = email[:idx]
	}
	local = strings.TrimSpace(strings.ToLower(local))
	if local == "" {
		local = "user"
	}
	return local
}

// GrantRole cấp một role cho user; role trong danh sách role-có-group
// thì đồng thời thêm user vào group trùng tên.
func (s *UserService) GrantRole(ctx context.Context, userID primitive.ObjectID, role string) error {
	update := &basesvc.UpdateData{
		AddToSet: bson.M{"roles": role},
	}

	if roleHasGroup(role) {
		group, err := s.EnsureGroup(ctx, role)
		if err != nil {
			return err
		}
		update.AddToSet["groups"] = group.ID
	}

	_, err := s.UpdateById(ctx, userID, update)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID.Hex(),
		"role":    role,
	}).Info("✅ [AUTH] Đã cấp role cho user")
	return nil
}

// RevokeRole thu hồi một role khỏi user, gỡ khỏi group trùng tên nếu có.
func (s *UserService) RevokeRole(ctx context.Context, userID primitive.ObjectID, role string) error {
	pull := bson.M{"roles": role}

	if roleHasGroup(role) {
		group, err := s.groupService.FindOne(ctx, bson.M{"name": role}, nil)
		if err == nil {
			pull["groups"] = group.ID
		} else if !common.IsNotFound(err) {
			return err
		}
	}

	// Base service không có $pull nên thao tác trực tiếp trên collection
	_, err := s.Collection().UpdateByID(ctx, userID, bson.M{"$pull": pull})
	if err != nil {
		return common.ConvertMongoError(err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID.Hex(),
		"role":    role,
	}).Info("✅ [AUTH] Đã thu hồi role của user")
	return nil
}

// EnsureGroup đảm bảo group theo tên tồn tại, trả về group.
func (s *UserService) EnsureGroup(ctx context.Context, name string) (models.Group, error) {
	return s.groupService.Upsert(ctx, bson.M{"name": name}, models.Group{Name: name})
}

// AddToGroup thêm user vào một group.
func (s *UserService) AddToGroup(ctx context.Context, userID, groupID primitive.ObjectID) error {
	_, err := s.UpdateById(ctx, userID, &basesvc.UpdateData{
		AddToSet: bson.M{"groups": groupID},
	})
	return err
}

// RemoveFromGroup gỡ user khỏi một group.
func (s *UserService) RemoveFromGroup(ctx context.Context, userID, groupID primitive.ObjectID) error {
	_, err := s.Collection().UpdateByID(ctx, userID, bson.M{
		"$pull": bson.M{"groups": groupID},
	})
	return common.ConvertMongoError(err)
}

// roleHasGroup: các role hệ thống có group trùng tên để dùng trong permission
func roleHasGroup(role string) bool {
	switch role {
	case models.RoleAdmin, models.RoleDemo, models.RoleSubscriber:
		return true
	}
	return false
}
