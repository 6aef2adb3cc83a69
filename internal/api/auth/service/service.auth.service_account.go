// Package authsvc - tạo và quản lý service account.
package authsvc

import (
	"context"
	"time"

	models "github.com/armadillica/pillar-sub000/internal/api/auth/models"
	basesvc "github.com/armadillica/pillar-sub000/internal/api/base/service"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/utility"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
)

// Service account nhận token sống rất dài; việc thu hồi làm bằng tay.
const serviceAccountTokenValidity = 365 * 24 * time.Hour

// ServiceAccountService tạo service account và cấp token cho chúng.
type ServiceAccountService struct {
	users  *UserService
	tokens *TokenService
}

// NewServiceAccountService tạo ServiceAccountService.
func NewServiceAccountService(users *UserService, tokens *TokenService) *ServiceAccountService {
	return &ServiceAccountService{users: users, tokens: tokens}
}

// CreateBadgerAccount tạo service account badger với danh sách role được phép quản lý.
// Trả về user và token thô (chỉ hiện một lần duy nhất lúc tạo).
func (s *ServiceAccountService) CreateBadgerAccount(ctx context.Context, email string, manageRoles []string) (models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if common.IsNotFound(err) {
		user, err = s.users.createFromProvider(ctx, ProviderLocal, "", email, "Badger service account")
	}
	if err != nil {
		return models.User{}, "", err
	}

	updated, err := s.users.UpdateById(ctx, user.ID, &basesvc.UpdateData{
		Set: bson.M{
			"service": bson.M{models.RoleBadger: manageRoles},
		},
		AddToSet: bson.M{
			"roles": bson.M{"$each": bson.A{models.RoleService, models.RoleBadger}},
		},
	})
	if err != nil {
		return models.User{}, "", err
	}

	token, err := utility.GenerateToken("SRV")
	if err != nil {
		return models.User{}, "", common.NewError(
			common.ErrCodeAuth,
			"Không sinh được token cho service account",
			common.StatusInternalServerError,
			err,
		)
	}

	expireTime := time.Now().UTC().Add(serviceAccountTokenValidity)
	if _, err := s.tokens.StoreToken(ctx, updated.ID, token, expireTime, false, nil, nil); err != nil {
		return models.User{}, "", err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": updated.ID.Hex(),
		"email":   email,
		"roles":   manageRoles,
	}).Info("✅ [AUTH] Đã tạo service account badger")
	return updated, token, nil
}
