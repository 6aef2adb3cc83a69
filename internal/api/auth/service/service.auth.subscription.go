// Package authsvc - đồng bộ role subscription với hồ sơ người dùng trên IdP.
package authsvc

import (
	"context"
	"sort"

	models "github.com/armadillica/pillar-sub000/internal/api/auth/models"
	"github.com/armadillica/pillar-sub000/internal/api/events"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/utility"

	"github.com/sirupsen/logrus"
)

// idpRoleMap ánh xạ role bit trên IdP sang role cục bộ.
// Role IdP không có trong bảng này không được đồng bộ.
var idpRoleMap = map[string]string{
	"cloud_subscriber":       models.RoleSubscriber,
	"cloud_demo":             models.RoleDemo,
	"cloud_has_subscription": models.RoleHasSubscription,
}

// SubscriptionService đồng bộ role subscriber/demo/has_subscription của
// user cục bộ theo hồ sơ người dùng trên IdP. IdP là nguồn sự thật duy nhất
// cho các role này.
type SubscriptionService struct {
	users *UserService
	idp   *IdPClient
}

// NewSubscriptionService tạo SubscriptionService.
func NewSubscriptionService(users *UserService, idp *IdPClient) *SubscriptionService {
	return &SubscriptionService{
		users: users,
		idp:   idp,
	}
}

// Reconcile lấy hồ sơ của user trên IdP bằng access token của chính user đó
// rồi cấp/thu hồi các role subscription cho khớp.
func (s *SubscriptionService) Reconcile(ctx context.Context, user *models.User, token string) error {
	if s.idp == nil {
		return common.NewError(
			common.ErrCodeAuth,
			"Chưa cấu hình identity provider, không đồng bộ được subscription",
			common.StatusPreconditionFailed,
			nil,
		)
	}

	record, err := s.idp.FetchUser(ctx, token)
	if err != nil {
		return err
	}
	return s.ApplyIdPRoles(ctx, user, record.Roles)
}

// ApplyIdPRoles cấp/thu hồi role cục bộ theo các role bit của IdP.
// Mỗi delta đi qua đường cấp role chuẩn nên group membership được đồng bộ
// theo; xong phát sự kiện thay đổi role mang cả hai tập role.
func (s *SubscriptionService) ApplyIdPRoles(ctx context.Context, user *models.User, idpRoles []string) error {
	grant, revoke := diffIdPRoles(user.Roles, idpRoles)
	if len(grant) == 0 && len(revoke) == 0 {
		return nil
	}

	oldRoles := append([]string(nil), user.Roles...)

	for _, role := range grant {
		if err := s.users.GrantRole(ctx, user.ID, role); err != nil {
			return err
		}
	}
	for _, role := range revoke {
		if err := s.users.RevokeRole(ctx, user.ID, role); err != nil {
			return err
		}
	}

	updated, err := s.users.FindOneById(ctx, user.ID)
	if err != nil {
		return err
	}
	*user = updated

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID.Hex(),
		"grant":   grant,
		"revoke":  revoke,
	}).Info("🔄 [AUTH] Đã đồng bộ role subscription theo IdP")

	events.EmitUserRolesChanged(user.ID, oldRoles, user.Roles)
	return nil
}

// diffIdPRoles tính role cần cấp và cần thu hồi từ tập role cục bộ hiện tại
// và các role bit IdP báo về. Role ngoài idpRoleMap giữ nguyên.
func diffIdPRoles(localRoles, idpRoles []string) (grant, revoke []string) {
	for idpRole, localRole := range idpRoleMap {
		onIdP := utility.Contains(idpRoles, idpRole)
		onLocal := utility.Contains(localRoles, localRole)
		switch {
		case onIdP && !onLocal:
			grant = append(grant, localRole)
		case !onIdP && onLocal:
			revoke = append(revoke, localRole)
		}
	}

	// Thứ tự duyệt map không ổn định
	sort.Strings(grant)
	sort.Strings(revoke)
	return grant, revoke
}
