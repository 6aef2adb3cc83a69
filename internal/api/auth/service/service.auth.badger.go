// Package authsvc - service account badger: cấp/thu hồi role qua API nội bộ.
package authsvc

import (
	"context"
	"fmt"

	models "github.com/armadillica/pillar-sub000/internal/api/auth/models"
	"github.com/armadillica/pillar-sub000/internal/api/events"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/utility"

	"github.com/sirupsen/logrus"
)

// Các action badger hỗ trợ
const (
	BadgerActionGrant  = "grant"
	BadgerActionRevoke = "revoke"
)

// BadgerService thực hiện cấp/thu hồi role cho user theo yêu cầu
// của service account badger (hệ thống quản lý subscription bên ngoài).
type BadgerService struct {
	users *UserService
}

// NewBadgerService tạo BadgerService.
func NewBadgerService(users *UserService) *BadgerService {
	return &BadgerService{users: users}
}

// DoBadger cấp hoặc thu hồi role cho user theo email.
// caller phải là service account badger; role phải nằm trong danh sách
// role mà service account được phép quản lý (user.service["badger"]).
func (s *BadgerService) DoBadger(ctx context.Context, caller *models.User, action, role, userEmail string) error {
	if caller == nil || !caller.HasRole(models.RoleBadger) {
		return common.ErrForbidden
	}

	manageable := caller.Service[models.RoleBadger]
	if !utility.Contains(manageable, role) {
		return common.NewError(
			common.ErrCodePermissionRole,
			fmt.Sprintf("Service account không được phép quản lý role '%s'", role),
			common.StatusForbidden,
			nil,
		)
	}

	target, err := s.users.FindByEmail(ctx, userEmail)
	if err != nil {
		if common.IsNotFound(err) {
			return common.ErrUserNotFound
		}
		return err
	}

	switch action {
	case BadgerActionGrant:
		err = s.users.GrantRole(ctx, target.ID, role)
	case BadgerActionRevoke:
		err = s.users.RevokeRole(ctx, target.ID, role)
	default:
		return common.NewError(
			common.ErrCodeValidationInput,
			fmt.Sprintf("Action '%s' không hợp lệ, chỉ hỗ trợ grant/revoke", action),
			common.StatusBadRequest,
			nil,
		)
	}
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"action": action,
		"role":   role,
		"email":  userEmail,
		"caller": caller.ID.Hex(),
	}).Info("✅ [AUTH] Badger đã thay đổi role của user")

	updated, err := s.users.FindOneById(ctx, target.ID)
	if err != nil {
		return err
	}
	events.EmitUserRolesChanged(target.ID, target.Roles, updated.Roles)
	return nil
}
