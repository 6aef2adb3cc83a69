package authhdl

import (
	authdto "github.com/armadillica/pillar-sub000/internal/api/auth/dto"
	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	basehdl "github.com/armadillica/pillar-sub000/internal/api/base/handler"
	"github.com/armadillica/pillar-sub000/internal/api/middleware"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// BadgerHandler xử lý cấp/thu hồi role qua service account badger
// và tạo service account mới (chỉ admin).
type BadgerHandler struct {
	badgerService         *authsvc.BadgerService
	serviceAccountService *authsvc.ServiceAccountService
	sessionService        *authsvc.SessionService
}

// NewBadgerHandler tạo BadgerHandler.
func NewBadgerHandler(badger *authsvc.BadgerService, serviceAccounts *authsvc.ServiceAccountService, sessions *authsvc.SessionService) *BadgerHandler {
	return &BadgerHandler{
		badgerService:         badger,
		serviceAccountService: serviceAccounts,
		sessionService:        sessions,
	}
}

// HandleBadger cấp hoặc thu hồi một role cho user theo email.
// Caller phải là service account badger và role phải nằm trong danh sách được quản lý.
func (h *BadgerHandler) HandleBadger(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		session := middleware.GetSession(c)
		if session == nil {
			return basehdl.HandleError(c, common.ErrTokenMissing)
		}

		var input authdto.BadgerInput
		if err := c.Bind().Body(&input); err != nil {
			return basehdl.HandleError(c, common.ErrInvalidInput)
		}
		if err := global.Validate.Struct(&input); err != nil {
			return basehdl.HandleError(c, common.NewError(
				common.ErrCodeValidationInput, common.MsgValidationError, common.StatusUnprocessable, err.Error(),
			))
		}

		if err := h.badgerService.DoBadger(c.Context(), &session.User, input.Action, input.Role, input.UserEmail); err != nil {
			return basehdl.HandleError(c, err)
		}

		logrus.WithFields(logrus.Fields{
			"action": input.Action,
			"role":   input.Role,
			"email":  input.UserEmail,
		}).Info("✅ [AUTH] Badger đã xử lý role")
		return basehdl.HandleSuccess(c, common.StatusNoContent, nil)
	})
}

// HandleCreateServiceAccount tạo service account badger kèm token dài hạn (chỉ admin).
func (h *BadgerHandler) HandleCreateServiceAccount(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		var input authdto.CreateServiceAccountInput
		if err := c.Bind().Body(&input); err != nil {
			return basehdl.HandleError(c, common.ErrInvalidInput)
		}
		if err := global.Validate.Struct(&input); err != nil {
			return basehdl.HandleError(c, common.NewError(
				common.ErrCodeValidationInput, common.MsgValidationError, common.StatusUnprocessable, err.Error(),
			))
		}

		user, token, err := h.serviceAccountService.CreateBadgerAccount(c.Context(), input.Email, input.ManageRoles)
		if err != nil {
			return basehdl.HandleError(c, err)
		}

		return basehdl.HandleSuccess(c, common.StatusCreated, fiber.Map{
			"user":  user,
			"token": token,
		})
	})
}

// HandleCreateLocalUser tạo tài khoản local theo email + mật khẩu (chỉ admin).
func (h *BadgerHandler) HandleCreateLocalUser(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		var input authdto.CreateLocalUserInput
		if err := c.Bind().Body(&input); err != nil {
			return basehdl.HandleError(c, common.ErrInvalidInput)
		}
		if err := global.Validate.Struct(&input); err != nil {
			return basehdl.HandleError(c, common.NewError(
				common.ErrCodeValidationInput, common.MsgValidationError, common.StatusUnprocessable, err.Error(),
			))
		}

		user, err := h.sessionService.CreateLocalUser(c.Context(), input.Email, input.Password)
		if err != nil {
			return basehdl.HandleError(c, err)
		}
		return basehdl.HandleSuccess(c, common.StatusCreated, user)
	})
}
