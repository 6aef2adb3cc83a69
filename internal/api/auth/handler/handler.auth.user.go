// Package authhdl - handler HTTP cho domain auth.
package authhdl

import (
	"strings"

	authdto "github.com/armadillica/pillar-sub000/internal/api/auth/dto"
	models "github.com/armadillica/pillar-sub000/internal/api/auth/models"
	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	basehdl "github.com/armadillica/pillar-sub000/internal/api/base/handler"
	basesvc "github.com/armadillica/pillar-sub000/internal/api/base/service"
	"github.com/armadillica/pillar-sub000/internal/api/middleware"
	"github.com/armadillica/pillar-sub000/internal/common"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
)

// UserHandler xử lý các route người dùng.
// Embed BaseHandler để route quản trị dùng lại CRUD chung.
type UserHandler struct {
	*basehdl.BaseHandler[models.User, authdto.UserCreateInput, authdto.UserUpdateInput]
	userService *authsvc.UserService
}

// NewUserHandler tạo UserHandler.
func NewUserHandler(userService *authsvc.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: basehdl.NewBaseHandler[models.User, authdto.UserCreateInput, authdto.UserUpdateInput](userService),
		userService: userService,
	}
}

// HandleMe trả về hồ sơ của user đang đăng nhập, kèm role hiệu lực và capability.
func (h *UserHandler) HandleMe(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		session := middleware.GetSession(c)
		if session == nil {
			h.HandleResponse(c, nil, common.ErrTokenMissing)
			return nil
		}

		h.HandleResponse(c, fiber.Map{
			"user":         session.User,
			"roles":        session.EffectiveRoles,
			"capabilities": session.Capabilities,
		}, nil)
		return nil
	})
}

// HandleUpdateMe cho user tự cập nhật username / email / full_name.
func (h *UserHandler) HandleUpdateMe(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		session := middleware.GetSession(c)
		if session == nil {
			h.HandleResponse(c, nil, common.ErrTokenMissing)
			return nil
		}

		var input authdto.UserUpdateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		set := bson.M{}
		if input.Username != "" {
			set["username"] = strings.TrimSpace(input.Username)
		}
		if input.Email != "" {
			set["email"] = strings.TrimSpace(strings.ToLower(input.Email))
		}
		if input.FullName != "" {
			set["full_name"] = strings.TrimSpace(input.FullName)
		}
		if len(set) == 0 {
			h.HandleResponse(c, nil, common.ErrRequiredField)
			return nil
		}

		updated, err := h.userService.UpdateById(c.Context(), session.User.ID, &basesvc.UpdateData{Set: set})
		if err != nil {
			if common.IsDuplicate(err) {
				err = common.NewError(
					common.ErrCodeDatabaseQuery,
					"Username hoặc email đã được sử dụng",
					common.StatusConflict,
					nil,
				)
			}
			h.HandleResponse(c, nil, err)
			return nil
		}

		h.HandleResponse(c, updated, nil)
		return nil
	})
}
