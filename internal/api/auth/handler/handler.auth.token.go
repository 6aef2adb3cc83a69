package authhdl

import (
	"net"

	authdto "github.com/armadillica/pillar-sub000/internal/api/auth/dto"
	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	basehdl "github.com/armadillica/pillar-sub000/internal/api/base/handler"
	"github.com/armadillica/pillar-sub000/internal/api/middleware"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// TokenHandler xử lý đăng nhập local, đăng xuất và kiểm tra token.
type TokenHandler struct {
	sessionService *authsvc.SessionService
	tokenService   *authsvc.TokenService
}

// NewTokenHandler tạo TokenHandler.
func NewTokenHandler(sessionService *authsvc.SessionService, tokenService *authsvc.TokenService) *TokenHandler {
	return &TokenHandler{
		sessionService: sessionService,
		tokenService:   tokenService,
	}
}

// HandleMakeToken cấp token cho tài khoản local (username + password).
func (h *TokenHandler) HandleMakeToken(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		var input authdto.MakeTokenInput
		if err := c.Bind().Body(&input); err != nil {
			return basehdl.HandleError(c, common.ErrInvalidInput)
		}
		if err := global.Validate.Struct(&input); err != nil {
			return basehdl.HandleError(c, common.NewError(
				common.ErrCodeValidationInput, common.MsgValidationError, common.StatusUnprocessable, err.Error(),
			))
		}

		token, doc, err := h.sessionService.MakeLocalToken(c.Context(), input.Username, input.Password, net.ParseIP(c.IP()))
		if err != nil {
			logrus.WithField("username", input.Username).Warn("⚠️ [AUTH] Đăng nhập local thất bại")
			return basehdl.HandleError(c, err)
		}

		return basehdl.HandleSuccess(c, common.StatusOK, fiber.Map{
			"token":       token,
			"expire_time": doc.ExpireTime,
		})
	})
}

// HandleStoreSubclientToken nhận subclient token do client lấy từ IdP,
// xác minh với IdP rồi lưu vào token store. Trả về id user cục bộ.
func (h *TokenHandler) HandleStoreSubclientToken(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		var input authdto.StoreSubclientTokenInput
		if err := c.Bind().Body(&input); err != nil {
			return basehdl.HandleError(c, common.ErrInvalidInput)
		}
		if err := global.Validate.Struct(&input); err != nil {
			return basehdl.HandleError(c, common.NewError(
				common.ErrCodeValidationInput, common.MsgValidationError, common.StatusUnprocessable, err.Error(),
			))
		}

		user, _, err := h.sessionService.StoreSubclientToken(c.Context(), input.UserID, input.SubclientID, input.Token, net.ParseIP(c.IP()))
		if err != nil {
			return basehdl.HandleError(c, err)
		}

		return basehdl.HandleSuccess(c, common.StatusCreated, fiber.Map{
			"status":            "success",
			"subclient_user_id": user.ID.Hex(),
		})
	})
}

// HandleValidateToken xác nhận token trong header còn hiệu lực.
// Middleware RequireAuth đã xác thực, tới đây chỉ việc trả session.
func (h *TokenHandler) HandleValidateToken(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		session := middleware.GetSession(c)
		if session == nil {
			return basehdl.HandleError(c, common.ErrTokenMissing)
		}
		return basehdl.HandleSuccess(c, common.StatusOK, fiber.Map{
			"user_id":     session.User.ID,
			"username":    session.User.Username,
			"roles":       session.EffectiveRoles,
			"expire_time": session.Token.ExpireTime,
		})
	})
}

// HandleLogout thu hồi token hiện tại và xoá phiên khỏi cache.
func (h *TokenHandler) HandleLogout(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		session := middleware.GetSession(c)
		if session == nil {
			return basehdl.HandleError(c, common.ErrTokenMissing)
		}

		rawToken, subclient := middleware.ExtractToken(c)
		if err := h.tokenService.DeleteToken(c.Context(), rawToken); err != nil {
			return basehdl.HandleError(c, err)
		}
		middleware.InvalidateSession(rawToken, subclient)

		logrus.WithField("user_id", session.User.ID.Hex()).Info("✅ [AUTH] Đã thu hồi token")
		return basehdl.HandleSuccess(c, common.StatusOK, fiber.Map{"revoked": true})
	})
}
