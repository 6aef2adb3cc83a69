package authhdl

import (
	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	basehdl "github.com/armadillica/pillar-sub000/internal/api/base/handler"
	"github.com/armadillica/pillar-sub000/internal/api/middleware"
	"github.com/armadillica/pillar-sub000/internal/common"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// SubscriptionHandler đồng bộ role subscription của user với hồ sơ IdP.
type SubscriptionHandler struct {
	subscriptionService *authsvc.SubscriptionService
}

// NewSubscriptionHandler tạo SubscriptionHandler. subscriptionService có thể
// nil khi server chạy không có IdP.
func NewSubscriptionHandler(subscriptionService *authsvc.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// HandleUpdateSubscription đồng bộ role subscription của chính user đang
// đăng nhập. Hồ sơ IdP được tra bằng access token của request hiện tại.
func (h *SubscriptionHandler) HandleUpdateSubscription(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		session := middleware.GetSession(c)
		if session == nil {
			return basehdl.HandleError(c, common.ErrTokenMissing)
		}

		if h.subscriptionService == nil {
			return basehdl.HandleError(c, common.NewError(
				common.ErrCodeAuth,
				"Chưa cấu hình identity provider, không đồng bộ được subscription",
				common.StatusPreconditionFailed,
				nil,
			))
		}

		token, _ := middleware.ExtractToken(c)
		user := session.User
		if err := h.subscriptionService.Reconcile(c.Context(), &user, token); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID.Hex()).Warn("⚠️ [AUTH] Đồng bộ subscription thất bại")
			return basehdl.HandleError(c, err)
		}

		// Phiên cache của user được xóa qua sự kiện thay đổi role
		return basehdl.HandleSuccess(c, common.StatusNoContent, nil)
	})
}
