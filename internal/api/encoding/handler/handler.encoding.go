// Package encodinghdl - endpoint nhận notification từ transcode backend.
package encodinghdl

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	basehdl "github.com/armadillica/pillar-sub000/internal/api/base/handler"
	encodingdto "github.com/armadillica/pillar-sub000/internal/api/encoding/dto"
	encodingsvc "github.com/armadillica/pillar-sub000/internal/api/encoding/service"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"
)

// EncodingHandler xử lý webhook của Zencoder.
type EncodingHandler struct {
	encodingService *encodingsvc.EncodingService
}

// NewEncodingHandler tạo EncodingHandler.
func NewEncodingHandler(encodingService *encodingsvc.EncodingService) *EncodingHandler {
	return &EncodingHandler{encodingService: encodingService}
}

// notificationAllowed kiểm tra secret header của một notification.
// Debug bỏ qua kiểm tra để dev POST notification giả bằng tay.
func notificationAllowed(debug bool, configured, received string) bool {
	if debug {
		return true
	}
	return configured != "" && received == configured
}

// HandleZencoderNotification nhận notification Zencoder POST về khi job
// đổi trạng thái. Xác thực bằng secret header thay vì token người dùng.
// Zencoder retry với mọi status ngoài 2xx nên lỗi xử lý không trả 5xx.
func (h *EncodingHandler) HandleZencoderNotification(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		cfg := global.ServerConfig
		if !notificationAllowed(cfg.Debug, cfg.ZencoderNotificationsSecret, c.Get("X-Zencoder-Notification-Secret")) {
			logrus.Warn("⚠️ [ENCODING] Notification thiếu hoặc sai secret, từ chối")
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		var notif encodingdto.ZencoderNotification
		if err := json.Unmarshal(c.Body(), &notif); err != nil {
			logrus.WithError(err).Warn("⚠️ [ENCODING] Notification không parse được")
			return c.Status(fiber.StatusBadRequest).SendString("invalid payload")
		}

		err := h.encodingService.ProcessNotification(c.Context(), &notif)
		if err == nil {
			return c.SendStatus(fiber.StatusNoContent)
		}

		if common.IsNotFound(err) {
			// Job không còn trong hệ thống: debug báo lỗi rõ, production
			// trả 2xx để Zencoder ngừng retry một job đã bị dọn
			if cfg.Debug {
				return c.SendStatus(fiber.StatusNotFound)
			}
			logrus.Warnf("⚠️ [ENCODING] Notification cho job %d không khớp file nào", notif.Job.ID)
			return c.Status(fiber.StatusOK).SendString("unknown job")
		}

		logrus.WithError(err).Errorf("❌ [ENCODING] Không xử lý được notification cho job %d", notif.Job.ID)
		return c.Status(fiber.StatusOK).SendString("notification not processed")
	})
}
