// Package encodingrouter đăng ký route cho transcode pipeline.
package encodingrouter

import (
	"sync"

	encodinghdl "github.com/armadillica/pillar-sub000/internal/api/encoding/handler"
	encodingsvc "github.com/armadillica/pillar-sub000/internal/api/encoding/service"
	filerouter "github.com/armadillica/pillar-sub000/internal/api/file/router"
	"github.com/armadillica/pillar-sub000/internal/api/router"

	"github.com/gofiber/fiber/v3"
)

var (
	servicesOnce sync.Once

	encodingService *encodingsvc.EncodingService
)

func ensureServices() {
	servicesOnce.Do(func() {
		encodingService = encodingsvc.NewEncodingService(filerouter.FileSvc())
		// File service gửi job qua interface để tránh import vòng
		filerouter.FileSvc().SetVideoEncoder(encodingService)
	})
}

// EncodingSvc trả về EncodingService dùng chung (sau khi Register đã chạy).
func EncodingSvc() *encodingsvc.EncodingService {
	return encodingService
}

// Register đăng ký route encoding. Chạy sau file router.
func Register(v1 fiber.Router, r *router.Router) error {
	ensureServices()

	handler := encodinghdl.NewEncodingHandler(encodingService)

	// Webhook xác thực bằng secret header, không qua auth middleware
	router.RegisterRouteWithMiddleware(v1, "/encoding", "POST", "/zencoder/notifications", nil, handler.HandleZencoderNotification)

	return nil
}
