// Package middleware - xác thực request và kiểm tra role/capability.
package middleware

import (
	"encoding/base64"
	"net"
	"strings"
	"time"

	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	"github.com/armadillica/pillar-sub000/internal/api/events"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/utility"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Key trong c.Locals
const (
	LocalsSession = "auth_session"
	LocalsUserID  = "user_id"
)

// Cache phiên đã xác thực để không tra database cho mỗi request
var sessionCache = utility.NewCache(5*time.Minute, time.Minute)

// sessions là SessionService dùng bởi middleware; gán lúc khởi động server.
var sessions *authsvc.SessionService

// SetSessionService gán SessionService cho middleware (gọi một lần lúc khởi động).
func SetSessionService(s *authsvc.SessionService) {
	sessions = s
	sessionCache = utility.NewCache(5*time.Minute, time.Minute)

	// Role đổi (badger, đồng bộ subscription) thì mọi phiên cache của user
	// đó đang mang tập role cũ
	events.OnUserRolesChanged(func(evt events.RoleChangeEvent) {
		InvalidateSessionsForUser(evt.UserID)
	})
}

// InvalidateSessionsForUser xóa mọi phiên cache của một user.
func InvalidateSessionsForUser(userID primitive.ObjectID) {
	sessionCache.DeleteFunc(func(_ string, value interface{}) bool {
		session, ok := value.(*authsvc.AuthSession)
		return ok && session.User.ID == userID
	})
}

// GetSession trả về phiên đã xác thực của request (nil nếu anonymous).
func GetSession(c fiber.Ctx) *authsvc.AuthSession {
	if session, ok := c.Locals(LocalsSession).(*authsvc.AuthSession); ok {
		return session
	}
	return nil
}

// InvalidateSession xoá phiên khỏi cache (gọi khi thu hồi token).
func InvalidateSession(token, subclient string) {
	sessionCache.Delete(sessionCacheKey(token, subclient))
}

// sessionCacheKey: cùng một token dùng với subclient id khác nhau là hai phiên khác nhau
func sessionCacheKey(token, subclient string) string {
	return subclient + "\x00" + token
}

// ExtractToken lấy token và subclient id từ header Authorization.
// Hỗ trợ "Bearer <token>", basic auth với username là token và password
// là subclient id (nếu có), và token trần.
func ExtractToken(c fiber.Ctx) (token, subclient string) {
	return parseAuthorization(c.Get("Authorization"))
}

// parseAuthorization tách token và subclient id từ giá trị header Authorization.
func parseAuthorization(header string) (token, subclient string) {
	header = strings.TrimSpace(header)
	switch {
	case header == "":
		return "", ""
	case strings.HasPrefix(header, "Bearer "):
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")), ""
	case strings.HasPrefix(header, "Basic "):
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(strings.TrimPrefix(header, "Basic ")))
		if err != nil {
			return "", ""
		}
		token, subclient, _ := strings.Cut(string(decoded), ":")
		return token, subclient
	}
	return header, ""
}

// LoadAuth xác thực token nếu có nhưng không bắt buộc đăng nhập.
// Request không có token đi tiếp dưới danh nghĩa anonymous.
func LoadAuth() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, subclient := ExtractToken(c)
		if token == "" {
			return c.Next()
		}

		session, err := authenticate(c, token, subclient)
		if err != nil {
			// Token sai thì chặn luôn thay vì âm thầm hạ xuống anonymous
			return HandleErrorResponse(c, err)
		}

		c.Locals(LocalsSession, session)
		c.Locals(LocalsUserID, session.User.ID.Hex())
		return c.Next()
	}
}

// RequireAuth bắt buộc request phải có token hợp lệ.
func RequireAuth() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, subclient := ExtractToken(c)
		if token == "" {
			return HandleErrorResponse(c, common.ErrTokenMissing)
		}

		session, err := authenticate(c, token, subclient)
		if err != nil {
			return HandleErrorResponse(c, err)
		}

		c.Locals(LocalsSession, session)
		c.Locals(LocalsUserID, session.User.ID.Hex())
		return c.Next()
	}
}

// RequireRoles bắt buộc phiên có ít nhất một trong các role (tính cả org role theo IP).
// Phải đặt sau RequireAuth trong chain.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c fiber.Ctx) error {
		session := GetSession(c)
		if session == nil {
			return HandleErrorResponse(c, common.ErrTokenMissing)
		}
		if !session.HasRole(roles...) {
			logrus.WithFields(logrus.Fields{
				"user_id":  session.User.ID.Hex(),
				"required": roles,
				"have":     session.EffectiveRoles,
			}).Warn("❌ [AUTH] User thiếu role bắt buộc")
			return HandleErrorResponse(c, common.ErrRoleRequired)
		}
		return c.Next()
	}
}

// RequireCap bắt buộc phiên có capability. Phải đặt sau RequireAuth trong chain.
func RequireCap(cap string) fiber.Handler {
	return func(c fiber.Ctx) error {
		session := GetSession(c)
		if session == nil {
			return HandleErrorResponse(c, common.ErrTokenMissing)
		}
		if !session.HasCap(cap) {
			return HandleErrorResponse(c, common.ErrCapRequired)
		}
		return c.Next()
	}
}

// RequireAdmin bắt buộc phiên có role admin.
func RequireAdmin() fiber.Handler {
	return RequireRoles("admin")
}

// authenticate xác thực token, ưu tiên cache phiên trong 5 phút
func authenticate(c fiber.Ctx, token, subclient string) (*authsvc.AuthSession, error) {
	cacheKey := sessionCacheKey(token, subclient)
	if cached, found := sessionCache.Get(cacheKey); found {
		if session, ok := cached.(*authsvc.AuthSession); ok {
			return session, nil
		}
	}

	if sessions == nil {
		return nil, common.NewError(
			common.ErrCodeAuth,
			"SessionService chưa được khởi tạo",
			common.StatusInternalServerError,
			nil,
		)
	}

	remoteIP := net.ParseIP(c.IP())
	session, err := sessions.Authenticate(c.Context(), token, subclient, remoteIP)
	if err != nil {
		return nil, err
	}

	sessionCache.Set(cacheKey, session)
	return session, nil
}
