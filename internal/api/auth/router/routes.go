// Package authrouter đăng ký route cho domain auth: phiên đăng nhập,
// hồ sơ người dùng, service account và badger.
package authrouter

import (
	"sync"

	authhdl "github.com/armadillica/pillar-sub000/internal/api/auth/handler"
	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	"github.com/armadillica/pillar-sub000/internal/api/middleware"
	"github.com/armadillica/pillar-sub000/internal/api/router"
	"github.com/armadillica/pillar-sub000/internal/global"

	"github.com/gofiber/fiber/v3"
)

var (
	servicesOnce sync.Once
	servicesErr  error

	userService           *authsvc.UserService
	tokenService          *authsvc.TokenService
	sessionService        *authsvc.SessionService
	badgerService         *authsvc.BadgerService
	serviceAccountService *authsvc.ServiceAccountService
	subscriptionService   *authsvc.SubscriptionService
)

// ensureServices khởi tạo các service của domain auth đúng một lần.
// Các package khác (organization, worker) lấy instance dùng chung qua các hàm accessor.
func ensureServices() error {
	servicesOnce.Do(func() {
		userService, servicesErr = authsvc.NewUserService()
		if servicesErr != nil {
			return
		}
		tokenService, servicesErr = authsvc.NewTokenService()
		if servicesErr != nil {
			return
		}

		var idp *authsvc.IdPClient
		if global.ServerConfig.BlenderIDEndpoint != "" {
			idp, servicesErr = authsvc.NewIdPClient(global.ServerConfig)
			if servicesErr != nil {
				return
			}
		}

		sessionService = authsvc.NewSessionService(userService, tokenService, idp)
		badgerService = authsvc.NewBadgerService(userService)
		serviceAccountService = authsvc.NewServiceAccountService(userService, tokenService)

		// IdP là nguồn sự thật cho các role subscription
		if idp != nil {
			subscriptionService = authsvc.NewSubscriptionService(userService, idp)
		}

		middleware.SetSessionService(sessionService)
	})
	return servicesErr
}

// SessionSvc trả về SessionService dùng chung (sau khi Register đã chạy).
func SessionSvc() *authsvc.SessionService {
	return sessionService
}

// UserSvc trả về UserService dùng chung.
func UserSvc() *authsvc.UserService {
	return userService
}

// TokenSvc trả về TokenService dùng chung.
func TokenSvc() *authsvc.TokenService {
	return tokenService
}

// Register đăng ký các route của domain auth vào group /api/v1.
func Register(v1 fiber.Router, r *router.Router) error {
	if err := ensureServices(); err != nil {
		return err
	}

	userHandler := authhdl.NewUserHandler(userService)
	tokenHandler := authhdl.NewTokenHandler(sessionService, tokenService)
	badgerHandler := authhdl.NewBadgerHandler(badgerService, serviceAccountService, sessionService)

	requireAuth := []fiber.Handler{middleware.RequireAuth()}
	adminOnly := []fiber.Handler{middleware.RequireAuth(), middleware.RequireAdmin()}

	// Đăng nhập local: không cần token
	router.RegisterRouteWithMiddleware(v1, "/auth", "POST", "/make-token", nil, tokenHandler.HandleMakeToken)

	// Client gửi subclient token lấy từ IdP để server lưu lại
	router.RegisterRouteWithMiddleware(v1, "/blender-id", "POST", "/store-scst", nil, tokenHandler.HandleStoreSubclientToken)

	// Các route của phiên hiện tại
	router.RegisterRouteWithMiddleware(v1, "/auth", "GET", "/validate-token", requireAuth, tokenHandler.HandleValidateToken)
	router.RegisterRouteWithMiddleware(v1, "/auth", "POST", "/logout", requireAuth, tokenHandler.HandleLogout)
	router.RegisterRouteWithMiddleware(v1, "/users", "GET", "/me", requireAuth, userHandler.HandleMe)
	router.RegisterRouteWithMiddleware(v1, "/users", "PATCH", "/me", requireAuth, userHandler.HandleUpdateMe)

	// Badger: caller phải là service account, kiểm tra chi tiết nằm trong service
	router.RegisterRouteWithMiddleware(v1, "/badger", "POST", "/", requireAuth, badgerHandler.HandleBadger)

	// Đồng bộ role subscription của user hiện tại với hồ sơ IdP
	subscriptionHandler := authhdl.NewSubscriptionHandler(subscriptionService)
	router.RegisterRouteWithMiddleware(v1, "/subscriptions", "POST", "/update", requireAuth, subscriptionHandler.HandleUpdateSubscription)

	// Quản trị
	router.RegisterRouteWithMiddleware(v1, "/service-accounts", "POST", "/", adminOnly, badgerHandler.HandleCreateServiceAccount)
	router.RegisterRouteWithMiddleware(v1, "/local-users", "POST", "/", adminOnly, badgerHandler.HandleCreateLocalUser)

	// CRUD user cho admin
	r.RegisterCRUDRoutes(v1, "/users", userHandler, router.ReadWriteConfig, adminOnly, adminOnly)

	return nil
}
