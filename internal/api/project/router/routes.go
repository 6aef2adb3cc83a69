// Package projectrouter đăng ký route cho domain project.
package projectrouter

import (
	"sync"

	authrouter "github.com/armadillica/pillar-sub000/internal/api/auth/router"
	"github.com/armadillica/pillar-sub000/internal/api/middleware"
	projecthdl "github.com/armadillica/pillar-sub000/internal/api/project/handler"
	projectsvc "github.com/armadillica/pillar-sub000/internal/api/project/service"
	"github.com/armadillica/pillar-sub000/internal/api/router"

	"github.com/gofiber/fiber/v3"
)

var (
	servicesOnce sync.Once
	servicesErr  error

	projectService *projectsvc.ProjectService
)

func ensureServices() error {
	servicesOnce.Do(func() {
		projectService, servicesErr = projectsvc.NewProjectService(authrouter.UserSvc())
	})
	return servicesErr
}

// ProjectSvc trả về ProjectService dùng chung (sau khi Register đã chạy).
func ProjectSvc() *projectsvc.ProjectService {
	return projectService
}

// Register đăng ký route project. Chạy sau auth/router.Register.
func Register(v1 fiber.Router, r *router.Router) error {
	if err := ensureServices(); err != nil {
		return err
	}

	handler := projecthdl.NewProjectHandler(projectService)

	loadAuth := []fiber.Handler{middleware.LoadAuth()}
	requireAuth := []fiber.Handler{middleware.RequireAuth()}
	adminOnly := []fiber.Handler{middleware.RequireAuth(), middleware.RequireAdmin()}

	// CRUD cho admin đăng ký trước để các path tĩnh không bị route /:id nuốt mất
	r.RegisterCRUDRoutes(v1, "/projects", handler, router.ReadWriteConfig, adminOnly, adminOnly)

	// Đọc công khai: permission engine quyết định, anonymous vẫn qua được LoadAuth
	router.RegisterRouteWithMiddleware(v1, "/projects", "GET", "/public", loadAuth, handler.HandleListPublic)
	router.RegisterRouteWithMiddleware(v1, "/projects", "GET", "/:id", loadAuth, handler.HandleGet)

	// Mutation qua PUT, project không hỗ trợ PATCH
	router.RegisterRouteWithMiddleware(v1, "/projects", "POST", "/", requireAuth, handler.HandleCreate)
	router.RegisterRouteWithMiddleware(v1, "/projects", "PUT", "/:id", requireAuth, handler.HandleUpdate)
	router.RegisterRouteWithMiddleware(v1, "/projects", "DELETE", "/:id", requireAuth, handler.HandleDelete)

	return nil
}
