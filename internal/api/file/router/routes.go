// Package filerouter đăng ký route cho domain file.
package filerouter

import (
	"sync"

	filehdl "github.com/armadillica/pillar-sub000/internal/api/file/handler"
	filesvc "github.com/armadillica/pillar-sub000/internal/api/file/service"
	"github.com/armadillica/pillar-sub000/internal/api/middleware"
	projectrouter "github.com/armadillica/pillar-sub000/internal/api/project/router"
	"github.com/armadillica/pillar-sub000/internal/api/router"

	"github.com/gofiber/fiber/v3"
)

var (
	servicesOnce sync.Once
	servicesErr  error

	fileService *filesvc.FileService
)

func ensureServices() error {
	servicesOnce.Do(func() {
		fileService, servicesErr = filesvc.NewFileService(projectrouter.ProjectSvc())
	})
	return servicesErr
}

// FileSvc trả về FileService dùng chung (sau khi Register đã chạy).
func FileSvc() *filesvc.FileService {
	return fileService
}

// Register đăng ký route file. Chạy sau auth và project router.
func Register(v1 fiber.Router, r *router.Router) error {
	if err := ensureServices(); err != nil {
		return err
	}

	handler := filehdl.NewFileHandler(fileService)

	loadAuth := []fiber.Handler{middleware.LoadAuth()}
	requireAuth := []fiber.Handler{middleware.RequireAuth()}
	adminOnly := []fiber.Handler{middleware.RequireAuth(), middleware.RequireAdmin()}

	// CRUD thô cho admin, đăng ký trước route /:id
	r.RegisterCRUDRoutes(v1, "/files", handler, router.ReadWriteConfig, adminOnly, adminOnly)

	// Quản trị: migrate backend, merge project, quét file mồ côi
	router.RegisterRouteWithMiddleware(v1, "/files", "POST", "/merge-project", adminOnly, handler.HandleMergeProject)
	router.RegisterRouteWithMiddleware(v1, "/files", "GET", "/orphans/:project_id", adminOnly, handler.HandleOrphans)
	router.RegisterRouteWithMiddleware(v1, "/files", "PATCH", "/:id/change-backend", adminOnly, handler.HandleChangeBackend)
	router.RegisterRouteWithMiddleware(v1, "/files", "PATCH", "/:id/move-to-project", adminOnly, handler.HandleMoveToProject)

	// Upload và đọc metadata
	router.RegisterRouteWithMiddleware(v1, "/files", "POST", "/stream/:project_id", requireAuth, handler.HandleStreamUpload)
	router.RegisterRouteWithMiddleware(v1, "/files", "GET", "/:id", loadAuth, handler.HandleGet)

	// Serve blob của backend local, link do GenerateLink sinh ra trỏ về đây
	router.RegisterRouteWithMiddleware(v1, "/storage", "GET", "/file/:bucket/:blob", nil, handler.HandleServeLocal)

	return nil
}
