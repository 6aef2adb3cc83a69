// Package noderouter đăng ký route cho domain node.
package noderouter

import (
	"sync"

	filerouter "github.com/armadillica/pillar-sub000/internal/api/file/router"
	"github.com/armadillica/pillar-sub000/internal/api/middleware"
	nodehdl "github.com/armadillica/pillar-sub000/internal/api/node/handler"
	nodesvc "github.com/armadillica/pillar-sub000/internal/api/node/service"
	projectrouter "github.com/armadillica/pillar-sub000/internal/api/project/router"
	"github.com/armadillica/pillar-sub000/internal/api/router"

	"github.com/gofiber/fiber/v3"
)

var (
	servicesOnce sync.Once
	servicesErr  error

	nodeService *nodesvc.NodeService
)

func ensureServices() error {
	servicesOnce.Do(func() {
		nodeService, servicesErr = nodesvc.NewNodeService(filerouter.FileSvc(), projectrouter.ProjectSvc())
	})
	return servicesErr
}

// NodeSvc trả về NodeService dùng chung (sau khi Register đã chạy).
func NodeSvc() *nodesvc.NodeService {
	return nodeService
}

// Register đăng ký route node. Chạy sau auth, project và file router.
func Register(v1 fiber.Router, r *router.Router) error {
	if err := ensureServices(); err != nil {
		return err
	}

	handler := nodehdl.NewNodeHandler(nodeService, projectrouter.ProjectSvc())

	loadAuth := []fiber.Handler{middleware.LoadAuth()}
	requireAuth := []fiber.Handler{middleware.RequireAuth()}
	adminOnly := []fiber.Handler{middleware.RequireAuth(), middleware.RequireAdmin()}
	sharers := []fiber.Handler{middleware.RequireAuth(), middleware.RequireRoles("subscriber", "demo", "admin")}

	// CRUD cho admin đăng ký trước để các path tĩnh không bị route /:id nuốt mất
	r.RegisterCRUDRoutes(v1, "/nodes", handler, router.ReadWriteConfig, adminOnly, adminOnly)

	// Đọc: permission engine quyết định, anonymous vẫn qua được LoadAuth
	router.RegisterRouteWithMiddleware(v1, "/nodes", "GET", "/tagged/:tag", loadAuth, handler.HandleTagged)
	router.RegisterRouteWithMiddleware(v1, "/nodes", "GET", "/:id", loadAuth, handler.HandleGet)
	router.RegisterRouteWithMiddleware(v1, "/nodes", "GET", "/:id/comments", loadAuth, handler.HandleListComments)

	// Mutation
	router.RegisterRouteWithMiddleware(v1, "/nodes", "POST", "/", requireAuth, handler.HandleCreate)
	router.RegisterRouteWithMiddleware(v1, "/nodes", "PUT", "/:id", requireAuth, handler.HandleUpdate)
	router.RegisterRouteWithMiddleware(v1, "/nodes", "DELETE", "/:id", requireAuth, handler.HandleDelete)
	router.RegisterRouteWithMiddleware(v1, "/nodes", "POST", "/:id/comments", requireAuth, handler.HandleCreateComment)
	router.RegisterRouteWithMiddleware(v1, "/nodes", "PATCH", "/:id/comments/:cid", requireAuth, handler.HandlePatchComment)

	// Chia sẻ qua short link, chỉ cho subscriber/demo
	router.RegisterRouteWithMiddleware(v1, "/nodes", "GET", "/:id/share", sharers, handler.HandleShare)
	router.RegisterRouteWithMiddleware(v1, "/nodes", "POST", "/:id/share", sharers, handler.HandleShare)

	return nil
}
