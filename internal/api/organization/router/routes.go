// Package orgrouter đăng ký route cho domain organization và gắn
// các hook liên quan tới role tổ chức vào pipeline xác thực.
package orgrouter

import (
	"context"
	"net"
	"sync"
	"time"

	authrouter "github.com/armadillica/pillar-sub000/internal/api/auth/router"
	"github.com/armadillica/pillar-sub000/internal/api/events"
	"github.com/armadillica/pillar-sub000/internal/api/middleware"
	orghdl "github.com/armadillica/pillar-sub000/internal/api/organization/handler"
	orgsvc "github.com/armadillica/pillar-sub000/internal/api/organization/service"
	"github.com/armadillica/pillar-sub000/internal/api/router"
	"github.com/armadillica/pillar-sub000/internal/global"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	servicesOnce sync.Once
	servicesErr  error

	orgService *orgsvc.OrganizationService
)

func ensureServices() error {
	servicesOnce.Do(func() {
		users := authrouter.UserSvc()
		orgService, servicesErr = orgsvc.NewOrganizationService(users)
	})
	return servicesErr
}

// OrgSvc trả về OrganizationService dùng chung (sau khi Register đã chạy).
func OrgSvc() *orgsvc.OrganizationService {
	return orgService
}

// Register đăng ký route organization. Phải chạy SAU auth/router.Register
// vì cần UserService và SessionService đã khởi tạo.
func Register(v1 fiber.Router, r *router.Router) error {
	if err := ensureServices(); err != nil {
		return err
	}

	// Role theo IP: SessionService gọi hook này khi cấp token mới
	// để gắn org_roles của các tổ chức có dải IP chứa địa chỉ request.
	authrouter.SessionSvc().SetOrgRoleResolver(
		func(ctx context.Context, userID primitive.ObjectID, remoteIP net.IP) ([]string, error) {
			return orgService.RolesForIP(ctx, remoteIP)
		})

	// User mới được tạo (lần đầu xác thực qua IdP) có thể đang nằm trong
	// unknown_members của một tổ chức: promote sang members và cấp role.
	users := authrouter.UserSvc()
	events.OnDataChanged(global.MongoDB_ColNames.Users, func(evt events.DataChangeEvent) {
		if evt.Operation != events.OpInsert {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		user, err := users.FindOneById(ctx, evt.DocumentID)
		if err != nil || user.Email == "" {
			return
		}
		if err := orgService.MakeMemberKnown(ctx, user.ID, user.Email); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": user.ID.Hex(),
				"error":   err,
			}).Warn("⚠️ [ORG] Không promote được thành viên unknown sau khi tạo user")
		}
	})

	handler := orghdl.NewOrganizationHandler(orgService)

	requireAuth := []fiber.Handler{middleware.RequireAuth()}
	adminOnly := []fiber.Handler{middleware.RequireAuth(), middleware.RequireAdmin()}

	router.RegisterRouteWithMiddleware(v1, "/organizations", "POST", "/", requireAuth, handler.HandleCreate)
	router.RegisterRouteWithMiddleware(v1, "/organizations", "GET", "/mine", requireAuth, handler.HandleListMine)
	router.RegisterRouteWithMiddleware(v1, "/organizations", "PATCH", "/:id", requireAuth, handler.HandlePatch)

	// CRUD đầy đủ cho admin
	r.RegisterCRUDRoutes(v1, "/organizations", handler, router.ReadWriteConfig, adminOnly, adminOnly)

	return nil
}
