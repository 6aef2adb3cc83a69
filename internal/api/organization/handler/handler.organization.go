// Package orghdl - handler HTTP cho domain organization.
package orghdl

import (
	"strings"

	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	basehdl "github.com/armadillica/pillar-sub000/internal/api/base/handler"
	basesvc "github.com/armadillica/pillar-sub000/internal/api/base/service"
	"github.com/armadillica/pillar-sub000/internal/api/middleware"
	orgdto "github.com/armadillica/pillar-sub000/internal/api/organization/dto"
	models "github.com/armadillica/pillar-sub000/internal/api/organization/models"
	orgsvc "github.com/armadillica/pillar-sub000/internal/api/organization/service"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"
	"github.com/armadillica/pillar-sub000/internal/utility"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrganizationHandler xử lý route tổ chức.
type OrganizationHandler struct {
	*basehdl.BaseHandler[models.Organization, orgdto.OrganizationCreateInput, orgdto.OrganizationUpdateInput]
	orgService *orgsvc.OrganizationService
}

// NewOrganizationHandler tạo OrganizationHandler.
func NewOrganizationHandler(orgService *orgsvc.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{
		BaseHandler: basehdl.NewBaseHandler[models.Organization, orgdto.OrganizationCreateInput, orgdto.OrganizationUpdateInput](orgService),
		orgService:  orgService,
	}
}

// HandleCreate tạo tổ chức mới; caller cần capability create-organization.
func (h *OrganizationHandler) HandleCreate(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		session := middleware.GetSession(c)
		if session == nil {
			h.HandleResponse(c, nil, common.ErrTokenMissing)
			return nil
		}
		if !session.HasCap(authsvc.CapCreateOrganization) {
			h.HandleResponse(c, nil, common.ErrCapRequired)
			return nil
		}

		var input orgdto.OrganizationCreateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		org, err := h.orgService.CreateOrganization(c.Context(), input.Name, session.User.ID, input.SeatCount, input.OrgRoles)
		h.HandleResponse(c, org, err)
		return nil
	})
}

// HandleListMine liệt kê các tổ chức caller là admin hoặc thành viên.
// Platform admin thấy tất cả.
func (h *OrganizationHandler) HandleListMine(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		session := middleware.GetSession(c)
		if session == nil {
			h.HandleResponse(c, nil, common.ErrTokenMissing)
			return nil
		}

		filter := bson.M{}
		if !session.IsAdmin() {
			filter["$or"] = []bson.M{
				{"admin_uid": session.User.ID},
				{"members": session.User.ID},
			}
		}

		orgs, err := h.orgService.Find(c.Context(), filter, nil)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if orgs == nil {
			orgs = []models.Organization{}
		}
		h.HandleResponse(c, orgs, nil)
		return nil
	})
}

// HandlePatch thực hiện một thao tác PATCH có tên trên tổ chức.
// Caller phải là admin của tổ chức (platform admin luôn được phép).
func (h *OrganizationHandler) HandlePatch(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		session := middleware.GetSession(c)
		if session == nil {
			h.HandleResponse(c, nil, common.ErrTokenMissing)
			return nil
		}

		idParam := h.GetIDFromContext(c)
		if !primitive.IsValidObjectID(idParam) {
			h.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}
		orgID := utility.String2ObjectID(idParam)

		var input orgdto.PatchInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		org, err := h.orgService.FindOneById(c.Context(), orgID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if !session.IsAdmin() && !org.IsAdmin(session.User.ID) {
			h.HandleResponse(c, nil, common.ErrForbidden)
			return nil
		}

		switch input.Op {
		case "assign-users":
			updated, err := h.orgService.AssignUsers(c.Context(), orgID, input.Emails)
			h.HandleResponse(c, updated, err)

		case "assign-user":
			updated, err := h.orgService.AssignSingleUser(c.Context(), orgID, utility.String2ObjectID(input.UserID))
			h.HandleResponse(c, updated, err)

		case "remove-user":
			updated, err := h.orgService.RemoveUser(c.Context(), orgID, utility.String2ObjectID(input.UserID), input.Email)
			h.HandleResponse(c, updated, err)

		case "assign-admin":
			// Chỉ admin hiện tại (hoặc platform admin) được chuyển quyền,
			// điều kiện đó đã kiểm tra ở trên
			err := h.orgService.AssignAdmin(c.Context(), orgID, utility.String2ObjectID(input.UserID))
			h.HandleResponse(c, fiber.Map{"assigned": err == nil}, err)

		case "edit-from-web":
			h.patchEditFromWeb(c, session, orgID, &input)

		default:
			h.HandleResponse(c, nil, common.ErrInvalidInput)
		}
		return nil
	})
}

// patchEditFromWeb cập nhật các field sửa được từ web.
// seat_count và org_roles chỉ platform admin được sửa.
func (h *OrganizationHandler) patchEditFromWeb(c fiber.Ctx, session *authsvc.AuthSession, orgID primitive.ObjectID, input *orgdto.PatchInput) {
	set := bson.M{
		"name":        strings.TrimSpace(input.Name),
		"description": strings.TrimSpace(input.Description),
		"website":     strings.TrimSpace(input.Website),
		"location":    strings.TrimSpace(input.Location),
	}

	if input.IPRanges != nil {
		cfg := global.ServerConfig
		ranges := make([]models.IPRange, 0, len(input.IPRanges))
		for _, cidr := range input.IPRanges {
			r, err := orgsvc.ParseIPRange(cidr, cfg.OrgsIPRangeMinPrefixV4, cfg.OrgsIPRangeMinPrefixV6)
			if err != nil {
				h.HandleResponse(c, nil, err)
				return
			}
			ranges = append(ranges, r)
		}
		set["ip_ranges"] = ranges
	}

	if session.IsAdmin() {
		if input.SeatCount != nil {
			set["seat_count"] = *input.SeatCount
		}
		if input.OrgRoles != nil {
			set["org_roles"] = input.OrgRoles
		}
	}

	updated, err := h.orgService.UpdateById(c.Context(), orgID, &basesvc.UpdateData{Set: set})
	h.HandleResponse(c, updated, err)
}
