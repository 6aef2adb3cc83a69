// Package projecthdl - handler HTTP cho domain project.
package projecthdl

import (
	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	basehdl "github.com/armadillica/pillar-sub000/internal/api/base/handler"
	basesvc "github.com/armadillica/pillar-sub000/internal/api/base/service"
	"github.com/armadillica/pillar-sub000/internal/api/middleware"
	projectdto "github.com/armadillica/pillar-sub000/internal/api/project/dto"
	models "github.com/armadillica/pillar-sub000/internal/api/project/models"
	projectsvc "github.com/armadillica/pillar-sub000/internal/api/project/service"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/utility"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectHandler xử lý route project.
type ProjectHandler struct {
	*basehdl.BaseHandler[models.Project, projectdto.ProjectCreateInput, projectdto.ProjectUpdateInput]
	projectService *projectsvc.ProjectService
}

// NewProjectHandler tạo ProjectHandler.
func NewProjectHandler(projectService *projectsvc.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		BaseHandler:    basehdl.NewBaseHandler[models.Project, projectdto.ProjectCreateInput, projectdto.ProjectUpdateInput](projectService),
		projectService: projectService,
	}
}

// HandleCreate tạo project mới, owner là user đang đăng nhập.
func (h *ProjectHandler) HandleCreate(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		session := middleware.GetSession(c)
		if session == nil {
			h.HandleResponse(c, nil, common.ErrTokenMissing)
			return nil
		}

		var input projectdto.ProjectCreateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		project, err := h.projectService.CreateProject(c.Context(), input.Name, input.Category, session)
		h.HandleResponse(c, project, err)
		return nil
	})
}

// HandleGet trả về một project nếu caller có quyền GET theo permission engine.
// Anonymous vẫn xem được project công khai (world chứa GET).
func (h *ProjectHandler) HandleGet(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		project, ok := h.loadProject(c)
		if !ok {
			return nil
		}
		session := middleware.GetSession(c)

		inspector := projectsvc.NewPermissionInspector(h.projectService)
		allowed := inspector.ProjectMethods(&project, c.Query("node_type"), session)
		if !projectsvc.HasMethod(allowed, "GET") {
			h.HandleResponse(c, nil, common.ErrForbidden)
			return nil
		}

		h.HandleResponse(c, fiber.Map{
			"project":         project,
			"allowed_methods": allowed,
		}, nil)
		return nil
	})
}

// HandleUpdate cập nhật project qua PUT; caller cần quyền PUT.
func (h *ProjectHandler) HandleUpdate(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		project, ok := h.loadProject(c)
		if !ok {
			return nil
		}
		session := middleware.GetSession(c)
		if !h.requireMethod(c, &project, session, "PUT") {
			return nil
		}

		var input projectdto.ProjectUpdateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		model, err := h.TransformUpdateInputToModel(&input)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		data, err := basesvc.ToUpdateData(model)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		updated, err := h.projectService.UpdateProject(c.Context(), project.ID, data)
		h.HandleResponse(c, updated, err)
		return nil
	})
}

// HandleDelete soft-delete project; caller cần quyền DELETE.
func (h *ProjectHandler) HandleDelete(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		project, ok := h.loadProject(c)
		if !ok {
			return nil
		}
		session := middleware.GetSession(c)
		if !h.requireMethod(c, &project, session, "DELETE") {
			return nil
		}

		err := h.projectService.SoftDelete(c.Context(), project.ID)
		h.HandleResponse(c, fiber.Map{"deleted": err == nil}, err)
		return nil
	})
}

// HandleListPublic liệt kê project công khai, chưa xoá.
func (h *ProjectHandler) HandleListPublic(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		projects, err := h.projectService.Find(c.Context(), bson.M{
			"is_private": false,
			"_deleted":   bson.M{"$ne": true},
		}, nil)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if projects == nil {
			projects = []models.Project{}
		}
		h.HandleResponse(c, projects, nil)
		return nil
	})
}

// loadProject đọc :id, tra project chưa xoá; đã xử lý response khi lỗi.
func (h *ProjectHandler) loadProject(c fiber.Ctx) (models.Project, bool) {
	idParam := h.GetIDFromContext(c)
	if !primitive.IsValidObjectID(idParam) {
		h.HandleResponse(c, nil, common.ErrInvalidInput)
		return models.Project{}, false
	}

	project, err := h.projectService.FindActiveById(c.Context(), utility.String2ObjectID(idParam))
	if err != nil {
		h.HandleResponse(c, nil, err)
		return models.Project{}, false
	}
	return project, true
}

// requireMethod kiểm tra quyền theo permission engine; đã xử lý response khi bị chặn.
func (h *ProjectHandler) requireMethod(c fiber.Ctx, project *models.Project, session *authsvc.AuthSession, method string) bool {
	inspector := projectsvc.NewPermissionInspector(h.projectService)
	allowed := inspector.ProjectMethods(project, "", session)
	if !projectsvc.HasMethod(allowed, method) {
		h.HandleResponse(c, nil, common.ErrForbidden)
		return false
	}
	return true
}
