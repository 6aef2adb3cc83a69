// Package nodehdl - handler HTTP cho domain node.
package nodehdl

import (
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	basehdl "github.com/armadillica/pillar-sub000/internal/api/base/handler"
	"github.com/armadillica/pillar-sub000/internal/api/middleware"
	nodedto "github.com/armadillica/pillar-sub000/internal/api/node/dto"
	models "github.com/armadillica/pillar-sub000/internal/api/node/models"
	nodesvc "github.com/armadillica/pillar-sub000/internal/api/node/service"
	projectsvc "github.com/armadillica/pillar-sub000/internal/api/project/service"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/utility"
)

// NodeHandler xử lý route node.
type NodeHandler struct {
	*basehdl.BaseHandler[models.Node, nodedto.NodeCreateInput, nodedto.NodeUpdateInput]
	nodeService    *nodesvc.NodeService
	projectService *projectsvc.ProjectService
}

// NewNodeHandler tạo NodeHandler.
func NewNodeHandler(nodeService *nodesvc.NodeService, projectService *projectsvc.ProjectService) *NodeHandler {
	return &NodeHandler{
		BaseHandler:    basehdl.NewBaseHandler[models.Node, nodedto.NodeCreateInput, nodedto.NodeUpdateInput](nodeService),
		nodeService:    nodeService,
		projectService: projectService,
	}
}

// HandleCreate tạo node mới; caller cần quyền POST trên node_type trong project.
func (h *NodeHandler) HandleCreate(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		session := middleware.GetSession(c)
		if session == nil {
			h.HandleResponse(c, nil, common.ErrTokenMissing)
			return nil
		}

		var input nodedto.NodeCreateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		node := models.Node{
			Project:     utility.String2ObjectID(input.Project),
			NodeType:    input.NodeType,
			User:        session.User.ID,
			Name:        input.Name,
			Description: input.Description,
			Properties:  bson.M(input.Properties),
		}
		if input.Parent != "" {
			parent := utility.String2ObjectID(input.Parent)
			node.Parent = &parent
		}
		if input.Picture != "" {
			picture := utility.String2ObjectID(input.Picture)
			node.Picture = &picture
		}

		if !h.requireNodeMethod(c, &node, session, "POST") {
			return nil
		}

		created, err := h.nodeService.CreateNode(c.Context(), node)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		basehdl.HandleSuccess(c, common.StatusCreated, created)
		return nil
	})
}

// HandleGet trả về một node nếu caller có quyền GET.
// Node có short_code thì response kèm luôn short_link.
func (h *NodeHandler) HandleGet(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		node, ok := h.loadNode(c)
		if !ok {
			return nil
		}
		session := middleware.GetSession(c)
		if !h.requireNodeMethod(c, &node, session, "GET") {
			return nil
		}

		response := fiber.Map{"node": node}
		if info, hasCode := h.nodeService.ShareInfo(&node); hasCode {
			response["short_link"] = info.ShortLink
		}
		h.HandleResponse(c, response, nil)
		return nil
	})
}

// HandleUpdate cập nhật node qua PUT; caller cần quyền PUT.
func (h *NodeHandler) HandleUpdate(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		node, ok := h.loadNode(c)
		if !ok {
			return nil
		}
		session := middleware.GetSession(c)
		if !h.requireNodeMethod(c, &node, session, "PUT") {
			return nil
		}

		var input nodedto.NodeUpdateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if input.Name != "" {
			node.Name = input.Name
		}
		if input.Description != nil {
			node.Description = *input.Description
		}
		if input.Parent != "" {
			parent := utility.String2ObjectID(input.Parent)
			node.Parent = &parent
		}
		if input.Picture != "" {
			picture := utility.String2ObjectID(input.Picture)
			node.Picture = &picture
		}
		if input.Properties != nil {
			node.Properties = bson.M(input.Properties)
		}

		updated, err := h.nodeService.UpdateNode(c.Context(), &node)
		h.HandleResponse(c, updated, err)
		return nil
	})
}

// HandleDelete soft-delete node; caller cần quyền DELETE.
func (h *NodeHandler) HandleDelete(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		node, ok := h.loadNode(c)
		if !ok {
			return nil
		}
		session := middleware.GetSession(c)
		if !h.requireNodeMethod(c, &node, session, "DELETE") {
			return nil
		}

		err := h.nodeService.SoftDelete(c.Context(), node.ID)
		h.HandleResponse(c, fiber.Map{"deleted": err == nil}, err)
		return nil
	})
}

// HandleShare xử lý chia sẻ node qua short link.
// POST cấp short code (nếu chưa có) và trả 201; GET trả thông tin chia sẻ
// hiện có, node chưa được chia sẻ thì trả 204.
func (h *NodeHandler) HandleShare(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		node, ok := h.loadNode(c)
		if !ok {
			return nil
		}

		if c.Method() == fiber.MethodGet {
			info, hasCode := h.nodeService.ShareInfo(&node)
			if !hasCode {
				return c.SendStatus(fiber.StatusNoContent)
			}
			h.HandleResponse(c, info, nil)
			return nil
		}

		info, err := h.nodeService.ShareNode(c.Context(), node.ID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		basehdl.HandleSuccess(c, common.StatusCreated, info)
		return nil
	})
}

// HandleTagged liệt kê các node public mang một tag.
func (h *NodeHandler) HandleTagged(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		tag := c.Params("tag")
		if tag == "" {
			h.HandleResponse(c, nil, common.ErrNotFound)
			return nil
		}
		nodes, err := h.nodeService.FindTagged(c.Context(), tag)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if nodes == nil {
			nodes = []bson.M{}
		}
		h.HandleResponse(c, nodes, nil)
		return nil
	})
}

// loadNode đọc :id, tra node chưa xoá; đã xử lý response khi lỗi.
func (h *NodeHandler) loadNode(c fiber.Ctx) (models.Node, bool) {
	idParam := h.GetIDFromContext(c)
	if !primitive.IsValidObjectID(idParam) {
		h.HandleResponse(c, nil, common.ErrInvalidInput)
		return models.Node{}, false
	}

	node, err := h.nodeService.FindActiveById(c.Context(), utility.String2ObjectID(idParam))
	if err != nil {
		h.HandleResponse(c, nil, err)
		return models.Node{}, false
	}
	return node, true
}

// requireNodeMethod kiểm tra quyền trên node theo permission engine:
// merge ACL của project, node_type và node rồi so với method yêu cầu.
func (h *NodeHandler) requireNodeMethod(c fiber.Ctx, node *models.Node, session *authsvc.AuthSession, method string) bool {
	inspector := projectsvc.NewPermissionInspector(h.projectService)
	allowed, err := inspector.NodeMethods(c.Context(), node.Project, node.NodeType, node.Permissions, session)
	if err != nil {
		h.HandleResponse(c, nil, err)
		return false
	}
	if !projectsvc.HasMethod(allowed, method) {
		h.HandleResponse(c, nil, common.ErrForbidden)
		return false
	}
	return true
}
