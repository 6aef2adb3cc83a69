package nodehdl

import (
	"github.com/gofiber/fiber/v3"

	basehdl "github.com/armadillica/pillar-sub000/internal/api/base/handler"
	"github.com/armadillica/pillar-sub000/internal/api/middleware"
	nodedto "github.com/armadillica/pillar-sub000/internal/api/node/dto"
	models "github.com/armadillica/pillar-sub000/internal/api/node/models"
	nodesvc "github.com/armadillica/pillar-sub000/internal/api/node/service"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/utility"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// rolesForCommentVoting - chỉ subscriber và demo user được vote comment
var rolesForCommentVoting = []string{"subscriber", "demo"}

// HandleListComments trả về các comment con trực tiếp của một node.
func (h *NodeHandler) HandleListComments(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		node, ok := h.loadNode(c)
		if !ok {
			return nil
		}
		session := middleware.GetSession(c)
		if !h.requireNodeMethod(c, &node, session, "GET") {
			return nil
		}

		comments, err := h.nodeService.ListComments(c.Context(), node.ID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if comments == nil {
			comments = []models.Node{}
		}
		h.HandleResponse(c, comments, nil)
		return nil
	})
}

// HandleCreateComment tạo comment mới dưới một node.
func (h *NodeHandler) HandleCreateComment(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		session := middleware.GetSession(c)
		if session == nil {
			h.HandleResponse(c, nil, common.ErrTokenMissing)
			return nil
		}
		parent, ok := h.loadNode(c)
		if !ok {
			return nil
		}

		var input nodedto.CommentCreateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		// Quyền POST xét trên node_type comment của project chứa node cha
		commentNode := models.Node{Project: parent.Project, NodeType: models.NodeTypeComment}
		if !h.requireNodeMethod(c, &commentNode, session, "POST") {
			return nil
		}

		comment, err := h.nodeService.CreateComment(c.Context(), session, parent, input.Content)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		basehdl.HandleSuccess(c, common.StatusCreated, comment)
		return nil
	})
}

// HandlePatchComment xử lý PATCH trên comment: vote (upvote/downvote/revoke)
// hoặc edit. Vote cần role subscriber/demo; edit chỉ cho chính chủ và admin.
func (h *NodeHandler) HandlePatchComment(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		session := middleware.GetSession(c)
		if session == nil {
			h.HandleResponse(c, nil, common.ErrTokenMissing)
			return nil
		}

		idParam := c.Params("cid")
		if !primitive.IsValidObjectID(idParam) {
			h.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}
		commentID := utility.String2ObjectID(idParam)

		var input nodedto.CommentPatchInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if input.Op == nodesvc.CommentOpEdit {
			updated, err := h.nodeService.EditComment(c.Context(), session, commentID, input.Content)
			h.HandleResponse(c, updated, err)
			return nil
		}

		if !session.HasRole(rolesForCommentVoting...) && !session.IsAdmin() {
			h.HandleResponse(c, nil, common.ErrRoleRequired)
			return nil
		}
		ratings, err := h.nodeService.VoteComment(c.Context(), session, commentID, input.Op)
		h.HandleResponse(c, ratings, err)
		return nil
	})
}
