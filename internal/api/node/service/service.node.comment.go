package nodesvc

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	basesvc "github.com/armadillica/pillar-sub000/internal/api/base/service"
	models "github.com/armadillica/pillar-sub000/internal/api/node/models"
	"github.com/armadillica/pillar-sub000/internal/common"
)

// Các op PATCH hợp lệ trên comment
const (
	CommentOpUpvote   = "upvote"
	CommentOpDownvote = "downvote"
	CommentOpRevoke   = "revoke"
	CommentOpEdit     = "edit"
)

// CommentRatings là bộ đếm vote trả về cho client sau mỗi thao tác
type CommentRatings struct {
	RatingPositive int `json:"rating_positive"`
	RatingNegative int `json:"rating_negative"`
}

// CreateComment tạo comment node dưới một node cha.
func (s *NodeService) CreateComment(ctx context.Context, session *authsvc.AuthSession, parent models.Node, content string) (models.Node, error) {
	comment := models.Node{
		Project:  parent.Project,
		NodeType: models.NodeTypeComment,
		Parent:   &parent.ID,
		User:     session.User.ID,
		Name:     "Comment",
		Properties: bson.M{
			"content":         content,
			"status":          "published",
			"rating_positive": 0,
			"rating_negative": 0,
		},
	}
	return s.CreateNode(ctx, comment)
}

// EditComment sửa nội dung comment. User chỉ được sửa comment của chính
// mình, admin sửa được tất cả.
func (s *NodeService) EditComment(ctx context.Context, session *authsvc.AuthSession, commentID primitive.ObjectID, content string) (models.Node, error) {
	comment, err := s.FindActiveById(ctx, commentID)
	if err != nil {
		return models.Node{}, err
	}
	if comment.NodeType != models.NodeTypeComment {
		return models.Node{}, common.ErrInvalidInput
	}
	if comment.User != session.User.ID && !session.IsAdmin() {
		logrus.Warnf("⚠️ [NODE] User %s cố sửa comment %s của người khác",
			session.User.ID.Hex(), commentID.Hex())
		return models.Node{}, common.NewError(
			common.ErrCodePermission,
			"Chỉ được sửa comment của chính mình",
			common.StatusForbidden,
			nil,
		)
	}

	comment.Properties["content"] = content
	if err := s.renderMarkdownFields(ctx, &comment); err != nil {
		return models.Node{}, err
	}
	return s.UpdateById(ctx, commentID, &basesvc.UpdateData{
		Set: bson.M{"properties": comment.Properties},
	})
}

// VoteComment xử lý một op vote trên comment với ngữ nghĩa toggle:
// vote trùng là no-op, vote ngược chiều lật entry cũ, revoke xóa entry.
// Bộ đếm luôn được tính lại từ danh sách ratings.
func (s *NodeService) VoteComment(ctx context.Context, session *authsvc.AuthSession, commentID primitive.ObjectID, op string) (CommentRatings, error) {
	comment, err := s.FindActiveById(ctx, commentID)
	if err != nil {
		return CommentRatings{}, err
	}
	if comment.NodeType != models.NodeTypeComment {
		return CommentRatings{}, common.ErrInvalidInput
	}
	if comment.User == session.User.ID {
		return CommentRatings{}, common.ErrOwnCommentVote
	}

	ratings := comment.Ratings()
	existingIdx := -1
	for i := range ratings {
		if ratings[i].User == session.User.ID {
			existingIdx = i
			break
		}
	}

	changed := false
	switch op {
	case CommentOpUpvote, CommentOpDownvote:
		isPositive := op == CommentOpUpvote
		if existingIdx < 0 {
			ratings = append(ratings, models.Rating{User: session.User.ID, IsPositive: isPositive})
			changed = true
		} else if ratings[existingIdx].IsPositive != isPositive {
			ratings[existingIdx].IsPositive = isPositive
			changed = true
		}
	case CommentOpRevoke:
		if existingIdx >= 0 {
			ratings = append(ratings[:existingIdx], ratings[existingIdx+1:]...)
			changed = true
		}
	default:
		return CommentRatings{}, common.NewError(
			common.ErrCodeValidationInput,
			"Op không hợp lệ, chỉ chấp nhận upvote/downvote/revoke",
			common.StatusBadRequest,
			nil,
		)
	}

	counters := deriveRatingCounters(ratings)
	if !changed {
		return counters, nil
	}

	ratingDocs := make(bson.A, 0, len(ratings))
	for _, r := range ratings {
		ratingDocs = append(ratingDocs, bson.M{"user": r.User, "is_positive": r.IsPositive})
	}
	_, err = s.UpdateById(ctx, commentID, &basesvc.UpdateData{
		Set: bson.M{
			"properties.ratings":         ratingDocs,
			"properties.rating_positive": counters.RatingPositive,
			"properties.rating_negative": counters.RatingNegative,
		},
	})
	if err != nil {
		return CommentRatings{}, err
	}
	logrus.Infof("✅ [NODE] User %s đã %s comment %s", session.User.ID.Hex(), op, commentID.Hex())
	return counters, nil
}

// ListComments trả về các comment con trực tiếp của một node, cũ nhất trước.
func (s *NodeService) ListComments(ctx context.Context, parentID primitive.ObjectID) ([]models.Node, error) {
	return s.Find(ctx, bson.M{
		"node_type": models.NodeTypeComment,
		"parent":    parentID,
		"_deleted":  bson.M{"$ne": true},
	}, nil)
}

// deriveRatingCounters tính bộ đếm từ danh sách ratings
func deriveRatingCounters(ratings []models.Rating) CommentRatings {
	var counters CommentRatings
	for _, r := range ratings {
		if r.IsPositive {
			counters.RatingPositive++
		} else {
			counters.RatingNegative++
		}
	}
	return counters
}
