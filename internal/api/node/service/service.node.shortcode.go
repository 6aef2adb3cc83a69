package nodesvc

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "github.com/armadillica/pillar-sub000/internal/api/base/service"
	models "github.com/armadillica/pillar-sub000/internal/api/node/models"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"
	"github.com/armadillica/pillar-sub000/internal/utility"
)

// maxShortCodeAttempts là số lần thử lại khi short code bị trùng
const maxShortCodeAttempts = 10

// ShortLinkInfo là thông tin chia sẻ của một node đã có short code
type ShortLinkInfo struct {
	ShortCode string `json:"short_code"`
	ShortLink string `json:"short_link"`
}

// ShortLinkFor ghép short URL từ base URL cấu hình và short code.
func ShortLinkFor(shortCode string) string {
	base := global.ServerConfig.ShortLinkBaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + shortCode
}

// ShareInfo trả về thông tin chia sẻ của node, hoặc ok=false nếu chưa có short code.
func (s *NodeService) ShareInfo(node *models.Node) (ShortLinkInfo, bool) {
	if node.ShortCode == "" {
		return ShortLinkInfo{}, false
	}
	return ShortLinkInfo{
		ShortCode: node.ShortCode,
		ShortLink: ShortLinkFor(node.ShortCode),
	}, true
}

// ShareNode cấp short code cho node (nếu chưa có) và mở quyền GET cho world
// để link chia sẻ xem được mà không cần đăng nhập.
func (s *NodeService) ShareNode(ctx context.Context, nodeID primitive.ObjectID) (ShortLinkInfo, error) {
	node, err := s.FindActiveById(ctx, nodeID)
	if err != nil {
		return ShortLinkInfo{}, err
	}

	if node.ShortCode == "" {
		code, err := s.generateAndStoreShortCode(ctx, nodeID)
		if err != nil {
			return ShortLinkInfo{}, err
		}
		node.ShortCode = code
	}

	if err := s.makeWorldGettable(ctx, nodeID); err != nil {
		return ShortLinkInfo{}, err
	}

	info, _ := s.ShareInfo(&node)
	return info, nil
}

// generateAndStoreShortCode sinh short code ngẫu nhiên và ghi vào node.
// Unique index trên short_code bắt trùng; trùng thì thử lại với code mới.
func (s *NodeService) generateAndStoreShortCode(ctx context.Context, nodeID primitive.ObjectID) (string, error) {
	for attempt := 1; attempt <= maxShortCodeAttempts; attempt++ {
		code, err := utility.GenerateShortCode(global.ServerConfig.ShortCodeLength)
		if err != nil {
			return "", err
		}
		_, err = s.UpdateById(ctx, nodeID, &basesvc.UpdateData{
			Set: bson.M{"short_code": code},
		})
		if err == nil {
			logrus.Infof("✅ [NODE] Đã gán short code %s cho node %s (lần thử %d)",
				code, nodeID.Hex(), attempt)
			return code, nil
		}
		if !common.IsDuplicate(err) {
			return "", err
		}
		logrus.Warnf("⚠️ [NODE] Short code %s bị trùng, thử lại (%d/%d)",
			code, attempt, maxShortCodeAttempts)
	}
	return "", common.ErrShortCodeExhausted
}

// makeWorldGettable thêm quyền GET cho world vào permissions riêng của node.
func (s *NodeService) makeWorldGettable(ctx context.Context, nodeID primitive.ObjectID) error {
	_, err := s.UpdateById(ctx, nodeID, &basesvc.UpdateData{
		AddToSet: bson.M{"permissions.world": "GET"},
	})
	return err
}
