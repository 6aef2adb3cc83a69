// Package authsvc - service quản lý token xác thực.
package authsvc

import (
	"context"
	"fmt"
	"time"

	models "github.com/armadillica/pillar-sub000/internal/api/auth/models"
	basesvc "github.com/armadillica/pillar-sub000/internal/api/base/service"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"
	"github.com/armadillica/pillar-sub000/internal/utility"

	"github.com/sirupsen/logrus"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Token hết hạn quá lâu sẽ bị dọn khỏi database khi gặp lại
const expiredTokenGracePeriod = 7 * 24 * time.Hour

// TokenService là cấu trúc chứa các phương thức quản lý token
type TokenService struct {
	*basesvc.BaseServiceMongoImpl[models.Token]
	hmacKey []byte
}

// NewTokenService tạo mới TokenService
func NewTokenService() (*TokenService, error) {
	tokenCollection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Tokens)
	if !exist {
		return nil, fmt.Errorf("failed to get tokens collection: %v", common.ErrNotFound)
	}

	return &TokenService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[models.Token](tokenCollection),
		hmacKey:              []byte(global.ServerConfig.AuthTokenHMACKey),
	}, nil
}

// StoreToken lưu một token cho user, chỉ lưu dạng hash.
// Trả về document token đã lưu.
func (s *TokenService) StoreToken(ctx context.Context, userID primitive.ObjectID, token string, expireTime time.Time, isSubclient bool, oauthScopes []string, orgRoles []string) (models.Token, error) {
	doc := models.Token{
		UserID:           userID,
		TokenHashed:      utility.HashAuthToken(token, s.hmacKey),
		ExpireTime:       expireTime.UTC(),
		IsSubclientToken: isSubclient,
		OAuthScopes:      oauthScopes,
		OrgRoles:         orgRoles,
	}
	return s.InsertOne(ctx, doc)
}

// tokenLookup là filter tra token theo hash và cờ subclient.
// Token thường lưu trước khi có field is_subclient_token không mang field
// này nên false phải khớp cả document thiếu field.
func tokenLookup(field, value string, isSubclient bool) bson.M {
	filter := bson.M{field: value}
	if isSubclient {
		filter["is_subclient_token"] = true
	} else {
		filter["is_subclient_token"] = bson.M{"$in": bson.A{false, nil}}
	}
	return filter
}

// FindToken tìm document token theo token thô, cờ subclient phải khớp
// với cách token được lưu. Tìm theo token_hashed trước; document cũ còn
// lưu token thô sẽ được nâng cấp sang dạng hash ngay tại đây.
func (s *TokenService) FindToken(ctx context.Context, token string, isSubclient bool) (models.Token, error) {
	hashed := utility.HashAuthToken(token, s.hmacKey)

	doc, err := s.FindOne(ctx, tokenLookup("token_hashed", hashed, isSubclient), nil)
	if err == nil {
		return doc, nil
	}
	if !common.IsNotFound(err) {
		return models.Token{}, err
	}

	// Document cũ: token còn lưu dạng thô
	doc, err = s.FindOne(ctx, tokenLookup("token", token, isSubclient), nil)
	if err != nil {
		return models.Token{}, err
	}

	// Nâng cấp document: lưu hash, xoá token thô
	upgraded, err := s.UpdateById(ctx, doc.ID, &basesvc.UpdateData{
		Set:   bson.M{"token_hashed": hashed},
		UnSet: bson.M{"token": ""},
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"token_id": doc.ID.Hex(),
			"error":    err,
		}).Warn("⚠️ [AUTH] Không nâng cấp được token cũ sang dạng hash")
		return doc, nil
	}

	logrus.WithField("token_id", doc.ID.Hex()).Info("🔄 [AUTH] Đã nâng cấp token cũ sang dạng hash")
	return upgraded, nil
}

// ValidateToken kiểm tra token còn hiệu lực và trả về document token.
// Token hết hạn trả về lỗi; song song đó dọn các token hết hạn quá lâu.
func (s *TokenService) ValidateToken(ctx context.Context, token string, isSubclient bool) (models.Token, error) {
	doc, err := s.FindToken(ctx, token, isSubclient)
	if err != nil {
		if common.IsNotFound(err) {
			return models.Token{}, common.ErrTokenInvalid
		}
		return models.Token{}, err
	}

	if doc.IsExpired() {
		// Dọn rác không chặn request
		go utility.GoProtect(func() { s.gcExpiredTokens() })
		return models.Token{}, common.ErrTokenExpired
	}

	return doc, nil
}

// DeleteTokensForUser xoá mọi token của một user (đăng xuất tất cả thiết bị)
func (s *TokenService) DeleteTokensForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.DeleteMany(ctx, bson.M{"user": userID})
}

// DeleteToken xoá một token theo giá trị thô (đăng xuất thiết bị hiện tại)
func (s *TokenService) DeleteToken(ctx context.Context, token string) error {
	hashed := utility.HashAuthToken(token, s.hmacKey)
	_, err := s.DeleteMany(ctx, bson.M{
		"$or": bson.A{
			bson.M{"token_hashed": hashed},
			bson.M{"token": token},
		},
	})
	return err
}

// GCExpiredTokens xoá các token đã hết hạn quá thời gian ân hạn.
// Được gọi định kỳ bởi worker và lười biếng khi gặp token hết hạn.
func (s *TokenService) GCExpiredTokens(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-expiredTokenGracePeriod)
	count, err := s.DeleteMany(ctx, bson.M{"expire_time": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logrus.WithField("count", count).Info("🧹 [AUTH] Đã dọn token hết hạn")
	}
	return count, nil
}

func (s *TokenService) gcExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.GCExpiredTokens(ctx); err != nil {
		logrus.WithError(err).Warn("⚠️ [AUTH] Dọn token hết hạn thất bại")
	}
}
