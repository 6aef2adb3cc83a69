// Package authsvc - xác thực phiên làm việc: kiểm tra token cục bộ,
// fallback sang IdP, và hợp nhất role/capability cho request.
package authsvc

import (
	"context"
	"net"
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

// Hạn token cấp qua đăng nhập local
const localAuthTokenValidity = 15 * 24 * time.Hour

// Tên provider cho các liên kết xác thực
const (
	ProviderLocal = "local"
	ProviderIdP   = "blender-id"
)

// OrgRoleResolver tính các role tổ chức tạm thời theo IP của người dùng.
// Package organization gán hàm này lúc khởi động để tránh import cycle.
type OrgRoleResolver func(ctx context.Context, userID primitive.ObjectID, remoteIP net.IP) ([]string, error)

// AuthSession là kết quả xác thực một request.
type AuthSession struct {
	User  models.User
	Token models.Token
	// EffectiveRoles = user.Roles ∪ token.OrgRoles
	EffectiveRoles []string
	// Capabilities suy ra từ EffectiveRoles
	Capabilities []string
}

// HasRole kiểm tra phiên có một trong các role không (tính cả org role)
func (s *AuthSession) HasRole(roles ...string) bool {
	for _, have := range s.EffectiveRoles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// HasCap kiểm tra phiên có capability không
func (s *AuthSession) HasCap(cap string) bool {
	return utility.Contains(s.Capabilities, cap)
}

// IsAdmin kiểm tra phiên có role admin không
func (s *AuthSession) IsAdmin() bool {
	return s.HasRole(models.RoleAdmin)
}

// SessionService xác thực token cho request đến.
type SessionService struct {
	users  *UserService
	tokens *TokenService
	idp    *IdPClient

	// orgRoleResolver tính org role theo IP lúc cấp token (có thể nil)
	orgRoleResolver OrgRoleResolver
}

// NewSessionService tạo SessionService với các service phụ thuộc.
func NewSessionService(users *UserService, tokens *TokenService, idp *IdPClient) *SessionService {
	return &SessionService{
		users:  users,
		tokens: tokens,
		idp:    idp,
	}
}

// SetOrgRoleResolver gán hook tính org role theo IP (gọi từ package organization lúc khởi động).
func (s *SessionService) SetOrgRoleResolver(r OrgRoleResolver) {
	s.orgRoleResolver = r
}

// Authenticate xác thực token cho một request. subclient rỗng với token
// thường; request dùng subclient token phải khai subclient id trùng với
// cấu hình server, sai coi như token không hợp lệ.
// Token hợp lệ trong store cục bộ dùng luôn; không có thì hỏi IdP,
// IdP xác nhận thì user được tạo/tra cứu và token lưu lại cục bộ.
// remoteIP dùng để tính org role khi token mới được cấp.
func (s *SessionService) Authenticate(ctx context.Context, token, subclient string, remoteIP net.IP) (*AuthSession, error) {
	if subclient != "" && (s.idp == nil || subclient != s.idp.subclientID) {
		logrus.WithField("subclient_id", subclient).Warn("⚠️ [AUTH] Request khai sai subclient id, từ chối token")
		return nil, common.ErrTokenInvalid
	}

	doc, err := s.tokens.ValidateToken(ctx, token, subclient != "")
	if err == nil {
		return s.buildSession(ctx, doc)
	}
	if err != common.ErrTokenInvalid && err != common.ErrTokenExpired {
		return nil, err
	}

	// Không có trong store cục bộ: hỏi IdP
	if s.idp == nil {
		return nil, common.ErrTokenInvalid
	}

	info, idpErr := s.idp.ValidateToken(ctx, token, subclient)
	if idpErr != nil {
		return nil, idpErr
	}

	user, created, err := s.users.EnsureUserExists(ctx, ProviderIdP, info.UserID, info.Email, info.FullName)
	if err != nil {
		return nil, err
	}
	if created {
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID.Hex(),
			"email":   info.Email,
		}).Info("✅ [AUTH] User mới từ IdP đã được tạo khi xác thực token")
	}

	orgRoles := s.resolveOrgRoles(ctx, user.ID, remoteIP)

	doc, err = s.tokens.StoreToken(ctx, user.ID, token, info.TokenExpires, subclient != "", info.OAuthScopes, orgRoles)
	if err != nil {
		return nil, err
	}

	return s.buildSessionWithUser(user, doc), nil
}

// StoreSubclientToken xác minh subclient token với IdP rồi lưu vào token store.
// IdP user id trong request phải trùng với chủ token, subclient id phải
// trùng với cấu hình server, nếu không coi như token không hợp lệ.
func (s *SessionService) StoreSubclientToken(ctx context.Context, idpUserID, subclient, token string, remoteIP net.IP) (models.User, models.Token, error) {
	if s.idp == nil {
		return models.User{}, models.Token{}, common.ErrTokenInvalid
	}

	info, err := s.idp.ValidateToken(ctx, token, subclient)
	if err != nil {
		return models.User{}, models.Token{}, err
	}
	if info.UserID != idpUserID {
		logrus.WithFields(logrus.Fields{
			"claimed_user_id": idpUserID,
			"token_user_id":   info.UserID,
		}).Warn("⚠️ [AUTH] Subclient token không thuộc về user được khai báo")
		return models.User{}, models.Token{}, common.ErrTokenInvalid
	}

	user, _, err := s.users.EnsureUserExists(ctx, ProviderIdP, info.UserID, info.Email, info.FullName)
	if err != nil {
		return models.User{}, models.Token{}, err
	}

	orgRoles := s.resolveOrgRoles(ctx, user.ID, remoteIP)
	doc, err := s.tokens.StoreToken(ctx, user.ID, token, info.TokenExpires, true, info.OAuthScopes, orgRoles)
	if err != nil {
		return models.User{}, models.Token{}, err
	}

	logrus.WithField("user_id", user.ID.Hex()).Info("✅ [AUTH] Đã lưu subclient token")
	return user, doc, nil
}

// MakeLocalToken đăng nhập bằng tài khoản local và cấp token mới.
func (s *SessionService) MakeLocalToken(ctx context.Context, username, password string, remoteIP net.IP) (string, models.Token, error) {
	user, err := s.users.FindOne(ctx, bson.M{"username": username}, nil)
	if err != nil {
		if common.IsNotFound(err) {
			return "", models.Token{}, common.ErrInvalidCredentials
		}
		return "", models.Token{}, err
	}

	local := user.AuthFor(ProviderLocal)
	if local == nil || !utility.VerifyPassword(password, local.Token) {
		return "", models.Token{}, common.ErrInvalidCredentials
	}

	token, err := utility.GenerateToken("")
	if err != nil {
		return "", models.Token{}, common.NewError(
			common.ErrCodeAuth,
			"Không sinh được token",
			common.StatusInternalServerError,
			err,
		)
	}

	orgRoles := s.resolveOrgRoles(ctx, user.ID, remoteIP)
	expireTime := time.Now().UTC().Add(localAuthTokenValidity)

	doc, err := s.tokens.StoreToken(ctx, user.ID, token, expireTime, false, nil, orgRoles)
	if err != nil {
		return "", models.Token{}, err
	}

	logrus.WithField("user_id", user.ID.Hex()).Info("✅ [AUTH] Đã cấp token qua đăng nhập local")
	return token, doc, nil
}

// CreateLocalUser tạo (hoặc gắn credential local cho) tài khoản theo email.
// Mật khẩu lưu dạng bcrypt hash trong liên kết xác thực provider "local".
func (s *SessionService) CreateLocalUser(ctx context.Context, email, password string) (models.User, error) {
	hashed, err := utility.HashPassword(password)
	if err != nil {
		return models.User{}, common.NewError(
			common.ErrCodeAuth,
			"Không băm được mật khẩu",
			common.StatusInternalServerError,
			err,
		)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if common.IsNotFound(err) {
		user, err = s.users.createFromProvider(ctx, ProviderLocal, "", email, "")
	}
	if err != nil {
		return models.User{}, err
	}

	// Thay hoặc thêm liên kết local với hash mới
	auth := make([]models.AuthProvider, 0, len(user.Auth)+1)
	replaced := false
	for _, a := range user.Auth {
		if a.Provider == ProviderLocal {
			a.Token = hashed
			replaced = true
		}
		auth = append(auth, a)
	}
	if !replaced {
		auth = append(auth, models.AuthProvider{Provider: ProviderLocal, Token: hashed})
	}

	updated, err := s.users.UpdateById(ctx, user.ID, &basesvc.UpdateData{
		Set: bson.M{"auth": auth},
	})
	if err != nil {
		return models.User{}, err
	}
	return updated, nil
}

// resolveOrgRoles tính org role theo IP, lỗi chỉ log chứ không chặn đăng nhập
func (s *SessionService) resolveOrgRoles(ctx context.Context, userID primitive.ObjectID, remoteIP net.IP) []string {
	if s.orgRoleResolver == nil || remoteIP == nil {
		return nil
	}
	roles, err := s.orgRoleResolver(ctx, userID, remoteIP)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID.Hex(),
			"ip":      remoteIP.String(),
			"error":   err,
		}).Warn("⚠️ [AUTH] Không tính được org role theo IP")
		return nil
	}
	return roles
}

// buildSession tra cứu user của token rồi dựng phiên
func (s *SessionService) buildSession(ctx context.Context, doc models.Token) (*AuthSession, error) {
	user, err := s.users.FindOneById(ctx, doc.UserID)
	if err != nil {
		if common.IsNotFound(err) {
			return nil, common.ErrUserNotFound
		}
		return nil, err
	}
	return s.buildSessionWithUser(user, doc), nil
}

func (s *SessionService) buildSessionWithUser(user models.User, doc models.Token) *AuthSession {
	effective := utility.Union(user.Roles, doc.OrgRoles)
	if global.ServerConfig != nil && global.ServerConfig.Testing {
		effective = utility.SortedStrings(effective)
	}
	return &AuthSession{
		User:           user,
		Token:          doc,
		EffectiveRoles: effective,
		Capabilities:   CapabilitiesForRoles(effective),
	}
}
