// Package authsvc - client xác thực với identity provider bên ngoài.
package authsvc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/armadillica/pillar-sub000/config"
	"github.com/armadillica/pillar-sub000/internal/common"

	"github.com/sirupsen/logrus"
)

const (
	// Thời gian chờ tối đa cho một request tới IdP
	idpRequestTimeout = 5 * time.Second
	// Số lần thử lại khi IdP lỗi tạm thời
	idpRequestRetries = 5
	// Token do IdP xác nhận không bao giờ được tin quá 1 giờ;
	// sau đó phải hỏi lại IdP dù IdP cho hạn dài hơn
	idpMaxTokenTrust = time.Hour
)

// IdPUserInfo là thông tin người dùng mà IdP trả về sau khi xác thực token.
type IdPUserInfo struct {
	// UserID là định danh người dùng phía IdP
	UserID string
	Email  string
	FullName string
	// OAuthScopes là các scope gắn với token
	OAuthScopes []string
	// TokenExpires là hạn token đã ép xuống tối đa 1 giờ kể từ bây giờ
	TokenExpires time.Time
}

// IdPClient gọi identity provider để xác thực token người dùng.
type IdPClient struct {
	endpoint    string
	subclientID string
	httpClient  *http.Client
}

// NewIdPClient tạo client IdP từ cấu hình.
// TLSCertFile được cấu hình sẽ dùng làm CA xác thực kết nối tới IdP.
func NewIdPClient(cfg *config.Configuration) (*IdPClient, error) {
	transport := &http.Transport{}

	if cfg.TLSCertFile != "" {
		pem, err := os.ReadFile(cfg.TLSCertFile)
		if err != nil {
			return nil, fmt.Errorf("không đọc được TLS cert file '%s': %w", cfg.TLSCertFile, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("TLS cert file '%s' không chứa certificate hợp lệ", cfg.TLSCertFile)
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: pool}
	}

	return &IdPClient{
		endpoint:    strings.TrimRight(cfg.BlenderIDEndpoint, "/"),
		subclientID: cfg.BlenderIDSubclientID,
		httpClient: &http.Client{
			Timeout:   idpRequestTimeout,
			Transport: transport,
		},
	}, nil
}

// idpValidateResponse là cấu trúc JSON IdP trả về
type idpValidateResponse struct {
	Status string `json:"status"`
	User   struct {
		ID       json.Number `json:"id"`
		Email    string      `json:"email"`
		FullName string      `json:"full_name"`
	} `json:"user"`
	TokenExpires string   `json:"token_expires"`
	OAuthScopes  []string `json:"oauth_scopes"`
}

// ValidateToken hỏi IdP xem token có hợp lệ không. subclient rỗng với
// token OAuth thường, ngược lại là subclient id mà token được cấp cho.
// IdP không phản hồi được sau các lần thử lại thì coi như token không xác thực được.
func (c *IdPClient) ValidateToken(ctx context.Context, token, subclient string) (*IdPUserInfo, error) {
	// Có subclient id thì phải đúng subclient mà server này được cấu hình cho
	if subclient != "" && subclient != c.subclientID {
		logrus.WithField("subclient_id", subclient).Warn("⚠️ [AUTH] Token dùng sai subclient id, coi như không hợp lệ")
		return nil, common.ErrTokenInvalid
	}

	form := url.Values{}
	form.Set("token", token)
	if subclient != "" {
		form.Set("subclient_id", subclient)
	}

	body, err := c.postWithRetry(ctx, c.endpoint+"/u/validate_token", form)
	if err != nil {
		logrus.WithError(err).Warn("⚠️ [AUTH] Identity provider không phản hồi")
		return nil, common.ErrIdPUnavailable
	}

	var resp idpValidateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		logrus.WithError(err).Warn("⚠️ [AUTH] Không parse được phản hồi của IdP")
		return nil, common.ErrIdPUnavailable
	}
	if resp.Status != "success" {
		return nil, common.ErrTokenInvalid
	}

	expires := parseIdPExpiry(resp.TokenExpires)
	// Không tin token quá 1 giờ kể từ bây giờ
	maxTrust := time.Now().UTC().Add(idpMaxTokenTrust)
	if expires.IsZero() || expires.After(maxTrust) {
		expires = maxTrust
	}

	return &IdPUserInfo{
		UserID:       resp.User.ID.String(),
		Email:        resp.User.Email,
		FullName:     resp.User.FullName,
		OAuthScopes:  resp.OAuthScopes,
		TokenExpires: expires,
	}, nil
}

// IdPUserRecord là hồ sơ người dùng trên IdP, kèm các role bit đang bật
// (cloud_subscriber, cloud_has_subscription, cloud_demo, ...).
type IdPUserRecord struct {
	UserID   string
	Email    string
	FullName string
	Roles    []string
}

// idpUserResponse là cấu trúc JSON của GET /api/user.
// Field roles có thể là map role -> bool hoặc danh sách tên role.
type idpUserResponse struct {
	ID       json.Number     `json:"id"`
	Email    string          `json:"email"`
	FullName string          `json:"full_name"`
	Roles    json.RawMessage `json:"roles"`
}

// FetchUser lấy hồ sơ người dùng từ IdP bằng chính access token của người đó.
func (c *IdPClient) FetchUser(ctx context.Context, token string) (*IdPUserRecord, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.endpoint+"/api/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.WithError(err).Warn("⚠️ [AUTH] Identity provider không phản hồi khi lấy hồ sơ người dùng")
		return nil, common.ErrIdPUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, common.ErrIdPUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		logrus.WithField("status", resp.StatusCode).Warn("⚠️ [AUTH] IdP từ chối trả hồ sơ người dùng")
		return nil, common.ErrTokenInvalid
	}

	var parsed idpUserResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		logrus.WithError(err).Warn("⚠️ [AUTH] Không parse được hồ sơ người dùng của IdP")
		return nil, common.ErrIdPUnavailable
	}

	return &IdPUserRecord{
		UserID:   parsed.ID.String(),
		Email:    parsed.Email,
		FullName: parsed.FullName,
		Roles:    parseIdPRoles(parsed.Roles),
	}, nil
}

// parseIdPRoles đọc field roles của IdP: map role -> bool hoặc danh sách tên.
func parseIdPRoles(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var asMap map[string]bool
	if err := json.Unmarshal(raw, &asMap); err == nil {
		var roles []string
		for role, active := range asMap {
			if active {
				roles = append(roles, role)
			}
		}
		return roles
	}

	var asList []string
	if err := json.Unmarshal(raw, &asList); err == nil {
		return asList
	}
	return nil
}

// postWithRetry gửi POST form tới IdP, thử lại với lỗi mạng / lỗi 5xx.
func (c *IdPClient) postWithRetry(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= idpRequestRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("IdP trả về HTTP %d", resp.StatusCode)
			continue
		}
		return body, nil
	}

	return nil, fmt.Errorf("IdP không phản hồi sau %d lần thử: %w", idpRequestRetries, lastErr)
}

// parseIdPExpiry parse hạn token theo các định dạng IdP dùng
func parseIdPExpiry(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC1123, time.RFC3339, "Mon, 02 Jan 2006 15:04:05 MST"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
