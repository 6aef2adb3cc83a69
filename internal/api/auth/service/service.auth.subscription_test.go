package authsvc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadillica/pillar-sub000/internal/common"
)

func TestDiffIdPRoles(t *testing.T) {
	tests := []struct {
		name       string
		localRoles []string
		idpRoles   []string
		wantGrant  []string
		wantRevoke []string
	}{
		{
			name:       "user mới đăng ký subscription trên IdP",
			localRoles: nil,
			idpRoles:   []string{"cloud_subscriber", "cloud_has_subscription"},
			wantGrant:  []string{"has_subscription", "subscriber"},
			wantRevoke: nil,
		},
		{
			name:       "subscription hết hạn, còn quyền gia hạn",
			localRoles: []string{"subscriber", "has_subscription"},
			idpRoles:   []string{"cloud_has_subscription"},
			wantGrant:  nil,
			wantRevoke: []string{"subscriber"},
		},
		{
			name:       "hủy hẳn subscription",
			localRoles: []string{"subscriber", "has_subscription"},
			idpRoles:   nil,
			wantGrant:  nil,
			wantRevoke: []string{"has_subscription", "subscriber"},
		},
		{
			name:       "role ngoài bảng ánh xạ giữ nguyên cả hai chiều",
			localRoles: []string{"admin", "service"},
			idpRoles:   []string{"cloud_demo", "cloud_single_cloud_subscription"},
			wantGrant:  []string{"demo"},
			wantRevoke: nil,
		},
		{
			name:       "đã đồng bộ thì không có delta",
			localRoles: []string{"subscriber", "has_subscription"},
			idpRoles:   []string{"cloud_subscriber", "cloud_has_subscription"},
			wantGrant:  nil,
			wantRevoke: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			grant, revoke := diffIdPRoles(tc.localRoles, tc.idpRoles)
			assert.Equal(t, tc.wantGrant, grant)
			assert.Equal(t, tc.wantRevoke, revoke)
		})
	}
}

func TestParseIdPRoles(t *testing.T) {
	// Dạng map role -> bool, chỉ lấy role đang bật
	roles := parseIdPRoles(json.RawMessage(`{"cloud_subscriber": true, "cloud_demo": false, "cloud_has_subscription": true}`))
	assert.ElementsMatch(t, []string{"cloud_subscriber", "cloud_has_subscription"}, roles)

	// Dạng danh sách tên role
	roles = parseIdPRoles(json.RawMessage(`["cloud_demo", "cloud_subscriber"]`))
	assert.Equal(t, []string{"cloud_demo", "cloud_subscriber"}, roles)

	assert.Nil(t, parseIdPRoles(nil))
	assert.Nil(t, parseIdPRoles(json.RawMessage(`"not-roles"`)))
}

func TestFetchUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/user", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 5555,
			"email": "nga@example.com",
			"full_name": "Nguyễn Thị Nga",
			"roles": {"cloud_subscriber": true, "cloud_demo": false}
		}`))
	}))
	defer srv.Close()

	client := &IdPClient{endpoint: srv.URL, httpClient: srv.Client()}
	record, err := client.FetchUser(context.Background(), "tok-123")
	require.NoError(t, err)

	assert.Equal(t, "5555", record.UserID)
	assert.Equal(t, "nga@example.com", record.Email)
	assert.Equal(t, "Nguyễn Thị Nga", record.FullName)
	assert.Equal(t, []string{"cloud_subscriber"}, record.Roles)
}

func TestFetchUserTokenBiTuChoi(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := &IdPClient{endpoint: srv.URL, httpClient: srv.Client()}
	_, err := client.FetchUser(context.Background(), "tok-sai")
	assert.ErrorIs(t, err, common.ErrTokenInvalid)
}

func TestReconcileChuaCauHinhIdP(t *testing.T) {
	svc := NewSubscriptionService(nil, nil)
	err := svc.Reconcile(context.Background(), nil, "tok")

	var appErr *common.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, common.StatusPreconditionFailed, appErr.StatusCode)
}
