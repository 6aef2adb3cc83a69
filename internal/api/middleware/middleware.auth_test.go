package middleware

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/armadillica/pillar-sub000/internal/api/auth/models"
	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
)

func TestParseAuthorization(t *testing.T) {
	tests := []struct {
		name          string
		header        string
		wantToken     string
		wantSubclient string
	}{
		{"không có header", "", "", ""},
		{"bearer token", "Bearer tok-abc", "tok-abc", ""},
		{
			"basic auth mang token và subclient id",
			"Basic " + base64.StdEncoding.EncodeToString([]byte("tok-abc:PILLAR")),
			"tok-abc", "PILLAR",
		},
		{
			"basic auth không có subclient id",
			"Basic " + base64.StdEncoding.EncodeToString([]byte("tok-abc")),
			"tok-abc", "",
		},
		{"basic auth hỏng base64", "Basic %%%", "", ""},
		{"token trần", "tok-abc", "tok-abc", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			token, subclient := parseAuthorization(tc.header)
			assert.Equal(t, tc.wantToken, token)
			assert.Equal(t, tc.wantSubclient, subclient)
		})
	}
}

func TestSessionCacheKey(t *testing.T) {
	// Cùng token nhưng khác subclient phải là hai entry cache khác nhau
	assert.NotEqual(t, sessionCacheKey("tok", ""), sessionCacheKey("tok", "PILLAR"))
	assert.Equal(t, sessionCacheKey("tok", "PILLAR"), sessionCacheKey("tok", "PILLAR"))
}

func TestInvalidateSessionsForUser(t *testing.T) {
	userID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()
	sessionCache.Set(sessionCacheKey("tok-1", ""), &authsvc.AuthSession{User: models.User{ID: userID}})
	sessionCache.Set(sessionCacheKey("tok-2", "PILLAR"), &authsvc.AuthSession{User: models.User{ID: userID}})
	sessionCache.Set(sessionCacheKey("tok-3", ""), &authsvc.AuthSession{User: models.User{ID: otherID}})

	InvalidateSessionsForUser(userID)

	// Mọi phiên của user bị xóa bất kể token hay subclient, user khác giữ nguyên
	_, found := sessionCache.Get(sessionCacheKey("tok-1", ""))
	assert.False(t, found)
	_, found = sessionCache.Get(sessionCacheKey("tok-2", "PILLAR"))
	assert.False(t, found)
	_, found = sessionCache.Get(sessionCacheKey("tok-3", ""))
	assert.True(t, found)
}
