package authsvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/armadillica/pillar-sub000/internal/common"
)

func TestTokenLookup(t *testing.T) {
	// Subclient token chỉ khớp document đánh dấu is_subclient_token
	filter := tokenLookup("token_hashed", "abc", true)
	assert.Equal(t, "abc", filter["token_hashed"])
	assert.Equal(t, true, filter["is_subclient_token"])

	// Token thường không được khớp subclient token; field có thể vắng mặt
	// trong document cũ nên phải chấp nhận cả false lẫn null
	filter = tokenLookup("token", "abc", false)
	assert.Equal(t, "abc", filter["token"])
	assert.Equal(t, bson.M{"$in": bson.A{false, nil}}, filter["is_subclient_token"])
}

func TestAuthenticateSaiSubclient(t *testing.T) {
	svc := NewSessionService(nil, nil, &IdPClient{subclientID: "PILLAR"})

	// Khai subclient id khác cấu hình thì bị chặn trước khi đụng tới store
	_, err := svc.Authenticate(context.Background(), "tok", "KHAC", nil)
	assert.ErrorIs(t, err, common.ErrTokenInvalid)
}

func TestAuthenticateSubclientKhongCoIdP(t *testing.T) {
	svc := NewSessionService(nil, nil, nil)

	_, err := svc.Authenticate(context.Background(), "tok", "PILLAR", nil)
	assert.ErrorIs(t, err, common.ErrTokenInvalid)
}
