package authsvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/armadillica/pillar-sub000/internal/global"
)

// newMockedUserService đăng ký collection giả của mtest vào registry rồi
// dựng UserService trên đó.
func newMockedUserService(mt *mtest.T) *UserService {
	global.MongoDB_ColNames.Users = mt.Coll.Name()
	global.MongoDB_ColNames.Groups = mt.Coll.Name()
	_, err := global.RegistryCollections.Register(mt.Coll.Name(), mt.Coll)
	require.NoError(mt, err)

	svc, err := NewUserService()
	require.NoError(mt, err)
	return svc
}

func TestEnsureUserExistsGanLienKetTheoEmail(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("email đã có tài khoản local", func(mt *mtest.T) {
		svc := newMockedUserService(mt)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		userID := primitive.NewObjectID()

		existing := bson.D{
			{Key: "_id", Value: userID},
			{Key: "username", Value: "nga"},
			{Key: "email", Value: "nga@example.com"},
			{Key: "auth", Value: bson.A{
				bson.D{{Key: "provider", Value: "local"}, {Key: "token", Value: "bcrypt-hash"}},
			}},
		}
		linked := bson.D{
			{Key: "_id", Value: userID},
			{Key: "username", Value: "nga"},
			{Key: "email", Value: "nga@example.com"},
			{Key: "auth", Value: bson.A{
				bson.D{{Key: "provider", Value: "local"}, {Key: "token", Value: "bcrypt-hash"}},
				bson.D{{Key: "provider", Value: ProviderIdP}, {Key: "user_id", Value: "7777"}},
			}},
		}

		mt.AddMockResponses(
			// Tra theo liên kết IdP: chưa có
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			// Tra theo email: trúng tài khoản đã đăng ký bằng mật khẩu local
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, existing),
			// findAndModify gắn thêm liên kết IdP
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: linked}),
		)

		user, created, err := svc.EnsureUserExists(
			context.Background(), ProviderIdP, "7777", "nga@example.com", "Nguyễn Thị Nga")
		require.NoError(mt, err)

		// Không tạo user mới: tài khoản sẵn có được gắn thêm liên kết IdP
		assert.False(mt, created)
		assert.Equal(mt, userID, user.ID)
		require.Len(mt, user.Auth, 2)
		assert.Equal(mt, "local", user.Auth[0].Provider)
		assert.Equal(mt, ProviderIdP, user.Auth[1].Provider)
		assert.Equal(mt, "7777", user.Auth[1].UserID)

		// Liên kết phải được gắn bằng $addToSet để notification trùng không nhân đôi
		var update bson.Raw
		for _, evt := range mt.GetAllStartedEvents() {
			if evt.CommandName == "findAndModify" {
				update = evt.Command.Lookup("update").Document()
			}
		}
		require.NotNil(mt, update)
		addToSet, lookupErr := update.LookupErr("$addToSet")
		require.NoError(mt, lookupErr)
		_, lookupErr = addToSet.Document().LookupErr("auth")
		assert.NoError(mt, lookupErr)
	})
}
