package filesvc

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	authmodels "github.com/armadillica/pillar-sub000/internal/api/auth/models"
	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"

	"github.com/armadillica/pillar-sub000/config"
)

func withTestConfig(t *testing.T, cfg *config.Configuration) {
	t.Helper()
	old := global.ServerConfig
	global.ServerConfig = cfg
	t.Cleanup(func() { global.ServerConfig = old })
}

func TestWalkObjectIDs(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := primitive.NewObjectID()

	// Document lồng nhau kiểu node: properties chứa cả map, list và bson.D
	doc := bson.M{
		"picture": a,
		"properties": bson.M{
			"file": b,
			"attachments": bson.A{
				bson.M{"oid": c},
			},
			"order": bson.D{{Key: "nested", Value: a}},
			"tags":  []interface{}{"animation", b},
		},
		"name": "không phải id",
	}

	seen := map[primitive.ObjectID]int{}
	walkObjectIDs(doc, func(id primitive.ObjectID) {
		seen[id]++
	})

	if seen[a] != 2 {
		t.Errorf("id %s phải được visit 2 lần, được %d", a.Hex(), seen[a])
	}
	if seen[b] != 2 {
		t.Errorf("id %s phải được visit 2 lần, được %d", b.Hex(), seen[b])
	}
	if seen[c] != 1 {
		t.Errorf("id trong attachment phải được visit 1 lần, được %d", seen[c])
	}
	if len(seen) != 3 {
		t.Errorf("chỉ có 3 ObjectID trong document, visit ra %d", len(seen))
	}
}

func TestWalkObjectIDsBoQuaScalar(t *testing.T) {
	walkObjectIDs("chuỗi", func(primitive.ObjectID) {
		t.Error("chuỗi không được visit")
	})
	walkObjectIDs(nil, func(primitive.ObjectID) {
		t.Error("nil không được visit")
	})
	walkObjectIDs(42, func(primitive.ObjectID) {
		t.Error("số không được visit")
	})
}

func TestAssertFileSizeAllowed(t *testing.T) {
	withTestConfig(t, &config.Configuration{
		FilesizeLimitBytesNonSubs: 1024,
		RolesForUnlimitedUploads:  "subscriber,demo,admin",
	})

	svc := &FileService{}
	user := authmodels.User{ID: primitive.NewObjectID()}

	normal := &authsvc.AuthSession{User: user, EffectiveRoles: []string{"befriend"}}
	if err := svc.assertFileSizeAllowed(normal, 512); err != nil {
		t.Errorf("upload dưới quota phải được chấp nhận: %v", err)
	}
	if err := svc.assertFileSizeAllowed(normal, 2048); err != common.ErrQuotaExceeded {
		t.Errorf("upload quá quota phải trả ErrQuotaExceeded, được %v", err)
	}
	// Đúng bằng limit vẫn bị chặn (so sánh strict less-than)
	if err := svc.assertFileSizeAllowed(normal, 1024); err != common.ErrQuotaExceeded {
		t.Errorf("upload đúng bằng quota phải trả ErrQuotaExceeded, được %v", err)
	}

	subscriber := &authsvc.AuthSession{User: user, EffectiveRoles: []string{"subscriber"}}
	if err := svc.assertFileSizeAllowed(subscriber, 1<<30); err != nil {
		t.Errorf("subscriber không bị giới hạn dung lượng: %v", err)
	}
}

func TestGenerateLinkTestingMode(t *testing.T) {
	withTestConfig(t, &config.Configuration{Testing: true})

	svc := &FileService{}
	projectID := primitive.NewObjectID()

	link := svc.GenerateLink(context.Background(), "gcs", "ab/abcdef.png", projectID, false)
	if link != "/path/to/testing/gcs/ab/abcdef.png" {
		t.Errorf("chế độ test phải trả fake GCS link, được %q", link)
	}

	if link := svc.GenerateLink(context.Background(), "gcs", "", projectID, false); link != "" {
		t.Errorf("file_path rỗng phải trả link rỗng, được %q", link)
	}
}

func TestOrphanScanCollections(t *testing.T) {
	for _, name := range orphanScanCollections() {
		if name == "files" || name == "tokens" {
			t.Errorf("collection %q không được nằm trong danh sách quét orphan", name)
		}
	}
}
