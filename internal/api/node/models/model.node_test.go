// Package models - Test decode attachments và ratings từ properties.
package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAttachments_MappingShape(t *testing.T) {
	oid := primitive.NewObjectID()
	node := Node{Properties: bson.M{
		"attachments": bson.M{
			"hero": bson.M{"oid": oid, "link": "self"},
		},
	}}

	atts := node.Attachments()
	if len(atts) != 1 {
		t.Fatalf("Phải decode được 1 attachment, nhận %d", len(atts))
	}
	att, ok := atts["hero"]
	if !ok {
		t.Fatal("Thiếu attachment slug 'hero'")
	}
	if att.Oid != oid {
		t.Errorf("Oid không khớp: %s != %s", att.Oid.Hex(), oid.Hex())
	}
	if att.Link != "self" {
		t.Errorf("Link phải là 'self', nhận %q", att.Link)
	}
}

func TestAttachments_ListOfGroupsShapeCu(t *testing.T) {
	oid := primitive.NewObjectID()
	node := Node{Properties: bson.M{
		"attachments": bson.A{
			bson.M{"files": bson.A{
				bson.M{"slug": "old-style", "file": oid},
			}},
		},
	}}

	atts := node.Attachments()
	att, ok := atts["old-style"]
	if !ok {
		t.Fatal("Shape cũ list-of-groups phải được migrate sang mapping")
	}
	if att.Oid != oid {
		t.Errorf("Oid không khớp: %s != %s", att.Oid.Hex(), oid.Hex())
	}
}

func TestAttachments_KhongCoAttachment(t *testing.T) {
	node := Node{Properties: bson.M{}}
	if atts := node.Attachments(); atts != nil {
		t.Errorf("Node không có attachments phải trả nil, nhận %v", atts)
	}
}

func TestAttachments_BoQuaEntryThieuOid(t *testing.T) {
	node := Node{Properties: bson.M{
		"attachments": bson.M{
			"broken": bson.M{"link": "self"},
		},
	}}
	if atts := node.Attachments(); atts != nil {
		t.Errorf("Entry thiếu oid phải bị bỏ qua, nhận %v", atts)
	}
}

func TestRatings_Decode(t *testing.T) {
	voter1 := primitive.NewObjectID()
	voter2 := primitive.NewObjectID()
	node := Node{Properties: bson.M{
		"ratings": bson.A{
			bson.M{"user": voter1, "is_positive": true},
			bson.M{"user": voter2, "is_positive": false},
			bson.M{"is_positive": true}, // thiếu user, bỏ qua
		},
	}}

	ratings := node.Ratings()
	if len(ratings) != 2 {
		t.Fatalf("Phải decode được 2 rating hợp lệ, nhận %d", len(ratings))
	}
	if ratings[0].User != voter1 || !ratings[0].IsPositive {
		t.Errorf("Rating đầu sai: %+v", ratings[0])
	}
	if ratings[1].User != voter2 || ratings[1].IsPositive {
		t.Errorf("Rating thứ hai sai: %+v", ratings[1])
	}
}

func TestPropObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	node := Node{Properties: bson.M{"file": oid}}
	if got := node.PropObjectID("file"); got != oid {
		t.Errorf("PropObjectID sai: %s != %s", got.Hex(), oid.Hex())
	}
	if got := node.PropObjectID("missing"); !got.IsZero() {
		t.Errorf("Property không tồn tại phải trả NilObjectID, nhận %s", got.Hex())
	}
}
