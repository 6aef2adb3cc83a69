package utility

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WalkObjectIDs duyệt đệ quy một document BSON (dạng cây) và gọi visit
// cho mọi ObjectID tìm thấy ở bất kỳ độ sâu nào.
// Dùng cho orphan detection: document được coi là cây opaque.
func WalkObjectIDs(doc interface{}, visit func(primitive.ObjectID)) {
	switch v := doc.(type) {
	case primitive.ObjectID:
		visit(v)
	case bson.M:
		for _, value := range v {
			WalkObjectIDs(value, visit)
		}
	case map[string]interface{}:
		for _, value := range v {
			WalkObjectIDs(value, visit)
		}
	case bson.D:
		for _, elem := range v {
			WalkObjectIDs(elem.Value, visit)
		}
	case bson.A:
		for _, item := range v {
			WalkObjectIDs(item, visit)
		}
	case []interface{}:
		for _, item := range v {
			WalkObjectIDs(item, visit)
		}
	case []primitive.ObjectID:
		for _, id := range v {
			visit(id)
		}
	}
}

// ToBSONMap chuyển struct sang bson.M qua marshal/unmarshal.
// Dùng khi cần thao tác document dạng dynamic (hooks, sub-request API).
func ToBSONMap(v interface{}) (bson.M, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// RandomEtag sinh etag mới cho document sau khi cập nhật ngoài REST pipeline
func RandomEtag() string {
	return primitive.NewObjectID().Hex()
}
