package filesvc

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"
)

// orphanSkipCollections là các collection không được quét khi tìm file mồ côi:
// files là chính tập ứng viên, tokens không bao giờ tham chiếu file.
var orphanSkipCollections = map[string]bool{}

func orphanScanCollections() []string {
	names := global.MongoDB_ColNames
	skip := map[string]bool{
		names.Files:  true,
		names.Tokens: true,
	}
	for name := range orphanSkipCollections {
		skip[name] = true
	}

	all := []string{
		names.Users,
		names.Groups,
		names.Organizations,
		names.Projects,
		names.Nodes,
		names.Activities,
	}
	scan := make([]string, 0, len(all))
	for _, name := range all {
		if !skip[name] {
			scan = append(scan, name)
		}
	}
	return scan
}

// FindOrphanFiles tìm các file của một project không còn được tham chiếu
// từ bất kỳ document nào: bắt đầu từ tập id của mọi file trong project,
// quét từng collection (lọc theo project, riêng projects lọc theo _id)
// và loại mọi ObjectID xuất hiện ở bất kỳ đâu trong document.
// Tập còn lại là các file mồ côi.
func (s *FileService) FindOrphanFiles(ctx context.Context, projectID primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	files, err := s.Find(ctx, bson.M{"project": projectID}, nil)
	if err != nil {
		return nil, err
	}
	candidates := make(map[primitive.ObjectID]bool, len(files))
	for i := range files {
		candidates[files[i].ID] = true
	}
	if len(candidates) == 0 {
		return candidates, nil
	}

	remove := func(id primitive.ObjectID) {
		delete(candidates, id)
	}

	for _, colName := range orphanScanCollections() {
		col, exists := global.RegistryCollections.Get(colName)
		if !exists {
			continue
		}

		filter := bson.M{"project": projectID}
		if colName == global.MongoDB_ColNames.Projects {
			filter = bson.M{"_id": projectID}
		}

		cursor, err := col.Find(ctx, filter)
		if err != nil {
			return nil, common.ConvertMongoError(err)
		}
		for cursor.Next(ctx) {
			var doc bson.M
			if err := cursor.Decode(&doc); err != nil {
				cursor.Close(ctx)
				return nil, common.ConvertMongoError(err)
			}
			walkObjectIDs(doc, remove)
			if len(candidates) == 0 {
				cursor.Close(ctx)
				return candidates, nil
			}
		}
		if err := cursor.Err(); err != nil {
			cursor.Close(ctx)
			return nil, common.ConvertMongoError(err)
		}
		cursor.Close(ctx)
	}

	logrus.Infof("🧹 [FILE] Project %s có %d file mồ côi trên tổng %d file",
		projectID.Hex(), len(candidates), len(files))
	return candidates, nil
}

// walkObjectIDs duyệt đệ quy mọi giá trị trong document và gọi visit với
// từng ObjectID gặp được.
func walkObjectIDs(value interface{}, visit func(primitive.ObjectID)) {
	switch typed := value.(type) {
	case primitive.ObjectID:
		visit(typed)
	case bson.M:
		for _, v := range typed {
			walkObjectIDs(v, visit)
		}
	case map[string]interface{}:
		for _, v := range typed {
			walkObjectIDs(v, visit)
		}
	case bson.D:
		for _, elem := range typed {
			walkObjectIDs(elem.Value, visit)
		}
	case bson.A:
		for _, v := range typed {
			walkObjectIDs(v, visit)
		}
	case []interface{}:
		for _, v := range typed {
			walkObjectIDs(v, visit)
		}
	}
}
