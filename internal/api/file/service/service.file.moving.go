package filesvc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "github.com/armadillica/pillar-sub000/internal/api/base/service"
	models "github.com/armadillica/pillar-sub000/internal/api/file/models"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"
	"github.com/armadillica/pillar-sub000/internal/storage"
	"github.com/armadillica/pillar-sub000/internal/utility"
)

// ChangeStorageBackend chuyển một file (blob chính + variations) sang
// backend khác và cập nhật document. Blob trên backend cũ không bị xóa.
// Blob chính đã mất nhưng còn variations thì chỉ chuyển variations
// (file gốc quá lớn có thể đã bị dọn, các variation vẫn phục vụ được).
func (s *FileService) ChangeStorageBackend(ctx context.Context, fileID primitive.ObjectID, destBackend string) error {
	file, err := s.FindOneById(ctx, fileID)
	if err != nil {
		return err
	}
	if file.Backend == destBackend {
		logrus.Warnf("⚠️ [FILE] File %s đã ở backend %s, không chuyển", fileID.Hex(), destBackend)
		return nil
	}
	if file.Project.IsZero() {
		return common.NewError(
			common.ErrCodeStoragePrereq,
			"File không thuộc project nào, không biết chuyển vào bucket nào",
			common.StatusPreconditionFailed,
			nil,
		)
	}

	// Link cũ có thể đã hết hạn, làm mới trước khi đọc blob
	if err := s.EnsureValidLink(ctx, &file); err != nil {
		return err
	}

	srcBucket, err := storage.GetBucket(file.Backend, file.Project.Hex())
	if err != nil {
		return err
	}
	destBucket, err := storage.GetBucket(destBackend, file.Project.Hex())
	if err != nil {
		return err
	}

	if err := s.copyBlobs(ctx, &file, srcBucket, destBucket); err != nil {
		return err
	}

	if _, err := s.UpdateById(ctx, fileID, &basesvc.UpdateData{
		Set: bson.M{"backend": destBackend},
	}); err != nil {
		return err
	}
	file.Backend = destBackend

	logrus.Infof("✅ [FILE] Đã chuyển file %s sang backend %s", fileID.Hex(), destBackend)
	return s.GenerateAllLinks(ctx, &file, time.Now().UTC())
}

// MoveToBucket chuyển blob của file sang bucket của project khác trên
// cùng backend và cập nhật field project. skipStorage bỏ qua phần copy
// blob, dùng khi blob đã được chuyển từ trước.
func (s *FileService) MoveToBucket(ctx context.Context, fileID primitive.ObjectID, destProjectID primitive.ObjectID, skipStorage bool) error {
	file, err := s.FindOneById(ctx, fileID)
	if err != nil {
		return err
	}

	if !skipStorage {
		srcBucket, err := storage.GetBucket(file.Backend, file.Project.Hex())
		if err != nil {
			return err
		}
		destBucket, err := storage.GetBucket(file.Backend, destProjectID.Hex())
		if err != nil {
			return err
		}
		if err := s.copyBlobs(ctx, &file, srcBucket, destBucket); err != nil {
			return err
		}
	}

	if _, err := s.UpdateById(ctx, fileID, &basesvc.UpdateData{
		Set: bson.M{"project": destProjectID},
	}); err != nil {
		return err
	}
	file.Project = destProjectID

	logrus.Infof("✅ [FILE] Đã chuyển file %s sang project %s", fileID.Hex(), destProjectID.Hex())
	return s.GenerateAllLinks(ctx, &file, time.Now().UTC())
}

// MergeProject chuyển mọi file và node từ project nguồn sang project đích.
// Node sau merge có thể không còn hợp lệ với node_types của project đích;
// caller tự xử lý phần đó.
func (s *FileService) MergeProject(ctx context.Context, srcProjectID, destProjectID primitive.ObjectID) error {
	files, err := s.Find(ctx, bson.M{"project": srcProjectID}, nil)
	if err != nil {
		return err
	}
	logrus.Infof("🔄 [FILE] Merge project %s → %s: %d file",
		srcProjectID.Hex(), destProjectID.Hex(), len(files))

	for i := range files {
		if err := s.MoveToBucket(ctx, files[i].ID, destProjectID, false); err != nil {
			return err
		}
	}

	nodes, exists := global.RegistryCollections.Get(global.MongoDB_ColNames.Nodes)
	if !exists {
		return common.NewError(
			common.ErrCodeDatabaseConnection,
			"Không tìm thấy collection nodes",
			common.StatusInternalServerError,
			nil,
		)
	}
	result, err := nodes.UpdateMany(ctx,
		bson.M{"project": srcProjectID},
		bson.M{"$set": bson.M{
			"project":  destProjectID,
			"_updated": time.Now().UTC().Truncate(time.Millisecond),
			"_etag":    utility.RandomEtag(),
		}},
	)
	if err != nil {
		return common.ConvertMongoError(err)
	}

	logrus.Infof("✅ [FILE] Merge project xong: %d node chuyển sang %s",
		result.ModifiedCount, destProjectID.Hex())
	return nil
}

// copyBlobs copy blob chính và mọi variation sang bucket đích.
// Blob chính không còn tồn tại chỉ chấp nhận được khi file có variations.
func (s *FileService) copyBlobs(ctx context.Context, file *models.File, src, dest storage.Bucket) error {
	if file.FilePath != "" {
		err := storage.CopyToBucket(ctx, file.FilePath, src, dest)
		if err != nil {
			if len(file.Variations) == 0 {
				return err
			}
			logrus.Warnf("⚠️ [FILE] Blob chính %s của file %s không còn, chỉ chuyển variations: %v",
				file.FilePath, file.ID.Hex(), err)
		}
	}

	for i := range file.Variations {
		v := &file.Variations[i]
		if v.FilePath == "" {
			continue
		}
		if err := storage.CopyToBucket(ctx, v.FilePath, src, dest); err != nil {
			return err
		}
	}
	return nil
}
