package filesvc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "github.com/armadillica/pillar-sub000/internal/api/base/service"
	models "github.com/armadillica/pillar-sub000/internal/api/file/models"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"
	"github.com/armadillica/pillar-sub000/internal/storage"
)

// GenerateLink tạo URL truy cập cho một blob trên backend cho trước.
// Không tạo được link thì trả chuỗi rỗng, caller tự quyết định xử lý.
func (s *FileService) GenerateLink(ctx context.Context, backend, filePath string, projectID primitive.ObjectID, isPublic bool) string {
	if filePath == "" {
		return ""
	}

	// Chế độ test không gọi GCS thật
	if backend == storage.BackendGCS && global.ServerConfig.Testing {
		return "/path/to/testing/gcs/" + filePath
	}

	bucket, err := storage.GetBucket(backend, projectID.Hex())
	if err != nil {
		logrus.Warnf("⚠️ [FILE] Backend %q không tồn tại, trả link rỗng cho %s", backend, filePath)
		return ""
	}

	url, err := bucket.GetBlob(filePath).GetURL(ctx, global.ServerConfig.LinkValidity(backend), isPublic)
	if err != nil {
		logrus.Warnf("⚠️ [FILE] Không tạo được link cho blob %s trên %s: %v", filePath, backend, err)
		return ""
	}
	return url
}

// EnsureValidLink kiểm tra hạn link của file document và regenerate khi
// link đã hết hạn hoặc chưa từng được tạo.
func (s *FileService) EnsureValidLink(ctx context.Context, file *models.File) error {
	now := time.Now().UTC()
	if file.LinkExpires != nil && now.Before(*file.LinkExpires) {
		return nil
	}
	return s.GenerateAllLinks(ctx, file, now)
}

// GenerateAllLinks tạo lại link cho file và mọi variation, đặt hạn mới
// theo validity của backend rồi lưu lại document (bump _updated/_etag).
// File trên backend không còn đăng ký (CDN cũ) giữ nguyên link đã lưu,
// chỉ gia hạn link_expires để không bị quét lại mỗi request.
func (s *FileService) GenerateAllLinks(ctx context.Context, file *models.File, now time.Time) error {
	legacyBackend := !storage.HasBackend(file.Backend) &&
		!(file.Backend == storage.BackendGCS && global.ServerConfig.Testing)
	if legacyBackend {
		expires := now.Add(global.ServerConfig.LinkValidity(file.Backend))
		file.LinkExpires = &expires
		updated, err := s.UpdateById(ctx, file.ID, &basesvc.UpdateData{
			Set: bson.M{"link_expires": expires},
		})
		if err != nil {
			return err
		}
		file.UpdatedAt = updated.UpdatedAt
		file.Etag = updated.Etag
		logrus.Debugf("🔄 [FILE] Backend %q không còn đăng ký, giữ link cũ cho file %s", file.Backend, file.ID.Hex())
		return nil
	}

	file.Link = s.GenerateLink(ctx, file.Backend, file.FilePath, file.Project, false)
	for i := range file.Variations {
		v := &file.Variations[i]
		v.Link = s.GenerateLink(ctx, file.Backend, v.FilePath, file.Project, v.IsPublic)
	}
	expires := now.Add(global.ServerConfig.LinkValidity(file.Backend))
	file.LinkExpires = &expires

	updated, err := s.UpdateById(ctx, file.ID, &basesvc.UpdateData{
		Set: bson.M{
			"link":         file.Link,
			"link_expires": expires,
			"variations":   file.Variations,
		},
	})
	if err != nil {
		return err
	}
	// Giữ response nhất quán với document vừa lưu
	file.UpdatedAt = updated.UpdatedAt
	file.Etag = updated.Etag
	return nil
}

// RefreshLinksForProject làm mới theo chunk các link sắp hết hạn của một project.
func (s *FileService) RefreshLinksForProject(ctx context.Context, projectID primitive.ObjectID, chunkSize int64, expiryWindow time.Duration) error {
	now := time.Now().UTC()
	expireBefore := now.Add(expiryWindow)

	opts := options.Find().
		SetSort(bson.M{"link_expires": 1}).
		SetLimit(chunkSize)
	files, err := s.Find(ctx, bson.M{
		"project":      projectID,
		"link_expires": bson.M{"$lt": expireBefore},
	}, opts)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	for i := range files {
		if err := s.GenerateAllLinks(ctx, &files[i], now); err != nil {
			return err
		}
	}
	logrus.Infof("🔄 [FILE] Đã làm mới %d link cho project %s", len(files), projectID.Hex())
	return nil
}

// RefreshLinksForBackend làm mới theo chunk các link của một backend:
// link đã hết hạn trong cửa sổ cho trước, link chưa có hạn, hoặc chưa có link.
// File mồ côi project (project không còn hoặc đã xóa) và file thiếu
// file_path bị bỏ qua; lỗi từng file không chặn cả đợt.
func (s *FileService) RefreshLinksForBackend(ctx context.Context, backendName string, chunkSize int64, expiryWindow time.Duration) (int, error) {
	now := time.Now().UTC()
	expireBefore := now.Add(expiryWindow)

	opts := options.Find().
		SetSort(bson.M{"link_expires": 1}).
		SetLimit(chunkSize).
		SetBatchSize(5)
	files, err := s.Find(ctx, bson.M{"$or": bson.A{
		bson.M{"backend": backendName, "link_expires": nil},
		bson.M{"backend": backendName, "link_expires": bson.M{"$lt": expireBefore}},
		bson.M{"backend": backendName, "link": nil},
	}}, opts)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, nil
	}

	refreshed := 0
	for i := range files {
		select {
		case <-ctx.Done():
			logrus.Warnf("⚠️ [FILE] Dừng refresh link sau %d file: %v", refreshed, ctx.Err())
			return refreshed, nil
		default:
		}

		file := &files[i]
		if file.Project.IsZero() {
			continue
		}
		if _, err := s.projects.FindActiveById(ctx, file.Project); err != nil {
			if common.IsNotFound(err) {
				continue
			}
			return refreshed, err
		}
		if file.FilePath == "" {
			logrus.Warnf("⚠️ [FILE] File %s thiếu file_path, bỏ qua", file.ID.Hex())
			continue
		}

		if err := s.GenerateAllLinks(ctx, file, now); err != nil {
			// Backend từ chối một file không được chặn cả đợt refresh
			logrus.Warnf("⚠️ [FILE] Không làm mới được link cho file %s: %v", file.ID.Hex(), err)
			continue
		}
		refreshed++
	}

	logrus.Infof("🔄 [FILE] Đã làm mới %d link trên backend %s", refreshed, backendName)
	return refreshed, nil
}
