package filesvc

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/armadillica/pillar-sub000/config"
	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	basesvc "github.com/armadillica/pillar-sub000/internal/api/base/service"
	models "github.com/armadillica/pillar-sub000/internal/api/file/models"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"
	"github.com/armadillica/pillar-sub000/internal/imaging"
	"github.com/armadillica/pillar-sub000/internal/storage"
)

// StreamToStorage nhận stream upload của user, ghi vào storage backend
// mặc định và chạy pipeline xử lý theo loại file (thumbnail cho ảnh,
// probe + transcode job cho video).
func (s *FileService) StreamToStorage(ctx context.Context, session *authsvc.AuthSession, projectID primitive.ObjectID, filename, contentType string, size int64, r io.Reader) (models.File, error) {
	if contentType == "" {
		return models.File{}, common.NewError(
			common.ErrCodeValidationInput,
			"Upload thiếu content type",
			common.StatusBadRequest,
			nil,
		)
	}
	if _, err := s.projects.FindActiveById(ctx, projectID); err != nil {
		return models.File{}, err
	}
	if err := s.assertFileSizeAllowed(session, size); err != nil {
		return models.File{}, err
	}

	logrus.Infof("🔄 [FILE] User %s upload %q (%d bytes) vào project %s",
		session.User.ID.Hex(), filename, size, projectID.Hex())

	// Tên nội bộ trên storage: uuid hex + extension gốc
	u := uuid.New()
	internalName := hex.EncodeToString(u[:]) + strings.ToLower(filepath.Ext(filename))

	doc := models.File{
		Name:        internalName,
		Filename:    filename,
		ContentType: contentType,
		Length:      size,
		User:        session.User.ID,
		Project:     projectID,
		Backend:     global.ServerConfig.StorageBackend,
		Status:      models.StatusUploading,
	}
	created, err := s.InsertOne(ctx, doc)
	if err != nil {
		return models.File{}, err
	}

	bucket, err := storage.GetBucket(created.Backend, projectID.Hex())
	if err != nil {
		return models.File{}, err
	}

	major, _, _ := strings.Cut(contentType, "/")
	needsLocalProcessing := major == "image" || major == "video"

	var localPath string
	if needsLocalProcessing {
		// Ảnh và video cần xử lý cục bộ (thumbnail, ffprobe), nên stream
		// được ghi ra temp file trước rồi mới đẩy lên bucket.
		localPath, err = s.spoolToTempFile(r)
		if err != nil {
			s.markFailed(ctx, created.ID)
			return models.File{}, err
		}
		defer os.Remove(localPath)

		local, err := os.Open(localPath)
		if err != nil {
			s.markFailed(ctx, created.ID)
			return models.File{}, common.NewError(
				common.ErrCodeFile,
				fmt.Sprintf("Không mở được temp file: %v", err),
				common.StatusInternalServerError,
				err,
			)
		}
		err = bucket.GetBlob(internalName).CreateFromStream(ctx, local, size, contentType)
		local.Close()
		if err != nil {
			s.markFailed(ctx, created.ID)
			return models.File{}, err
		}
	} else {
		if err := bucket.GetBlob(internalName).CreateFromStream(ctx, r, size, contentType); err != nil {
			s.markFailed(ctx, created.ID)
			return models.File{}, err
		}
	}

	created, err = s.UpdateById(ctx, created.ID, &basesvc.UpdateData{
		Set: bson.M{
			"status":    models.StatusQueuedForProcessing,
			"file_path": internalName,
		},
	})
	if err != nil {
		return models.File{}, err
	}

	if err := s.processFile(ctx, bucket, &created, session, localPath); err != nil {
		s.markFailed(ctx, created.ID)
		return models.File{}, err
	}

	if err := s.GenerateAllLinks(ctx, &created, time.Now().UTC()); err != nil {
		return models.File{}, err
	}
	return created, nil
}

// assertFileSizeAllowed chặn upload quá quota với user không có role
// trong danh sách unlimited (subscriber/demo/admin).
func (s *FileService) assertFileSizeAllowed(session *authsvc.AuthSession, size int64) error {
	if session.HasRole(global.ServerConfig.UnlimitedUploadRoles()...) {
		return nil
	}
	limit := global.ServerConfig.FilesizeLimitBytesNonSubs
	if size < limit {
		return nil
	}
	logrus.Infof("⚠️ [FILE] User %s upload %.3f MiB nhưng quota là %.3f MiB",
		session.User.ID.Hex(), float64(size)/(1<<20), float64(limit)/(1<<20))
	return common.ErrQuotaExceeded
}

// processFile chạy pipeline xử lý theo MIME category của file.
func (s *FileService) processFile(ctx context.Context, bucket storage.Bucket, file *models.File, session *authsvc.AuthSession, localPath string) error {
	major, minor, _ := strings.Cut(file.ContentType, "/")

	// Chặn video pipeline với user không phải admin: đổi content type để
	// các hook phía sau coi đây là file thường.
	if major == "video" && !session.IsAdmin() {
		xified := minor
		if !strings.HasPrefix(xified, "x-") {
			xified = "x-" + xified
		}
		file.ContentType = "application/" + xified
		major = "application"
		logrus.Infof("🔄 [FILE] Không xử lý video %s cho user thường, content type đổi thành %s",
			file.ID.Hex(), file.ContentType)
	}

	var err error
	switch major {
	case "image":
		err = s.processImage(ctx, bucket, file, localPath)
	case "video":
		err = s.processVideo(ctx, file, localPath)
	default:
		file.Status = models.StatusComplete
	}
	if err != nil {
		return err
	}

	set := bson.M{
		"status":                    file.Status,
		"content_type":              file.ContentType,
		"length_aggregate_in_bytes": file.AggregateLength(),
	}
	if file.Width > 0 {
		set["width"] = file.Width
		set["height"] = file.Height
	}
	if file.Duration > 0 {
		set["duration"] = file.Duration
	}
	if len(file.Variations) > 0 {
		set["variations"] = file.Variations
	}
	if file.Processing != nil {
		set["processing"] = file.Processing
	}

	updated, err := s.UpdateById(ctx, file.ID, &basesvc.UpdateData{Set: set})
	if err != nil {
		return err
	}
	*file = updated
	return nil
}

// processImage đọc kích thước ảnh, sinh thumbnail cho mọi size cấu hình
// và đẩy chúng lên bucket. Thumbnail size "t" được mở public.
func (s *FileService) processImage(ctx context.Context, bucket storage.Bucket, file *models.File, localPath string) error {
	local, err := os.Open(localPath)
	if err != nil {
		return common.NewError(
			common.ErrCodeFile,
			fmt.Sprintf("Không mở được temp file ảnh: %v", err),
			common.StatusInternalServerError,
			err,
		)
	}
	defer local.Close()

	src, err := imaging.DecodeImage(local)
	if err != nil {
		return err
	}
	bounds := src.Bounds()
	file.Width = bounds.Dx()
	file.Height = bounds.Dy()

	logrus.Infof("🔄 [FILE] Sinh thumbnail cho file %s", file.ID.Hex())

	root := strings.TrimSuffix(file.FilePath, filepath.Ext(file.FilePath))
	variations := make([]models.FileVariation, 0, len(config.ThumbnailSizeNames))
	for _, sizeName := range config.ThumbnailSizeNames {
		spec := config.ThumbnailSizes[sizeName]
		thumb, err := imaging.GenerateThumbnail(src, spec)
		if err != nil {
			return err
		}

		variationPath := fmt.Sprintf("%s-%s.%s", root, sizeName, thumb.Extension)
		isPublic := sizeName == "t"

		blob := bucket.GetBlob(variationPath)
		if err := blob.CreateFromStream(ctx, bytes.NewReader(thumb.Data), int64(len(thumb.Data)), thumb.ContentType); err != nil {
			return err
		}
		if isPublic {
			if err := blob.MakePublic(ctx); err != nil {
				logrus.Warnf("⚠️ [FILE] Không mở public được thumbnail %s: %v", variationPath, err)
			}
		}

		variations = append(variations, models.FileVariation{
			Size:        sizeName,
			Format:      thumb.Extension,
			ContentType: thumb.ContentType,
			FilePath:    variationPath,
			Length:      int64(len(thumb.Data)),
			Width:       thumb.Width,
			Height:      thumb.Height,
			IsPublic:    isPublic,
		})
	}

	file.Variations = variations
	file.Status = models.StatusComplete
	logrus.Infof("✅ [FILE] Đã xử lý xong ảnh %s (%d thumbnail)", file.ID.Hex(), len(variations))
	return nil
}

// processVideo probe kích thước/thời lượng video, tạo variation mp4
// placeholder với kích thước đã cap và gửi transcode job cho encoder.
func (s *FileService) processVideo(ctx context.Context, file *models.File, localPath string) error {
	info := imaging.ProbeVideo(ctx, global.ServerConfig.BinFfprobe, localPath)
	file.Width = info.Width
	file.Height = info.Height
	file.Duration = info.Duration

	cappedWidth, cappedHeight := imaging.CapVideoDimensions(info.Width, info.Height)

	root := strings.TrimSuffix(file.FilePath, filepath.Ext(file.FilePath))
	file.Variations = []models.FileVariation{{
		Size:        imaging.VideoSizeDescriptor(cappedWidth, cappedHeight),
		Format:      "mp4",
		ContentType: "video/mp4",
		FilePath:    fmt.Sprintf("%s-mp4.mp4", root),
		Width:       cappedWidth,
		Height:      cappedHeight,
		Duration:    info.Duration,
	}}

	if global.ServerConfig.Testing {
		logrus.Warnf("⚠️ [FILE] TESTING bật, không gửi transcode job cho file %s", file.ID.Hex())
		file.Processing = &models.Processing{
			JobID:   "fake-process-id",
			Backend: "fake",
			Status:  models.ProcessingPending,
		}
		file.Status = models.StatusProcessing
		return nil
	}

	if s.encoder == nil {
		logrus.Warnf("⚠️ [FILE] Không có encoder, video %s không được transcode", file.ID.Hex())
		file.Status = models.StatusComplete
		return nil
	}

	jobID, backend, err := s.encoder.JobCreate(ctx, file)
	if err != nil {
		logrus.Warnf("⚠️ [FILE] Không tạo được transcode job cho file %s: %v", file.ID.Hex(), err)
		return err
	}
	logrus.Infof("✅ [FILE] Đã tạo transcode job %s (backend %s) cho file %s", jobID, backend, file.ID.Hex())

	file.Processing = &models.Processing{
		JobID:   jobID,
		Backend: backend,
		Status:  models.ProcessingPending,
	}
	file.Status = models.StatusProcessing
	return nil
}

// spoolToTempFile ghi stream upload ra temp file trong thư mục storage.
func (s *FileService) spoolToTempFile(r io.Reader) (string, error) {
	if err := os.MkdirAll(global.ServerConfig.StorageDir, 0o750); err != nil {
		return "", common.NewError(
			common.ErrCodeStorage,
			fmt.Sprintf("Không tạo được thư mục temp: %v", err),
			common.StatusInternalServerError,
			err,
		)
	}
	tmp, err := os.CreateTemp(global.ServerConfig.StorageDir, "upload-*")
	if err != nil {
		return "", common.NewError(
			common.ErrCodeStorage,
			fmt.Sprintf("Không tạo được temp file: %v", err),
			common.StatusInternalServerError,
			err,
		)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, r); err != nil {
		os.Remove(tmp.Name())
		return "", common.NewError(
			common.ErrCodeFile,
			fmt.Sprintf("Không ghi được stream upload: %v", err),
			common.StatusInternalServerError,
			err,
		)
	}
	return tmp.Name(), nil
}

// markFailed đánh dấu file lỗi, nuốt lỗi update vì đây là cleanup path.
func (s *FileService) markFailed(ctx context.Context, fileID primitive.ObjectID) {
	if _, err := s.UpdateById(ctx, fileID, &basesvc.UpdateData{
		Set: bson.M{"status": models.StatusFailed},
	}); err != nil {
		logrus.Warnf("⚠️ [FILE] Không đánh dấu failed được file %s: %v", fileID.Hex(), err)
	}
}
