// Package filesvc - service cho domain file.
package filesvc

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "github.com/armadillica/pillar-sub000/internal/api/base/service"
	models "github.com/armadillica/pillar-sub000/internal/api/file/models"
	projectsvc "github.com/armadillica/pillar-sub000/internal/api/project/service"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"
)

// VideoEncoder tạo transcode job cho file video. Encoding service implement
// interface này và được gắn vào qua SetVideoEncoder sau khi khởi tạo.
type VideoEncoder interface {
	JobCreate(ctx context.Context, file *models.File) (jobID string, backend string, err error)
}

// FileService quản lý file document: upload, link ký, variations và lifecycle.
type FileService struct {
	*basesvc.BaseServiceMongoImpl[models.File]
	projects *projectsvc.ProjectService
	encoder  VideoEncoder
}

// NewFileService tạo FileService.
func NewFileService(projects *projectsvc.ProjectService) (*FileService, error) {
	col, exists := global.RegistryCollections.Get(global.MongoDB_ColNames.Files)
	if !exists {
		return nil, common.NewError(
			common.ErrCodeDatabaseConnection,
			"Không tìm thấy collection files",
			common.StatusInternalServerError,
			nil,
		)
	}
	return &FileService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[models.File](col),
		projects:             projects,
	}, nil
}

// SetVideoEncoder gắn encoder cho video pipeline. Không gắn thì file video
// chỉ được probe kích thước, không tạo transcode job.
func (s *FileService) SetVideoEncoder(encoder VideoEncoder) {
	s.encoder = encoder
}

// OverrideContentType ghi đè content_type của file document.
// Dùng khi user không đủ quyền kích hoạt video pipeline: video/mp4 bị
// đổi thành application/x-mp4 để các hook phía sau bỏ qua file này.
func (s *FileService) OverrideContentType(ctx context.Context, fileID primitive.ObjectID, contentType string) error {
	_, err := s.UpdateById(ctx, fileID, &basesvc.UpdateData{
		Set: bson.M{"content_type": contentType},
	})
	return err
}

// UpdateAggregateLength tính lại length_aggregate_in_bytes từ file + variations.
func (s *FileService) UpdateAggregateLength(ctx context.Context, file *models.File) error {
	_, err := s.UpdateById(ctx, file.ID, &basesvc.UpdateData{
		Set: bson.M{"length_aggregate_in_bytes": file.AggregateLength()},
	})
	return err
}
