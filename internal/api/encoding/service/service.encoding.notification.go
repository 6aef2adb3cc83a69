package encodingsvc

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	basesvc "github.com/armadillica/pillar-sub000/internal/api/base/service"
	encodingdto "github.com/armadillica/pillar-sub000/internal/api/encoding/dto"
	filemodels "github.com/armadillica/pillar-sub000/internal/api/file/models"
	"github.com/armadillica/pillar-sub000/internal/imaging"
	"github.com/armadillica/pillar-sub000/internal/storage"
)

// Các trạng thái job Zencoder báo về
const (
	jobStateFinished  = "finished"
	jobStateFailed    = "failed"
	jobStateCancelled = "cancelled"
)

// jobLookup là filter tra file theo transcode job. Job id chỉ duy nhất
// trong phạm vi một backend nên tra theo cặp (backend, job_id).
func jobLookup(jobID string) bson.M {
	return bson.M{
		"processing.backend": BackendZencoder,
		"processing.job_id":  jobID,
	}
}

// ProcessNotification cập nhật file document theo một notification của Zencoder.
// Chạy lại cùng một notification cho ra cùng kết quả, Zencoder có thể gửi trùng.
func (s *EncodingService) ProcessNotification(ctx context.Context, notif *encodingdto.ZencoderNotification) error {
	jobID := strconv.FormatInt(notif.Job.ID, 10)

	file, err := s.files.FindOne(ctx, jobLookup(jobID), nil)
	if err != nil {
		return err
	}

	state := notif.Job.State
	logrus.Infof("🔄 [ENCODING] Zencoder job %s (file %s) chuyển trạng thái %q",
		jobID, file.ID.Hex(), state)

	switch state {
	case jobStateFinished:
		return s.finishJob(ctx, &file, notif)
	case jobStateFailed, jobStateCancelled:
		logrus.Warnf("❌ [ENCODING] Zencoder job %s thất bại: input %q, lỗi %q",
			jobID, notif.Input.State, notif.Input.ErrorMessage)
		_, err := s.files.UpdateById(ctx, file.ID, &basesvc.UpdateData{
			Set: bson.M{
				"status":            filemodels.StatusFailed,
				"processing.status": state,
			},
		})
		return err
	default:
		// Trạng thái trung gian (pending, waiting, processing...)
		_, err := s.files.UpdateById(ctx, file.ID, &basesvc.UpdateData{
			Set: bson.M{"processing.status": state},
		})
		return err
	}
}

// renameFunc đổi tên blob của một variation trên storage.
// Trả về true khi blob đã nằm ở đường dẫn mới.
type renameFunc func(variation *filemodels.FileVariation, newPath, downloadName string) bool

// finishJob ghi kết quả các output vào variations rồi đánh dấu file complete.
// Blob của mỗi output được đổi tên để mang size descriptor giờ mới biết.
func (s *EncodingService) finishJob(ctx context.Context, file *filemodels.File, notif *encodingdto.ZencoderNotification) error {
	var rename renameFunc
	bucket, err := storage.GetBucket(file.Backend, file.Project.Hex())
	if err != nil {
		logrus.WithError(err).Warnf("⚠️ [ENCODING] Không lấy được bucket của file %s, giữ nguyên tên blob", file.ID.Hex())
	} else {
		rename = func(variation *filemodels.FileVariation, newPath, downloadName string) bool {
			if variation.FilePath == newPath {
				// Notification gửi trùng: blob đã được đổi tên lần trước
				return true
			}
			newBlob, err := bucket.RenameBlob(ctx, bucket.GetBlob(variation.FilePath), newPath)
			if err != nil {
				logrus.WithError(err).Warnf("⚠️ [ENCODING] Không đổi tên được blob %q thành %q, giữ tên cũ",
					variation.FilePath, newPath)
				return false
			}
			if err := newBlob.UpdateFilename(ctx, downloadName); err != nil {
				logrus.WithError(err).Warnf("⚠️ [ENCODING] Không đặt được tên download %q cho blob %q",
					downloadName, newPath)
			}
			return true
		}
	}

	applyOutputs(file, notif, rename)

	file.Status = filemodels.StatusComplete
	if file.Processing != nil {
		file.Processing.Status = filemodels.ProcessingFinished
	}

	updated, err := s.files.UpdateById(ctx, file.ID, &basesvc.UpdateData{
		Set: bson.M{
			"status":                    filemodels.StatusComplete,
			"processing.status":         filemodels.ProcessingFinished,
			"variations":                file.Variations,
			"length_aggregate_in_bytes": file.AggregateLength(),
		},
	})
	if err != nil {
		return err
	}
	*file = updated

	// Output mới nằm trên bucket nhưng chưa có link truy cập
	if err := s.files.GenerateAllLinks(ctx, file, time.Now().UTC()); err != nil {
		return err
	}

	logrus.Infof("✅ [ENCODING] File %s transcode xong, %d output",
		file.ID.Hex(), len(notif.Outputs))
	return nil
}

// applyOutputs ghi thông số các output đã transcode vào variations.
// Zencoder chỉ báo duration của input nên mọi variation dùng chung giá trị đó.
// rename khác nil thì blob của variation được đổi tên sang dạng
// {tên gốc}-{size descriptor}.{format} trước khi cập nhật file_path.
func applyOutputs(file *filemodels.File, notif *encodingdto.ZencoderNotification, rename renameFunc) {
	duration := float64(notif.Input.DurationInMs) / 1000
	storageBase := strings.TrimSuffix(file.FilePath, path.Ext(file.FilePath))
	niceBase := strings.TrimSuffix(file.Filename, path.Ext(file.Filename))

	for i := range notif.Outputs {
		out := &notif.Outputs[i]
		variation := matchVariation(file, out)
		if variation == nil {
			logrus.Warnf("⚠️ [ENCODING] Không tìm thấy variation cho output %s của file %s (format %q, %dx%d)",
				out.URL, file.ID.Hex(), out.Format, out.Width, out.Height)
			continue
		}

		format := normalizeFormat(out.Format)
		size := imaging.VideoSizeDescriptor(out.Width, out.Height)
		newPath := fmt.Sprintf("%s-%s.%s", storageBase, size, format)
		if rename != nil && rename(variation, newPath, fmt.Sprintf("%s-%s.%s", niceBase, size, format)) {
			variation.FilePath = newPath
		}

		variation.Size = size
		variation.Width = out.Width
		variation.Height = out.Height
		variation.Length = out.FileSizeInBytes
		variation.Duration = duration
		variation.MD5 = out.MD5Checksum
	}
}

// matchVariation tìm variation tương ứng với một output: ưu tiên đúng
// format và size, không khớp size thì lấy variation cùng format đầu tiên.
func matchVariation(file *filemodels.File, out *encodingdto.ZencoderOutput) *filemodels.FileVariation {
	format := normalizeFormat(out.Format)
	descriptor := imaging.VideoSizeDescriptor(out.Width, out.Height)
	var sameFormat *filemodels.FileVariation
	for i := range file.Variations {
		v := &file.Variations[i]
		if v.Format != format {
			continue
		}
		if v.Size == descriptor {
			return v
		}
		if sameFormat == nil {
			sameFormat = v
		}
	}
	return sameFormat
}

// normalizeFormat quy chuẩn tên format của Zencoder về tên dùng nội bộ
func normalizeFormat(format string) string {
	if format == "mpeg4" {
		return "mp4"
	}
	return format
}
