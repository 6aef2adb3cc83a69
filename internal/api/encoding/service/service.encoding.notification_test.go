package encodingsvc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	encodingdto "github.com/armadillica/pillar-sub000/internal/api/encoding/dto"
	filemodels "github.com/armadillica/pillar-sub000/internal/api/file/models"
)

// Payload rút gọn theo đúng dạng Zencoder POST về khi job xong:
// duration chỉ nằm ở input, mỗi output tự báo kích thước và resolution.
const finishedNotificationJSON = `{
	"job": {"id": 5678, "state": "finished"},
	"input": {"state": "finished", "duration_in_ms": 5000},
	"outputs": [
		{
			"id": 1, "state": "finished",
			"url": "gcs://bucket/ab/abcdef-mp4.mp4",
			"format": "mpeg4", "width": 1920, "height": 1080,
			"file_size_in_bytes": 1048576, "md5_checksum": "d41d8cd98f"
		},
		{
			"id": 2, "state": "finished",
			"url": "gcs://bucket/ab/abcdef-webm.webm",
			"format": "webm", "width": 1280, "height": 720,
			"file_size_in_bytes": 524288, "md5_checksum": ""
		}
	]
}`

func finishedFixture(t *testing.T) (*filemodels.File, *encodingdto.ZencoderNotification) {
	t.Helper()

	var notif encodingdto.ZencoderNotification
	require.NoError(t, json.Unmarshal([]byte(finishedNotificationJSON), &notif))

	file := &filemodels.File{
		ID:       primitive.NewObjectID(),
		Project:  primitive.NewObjectID(),
		Filename: "dancing-cat.mp4",
		FilePath: "ab/abcdef.mp4",
		Variations: []filemodels.FileVariation{
			{Format: "mp4", Size: "1080p", FilePath: "ab/abcdef-mp4.mp4"},
			{Format: "webm", Size: "720p", FilePath: "ab/abcdef-webm.webm"},
		},
	}
	return file, &notif
}

func TestJobLookup(t *testing.T) {
	filter := jobLookup("5678")
	assert.Equal(t, BackendZencoder, filter["processing.backend"],
		"job id chỉ duy nhất trong phạm vi một backend")
	assert.Equal(t, "5678", filter["processing.job_id"])
}

// recordingRename mô phỏng phần đổi tên blob của finishJob: blob đã nằm ở
// đường dẫn mới thì bỏ qua, ngược lại ghi nhận một lần đổi tên.
type recordingRename struct {
	renames       []string
	downloadNames []string
}

func (r *recordingRename) fn(variation *filemodels.FileVariation, newPath, downloadName string) bool {
	if variation.FilePath == newPath {
		return true
	}
	r.renames = append(r.renames, variation.FilePath+" -> "+newPath)
	r.downloadNames = append(r.downloadNames, downloadName)
	return true
}

func TestApplyOutputs(t *testing.T) {
	file, notif := finishedFixture(t)
	rec := &recordingRename{}

	applyOutputs(file, notif, rec.fn)

	// Duration lấy từ input của job, không phải từ từng output
	mp4 := &file.Variations[0]
	webm := &file.Variations[1]
	assert.Equal(t, 5.0, mp4.Duration)
	assert.Equal(t, 5.0, webm.Duration)

	assert.Equal(t, "1080p", mp4.Size)
	assert.Equal(t, 1920, mp4.Width)
	assert.Equal(t, 1080, mp4.Height)
	assert.Equal(t, int64(1048576), mp4.Length)
	assert.Equal(t, "d41d8cd98f", mp4.MD5)

	assert.Equal(t, "720p", webm.Size)
	assert.Equal(t, int64(524288), webm.Length)

	// Blob mang size descriptor giờ mới biết, format mpeg4 quy về mp4
	assert.Equal(t, "ab/abcdef-1080p.mp4", mp4.FilePath)
	assert.Equal(t, "ab/abcdef-720p.webm", webm.FilePath)
	assert.Equal(t, []string{
		"ab/abcdef-mp4.mp4 -> ab/abcdef-1080p.mp4",
		"ab/abcdef-webm.webm -> ab/abcdef-720p.webm",
	}, rec.renames)
	assert.Equal(t, []string{"dancing-cat-1080p.mp4", "dancing-cat-720p.webm"}, rec.downloadNames)
}

func TestApplyOutputsGuiTrung(t *testing.T) {
	file, notif := finishedFixture(t)
	rec := &recordingRename{}

	applyOutputs(file, notif, rec.fn)
	applyOutputs(file, notif, rec.fn)

	// Notification gửi trùng không đổi tên blob lần thứ hai và cho cùng kết quả
	assert.Len(t, rec.renames, 2)
	assert.Equal(t, 5.0, file.Variations[0].Duration)
	assert.Equal(t, "ab/abcdef-1080p.mp4", file.Variations[0].FilePath)
}

func TestApplyOutputsKhongDoiTenDuoc(t *testing.T) {
	file, notif := finishedFixture(t)

	// Không có storage để đổi tên thì giữ đường dẫn blob cũ nhưng vẫn cập nhật thông số
	applyOutputs(file, notif, nil)

	assert.Equal(t, "ab/abcdef-mp4.mp4", file.Variations[0].FilePath)
	assert.Equal(t, 5.0, file.Variations[0].Duration)
	assert.Equal(t, "1080p", file.Variations[0].Size)
}

func TestNormalizeFormat(t *testing.T) {
	assert.Equal(t, "mp4", normalizeFormat("mpeg4"))
	assert.Equal(t, "webm", normalizeFormat("webm"))
}
