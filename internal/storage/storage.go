// Package storage cung cấp abstraction bucket/blob cho các backend lưu trữ file.
// Mỗi project có một bucket riêng (đặt tên theo ObjectID của project); file bên
// trong bucket là các blob định danh bằng tên nội bộ do server sinh ra.
//
// Backend được đăng ký vào registry theo tên ("local", "gcs"); document file
// ghi lại tên backend đang giữ blob của nó nên nhiều backend có thể cùng tồn tại.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/registry"

	"github.com/sirupsen/logrus"
)

// Backend là một hệ thống lưu trữ blob (local filesystem, Google Cloud Storage, ...).
type Backend interface {
	// Name trả về tên backend dùng trong registry và trong document file
	Name() string
	// GetBucket trả về bucket theo tên (tên bucket là ObjectID hex của project)
	GetBucket(name string) Bucket
}

// Bucket là một không gian chứa blob của một project.
type Bucket interface {
	// Name trả về tên bucket
	Name() string
	// Backend trả về tên backend chứa bucket này
	Backend() string
	// GetBlob trả về blob theo tên nội bộ (blob có thể chưa tồn tại)
	GetBlob(name string) Blob
	// RenameBlob đổi tên một blob trong bucket, trả về blob với tên mới.
	// Blob nguồn phải thuộc về chính bucket này.
	RenameBlob(ctx context.Context, blob Blob, newName string) (Blob, error)
}

// Blob là một đối tượng dữ liệu trong bucket.
type Blob interface {
	// Name trả về tên nội bộ của blob
	Name() string
	// Exists kiểm tra blob có tồn tại trên backend không
	Exists(ctx context.Context) (bool, error)
	// CreateFromStream ghi nội dung blob từ stream.
	// size < 0 nghĩa là không biết trước kích thước.
	CreateFromStream(ctx context.Context, r io.Reader, size int64, contentType string) error
	// Size trả về kích thước thật của blob trên backend
	Size(ctx context.Context) (int64, error)
	// GetURL trả về URL truy cập blob, có hiệu lực trong validity.
	// isPublic = true trả về URL công khai không có chữ ký.
	GetURL(ctx context.Context, validity time.Duration, isPublic bool) (string, error)
	// MakePublic đánh dấu blob đọc được công khai
	MakePublic(ctx context.Context) error
	// UpdateFilename đặt tên file hiển thị khi download (Content-Disposition)
	UpdateFilename(ctx context.Context, filename string) error
	// UpdateContentType cập nhật content type (và encoding nếu có) của blob
	UpdateContentType(ctx context.Context, contentType, contentEncoding string) error
	// Delete xoá blob khỏi backend
	Delete(ctx context.Context) error
}

// RegistryBackends chứa các backend lưu trữ đã khởi tạo, key là tên backend.
var RegistryBackends = registry.NewRegistry[Backend]()

// RegisterBackend đăng ký một backend vào registry.
func RegisterBackend(b Backend) {
	isNew, _ := RegistryBackends.Register(b.Name(), b)
	if !isNew {
		logrus.WithField("backend", b.Name()).Warn("⚠️ [STORAGE] Backend đã được đăng ký trước đó")
		return
	}
	logrus.WithField("backend", b.Name()).Info("✅ [STORAGE] Đã đăng ký storage backend")
}

// GetBackend trả về backend theo tên.
func GetBackend(name string) (Backend, error) {
	b, exists := RegistryBackends.Get(name)
	if !exists {
		return nil, common.NewError(
			common.ErrCodeStorage,
			fmt.Sprintf("Storage backend '%s' chưa được khởi tạo", name),
			common.StatusInternalServerError,
			nil,
		)
	}
	return b, nil
}

// HasBackend kiểm tra một backend đã được đăng ký chưa.
// File trên backend không còn đăng ký (ví dụ CDN cũ) chỉ đọc được
// qua link đã lưu, không ghi và không regenerate link được.
func HasBackend(name string) bool {
	_, exists := RegistryBackends.Get(name)
	return exists
}

// GetBucket trả về bucket theo tên backend và tên bucket.
func GetBucket(backendName, bucketName string) (Bucket, error) {
	backend, err := GetBackend(backendName)
	if err != nil {
		return nil, err
	}
	return backend.GetBucket(bucketName), nil
}

// CopyToBucket sao chép một blob sang bucket khác (có thể khác backend).
// Dùng khi gộp project hoặc di chuyển file giữa các backend.
func CopyToBucket(ctx context.Context, blobName string, src Bucket, dest Bucket) error {
	// Cùng backend GCS thì dùng server-side copy, không kéo dữ liệu về
	if srcGCS, ok := src.(*GCSBucket); ok {
		if destGCS, ok := dest.(*GCSBucket); ok {
			return copyGCSToGCS(ctx, blobName, srcGCS, destGCS)
		}
	}

	srcBlob := src.GetBlob(blobName)
	exists, err := srcBlob.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return common.NewError(
			common.ErrCodeStorage,
			fmt.Sprintf("Blob '%s' không tồn tại trong bucket nguồn '%s'", blobName, src.Name()),
			common.StatusNotFound,
			nil,
		)
	}

	reader, size, contentType, err := OpenBlobStream(ctx, srcBlob)
	if err != nil {
		return err
	}
	defer reader.Close()

	destBlob := dest.GetBlob(blobName)
	if err := destBlob.CreateFromStream(ctx, reader, size, contentType); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"blob":        blobName,
		"src_bucket":  src.Name(),
		"dest_bucket": dest.Name(),
	}).Info("✅ [STORAGE] Đã sao chép blob sang bucket mới")
	return nil
}

// streamOpener là blob có thể mở stream đọc trực tiếp (local và GCS đều hỗ trợ).
type streamOpener interface {
	OpenStream(ctx context.Context) (io.ReadCloser, int64, string, error)
}

func OpenBlobStream(ctx context.Context, blob Blob) (io.ReadCloser, int64, string, error) {
	opener, ok := blob.(streamOpener)
	if !ok {
		return nil, 0, "", common.NewError(
			common.ErrCodeStorage,
			"Backend không hỗ trợ đọc stream trực tiếp",
			common.StatusInternalServerError,
			nil,
		)
	}
	return opener.OpenStream(ctx)
}
