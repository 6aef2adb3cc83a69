package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/armadillica/pillar-sub000/internal/common"

	gcs "cloud.google.com/go/storage"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// BackendGCS là tên backend Google Cloud Storage.
const BackendGCS = "gcs"

// Khi không biết trước kích thước upload, buffer ghi lên GCS giữ ở mức nhỏ
// để stream ngay thay vì gom cả file vào bộ nhớ.
const gcsStreamChunkSize = 100 * 1024

// GCSBackend lưu blob trên Google Cloud Storage.
// Mỗi project có một bucket GCS riêng trùng tên (ObjectID hex của project).
type GCSBackend struct {
	client *gcs.Client
}

// NewGCSBackend khởi tạo client GCS.
// credentialsFile rỗng sẽ dùng Application Default Credentials.
func NewGCSBackend(ctx context.Context, credentialsFile string) (*GCSBackend, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, common.NewError(
			common.ErrCodeStorage,
			fmt.Sprintf("Không thể khởi tạo Google Cloud Storage client: %v", err),
			common.StatusInternalServerError,
			err,
		)
	}

	logrus.Info("✅ [STORAGE] Đã khởi tạo Google Cloud Storage client")
	return &GCSBackend{client: client}, nil
}

// Name trả về tên backend
func (b *GCSBackend) Name() string {
	return BackendGCS
}

// GetBucket trả về bucket GCS theo tên
func (b *GCSBackend) GetBucket(name string) Bucket {
	return &GCSBucket{backend: b, name: name, handle: b.client.Bucket(name)}
}

// GCSBucket là bucket trên Google Cloud Storage
type GCSBucket struct {
	backend *GCSBackend
	name    string
	handle  *gcs.BucketHandle
}

// Name trả về tên bucket
func (b *GCSBucket) Name() string {
	return b.name
}

// Backend trả về tên backend
func (b *GCSBucket) Backend() string {
	return BackendGCS
}

// GetBlob trả về blob theo tên nội bộ
func (b *GCSBucket) GetBlob(name string) Blob {
	return &GCSBlob{bucket: b, name: name, handle: b.handle.Object(name)}
}

// RenameBlob đổi tên object bằng server-side copy rồi xoá object cũ.
func (b *GCSBucket) RenameBlob(ctx context.Context, blob Blob, newName string) (Blob, error) {
	src, ok := blob.(*GCSBlob)
	if !ok {
		return nil, common.NewError(
			common.ErrCodeStorage,
			fmt.Sprintf("Blob '%s' không thuộc backend GCS", blob.Name()),
			common.StatusInternalServerError,
			nil,
		)
	}

	destHandle := b.handle.Object(newName)
	if _, err := destHandle.CopierFrom(src.handle).Run(ctx); err != nil {
		return nil, gcsError("đổi tên", src.name, err)
	}
	if err := src.handle.Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		logrus.WithFields(logrus.Fields{
			"bucket": b.name,
			"blob":   src.name,
		}).Warn("⚠️ [STORAGE] Không xoá được object cũ sau khi đổi tên")
	}

	logrus.WithFields(logrus.Fields{
		"bucket":   b.name,
		"old_name": src.name,
		"new_name": newName,
	}).Debug("✅ [STORAGE] Đã đổi tên object GCS")
	return &GCSBlob{bucket: b, name: newName, handle: destHandle}, nil
}

// GCSBlob là object trên Google Cloud Storage
type GCSBlob struct {
	bucket *GCSBucket
	name   string
	handle *gcs.ObjectHandle
}

// Name trả về tên nội bộ của blob
func (b *GCSBlob) Name() string {
	return b.name
}

// Exists kiểm tra object có tồn tại trên GCS không
func (b *GCSBlob) Exists(ctx context.Context) (bool, error) {
	_, err := b.handle.Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	return false, gcsError("kiểm tra", b.name, err)
}

// CreateFromStream upload nội dung blob lên GCS.
func (b *GCSBlob) CreateFromStream(ctx context.Context, r io.Reader, size int64, contentType string) error {
	w := b.handle.NewWriter(ctx)
	w.ContentType = contentType
	if size < 0 {
		w.ChunkSize = gcsStreamChunkSize
	}

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return gcsError("upload", b.name, err)
	}
	if err := w.Close(); err != nil {
		return gcsError("hoàn tất upload", b.name, err)
	}

	logrus.WithFields(logrus.Fields{
		"bucket": b.bucket.name,
		"blob":   b.name,
	}).Debug("✅ [STORAGE] Đã upload blob lên GCS")
	return nil
}

// Size trả về kích thước thật của object trên GCS
func (b *GCSBlob) Size(ctx context.Context) (int64, error) {
	attrs, err := b.handle.Attrs(ctx)
	if err != nil {
		return 0, gcsError("đọc kích thước", b.name, err)
	}
	return attrs.Size, nil
}

// GetURL trả về URL truy cập object.
// isPublic = true trả về URL công khai; ngược lại trả về signed URL có hiệu lực validity.
func (b *GCSBlob) GetURL(ctx context.Context, validity time.Duration, isPublic bool) (string, error) {
	if isPublic {
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.bucket.name, b.name), nil
	}

	url, err := b.bucket.handle.SignedURL(b.name, &gcs.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(validity),
	})
	if err != nil {
		return "", gcsError("ký URL", b.name, err)
	}
	return url, nil
}

// MakePublic cho phép mọi người đọc object
func (b *GCSBlob) MakePublic(ctx context.Context) error {
	if err := b.handle.ACL().Set(ctx, gcs.AllUsers, gcs.RoleReader); err != nil {
		return gcsError("đặt quyền công khai", b.name, err)
	}
	return nil
}

// UpdateFilename đặt tên file hiển thị khi download qua Content-Disposition
func (b *GCSBlob) UpdateFilename(ctx context.Context, filename string) error {
	_, err := b.handle.Update(ctx, gcs.ObjectAttrsToUpdate{
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", filename),
	})
	if err != nil {
		return gcsError("cập nhật tên file", b.name, err)
	}
	return nil
}

// UpdateContentType cập nhật content type và encoding của object
func (b *GCSBlob) UpdateContentType(ctx context.Context, contentType, contentEncoding string) error {
	_, err := b.handle.Update(ctx, gcs.ObjectAttrsToUpdate{
		ContentType:     contentType,
		ContentEncoding: contentEncoding,
	})
	if err != nil {
		return gcsError("cập nhật content type", b.name, err)
	}
	return nil
}

// Delete xoá object khỏi GCS
func (b *GCSBlob) Delete(ctx context.Context) error {
	err := b.handle.Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return gcsError("xoá", b.name, err)
	}
	return nil
}

// OpenStream mở stream đọc object, dùng cho CopyToBucket giữa các backend khác nhau.
func (b *GCSBlob) OpenStream(ctx context.Context) (io.ReadCloser, int64, string, error) {
	r, err := b.handle.NewReader(ctx)
	if err != nil {
		return nil, 0, "", gcsError("đọc", b.name, err)
	}
	return r, r.Attrs.Size, r.Attrs.ContentType, nil
}

// copyGCSToGCS sao chép object giữa hai bucket GCS bằng server-side copy.
func copyGCSToGCS(ctx context.Context, blobName string, src *GCSBucket, dest *GCSBucket) error {
	srcObj := src.handle.Object(blobName)
	destObj := dest.handle.Object(blobName)

	if _, err := destObj.CopierFrom(srcObj).Run(ctx); err != nil {
		return gcsError("sao chép", blobName, err)
	}

	logrus.WithFields(logrus.Fields{
		"blob":        blobName,
		"src_bucket":  src.name,
		"dest_bucket": dest.name,
	}).Info("✅ [STORAGE] Đã sao chép object GCS phía server")
	return nil
}

// gcsError bọc lỗi GCS thành lỗi hệ thống có mã
func gcsError(action, blobName string, err error) error {
	status := common.StatusInternalServerError
	if errors.Is(err, gcs.ErrObjectNotExist) {
		status = common.StatusNotFound
	}
	return common.NewError(
		common.ErrCodeStorage,
		fmt.Sprintf("GCS: không thể %s blob '%s': %v", action, blobName, err),
		status,
		err,
	)
}
