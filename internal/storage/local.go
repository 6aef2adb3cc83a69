package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/armadillica/pillar-sub000/internal/common"

	"github.com/sirupsen/logrus"
)

// BackendLocal là tên backend lưu trữ trên filesystem của server.
const BackendLocal = "local"

// LocalBackend lưu blob dưới thư mục gốc cấu hình.
// Đường dẫn của blob: <root>/<bucket[:2]>/<bucket>/<blob>.
// Hai ký tự đầu của tên bucket làm thư mục trung gian để tránh
// một thư mục chứa quá nhiều bucket.
type LocalBackend struct {
	root string
	// serveURLPrefix là prefix URL mà file router phục vụ blob local
	// (ví dụ "https://host/storage/file"). URL blob = prefix/<bucket>/<blob>.
	serveURLPrefix string
}

// NewLocalBackend tạo backend local với thư mục gốc và prefix URL phục vụ file.
func NewLocalBackend(root string, serveURLPrefix string) (*LocalBackend, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, common.NewError(
			common.ErrCodeStorage,
			fmt.Sprintf("Không thể tạo thư mục lưu trữ '%s': %v", root, err),
			common.StatusInternalServerError,
			err,
		)
	}
	return &LocalBackend{
		root:           root,
		serveURLPrefix: strings.TrimRight(serveURLPrefix, "/"),
	}, nil
}

// Name trả về tên backend
func (b *LocalBackend) Name() string {
	return BackendLocal
}

// GetBucket trả về bucket local theo tên
func (b *LocalBackend) GetBucket(name string) Bucket {
	return &LocalBucket{backend: b, name: name}
}

// LocalBucket là bucket trên filesystem
type LocalBucket struct {
	backend *LocalBackend
	name    string
}

// Name trả về tên bucket
func (b *LocalBucket) Name() string {
	return b.name
}

// Backend trả về tên backend
func (b *LocalBucket) Backend() string {
	return BackendLocal
}

// GetBlob trả về blob theo tên nội bộ
func (b *LocalBucket) GetBlob(name string) Blob {
	return &LocalBlob{bucket: b, name: name}
}

// RenameBlob đổi tên file của blob trên filesystem.
func (b *LocalBucket) RenameBlob(ctx context.Context, blob Blob, newName string) (Blob, error) {
	src, ok := blob.(*LocalBlob)
	if !ok {
		return nil, common.NewError(
			common.ErrCodeStorage,
			fmt.Sprintf("Blob '%s' không thuộc backend local", blob.Name()),
			common.StatusInternalServerError,
			nil,
		)
	}

	dest := &LocalBlob{bucket: b, name: newName}
	if err := os.MkdirAll(filepath.Dir(dest.path()), 0o750); err != nil {
		return nil, common.NewError(
			common.ErrCodeStorage,
			fmt.Sprintf("Không thể tạo thư mục cho blob '%s': %v", newName, err),
			common.StatusInternalServerError,
			err,
		)
	}
	if err := os.Rename(src.path(), dest.path()); err != nil {
		return nil, common.NewError(
			common.ErrCodeStorage,
			fmt.Sprintf("Không thể đổi tên blob '%s' thành '%s': %v", src.name, newName, err),
			common.StatusInternalServerError,
			err,
		)
	}

	logrus.WithFields(logrus.Fields{
		"bucket":   b.name,
		"old_name": src.name,
		"new_name": newName,
	}).Debug("✅ [STORAGE] Đã đổi tên blob local")
	return dest, nil
}

// path trả về đường dẫn thư mục của bucket trên filesystem
func (b *LocalBucket) path() string {
	prefix := b.name
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return filepath.Join(b.backend.root, prefix, b.name)
}

// LocalBlob là blob trên filesystem
type LocalBlob struct {
	bucket *LocalBucket
	name   string
}

// Name trả về tên nội bộ của blob
func (b *LocalBlob) Name() string {
	return b.name
}

// path trả về đường dẫn file của blob trên filesystem
func (b *LocalBlob) path() string {
	return filepath.Join(b.bucket.path(), b.name)
}

// FilePath trả về đường dẫn file trên filesystem, dùng cho serve file
// có hỗ trợ range request (tua video).
func (b *LocalBlob) FilePath() string {
	return b.path()
}

// Exists kiểm tra file có tồn tại không
func (b *LocalBlob) Exists(ctx context.Context) (bool, error) {
	_, err := os.Stat(b.path())
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, common.NewError(
		common.ErrCodeStorage,
		fmt.Sprintf("Không thể kiểm tra blob '%s': %v", b.name, err),
		common.StatusInternalServerError,
		err,
	)
}

// CreateFromStream ghi nội dung blob từ stream xuống filesystem.
// Ghi vào file tạm rồi rename để blob không bao giờ đọc được ở trạng thái dở dang.
func (b *LocalBlob) CreateFromStream(ctx context.Context, r io.Reader, size int64, contentType string) error {
	dir := filepath.Dir(b.path())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return common.NewError(
			common.ErrCodeStorage,
			fmt.Sprintf("Không thể tạo thư mục bucket '%s': %v", b.bucket.name, err),
			common.StatusInternalServerError,
			err,
		)
	}

	// Tên blob có thể chứa thư mục, pattern của CreateTemp thì không được
	tmp, err := os.CreateTemp(dir, filepath.Base(b.name)+".upload-*")
	if err != nil {
		return common.NewError(
			common.ErrCodeStorage,
			fmt.Sprintf("Không thể tạo file tạm cho blob '%s': %v", b.name, err),
			common.StatusInternalServerError,
			err,
		)
	}
	tmpName := tmp.Name()

	written, err := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if err != nil || closeErr != nil {
		os.Remove(tmpName)
		if err == nil {
			err = closeErr
		}
		return common.NewError(
			common.ErrCodeStorage,
			fmt.Sprintf("Ghi blob '%s' thất bại: %v", b.name, err),
			common.StatusInternalServerError,
			err,
		)
	}

	if size >= 0 && written != size {
		os.Remove(tmpName)
		return common.NewError(
			common.ErrCodeStorage,
			fmt.Sprintf("Blob '%s' ghi được %d bytes, mong đợi %d bytes", b.name, written, size),
			common.StatusInternalServerError,
			nil,
		)
	}

	if err := os.Rename(tmpName, b.path()); err != nil {
		os.Remove(tmpName)
		return common.NewError(
			common.ErrCodeStorage,
			fmt.Sprintf("Không thể hoàn tất blob '%s': %v", b.name, err),
			common.StatusInternalServerError,
			err,
		)
	}

	logrus.WithFields(logrus.Fields{
		"bucket": b.bucket.name,
		"blob":   b.name,
		"bytes":  written,
	}).Debug("✅ [STORAGE] Đã ghi blob local")
	return nil
}

// Size trả về kích thước file trên filesystem
func (b *LocalBlob) Size(ctx context.Context) (int64, error) {
	info, err := os.Stat(b.path())
	if err != nil {
		return 0, common.NewError(
			common.ErrCodeStorage,
			fmt.Sprintf("Không thể đọc kích thước blob '%s': %v", b.name, err),
			common.StatusNotFound,
			err,
		)
	}
	return info.Size(), nil
}

// GetURL trả về URL phục vụ blob qua file router của chính server.
// Backend local không ký URL; thời hạn link do layer file quản lý.
func (b *LocalBlob) GetURL(ctx context.Context, validity time.Duration, isPublic bool) (string, error) {
	return fmt.Sprintf("%s/%s/%s", b.bucket.backend.serveURLPrefix, b.bucket.name, b.name), nil
}

// MakePublic không có tác dụng trên backend local, mọi blob đều phục vụ qua file router.
func (b *LocalBlob) MakePublic(ctx context.Context) error {
	return nil
}

// UpdateFilename không có tác dụng trên backend local; tên file hiển thị
// lấy từ document file khi phục vụ.
func (b *LocalBlob) UpdateFilename(ctx context.Context, filename string) error {
	return nil
}

// UpdateContentType không có tác dụng trên backend local; content type
// lấy từ document file khi phục vụ.
func (b *LocalBlob) UpdateContentType(ctx context.Context, contentType, contentEncoding string) error {
	return nil
}

// Delete xoá file khỏi filesystem
func (b *LocalBlob) Delete(ctx context.Context) error {
	err := os.Remove(b.path())
	if err != nil && !os.IsNotExist(err) {
		return common.NewError(
			common.ErrCodeStorage,
			fmt.Sprintf("Không thể xoá blob '%s': %v", b.name, err),
			common.StatusInternalServerError,
			err,
		)
	}
	return nil
}

// OpenStream mở stream đọc blob, dùng cho CopyToBucket và file router.
func (b *LocalBlob) OpenStream(ctx context.Context) (io.ReadCloser, int64, string, error) {
	f, err := os.Open(b.path())
	if err != nil {
		return nil, 0, "", common.NewError(
			common.ErrCodeStorage,
			fmt.Sprintf("Không thể mở blob '%s': %v", b.name, err),
			common.StatusNotFound,
			err,
		)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, "", common.NewError(
			common.ErrCodeStorage,
			fmt.Sprintf("Không thể đọc thông tin blob '%s': %v", b.name, err),
			common.StatusInternalServerError,
			err,
		)
	}

	contentType := mime.TypeByExtension(filepath.Ext(b.name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return f, info.Size(), contentType, nil
}
