package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBucketRenameBlob(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir(), "https://host/storage/file")
	require.NoError(t, err)
	bucket := backend.GetBucket("abcdefprojectid")
	ctx := context.Background()

	blob := bucket.GetBlob("ab/abcdef-mp4.mp4")
	content := "video bytes"
	require.NoError(t, blob.CreateFromStream(ctx, strings.NewReader(content), int64(len(content)), "video/mp4"))

	renamed, err := bucket.RenameBlob(ctx, blob, "ab/abcdef-1080p.mp4")
	require.NoError(t, err)
	assert.Equal(t, "ab/abcdef-1080p.mp4", renamed.Name())

	// Nội dung đi theo tên mới, tên cũ không còn
	r, size, _, err := renamed.(*LocalBlob).OpenStream(ctx)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
	assert.Equal(t, int64(len(content)), size)

	exists, err := blob.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalBucketRenameBlobNguonKhongTonTai(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir(), "https://host/storage/file")
	require.NoError(t, err)
	bucket := backend.GetBucket("abcdefprojectid")

	_, err = bucket.RenameBlob(context.Background(), bucket.GetBlob("khong-co.mp4"), "moi.mp4")
	assert.Error(t, err)
}
