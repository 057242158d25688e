package blob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"procureflow-data/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValidateImage(t *testing.T) {
	assert.NoError(t, ValidateImage(".jpg", 1024))
	assert.NoError(t, ValidateImage(".JPEG", 1024))
	assert.NoError(t, ValidateImage(".png", MaxImageSize))
	assert.NoError(t, ValidateImage(".gif", 1024))

	err := ValidateImage(".pdf", 1024)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	err = ValidateImage(".exe", 1024)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	err = ValidateImage(".jpg", MaxImageSize+1)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestObjectName_Overwrites(t *testing.T) {
	// 同一订单同一检查项的重复上传落到同一对象名
	assert.Equal(t, "ord-1-3.jpg", objectName("ord-1", 3, ".JPG"))
	assert.Equal(t, objectName("ord-1", 3, ".jpg"), objectName("ord-1", 3, ".jpg"))
}

func TestDiskStore_WritesAndReturnsURL(t *testing.T) {
	dir := t.TempDir()
	ds, err := NewDiskStore(dir, "https://img.local", zap.NewNop())
	require.NoError(t, err)

	url, err := ds.Store(context.Background(), "ord-1", 3, ".png", []byte("fake-png"))
	require.NoError(t, err)
	assert.Equal(t, "https://img.local/ord-1-3.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "ord-1-3.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png"), data)
}

func TestDiskStore_RejectsInvalidUpload(t *testing.T) {
	ds, err := NewDiskStore(t.TempDir(), "https://img.local", zap.NewNop())
	require.NoError(t, err)

	_, err = ds.Store(context.Background(), "ord-1", 3, ".pdf", []byte("doc"))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = ds.Store(context.Background(), "ord-1", 3, ".jpg", make([]byte, MaxImageSize+1))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}
