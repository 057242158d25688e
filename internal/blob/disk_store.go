package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// DiskStore 本地磁盘存储（未配置远端 blob 服务时的开发回退）
type DiskStore struct {
	dir       string
	publicURL string
	logger    *zap.Logger
}

// NewDiskStore 创建本地存储，目录不存在时创建
func NewDiskStore(dir, publicURL string, logger *zap.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStore{dir: dir, publicURL: publicURL, logger: logger}, nil
}

var _ Store = (*DiskStore)(nil)

func (s *DiskStore) Store(ctx context.Context, orderID string, questionID int, ext string, data []byte) (string, error) {
	if err := ValidateImage(ext, len(data)); err != nil {
		return "", err
	}

	name := objectName(orderID, questionID, ext)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	s.logger.Debug("image stored on disk",
		zap.String("order_id", orderID),
		zap.Int("question_id", questionID))

	return s.publicURL + "/" + name, nil
}
