package blob

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// HTTPStore 远端 blob 服务客户端
// PUT {endpoint}/objects/{name}，成功后拼接公网 URL 返回
type HTTPStore struct {
	client    *resty.Client
	publicURL string
	logger    *zap.Logger
}

// NewHTTPStore 创建远端存储客户端
func NewHTTPStore(endpoint, publicURL string, logger *zap.Logger) *HTTPStore {
	client := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &HTTPStore{
		client:    client,
		publicURL: publicURL,
		logger:    logger,
	}
}

var _ Store = (*HTTPStore)(nil)

func (s *HTTPStore) Store(ctx context.Context, orderID string, questionID int, ext string, data []byte) (string, error) {
	if err := ValidateImage(ext, len(data)); err != nil {
		return "", err
	}

	name := objectName(orderID, questionID, ext)
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(data).
		Put("/objects/" + name)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("blob service returned status %d", resp.StatusCode())
	}

	s.logger.Debug("image uploaded",
		zap.String("order_id", orderID),
		zap.Int("question_id", questionID),
		zap.Int("size", len(data)))

	return s.publicURL + "/" + name, nil
}
