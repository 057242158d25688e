package blob

import (
	"context"
	"fmt"
	"strings"

	"procureflow-data/internal/apperr"
)

// MaxImageSize 单张图片上限 5 MiB
const MaxImageSize = 5 * 1024 * 1024

// allowedExtensions 允许的图片扩展名
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// Store 图片存储能力：保存字节流并返回可访问的 URL
// 非图片扩展名和超过 MaxImageSize 的载荷被拒绝
type Store interface {
	Store(ctx context.Context, orderID string, questionID int, ext string, data []byte) (string, error)
}

// ValidateImage 扩展名与大小校验，两个实现共用
func ValidateImage(ext string, size int) error {
	if !allowedExtensions[strings.ToLower(ext)] {
		return apperr.New(apperr.KindValidation, "only image files (jpg, jpeg, png, gif) are allowed")
	}
	if size > MaxImageSize {
		return apperr.Newf(apperr.KindValidation, "image exceeds maximum size of %d bytes", MaxImageSize)
	}
	return nil
}

// objectName 对象名：orderId-questionId.ext，重复上传覆盖
func objectName(orderID string, questionID int, ext string) string {
	return fmt.Sprintf("%s-%d%s", orderID, questionID, strings.ToLower(ext))
}
