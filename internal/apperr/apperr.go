package apperr

import (
	"errors"
	"fmt"
)

// Kind 业务错误分类
// 所有业务规则失败都同步返回给调用方，HTTP 层按 Kind 映射状态码
type Kind int

const (
	KindUnknown            Kind = iota
	KindNotFound                // 引用的实体不存在或已软删除
	KindValidation              // 输入违反业务规则（未知检查项、缺必答项、非法选项等）
	KindConflict                // 当前状态不允许该操作（completed 订单、邮箱/手机号重复、单例角色重复）
	KindForbidden               // 权限表拒绝
	KindUnauthorized            // 凭证缺失/非法/过期
	KindPreconditionFailed      // 无答卷时尝试 completed
)

// Error 带分类的业务错误，兼容 errors.Is/As 链
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Kind 返回错误分类
func (e *Error) Kind() Kind { return e.kind }

// New 创建业务错误
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Newf 创建带格式化消息的业务错误
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap 包装底层错误并附加分类
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{kind: kind, msg: msg, err: err}
}

// KindOf 提取错误分类，非业务错误返回 KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

// IsKind 错误是否属于指定分类
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
