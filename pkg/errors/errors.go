package errors

import "errors"

// Kind 业务错误分类
type Kind string

const (
	KindValidation    Kind = "validation"    // 输入缺失、格式错误、唯一键冲突
	KindNotFound      Kind = "not_found"     // 引用的员工、记录或配置不存在
	KindAuthorization Kind = "authorization" // 角色权限不足
	KindConflict      Kind = "conflict"      // 并发追加冲突
	KindInternal      Kind = "internal"      // 存储或识别适配器故障
)

// AppError 带分类的业务错误
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// New 创建业务错误（通常用作模块级哨兵）
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap 为底层错误附加分类
func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// KindOf 返回错误链上第一个 AppError 的分类，未分类的错误视为 internal
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf 返回面向用户的错误描述
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "服务器内部错误"
}

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = New(KindConflict, "数据已被其他操作修改，请刷新后重试")
