package response

import "fmt"

// 业务错误码
const (
	// 失败
	Fail ResponseCode = 0
	// 参数解析错误
	ParseError ResponseCode = 1
	// 参数错误
	InvalidParameter ResponseCode = 2
	// 未登录
	Unauthorized ResponseCode = 3
	// 无权限（非所有者、账号被禁用、对自己执行管理操作）
	Forbidden ResponseCode = 4
	// 资源不存在
	NotFound ResponseCode = 5
	// slug 冲突
	DuplicateSlug ResponseCode = 6
	// 名称冲突（用户名、邮箱、分类名、标签名）
	DuplicateName ResponseCode = 7
	// 仍有关联数据，禁止删除
	InUse ResponseCode = 8
	// 分类不存在或不属于当前用户
	InvalidCategory ResponseCode = 9
	// 并发写冲突，可重试
	Conflict ResponseCode = 10
	// 存储不可用
	StorageUnavailable ResponseCode = 11
)

type BusinessError struct {
	Code ResponseCode
	Msg  string
	Err  error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，使 errors.Is(err, ErrNotFound) 对任意 NotFound 错误成立
func (e *BusinessError) Is(target error) bool {
	t, ok := target.(*BusinessError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

type ErrorOption func(*BusinessError)

func WithErrorCode(code ResponseCode) ErrorOption {
	return func(be *BusinessError) {
		be.Code = code
	}
}

func WithErrorMessage(msg string) ErrorOption {
	return func(be *BusinessError) {
		be.Msg = msg
	}
}

func WithError(err error) ErrorOption {
	return func(be *BusinessError) {
		be.Err = err
	}
}

func NewBusinessError(opts ...ErrorOption) *BusinessError {
	err := &BusinessError{
		Code: Fail,
		Msg:  "business error",
		Err:  nil,
	}
	for _, opt := range opts {
		opt(err)
	}
	return err
}

// 错误分类哨兵，配合 errors.Is 使用
var (
	ErrInvalidParameter   = NewBusinessError(WithErrorCode(InvalidParameter), WithErrorMessage("参数错误"))
	ErrUnauthorized       = NewBusinessError(WithErrorCode(Unauthorized), WithErrorMessage("未登录或认证失败"))
	ErrForbidden          = NewBusinessError(WithErrorCode(Forbidden), WithErrorMessage("无权限执行此操作"))
	ErrNotFound           = NewBusinessError(WithErrorCode(NotFound), WithErrorMessage("资源不存在"))
	ErrDuplicateSlug      = NewBusinessError(WithErrorCode(DuplicateSlug), WithErrorMessage("slug 已存在"))
	ErrDuplicateName      = NewBusinessError(WithErrorCode(DuplicateName), WithErrorMessage("名称已存在"))
	ErrInUse              = NewBusinessError(WithErrorCode(InUse), WithErrorMessage("仍有关联数据，无法删除"))
	ErrInvalidCategory    = NewBusinessError(WithErrorCode(InvalidCategory), WithErrorMessage("分类无效"))
	ErrConflict           = NewBusinessError(WithErrorCode(Conflict), WithErrorMessage("并发冲突，请重试"))
	ErrStorageUnavailable = NewBusinessError(WithErrorCode(StorageUnavailable), WithErrorMessage("存储服务不可用"))
)

// NotFoundError 构造带资源名的 NotFound 错误
func NotFoundError(resource string) *BusinessError {
	return NewBusinessError(WithErrorCode(NotFound), WithErrorMessage(resource+"不存在"))
}

func ForbiddenError(msg string) *BusinessError {
	return NewBusinessError(WithErrorCode(Forbidden), WithErrorMessage(msg))
}

func InvalidParameterError(msg string) *BusinessError {
	return NewBusinessError(WithErrorCode(InvalidParameter), WithErrorMessage(msg))
}

func DuplicateNameError(msg string) *BusinessError {
	return NewBusinessError(WithErrorCode(DuplicateName), WithErrorMessage(msg))
}

func InUseError(msg string) *BusinessError {
	return NewBusinessError(WithErrorCode(InUse), WithErrorMessage(msg))
}
