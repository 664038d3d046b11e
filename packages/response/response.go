package response

type ResponseCode int

// Success 成功响应的业务码，错误码见 errors.go
const Success ResponseCode = 100

// Response 统一响应信封
type Response struct {
	Message string       `json:"message"`
	Code    ResponseCode `json:"code"`
	Data    any          `json:"data"`
}

func SuccessResponse(data any) Response {
	return Response{Message: "success", Code: Success, Data: data}
}

// ErrorResponse 错误响应不携带数据
func ErrorResponse(code ResponseCode, msg string) Response {
	return Response{Message: msg, Code: code}
}

// FromError 把业务错误转换为响应信封
func FromError(err *BusinessError) Response {
	return ErrorResponse(err.Code, err.Msg)
}
