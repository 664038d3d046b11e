package dto

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"terminal-terrace/sse-blog/internal/logger"
	res "terminal-terrace/sse-blog/packages/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func SuccessResponse(c *gin.Context, data any) {
	c.JSON(http.StatusOK, res.SuccessResponse(data))
}

func ErrorResponse(c *gin.Context, err *res.BusinessError) {
	c.JSON(httpStatus(err.Code), res.FromError(err))
}

// HandleError 把服务层错误转换为响应
// 业务错误按错误码映射 HTTP 状态，其余错误记录日志后返回 500
func HandleError(c *gin.Context, err error) {
	var be *res.BusinessError
	if errors.As(err, &be) {
		if be.Code == res.StorageUnavailable || be.Code == res.Fail {
			logger.Log.WithError(err).WithField("path", c.FullPath()).Error("请求处理失败")
		}
		ErrorResponse(c, be)
		return
	}

	logger.Log.WithError(err).WithField("path", c.FullPath()).Error("请求处理失败")
	c.JSON(http.StatusInternalServerError, res.ErrorResponse(res.Fail, "服务器内部错误"))
}

func httpStatus(code res.ResponseCode) int {
	switch code {
	case res.ParseError, res.InvalidParameter, res.InvalidCategory:
		return http.StatusBadRequest
	case res.Unauthorized:
		return http.StatusUnauthorized
	case res.Forbidden:
		return http.StatusForbidden
	case res.NotFound:
		return http.StatusNotFound
	case res.DuplicateSlug, res.DuplicateName, res.InUse, res.Conflict:
		return http.StatusConflict
	case res.StorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ParseIDParam 解析路径中的数字ID，失败时直接写入错误响应
func ParseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		ErrorResponse(c, res.NewBusinessError(
			res.WithErrorCode(res.ParseError),
			res.WithErrorMessage(fmt.Sprintf("无效的%s", name)),
		))
		return 0, false
	}
	return uint(id), true
}

// QueryInt 读取整数查询参数，缺省或非法时返回 def
func QueryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

// ValidationErrorResponse 处理验证错误，返回友好的JSON字段名
func ValidationErrorResponse(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		firstErr := validationErrs[0]
		jsonField := toSnakeCase(firstErr.Field())

		var message string
		switch firstErr.Tag() {
		case "required":
			message = fmt.Sprintf("字段 '%s' 是必填项", jsonField)
		case "max":
			message = fmt.Sprintf("字段 '%s' 长度不能超过 %s", jsonField, firstErr.Param())
		case "min":
			message = fmt.Sprintf("字段 '%s' 长度不能少于 %s", jsonField, firstErr.Param())
		case "email":
			message = fmt.Sprintf("字段 '%s' 不是有效的邮箱地址", jsonField)
		case "oneof":
			message = fmt.Sprintf("字段 '%s' 必须是以下值之一: %s", jsonField, firstErr.Param())
		default:
			message = fmt.Sprintf("字段 '%s' 验证失败: %s", jsonField, firstErr.Tag())
		}

		ErrorResponse(c, res.NewBusinessError(
			res.WithErrorCode(res.ParseError),
			res.WithErrorMessage(message),
		))
		return
	}

	ErrorResponse(c, res.NewBusinessError(
		res.WithErrorCode(res.ParseError),
		res.WithErrorMessage("参数错误: "+err.Error()),
	))
}

// toSnakeCase 将PascalCase转换为snake_case
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}
