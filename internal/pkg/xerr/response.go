package xerr

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// CodeError 结构体用于在服务层传递带有业务码的错误
// 它实现了 error 接口
type CodeError struct {
	Code int   // 业务错误码
	Err  error // 被包裹的底层错误
}

// Error 实现 error 接口
func (e *CodeError) Error() string {
	return e.Err.Error()
}

// Unwrap 返回被包裹的底层错误，支持 errors.Unwrap
func (e *CodeError) Unwrap() error {
	return e.Err
}

// NewCodeError 创建一个 CodeError 实例
func NewCodeError(code int, err error) *CodeError {
	return &CodeError{Code: code, Err: err}
}

// Is 判断错误是否为指定的错误类型
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Response 是通用 JSON 响应结构
type Response struct {
	Success bool   `json:"success"`           // 请求是否成功
	Code    int    `json:"code"`              // 业务状态码
	Message string `json:"message,omitempty"` // 消息
	Error   string `json:"error,omitempty"`   // 错误描述，仅失败时填充
	Data    any    `json:"data,omitempty"`    // 响应数据
}

// Success 成功响应
func Success(c *gin.Context, httpStatus int, message string, data any) {
	c.JSON(httpStatus, Response{
		Success: true,
		Code:    SuccessCode,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, Response{
		Success: false,
		Code:    code,
		Error:   message,
	})
}

// AbortWithError 终止请求并发送错误响应
func AbortWithError(c *gin.Context, httpStatus int, code int, message string) {
	Error(c, httpStatus, code, message)
	c.Abort() // 终止后续的 HandlerFunc
}
