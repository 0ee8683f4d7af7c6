package handler

import (
	"errors"
	"net/http"

	"github.com/blues/fundmagic/internal/logger"
	"github.com/blues/fundmagic/internal/logic"
	"github.com/gin-gonic/gin"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// writeError 将业务错误映射为 HTTP 状态码，其余错误记录日志后返回 500
func writeError(c *gin.Context, err error) {
	var bizErr *logic.BizError
	if errors.As(err, &bizErr) {
		ErrorResponse(c, statusFor(bizErr.Kind), bizErr.Detail)
		return
	}

	logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	ErrorResponse(c, http.StatusInternalServerError, "internal server error")
}

// bindError 请求体格式错误
func bindError(c *gin.Context, err error) {
	ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
}

func statusFor(kind error) int {
	switch kind {
	case logic.ErrUnauthenticated:
		return http.StatusUnauthorized
	case logic.ErrForbidden:
		return http.StatusForbidden
	case logic.ErrNotFound:
		return http.StatusNotFound
	case logic.ErrRejected, logic.ErrConflict:
		return http.StatusBadRequest
	case logic.ErrValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
