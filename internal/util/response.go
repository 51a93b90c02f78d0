package util

import (
	"errors"
	"net/http"

	"exam_manager/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse 统一错误结构 {error, fields?}，题库不足时附带数量信息
type ErrorResponse struct {
	Error      string   `json:"error"`
	Fields     []string `json:"fields,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	Requested  *int     `json:"requested,omitempty"`
	Available  *int     `json:"available,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, ErrorResponse{Error: message})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, MsgNotFound)
}

func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

func Unprocessable(c *gin.Context, message string) {
	Error(c, http.StatusUnprocessableEntity, message)
}

func ValidationFailed(c *gin.Context, fields ...string) {
	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: MsgValidation, Fields: fields})
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, MsgInternalError)
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.Error(err),
		zap.String("request_id", c.GetString(RequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
	)
	InternalServerError(c)
}

// RespondError 把业务错误映射成 HTTP 状态码，未知错误一律记录日志并返回 500
func RespondError(c *gin.Context, err error) {
	var validationErr *ValidationError
	var poolErr *InsufficientPoolError

	switch {
	case errors.As(err, &validationErr):
		ValidationFailed(c, validationErr.Fields...)
	case errors.As(err, &poolErr):
		requested, available := poolErr.Requested, poolErr.Available
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:      poolErr.Error(),
			Difficulty: poolErr.Difficulty,
			Requested:  &requested,
			Available:  &available,
		})
	case errors.Is(err, ErrExamNotFound), errors.Is(err, ErrQuestionNotFound):
		NotFound(c)
	case errors.Is(err, ErrCrossSubjectReference):
		Unprocessable(c, ErrCrossSubjectReference.Error())
	case errors.Is(err, ErrQuestionInUse):
		Conflict(c, ErrQuestionInUse.Error())
	default:
		LogInternalError(c, err)
	}
}
