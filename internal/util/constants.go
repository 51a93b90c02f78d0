package util

const (
	// RequestIDKey gin.Context 中请求 ID 的键
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

// 错误响应中的固定文案
const (
	MsgValidation    = "validation"
	MsgNotFound      = "not found"
	MsgInvalidID     = "invalid id"
	MsgInternalError = "internal error"
)

// MaxNameLength 科目和试卷名称的最大长度
const MaxNameLength = 255
