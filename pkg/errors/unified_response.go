package errors

import (
	"net/http"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
)

// UnifiedErrorResponse 统一错误响应格式
type UnifiedErrorResponse struct {
	Success   bool   `json:"success"`    // 始终为 false
	ErrorCode string `json:"error_code"` // 错误原因，例如 INVALID_PARAMETERS
	Message   string `json:"message"`    // 用户可读的错误消息
	Timestamp string `json:"timestamp"`  // ISO8601

	RequestID string            `json:"request_id,omitempty"`
	TraceID   string            `json:"trace_id,omitempty"`
	Path      string            `json:"path,omitempty"`
	Method    string            `json:"method,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(errorCode, message string) *UnifiedErrorResponse {
	return &UnifiedErrorResponse{
		Success:   false,
		ErrorCode: errorCode,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// FromError 将任意错误转换为 HTTP 状态码与响应体
// 5xx 错误只返回通用消息，原始信息留在日志中。
func FromError(err error) (int, *UnifiedErrorResponse) {
	se := errors.FromError(err)
	if se == nil {
		return http.StatusOK, nil
	}

	status := int(se.Code)
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		return status, NewErrorResponse(se.Reason, "internal error")
	}

	resp := NewErrorResponse(se.Reason, se.Message)
	if len(se.Metadata) > 0 {
		resp.Details = se.Metadata
	}
	return status, resp
}

// WithRequestID 添加请求ID
func (e *UnifiedErrorResponse) WithRequestID(requestID string) *UnifiedErrorResponse {
	e.RequestID = requestID
	return e
}

// WithTraceID 添加链路追踪ID
func (e *UnifiedErrorResponse) WithTraceID(traceID string) *UnifiedErrorResponse {
	e.TraceID = traceID
	return e
}

// WithRequest 添加请求路径与方法
func (e *UnifiedErrorResponse) WithRequest(method, path string) *UnifiedErrorResponse {
	e.Method = method
	e.Path = path
	return e
}
