package domain

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/errors"
)

// 错误原因
const (
	ReasonUnauthenticatedTenant = "UNAUTHENTICATED_TENANT"
	ReasonUnknownMetric         = "UNKNOWN_METRIC"
	ReasonInvalidParameters     = "INVALID_PARAMETERS"
	ReasonMalformedMetricResult = "MALFORMED_METRIC_RESULT"
	ReasonComputationError      = "COMPUTATION_ERROR"
)

var (
	// ErrUnauthenticatedTenant 缺少或无效的租户上下文
	ErrUnauthenticatedTenant = errors.Unauthorized(ReasonUnauthenticatedTenant, "tenant not authenticated")

	// ErrUnknownMetric 指标不存在
	ErrUnknownMetric = errors.NotFound(ReasonUnknownMetric, "unknown metric")

	// ErrInvalidParameters 参数不合法
	ErrInvalidParameters = errors.BadRequest(ReasonInvalidParameters, "invalid parameters")

	// ErrMalformedMetricResult 计算结果缺少 value
	ErrMalformedMetricResult = errors.InternalServer(ReasonMalformedMetricResult, "metric result has no value")

	// ErrComputation 计算失败
	ErrComputation = errors.BadRequest(ReasonComputationError, "could not compute metric")
)

// UnknownMetric 指标不存在
func UnknownMetric(key string) error {
	return errors.NotFound(ReasonUnknownMetric, fmt.Sprintf("unknown metric %q", key)).
		WithMetadata(map[string]string{"metric_key": key})
}

// InvalidParameter 参数错误，携带参数名
func InvalidParameter(param, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return errors.BadRequest(ReasonInvalidParameters, fmt.Sprintf("parameter %q: %s", param, msg)).
		WithMetadata(map[string]string{"parameter": param})
}

// MalformedMetricResult 计算未返回 value
func MalformedMetricResult(key string) error {
	return errors.InternalServer(ReasonMalformedMetricResult, fmt.Sprintf("metric %q returned no value", key)).
		WithMetadata(map[string]string{"metric_key": key})
}

// ComputationError 计算过程中的非参数错误
func ComputationError(key string, cause error) error {
	return errors.BadRequest(ReasonComputationError, fmt.Sprintf("could not compute metric %q", key)).
		WithMetadata(map[string]string{"metric_key": key}).
		WithCause(cause)
}
