package biz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/domain"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/observability"
)

// DefaultMetricTTL 结果缓存默认有效期
const DefaultMetricTTL = 300 * time.Second

const tracerName = "analytics-service"

// Execution 一次指标执行
type Execution struct {
	Descriptor *domain.MetricDescriptor
	Params     domain.Parameters
	Result     *domain.MetricResult
	Cached     bool
}

// MetricExecutor 指标执行器：参数校验、租户级缓存、计算、结果校验
type MetricExecutor struct {
	registry *Registry
	cache    ResultCache
	ttl      time.Duration
	logger   *zap.Logger
}

// NewMetricExecutor 创建执行器，ttl 小于等于 0 时关闭缓存
func NewMetricExecutor(registry *Registry, cache ResultCache, ttl time.Duration, logger *zap.Logger) *MetricExecutor {
	if cache == nil {
		cache = NoopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricExecutor{
		registry: registry,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

// Execute 执行指标并返回结果
func (e *MetricExecutor) Execute(ctx context.Context, key string, ds *domain.ScopedDataset, tenantID string, params domain.Parameters) (*domain.MetricResult, error) {
	exec, err := e.Run(ctx, key, ds, tenantID, params)
	if err != nil {
		return nil, err
	}
	return exec.Result, nil
}

// Run 执行指标并返回执行详情
func (e *MetricExecutor) Run(ctx context.Context, key string, ds *domain.ScopedDataset, tenantID string, params domain.Parameters) (*Execution, error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "MetricExecutor.Run")
	defer span.End()
	observability.SetAttributes(span,
		attribute.String("metric.key", key),
		attribute.String("tenant.id", tenantID),
	)

	d, ok := e.registry.Get(key)
	if !ok || d.Compute == nil {
		err := domain.UnknownMetric(key)
		observability.RecordError(span, err)
		return nil, err
	}

	if params == nil {
		params = domain.Parameters{}
	}
	if err := validateParameters(d, params); err != nil {
		e.recordError(key, tenantID, err)
		return nil, err
	}

	var filter domain.DatasetFilter
	if ds != nil {
		filter = ds.Filter
	}

	cacheKey := ""
	if tenantID != "" && e.ttl > 0 {
		k, err := CacheKey(tenantID, key, params, filter)
		if err != nil {
			e.logger.Warn("failed to build cache key", zap.String("metric_key", key), zap.Error(err))
		} else {
			cacheKey = k
		}
	}

	if cacheKey != "" {
		if result, ok := e.lookup(ctx, cacheKey); ok {
			MetricCacheHits.WithLabelValues(key, tenantID).Inc()
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &Execution{Descriptor: d, Params: params, Result: result, Cached: true}, nil
		}
		MetricCacheMisses.WithLabelValues(key, tenantID).Inc()
	}

	start := time.Now()
	result, err := invoke(ctx, d, ds, params)
	MetricExecutionDuration.WithLabelValues(key, tenantID).Observe(time.Since(start).Seconds())
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidParameters) {
			e.logger.Error("metric computation failed",
				zap.String("metric_key", key),
				zap.String("tenant_id", tenantID),
				zap.Error(err),
			)
			err = domain.ComputationError(key, err)
		}
		e.recordError(key, tenantID, err)
		observability.RecordError(span, err)
		return nil, err
	}

	if result == nil || result.Value == nil {
		err := domain.MalformedMetricResult(key)
		e.logger.Error("metric returned malformed result",
			zap.String("metric_key", key),
			zap.String("tenant_id", tenantID),
		)
		e.recordError(key, tenantID, err)
		observability.RecordError(span, err)
		return nil, err
	}
	if len(result.Meta) == 0 {
		result.Meta = nil
	}

	if cacheKey != "" {
		e.store(ctx, cacheKey, result)
	}

	return &Execution{Descriptor: d, Params: params, Result: result}, nil
}

// invoke 调用计算函数，panic 转换为错误
func invoke(ctx context.Context, d *domain.MetricDescriptor, ds *domain.ScopedDataset, params domain.Parameters) (result *domain.MetricResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("panic in metric %s: %v", d.Key, r)
		}
	}()
	if ds == nil {
		ds = domain.StaticDataset("", nil)
	}
	return d.Compute(ctx, ds, params)
}

func validateParameters(d *domain.MetricDescriptor, params domain.Parameters) error {
	for name := range params {
		if !d.HasParameter(name) {
			return domain.InvalidParameter(name, "unexpected parameter for metric %s", d.Key)
		}
	}
	for _, p := range d.Parameters {
		if !p.Required {
			continue
		}
		if v, ok := params[p.Name]; !ok || v == nil {
			return domain.InvalidParameter(p.Name, "required by metric %s", d.Key)
		}
	}
	return nil
}

func (e *MetricExecutor) lookup(ctx context.Context, key string) (*domain.MetricResult, bool) {
	data, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("metric cache read failed", zap.String("cache_key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var entry cachedResult
	if err := json.Unmarshal(data, &entry); err != nil {
		e.logger.Warn("metric cache entry corrupted", zap.String("cache_key", key), zap.Error(err))
		return nil, false
	}
	return entry.result(), true
}

func (e *MetricExecutor) store(ctx context.Context, key string, result *domain.MetricResult) {
	data, err := json.Marshal(cachedResult{Value: *result.Value, Meta: result.Meta})
	if err != nil {
		e.logger.Warn("failed to encode metric result", zap.String("cache_key", key), zap.Error(err))
		return
	}
	if err := e.cache.Set(ctx, key, data, e.ttl); err != nil {
		e.logger.Warn("metric cache write failed", zap.String("cache_key", key), zap.Error(err))
	}
}

func (e *MetricExecutor) recordError(key, tenantID string, err error) {
	MetricExecutionErrors.WithLabelValues(key, kerrors.Reason(err), tenantID).Inc()
}

// cachedResult 缓存中的结果；Value 非指针，null 也会被还原为空值
type cachedResult struct {
	Value domain.Value            `json:"value"`
	Meta  map[string]domain.Value `json:"meta,omitempty"`
}

func (c cachedResult) result() *domain.MetricResult {
	v := c.Value
	return &domain.MetricResult{Value: &v, Meta: c.Meta}
}

// CacheKey 由租户、指标键、参数（键排序序列化）与数据集过滤条件生成确定性缓存键
func CacheKey(tenantID, metricKey string, params domain.Parameters, filter domain.DatasetFilter) (string, error) {
	// encoding/json 对 map 键排序
	payload, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to serialize parameters: %w", err)
	}
	h := sha256.New()
	h.Write(payload)
	h.Write([]byte{'|'})
	h.Write([]byte(filter.Fingerprint()))
	return fmt.Sprintf("metric:%s:%s:%s", tenantID, metricKey, hex.EncodeToString(h.Sum(nil))[:32]), nil
}
