package biz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatRequestsTotal 聊天请求数（按回复来源）
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churn_chat_requests_total",
			Help: "Total number of churn chat requests by reply source",
		},
		[]string{"source", "tenant_id"},
	)

	// IntentMatchTotal 意图匹配数（按注册表与层级）
	IntentMatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churn_intent_match_total",
			Help: "Total number of intent matches by registry and tier",
		},
		[]string{"registry", "tier", "tenant_id"},
	)

	// IntentFuzzyScore 模糊匹配分数
	IntentFuzzyScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "churn_intent_fuzzy_score",
			Help:    "Similarity score of fuzzy intent matches",
			Buckets: []float64{0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1.0},
		},
		[]string{"registry"},
	)

	// MetricExecutionDuration 指标计算耗时
	MetricExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "churn_metric_execution_duration_seconds",
			Help:    "Metric computation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		},
		[]string{"metric_key", "tenant_id"},
	)

	// MetricCacheHits 结果缓存命中数
	MetricCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churn_metric_cache_hits_total",
			Help: "Total number of metric result cache hits",
		},
		[]string{"metric_key", "tenant_id"},
	)

	// MetricCacheMisses 结果缓存未命中数
	MetricCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churn_metric_cache_misses_total",
			Help: "Total number of metric result cache misses",
		},
		[]string{"metric_key", "tenant_id"},
	)

	// MetricExecutionErrors 指标计算错误数
	MetricExecutionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churn_metric_execution_errors_total",
			Help: "Total number of metric execution errors",
		},
		[]string{"metric_key", "reason", "tenant_id"},
	)
)
