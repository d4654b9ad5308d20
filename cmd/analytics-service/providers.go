package main

import (
	"go.uber.org/zap"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/biz"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/conf"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/domain"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/auth"
)

// provideCatalog 加载指标与帮助目录
func provideCatalog(cfg *conf.Config) (*biz.Catalog, error) {
	return biz.LoadCatalogFile(cfg.Matcher.CatalogPath)
}

func provideTrivialClassifier() *biz.TrivialClassifier {
	return biz.NewTrivialClassifier(biz.DefaultTrivialRules())
}

// provideIntentMatcher 匹配器覆盖两个注册表
func provideIntentMatcher(cfg *conf.Config, catalog *biz.Catalog) *biz.IntentMatcher {
	return biz.NewIntentMatcher(cfg.Matcher.FuzzyCutoff, catalog.Computations, catalog.Help)
}

func provideMetricExecutor(cfg *conf.Config, catalog *biz.Catalog, cache biz.ResultCache, logger *zap.Logger) *biz.MetricExecutor {
	return biz.NewMetricExecutor(catalog.Computations, cache, cfg.Cache.MetricTTL, logger)
}

func provideChatUsecase(
	cfg *conf.Config,
	classifier *biz.TrivialClassifier,
	matcher *biz.IntentMatcher,
	catalog *biz.Catalog,
	executor *biz.MetricExecutor,
	customers domain.CustomerRepository,
	logger *zap.Logger,
) *biz.ChatUsecase {
	return biz.NewChatUsecase(classifier, matcher, catalog, executor, customers, cfg.Matcher.ClarificationExamples, logger)
}

func provideJWTManager(cfg *conf.Config) *auth.JWTManager {
	return auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.JWTExpiry)
}
