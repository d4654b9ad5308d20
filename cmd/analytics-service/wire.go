//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/app"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/conf"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/data"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/server"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/service"
)

// ProviderSet 依赖注入集合
var ProviderSet = wire.NewSet(
	// Data 层
	data.ProviderSet,

	// Biz 层
	provideCatalog,
	provideTrivialClassifier,
	provideIntentMatcher,
	provideMetricExecutor,
	provideChatUsecase,

	// Service 层
	service.NewChatService,

	// Server 层
	provideJWTManager,
	app.NewHealthChecker,
	server.NewHTTPServer,
	wire.Bind(new(server.Logger), new(*zap.Logger)),

	app.NewApp,
)

// initApp 初始化应用
func initApp(cfg *conf.Config, logger *zap.Logger) (*app.App, func(), error) {
	panic(wire.Build(ProviderSet))
}
