package data

import "github.com/google/wire"

// ProviderSet 数据层提供者集合
var ProviderSet = wire.NewSet(
	NewDB,
	NewRedisClient,
	NewClickHouseClient,
	NewEventPublisher,
	NewCustomerRepository,
	NewQueryLogRepository,
	NewResultCache,
)
