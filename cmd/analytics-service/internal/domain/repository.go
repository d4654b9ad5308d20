package domain

import (
	"context"
)

// CustomerRepository 客户数据仓储
type CustomerRepository interface {
	// ListCustomers 返回租户下满足过滤条件的客户
	ListCustomers(ctx context.Context, tenantID string, filter DatasetFilter) ([]*Customer, error)
}

// QueryLogRepository 聊天查询审计日志
type QueryLogRepository interface {
	Record(ctx context.Context, entry *QueryLog) error
}
