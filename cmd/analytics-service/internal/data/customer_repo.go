package data

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/domain"
)

// CustomerDO 客户数据对象
type CustomerDO struct {
	ID               string     `gorm:"primaryKey;size:64"`
	TenantID         string     `gorm:"size:64;not null;index:idx_customers_tenant"`
	Name             string     `gorm:"size:255;not null"`
	Status           string     `gorm:"size:32;not null"`
	PlanType         string     `gorm:"size:64"`
	ARPU             *float64   `gorm:"column:arpu"`
	ContractStart    *time.Time `gorm:"type:date"`
	CancellationDate *time.Time `gorm:"type:date"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName 表名
func (CustomerDO) TableName() string {
	return "customers"
}

// ToDomain 转换为领域对象
func (do *CustomerDO) ToDomain() *domain.Customer {
	return &domain.Customer{
		ID:               do.ID,
		TenantID:         do.TenantID,
		Name:             do.Name,
		Status:           do.Status,
		PlanType:         do.PlanType,
		ARPU:             do.ARPU,
		ContractStart:    do.ContractStart,
		CancellationDate: do.CancellationDate,
	}
}

// CustomerRepository 客户仓储实现
type CustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建客户仓储
func NewCustomerRepository(db *gorm.DB) domain.CustomerRepository {
	return &CustomerRepository{db: db}
}

// ListCustomers 查询租户下满足过滤条件的客户
// start/end 作用于合同开始日期。
func (r *CustomerRepository) ListCustomers(ctx context.Context, tenantID string, filter domain.DatasetFilter) ([]*domain.Customer, error) {
	var rows []CustomerDO
	if err := r.query(ctx, tenantID, filter).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list customers for tenant %s: %w", tenantID, err)
	}

	customers := make([]*domain.Customer, len(rows))
	for i := range rows {
		customers[i] = rows[i].ToDomain()
	}
	return customers, nil
}

func (r *CustomerRepository) query(ctx context.Context, tenantID string, filter domain.DatasetFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&CustomerDO{}).Where("tenant_id = ?", tenantID)
	if filter.Start != nil {
		q = q.Where("contract_start >= ?", filter.Start.Format(time.DateOnly))
	}
	if filter.End != nil {
		q = q.Where("contract_start <= ?", filter.End.Format(time.DateOnly))
	}
	if filter.Estado != "" {
		q = q.Where("LOWER(TRIM(status)) = LOWER(?)", filter.Estado)
	}
	if filter.Tipo != "" {
		q = q.Where("plan_type = ?", filter.Tipo)
	}
	return q.Order("name ASC").Order("id ASC")
}
