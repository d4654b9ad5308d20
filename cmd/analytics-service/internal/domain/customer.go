package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// 客户状态
const (
	StatusActive    = "activo"
	StatusInactive  = "inactivo"
	StatusCancelled = "cancelado"
)

// Customer 客户记录（已按租户隔离）
type Customer struct {
	ID               string
	TenantID         string
	Name             string
	Status           string
	PlanType         string
	ARPU             *float64
	ContractStart    *time.Time
	CancellationDate *time.Time
}

// DatasetFilter 请求级数据过滤条件，与聊天消息无关
type DatasetFilter struct {
	Start  *time.Time `json:"start,omitempty"`
	End    *time.Time `json:"end,omitempty"`
	Estado string     `json:"estado,omitempty"`
	Tipo   string     `json:"tipo,omitempty"`
}

// Fingerprint 过滤条件的稳定文本表示
func (f DatasetFilter) Fingerprint() string {
	var b strings.Builder
	if f.Start != nil {
		fmt.Fprintf(&b, "start=%s;", f.Start.Format(time.DateOnly))
	}
	if f.End != nil {
		fmt.Fprintf(&b, "end=%s;", f.End.Format(time.DateOnly))
	}
	if f.Estado != "" {
		fmt.Fprintf(&b, "estado=%s;", f.Estado)
	}
	if f.Tipo != "" {
		fmt.Fprintf(&b, "tipo=%s;", f.Tipo)
	}
	return b.String()
}

// DatasetLoader 加载租户数据
type DatasetLoader func(ctx context.Context) ([]*Customer, error)

// ScopedDataset 租户范围内、已应用请求过滤的数据集
// 行数据在首次访问时加载一次；不支持并发访问。
type ScopedDataset struct {
	TenantID string
	Filter   DatasetFilter

	load   DatasetLoader
	rows   []*Customer
	loaded bool
}

// NewScopedDataset 创建延迟加载的数据集
func NewScopedDataset(tenantID string, filter DatasetFilter, load DatasetLoader) *ScopedDataset {
	return &ScopedDataset{TenantID: tenantID, Filter: filter, load: load}
}

// StaticDataset 基于内存行的数据集
func StaticDataset(tenantID string, rows []*Customer) *ScopedDataset {
	return &ScopedDataset{TenantID: tenantID, rows: rows, loaded: true}
}

// Rows 返回数据行
func (d *ScopedDataset) Rows(ctx context.Context) ([]*Customer, error) {
	if d.loaded {
		return d.rows, nil
	}
	if d.load == nil {
		d.loaded = true
		return nil, nil
	}
	rows, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	d.rows = rows
	d.loaded = true
	return rows, nil
}

// Loaded 数据是否已加载
func (d *ScopedDataset) Loaded() bool {
	return d.loaded
}
