package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/biz"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/domain"
	pkgerrors "github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/errors"
)

// auditTimeout 审计写入的超时，与请求本身的取消无关
const auditTimeout = 2 * time.Second

// FilterRequest 数据集过滤条件
type FilterRequest struct {
	Start  string `json:"start"`  // YYYY-MM-DD
	End    string `json:"end"`    // YYYY-MM-DD
	Estado string `json:"estado"` // 客户状态
	Tipo   string `json:"tipo"`   // 套餐类型
}

// ChatRequest 聊天请求
type ChatRequest struct {
	Message string         `json:"message"`
	Params  map[string]any `json:"params"`
	FilterRequest
}

// ExecuteRequest 按键执行指标的请求
type ExecuteRequest struct {
	Params map[string]any `json:"params"`
	FilterRequest
}

// CatalogEntry 目录条目
type CatalogEntry struct {
	Key         string                 `json:"key"`
	Description string                 `json:"description"`
	Parameters  []domain.ParameterSpec `json:"parameters,omitempty"`
	Aliases     []string               `json:"aliases,omitempty"`
}

// CatalogResponse 目录响应
type CatalogResponse struct {
	Computations []CatalogEntry `json:"calculos"`
	Help         []CatalogEntry `json:"ayuda"`
}

// ChatService 聊天服务
type ChatService struct {
	uc       *biz.ChatUsecase
	queryLog domain.QueryLogRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewChatService 创建聊天服务
func NewChatService(uc *biz.ChatUsecase, queryLog domain.QueryLogRepository, logger *zap.Logger) *ChatService {
	return &ChatService{
		uc:       uc,
		queryLog: queryLog,
		logger:   logger,
		now:      time.Now,
	}
}

// Chat 处理一条聊天消息
func (s *ChatService) Chat(ctx context.Context, tenantID string, req *ChatRequest) (*domain.ChatReply, error) {
	filter, err := req.FilterRequest.toDomain()
	if err != nil {
		return nil, err
	}

	start := s.now()
	reply, err := s.uc.Handle(ctx, &domain.ChatQuery{
		TenantID: tenantID,
		Message:  req.Message,
		Params:   domain.Parameters(req.Params),
		Filter:   filter,
	})
	s.audit(ctx, tenantID, req.Message, reply, err, s.now().Sub(start))
	return reply, err
}

// ExecuteMetric 按键执行计算
func (s *ChatService) ExecuteMetric(ctx context.Context, tenantID, key string, req *ExecuteRequest) (*domain.ChatReply, error) {
	filter, err := req.FilterRequest.toDomain()
	if err != nil {
		return nil, err
	}
	return s.uc.Execute(ctx, tenantID, key, domain.Parameters(req.Params), filter)
}

// Catalog 列出计算与帮助主题
func (s *ChatService) Catalog() *CatalogResponse {
	catalog := s.uc.Catalog()
	return &CatalogResponse{
		Computations: catalogEntries(catalog.Computations),
		Help:         catalogEntries(catalog.Help),
	}
}

func catalogEntries(r *biz.Registry) []CatalogEntry {
	descriptors := r.Descriptors()
	entries := make([]CatalogEntry, 0, len(descriptors))
	for _, d := range descriptors {
		entries = append(entries, CatalogEntry{
			Key:         d.Key,
			Description: d.Description,
			Parameters:  d.Parameters,
			Aliases:     d.Aliases,
		})
	}
	return entries
}

// audit 记录查询，失败只写日志
func (s *ChatService) audit(ctx context.Context, tenantID, message string, reply *domain.ChatReply, err error, latency time.Duration) {
	if strings.TrimSpace(tenantID) == "" {
		return
	}
	entry := &domain.QueryLog{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Message:   message,
		Latency:   latency,
		CreatedAt: s.now(),
	}
	if reply != nil {
		entry.Source = reply.Source
		entry.MetricKey = reply.MetricKey
		entry.Cached = reply.Cached
	}
	if err != nil {
		entry.ErrReason = kerrors.Reason(err)
		if entry.ErrReason == "" {
			entry.ErrReason = pkgerrors.ReasonInternal
		}
	}

	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if recErr := s.queryLog.Record(auditCtx, entry); recErr != nil {
		s.logger.Warn("failed to record chat query",
			zap.String("tenant_id", tenantID),
			zap.String("query_id", entry.ID),
			zap.Error(recErr),
		)
	}
}

// toDomain 解析过滤条件
func (f FilterRequest) toDomain() (domain.DatasetFilter, error) {
	filter := domain.DatasetFilter{
		Estado: strings.TrimSpace(f.Estado),
		Tipo:   strings.TrimSpace(f.Tipo),
	}
	var err error
	if filter.Start, err = parseFilterDate("start", f.Start); err != nil {
		return filter, err
	}
	if filter.End, err = parseFilterDate("end", f.End); err != nil {
		return filter, err
	}
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return filter, pkgerrors.NewBadRequest("end must not be before start")
	}
	return filter, nil
}

func parseFilterDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, pkgerrors.NewBadRequest(fmt.Sprintf("invalid %s date %q, expected YYYY-MM-DD", field, value)).
			WithMetadata(map[string]string{"field": field})
	}
	return &t, nil
}
