package biz

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/sahilm/fuzzy"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/domain"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/observability"
)

// DefaultClarificationExamples 澄清回复中列出的示例数
const DefaultClarificationExamples = 5

// RegistryOrder 完整匹配时的注册表顺序
var RegistryOrder = []string{domain.RegistryComputations, domain.RegistryHelp}

// ChatUsecase 聊天指标用例
type ChatUsecase struct {
	classifier *TrivialClassifier
	matcher    *IntentMatcher
	catalog    *Catalog
	executor   *MetricExecutor
	customers  domain.CustomerRepository
	examples   int
	logger     *zap.Logger
}

// NewChatUsecase 创建聊天用例
func NewChatUsecase(
	classifier *TrivialClassifier,
	matcher *IntentMatcher,
	catalog *Catalog,
	executor *MetricExecutor,
	customers domain.CustomerRepository,
	examples int,
	logger *zap.Logger,
) *ChatUsecase {
	if examples <= 0 {
		examples = DefaultClarificationExamples
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatUsecase{
		classifier: classifier,
		matcher:    matcher,
		catalog:    catalog,
		executor:   executor,
		customers:  customers,
		examples:   examples,
		logger:     logger,
	}
}

// Catalog 当前目录
func (uc *ChatUsecase) Catalog() *Catalog { return uc.catalog }

// Handle 处理一条聊天消息
func (uc *ChatUsecase) Handle(ctx context.Context, q *domain.ChatQuery) (*domain.ChatReply, error) {
	if q == nil || strings.TrimSpace(q.TenantID) == "" {
		return nil, domain.ErrUnauthenticatedTenant
	}

	ctx, span := observability.StartSpan(ctx, tracerName, "ChatUsecase.Handle")
	defer span.End()
	span.SetAttributes(attribute.String("tenant.id", q.TenantID))

	if trivial, reply := uc.classifier.Classify(q.Message); trivial {
		ChatRequestsTotal.WithLabelValues(string(domain.SourceLocal), q.TenantID).Inc()
		return &domain.ChatReply{Source: domain.SourceLocal, Assistant: reply}, nil
	}

	match, ok := uc.matcher.Resolve(q.Message)
	if !ok {
		ChatRequestsTotal.WithLabelValues(string(domain.SourceClarification), q.TenantID).Inc()
		return uc.clarify(q.Message), nil
	}

	IntentMatchTotal.WithLabelValues(match.Registry, match.Tier.String(), q.TenantID).Inc()
	if match.Tier == TierFuzzy {
		IntentFuzzyScore.WithLabelValues(match.Registry).Observe(match.Score)
	}
	span.SetAttributes(
		attribute.String("intent.registry", match.Registry),
		attribute.String("intent.key", match.Key),
		attribute.String("intent.tier", match.Tier.String()),
	)
	uc.logger.Debug("intent matched",
		zap.String("tenant_id", q.TenantID),
		zap.String("registry", match.Registry),
		zap.String("key", match.Key),
		zap.String("tier", match.Tier.String()),
		zap.Float64("score", match.Score),
	)

	if match.Registry == domain.RegistryHelp {
		text, ok := uc.catalog.Help.LookupHelp(match.Key)
		if !ok {
			return nil, uc.desync(match.Key)
		}
		ChatRequestsTotal.WithLabelValues(string(domain.SourceHelp), q.TenantID).Inc()
		return &domain.ChatReply{
			Source:      domain.SourceHelp,
			MetricKey:   match.Key,
			Description: match.Descriptor.Description,
			Assistant:   text,
		}, nil
	}

	params := BuildParameters(match.Descriptor, q.Message, q.Params)
	reply, err := uc.execute(ctx, q.TenantID, match.Key, params, q.Filter)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownMetric) {
			return nil, uc.desync(match.Key)
		}
		return nil, err
	}
	ChatRequestsTotal.WithLabelValues(string(domain.SourceMetric), q.TenantID).Inc()
	return reply, nil
}

// Execute 按键直接执行计算，不经过匹配
func (uc *ChatUsecase) Execute(ctx context.Context, tenantID, key string, params domain.Parameters, filter domain.DatasetFilter) (*domain.ChatReply, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, domain.ErrUnauthenticatedTenant
	}
	return uc.execute(ctx, tenantID, key, params, filter)
}

func (uc *ChatUsecase) execute(ctx context.Context, tenantID, key string, params domain.Parameters, filter domain.DatasetFilter) (*domain.ChatReply, error) {
	ds := domain.NewScopedDataset(tenantID, filter, func(ctx context.Context) ([]*domain.Customer, error) {
		return uc.customers.ListCustomers(ctx, tenantID, filter)
	})

	exec, err := uc.executor.Run(ctx, key, ds, tenantID, params)
	if err != nil {
		return nil, err
	}

	return &domain.ChatReply{
		Source:      domain.SourceMetric,
		MetricKey:   key,
		Description: exec.Descriptor.Description,
		Value:       exec.Result.Value,
		Meta:        exec.Result.Meta,
		Params:      exec.Params,
		Cached:      exec.Cached,
		Assistant:   FormatResult(exec.Descriptor.Description, exec.Result.Value),
	}, nil
}

// desync 匹配器与注册表不一致，属于程序错误
func (uc *ChatUsecase) desync(key string) error {
	uc.logger.Error("matcher returned key absent from registry", zap.String("metric_key", key))
	return kerrors.InternalServer(domain.ReasonUnknownMetric, "internal error").
		WithCause(fmt.Errorf("registry desynchronized for key %q", key))
}

// clarify 未匹配时返回示例指标
func (uc *ChatUsecase) clarify(raw string) *domain.ChatReply {
	examples := uc.suggest(raw)
	return &domain.ChatReply{
		Source: domain.SourceClarification,
		Assistant: fmt.Sprintf("No entendí qué métrica necesitas. Prueba con: %s. También puedes reformular la pregunta.",
			strings.Join(quoteAll(examples), ", ")),
		Examples: examples,
	}
}

// suggest 用消息中的词对计算别名做模糊排序，不足时补充每个指标的键
func (uc *ChatUsecase) suggest(raw string) []string {
	reg := uc.catalog.Computations
	display := reg.Phrases()
	normalized := reg.normalizedPhrases()

	scores := make(map[int]int)
	for _, word := range strings.Fields(Normalize(raw)) {
		if len([]rune(word)) < 3 {
			continue
		}
		for _, m := range fuzzy.Find(word, normalized) {
			scores[m.Index] += m.Score
		}
	}

	ranked := make([]int, 0, len(scores))
	for idx := range scores {
		ranked = append(ranked, idx)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if scores[ranked[i]] != scores[ranked[j]] {
			return scores[ranked[i]] > scores[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	out := make([]string, 0, uc.examples)
	seen := make(map[*domain.MetricDescriptor]struct{})
	owners := reg.candidates
	for _, idx := range ranked {
		if len(out) == uc.examples {
			return out
		}
		d := owners[idx].descriptor
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, display[idx])
	}
	for _, d := range reg.descriptors {
		if len(out) == uc.examples {
			break
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d.Key)
	}
	return out
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
