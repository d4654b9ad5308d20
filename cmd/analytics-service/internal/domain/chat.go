package domain

import "time"

// ReplySource 回复来源
type ReplySource string

const (
	// SourceLocal 本地短路回复（问候、感谢、通用帮助）
	SourceLocal ReplySource = "local"
	// SourceHelp 帮助主题
	SourceHelp ReplySource = "help"
	// SourceMetric 指标计算
	SourceMetric ReplySource = "metric"
	// SourceClarification 未匹配，提示用户换种说法
	SourceClarification ReplySource = "clarification"
)

// 注册表名称
const (
	RegistryComputations = "calculos"
	RegistryHelp         = "ayuda"
)

// ChatQuery 聊天请求
type ChatQuery struct {
	TenantID string
	Message  string
	Params   Parameters
	Filter   DatasetFilter
}

// ChatReply 聊天回复
type ChatReply struct {
	Source      ReplySource      `json:"source"`
	Assistant   string           `json:"assistant"`
	MetricKey   string           `json:"metric_key,omitempty"`
	Description string           `json:"description,omitempty"`
	Value       *Value           `json:"value,omitempty"`
	Meta        map[string]Value `json:"meta,omitempty"`
	Params      Parameters       `json:"params,omitempty"`
	Cached      bool             `json:"cached,omitempty"`
	Examples    []string         `json:"examples,omitempty"`
}

// QueryLog 查询审计记录
type QueryLog struct {
	ID        string
	TenantID  string
	Message   string
	Source    ReplySource
	MetricKey string
	Cached    bool
	Latency   time.Duration
	ErrReason string
	CreatedAt time.Time
}
