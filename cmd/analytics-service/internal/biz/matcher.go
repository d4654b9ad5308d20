package biz

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/domain"
)

// DefaultFuzzyCutoff 模糊匹配的最低相似度
const DefaultFuzzyCutoff = 0.65

// MatchTier 匹配层级
type MatchTier int

const (
	TierExactKey MatchTier = iota + 1
	TierExactAlias
	TierContainment
	TierFuzzy
)

// String 层级名称
func (t MatchTier) String() string {
	switch t {
	case TierExactKey:
		return "exact_key"
	case TierExactAlias:
		return "exact_alias"
	case TierContainment:
		return "containment"
	case TierFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// Match 匹配结果
type Match struct {
	Registry   string
	Key        string
	Tier       MatchTier
	Score      float64
	Candidate  string
	Descriptor *domain.MetricDescriptor
}

// IntentMatcher 分层意图匹配器：精确键 → 精确别名 → 整词包含 → 模糊相似度
type IntentMatcher struct {
	registries map[string]*Registry
	cutoff     float64
}

// NewIntentMatcher 创建匹配器，cutoff 不在 (0,1] 时使用默认值
func NewIntentMatcher(cutoff float64, registries ...*Registry) *IntentMatcher {
	if cutoff <= 0 || cutoff > 1 {
		cutoff = DefaultFuzzyCutoff
	}
	m := &IntentMatcher{
		registries: make(map[string]*Registry, len(registries)),
		cutoff:     cutoff,
	}
	for _, r := range registries {
		m.registries[r.Name()] = r
	}
	return m
}

// Cutoff 当前阈值
func (m *IntentMatcher) Cutoff() float64 { return m.cutoff }

// Registry 按名称获取注册表
func (m *IntentMatcher) Registry(name string) (*Registry, bool) {
	r, ok := m.registries[name]
	return r, ok
}

// Match 按调用方给定的注册表顺序匹配，每个注册表完整检查后再进入下一个
func (m *IntentMatcher) Match(raw string, registries ...string) (*Match, bool) {
	msg := Normalize(raw)
	if msg == "" {
		return nil, false
	}

	return m.match(msg, TierFuzzy, registries)
}

// MatchUpTo 与 Match 相同，但只检查不高于 maxTier 的层级
func (m *IntentMatcher) MatchUpTo(raw string, maxTier MatchTier, registries ...string) (*Match, bool) {
	msg := Normalize(raw)
	if msg == "" {
		return nil, false
	}
	return m.match(msg, maxTier, registries)
}

// Resolve 聊天路由：帮助主题只凭精确键、精确别名或整词包含抢先，
// 其余按 RegistryOrder 完整匹配，帮助主题的模糊层级排在计算之后
func (m *IntentMatcher) Resolve(raw string) (*Match, bool) {
	if match, ok := m.MatchUpTo(raw, TierContainment, domain.RegistryHelp); ok {
		return match, true
	}
	return m.Match(raw, RegistryOrder...)
}

func (m *IntentMatcher) match(msg string, maxTier MatchTier, registries []string) (*Match, bool) {
	for _, name := range registries {
		r, ok := m.registries[name]
		if !ok {
			continue
		}
		if match, ok := m.matchRegistry(r, msg, maxTier); ok {
			return match, true
		}
	}
	return nil, false
}

func (m *IntentMatcher) matchRegistry(r *Registry, msg string, maxTier MatchTier) (*Match, bool) {
	if d, ok := r.normKeys[msg]; ok {
		return newMatch(r, d, TierExactKey, 1, msg), true
	}

	if maxTier < TierExactAlias {
		return nil, false
	}
	if d, ok := r.normAliases[msg]; ok {
		return newMatch(r, d, TierExactAlias, 1, msg), true
	}

	if maxTier < TierContainment {
		return nil, false
	}

	padded := " " + msg + " "
	for _, c := range r.candidates {
		if strings.Contains(padded, " "+c.text+" ") {
			return newMatch(r, c.descriptor, TierContainment, 1, c.text), true
		}
	}
	if maxTier < TierFuzzy {
		return nil, false
	}

	var (
		best      *candidate
		bestScore float64
	)
	sm := difflib.NewMatcher(nil, splitRunes(msg))
	for i := range r.candidates {
		c := &r.candidates[i]
		sm.SetSeq1(c.runes)
		// 相同分数保留先出现的候选
		if score := sm.Ratio(); score > bestScore {
			best, bestScore = c, score
		}
	}
	if best != nil && bestScore >= m.cutoff {
		return newMatch(r, best.descriptor, TierFuzzy, bestScore, best.text), true
	}

	return nil, false
}

func newMatch(r *Registry, d *domain.MetricDescriptor, tier MatchTier, score float64, text string) *Match {
	return &Match{
		Registry:   r.Name(),
		Key:        d.Key,
		Tier:       tier,
		Score:      score,
		Candidate:  text,
		Descriptor: d,
	}
}

// Similarity 两段已规范化文本的序列相似度（Ratcliff/Obershelp）
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(splitRunes(a), splitRunes(b)).Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
