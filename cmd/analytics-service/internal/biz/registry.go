package biz

import (
	"fmt"
	"strings"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/domain"
)

// candidate 规范化后的键或别名及其所属条目
type candidate struct {
	text       string
	display    string
	runes      []string
	descriptor *domain.MetricDescriptor
}

// Registry 不可变的指标注册表，构建后只读
type Registry struct {
	name        string
	descriptors []*domain.MetricDescriptor
	byKey       map[string]*domain.MetricDescriptor
	normKeys    map[string]*domain.MetricDescriptor
	normAliases map[string]*domain.MetricDescriptor
	candidates  []candidate
}

// NewRegistry 构建注册表
// 键为空、键重复、或某条目的键/别名与另一条目的键/别名规范化后相同时返回错误。
func NewRegistry(name string, descriptors []*domain.MetricDescriptor) (*Registry, error) {
	r := &Registry{
		name:        name,
		descriptors: make([]*domain.MetricDescriptor, 0, len(descriptors)),
		byKey:       make(map[string]*domain.MetricDescriptor, len(descriptors)),
		normKeys:    make(map[string]*domain.MetricDescriptor, len(descriptors)),
		normAliases: make(map[string]*domain.MetricDescriptor),
	}

	owner := make(map[string]*domain.MetricDescriptor)
	for _, d := range descriptors {
		if d == nil || strings.TrimSpace(d.Key) == "" {
			return nil, fmt.Errorf("registry %s: descriptor with empty key", name)
		}
		if _, dup := r.byKey[d.Key]; dup {
			return nil, fmt.Errorf("registry %s: duplicate key %q", name, d.Key)
		}

		nk := Normalize(d.Key)
		if nk == "" {
			return nil, fmt.Errorf("registry %s: key %q normalizes to empty text", name, d.Key)
		}
		if other, taken := owner[nk]; taken {
			return nil, fmt.Errorf("registry %s: key %q collides with %q", name, d.Key, other.Key)
		}
		owner[nk] = d
		r.byKey[d.Key] = d
		r.normKeys[nk] = d
		r.descriptors = append(r.descriptors, d)
	}

	// 别名在所有键登记后处理，保证键不会成为其他条目的别名
	for _, d := range r.descriptors {
		for _, alias := range d.Aliases {
			na := Normalize(alias)
			if na == "" {
				return nil, fmt.Errorf("registry %s: alias %q of %q normalizes to empty text", name, alias, d.Key)
			}
			if other, taken := owner[na]; taken {
				if other == d {
					continue
				}
				return nil, fmt.Errorf("registry %s: alias %q of %q collides with %q", name, alias, d.Key, other.Key)
			}
			owner[na] = d
			r.normAliases[na] = d
		}
	}

	// 候选按注册顺序排列：每个条目先键后别名
	r.candidates = make([]candidate, 0, len(owner))
	added := make(map[string]struct{}, len(owner))
	for _, d := range r.descriptors {
		r.candidates = append(r.candidates, newCandidate(Normalize(d.Key), d.Key, d))
		for _, alias := range d.Aliases {
			na := Normalize(alias)
			if _, ok := added[na]; ok || r.normAliases[na] != d {
				continue
			}
			added[na] = struct{}{}
			r.candidates = append(r.candidates, newCandidate(na, alias, d))
		}
	}

	return r, nil
}

// MustNewRegistry 构建失败时 panic，用于静态目录
func MustNewRegistry(name string, descriptors []*domain.MetricDescriptor) *Registry {
	r, err := NewRegistry(name, descriptors)
	if err != nil {
		panic(err)
	}
	return r
}

func newCandidate(text, display string, d *domain.MetricDescriptor) candidate {
	return candidate{text: text, display: display, runes: splitRunes(text), descriptor: d}
}

// Name 注册表名称
func (r *Registry) Name() string { return r.name }

// Get 按键查找
func (r *Registry) Get(key string) (*domain.MetricDescriptor, bool) {
	d, ok := r.byKey[key]
	return d, ok
}

// Descriptors 按注册顺序返回全部条目
func (r *Registry) Descriptors() []*domain.MetricDescriptor {
	out := make([]*domain.MetricDescriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Len 条目数
func (r *Registry) Len() int { return len(r.descriptors) }

// LookupHelp 返回帮助主题的静态文本
func (r *Registry) LookupHelp(key string) (string, bool) {
	d, ok := r.byKey[key]
	if !ok || d.HelpText == "" {
		return "", false
	}
	return d.HelpText, true
}

// Phrases 返回全部键与别名的原始写法，用于澄清提示
func (r *Registry) Phrases() []string {
	out := make([]string, 0, len(r.candidates))
	for _, c := range r.candidates {
		out = append(out, c.display)
	}
	return out
}

// normalizedPhrases 与 Phrases 一一对应的规范化文本
func (r *Registry) normalizedPhrases() []string {
	out := make([]string, 0, len(r.candidates))
	for _, c := range r.candidates {
		out = append(out, c.text)
	}
	return out
}
