package biz

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// CatalogFile 目录文件结构
type CatalogFile struct {
	Computations []CatalogEntryYAML `yaml:"computations"`
	HelpTopics   []CatalogEntryYAML `yaml:"help_topics"`
}

// CatalogEntryYAML 目录条目
type CatalogEntryYAML struct {
	Key         string                 `yaml:"key"`
	Description string                 `yaml:"description"`
	Parameters  []domain.ParameterSpec `yaml:"parameters"`
	Aliases     []string               `yaml:"aliases"`
	Text        string                 `yaml:"text"`
}

// Catalog 计算注册表与帮助注册表
type Catalog struct {
	Computations *Registry
	Help         *Registry
}

// BuiltinComputations 内置计算，键与目录中的计算条目一一对应
func BuiltinComputations() map[string]domain.ComputeFunc {
	return map[string]domain.ComputeFunc{
		"clientes_activos":          countByStatus(domain.StatusActive),
		"inactivos":                 countByStatus(domain.StatusInactive),
		"total_registros":           computeTotalRecords,
		"arpu_promedio":             computeAverageARPU,
		"hallar_churn":              computeChurnRate,
		"listar_clientes_activos":   listByStatus(domain.StatusActive, "activos"),
		"listar_clientes_inactivos": listByStatus(domain.StatusInactive, "inactivos"),
	}
}

// LoadCatalogFile 从文件加载目录，路径为空时使用内置目录
func LoadCatalogFile(path string) (*Catalog, error) {
	if path == "" {
		return LoadCatalog(defaultCatalog, BuiltinComputations())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return LoadCatalog(data, BuiltinComputations())
}

// DefaultCatalog 内置目录
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(defaultCatalog, BuiltinComputations())
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog 解析目录并绑定计算函数
// 目录中的计算条目必须有对应函数，每个函数也必须在目录中出现。
func LoadCatalog(data []byte, funcs map[string]domain.ComputeFunc) (*Catalog, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}

	computations := make([]*domain.MetricDescriptor, 0, len(file.Computations))
	bound := make(map[string]struct{}, len(funcs))
	for _, e := range file.Computations {
		fn, ok := funcs[e.Key]
		if !ok {
			return nil, fmt.Errorf("computation %q has no implementation", e.Key)
		}
		bound[e.Key] = struct{}{}
		computations = append(computations, &domain.MetricDescriptor{
			Key:         e.Key,
			Description: e.Description,
			Parameters:  e.Parameters,
			Aliases:     e.Aliases,
			Compute:     fn,
		})
	}
	for key := range funcs {
		if _, ok := bound[key]; !ok {
			return nil, fmt.Errorf("computation %q missing from catalog", key)
		}
	}

	topics := make([]*domain.MetricDescriptor, 0, len(file.HelpTopics))
	for _, e := range file.HelpTopics {
		if e.Text == "" {
			return nil, fmt.Errorf("help topic %q has no text", e.Key)
		}
		topics = append(topics, &domain.MetricDescriptor{
			Key:         e.Key,
			Description: e.Description,
			Aliases:     e.Aliases,
			HelpText:    e.Text,
		})
	}

	comp, err := NewRegistry(domain.RegistryComputations, computations)
	if err != nil {
		return nil, err
	}
	help, err := NewRegistry(domain.RegistryHelp, topics)
	if err != nil {
		return nil, err
	}

	return &Catalog{Computations: comp, Help: help}, nil
}
