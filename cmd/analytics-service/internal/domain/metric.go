package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ValueKind 指标值类型
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindInt
	KindFloat
	KindString
)

// String 返回类型名
func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "null"
	}
}

// Value 指标标量值（null / int / float / string）
// 零值为 null。
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
}

// NullValue 空值（无数据）
func NullValue() Value { return Value{} }

// IntValue 整数值
func IntValue(v int64) Value { return Value{kind: KindInt, i: v} }

// FloatValue 浮点值，非有限数视为空值
func FloatValue(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{kind: KindFloat, f: v}
}

// StringValue 字符串值
func StringValue(v string) Value { return Value{kind: KindString, s: v} }

// Kind 值类型
func (v Value) Kind() ValueKind { return v.kind }

// IsNull 是否为空值
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int 整数
func (v Value) Int() int64 { return v.i }

// Float 浮点数
func (v Value) Float() float64 { return v.f }

// Str 字符串
func (v Value) Str() string { return v.s }

// Interface 转换为 Go 原生值
func (v Value) Interface() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	default:
		return nil
	}
}

// MarshalJSON 浮点数总是带小数点或指数，保证反序列化后类型不变
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return strconv.AppendInt(nil, v.i, 10), nil
	case KindFloat:
		b := strconv.AppendFloat(nil, v.f, 'g', -1, 64)
		if !bytes.ContainsAny(b, ".eE") {
			b = append(b, '.', '0')
		}
		return b, nil
	case KindString:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON 解析标量
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = Value{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	case bytes.ContainsAny(data, ".eE"):
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("invalid float value %s: %w", data, err)
		}
		*v = FloatValue(f)
	default:
		i, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid scalar value %s: %w", data, err)
		}
		*v = IntValue(i)
	}
	return nil
}

// MetricResult 指标计算结果
// Value 为 nil 表示计算未返回值，属于实现缺陷；空值用 NullValue 表示。
type MetricResult struct {
	Value *Value           `json:"value"`
	Meta  map[string]Value `json:"meta,omitempty"`
}

// NewMetricResult 创建结果
func NewMetricResult(value Value, meta map[string]Value) *MetricResult {
	if len(meta) == 0 {
		meta = nil
	}
	return &MetricResult{Value: &value, Meta: meta}
}

// Parameters 指标参数
type Parameters map[string]any

// ParameterSpec 参数声明
type ParameterSpec struct {
	Name     string `json:"name" yaml:"name"`
	Required bool   `json:"required" yaml:"required"`
}

// ComputeFunc 指标计算函数
type ComputeFunc func(ctx context.Context, ds *ScopedDataset, params Parameters) (*MetricResult, error)

// MetricDescriptor 指标/帮助条目描述
type MetricDescriptor struct {
	Key         string
	Description string
	Parameters  []ParameterSpec
	Aliases     []string

	// Compute 仅计算类条目设置
	Compute ComputeFunc
	// HelpText 仅帮助类条目设置
	HelpText string
}

// HasParameter 是否声明了参数
func (d *MetricDescriptor) HasParameter(name string) bool {
	for _, p := range d.Parameters {
		if p.Name == name {
			return true
		}
	}
	return false
}
