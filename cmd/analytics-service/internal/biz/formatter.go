package biz

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/domain"
)

// 千位分隔符使用逗号
var intPrinter = message.NewPrinter(language.English)

// FormatResult 将指标值转换为可读文本
func FormatResult(description string, v *domain.Value) string {
	if v == nil || v.IsNull() {
		return description + ": sin datos"
	}
	switch v.Kind() {
	case domain.KindInt:
		return description + ": " + intPrinter.Sprintf("%d", v.Int())
	case domain.KindFloat:
		return description + ": " + formatFloat(v.Float())
	default:
		return description + ": " + v.Str()
	}
}

// formatFloat 最多三位小数，去掉末尾的 0 和小数点
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', 3, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}
