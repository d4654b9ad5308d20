package biz

import (
	"regexp"
	"strings"
)

const usageHint = `Prueba con: "clientes activos", "churn del 2025-01-01 al 2025-06-30" o "arpu promedio".`

// TrivialRule 短路规则：模式匹配即直接回复，不访问注册表与数据
type TrivialRule struct {
	Name    string
	Pattern *regexp.Regexp
	Reply   string
}

// DefaultTrivialRules 默认规则，按顺序匹配
func DefaultTrivialRules() []TrivialRule {
	return []TrivialRule{
		{
			Name:    "greeting",
			Pattern: regexp.MustCompile(`(?i)^\s*(hola|buenas tardes|buenas noches|buenas|buenos d[ií]as|hi|hey|hello)\b`),
			Reply:   "¡Hola! Soy tu asistente de métricas de clientes. " + usageHint,
		},
		{
			Name:    "thanks",
			Pattern: regexp.MustCompile(`(?i)^\s*(muchas gracias|gracias|thank you|thanks|thx)\b`),
			Reply:   "¡Con gusto! Si necesitas otra métrica, solo pregúntame.",
		},
		{
			Name:    "help",
			Pattern: regexp.MustCompile(`(?i)\b(help|ayuda)\b|qu[eé] puedes hacer|qu[eé] haces`),
			Reply: "Puedo calcular métricas sobre tus clientes: clientes activos e inactivos, total de registros, " +
				"ARPU promedio, tasa de churn por periodo y listados de clientes. " + usageHint,
		},
	}
}

// TrivialClassifier 问候、感谢、通用帮助的短路分类器
type TrivialClassifier struct {
	rules []TrivialRule
}

// NewTrivialClassifier 创建分类器
func NewTrivialClassifier(rules []TrivialRule) *TrivialClassifier {
	return &TrivialClassifier{rules: rules}
}

// Classify 判断消息是否为无需查询指标的简单意图
func (c *TrivialClassifier) Classify(raw string) (bool, string) {
	rule, ok := c.match(raw)
	if !ok {
		return false, ""
	}
	return true, rule.Reply
}

// Rule 返回命中的规则名，空消息返回 "empty"
func (c *TrivialClassifier) Rule(raw string) string {
	rule, ok := c.match(raw)
	if !ok {
		return ""
	}
	return rule.Name
}

func (c *TrivialClassifier) match(raw string) (TrivialRule, bool) {
	if strings.TrimSpace(raw) == "" {
		return TrivialRule{Name: "empty", Reply: "Escribe la métrica que quieres consultar. " + usageHint}, true
	}
	for _, rule := range c.rules {
		if rule.Pattern.MatchString(raw) {
			return rule, true
		}
	}
	return TrivialRule{}, false
}
