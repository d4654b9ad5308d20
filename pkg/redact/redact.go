// Package redact masks personal data in free text before it is persisted.
package redact

import "regexp"

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	// 卡号先于电话匹配；电话至少 9 位数字，不会吞掉 YYYY-MM-DD 日期
	cardRegex  = regexp.MustCompile(`\b\d{4}(?:[ -]?\d{4}){3}\b`)
	phoneRegex = regexp.MustCompile(`\+?\d(?:[\s-]?\d){8,14}`)
)

// Config 需要脱敏的类型
type Config struct {
	Email bool
	Card  bool
	Phone bool
}

// Default 全部启用
func Default() Config {
	return Config{Email: true, Card: true, Phone: true}
}

// Text 替换文本中的敏感信息
func Text(s string, cfg Config) string {
	if cfg.Email {
		s = emailRegex.ReplaceAllString(s, "[EMAIL]")
	}
	if cfg.Card {
		s = cardRegex.ReplaceAllString(s, "[CARD]")
	}
	if cfg.Phone {
		s = phoneRegex.ReplaceAllString(s, "[PHONE]")
	}
	return s
}
