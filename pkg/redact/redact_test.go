package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "无敏感信息", input: "churn del 2025-01-01 al 2025-06-30", expected: "churn del 2025-01-01 al 2025-06-30"},
		{name: "日期不是电话", input: "churn desde 01/02/2025", expected: "churn desde 01/02/2025"},
		{name: "邮箱", input: "arpu de ana@example.com", expected: "arpu de [EMAIL]"},
		{name: "卡号", input: "mi tarjeta 4111 1111 1111 1111", expected: "mi tarjeta [CARD]"},
		{name: "电话", input: "llamar al +57 300 123 4567", expected: "llamar al [PHONE]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Text(tc.input, Default()))
		})
	}
}
