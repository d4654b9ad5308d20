package biz

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "空字符串", input: "", expected: ""},
		{name: "仅空白", input: "   \t\n ", expected: ""},
		{name: "仅标点", input: "¿¡?!.,;:", expected: ""},
		{name: "大小写", input: "Clientes ACTIVOS", expected: "clientes activos"},
		{name: "重音", input: "clíentes actívos", expected: "clientes activos"},
		{name: "西班牙语问号", input: "¿Cuántos clientes activos hay?", expected: "cuantos clientes activos hay"},
		{name: "下划线", input: "clientes_activos", expected: "clientes activos"},
		{name: "日期", input: "churn del 2025-01-01 al 2025-06-30", expected: "churn del 2025 01 01 al 2025 06 30"},
		{name: "合并空白", input: "  arpu \t  promedio  ", expected: "arpu promedio"},
		{name: "ñ 保留基字母", input: "AÑO", expected: "ano"},
		{name: "符号", input: "tasa+churn=%", expected: "tasa churn"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.input); got != tc.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Hola, ¿qué tal?",
		"¡¡CHURN!! del 01/02/2025",
		"İstanbul ﬁnal Ｆｕｌｌ",
		"clíentes   actívos___inactivos",
		"  dime el promedio arpu de este mes  ",
	}

	for _, s := range inputs {
		once := Normalize(s)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q -> %q", s, once, twice)
		}
	}
}

func TestNormalize_CaseAndAccentInvariance(t *testing.T) {
	a := Normalize("Clientes ACTIVOS")
	b := Normalize("clientes activos")
	c := Normalize("clíentes actívos")

	if a != b || b != c {
		t.Errorf("expected equal normalizations, got %q %q %q", a, b, c)
	}
}
