package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_JSONPreservesKind(t *testing.T) {
	testCases := []struct {
		name  string
		value Value
		json  string
	}{
		{name: "null", value: NullValue(), json: "null"},
		{name: "int", value: IntValue(42), json: "42"},
		{name: "整数值浮点", value: FloatValue(30), json: "30.0"},
		{name: "浮点", value: FloatValue(17.5), json: "17.5"},
		{name: "大浮点", value: FloatValue(1e21), json: "1e+21"},
		{name: "字符串", value: StringValue("Clientes activos (1):\n- Ana"), json: `"Clientes activos (1):\n- Ana"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.json, string(data))

			var decoded Value
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tc.value, decoded)
		})
	}
}

func TestValue_NonFiniteFloatIsNull(t *testing.T) {
	assert.True(t, FloatValue(math.NaN()).IsNull())
	assert.True(t, FloatValue(math.Inf(1)).IsNull())
	assert.Nil(t, FloatValue(math.Inf(-1)).Interface())
}

func TestMetricResult_JSON(t *testing.T) {
	result := NewMetricResult(NullValue(), map[string]Value{})
	assert.Nil(t, result.Meta)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":null}`, string(data))

	// 显式 null 也需还原为空值而不是 nil 指针
	var decoded struct {
		Value Value `json:"value"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Value.IsNull())
}

func TestDatasetFilter_Fingerprint(t *testing.T) {
	assert.Empty(t, DatasetFilter{}.Fingerprint())
	assert.Equal(t, "estado=activo;tipo=pyme;", DatasetFilter{Estado: "activo", Tipo: "pyme"}.Fingerprint())
}
