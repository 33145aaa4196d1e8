package web

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineRendersPaymentForm(t *testing.T) {
	e := Engine()
	require.NoError(t, e.Load())

	var buf bytes.Buffer
	err := e.Render(&buf, "payment", map[string]any{
		"Request": map[string]string{"Action": "https://pay.example/webscr", "Amount": "40.00", "CurrencyCode": "USD", "ItemName": "ORD-1"},
		"Fields":  [][2]string{{"cmd", "_xclick"}, {"item_name", `<script>`}},
	})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, `action="https://pay.example/webscr"`)
	assert.Contains(t, out, `name="cmd" value="_xclick"`)
	assert.NotContains(t, out, `value="<script>"`, "values are escaped")
}
