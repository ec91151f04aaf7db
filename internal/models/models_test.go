package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferNotification_UnmarshalAmount(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int64
	}{
		{"integer", `250000`, 250000},
		{"trailing zero fraction", `250000.0`, 250000},
		{"rounded up", `249999.5`, 250000},
		{"rounded down", `250000.4`, 250000},
		{"exponent", `2.5e5`, 250000},
		{"quoted", `"250000"`, 250000},
		{"large integer stays exact", `9007199254740993`, 9007199254740993},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n TransferNotification
			body := `{"content":"SN601810","transferType":"in","referenceCode":"FT1","transferAmount":` + tt.raw + `}`
			require.NoError(t, json.Unmarshal([]byte(body), &n))
			assert.Equal(t, tt.want, n.TransferAmount)
			assert.Equal(t, "SN601810", n.Content)
			assert.Equal(t, TransferIn, n.TransferType)
			assert.Equal(t, "FT1", n.ReferenceCode)
		})
	}
}

func TestTransferNotification_UnmarshalAmountErrors(t *testing.T) {
	var n TransferNotification
	assert.Error(t, json.Unmarshal([]byte(`{"transferAmount":"lots"}`), &n))
	assert.Error(t, json.Unmarshal([]byte(`{"transferAmount":1e300}`), &n))
	assert.Error(t, json.Unmarshal([]byte(`{"transferAmount":true}`), &n))

	require.NoError(t, json.Unmarshal([]byte(`{"content":"x"}`), &n))
	assert.Equal(t, int64(0), n.TransferAmount)
}
