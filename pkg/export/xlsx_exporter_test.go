package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestXLSXExporterRender(t *testing.T) {
	data := Dataset{
		Headers: []string{"Name", "Amount"},
		Rows: []map[string]string{
			{"Name": "Tuition", "Amount": "1000.00"},
			{"Name": "+cmd|' /C calc'!A0"},
		},
	}
	payload, err := NewXLSXExporter().Render(data, "feeStructuresWithAVeryLongSheetName")
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer book.Close()

	sheets := book.GetSheetList()
	require.Len(t, sheets, 1)
	assert.Len(t, sheets[0], 31)

	rows, err := book.GetRows(sheets[0])
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "Amount"}, rows[0])
	assert.Equal(t, []string{"Tuition", "1000.00"}, rows[1])
	assert.Equal(t, "+cmd|' /C calc'!A0", rows[2][0])
}

func TestXLSXExporterRequiresHeaders(t *testing.T) {
	_, err := NewXLSXExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}
