package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/catalog-agent/internal/gateway"
)

func TestColumns(t *testing.T) {
	recs := []gateway.Record{
		{"sys_id": "a1", "u_name": "Widget", "u_version": "1.0", "sys_created_by": "admin"},
		{"sys_id": "b2", "u_name": "Gadget", "u_description": "Shiny"},
	}
	assert.Equal(t, []string{"sys_id", "u_name", "u_description", "u_version"}, Columns(recs))
}

func TestWorkbookRoundTrip(t *testing.T) {
	recs := []gateway.Record{
		{"sys_id": "o1", "u_name": "Basic", "u_price": 9.5},
		{"sys_id": "o2", "u_name": "Pro", "u_status": "active"},
	}

	data, err := Workbook(gateway.KindOffering, recs)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("offering")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"sys_id", "u_name", "u_price", "u_status"}, rows[0])
	assert.Equal(t, []string{"o1", "Basic", "9.5"}, rows[1])
	assert.Equal(t, []string{"o2", "Pro", "", "active"}, rows[2])
}

func TestWorkbookEmpty(t *testing.T) {
	data, err := Workbook(gateway.KindSpecification, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, "specifications.xlsx", FileName(gateway.KindSpecification))
}
