package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finlens/ledgerscan/internal/model"
)

func floatPtr(f float64) *float64 { return &f }

func strPtr(s string) *string { return &s }

func sampleRecords() []model.TransactionRecord {
	return []model.TransactionRecord{
		{
			ID: "txn_1_0_0", Date: "2024-01-05", Description: "TESCO STORES",
			Debit: floatPtr(42.5), Balance: floatPtr(1200), Reference: "CARD 1234",
			Category: "Food & Dining", CostType: "variable",
		},
		{
			ID: "txn_1_0_1", Date: "2024-01-06", Description: "SALARY",
			Credit: floatPtr(2500), Category: "Income", CostType: "variable",
		},
	}
}

func TestCSVWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{}
	require.NoError(t, w.Write(&buf, sampleRecords(), nil, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Date", "Description", "Debit", "Credit", "Balance", "Reference", "Category", "Cost Type"}, rows[0])
	assert.Equal(t, []string{"2024-01-05", "TESCO STORES", "42.50", "", "1200.00", "CARD 1234", "Food & Dining", "variable"}, rows[1])
	assert.Equal(t, []string{"2024-01-06", "SALARY", "", "2500.00", "", "", "Income", "variable"}, rows[2])
}

func TestCSVWriter_Metadata(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeMetadata: true}
	require.NoError(t, w.Write(&buf, sampleRecords(), strPtr("Barclays"), strPtr("Jan 2024")))

	r := csv.NewReader(&buf)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"# Bank", "Barclays"}, rows[0])
	assert.Equal(t, []string{"# Statement Period", "Jan 2024"}, rows[1])
	assert.Equal(t, "Date", rows[2][0])
}

func TestCSVWriter_MetadataSkippedWhenAbsent(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeMetadata: true}
	require.NoError(t, w.Write(&buf, sampleRecords(), nil, nil))

	r := csv.NewReader(&buf)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Date", rows[0][0])
}

func TestCSVWriter_WriteToFile(t *testing.T) {
	path := t.TempDir() + "/out.csv"
	w := &CSVWriter{}
	require.NoError(t, w.WriteToFile(path, sampleRecords(), nil, nil))

	assert.FileExists(t, path)
}
