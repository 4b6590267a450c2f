package extract

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finlens/ledgerscan/internal/category"
)

func fixedNow() time.Time {
	return time.UnixMilli(1700000000000)
}

func TestNormalizeResult_CompleteRecord(t *testing.T) {
	raw := map[string]interface{}{
		"transactions": []interface{}{
			map[string]interface{}{
				"date":        "2024-03-01",
				"description": "TESCO STORES",
				"debit":       42.5,
				"credit":      nil,
				"balance":     1200.0,
				"reference":   "CARD 1234",
				"category":    "Food & Dining",
				"costType":    "variable",
			},
		},
		"bankName": "Barclays",
		"period":   "March 2024",
	}

	result, err := NormalizeResult(raw, 3, fixedNow())
	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)

	rec := result.Transactions[0]
	assert.Equal(t, fmt.Sprintf("txn_%d_3_0", fixedNow().UnixMilli()), rec.ID)
	assert.Equal(t, "2024-03-01", rec.Date)
	assert.Equal(t, "TESCO STORES", rec.Description)
	require.NotNil(t, rec.Debit)
	assert.Equal(t, 42.5, *rec.Debit)
	assert.Nil(t, rec.Credit)
	require.NotNil(t, rec.Balance)
	assert.Equal(t, 1200.0, *rec.Balance)
	assert.Equal(t, "CARD 1234", rec.Reference)
	assert.Equal(t, "Food & Dining", rec.Category)
	assert.Equal(t, category.CostVariable, rec.CostType)

	require.NotNil(t, result.BankName)
	assert.Equal(t, "Barclays", *result.BankName)
	require.NotNil(t, result.Period)
	assert.Equal(t, "March 2024", *result.Period)
}

func TestNormalizeResult_Defaults(t *testing.T) {
	raw := map[string]interface{}{
		"transactions": []interface{}{
			map[string]interface{}{"description": "mystery", "category": "Groceries"},
			map[string]interface{}{"description": "rent", "costType": "FIXED"},
			map[string]interface{}{"description": "bare"},
		},
	}

	result, err := NormalizeResult(raw, 0, fixedNow())
	require.NoError(t, err)
	require.Len(t, result.Transactions, 3)

	// Unknown category falls back to Other; the vocabulary is closed.
	assert.Equal(t, category.Other, result.Transactions[0].Category)
	// Cost type matching is case-insensitive.
	assert.Equal(t, category.CostFixed, result.Transactions[1].CostType)
	// Absent classification fields get the defaults.
	assert.Equal(t, category.Other, result.Transactions[2].Category)
	assert.Equal(t, category.CostVariable, result.Transactions[2].CostType)

	assert.Nil(t, result.BankName)
	assert.Nil(t, result.Period)
}

func TestNormalizeResult_IDScheme(t *testing.T) {
	raw := map[string]interface{}{
		"transactions": []interface{}{
			map[string]interface{}{"description": "a"},
			map[string]interface{}{"description": "b"},
		},
	}

	result, err := NormalizeResult(raw, 7, fixedNow())
	require.NoError(t, err)

	ms := fixedNow().UnixMilli()
	assert.Equal(t, fmt.Sprintf("txn_%d_7_0", ms), result.Transactions[0].ID)
	assert.Equal(t, fmt.Sprintf("txn_%d_7_1", ms), result.Transactions[1].ID)
}

func TestNormalizeResult_EmptyIsFailure(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]interface{}
	}{
		{name: "empty array", raw: map[string]interface{}{"transactions": []interface{}{}}},
		{name: "absent field", raw: map[string]interface{}{"bankName": "HSBC"}},
		{name: "null field", raw: map[string]interface{}{"transactions": nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeResult(tt.raw, 0, fixedNow())
			require.ErrorIs(t, err, ErrEmptyExtraction)
		})
	}
}

func TestNormalizeResult_InvalidShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]interface{}
	}{
		{name: "transactions not an array", raw: map[string]interface{}{"transactions": "nope"}},
		{name: "element not an object", raw: map[string]interface{}{"transactions": []interface{}{"nope"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeResult(tt.raw, 0, fixedNow())
			require.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestNormalizeResult_MetadataTrimming(t *testing.T) {
	raw := map[string]interface{}{
		"transactions": []interface{}{map[string]interface{}{"description": "x"}},
		"bankName":     "  Lloyds  ",
		"period":       "   ",
	}

	result, err := NormalizeResult(raw, 0, fixedNow())
	require.NoError(t, err)

	require.NotNil(t, result.BankName)
	assert.Equal(t, "Lloyds", *result.BankName)
	// Whitespace-only metadata is treated as absent.
	assert.Nil(t, result.Period)
}
