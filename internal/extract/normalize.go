package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/finlens/ledgerscan/internal/category"
	"github.com/finlens/ledgerscan/internal/model"
)

// NormalizeResult maps the parser's generic output onto canonical
// TransactionRecords. batchOffset disambiguates IDs across extraction calls
// issued within the same millisecond; callers pass the cumulative count of
// files processed so far in the session.
//
// Numeric ranges and calendar validity are deliberately not checked here;
// consumers sort and aggregate whatever survived extraction.
func NormalizeResult(rawOutput map[string]interface{}, batchOffset int, now time.Time) (*model.ExtractionResult, error) {
	entries, err := transactionEntries(rawOutput)
	if err != nil {
		return nil, err
	}

	records := make([]model.TransactionRecord, 0, len(entries))
	for i, item := range entries {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("normalize: transaction %d is %T, want object: %w", i, item, ErrInvalidFormat)
		}
		records = append(records, normalizeEntry(obj, batchOffset, i, now))
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("normalize: %w", ErrEmptyExtraction)
	}

	return &model.ExtractionResult{
		Transactions: records,
		BankName:     optionalString(rawOutput, "bankName"),
		Period:       optionalString(rawOutput, "period"),
	}, nil
}

// transactionEntries pulls the transactions array out of the raw output.
// An absent field is an empty sequence, which NormalizeResult then rejects.
func transactionEntries(rawOutput map[string]interface{}) ([]interface{}, error) {
	txAny, ok := rawOutput["transactions"]
	if !ok || txAny == nil {
		return nil, nil
	}
	entries, ok := txAny.([]interface{})
	if !ok {
		return nil, fmt.Errorf("normalize: 'transactions' is %T, want array: %w", txAny, ErrInvalidFormat)
	}
	return entries, nil
}

// normalizeEntry copies fields verbatim, assigns the composite ID and
// defaults missing classification fields.
func normalizeEntry(obj map[string]interface{}, batchOffset, index int, now time.Time) model.TransactionRecord {
	rec := model.TransactionRecord{
		ID:          fmt.Sprintf("txn_%d_%d_%d", now.UnixMilli(), batchOffset, index),
		Date:        stringField(obj, "date"),
		Description: stringField(obj, "description"),
		Debit:       floatField(obj, "debit"),
		Credit:      floatField(obj, "credit"),
		Balance:     floatField(obj, "balance"),
		Reference:   stringField(obj, "reference"),
		Category:    category.Other,
		CostType:    category.CostVariable,
	}
	if c := stringField(obj, "category"); category.Valid(c) {
		rec.Category = c
	}
	if ct := stringField(obj, "costType"); ct != "" {
		rec.CostType = category.NormalizeCostType(ct)
	}
	return rec
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func floatField(m map[string]interface{}, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		f := v
		return &f
	case int: // unlikely from encoding/json, but harmless to support
		f := float64(v)
		return &f
	}
	return nil
}

func optionalString(m map[string]interface{}, key string) *string {
	v, ok := m[key].(string)
	if !ok {
		return nil
	}
	s := strings.TrimSpace(v)
	if s == "" {
		return nil
	}
	return &s
}
