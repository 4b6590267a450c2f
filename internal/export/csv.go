// Package export serializes the final record collection to spreadsheet and
// document formats. Sinks accept exactly the canonical record shape plus
// the session metadata; they never mutate it.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/finlens/ledgerscan/internal/model"
)

// CSVWriter writes the ledger as CSV.
type CSVWriter struct {
	// IncludeMetadata prepends bank name and period as comment rows.
	IncludeMetadata bool
}

// WriteToFile writes the ledger to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, records []model.TransactionRecord, bankName, period *string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, records, bankName, period)
}

// Write writes the ledger in CSV form to out.
func (w *CSVWriter) Write(out io.Writer, records []model.TransactionRecord, bankName, period *string) error {
	cw := csv.NewWriter(out)
	defer cw.Flush()

	if w.IncludeMetadata {
		if bankName != nil {
			cw.Write([]string{"# Bank", *bankName})
		}
		if period != nil {
			cw.Write([]string{"# Statement Period", *period})
		}
	}

	header := []string{"Date", "Description", "Debit", "Credit", "Balance", "Reference", "Category", "Cost Type"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.Date,
			r.Description,
			formatAmount(r.Debit),
			formatAmount(r.Credit),
			formatAmount(r.Balance),
			r.Reference,
			r.Category,
			r.CostType,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
