package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/finlens/ledgerscan/internal/model"
	"github.com/finlens/ledgerscan/internal/stats"
)

// JSONWriter writes the ledger and derived statistics as a single JSON
// document.
type JSONWriter struct{}

type jsonDocument struct {
	BankName     *string                   `json:"bankName"`
	Period       *string                   `json:"period"`
	Transactions []model.TransactionRecord `json:"transactions"`
	Stats        stats.Stats               `json:"stats"`
}

// WriteToFile writes the document to the given path.
func (w *JSONWriter) WriteToFile(path string, records []model.TransactionRecord, bankName, period *string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, records, bankName, period)
}

// Write writes the document to out.
func (w *JSONWriter) Write(out io.Writer, records []model.TransactionRecord, bankName, period *string) error {
	doc := jsonDocument{
		BankName:     bankName,
		Period:       period,
		Transactions: records,
		Stats:        stats.Compute(records),
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode JSON document: %w", err)
	}
	return nil
}
