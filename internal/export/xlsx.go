package export

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/finlens/ledgerscan/internal/model"
	"github.com/finlens/ledgerscan/internal/stats"
)

const (
	transactionsSheet = "Transactions"
	summarySheet      = "Summary"
)

// XLSXWriter writes the ledger as an Excel workbook with a transactions
// sheet and a derived-statistics summary sheet.
type XLSXWriter struct{}

// WriteToFile writes the workbook to the given path.
func (w *XLSXWriter) WriteToFile(path string, records []model.TransactionRecord, bankName, period *string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, records, bankName, period)
}

// Write writes the workbook to out.
func (w *XLSXWriter) Write(out io.Writer, records []model.TransactionRecord, bankName, period *string) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", transactionsSheet)
	if err := writeTransactionsSheet(f, records); err != nil {
		return err
	}
	if err := writeSummarySheet(f, records, bankName, period); err != nil {
		return err
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTransactionsSheet(f *excelize.File, records []model.TransactionRecord) error {
	header := []interface{}{"Date", "Description", "Debit", "Credit", "Balance", "Reference", "Category", "Cost Type"}
	if err := f.SetSheetRow(transactionsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	for i, r := range records {
		row := []interface{}{
			r.Date,
			r.Description,
			cellAmount(r.Debit),
			cellAmount(r.Credit),
			cellAmount(r.Balance),
			r.Reference,
			r.Category,
			r.CostType,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(transactionsSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, records []model.TransactionRecord, bankName, period *string) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	st := stats.Compute(records)

	rows := [][]interface{}{
		{"Bank", orEmpty(bankName)},
		{"Period", orEmpty(period)},
		{"Transactions", st.TransactionCount},
		{"Total Debit", st.TotalDebit},
		{"Total Credit", st.TotalCredit},
		{"Net Flow", st.NetFlow},
		{"Daily Burn Rate", st.DailyBurnRate},
		{"Top Category", st.TopCategory.Category},
		{"Fixed Costs", st.CostBreakdown.Fixed.Total},
		{"Variable Costs", st.CostBreakdown.Variable.Total},
		{},
		{"Summary", stats.SummaryText(st, bankName, period)},
	}

	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}
	return nil
}

func cellAmount(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
