package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/finlens/ledgerscan/internal/export"
	"github.com/finlens/ledgerscan/internal/extract"
	"github.com/finlens/ledgerscan/internal/recognize"
	"github.com/finlens/ledgerscan/internal/session"
	"github.com/finlens/ledgerscan/internal/stats"
)

func convertCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "convert <statement>...",
		Short: "Extract transactions from statement files",
		Long: `Extracts transactions from one or more statement files (PDF or plain
text) into a single ledger and writes it in the chosen format. Files are
processed in order; a file that fails is dropped from the batch, and the
command fails only when every file fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, format, output)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format (csv, xlsx, json)")
	cmd.Flags().StringVarP(&output, "output", "o", "transactions.csv", "output file path")

	return cmd
}

func runConvert(cmd *cobra.Command, paths []string, format, output string) error {
	ctx := cmd.Context()
	log := newLogger()

	extractor, err := extract.NewGeminiExtractor(ctx, viper.GetString("gemini.api_key"), viper.GetString("gemini.model"), log)
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}

	// One bar across the whole batch, 100 ticks per file.
	bar := progressbar.NewOptions(100*len(paths),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Extracting transactions..."),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
	progress := func(fileIndex, fileCount int, frac float64) {
		_ = bar.Set(fileIndex*100 + int(frac*100))
	}

	s, results, err := session.IngestFiles(ctx, session.New(), paths, recognize.Auto{}, extractor, progress, log)
	if err != nil {
		return fmt.Errorf("%s", extract.UserMessage(err))
	}
	_ = bar.Finish()

	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "warning: %s: %s\n", res.Path, extract.UserMessage(res.Err))
		}
	}

	if err := writeLedger(format, output, s); err != nil {
		return err
	}

	st := stats.Compute(s.Transactions)
	cmd.Printf("Wrote %d transactions to %s\n\n", len(s.Transactions), output)
	cmd.Println(stats.SummaryText(st, s.BankName, s.Period))
	return nil
}

func writeLedger(format, output string, s session.Session) error {
	switch format {
	case "csv":
		writer := &export.CSVWriter{IncludeMetadata: true}
		return writer.WriteToFile(output, s.Transactions, s.BankName, s.Period)
	case "xlsx":
		writer := &export.XLSXWriter{}
		return writer.WriteToFile(output, s.Transactions, s.BankName, s.Period)
	case "json":
		writer := &export.JSONWriter{}
		return writer.WriteToFile(output, s.Transactions, s.BankName, s.Period)
	default:
		return fmt.Errorf("unsupported format %q (want csv, xlsx or json)", format)
	}
}
