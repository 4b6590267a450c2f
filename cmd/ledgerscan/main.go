package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/finlens/ledgerscan/internal/logger"
)

var (
	version = "dev"

	rootCmd = &cobra.Command{
		Use:   "ledgerscan",
		Short: "Bank statement extraction engine",
		Long: `ledgerscan turns bank statements (PDF or plain text) into a clean
transaction ledger using Gemini, with derived spending statistics and
CSV/XLSX/JSON export.`,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("model", "", "Gemini model name (default gemini-2.5-flash)")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("gemini.model", rootCmd.PersistentFlags().Lookup("model"))

	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	// A .env in the working directory is optional; real env wins.
	_ = godotenv.Load()

	viper.SetEnvPrefix("LEDGERSCAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// The Gemini SDK's own variable works too, so a plain GEMINI_API_KEY
	// is honored without the prefix.
	if viper.GetString("gemini.api_key") == "" {
		viper.Set("gemini.api_key", os.Getenv("GEMINI_API_KEY"))
	}

	return nil
}

// newLogger builds the process logger from config. Command output goes to
// stdout, so logs go to stderr.
func newLogger() zerolog.Logger {
	return logger.NewWithWriter(zerolog.ConsoleWriter{
		Out: os.Stderr,
	}).Level(levelFromConfig())
}

func levelFromConfig() zerolog.Level {
	if lvl, err := zerolog.ParseLevel(viper.GetString("logging.level")); err == nil && lvl != zerolog.NoLevel {
		return lvl
	}
	return zerolog.InfoLevel
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("ledgerscan %s\n", version)
		},
	}
}
