package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// cliOptions are the flags shared by every command.
type cliOptions struct {
	baseURL string
	token   string
	timeout time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "stackerly-cli",
		Short:         "Stackerly CLI tool",
		Long:          `A command line interface for the Stackerly inventory and cash ledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("STACKERLY_URL", "http://localhost:8080"), "Base URL of the Stackerly API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("STACKERLY_TOKEN"), "Bearer token for authenticated servers")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		locationCmd(opts),
		storeCmd(opts),
		restockCmd(opts),
		saleCmd(opts),
		stateCmd(opts),
		itemCmd(opts),
		ledgerCmd(opts),
		purchasesCmd(opts),
		reconcileCmd(opts),
		migrateCmd(),
		tokenCmd(),
	)

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
