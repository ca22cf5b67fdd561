package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	apperrors "github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/errors"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	os.Exit(apperrors.ExitCode(err))
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "smart-eval",
		Short: "Vector-space retrieval with SMART weighting, evaluated by MAP",
		Long: `smart-eval indexes a document collection, ranks queries under SMART
"ddd.qqq" weighting pairs (or BM25) and scores the rankings against
relevance judgments with mean average precision.

The index is built on first use and reloaded afterwards. Pass --rebuild
to rebuild it.`,
		SilenceUsage: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperrors.New(apperrors.ErrInvalidInput, err.Error())
	})

	root.PersistentFlags().StringP("config", "c", "", "config file path")
	root.PersistentFlags().String("format", "text", "output format (text, json)")
	root.PersistentFlags().Bool("rebuild", false, "rebuild the index even if one exists")

	root.AddCommand(
		indexCmd(),
		searchCmd(),
		evaluateCmd(),
		historyCmd(),
		schemesCmd(),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "smart-eval %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}
