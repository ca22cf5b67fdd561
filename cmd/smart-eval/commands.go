package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/searcher/weighting"
	apperrors "github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/errors"
)

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Build the index, or load and verify an existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			engine, err := a.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			stats := engine.Stats()
			summary := map[string]any{
				"path":           engine.Path(),
				"source":         engine.Source(),
				"documents":      stats.DocumentCount(),
				"vocabulary":     stats.VocabularySize(),
				"avg_doc_length": engine.GetAvgDocLength(),
				"fingerprint":    engine.Fingerprint(),
			}
			if r := engine.LoadReport(); r != nil {
				summary["malformed_lines"] = r.MalformedCount()
			}
			if a.format == "json" {
				return writeJSON(cmd, summary)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "index %s (%s)\n", engine.Path(), engine.Source())
			fmt.Fprintf(out, "  documents:   %d\n", stats.DocumentCount())
			fmt.Fprintf(out, "  vocabulary:  %d\n", stats.VocabularySize())
			fmt.Fprintf(out, "  avg length:  %.2f\n", engine.GetAvgDocLength())
			fmt.Fprintf(out, "  fingerprint: %s\n", engine.Fingerprint())
			if n, ok := summary["malformed_lines"]; ok {
				fmt.Fprintf(out, "  malformed:   %d\n", n)
			}
			return nil
		},
	}
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query text>",
		Short: "Rank documents for one query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			models, err := a.models(cmd)
			if err != nil {
				return err
			}
			engine, err := a.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			searcher := a.searcher(cmd.Context(), engine)
			query := strings.Join(args, " ")

			var results []*executor.SearchResult
			for _, model := range models {
				res, err := searcher.Execute(cmd.Context(), model, query, a.limit(cmd))
				if err != nil {
					return err
				}
				results = append(results, res)
			}
			if a.format == "json" {
				return writeJSON(cmd, results)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, res := range results {
				fmt.Fprintf(tw, "Model: %s\tTerms: %s\n", res.Model, strings.Join(res.Terms, " "))
				fmt.Fprintln(tw, "RANK\tDOC\tSCORE")
				for i, r := range res.Results {
					fmt.Fprintf(tw, "%d\t%s\t%.6f\n", i+1, r.DocID, r.Score)
				}
				fmt.Fprintln(tw)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringP("weighting", "w", "", "comma-separated models, e.g. atc.atc,bm25 (default from config)")
	cmd.Flags().IntP("limit", "n", 10, "maximum results per model, 0 for all")
	return cmd
}

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score every query against the relevance judgments and report MAP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			models, err := a.models(cmd)
			if err != nil {
				return err
			}
			queries, skipped, err := parser.LoadQueries(a.cfg.Corpus.QueryFile)
			if err != nil {
				return apperrors.New(apperrors.ErrInvalidInput, err.Error())
			}
			for _, s := range skipped {
				slog.Warn("query line skipped", "file", a.cfg.Corpus.QueryFile, "line", s.Line, "error", s.Err)
			}
			judgments, skipped, err := parser.LoadJudgments(a.cfg.Corpus.JudgmentFile)
			if err != nil {
				return apperrors.New(apperrors.ErrInvalidInput, err.Error())
			}
			for _, s := range skipped {
				slog.Warn("judgment line skipped", "file", a.cfg.Corpus.JudgmentFile, "line", s.Line, "error", s.Err)
			}

			engine, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			workers, _ := cmd.Flags().GetInt("workers")
			if !cmd.Flags().Changed("workers") {
				workers = a.cfg.Search.Workers
			}
			ev := evaluation.New(a.searcher(ctx, engine), evaluation.Options{
				Workers:          workers,
				IndexFingerprint: engine.Fingerprint(),
				Documents:        engine.Stats().DocumentCount(),
			}, a.metrics)

			reports, err := ev.EvaluateAll(ctx, queries, judgments, models, a.limit(cmd))
			if err != nil {
				return err
			}
			if d := a.dispatcher(ctx); d.Len() > 0 {
				if err := d.Dispatch(ctx, reports...); err != nil {
					slog.Warn("some reports were not published", "error", err)
				}
			}
			if a.format == "json" {
				return evaluation.WriteJSON(cmd.OutOrStdout(), reports)
			}
			return evaluation.WriteText(cmd.OutOrStdout(), reports)
		},
	}
	cmd.Flags().StringP("weighting", "w", "", "comma-separated models to compare (default from config)")
	cmd.Flags().IntP("limit", "n", 0, "ranking depth per query, 0 for all documents")
	cmd.Flags().Int("workers", 0, "concurrent queries (default from config)")
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored evaluation runs (requires postgres)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if !a.cfg.Postgres.Enabled {
				return apperrors.New(apperrors.ErrInvalidInput, "postgres is not enabled")
			}
			store, err := a.runStore(cmd.Context())
			if err != nil {
				return err
			}
			model, _ := cmd.Flags().GetString("weighting")
			n, _ := cmd.Flags().GetInt("limit")
			runs, err := store.List(cmd.Context(), model, n)
			if err != nil {
				return err
			}
			if a.format == "json" {
				return writeJSON(cmd, runs)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tMODEL\tINDEX\tMAP\tEVALUATED\tEXCLUDED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.4f\t%d\t%d\n", r.RunID, r.Model, r.IndexFingerprint, r.MAP, r.Evaluated, r.Excluded)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringP("weighting", "w", "", "only runs of this model")
	cmd.Flags().IntP("limit", "n", 20, "number of runs")
	return cmd
}

func schemesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schemes",
		Short: "List the SMART weighting schemes",
		Run: func(cmd *cobra.Command, args []string) {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, s := range weighting.Schemes() {
				fmt.Fprintf(tw, "%s\t%s\n", s, s.Describe())
			}
			fmt.Fprintf(tw, "%s\t%s\n", executor.BM25, "BM25, k1=1.2 b=0.75")
			tw.Flush()
		},
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
