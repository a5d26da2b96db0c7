package main

import (
	"encoding/json"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/card-analyzer/internal/analyzer"
	"github.com/jonathan/card-analyzer/internal/app"
	"github.com/jonathan/card-analyzer/internal/config"
	"github.com/jonathan/card-analyzer/internal/observability"
	"github.com/jonathan/card-analyzer/internal/pipeline"
	"github.com/jonathan/card-analyzer/internal/worker"
)

var (
	analyzeHint        string
	analyzeConcurrency int
	analyzeJSON        bool
	analyzeVerbose     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image> [image...]",
	Short: "Analyze one or more card images",
	Long: `Run the full analysis pipeline on card images: extract fields with a
vision model, validate, verify the certification number, generate a
description, embed, and store in the vector database. Multiple images are
processed concurrently with retry on transient provider failures.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeHint, "hint", "", "Optional hint passed to extraction (e.g. expected player)")
	analyzeCmd.Flags().IntVar(&analyzeConcurrency, "concurrency", worker.DefaultConcurrency, "Number of images analyzed in parallel")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print results as JSON")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Print detailed per-stage output")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Verbose {
		analyzeVerbose = true
	}

	application := app.New(cfg)
	defer application.Close()

	ctx := cmd.Context()
	a, err := application.Analyzer(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize analyzer: %w", err)
	}

	jobs := make([]worker.Job, 0, len(args))
	for _, path := range args {
		image, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		jobs = append(jobs, worker.Job{
			State: analyzer.NewState(uuid.New().String(), image, mimeType, analyzeHint),
		})
	}

	pool := worker.NewPool(a.Runner(), worker.WithConcurrency(analyzeConcurrency))
	outcomes, err := pool.Run(ctx, jobs)
	if err != nil {
		return fmt.Errorf("batch analysis aborted: %w", err)
	}

	failed := 0
	for i, outcome := range outcomes {
		if err := printOutcome(args[i], outcome); err != nil {
			return err
		}
		if outcome.State.Failure != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d analyses failed", failed, len(outcomes))
	}
	return nil
}

func printOutcome(path string, outcome worker.Outcome) error {
	result, err := pipeline.Summarize(outcome.State)
	if err != nil {
		return err
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"file":     path,
			"attempts": outcome.Attempts,
			"result":   result,
		})
	}

	if analyzeVerbose {
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintCard(outcome.State.Validated)
		printer.PrintVerification(outcome.State.Verification)
		printer.PrintDescription(outcome.State.Description, outcome.State.WebSearchResults)
		printer.PrintFailure(outcome.State.Failure)
	}

	if f := result.Failure; f != nil {
		log.Printf("✗ %s: [%s] %s (stage %s)", path, f.Kind, f.Reason, f.Stage)
		return nil
	}
	log.Printf("✓ %s: card %s stored (persisted=%t)", path, result.CardID, result.Persisted)
	return nil
}
