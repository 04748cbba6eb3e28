// Command gazette-extract scrapes the gazette listing once and writes the
// synthesized task drafts to a JSON file without touching the task store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"gazette-tasks/internal/config"
	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/infra/scraper"
	"gazette-tasks/internal/observability/logging"
	"gazette-tasks/internal/usecase/ingest"
)

const defaultOut = "data/gazette-tasks.json"

var Version = "dev"

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Error("gazette extraction failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// drafter is implemented by *ingest.Drafter.
type drafter interface {
	Drafts(ctx context.Context) []entity.TaskDraft
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:           "gazette-extract",
		Short:         "Scrape the gazette listing and write task drafts as JSON",
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newDrafter(logger)
			if err != nil {
				return err
			}
			return run(cmd.Context(), svc, out, logger)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", defaultOut, "output file for the JSON array of drafts")
	return cmd
}

// newDrafter wires the configured fetcher and parser into a Drafter.
func newDrafter(logger *slog.Logger) (*ingest.Drafter, error) {
	cfg, warnings, err := config.LoadGazetteConfig(os.Getenv("GAZETTE_CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		logger.Warn("Configuration fallback applied", slog.String("warning", w))
	}
	parser, err := scraper.NewParser(cfg)
	if err != nil {
		return nil, err
	}
	extractor := ingest.NewExtractor(scraper.NewFetcherFromConfig(cfg), parser, cfg.PageURL, logger)
	return ingest.NewDrafter(extractor, cfg.BaseURL), nil
}

// run writes the drafts as an indented JSON array to out, creating parent
// directories as needed.
func run(ctx context.Context, d drafter, out string, logger *slog.Logger) error {
	drafts := d.Drafts(ctx)
	if drafts == nil {
		drafts = []entity.TaskDraft{}
	}

	data, err := json.MarshalIndent(drafts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode drafts: %w", err)
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(out, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	logger.Info("gazette drafts written",
		slog.Int("count", len(drafts)),
		slog.String("path", out))
	return nil
}
