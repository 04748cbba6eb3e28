package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"gazette-tasks/internal/domain/entity"
)

// Fetcher downloads a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Parser turns page markup into entries.
type Parser interface {
	Parse(ctx context.Context, body []byte) ([]entity.GazetteEntry, error)
}

// Extractor pairs a fetcher and a parser for one publication page.
type Extractor struct {
	fetcher Fetcher
	parser  Parser
	pageURL string
	logger  *slog.Logger
}

// NewExtractor creates an Extractor. A nil logger uses slog.Default().
func NewExtractor(fetcher Fetcher, parser Parser, pageURL string, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{fetcher: fetcher, parser: parser, pageURL: pageURL, logger: logger}
}

// Extract fetches and parses the page once. Failures are logged and yield an
// empty result.
func (e *Extractor) Extract(ctx context.Context) []entity.GazetteEntry {
	body, err := e.fetch(ctx)
	if err != nil {
		return nil
	}
	entries, err := e.parse(ctx, body)
	if err != nil {
		return nil
	}
	return entries
}

func (e *Extractor) fetch(ctx context.Context) ([]byte, error) {
	body, err := e.fetcher.Fetch(ctx, e.pageURL)
	if err != nil {
		e.logger.Warn("failed to fetch gazette page",
			slog.String("url", e.pageURL),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return body, nil
}

func (e *Extractor) parse(ctx context.Context, body []byte) ([]entity.GazetteEntry, error) {
	entries, err := e.parser.Parse(ctx, body)
	if err != nil {
		e.logger.Warn("failed to parse gazette page",
			slog.String("url", e.pageURL),
			slog.Int("body_bytes", len(body)),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return entries, nil
}
