package scraper

import (
	"context"
	"fmt"

	"gazette-tasks/internal/config"
	"gazette-tasks/internal/domain/entity"
)

// Parser turns a fetched page into gazette entries.
type Parser interface {
	Parse(ctx context.Context, body []byte) ([]entity.GazetteEntry, error)
}

// NewParser returns the parser for cfg.SourceType.
func NewParser(cfg config.GazetteConfig) (Parser, error) {
	switch cfg.SourceType {
	case config.SourceTypeHTML, "":
		return NewHTMLParser(cfg.Selectors), nil
	case config.SourceTypeRSS:
		return NewFeedParser(cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown gazette source type %q", cfg.SourceType)
	}
}

// NewFetcherFromConfig builds an HTTPFetcher using the timeout, user agent and
// body cap of cfg.
func NewFetcherFromConfig(cfg config.GazetteConfig) *HTTPFetcher {
	return NewHTTPFetcher(
		newHTTPClient(cfg.Timeout),
		WithUserAgent(cfg.UserAgent),
		WithMaxBodySize(cfg.MaxBodyBytes),
	)
}
