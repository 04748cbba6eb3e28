package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"gazette-tasks/internal/domain/entity"
)

// FeedParser reads RSS or Atom documents published by the gazette.
type FeedParser struct {
	base *url.URL
}

// NewFeedParser creates a parser whose item links are made relative to baseURL.
func NewFeedParser(baseURL string) (*FeedParser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &FeedParser{base: u}, nil
}

// Parse maps feed items to entries. Items linking to another host are skipped
// because their source could not be expressed relative to the base URL.
func (p *FeedParser) Parse(ctx context.Context, body []byte) ([]entity.GazetteEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := make([]entity.GazetteEntry, 0, len(feed.Items))
	for _, it := range feed.Items {
		rel, ok := p.relative(strings.TrimSpace(it.Link))
		if !ok {
			slog.Debug("skipping feed item from another host",
				slog.String("title", it.Title),
				slog.String("link", it.Link))
			continue
		}

		// Published優先、なければUpdatedを使用
		date := it.Published
		if date == "" {
			date = it.Updated
		}

		entries = append(entries, entity.GazetteEntry{
			Title:             strings.TrimSpace(it.Title),
			RelativeURL:       rel,
			PublishedDateText: strings.TrimSpace(date),
		})
	}
	return entries, nil
}

func (p *FeedParser) relative(link string) (string, bool) {
	if link == "" {
		return "", true
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	if !u.IsAbs() {
		return link, true
	}
	if !strings.EqualFold(u.Host, p.base.Host) {
		return "", false
	}
	rel := u.EscapedPath()
	if basePath := strings.TrimSuffix(p.base.EscapedPath(), "/"); basePath != "" {
		rel = strings.TrimPrefix(rel, basePath)
	}
	if u.RawQuery != "" {
		rel += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		rel += "#" + u.EscapedFragment()
	}
	return rel, true
}
