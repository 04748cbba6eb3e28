package scraper

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"gazette-tasks/internal/config"
	"gazette-tasks/internal/domain/entity"
)

// HTMLParser reads listing nodes with CSS selectors.
type HTMLParser struct {
	sel config.Selectors
}

// NewHTMLParser creates a parser for the given selectors.
func NewHTMLParser(sel config.Selectors) *HTMLParser {
	return &HTMLParser{sel: sel}
}

// Parse returns one entry per node matching the item selector, in document
// order. Title, href and date are trimmed; a missing href becomes "".
func (p *HTMLParser) Parse(ctx context.Context, body []byte) ([]entity.GazetteEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	nodes := doc.Find(p.sel.Item)
	entries := make([]entity.GazetteEntry, 0, nodes.Length())
	nodes.Each(func(_ int, item *goquery.Selection) {
		e := entity.GazetteEntry{
			Title: strings.TrimSpace(item.Find(p.sel.Title).Text()),
		}
		if p.sel.Link != "" {
			if href, ok := item.Find(p.sel.Link).Attr("href"); ok {
				e.RelativeURL = strings.TrimSpace(href)
			}
		}
		if p.sel.Date != "" {
			e.PublishedDateText = strings.TrimSpace(item.Find(p.sel.Date).Text())
		}
		entries = append(entries, e)
	})
	return entries, nil
}
