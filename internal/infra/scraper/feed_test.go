package scraper_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/infra/scraper"
)

const gazetteRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Gazette</title>
  <link>https://www.gazette.gov.mv</link>
  <item>
    <title> Budget Circular 3/2024 </title>
    <link>https://www.gazette.gov.mv/iulaan/201?lang=en</link>
    <pubDate>Mon, 11 Mar 2024 09:00:00 +0500</pubDate>
  </item>
  <item>
    <title>Mirror copy</title>
    <link>https://mirror.example.com/iulaan/201</link>
  </item>
  <item>
    <title>Relative link</title>
    <link>/iulaan/202</link>
  </item>
</channel>
</rss>`

const gazetteAtom = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Gazette</title>
  <entry>
    <title>Administrative Order</title>
    <link href="https://www.gazette.gov.mv/iulaan/301"/>
    <id>urn:301</id>
    <updated>2024-03-12T08:00:00Z</updated>
  </entry>
</feed>`

func TestFeedParser_Parse_RSS(t *testing.T) {
	p, err := scraper.NewFeedParser("https://www.gazette.gov.mv")
	if err != nil {
		t.Fatalf("NewFeedParser() error = %v", err)
	}

	got, err := p.Parse(context.Background(), []byte(gazetteRSS))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []entity.GazetteEntry{
		{Title: "Budget Circular 3/2024", RelativeURL: "/iulaan/201?lang=en", PublishedDateText: "Mon, 11 Mar 2024 09:00:00 +0500"},
		{Title: "Relative link", RelativeURL: "/iulaan/202"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestFeedParser_Parse_AtomUsesUpdated(t *testing.T) {
	p, err := scraper.NewFeedParser("https://www.gazette.gov.mv/")
	if err != nil {
		t.Fatalf("NewFeedParser() error = %v", err)
	}

	got, err := p.Parse(context.Background(), []byte(gazetteAtom))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []entity.GazetteEntry{
		{Title: "Administrative Order", RelativeURL: "/iulaan/301", PublishedDateText: "2024-03-12T08:00:00Z"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestFeedParser_Parse_Invalid(t *testing.T) {
	p, _ := scraper.NewFeedParser("https://www.gazette.gov.mv")
	if _, err := p.Parse(context.Background(), []byte("not a feed")); err == nil {
		t.Fatal("expected error for invalid feed")
	}
}
