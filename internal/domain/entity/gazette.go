package entity

// GazetteEntry is one listing item scraped from the publication page.
// It is never persisted directly.
type GazetteEntry struct {
	Title             string `json:"title"`
	RelativeURL       string `json:"relativeUrl"`
	PublishedDateText string `json:"publishedDateText"`
}
