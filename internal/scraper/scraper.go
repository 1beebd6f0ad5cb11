package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/k3a/html2text"

	"github.com/pfrederiksen/elcairo-events/internal/logger"
)

const (
	UserAgent = "elcairo-cli/1.0 (github.com/pfrederiksen/elcairo-events)"
	Timeout   = 10 * time.Second
)

// Selectors locate the detail page containers
type Selectors struct {
	Synopsis  string
	Cost      string
	FactSheet string
}

// DefaultSelectors match the El Cairo detail page layout
var DefaultSelectors = Selectors{
	Synopsis:  ".sinopsis-online",
	Cost:      ".informacion-entradas",
	FactSheet: ".ficha-tecnica-online",
}

// DetailPage is a parsed detail page. A nil *DetailPage is a valid absent
// page: every lookup returns "".
type DetailPage struct {
	doc       *goquery.Document
	selectors Selectors
}

// Synopsis returns the first paragraph of the synopsis container
func (p *DetailPage) Synopsis() string {
	return p.firstParagraph(p.selectorsOrDefault().Synopsis)
}

// Cost returns the first paragraph of the ticket information container
func (p *DetailPage) Cost() string {
	return p.firstParagraph(p.selectorsOrDefault().Cost)
}

// FactSheetBlock returns the text of the technical sheet container with
// line breaks preserved
func (p *DetailPage) FactSheetBlock() string {
	if p == nil || p.doc == nil {
		return ""
	}
	block := p.doc.Find(p.selectors.FactSheet).First()
	if block.Length() == 0 {
		return ""
	}
	// Markup-separated lines need rendering; plain text keeps its own newlines
	if block.Find("br, p, div, li, tr").Length() > 0 {
		if html, err := block.Html(); err == nil {
			return html2text.HTML2Text(html)
		}
	}
	return block.Text()
}

func (p *DetailPage) firstParagraph(selector string) string {
	if p == nil || p.doc == nil {
		return ""
	}
	return strings.TrimSpace(p.doc.Find(selector).First().Find("p").First().Text())
}

func (p *DetailPage) selectorsOrDefault() Selectors {
	if p == nil {
		return DefaultSelectors
	}
	return p.selectors
}

// Scraper fetches El Cairo detail pages
type Scraper struct {
	client    *http.Client
	selectors Selectors
}

// New creates a Scraper whose requests give up after timeout
func New(timeout time.Duration) *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: timeout,
		},
		selectors: DefaultSelectors,
	}
}

// WithSelectors replaces the container selectors
func (s *Scraper) WithSelectors(sel Selectors) *Scraper {
	s.selectors = sel
	return s
}

// FetchDetail retrieves and parses a detail page. Any failure yields nil,
// which callers treat as "no enrichment available".
func (s *Scraper) FetchDetail(ctx context.Context, url string) *DetailPage {
	page, err := s.fetch(ctx, url)
	if err != nil {
		logger.Warn("Fetching detail page failed", logger.Fields{
			"url":   url,
			"error": err.Error(),
		})
		return nil
	}
	return page
}

func (s *Scraper) fetch(ctx context.Context, url string) (*DetailPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return ParseDetail(resp.Body, s.selectors)
}

// ParseDetail parses a detail page document
func ParseDetail(r io.Reader, sel Selectors) (*DetailPage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return &DetailPage{doc: doc, selectors: sel}, nil
}
