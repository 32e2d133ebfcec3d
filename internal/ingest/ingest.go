// Package ingest crawls a merchant's website and turns its pages into
// knowledge documents for retrieval. Each run revisits the site and
// upserts by source URL, so re-running refreshes stale content.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"
	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/getdukka/chatseller-api-sub001/internal/knowledge"
)

// minContentRunes drops boilerplate pages (empty carts, login forms).
const minContentRunes = 120

// maxContentRunes caps stored page text; retrieval excerpts are far
// smaller anyway.
const maxContentRunes = 20000

// DocumentSink receives extracted documents.
type DocumentSink interface {
	Upsert(ctx context.Context, doc knowledge.Document) error
}

// Config bounds a crawl.
type Config struct {
	MaxPages    int
	MaxDepth    int
	Parallelism int
	Delay       time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxPages <= 0 {
		c.MaxPages = 50
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 3
	}
	if c.Parallelism <= 0 {
		c.Parallelism = 2
	}
	return c
}

// Ingester crawls one site per Run call. Safe for sequential reuse; a
// single Run crawls concurrently inside colly's own worker pool.
type Ingester struct {
	sink   DocumentSink
	cfg    Config
	logger *slog.Logger
}

// New creates an ingester. logger may be nil.
func New(sink DocumentSink, cfg Config, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{sink: sink, cfg: cfg.withDefaults(), logger: logger}
}

// Run crawls siteURL and upserts one document per content page. It
// returns the number of documents stored. Individual page failures are
// logged and skipped; only a failure to start the crawl is an error.
func (i *Ingester) Run(ctx context.Context, shopID uuid.UUID, siteURL string) (int, error) {
	root, err := url.Parse(siteURL)
	if err != nil || root.Host == "" {
		return 0, fmt.Errorf("invalid site url %q: %w", siteURL, err)
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(root.Host, root.Hostname(), strings.TrimPrefix(root.Hostname(), "www.")),
		colly.MaxDepth(i.cfg.MaxDepth),
		colly.Async(true),
	)
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: i.cfg.Parallelism,
		Delay:       i.cfg.Delay,
	}); err != nil {
		return 0, fmt.Errorf("configuring crawl limits: %w", err)
	}

	var (
		mu     sync.Mutex
		stored int
		pages  int
	)

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		mu.Lock()
		full := pages >= i.cfg.MaxPages
		mu.Unlock()
		if full {
			return
		}
		// colly deduplicates visited URLs itself
		_ = e.Request.Visit(e.Attr("href"))
	})

	collector.OnResponse(func(r *colly.Response) {
		if !strings.Contains(r.Headers.Get("Content-Type"), "text/html") {
			return
		}
		mu.Lock()
		if pages >= i.cfg.MaxPages {
			mu.Unlock()
			return
		}
		pages++
		mu.Unlock()

		doc, ok := i.extract(r.Body, r.Request.URL)
		if !ok {
			return
		}
		doc.ShopID = shopID

		if err := i.sink.Upsert(ctx, doc); err != nil {
			i.logger.Warn("failed to store page", "url", doc.SourceURL, "error", err)
			return
		}
		mu.Lock()
		stored++
		mu.Unlock()
		i.logger.Debug("ingested page", "url", doc.SourceURL, "title", doc.Title)
	})

	collector.OnError(func(r *colly.Response, err error) {
		i.logger.Warn("page fetch failed", "url", r.Request.URL.String(), "error", err)
	})

	if err := collector.Visit(root.String()); err != nil {
		return 0, fmt.Errorf("starting crawl of %s: %w", root.Host, err)
	}
	collector.Wait()

	i.logger.Info("crawl finished",
		"site", root.Host,
		"pages", pages,
		"documents", stored)
	return stored, nil
}

// extract pulls the readable title and text out of a fetched page.
func (i *Ingester) extract(body []byte, pageURL *url.URL) (knowledge.Document, bool) {
	var title, content string

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil {
		title = strings.TrimSpace(article.Title)
		content = normalizeWhitespace(article.TextContent)
	} else {
		// readability refuses some storefront templates; fall back to a
		// plain DOM walk
		title, content = fallbackExtract(body)
	}

	if title == "" {
		title = pageURL.Path
	}
	if len([]rune(content)) < minContentRunes {
		return knowledge.Document{}, false
	}
	if runes := []rune(content); len(runes) > maxContentRunes {
		content = string(runes[:maxContentRunes])
	}

	return knowledge.Document{
		Title:     title,
		Content:   content,
		SourceURL: pageURL.String(),
		Active:    true,
	}, true
}

// fallbackExtract strips scripts, styles and navigation chrome and
// returns the page title plus the remaining visible text.
func fallbackExtract(body []byte) (title, content string) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", ""
	}
	title = strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find("script, style, nav, header, footer, noscript").Remove()
	content = normalizeWhitespace(doc.Find("body").Text())
	return title, content
}

// VisibleText returns the concatenated text nodes of an HTML fragment.
// Used by tests and by callers that ingest raw snippets instead of
// crawled pages.
func VisibleText(fragment string) string {
	node, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return normalizeWhitespace(b.String())
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
