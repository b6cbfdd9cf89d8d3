// Package renderer implements the narrow external headless-browser
// renderer used by ingestion flow 5 (on-demand SPA-backed document
// retrieval). The Renderer interface is intentionally small: callers never
// see chromedp types, only rendered content.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/chromedp/chromedp"
	readability "github.com/go-shiori/go-readability"
)

// ErrRenderTimeout is returned when a page does not finish loading within
// the configured timeout.
var ErrRenderTimeout = errors.New("renderer: page render timed out")

// ErrEmptyContent is returned when main-content extraction yields nothing
// usable.
var ErrEmptyContent = errors.New("renderer: no extractable content")

// Document is the rendered result of one URL: extracted main content plus
// enough metadata to build a document_id downstream.
type Document struct {
	URL     string
	Title   string
	Content string // Markdown
}

// Renderer is the external collaborator spec.md §6 names only as an
// interface. One document at a time; the engine never bulk-crawls
// through this path.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (*Document, error)
	Close() error
}

// ChromedpConfig configures a ChromedpRenderer.
type ChromedpConfig struct {
	NavigationTimeout time.Duration
	UserAgent         string
}

func (c *ChromedpConfig) applyDefaults() {
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = 20 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "legal-mcp-go/1.0 (+retrieval core)"
	}
}

// ChromedpRenderer renders a single URL in a headless Chrome instance,
// extracts main content via go-readability, and hands back Markdown.
type ChromedpRenderer struct {
	cfg        ChromedpConfig
	allocCtx   context.Context
	allocClose context.CancelFunc
}

// NewChromedpRenderer starts one shared headless-browser allocator reused
// across Render calls.
func NewChromedpRenderer(cfg ChromedpConfig) (*ChromedpRenderer, error) {
	cfg.applyDefaults()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromedpRenderer{cfg: cfg, allocCtx: allocCtx, allocClose: cancel}, nil
}

// Render navigates to url, waits for the document body, and extracts main
// content as Markdown via go-readability's article extraction.
func (r *ChromedpRenderer) Render(ctx context.Context, pageURL string) (*Document, error) {
	tabCtx, tabCancel := chromedp.NewContext(r.allocCtx)
	defer tabCancel()

	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, r.cfg.NavigationTimeout)
	defer timeoutCancel()

	var rawHTML string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &rawHTML),
	)
	if err != nil {
		if ctx.Err() != nil || tabCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %v", ErrRenderTimeout, err)
		}
		return nil, fmt.Errorf("rendering %s: %w", pageURL, err)
	}

	base, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(rawHTML), base)
	if err != nil {
		return nil, fmt.Errorf("extracting main content from %s: %w", pageURL, err)
	}
	if strings.TrimSpace(article.Content) == "" {
		return nil, ErrEmptyContent
	}

	md, err := htmltomarkdown.ConvertString(article.Content)
	if err != nil {
		return nil, fmt.Errorf("converting %s to markdown: %w", pageURL, err)
	}
	md = strings.TrimSpace(md)
	title := strings.TrimSpace(article.Title)
	if title != "" && !strings.HasPrefix(md, "# ") {
		md = "# " + title + "\n\n" + md
	}

	return &Document{
		URL:     pageURL,
		Title:   title,
		Content: md,
	}, nil
}

// Close releases the headless-browser allocator.
func (r *ChromedpRenderer) Close() error {
	r.allocClose()
	return nil
}
