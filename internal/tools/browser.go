package tools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"github.com/microcosm-cc/bluemonday"
)

// BrowserTool fetches pages through a headless browser so capabilities can
// read travel sites that render their results client-side. The browser
// process is started lazily and reused across fetches.
type BrowserTool struct {
	Headless bool
	Timeout  time.Duration
	Policy   FetchPolicy

	mu            sync.Mutex
	allocCtx      context.Context
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
}

func NewBrowserTool(headless bool, timeout time.Duration, policy FetchPolicy) *BrowserTool {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &BrowserTool{Headless: headless, Timeout: timeout, Policy: policy}
}

func (b *BrowserTool) initBrowser() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil {
		select {
		case <-b.browserCtx.Done():
			b.cleanup()
		default:
			return nil
		}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("headless", b.Headless),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	b.browserCtx, b.browserCancel = chromedp.NewContext(b.allocCtx)

	return chromedp.Run(b.browserCtx)
}

func (b *BrowserTool) cleanup() {
	if b.browserCancel != nil {
		b.browserCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	b.browserCtx = nil
	b.allocCtx = nil
}

// Close shuts the browser process down.
func (b *BrowserTool) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleanup()
}

// FetchRendered navigates to the URL, waits for the page to settle, and
// returns the rendered document as sanitized text.
func (b *BrowserTool) FetchRendered(ctx context.Context, pageURL string) (string, error) {
	if _, err := checkFetch(ctx, b.Policy, pageURL); err != nil {
		return "", err
	}
	if err := b.initBrowser(); err != nil {
		return "", fmt.Errorf("failed to initialize browser: %v", err)
	}

	actionCtx, cancel := context.WithTimeout(b.browserCtx, b.Timeout)
	defer cancel()

	var html string
	err := chromedp.Run(actionCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(2*time.Second),
		chromedp.ActionFunc(func(ctx context.Context) error {
			node, err := dom.GetDocument().Do(ctx)
			if err != nil {
				return err
			}
			html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return "", fmt.Errorf("browser fetch failed: %v", err)
	}

	text := bluemonday.StrictPolicy().Sanitize(html)
	if len(text) > 50000 {
		text = text[:50000] + "\n... (truncated)"
	}
	return text, nil
}
