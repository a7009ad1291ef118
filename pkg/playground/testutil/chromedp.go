package testutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/thesyncim/playground-e2e/pkg/playground"
)

// ChromedpClient implements playground.Driver on chromedp.
type ChromedpClient struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	timeout       time.Duration
	navigated     bool
}

var _ playground.Driver = (*ChromedpClient)(nil)

// NewChromedpClient starts Chrome through a chromedp exec allocator.
func NewChromedpClient(cfg BrowserConfig) (*ChromedpClient, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.WindowSize(1280, 900),
	)
	if cfg.Bin != "" {
		opts = append(opts, chromedp.ExecPath(cfg.Bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// The first Run starts the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to launch Chrome: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultBrowserConfig().Timeout
	}
	return &ChromedpClient{
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		timeout:       timeout,
	}, nil
}

// Navigate loads url and waits for the load event.
func (c *ChromedpClient) Navigate(ctx context.Context, url string) error {
	if err := c.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	c.navigated = true
	return nil
}

// Eval calls the function source fn and awaits a returned promise.
func (c *ChromedpClient) Eval(ctx context.Context, fn string) (any, error) {
	if !c.navigated {
		return nil, errors.New("no page open, call Navigate first")
	}
	var res any
	err := c.run(ctx, chromedp.Evaluate("("+fn+")()", &res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	if errors.Is(err, chromedp.ErrJSNull) || errors.Is(err, chromedp.ErrJSUndefined) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("eval failed: %w", err)
	}
	return res, nil
}

// Click clicks the first element matching selector.
func (c *ChromedpClient) Click(ctx context.Context, selector string) error {
	if err := c.require(ctx, selector); err != nil {
		return err
	}
	return c.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

// Text returns the visible text of the first element matching selector.
func (c *ChromedpClient) Text(ctx context.Context, selector string) (string, error) {
	if err := c.require(ctx, selector); err != nil {
		return "", err
	}
	var text string
	if err := c.run(ctx, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading text of %s: %w", selector, err)
	}
	return text, nil
}

// HTML returns the innerHTML of the first element matching selector.
func (c *ChromedpClient) HTML(ctx context.Context, selector string) (string, error) {
	if err := c.require(ctx, selector); err != nil {
		return "", err
	}
	var html string
	if err := c.run(ctx, chromedp.InnerHTML(selector, &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading innerHTML of %s: %w", selector, err)
	}
	return html, nil
}

// Attribute returns the named attribute of the first match.
func (c *ChromedpClient) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	if err := c.require(ctx, selector); err != nil {
		return "", false, err
	}
	var (
		value string
		ok    bool
	)
	if err := c.run(ctx, chromedp.AttributeValue(selector, name, &value, &ok, chromedp.ByQuery)); err != nil {
		return "", false, fmt.Errorf("reading %s of %s: %w", name, selector, err)
	}
	return value, ok, nil
}

// Exists reports whether selector matches without waiting.
func (c *ChromedpClient) Exists(ctx context.Context, selector string) (bool, error) {
	if !c.navigated {
		return false, errors.New("no page open")
	}
	var nodes []*cdp.Node
	if err := c.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return false, fmt.Errorf("querying %s: %w", selector, err)
	}
	return len(nodes) > 0, nil
}

// Visible reports whether the first match is displayed.
func (c *ChromedpClient) Visible(ctx context.Context, selector string) (bool, error) {
	v, err := c.Eval(ctx, visibleScript(selector))
	if err != nil {
		return false, err
	}
	visible, _ := v.(bool)
	return visible, nil
}

// Screenshot captures the viewport as PNG.
func (c *ChromedpClient) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := c.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// Close shuts down the tab and the browser process.
func (c *ChromedpClient) Close() error {
	if c.cancelBrowser == nil {
		return nil
	}
	c.cancelBrowser()
	c.cancelAlloc()
	c.cancelBrowser, c.cancelAlloc = nil, nil
	return nil
}

// run executes actions on the browser tab, bounded by ctx and the client
// timeout.
func (c *ChromedpClient) run(ctx context.Context, actions ...chromedp.Action) error {
	if c.cancelBrowser == nil {
		return errors.New("browser is closed")
	}
	runCtx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (c *ChromedpClient) require(ctx context.Context, selector string) error {
	ok, err := c.Exists(ctx, selector)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", selector, playground.ErrNotFound)
	}
	return nil
}

func visibleScript(selector string) string {
	return "() => { const el = document.querySelector(" + quote(selector) + "); " +
		"if (!el || el.hidden) { return false; } " +
		"const s = getComputedStyle(el); " +
		"return s.display !== 'none' && s.visibility !== 'hidden' && el.getClientRects().length > 0; }"
}
