// browser.go provides browser automation utilities for E2E testing.
// It wraps Rod to provide a playground Driver backed by headless Chrome.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/thesyncim/playground-e2e/pkg/playground"
)

// BrowserConfig configures Chrome launch options.
type BrowserConfig struct {
	Backend  string        // "rod" (default) or "chromedp"
	Headless bool          // Run in headless mode (default: true)
	Timeout  time.Duration // Default operation timeout (default: 30s)
	Bin      string        // Chrome binary; empty lets the backend find or download one
}

// DefaultBrowserConfig returns sensible defaults for E2E testing.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Backend:  BackendRod,
		Headless: true,
		Timeout:  30 * time.Second,
	}
}

// BrowserClient wraps Rod and implements playground.Driver.
type BrowserClient struct {
	browser *rod.Browser
	page    *rod.Page
	timeout time.Duration
}

var _ playground.Driver = (*BrowserClient)(nil)

// NewBrowserClient launches Chrome and connects to it.
// The browser is configured with:
//   - No sandbox (for container compatibility)
//   - No GPU
func NewBrowserClient(cfg BrowserConfig) (*BrowserClient, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("no-sandbox").
		Set("disable-gpu")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch Chrome: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to Chrome: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultBrowserConfig().Timeout
	}
	return &BrowserClient{
		browser: browser,
		timeout: timeout,
	}, nil
}

// Navigate opens url in the client's page, creating it on first use, and
// waits for the load event.
func (c *BrowserClient) Navigate(ctx context.Context, url string) error {
	if c.browser == nil {
		return errors.New("browser is closed")
	}
	if c.page == nil {
		page, err := c.browser.Page(proto.TargetCreateTarget{})
		if err != nil {
			return fmt.Errorf("failed to open page: %w", err)
		}
		c.page = page
	}

	page, cancel := c.bind(ctx)
	defer cancel()
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("waiting for load of %s: %w", url, err)
	}
	return nil
}

// Page returns the current page, or nil if none open.
func (c *BrowserClient) Page() *rod.Page {
	return c.page
}

// Eval executes a JavaScript function and returns its JSON value.
// Requires Navigate() to have been called first.
func (c *BrowserClient) Eval(ctx context.Context, fn string) (any, error) {
	if c.page == nil {
		return nil, errors.New("no page open, call Navigate first")
	}
	page, cancel := c.bind(ctx)
	defer cancel()
	result, err := page.Eval(fn)
	if err != nil {
		return nil, fmt.Errorf("eval failed: %w", err)
	}
	return result.Value.Val(), nil
}

// Click clicks the first element matching selector.
func (c *BrowserClient) Click(ctx context.Context, selector string) error {
	el, cancel, err := c.find(ctx, selector)
	if err != nil {
		return err
	}
	defer cancel()
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// Text returns the visible text of the first element matching selector.
func (c *BrowserClient) Text(ctx context.Context, selector string) (string, error) {
	el, cancel, err := c.find(ctx, selector)
	if err != nil {
		return "", err
	}
	defer cancel()
	return el.Text()
}

// HTML returns the innerHTML of the first element matching selector.
func (c *BrowserClient) HTML(ctx context.Context, selector string) (string, error) {
	el, cancel, err := c.find(ctx, selector)
	if err != nil {
		return "", err
	}
	defer cancel()
	v, err := el.Property("innerHTML")
	if err != nil {
		return "", fmt.Errorf("reading innerHTML of %s: %w", selector, err)
	}
	return v.Str(), nil
}

// Attribute returns the named attribute of the first match.
func (c *BrowserClient) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	el, cancel, err := c.find(ctx, selector)
	if err != nil {
		return "", false, err
	}
	defer cancel()
	v, err := el.Attribute(name)
	if err != nil {
		return "", false, fmt.Errorf("reading %s of %s: %w", name, selector, err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// Exists reports whether selector matches without waiting.
func (c *BrowserClient) Exists(ctx context.Context, selector string) (bool, error) {
	if c.page == nil {
		return false, errors.New("no page open")
	}
	page, cancel := c.bind(ctx)
	defer cancel()
	has, _, err := page.Has(selector)
	if err != nil {
		return false, fmt.Errorf("querying %s: %w", selector, err)
	}
	return has, nil
}

// Visible reports whether the first match is displayed.
func (c *BrowserClient) Visible(ctx context.Context, selector string) (bool, error) {
	el, cancel, err := c.find(ctx, selector)
	if errors.Is(err, playground.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer cancel()
	return el.Visible()
}

// Screenshot captures the viewport as PNG.
func (c *BrowserClient) Screenshot(ctx context.Context) ([]byte, error) {
	if c.page == nil {
		return nil, errors.New("no page open")
	}
	page, cancel := c.bind(ctx)
	defer cancel()
	return page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// WaitStable waits for the page to be stable (no DOM changes).
func (c *BrowserClient) WaitStable() error {
	if c.page == nil {
		return errors.New("no page open")
	}
	return c.page.WaitStable(c.timeout)
}

// Close cleans up browser resources.
// Always call this (via defer) to prevent orphaned Chrome processes.
func (c *BrowserClient) Close() error {
	if c.browser == nil {
		return nil
	}
	err := c.browser.Close()
	c.browser, c.page = nil, nil
	return err
}

// bind returns the page bound to ctx, falling back to the client timeout
// when ctx has no deadline.
func (c *BrowserClient) bind(ctx context.Context) (*rod.Page, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return c.page.Context(ctx), func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return c.page.Context(ctx), cancel
}

// find returns the first match bound to ctx. The caller must invoke the
// returned cancel once done with the element.
func (c *BrowserClient) find(ctx context.Context, selector string) (*rod.Element, context.CancelFunc, error) {
	if c.page == nil {
		return nil, nil, errors.New("no page open, call Navigate first")
	}
	page, cancel := c.bind(ctx)
	has, el, err := page.Has(selector)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("querying %s: %w", selector, err)
	}
	if !has {
		cancel()
		return nil, nil, fmt.Errorf("%s: %w", selector, playground.ErrNotFound)
	}
	return el, cancel, nil
}
