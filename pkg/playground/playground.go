package playground

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/thesyncim/playground-e2e/pkg/playground/internal"
)

// DefaultPath is the route of the playground page.
const DefaultPath = "/playground"

// Option configures a Playground.
type Option func(*Playground) error

// WithSelectors overrides the DOM contract. Empty fields keep their defaults.
func WithSelectors(s Selectors) Option {
	return func(p *Playground) error {
		merged := s.Merge(DefaultSelectors())
		if err := merged.Validate(); err != nil {
			return err
		}
		p.sel = merged
		return nil
	}
}

// WithPath sets the page route appended to the base URL.
// Default: /playground
func WithPath(path string) Option {
	return func(p *Playground) error {
		if path != "" && !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		p.path = path
		return nil
	}
}

// WithTimeout sets how long each wait may take.
// Default: 30 seconds
func WithTimeout(d time.Duration) Option {
	return func(p *Playground) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		p.timeout = d
		return nil
	}
}

// WithPollInterval sets the delay between wait checks.
// Default: 100ms
func WithPollInterval(d time.Duration) Option {
	return func(p *Playground) error {
		if d <= 0 {
			return errors.New("poll interval must be positive")
		}
		p.interval = d
		return nil
	}
}

// WithClock replaces the clock used by waits.
func WithClock(c internal.Clock) Option {
	return func(p *Playground) error {
		if c == nil {
			return errors.New("clock must not be nil")
		}
		p.clock = c
		return nil
	}
}

// WithLogger sets the logger. Default: no-op.
func WithLogger(l *zap.Logger) Option {
	return func(p *Playground) error {
		if l == nil {
			l = zap.NewNop()
		}
		p.log = l
		return nil
	}
}

// Playground is a page object for the playground: an editor whose content
// is rendered into a preview container by the server.
type Playground struct {
	driver   Driver
	baseURL  string
	path     string
	sel      Selectors
	timeout  time.Duration
	interval time.Duration
	clock    internal.Clock
	log      *zap.Logger
}

// Result is the outcome of one render.
type Result struct {
	HTML     string        // preview innerHTML
	Text     string        // preview text
	Error    string        // error panel text when visible
	HasError bool          // error panel was visible with text
	Elapsed  time.Duration // click to settled preview
}

// New creates a page object for the playground served under baseURL.
func New(driver Driver, baseURL string, opts ...Option) (*Playground, error) {
	if driver == nil {
		return nil, errors.New("driver must not be nil")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("base URL must not be empty")
	}

	p := &Playground{
		driver:   driver,
		baseURL:  baseURL,
		path:     DefaultPath,
		sel:      DefaultSelectors(),
		timeout:  30 * time.Second,
		interval: 100 * time.Millisecond,
		clock:    internal.MonotonicClock{},
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// URL returns the full address of the playground page.
func (p *Playground) URL() string {
	return p.baseURL + p.path
}

// Selectors returns the DOM contract in use.
func (p *Playground) Selectors() Selectors {
	return p.sel
}

// Driver returns the underlying driver.
func (p *Playground) Driver() Driver {
	return p.driver
}

// Open navigates to the playground and waits until the editor is usable.
func (p *Playground) Open(ctx context.Context) error {
	url := p.URL()
	p.log.Debug("opening playground", zap.String("url", url))
	if err := p.driver.Navigate(ctx, url); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return p.WaitReady(ctx)
}

// WaitReady waits for the root element to be visible and for the editor
// global to expose getValue and setValue.
func (p *Playground) WaitReady(ctx context.Context) error {
	err := p.poll(ctx, "playground root "+p.sel.Root, func(ctx context.Context) (bool, error) {
		return p.driver.Visible(ctx, p.sel.Root)
	})
	if err != nil {
		return err
	}

	err = p.poll(ctx, "editor global "+p.sel.EditorGlobal, func(ctx context.Context) (bool, error) {
		v, err := p.driver.Eval(ctx, EditorReadyScript(p.sel.EditorGlobal))
		if err != nil {
			return false, err
		}
		ready, _ := v.(bool)
		return ready, nil
	})
	if errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%w: %w", ErrEditorUnavailable, err)
	}
	return err
}

// Code returns the editor's current text.
func (p *Playground) Code(ctx context.Context) (string, error) {
	v, err := p.driver.Eval(ctx, EditorGetScript(p.sel.EditorGlobal))
	if err != nil {
		return "", fmt.Errorf("reading editor: %w", err)
	}
	code, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("reading editor: %w", ErrEditorUnavailable)
	}
	return code, nil
}

// SetCode replaces the editor's text and verifies it by reading it back.
func (p *Playground) SetCode(ctx context.Context, code string) error {
	v, err := p.driver.Eval(ctx, EditorSetScript(p.sel.EditorGlobal, code))
	if err != nil {
		return fmt.Errorf("setting editor: %w", err)
	}
	got, ok := v.(string)
	if !ok {
		return fmt.Errorf("setting editor: %w", ErrEditorUnavailable)
	}
	// Editors may normalise line endings.
	if normalizeNewlines(got) != normalizeNewlines(code) {
		return fmt.Errorf("setting editor: read back %d bytes, wrote %d", len(got), len(code))
	}
	p.log.Debug("editor updated", zap.Int("bytes", len(code)))
	return nil
}

// Run clears the preview and error panel, clicks the run button, and waits
// until either the preview holds content or the error panel shows a message.
func (p *Playground) Run(ctx context.Context) (Result, error) {
	if _, err := p.driver.Eval(ctx, ResetOutputScript(p.sel.Preview, p.sel.ErrorPanel)); err != nil {
		return Result{}, fmt.Errorf("clearing preview: %w", err)
	}

	start := p.clock.Now()
	if err := p.Click(ctx, p.sel.RunButton); err != nil {
		return Result{}, err
	}

	var res Result
	err := p.poll(ctx, "preview to render", func(ctx context.Context) (bool, error) {
		msg, visible, err := p.Error(ctx)
		if err != nil {
			return false, err
		}
		if visible {
			res.Error, res.HasError = msg, true
			return true, nil
		}
		html, err := p.PreviewHTML(ctx)
		if err != nil {
			return false, err
		}
		res.HTML = html
		return strings.TrimSpace(html) != "", nil
	})
	if err != nil {
		return Result{}, err
	}
	res.Elapsed = p.clock.Now().Sub(start)

	if !res.HasError {
		if res.Text, err = p.PreviewText(ctx); err != nil {
			return Result{}, err
		}
	}
	p.log.Debug("run finished",
		zap.Bool("error", res.HasError),
		zap.Int("html_bytes", len(res.HTML)),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// Render sets the editor to code and runs it.
func (p *Playground) Render(ctx context.Context, code string) (Result, error) {
	if err := p.SetCode(ctx, code); err != nil {
		return Result{}, err
	}
	return p.Run(ctx)
}

// LoadExample clicks the named example button and waits for the editor to
// hold different, non-empty text.
func (p *Playground) LoadExample(ctx context.Context, name string) (string, error) {
	before, err := p.Code(ctx)
	if err != nil {
		return "", err
	}
	if err := p.Click(ctx, p.sel.Example(name)); err != nil {
		return "", fmt.Errorf("loading example %q: %w", name, err)
	}

	var code string
	err = p.poll(ctx, "example "+name+" in editor", func(ctx context.Context) (bool, error) {
		c, err := p.Code(ctx)
		if err != nil {
			return false, err
		}
		code = c
		return c != before && strings.TrimSpace(c) != "", nil
	})
	if err != nil {
		return "", err
	}
	p.log.Debug("example loaded", zap.String("name", name), zap.Int("bytes", len(code)))
	return code, nil
}

// PreviewHTML returns the preview container's innerHTML.
func (p *Playground) PreviewHTML(ctx context.Context) (string, error) {
	html, err := p.driver.HTML(ctx, p.sel.Preview)
	if err != nil {
		return "", fmt.Errorf("reading preview: %w", err)
	}
	return html, nil
}

// PreviewText returns the preview container's visible text.
func (p *Playground) PreviewText(ctx context.Context) (string, error) {
	text, err := p.driver.Text(ctx, p.sel.Preview)
	if err != nil {
		return "", fmt.Errorf("reading preview text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// PreviewDocument parses the preview HTML.
func (p *Playground) PreviewDocument(ctx context.Context) (*goquery.Document, error) {
	html, err := p.PreviewHTML(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing preview: %w", err)
	}
	return doc, nil
}

// Error returns the error panel text and whether it is showing. A panel
// that is missing, hidden or empty counts as not showing.
func (p *Playground) Error(ctx context.Context) (string, bool, error) {
	exists, err := p.driver.Exists(ctx, p.sel.ErrorPanel)
	if err != nil {
		return "", false, fmt.Errorf("checking error panel: %w", err)
	}
	if !exists {
		return "", false, nil
	}
	visible, err := p.driver.Visible(ctx, p.sel.ErrorPanel)
	if err != nil {
		return "", false, fmt.Errorf("checking error panel: %w", err)
	}
	if !visible {
		return "", false, nil
	}
	text, err := p.driver.Text(ctx, p.sel.ErrorPanel)
	if err != nil {
		return "", false, fmt.Errorf("reading error panel: %w", err)
	}
	text = strings.TrimSpace(text)
	return text, text != "", nil
}

// WaitVisible waits until selector matches a visible element.
func (p *Playground) WaitVisible(ctx context.Context, selector string) error {
	return p.poll(ctx, selector+" to be visible", func(ctx context.Context) (bool, error) {
		return p.driver.Visible(ctx, selector)
	})
}

// Click clicks the first element matching selector.
func (p *Playground) Click(ctx context.Context, selector string) error {
	exists, err := p.driver.Exists(ctx, selector)
	if err != nil {
		return fmt.Errorf("clicking %s: %w", selector, err)
	}
	if !exists {
		return fmt.Errorf("clicking %s: %w", selector, ErrNotFound)
	}
	if err := p.driver.Click(ctx, selector); err != nil {
		return fmt.Errorf("clicking %s: %w", selector, err)
	}
	return nil
}

// Eval evaluates a JavaScript function source in the page.
func (p *Playground) Eval(ctx context.Context, fn string) (any, error) {
	v, err := p.driver.Eval(ctx, fn)
	if err != nil {
		return nil, fmt.Errorf("eval: %w", err)
	}
	return v, nil
}

// Screenshot writes a PNG of the viewport to dir/<name>-<timestamp>.png and
// returns its path.
func (p *Playground) Screenshot(ctx context.Context, dir, name string) (string, error) {
	buf, err := p.driver.Screenshot(ctx)
	if err != nil {
		return "", fmt.Errorf("capturing screenshot: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating screenshot directory: %w", err)
	}
	timestamp := p.clock.Now().Format("2006-01-02_15-04-05")
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.png", sanitizeName(name), timestamp))
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", fmt.Errorf("saving screenshot: %w", err)
	}
	p.log.Info("screenshot saved", zap.String("path", path))
	return path, nil
}

func (p *Playground) poll(ctx context.Context, what string, check func(context.Context) (bool, error)) error {
	return Poll(ctx, p.clock, p.interval, p.timeout, what, check)
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "screenshot"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}
