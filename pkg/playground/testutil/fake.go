package testutil

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/thesyncim/playground-e2e/pkg/playground"
)

// pngHeader is what FakeDriver returns from Screenshot.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// FakeDriver is an in-memory playground for unit tests. It understands the
// editor scripts built by the playground package and renders on Run clicks
// through Render.
type FakeDriver struct {
	Selectors playground.Selectors

	Code      string // editor content
	Preview   string // preview innerHTML
	ErrorText string // error panel text; the panel is visible when non-empty

	// Render turns code into preview HTML. Nil wraps the escaped code in a
	// <div> and rejects blank code.
	Render func(code string) (string, error)

	// RenderDelay is the number of error-panel visibility checks after a Run
	// click before the render result appears.
	RenderDelay int

	Examples      map[string]string            // example name to editor content
	Elements      map[string]bool              // extra selectors; value is visibility
	Attributes    map[string]map[string]string // selector to attributes
	EvalResults   map[string]any               // canned results for other scripts
	EditorMissing bool                         // editor global absent
	NavigateErr   error

	Navigations []string
	Clicks      []string
	Screenshots int

	mu      sync.Mutex
	pending *fakeRender
	closed  bool
}

type fakeRender struct {
	html    string
	err     error
	waiting int
}

var _ playground.Driver = (*FakeDriver)(nil)

// NewFakeDriver returns a fake using the default selectors.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{Selectors: playground.DefaultSelectors()}
}

// Navigate records url.
func (f *FakeDriver) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("browser is closed")
	}
	if f.NavigateErr != nil {
		return f.NavigateErr
	}
	f.Navigations = append(f.Navigations, url)
	return nil
}

// Eval answers the playground's editor scripts and EvalResults entries.
func (f *FakeDriver) Eval(_ context.Context, fn string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, errors.New("browser is closed")
	}

	global := f.Selectors.EditorGlobal
	switch fn {
	case playground.EditorReadyScript(global):
		return !f.EditorMissing, nil
	case playground.EditorGetScript(global):
		if f.EditorMissing {
			return nil, nil
		}
		return f.Code, nil
	case playground.ResetOutputScript(f.Selectors.Preview, f.Selectors.ErrorPanel):
		f.Preview, f.ErrorText = "", ""
		return true, nil
	}
	if code, ok := playground.DecodeEditorSetScript(global, fn); ok {
		if f.EditorMissing {
			return nil, nil
		}
		f.Code = code
		return f.Code, nil
	}
	if v, ok := f.EvalResults[fn]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("fake driver: unsupported script %q", fn)
}

// Click runs, loads examples, or records clicks on Elements.
func (f *FakeDriver) Click(_ context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.exists(selector) {
		return fmt.Errorf("%s: %w", selector, playground.ErrNotFound)
	}
	f.Clicks = append(f.Clicks, selector)

	if selector == f.Selectors.RunButton {
		out, err := f.render(f.Code)
		f.pending = &fakeRender{html: out, err: err, waiting: f.RenderDelay}
		if f.RenderDelay == 0 {
			f.applyPending()
		}
		return nil
	}
	for name, code := range f.Examples {
		if selector == f.Selectors.Example(name) {
			f.Code = code
		}
	}
	return nil
}

// Text returns the preview text, the error text, or "" for other elements.
func (f *FakeDriver) Text(_ context.Context, selector string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case !f.exists(selector):
		return "", fmt.Errorf("%s: %w", selector, playground.ErrNotFound)
	case selector == f.Selectors.Preview:
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(f.Preview))
		if err != nil {
			return "", err
		}
		return doc.Text(), nil
	case selector == f.Selectors.ErrorPanel:
		return f.ErrorText, nil
	}
	return "", nil
}

// HTML returns the preview HTML, the error text, or "" for other elements.
func (f *FakeDriver) HTML(_ context.Context, selector string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case !f.exists(selector):
		return "", fmt.Errorf("%s: %w", selector, playground.ErrNotFound)
	case selector == f.Selectors.Preview:
		return f.Preview, nil
	case selector == f.Selectors.ErrorPanel:
		return html.EscapeString(f.ErrorText), nil
	}
	return "", nil
}

// Attribute returns values from Attributes.
func (f *FakeDriver) Attribute(_ context.Context, selector, name string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.exists(selector) {
		return "", false, fmt.Errorf("%s: %w", selector, playground.ErrNotFound)
	}
	v, ok := f.Attributes[selector][name]
	return v, ok, nil
}

// Exists reports whether selector is part of the fake page.
func (f *FakeDriver) Exists(_ context.Context, selector string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exists(selector), nil
}

// Visible reports visibility. Checking the error panel advances a delayed
// render by one step.
func (f *FakeDriver) Visible(_ context.Context, selector string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if selector == f.Selectors.ErrorPanel {
		f.tick()
		return f.ErrorText != "", nil
	}
	if visible, ok := f.Elements[selector]; ok {
		return visible, nil
	}
	return f.exists(selector), nil
}

// Screenshot returns a PNG signature and counts the call.
func (f *FakeDriver) Screenshot(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Screenshots++
	return append([]byte(nil), pngHeader...), nil
}

// Close marks the fake closed.
func (f *FakeDriver) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *FakeDriver) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *FakeDriver) exists(selector string) bool {
	if f.closed {
		return false
	}
	switch selector {
	case f.Selectors.Root, f.Selectors.RunButton, f.Selectors.Preview, f.Selectors.ErrorPanel:
		return true
	}
	if _, ok := f.Elements[selector]; ok {
		return true
	}
	for name := range f.Examples {
		if selector == f.Selectors.Example(name) {
			return true
		}
	}
	return false
}

func (f *FakeDriver) render(code string) (string, error) {
	if f.Render != nil {
		return f.Render(code)
	}
	if strings.TrimSpace(code) == "" {
		return "", errors.New("source is empty")
	}
	return "<div>" + html.EscapeString(code) + "</div>", nil
}

func (f *FakeDriver) tick() {
	if f.pending == nil {
		return
	}
	if f.pending.waiting > 0 {
		f.pending.waiting--
		return
	}
	f.applyPending()
}

func (f *FakeDriver) applyPending() {
	if f.pending.err != nil {
		f.ErrorText = f.pending.err.Error()
		f.Preview = ""
	} else {
		f.Preview = f.pending.html
		f.ErrorText = ""
	}
	f.pending = nil
}
