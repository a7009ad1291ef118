// Package playground drives the playground page (code editor plus live
// preview) through a real browser.
//
// The page object in this package speaks only to the Driver interface.
// Browser backends live in the testutil subpackage.
package playground

import (
	"context"
	"errors"
)

var (
	// ErrTimeout is wrapped by every wait that runs past its deadline.
	ErrTimeout = errors.New("timed out")

	// ErrNotFound is returned when a selector matches no element.
	ErrNotFound = errors.New("element not found")

	// ErrEditorUnavailable is returned when the editor global is missing or
	// does not expose getValue/setValue.
	ErrEditorUnavailable = errors.New("editor instance unavailable")
)

// Driver is the minimal browser surface the playground page object needs.
// Implementations are not safe for concurrent use.
type Driver interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// Eval evaluates a JavaScript function source of the form "() => ...",
	// awaiting a returned promise. The result is JSON-decoded
	// (bool, float64, string, []any, map[string]any or nil).
	Eval(ctx context.Context, fn string) (any, error)

	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error

	// Text returns the visible text of the first element matching selector.
	Text(ctx context.Context, selector string) (string, error)

	// HTML returns the innerHTML of the first element matching selector.
	HTML(ctx context.Context, selector string) (string, error)

	// Attribute returns the named attribute of the first match and whether
	// it was present.
	Attribute(ctx context.Context, selector, name string) (string, bool, error)

	// Exists reports whether any element matches selector, without waiting.
	Exists(ctx context.Context, selector string) (bool, error)

	// Visible reports whether the first match is rendered and not hidden.
	// It returns false, nil when nothing matches.
	Visible(ctx context.Context, selector string) (bool, error)

	// Screenshot captures the viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)

	// Close releases browser resources. Calling it twice is allowed.
	Close() error
}
