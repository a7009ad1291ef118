//go:build e2e

package e2e

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/thesyncim/playground-e2e/pkg/playground/testutil"
)

// TestChrome_CanConnect verifies the browser infrastructure on its own:
// the rod client launches, navigates, settles and closes cleanly.
func TestChrome_CanConnect(t *testing.T) {
	client, err := testutil.NewBrowserClient(testutil.DefaultBrowserConfig())
	if err != nil {
		t.Fatalf("failed to create browser: %v", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			t.Errorf("browser close error: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	url := baseURL + "/playground"
	t.Logf("Navigating to %s", url)
	if err := client.Navigate(ctx, url); err != nil {
		t.Fatalf("failed to navigate: %v", err)
	}

	if err := client.WaitStable(); err != nil {
		t.Fatalf("page not stable: %v", err)
	}

	page := client.Page()
	if page == nil {
		t.Fatal("no page after Navigate")
	}
	if fixture {
		title := page.MustElement("title").MustText()
		if !strings.Contains(title, "Playground") {
			t.Errorf("unexpected page title: got %q, want contains 'Playground'", title)
		}
	}

	result, err := client.Eval(ctx, `() => typeof fetch === 'function'`)
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if result != true {
		t.Errorf("fetch unavailable: got %v", result)
	}
}
