package playground_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/playground-e2e/pkg/playground"
	"github.com/thesyncim/playground-e2e/pkg/playground/internal"
	"github.com/thesyncim/playground-e2e/pkg/playground/testutil"
)

// newPage returns a page over f with a 1s timeout polled every 100ms on a
// mock clock.
func newPage(t *testing.T, f *testutil.FakeDriver, opts ...playground.Option) (*playground.Playground, *internal.MockClock) {
	t.Helper()
	clock := internal.NewMockClock(time.Time{})
	base := []playground.Option{
		playground.WithClock(clock),
		playground.WithTimeout(time.Second),
		playground.WithPollInterval(100 * time.Millisecond),
	}
	p, err := playground.New(f, "http://example.test/", append(base, opts...)...)
	require.NoError(t, err)
	return p, clock
}

func TestNew_Validation(t *testing.T) {
	f := testutil.NewFakeDriver()

	_, err := playground.New(nil, "http://example.test")
	assert.Error(t, err)

	_, err = playground.New(f, "  ")
	assert.ErrorContains(t, err, "base URL")

	_, err = playground.New(f, "http://example.test", playground.WithTimeout(0))
	assert.ErrorContains(t, err, "timeout")

	_, err = playground.New(f, "http://example.test", playground.WithPollInterval(-time.Second))
	assert.ErrorContains(t, err, "poll interval")

	_, err = playground.New(f, "http://example.test", playground.WithSelectors(playground.Selectors{ExampleButton: ".example"}))
	assert.ErrorContains(t, err, "%s")
}

func TestURL(t *testing.T) {
	f := testutil.NewFakeDriver()

	p, _ := newPage(t, f)
	assert.Equal(t, "http://example.test/playground", p.URL())

	p, _ = newPage(t, f, playground.WithPath("lookbook/playground"))
	assert.Equal(t, "http://example.test/lookbook/playground", p.URL())
}

func TestOpen(t *testing.T) {
	f := testutil.NewFakeDriver()
	p, clock := newPage(t, f)

	require.NoError(t, p.Open(context.Background()))
	assert.Equal(t, []string{"http://example.test/playground"}, f.Navigations)
	assert.Zero(t, clock.Sleeps(), "ready page should not wait")
}

func TestOpen_EditorMissing(t *testing.T) {
	f := testutil.NewFakeDriver()
	f.EditorMissing = true
	p, clock := newPage(t, f)

	err := p.Open(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, playground.ErrEditorUnavailable)
	assert.ErrorIs(t, err, playground.ErrTimeout)
	assert.Equal(t, 10, clock.Sleeps(), "1s timeout at 100ms interval")
}

func TestOpen_NavigateError(t *testing.T) {
	f := testutil.NewFakeDriver()
	f.NavigateErr = errors.New("connection refused")
	p, _ := newPage(t, f)

	err := p.Open(context.Background())
	assert.ErrorContains(t, err, "connection refused")
	assert.ErrorContains(t, err, "http://example.test/playground")
}

func TestSetCode_RoundTrip(t *testing.T) {
	f := testutil.NewFakeDriver()
	p, _ := newPage(t, f)
	ctx := context.Background()

	code := "quote \" backslash \\ newline\n</script><script>alert(1)</script>   done"
	require.NoError(t, p.SetCode(ctx, code))
	assert.Equal(t, code, f.Code)

	got, err := p.Code(ctx)
	require.NoError(t, err)
	assert.Equal(t, code, got)
}

func TestCode_EditorMissing(t *testing.T) {
	f := testutil.NewFakeDriver()
	f.EditorMissing = true
	p, _ := newPage(t, f)

	_, err := p.Code(context.Background())
	assert.ErrorIs(t, err, playground.ErrEditorUnavailable)

	err = p.SetCode(context.Background(), "x")
	assert.ErrorIs(t, err, playground.ErrEditorUnavailable)
}

func TestRun_RendersPreview(t *testing.T) {
	f := testutil.NewFakeDriver()
	f.Code = "hello"
	p, _ := newPage(t, f)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.HasError)
	assert.Equal(t, "<div>hello</div>", res.HTML)
	assert.Equal(t, "hello", res.Text)
	assert.Equal(t, []string{playground.DefaultSelectors().RunButton}, f.Clicks)
}

func TestRun_ShowsError(t *testing.T) {
	f := testutil.NewFakeDriver()
	f.Code = "   "
	p, _ := newPage(t, f)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.HasError)
	assert.Equal(t, "source is empty", res.Error)
	assert.Empty(t, res.HTML)
}

func TestRun_WaitsForDelayedRender(t *testing.T) {
	f := testutil.NewFakeDriver()
	f.Code = "slow"
	f.RenderDelay = 3
	p, clock := newPage(t, f)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<div>slow</div>", res.HTML)
	assert.Equal(t, 3, clock.Sleeps())
	assert.Equal(t, 300*time.Millisecond, res.Elapsed)
}

func TestRun_ClearsStaleOutput(t *testing.T) {
	f := testutil.NewFakeDriver()
	f.ErrorText = "previous failure"
	f.Preview = "<p>previous</p>"
	f.Code = "fresh"
	f.RenderDelay = 1
	p, _ := newPage(t, f)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.HasError, "stale error must not be reported")
	assert.Equal(t, "<div>fresh</div>", res.HTML)
}

func TestRun_TimesOutOnEmptyOutput(t *testing.T) {
	f := testutil.NewFakeDriver()
	f.Code = "x"
	f.Render = func(string) (string, error) { return "  ", nil }
	p, _ := newPage(t, f)

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, playground.ErrTimeout)
	assert.ErrorContains(t, err, "preview to render")
}

func TestRender(t *testing.T) {
	f := testutil.NewFakeDriver()
	f.Render = func(code string) (string, error) {
		return "<h1>" + strings.TrimPrefix(code, "# ") + "</h1>", nil
	}
	p, _ := newPage(t, f)

	res, err := p.Render(context.Background(), "# Title")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Title</h1>", res.HTML)
	assert.Equal(t, "Title", res.Text)
	assert.Equal(t, "# Title", f.Code)
}

func TestLoadExample(t *testing.T) {
	f := testutil.NewFakeDriver()
	f.Examples = map[string]string{"list": "- a\n- b\n"}
	p, _ := newPage(t, f)
	ctx := context.Background()

	code, err := p.LoadExample(ctx, "list")
	require.NoError(t, err)
	assert.Equal(t, "- a\n- b\n", code)

	_, err = p.LoadExample(ctx, "missing")
	assert.ErrorIs(t, err, playground.ErrNotFound)
	assert.ErrorContains(t, err, `"missing"`)
}

func TestLoadExample_UnchangedTimesOut(t *testing.T) {
	f := testutil.NewFakeDriver()
	f.Code = "same"
	f.Examples = map[string]string{"same": "same"}
	p, _ := newPage(t, f)

	_, err := p.LoadExample(context.Background(), "same")
	assert.ErrorIs(t, err, playground.ErrTimeout)
}

func TestError(t *testing.T) {
	f := testutil.NewFakeDriver()
	p, _ := newPage(t, f)
	ctx := context.Background()

	msg, visible, err := p.Error(ctx)
	require.NoError(t, err)
	assert.False(t, visible)
	assert.Empty(t, msg)

	f.ErrorText = "  line 2: boom \n"
	msg, visible, err = p.Error(ctx)
	require.NoError(t, err)
	assert.True(t, visible)
	assert.Equal(t, "line 2: boom", msg)
}

func TestPreviewDocument(t *testing.T) {
	f := testutil.NewFakeDriver()
	f.Preview = `<ul class="items"><li>a</li><li>b</li></ul>`
	p, _ := newPage(t, f)

	doc, err := p.PreviewDocument(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Find("ul.items li").Length())
}

func TestWaitVisible(t *testing.T) {
	f := testutil.NewFakeDriver()
	f.Elements = map[string]bool{"#shown": true, "#hidden": false}
	p, _ := newPage(t, f)
	ctx := context.Background()

	assert.NoError(t, p.WaitVisible(ctx, "#shown"))

	err := p.WaitVisible(ctx, "#hidden")
	assert.ErrorIs(t, err, playground.ErrTimeout)
	assert.ErrorContains(t, err, "#hidden")
}

func TestClick_Missing(t *testing.T) {
	f := testutil.NewFakeDriver()
	p, _ := newPage(t, f)

	err := p.Click(context.Background(), "#nope")
	assert.ErrorIs(t, err, playground.ErrNotFound)
	assert.Empty(t, f.Clicks)
}

func TestEval(t *testing.T) {
	f := testutil.NewFakeDriver()
	f.EvalResults = map[string]any{"() => document.title": "Playground"}
	p, _ := newPage(t, f)
	ctx := context.Background()

	v, err := p.Eval(ctx, "() => document.title")
	require.NoError(t, err)
	assert.Equal(t, "Playground", v)

	_, err = p.Eval(ctx, "() => 1")
	assert.ErrorContains(t, err, "unsupported script")
}

func TestScreenshot(t *testing.T) {
	f := testutil.NewFakeDriver()
	p, _ := newPage(t, f)
	dir := filepath.Join(t.TempDir(), "shots")

	path, err := p.Screenshot(context.Background(), dir, "run renders/preview")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "run-renders-preview-"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\x89PNG"))
	assert.Equal(t, 1, f.Screenshots)
}
