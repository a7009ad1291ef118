package scenario

import (
	"context"
	"encoding/json"
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

// fakeFactory hands out fresh fakes prepared by setup and keeps them for
// inspection.
type fakeFactory struct {
	setup   func(*testutil.FakeDriver)
	drivers []*testutil.FakeDriver
	err     error
}

func (f *fakeFactory) New(context.Context) (playground.Driver, error) {
	if f.err != nil {
		return nil, f.err
	}
	d := testutil.NewFakeDriver()
	d.Render = func(code string) (string, error) {
		if strings.Contains(code, "boom") {
			return "", errors.New("line 1: boom")
		}
		if title, ok := strings.CutPrefix(code, "# "); ok {
			return "<h1>" + title + "</h1>", nil
		}
		return "<p>" + code + "</p>", nil
	}
	d.Examples = map[string]string{"broken": "boom", "heading": "# Example"}
	d.EvalResults = map[string]any{"() => 1 + 1": float64(2)}
	if f.setup != nil {
		f.setup(d)
	}
	f.drivers = append(f.drivers, d)
	return d, nil
}

func newTestRunner(t *testing.T, f *fakeFactory, opts ...RunnerOption) *Runner {
	t.Helper()
	clock := internal.NewMockClock(time.Time{})
	base := []RunnerOption{WithPageOptions(
		playground.WithClock(clock),
		playground.WithTimeout(time.Second),
		playground.WithPollInterval(100*time.Millisecond),
	)}
	r, err := NewRunner(f.New, "http://example.test", append(base, opts...)...)
	require.NoError(t, err)
	return r
}

func mustParse(t *testing.T, src string) []Scenario {
	t.Helper()
	scs, err := Parse(strings.NewReader(src), "test.yaml")
	require.NoError(t, err)
	return scs
}

func TestNewRunner_Validation(t *testing.T) {
	_, err := NewRunner(nil, "http://example.test")
	assert.Error(t, err)

	f := &fakeFactory{}
	_, err = NewRunner(f.New, "")
	assert.Error(t, err)
}

func TestRunner_AllPass(t *testing.T) {
	f := &fakeFactory{}
	r := newTestRunner(t, f)

	report, err := r.Run(context.Background(), mustParse(t, twoScenarios))
	require.NoError(t, err)

	require.Len(t, report.Scenarios, 2)
	for _, s := range report.Scenarios {
		assert.True(t, s.Passed, "%s: %s", s.Name, s.Error)
	}
	assert.True(t, report.Passed())
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "http://example.test", report.BaseURL)

	require.Len(t, f.drivers, 2, "one browser per scenario")
	assert.Equal(t, []string{"http://example.test/lookbook/playground"}, f.drivers[0].Navigations)
	assert.Equal(t, []string{"http://example.test/playground"}, f.drivers[1].Navigations)
	for _, d := range f.drivers {
		assert.True(t, d.Closed(), "driver not closed")
	}
}

func TestRunner_StopsAtFirstFailure(t *testing.T) {
	f := &fakeFactory{}
	r := newTestRunner(t, f)

	scs := mustParse(t, `name: failing
steps:
  - open: {}
  - set_code: "# Hi"
  - run: {}
  - expect: {has_element: table}
  - expect_no_error: {}
---
name: after
steps:
  - open: {}
  - expect_code: ""
`)
	report, err := r.Run(context.Background(), scs)
	require.NoError(t, err)

	failing := report.Scenarios[0]
	assert.False(t, failing.Passed)
	require.Len(t, failing.Steps, 4, "steps after the failure are not run")
	assert.False(t, failing.Steps[3].Passed)
	assert.Equal(t, "expect", failing.Steps[3].Kind)
	assert.Contains(t, failing.Error, `step 4 (expect)`)
	assert.Contains(t, failing.Error, `"table"`)
	assert.Empty(t, failing.Screenshot, "no results dir configured")

	assert.True(t, report.Scenarios[1].Passed, "later scenarios still run")
	assert.Equal(t, 1, report.Failed())
	assert.False(t, report.Passed())
}

func TestRunner_FailureScreenshot(t *testing.T) {
	f := &fakeFactory{}
	dir := t.TempDir()
	r := newTestRunner(t, f, WithResultsDir(dir))

	report, err := r.Run(context.Background(), mustParse(t, `name: shows error
steps:
  - open: {}
  - set_code: "fine"
  - run: {}
  - expect_error: {}
`))
	require.NoError(t, err)

	res := report.Scenarios[0]
	assert.False(t, res.Passed)
	assert.Contains(t, res.Error, "want visible error panel")
	require.NotEmpty(t, res.Screenshot)
	assert.FileExists(t, res.Screenshot)
	assert.Equal(t, dir, filepath.Dir(res.Screenshot))
}

func TestRunner_ErrorExpectations(t *testing.T) {
	f := &fakeFactory{}
	r := newTestRunner(t, f)

	report, err := r.Run(context.Background(), mustParse(t, `name: wrong message
steps:
  - open: {}
  - load_example: broken
  - run: {}
  - expect_error: {contains: "syntax"}
---
name: unexpected error
steps:
  - open: {}
  - set_code: "boom"
  - run: {}
  - expect_no_error: {}
`))
	require.NoError(t, err)
	assert.Contains(t, report.Scenarios[0].Error, `want error containing "syntax", got "line 1: boom"`)
	assert.Contains(t, report.Scenarios[1].Error, `want no error, got "line 1: boom"`)
}

func TestRunner_EvalAndClick(t *testing.T) {
	f := &fakeFactory{setup: func(d *testutil.FakeDriver) {
		d.EvalResults = map[string]any{
			"() => document.title": "Playground",
			"() => ({a: 1})":       map[string]any{"a": float64(1)},
		}
		d.Elements = map[string]bool{"#reset": true}
	}}
	r := newTestRunner(t, f)

	report, err := r.Run(context.Background(), mustParse(t, `name: eval
steps:
  - open: {}
  - eval: {script: "() => document.title", equals: Playground}
  - eval: {script: "() => ({a: 1})", equals: {a: 1}}
  - click: "#reset"
  - wait_visible: "#reset"
---
name: eval mismatch
steps:
  - open: {}
  - eval: {script: "() => document.title", equals: Other}
`))
	require.NoError(t, err)
	assert.True(t, report.Scenarios[0].Passed, report.Scenarios[0].Error)
	assert.Contains(t, report.Scenarios[1].Error, `want eval result "Other", got "Playground"`)
	assert.Contains(t, f.drivers[0].Clicks, "#reset")
}

func TestRunner_FactoryError(t *testing.T) {
	f := &fakeFactory{err: errors.New("chrome not found")}
	r := newTestRunner(t, f)

	report, err := r.Run(context.Background(), mustParse(t, "name: x\nsteps:\n  - open: {}\n"))
	require.NoError(t, err)
	assert.False(t, report.Scenarios[0].Passed)
	assert.Contains(t, report.Scenarios[0].Error, "chrome not found")
	assert.Empty(t, report.Scenarios[0].Steps)
}

func TestRunner_ContextCancelled(t *testing.T) {
	f := &fakeFactory{}
	r := newTestRunner(t, f)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := r.Run(ctx, mustParse(t, twoScenarios))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Scenarios)
	assert.Empty(t, f.drivers)
}

func TestReport_WriteJSONAndSummary(t *testing.T) {
	f := &fakeFactory{}
	r := newTestRunner(t, f)
	report, err := r.Run(context.Background(), mustParse(t, twoScenarios))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "report.json")
	require.NoError(t, report.WriteJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, report.RunID, decoded.RunID)
	assert.Len(t, decoded.Scenarios, 2)
	assert.Equal(t, "set_code", decoded.Scenarios[0].Steps[1].Kind)

	var sb strings.Builder
	report.WriteSummary(&sb)
	assert.Contains(t, sb.String(), "PASS  first")
	assert.Contains(t, sb.String(), "2 scenario(s), 2 passed, 0 failed")
}

func TestRunner_ScenarioDuration(t *testing.T) {
	f := &fakeFactory{}
	r := newTestRunner(t, f)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		now = now.Add(250 * time.Millisecond)
		return now
	}

	report, err := r.Run(context.Background(), mustParse(t, twoScenarios))
	require.NoError(t, err)

	for _, s := range report.Scenarios {
		assert.Positive(t, s.DurationMS, s.Name)
		var steps int64
		for _, st := range s.Steps {
			steps += st.DurationMS
		}
		assert.GreaterOrEqual(t, s.DurationMS, steps, s.Name)
	}

	var sb strings.Builder
	report.WriteSummary(&sb)
	assert.NotContains(t, sb.String(), "      0ms")
}

// cancellingDriver cancels the run from inside a step and, like a real
// browser, refuses to work on a dead context.
type cancellingDriver struct {
	*testutil.FakeDriver
	cancel context.CancelFunc
}

func (d *cancellingDriver) Eval(ctx context.Context, fn string) (any, error) {
	if fn == "() => cancel()" {
		d.cancel()
		return nil, ctx.Err()
	}
	return d.FakeDriver.Eval(ctx, fn)
}

func (d *cancellingDriver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.FakeDriver.Screenshot(ctx)
}

func TestRunner_FailureScreenshotAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var driver *cancellingDriver
	factory := func(context.Context) (playground.Driver, error) {
		driver = &cancellingDriver{FakeDriver: testutil.NewFakeDriver(), cancel: cancel}
		return driver, nil
	}
	dir := t.TempDir()
	r, err := NewRunner(factory, "http://example.test",
		WithResultsDir(dir),
		WithPageOptions(playground.WithClock(internal.NewMockClock(time.Time{}))),
	)
	require.NoError(t, err)

	report, err := r.Run(ctx, mustParse(t, `name: cancelled
steps:
  - open: {}
  - eval: {script: "() => cancel()"}
`))
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, report.Scenarios, 1)

	res := report.Scenarios[0]
	assert.False(t, res.Passed)
	require.NotEmpty(t, res.Screenshot, "screenshot must not reuse the cancelled context")
	assert.FileExists(t, res.Screenshot)
	assert.Equal(t, 1, driver.Screenshots)
}
