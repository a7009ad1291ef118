package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thesyncim/playground-e2e/pkg/playground"
	"github.com/thesyncim/playground-e2e/pkg/playground/expect"
)

// failureScreenshotTimeout bounds the screenshot taken after a failed step.
const failureScreenshotTimeout = 10 * time.Second

// Factory returns a fresh driver for one scenario. The runner closes it.
type Factory func(ctx context.Context) (playground.Driver, error)

// RunnerOption configures a Runner.
type RunnerOption func(*Runner) error

// WithResultsDir enables screenshots on failure under dir.
func WithResultsDir(dir string) RunnerOption {
	return func(r *Runner) error {
		r.resultsDir = dir
		return nil
	}
}

// WithPageOptions passes options to every playground page object.
func WithPageOptions(opts ...playground.Option) RunnerOption {
	return func(r *Runner) error {
		r.pageOpts = append(r.pageOpts, opts...)
		return nil
	}
}

// WithRunnerLogger sets the logger. Default: no-op.
func WithRunnerLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) error {
		if l == nil {
			l = zap.NewNop()
		}
		r.log = l
		return nil
	}
}

// Runner executes scenarios sequentially, each in its own browser.
type Runner struct {
	factory    Factory
	baseURL    string
	pageOpts   []playground.Option
	resultsDir string
	log        *zap.Logger
	now        func() time.Time
}

// NewRunner creates a runner targeting the playground under baseURL.
func NewRunner(factory Factory, baseURL string, opts ...RunnerOption) (*Runner, error) {
	if factory == nil {
		return nil, errors.New("driver factory must not be nil")
	}
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("base URL must not be empty")
	}
	r := &Runner{
		factory: factory,
		baseURL: baseURL,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Run executes scenarios in order. A failing scenario does not stop the
// others. The returned error is non-nil only if ctx ended the run.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		BaseURL:   r.baseURL,
		StartedAt: r.now(),
	}
	r.log.Info("run started",
		zap.String("run_id", report.RunID),
		zap.Int("scenarios", len(scenarios)))

	for _, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			report.finish(r.now())
			return report, err
		}
		res := r.runScenario(ctx, sc)
		report.Scenarios = append(report.Scenarios, res)
	}

	report.finish(r.now())
	r.log.Info("run finished",
		zap.String("run_id", report.RunID),
		zap.Int("passed", len(report.Scenarios)-report.Failed()),
		zap.Int("failed", report.Failed()))
	return report, ctx.Err()
}

func (r *Runner) runScenario(ctx context.Context, sc Scenario) (res ScenarioResult) {
	start := r.now()
	res = ScenarioResult{Name: sc.Name, Source: sc.Source}
	log := r.log.With(zap.String("scenario", sc.Name))
	defer func() {
		res.DurationMS = r.now().Sub(start).Milliseconds()
	}()

	driver, err := r.factory(ctx)
	if err != nil {
		res.Error = fmt.Sprintf("starting browser: %v", err)
		log.Error("browser start failed", zap.Error(err))
		return res
	}
	defer func() {
		if err := driver.Close(); err != nil {
			log.Warn("browser close failed", zap.Error(err))
		}
	}()

	opts := append([]playground.Option{playground.WithLogger(log)}, r.pageOpts...)
	if sc.Path != "" {
		opts = append(opts, playground.WithPath(sc.Path))
	}
	page, err := playground.New(driver, r.baseURL, opts...)
	if err != nil {
		res.Error = fmt.Sprintf("configuring page: %v", err)
		return res
	}

	for i, step := range sc.Steps {
		stepStart := r.now()
		err := r.runStep(ctx, page, sc, i, step)
		sr := StepResult{
			Index:      i + 1,
			Kind:       step.Kind(),
			Passed:     err == nil,
			DurationMS: r.now().Sub(stepStart).Milliseconds(),
		}
		if err != nil {
			sr.Error = err.Error()
			res.Error = fmt.Sprintf("step %d (%s): %v", sr.Index, sr.Kind, err)
			log.Warn("step failed", zap.Int("step", sr.Index), zap.String("kind", sr.Kind), zap.Error(err))
			res.Steps = append(res.Steps, sr)
			res.Screenshot = r.captureFailure(page, sc)
			return res
		}
		log.Debug("step passed", zap.Int("step", sr.Index), zap.String("kind", sr.Kind))
		res.Steps = append(res.Steps, sr)
	}
	res.Passed = true
	return res
}

func (r *Runner) runStep(ctx context.Context, page *playground.Playground, sc Scenario, i int, step Step) error {
	switch {
	case step.Open != nil:
		return page.Open(ctx)

	case step.SetCode != nil:
		return page.SetCode(ctx, *step.SetCode)

	case step.LoadExample != nil:
		_, err := page.LoadExample(ctx, *step.LoadExample)
		return err

	case step.Run != nil:
		_, err := page.Run(ctx)
		return err

	case step.Click != nil:
		return page.Click(ctx, *step.Click)

	case step.Eval != nil:
		got, err := page.Eval(ctx, step.Eval.Script)
		if err != nil {
			return err
		}
		if step.Eval.Equals == nil {
			return nil
		}
		return compareValues(got, step.Eval.Equals)

	case step.WaitVisible != nil:
		return page.WaitVisible(ctx, *step.WaitVisible)

	case step.Expect != nil:
		html, err := page.PreviewHTML(ctx)
		if err != nil {
			return err
		}
		return checkExpectation(html, step.Expect)

	case step.ExpectError != nil:
		msg, visible, err := page.Error(ctx)
		if err != nil {
			return err
		}
		if !visible {
			return fmt.Errorf("%w: want visible error panel, none shown", expect.ErrExpectation)
		}
		if want := step.ExpectError.Contains; want != "" && !strings.Contains(msg, want) {
			return fmt.Errorf("%w: want error containing %q, got %q", expect.ErrExpectation, want, msg)
		}
		return nil

	case step.ExpectNoError != nil:
		msg, visible, err := page.Error(ctx)
		if err != nil {
			return err
		}
		if visible {
			return fmt.Errorf("%w: want no error, got %q", expect.ErrExpectation, msg)
		}
		return nil

	case step.ExpectCode != nil:
		code, err := page.Code(ctx)
		if err != nil {
			return err
		}
		if !strings.Contains(code, *step.ExpectCode) {
			return fmt.Errorf("%w: want editor containing %q, got %q", expect.ErrExpectation, *step.ExpectCode, code)
		}
		return nil

	case step.Screenshot != nil:
		if r.resultsDir == "" {
			return nil
		}
		name := *step.Screenshot
		if name == "" {
			name = fmt.Sprintf("%s-step-%d", sc.Name, i+1)
		}
		_, err := page.Screenshot(ctx, r.resultsDir, name)
		return err
	}
	return fmt.Errorf("%w: step %d has no action", ErrInvalidScenario, i+1)
}

// captureFailure saves a screenshot of a failed scenario and returns its
// path, or "" when screenshots are disabled or fail. It gets its own
// deadline since the step may have failed because ctx ended.
func (r *Runner) captureFailure(page *playground.Playground, sc Scenario) string {
	if r.resultsDir == "" {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), failureScreenshotTimeout)
	defer cancel()
	path, err := page.Screenshot(ctx, r.resultsDir, sc.Name+"-failure")
	if err != nil {
		r.log.Warn("failure screenshot not saved", zap.String("scenario", sc.Name), zap.Error(err))
		return ""
	}
	return path
}

func checkExpectation(html string, e *Expectation) error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if e.Contains != "" {
		add(expect.Contains(html, e.Contains))
	}
	if e.NotContains != "" {
		add(expect.NotContains(html, e.NotContains))
	}
	if e.NotEmpty {
		add(expect.NotEmpty(html))
	}
	if e.HasElement != "" {
		add(expect.HasElement(html, e.HasElement))
	}
	if e.NoElement != "" {
		add(expect.NoElement(html, e.NoElement))
	}
	if e.Count != nil {
		add(expect.Count(html, e.Count.Selector, e.Count.N))
	}
	if e.TextEquals != nil {
		add(expect.TextEquals(html, e.TextEquals.Selector, e.TextEquals.Value))
	}
	if e.TextContains != nil {
		add(expect.TextContains(html, e.TextContains.Selector, e.TextContains.Value))
	}
	if e.Attr != nil {
		add(expect.AttrEquals(html, e.Attr.Selector, e.Attr.Name, e.Attr.Value))
	}
	return errors.Join(errs...)
}

// compareValues compares a JavaScript result with a YAML value by their JSON
// encodings, so 3 and 3.0 are equal.
func compareValues(got, want any) error {
	g, err := json.Marshal(got)
	if err != nil {
		return fmt.Errorf("encoding eval result: %w", err)
	}
	w, err := json.Marshal(want)
	if err != nil {
		return fmt.Errorf("encoding expected value: %w", err)
	}
	if string(g) != string(w) {
		return fmt.Errorf("%w: want eval result %s, got %s", expect.ErrExpectation, w, g)
	}
	return nil
}
