// Package scenario loads declarative playground scenarios from YAML and runs
// them against a browser.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidScenario is wrapped by every load and validation failure.
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is one standalone browser session against the playground.
type Scenario struct {
	// Name identifies the scenario in reports. Required.
	Name string `yaml:"name"`

	// Description explains what the scenario covers.
	Description string `yaml:"description,omitempty"`

	// Path overrides the configured playground route.
	Path string `yaml:"path,omitempty"`

	// Steps run in order; the first failure ends the scenario.
	Steps []Step `yaml:"steps"`

	// Source is the file the scenario was loaded from.
	Source string `yaml:"-"`
}

// Step is a single action or check. Exactly one field must be set.
type Step struct {
	Open          *struct{}         `yaml:"open,omitempty"`
	SetCode       *string           `yaml:"set_code,omitempty"`
	LoadExample   *string           `yaml:"load_example,omitempty"`
	Run           *struct{}         `yaml:"run,omitempty"`
	Click         *string           `yaml:"click,omitempty"`
	Eval          *EvalStep         `yaml:"eval,omitempty"`
	WaitVisible   *string           `yaml:"wait_visible,omitempty"`
	Expect        *Expectation      `yaml:"expect,omitempty"`
	ExpectError   *ErrorExpectation `yaml:"expect_error,omitempty"`
	ExpectNoError *struct{}         `yaml:"expect_no_error,omitempty"`
	ExpectCode    *string           `yaml:"expect_code,omitempty"`
	Screenshot    *string           `yaml:"screenshot,omitempty"`
}

// UnmarshalYAML decodes a step strictly and lets the action-only kinds be
// written without a value, as in "- run:".
func (s *Step) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: step must be a mapping", n.Line)
	}
	// plain has no UnmarshalYAML, so decoding into it does not recurse.
	type plain Step
	var p plain
	if err := decodeStrict(n, &p); err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if val.Kind != yaml.ScalarNode || val.ShortTag() != "!!null" {
			continue
		}
		switch key.Value {
		case "open":
			p.Open = &struct{}{}
		case "run":
			p.Run = &struct{}{}
		case "expect_no_error":
			p.ExpectNoError = &struct{}{}
		case "expect_error":
			p.ExpectError = &ErrorExpectation{}
		case "screenshot":
			p.Screenshot = new(string)
		}
	}
	*s = Step(p)
	return nil
}

// decodeStrict decodes n rejecting unknown fields. Node.Decode does not
// carry the outer decoder's KnownFields setting.
func decodeStrict(n *yaml.Node, v any) error {
	b, err := yaml.Marshal(n)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	return dec.Decode(v)
}

// EvalStep evaluates a JavaScript function and optionally compares its
// result.
type EvalStep struct {
	Script string `yaml:"script"`
	Equals any    `yaml:"equals,omitempty"`
}

// Expectation lists checks against the preview HTML. All set checks must
// pass.
type Expectation struct {
	Contains     string         `yaml:"contains,omitempty"`
	NotContains  string         `yaml:"not_contains,omitempty"`
	NotEmpty     bool           `yaml:"not_empty,omitempty"`
	HasElement   string         `yaml:"has_element,omitempty"`
	NoElement    string         `yaml:"no_element,omitempty"`
	Count        *CountCheck    `yaml:"count,omitempty"`
	TextEquals   *SelectorValue `yaml:"text_equals,omitempty"`
	TextContains *SelectorValue `yaml:"text_contains,omitempty"`
	Attr         *AttrCheck     `yaml:"attr,omitempty"`
}

// CountCheck expects selector to match exactly N elements.
type CountCheck struct {
	Selector string `yaml:"selector"`
	N        int    `yaml:"n"`
}

// SelectorValue pairs a selector with an expected value.
type SelectorValue struct {
	Selector string `yaml:"selector"`
	Value    string `yaml:"value"`
}

// AttrCheck expects an attribute value on the first match.
type AttrCheck struct {
	Selector string `yaml:"selector"`
	Name     string `yaml:"name"`
	Value    string `yaml:"value"`
}

// ErrorExpectation expects a visible error panel, optionally containing a
// substring.
type ErrorExpectation struct {
	Contains string `yaml:"contains,omitempty"`
}

// Kind returns the name of the step's action, or "" when none is set.
func (s Step) Kind() string {
	kinds := s.kinds()
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

func (s Step) kinds() []string {
	var kinds []string
	add := func(set bool, name string) {
		if set {
			kinds = append(kinds, name)
		}
	}
	add(s.Open != nil, "open")
	add(s.SetCode != nil, "set_code")
	add(s.LoadExample != nil, "load_example")
	add(s.Run != nil, "run")
	add(s.Click != nil, "click")
	add(s.Eval != nil, "eval")
	add(s.WaitVisible != nil, "wait_visible")
	add(s.Expect != nil, "expect")
	add(s.ExpectError != nil, "expect_error")
	add(s.ExpectNoError != nil, "expect_no_error")
	add(s.ExpectCode != nil, "expect_code")
	add(s.Screenshot != nil, "screenshot")
	return kinds
}

// Validate checks the scenario name and that every step has exactly one
// kind with its required fields.
func (sc Scenario) Validate() error {
	if strings.TrimSpace(sc.Name) == "" {
		return fmt.Errorf("%w: missing name (source %s)", ErrInvalidScenario, sc.Source)
	}
	if len(sc.Steps) == 0 {
		return fmt.Errorf("%w: %q has no steps", ErrInvalidScenario, sc.Name)
	}
	for i, step := range sc.Steps {
		kinds := step.kinds()
		switch len(kinds) {
		case 0:
			return fmt.Errorf("%w: %q step %d has no action", ErrInvalidScenario, sc.Name, i+1)
		case 1:
		default:
			return fmt.Errorf("%w: %q step %d has several actions: %s",
				ErrInvalidScenario, sc.Name, i+1, strings.Join(kinds, ", "))
		}
		if err := step.validate(); err != nil {
			return fmt.Errorf("%w: %q step %d (%s): %v", ErrInvalidScenario, sc.Name, i+1, kinds[0], err)
		}
	}
	return nil
}

func (s Step) validate() error {
	switch {
	case s.LoadExample != nil && strings.TrimSpace(*s.LoadExample) == "":
		return errors.New("example name is empty")
	case s.Click != nil && strings.TrimSpace(*s.Click) == "":
		return errors.New("selector is empty")
	case s.WaitVisible != nil && strings.TrimSpace(*s.WaitVisible) == "":
		return errors.New("selector is empty")
	case s.Eval != nil && strings.TrimSpace(s.Eval.Script) == "":
		return errors.New("script is empty")
	case s.Expect != nil && s.Expect.empty():
		return errors.New("no checks")
	case s.Expect != nil && s.Expect.Attr != nil && s.Expect.Attr.Name == "":
		return errors.New("attr check needs a name")
	}
	return nil
}

func (e *Expectation) empty() bool {
	return e.Contains == "" && e.NotContains == "" && !e.NotEmpty &&
		e.HasElement == "" && e.NoElement == "" && e.Count == nil &&
		e.TextEquals == nil && e.TextContains == nil && e.Attr == nil
}

// Parse decodes every YAML document in r as a scenario.
func Parse(r io.Reader, source string) ([]Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var out []Scenario
	for {
		var sc Scenario
		err := dec.Decode(&sc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScenario, source, err)
		}
		sc.Source = source
		if err := sc.Validate(); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s contains no scenarios", ErrInvalidScenario, source)
	}
	return out, nil
}

// LoadFile reads all scenarios in a YAML file.
func LoadFile(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	return Parse(bytes.NewReader(data), path)
}

// Load reads scenarios from files and directories. Directories are walked
// for *.yaml and *.yml files in lexical order. Scenario names must be
// unique across everything loaded.
func Load(paths ...string) ([]Scenario, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading scenarios: %w", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".yaml", ".yml":
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
	}
	sort.Strings(files)

	seen := make(map[string]string)
	var all []Scenario
	for _, f := range files {
		scs, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		for _, sc := range scs {
			if prev, dup := seen[sc.Name]; dup {
				return nil, fmt.Errorf("%w: duplicate name %q in %s and %s", ErrInvalidScenario, sc.Name, prev, f)
			}
			seen[sc.Name] = f
		}
		all = append(all, scs...)
	}
	return all, nil
}
