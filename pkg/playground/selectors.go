package playground

import (
	"errors"
	"fmt"
	"strings"
)

// Selectors describes the DOM contract of the playground page.
type Selectors struct {
	Root          string `toml:"root" yaml:"root"`
	RunButton     string `toml:"run_button" yaml:"run_button"`
	Preview       string `toml:"preview" yaml:"preview"`
	ErrorPanel    string `toml:"error_panel" yaml:"error_panel"`
	ExampleButton string `toml:"example_button" yaml:"example_button"` // must contain %s
	EditorGlobal  string `toml:"editor_global" yaml:"editor_global"`   // window property holding the editor
}

// DefaultSelectors returns the selectors used by the playground's Stimulus
// controller markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Root:          `[data-controller~="playground"]`,
		RunButton:     `[data-playground-target="run"]`,
		Preview:       `[data-playground-target="preview"]`,
		ErrorPanel:    `[data-playground-target="error"]`,
		ExampleButton: `[data-playground-example="%s"]`,
		EditorGlobal:  "playgroundEditor",
	}
}

// Merge returns s with every empty field taken from defaults.
func (s Selectors) Merge(defaults Selectors) Selectors {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Selectors{
		Root:          pick(s.Root, defaults.Root),
		RunButton:     pick(s.RunButton, defaults.RunButton),
		Preview:       pick(s.Preview, defaults.Preview),
		ErrorPanel:    pick(s.ErrorPanel, defaults.ErrorPanel),
		ExampleButton: pick(s.ExampleButton, defaults.ExampleButton),
		EditorGlobal:  pick(s.EditorGlobal, defaults.EditorGlobal),
	}
}

// Validate checks that every selector is set and the example selector has
// exactly one %s verb.
func (s Selectors) Validate() error {
	fields := []struct{ name, value string }{
		{"root", s.Root},
		{"run_button", s.RunButton},
		{"preview", s.Preview},
		{"error_panel", s.ErrorPanel},
		{"example_button", s.ExampleButton},
		{"editor_global", s.EditorGlobal},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("selector %s is empty", f.name)
		}
	}
	if strings.Count(s.ExampleButton, "%s") != 1 {
		return errors.New("selector example_button must contain exactly one %s")
	}
	return nil
}

// Example returns the selector for the named example button.
func (s Selectors) Example(name string) string {
	return fmt.Sprintf(s.ExampleButton, cssString(name))
}

// cssString escapes a value for use inside a double-quoted CSS attribute
// selector.
func cssString(v string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v)
}
