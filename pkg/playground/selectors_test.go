package playground

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSelectors_Valid(t *testing.T) {
	assert.NoError(t, DefaultSelectors().Validate())
}

func TestSelectors_Merge(t *testing.T) {
	s := Selectors{Preview: "#out", EditorGlobal: "monaco"}.Merge(DefaultSelectors())

	assert.Equal(t, "#out", s.Preview)
	assert.Equal(t, "monaco", s.EditorGlobal)
	assert.Equal(t, DefaultSelectors().RunButton, s.RunButton)
}

func TestSelectors_Validate(t *testing.T) {
	s := DefaultSelectors()
	s.RunButton = " "
	assert.ErrorContains(t, s.Validate(), "run_button")

	s = DefaultSelectors()
	s.ExampleButton = "[data-a=%s][data-b=%s]"
	assert.ErrorContains(t, s.Validate(), "exactly one")
}

func TestSelectors_Example(t *testing.T) {
	s := DefaultSelectors()
	assert.Equal(t, `[data-playground-example="list"]`, s.Example("list"))
	assert.Equal(t, `[data-playground-example="a\"b"]`, s.Example(`a"b`))
}
