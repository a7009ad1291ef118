// Package expect checks rendered preview markup.
//
// Every check takes the HTML under test and returns nil on success or an
// error wrapping ErrExpectation that quotes what was expected and found.
package expect

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// ErrExpectation is wrapped by every failed check.
var ErrExpectation = errors.New("expectation failed")

// Contains checks that html contains substr verbatim.
func Contains(html, substr string) error {
	if !strings.Contains(html, substr) {
		return failf("want HTML containing %q, got %s", substr, excerpt(html))
	}
	return nil
}

// NotContains checks that html does not contain substr.
func NotContains(html, substr string) error {
	if strings.Contains(html, substr) {
		return failf("want HTML without %q, got %s", substr, excerpt(html))
	}
	return nil
}

// NotEmpty checks that html has visible text or at least one element.
func NotEmpty(html string) error {
	doc, err := parse(html)
	if err != nil {
		return err
	}
	body := doc.Find("body")
	if strings.TrimSpace(body.Text()) == "" && body.Children().Length() == 0 {
		return failf("want non-empty HTML, got %s", excerpt(html))
	}
	return nil
}

// HasElement checks that selector matches at least one element.
func HasElement(html, selector string) error {
	return Count(html, selector, -1)
}

// NoElement checks that selector matches nothing.
func NoElement(html, selector string) error {
	return Count(html, selector, 0)
}

// Count checks that selector matches exactly want elements. A negative want
// means "at least one".
func Count(html, selector string, want int) error {
	doc, err := parse(html)
	if err != nil {
		return err
	}
	got := doc.Find(selector).Length()
	switch {
	case want < 0 && got == 0:
		return failf("want element %q, found none in %s", selector, excerpt(html))
	case want >= 0 && got != want:
		return failf("want %d element(s) %q, found %d", want, selector, got)
	}
	return nil
}

// TextEquals checks the trimmed text of the first match.
func TextEquals(html, selector, want string) error {
	got, err := firstText(html, selector)
	if err != nil {
		return err
	}
	if got != want {
		return failf("want text of %q to be %q, got %q", selector, want, got)
	}
	return nil
}

// TextContains checks that the text of the first match contains substr.
func TextContains(html, selector, substr string) error {
	got, err := firstText(html, selector)
	if err != nil {
		return err
	}
	if !strings.Contains(got, substr) {
		return failf("want text of %q containing %q, got %q", selector, substr, got)
	}
	return nil
}

// AttrEquals checks an attribute of the first match.
func AttrEquals(html, selector, attr, want string) error {
	doc, err := parse(html)
	if err != nil {
		return err
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return failf("want element %q, found none in %s", selector, excerpt(html))
	}
	got, ok := sel.Attr(attr)
	if !ok {
		return failf("want %q on %q to be %q, attribute missing", attr, selector, want)
	}
	if got != want {
		return failf("want %q on %q to be %q, got %q", attr, selector, want, got)
	}
	return nil
}

func firstText(html, selector string) (string, error) {
	doc, err := parse(html)
	if err != nil {
		return "", err
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", failf("want element %q, found none in %s", selector, excerpt(html))
	}
	return strings.TrimSpace(sel.Text()), nil
}

func parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

func failf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrExpectation, fmt.Sprintf(format, args...))
}

// excerpt quotes html, shortened for error messages.
func excerpt(html string) string {
	const limit = 200
	html = strings.TrimSpace(html)
	if len(html) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(html[cut]) {
			cut--
		}
		return fmt.Sprintf("%q…", html[:cut])
	}
	return fmt.Sprintf("%q", html)
}
