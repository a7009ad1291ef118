package playground

import (
	"encoding/json"
	"strings"
)

// Scripts evaluated against the editor global. Values are embedded as JSON
// literals, which are valid JavaScript and cannot break out of the call.

const setCodeSuffix = "); return ed.getValue(); }"

// EditorReadyScript reports whether the editor global exposes
// getValue and setValue.
func EditorReadyScript(global string) string {
	return "() => { const ed = window[" + jsString(global) + "]; " +
		"return !!ed && typeof ed.getValue === 'function' && typeof ed.setValue === 'function'; }"
}

// EditorGetScript returns the editor's text, or null without an editor.
func EditorGetScript(global string) string {
	return "() => { const ed = window[" + jsString(global) + "]; return ed ? ed.getValue() : null; }"
}

// EditorSetScript replaces the editor's text with code and returns the text
// read back from the editor, or null without an editor.
func EditorSetScript(global, code string) string {
	return setCodePrefix(global) + jsString(code) + setCodeSuffix
}

// DecodeEditorSetScript recovers the code embedded by EditorSetScript.
func DecodeEditorSetScript(global, script string) (string, bool) {
	body, ok := strings.CutPrefix(script, setCodePrefix(global))
	if !ok {
		return "", false
	}
	body, ok = strings.CutSuffix(body, setCodeSuffix)
	if !ok {
		return "", false
	}
	var code string
	if err := json.Unmarshal([]byte(body), &code); err != nil {
		return "", false
	}
	return code, true
}

func setCodePrefix(global string) string {
	return "() => { const ed = window[" + jsString(global) + "]; if (!ed) { return null; } ed.setValue("
}

func jsString(v string) string {
	b, _ := json.Marshal(v) // strings always marshal
	return string(b)
}

// ResetOutputScript empties the preview container and the error panel so the
// next render cannot be confused with the previous one.
func ResetOutputScript(preview, errorPanel string) string {
	return "() => { for (const sel of [" + jsString(preview) + ", " + jsString(errorPanel) + "]) { " +
		"const el = document.querySelector(sel); if (el) { el.innerHTML = ''; } } return true; }"
}
