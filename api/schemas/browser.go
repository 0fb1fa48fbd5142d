package schemas

import "strings"

// -- Keyboard --

// Key is a single key. Printable characters are their own Key ("a", "1");
// the named keys below cover everything else the interaction layer sends.
type Key string

const (
	KeyEnter      Key = "Enter"
	KeyTab        Key = "Tab"
	KeyBackspace  Key = "Backspace"
	KeyEscape     Key = "Escape"
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowRight Key = "ArrowRight"
	KeyF4         Key = "F4"

	KeyControl Key = "Control"
	KeyMeta    Key = "Meta"
	KeyShift   Key = "Shift"
	KeyAlt     Key = "Alt"
)

// IsModifier reports whether k is held down for the rest of a chord rather than typed.
func (k Key) IsModifier() bool {
	switch k {
	case KeyControl, KeyMeta, KeyShift, KeyAlt:
		return true
	}
	return false
}

// ParseKey accepts the named keys case-insensitively and any single character.
func ParseKey(s string) (Key, bool) {
	for _, k := range []Key{KeyEnter, KeyTab, KeyBackspace, KeyEscape, KeyArrowLeft, KeyArrowRight, KeyF4,
		KeyControl, KeyMeta, KeyShift, KeyAlt} {
		if strings.EqualFold(string(k), s) {
			return k, true
		}
	}
	if len([]rune(s)) == 1 {
		return Key(s), true
	}
	return "", false
}

// -- In-page scripts --

// Script names a program a driver can run inside the page. The set is closed
// so the interaction layer never deals in page-scripting source.
type Script string

const (
	// ScriptBlankInputsAndCountTokens takes (containerID, tokenSelector). It blanks
	// the first input and the first textarea under the container (or the
	// container itself when it is one) and reports how many token chips the
	// container holds. The result decodes into BlankResult.
	ScriptBlankInputsAndCountTokens Script = "blankInputsAndCountTokens"
)

// BlankResult is the result of ScriptBlankInputsAndCountTokens.
type BlankResult struct {
	Editable int `json:"editable"`
	Tokens   int `json:"tokens"`
}
