package schemas

import (
	"fmt"
	"strings"
)

// ControlKind tells the interaction layer which state machine applies to a control.
type ControlKind int

const (
	// KindUnspecified is treated as a plain field for fill, but clear still
	// looks for tokens inside the control.
	KindUnspecified ControlKind = iota
	PlainField
	MultilineField
	TokenizerField
	SelectPopupSingle
	SelectPopupMulti
)

var controlKindNames = map[ControlKind]string{
	KindUnspecified:   "unspecified",
	PlainField:        "plain",
	MultilineField:    "multiline",
	TokenizerField:    "tokenizer",
	SelectPopupSingle: "select-single",
	SelectPopupMulti:  "select-multi",
}

func (k ControlKind) String() string {
	if name, ok := controlKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ControlKind(%d)", int(k))
}

// ParseControlKind maps a textual kind (as used in config files and CLI flags) to a ControlKind.
func ParseControlKind(s string) (ControlKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return KindUnspecified, nil
	}
	for k, name := range controlKindNames {
		if name == s {
			return k, nil
		}
	}
	return KindUnspecified, fmt.Errorf("unknown control kind %q", s)
}

// Readiness is the condition a resolved element has to satisfy. Levels are
// ordered; each one implies the previous.
type Readiness int

const (
	Exists Readiness = iota
	Visible
	Clickable
)

func (r Readiness) String() string {
	switch r {
	case Exists:
		return "exists"
	case Visible:
		return "visible"
	case Clickable:
		return "clickable"
	default:
		return fmt.Sprintf("Readiness(%d)", int(r))
	}
}

// ParseReadiness is the inverse of Readiness.String.
func ParseReadiness(s string) (Readiness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exists", "":
		return Exists, nil
	case "visible":
		return Visible, nil
	case "clickable":
		return Clickable, nil
	default:
		return Exists, fmt.Errorf("unknown readiness level %q", s)
	}
}

// Descriptor specifies which element(s) to target. It is a plain value and is
// never modified by the library.
type Descriptor struct {
	// Selector is a CSS selector.
	Selector string `json:"selector" yaml:"selector"`
	// Text, when set, must equal the element's whitespace-normalized text content.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	// Parent scopes matching to descendants of the parent's matches.
	Parent *Descriptor `json:"parent,omitempty" yaml:"parent,omitempty"`
	// Kind selects the clear/fill branch used for this control.
	Kind ControlKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	// Description is an optional label used in diagnostics.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ByID returns a descriptor for the element with the given id attribute.
func ByID(id string) Descriptor {
	return Descriptor{Selector: fmt.Sprintf("[id='%s']", id)}
}

// Chain returns the descriptor and its ancestors, outermost scope first.
func (d Descriptor) Chain() []Descriptor {
	var chain []Descriptor
	for cur := &d; cur != nil; cur = cur.Parent {
		chain = append([]Descriptor{*cur}, chain...)
	}
	return chain
}

// String renders the descriptor for error messages and logs.
func (d Descriptor) String() string {
	var sb strings.Builder
	if d.Description != "" {
		sb.WriteString(d.Description)
		sb.WriteString(" ")
	}
	sb.WriteString(fmt.Sprintf("%q", d.Selector))
	if d.Text != "" {
		sb.WriteString(fmt.Sprintf(" with text %q", d.Text))
	}
	if d.Kind != KindUnspecified {
		sb.WriteString(fmt.Sprintf(" (%s)", d.Kind))
	}
	if d.Parent != nil {
		sb.WriteString(" inside ")
		sb.WriteString(d.Parent.String())
	}
	return sb.String()
}

// Value is an optional string. The zero value is Absent, which is distinct
// from an explicitly empty string.
type Value struct {
	text    string
	present bool
}

// Absent means "no value supplied".
var Absent = Value{}

// Text wraps s as a present value.
func Text(s string) Value {
	return Value{text: s, present: true}
}

// Get returns the string and whether it was supplied.
func (v Value) Get() (string, bool) {
	return v.text, v.present
}

// IsAbsent reports whether no value was supplied.
func (v Value) IsAbsent() bool { return !v.present }

func (v Value) String() string {
	if !v.present {
		return "<absent>"
	}
	return fmt.Sprintf("%q", v.text)
}
