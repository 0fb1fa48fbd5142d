package schemas

import "errors"

// -- Common Driver Errors --

// Drivers wrap these sentinels so callers can match with errors.Is regardless
// of the binding in use.
var (
	// ErrInvalidElementState: the action is structurally impossible on the
	// target, e.g. setting the value of a button.
	ErrInvalidElementState = errors.New("invalid element state")
	// ErrStaleElement: the handle's node was detached from the document.
	ErrStaleElement = errors.New("stale element reference")
	// ErrClickIntercepted: another element would receive the click.
	ErrClickIntercepted = errors.New("element is not clickable at point")
)

// KeyModifier represents keyboard modifiers (Ctrl, Alt, Shift, Meta).
// These values correspond directly to the CDP input.DispatchKeyEvent modifiers bitfield.
type KeyModifier int

const (
	ModNone  KeyModifier = 0
	ModAlt   KeyModifier = 1
	ModCtrl  KeyModifier = 2
	ModMeta  KeyModifier = 4
	ModShift KeyModifier = 8
)

// Modifier returns the bit for a modifier key, or ModNone.
func (k Key) Modifier() KeyModifier {
	switch k {
	case KeyAlt:
		return ModAlt
	case KeyControl:
		return ModCtrl
	case KeyMeta:
		return ModMeta
	case KeyShift:
		return ModShift
	}
	return ModNone
}

// SplitChord separates the modifiers held during a key sequence from the keys typed.
func SplitChord(keys []Key) (KeyModifier, []Key) {
	mods := ModNone
	var typed []Key
	for _, k := range keys {
		if k.IsModifier() {
			mods |= k.Modifier()
			continue
		}
		typed = append(typed, k)
	}
	return mods, typed
}
