package schemas

import (
	"context"
	"encoding/json"
)

// -- UI Driver Interfaces --

// Driver is the capability surface the interaction layer needs from a browser
// (or any DOM-like UI tree). Implementations live under internal/browser.
// A Driver is bound to one document; callers that need parallelism open
// independent drivers.
//
//go:generate mockery --name Driver --output ../../internal/mocks --outpkg mocks
type Driver interface {
	// Query returns every element currently matching the descriptor, in
	// document order. It does not wait.
	Query(ctx context.Context, desc Descriptor) ([]Element, error)
	// ActiveElement returns the element that holds input focus, or the body.
	ActiveElement(ctx context.Context) (Element, error)
	// SendKeys types the keys into the focused element. Modifier keys stay
	// pressed until the end of the call, so (KeyControl, "a") is a chord.
	SendKeys(ctx context.Context, keys ...Key) error
	// RunInPageScript runs a named in-page program and returns its JSON result.
	RunInPageScript(ctx context.Context, script Script, args ...any) (json.RawMessage, error)
}

// Element is a live handle on one node. It may go stale when the UI re-renders,
// in which case operations fail with ErrStaleElement.
//
//go:generate mockery --name Element --output ../../internal/mocks --outpkg mocks
type Element interface {
	Exists(ctx context.Context) (bool, error)
	IsVisible(ctx context.Context) (bool, error)
	IsVisibleInViewport(ctx context.Context) (bool, error)
	// IsClickable is visible, enabled, and not covered by another element at its centre.
	IsClickable(ctx context.Context) (bool, error)
	IsSelected(ctx context.Context) (bool, error)

	Click(ctx context.Context) error
	// SetValue assigns the value directly; it does not type key by key.
	SetValue(ctx context.Context, value string) error
	ClearValue(ctx context.Context) error
	ScrollIntoView(ctx context.Context) error

	GetValue(ctx context.Context) (string, error)
	GetText(ctx context.Context) (string, error)
	GetAttribute(ctx context.Context, name string) (string, bool, error)
	TagName(ctx context.Context) (string, error)
	// Contains reports whether other is a proper descendant of this node.
	// Both handles must come from the same driver.
	Contains(ctx context.Context, other Element) (bool, error)
}
