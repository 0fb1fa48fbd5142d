// internal/browser/session/element.go
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/browser/scripts"
)

// Element is a handle on a node stamped with a ref by Query.
type Element struct {
	s   *Session
	ref string
}

var _ schemas.Element = (*Element)(nil)

// Ref returns the value of the node's ref attribute.
func (e *Element) Ref() string { return e.ref }

func (e *Element) op(ctx context.Context, op string, arg any) (scripts.Result, error) {
	var raw []byte
	if err := e.s.evaluate(ctx, &raw, scripts.ElementOp, scripts.RefAttribute, e.ref, op, arg); err != nil {
		return scripts.Result{}, fmt.Errorf("%s on %s: %w", op, e.ref, err)
	}
	return scripts.Decode(raw, e.ref)
}

func (e *Element) boolOp(ctx context.Context, op string) (bool, error) {
	res, err := e.op(ctx, op, nil)
	return res.Bool, err
}

func (e *Element) strOp(ctx context.Context, op string) (string, error) {
	res, err := e.op(ctx, op, nil)
	return res.Str, err
}

// Exists reports false for a node that left the page.
func (e *Element) Exists(ctx context.Context) (bool, error) {
	ok, err := e.boolOp(ctx, scripts.OpExists)
	if errors.Is(err, schemas.ErrStaleElement) {
		return false, nil
	}
	return ok, err
}

func (e *Element) IsVisible(ctx context.Context) (bool, error) {
	return e.boolOp(ctx, scripts.OpVisible)
}

func (e *Element) IsVisibleInViewport(ctx context.Context) (bool, error) {
	return e.boolOp(ctx, scripts.OpInViewport)
}

func (e *Element) IsClickable(ctx context.Context) (bool, error) {
	return e.boolOp(ctx, scripts.OpClickable)
}

func (e *Element) IsSelected(ctx context.Context) (bool, error) {
	return e.boolOp(ctx, scripts.OpSelected)
}

// Click scrolls the node to the centre of the viewport and dispatches a
// left click at its centre. An element covering that point fails the click
// with schemas.ErrClickIntercepted.
func (e *Element) Click(ctx context.Context) error {
	res, err := e.op(ctx, scripts.OpClickPoint, nil)
	if err != nil {
		return err
	}
	if err := e.s.RunActions(ctx, chromedp.MouseClickXY(res.X, res.Y)); err != nil {
		return fmt.Errorf("click on %s failed: %w", e.ref, err)
	}
	return nil
}

func (e *Element) SetValue(ctx context.Context, value string) error {
	_, err := e.op(ctx, scripts.OpSetValue, value)
	return err
}

func (e *Element) ClearValue(ctx context.Context) error {
	_, err := e.op(ctx, scripts.OpClearValue, nil)
	return err
}

func (e *Element) ScrollIntoView(ctx context.Context) error {
	_, err := e.op(ctx, scripts.OpScroll, nil)
	return err
}

func (e *Element) GetValue(ctx context.Context) (string, error) {
	return e.strOp(ctx, scripts.OpValue)
}

func (e *Element) GetText(ctx context.Context) (string, error) {
	return e.strOp(ctx, scripts.OpText)
}

func (e *Element) GetAttribute(ctx context.Context, name string) (string, bool, error) {
	res, err := e.op(ctx, scripts.OpAttribute, name)
	return res.Str, res.Bool, err
}

// Contains compares by ref; a stale other is not contained.
func (e *Element) Contains(ctx context.Context, other schemas.Element) (bool, error) {
	o, ok := other.(*Element)
	if !ok || o.s != e.s {
		return false, fmt.Errorf("cannot compare %T with an element of another session", other)
	}
	res, err := e.op(ctx, scripts.OpContains, o.ref)
	return res.Bool, err
}

func (e *Element) TagName(ctx context.Context) (string, error) {
	return e.strOp(ctx, scripts.OpTag)
}
