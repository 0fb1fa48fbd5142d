// internal/browser/playwright/element.go
package playwright

import (
	"context"
	"errors"
	"fmt"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/browser/scripts"
)

// Element is a handle on a node stamped with a ref by Query.
type Element struct {
	d   *Driver
	ref string
}

var _ schemas.Element = (*Element)(nil)

func (e *Element) op(ctx context.Context, op string, arg any) (scripts.Result, error) {
	raw, err := e.d.evaluate(ctx, scripts.ElementOp, scripts.RefAttribute, e.ref, op, arg)
	if err != nil {
		return scripts.Result{}, fmt.Errorf("%s on %s: %w", op, e.ref, err)
	}
	return scripts.Decode(raw, e.ref)
}

func (e *Element) Exists(ctx context.Context) (bool, error) {
	res, err := e.op(ctx, scripts.OpExists, nil)
	if errors.Is(err, schemas.ErrStaleElement) {
		return false, nil
	}
	return res.Bool, err
}

func (e *Element) IsVisible(ctx context.Context) (bool, error) {
	res, err := e.op(ctx, scripts.OpVisible, nil)
	return res.Bool, err
}

func (e *Element) IsVisibleInViewport(ctx context.Context) (bool, error) {
	res, err := e.op(ctx, scripts.OpInViewport, nil)
	return res.Bool, err
}

func (e *Element) IsClickable(ctx context.Context) (bool, error) {
	res, err := e.op(ctx, scripts.OpClickable, nil)
	return res.Bool, err
}

func (e *Element) IsSelected(ctx context.Context) (bool, error) {
	res, err := e.op(ctx, scripts.OpSelected, nil)
	return res.Bool, err
}

// Click clicks the centre of the node with the page mouse.
func (e *Element) Click(ctx context.Context) error {
	res, err := e.op(ctx, scripts.OpClickPoint, nil)
	if err != nil {
		return err
	}
	_, err = await(ctx, func() (struct{}, error) {
		return struct{}{}, e.d.page.Mouse().Click(res.X, res.Y)
	})
	if err != nil {
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
	res, err := e.op(ctx, scripts.OpValue, nil)
	return res.Str, err
}

func (e *Element) GetText(ctx context.Context) (string, error) {
	res, err := e.op(ctx, scripts.OpText, nil)
	return res.Str, err
}

func (e *Element) GetAttribute(ctx context.Context, name string) (string, bool, error) {
	res, err := e.op(ctx, scripts.OpAttribute, name)
	return res.Str, res.Bool, err
}

func (e *Element) TagName(ctx context.Context) (string, error) {
	res, err := e.op(ctx, scripts.OpTag, nil)
	return res.Str, err
}

func (e *Element) Contains(ctx context.Context, other schemas.Element) (bool, error) {
	o, ok := other.(*Element)
	if !ok || o.d != e.d {
		return false, fmt.Errorf("cannot compare %T with an element of another page", other)
	}
	res, err := e.op(ctx, scripts.OpContains, o.ref)
	return res.Bool, err
}
