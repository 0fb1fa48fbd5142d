// internal/interaction/select.go
package interaction

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

// -- Select popups --

// ClickSelectArrow opens the popup of a select control by clicking its arrow
// affordance. The arrow gets a short resolution timeout of its own.
func (i *Interactor) ClickSelectArrow(ctx context.Context, desc schemas.Descriptor, opts *Options) error {
	id, err := i.controlID(ctx, desc, opts, schemas.Exists)
	if err != nil {
		return err
	}
	arrow := affordance(id, i.cfg.Suffixes.Arrow)
	i.logger.Debug("Opening select popup.", zap.Stringer("descriptor", desc), zap.Stringer("arrow", arrow))
	return i.Click(ctx, arrow, withTimeout(nil, SelectArrowTimeout))
}

// ClickSelectArrowAndRetry is ClickSelectArrow under the retry executor.
func (i *Interactor) ClickSelectArrowAndRetry(ctx context.Context, desc schemas.Descriptor, opts *Options) error {
	return i.executor.Run(ctx, i.override(opts), func(ctx context.Context) error {
		return i.ClickSelectArrow(ctx, desc, opts)
	})
}

// SelectComboBox opens a single-select combo box and picks the list item whose
// text equals value. With no value only the popup is opened.
func (i *Interactor) SelectComboBox(ctx context.Context, desc schemas.Descriptor, value schemas.Value, opts *Options) error {
	return i.selectSingle(ctx, desc, value, i.cfg.Select.ListItemSelector, opts)
}

// SelectBox is SelectComboBox for select boxes, whose items use a different selector.
func (i *Interactor) SelectBox(ctx context.Context, desc schemas.Descriptor, value schemas.Value, opts *Options) error {
	return i.selectSingle(ctx, desc, value, i.cfg.Select.BoxItemSelector, opts)
}

func (i *Interactor) selectSingle(ctx context.Context, desc schemas.Descriptor, value schemas.Value, itemSelector string, opts *Options) error {
	if err := i.ClickSelectArrow(ctx, desc, opts); err != nil {
		return err
	}
	v, ok := value.Get()
	if !ok {
		return nil
	}
	return i.pickOption(ctx, schemas.Descriptor{Selector: itemSelector, Text: v}, opts)
}

// SelectMultiComboBox opens a multi-select combo box, ticks the checkbox of
// each value's list item in the order given, then confirms with Enter. A value
// listed twice is clicked twice.
func (i *Interactor) SelectMultiComboBox(ctx context.Context, desc schemas.Descriptor, opts *Options, values ...string) error {
	if err := i.ClickSelectArrow(ctx, desc, opts); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	for _, v := range values {
		item := schemas.Descriptor{Selector: i.cfg.Select.ListItemSelector, Text: v}
		option := schemas.Descriptor{Selector: i.cfg.Select.CheckBoxSelector, Parent: &item}
		if err := i.pickOption(ctx, option, opts); err != nil {
			return err
		}
	}
	return i.PressEnter(ctx)
}

// pickOption waits for a popup option to exist, scrolls it into view and clicks it.
func (i *Interactor) pickOption(ctx context.Context, option schemas.Descriptor, opts *Options) error {
	i.logger.Debug("Selecting option.", zap.Stringer("option", option))
	el, err := i.resolve(ctx, option, withTimeout(nil, i.timeout(opts)), schemas.Exists)
	if err != nil {
		return err
	}
	if err := el.ScrollIntoView(ctx); err != nil {
		return err
	}
	return clickElement(ctx, option, el)
}

// -- Value help and search --

// OpenF4Help opens a field's value help, with the F4 key or by clicking its
// value-help icon.
func (i *Interactor) OpenF4Help(ctx context.Context, desc schemas.Descriptor, useF4Key bool, opts *Options) error {
	if err := i.Click(ctx, desc, opts); err != nil {
		return err
	}
	if useF4Key {
		return i.PressF4(ctx)
	}
	id, err := i.controlID(ctx, desc, opts, schemas.Exists)
	if err != nil {
		return err
	}
	return i.Click(ctx, affordance(id, i.cfg.Suffixes.ValueHelp), withTimeout(nil, i.timeout(opts)))
}

// SearchFor types value into a search field, verifying the write, and
// triggers the search with Enter or the field's search icon.
func (i *Interactor) SearchFor(ctx context.Context, desc schemas.Descriptor, value schemas.Value, useEnter bool, opts *Options) error {
	if err := requireValue("searchFor", &desc, value); err != nil {
		return err
	}
	if err := i.ClearFillAndRetry(ctx, &desc, value, true, opts); err != nil {
		return err
	}
	if useEnter {
		return i.PressEnter(ctx)
	}
	id, err := i.controlID(ctx, desc, opts, schemas.Exists)
	if err != nil {
		return err
	}
	return i.Click(ctx, affordance(id, i.cfg.Suffixes.Search), withTimeout(nil, i.timeout(opts)))
}

// ResetSearch clicks the field's reset icon. The icon only exists while the
// field holds text, so resetting an empty search fails with the resolver's
// not-found error.
func (i *Interactor) ResetSearch(ctx context.Context, desc schemas.Descriptor, opts *Options) error {
	id, err := i.controlID(ctx, desc, opts, schemas.Exists)
	if err != nil {
		return err
	}
	return i.Click(ctx, affordance(id, i.cfg.Suffixes.Reset), withTimeout(nil, i.timeout(opts)))
}
