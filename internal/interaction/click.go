// internal/interaction/click.go
package interaction

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

// Click waits for desc to become clickable and clicks it. A click that lands
// on another element is reported as *ObstructedActionError; every other
// failure is returned unchanged.
func (i *Interactor) Click(ctx context.Context, desc schemas.Descriptor, opts *Options) error {
	i.logger.Debug("Clicking element.", zap.Stringer("descriptor", desc))
	el, err := i.resolve(ctx, desc, opts, schemas.Clickable)
	if err != nil {
		return err
	}
	return clickElement(ctx, desc, el)
}

func clickElement(ctx context.Context, desc schemas.Descriptor, el schemas.Element) error {
	if err := el.Click(ctx); err != nil {
		if errors.Is(err, schemas.ErrClickIntercepted) {
			return &ObstructedActionError{Descriptor: desc, Cause: err}
		}
		return err
	}
	return nil
}

// ClickAndRetry re-runs resolution and click under the retry executor.
func (i *Interactor) ClickAndRetry(ctx context.Context, desc schemas.Descriptor, opts *Options) error {
	return i.executor.Run(ctx, i.override(opts), func(ctx context.Context) error {
		return i.Click(ctx, desc, opts)
	})
}

// ClickListItem presses a list row once it is visible. Rows often hide
// their own clickable children, so readiness stops at Visible rather than
// Clickable and the click goes to the row itself.
func (i *Interactor) ClickListItem(ctx context.Context, desc schemas.Descriptor, opts *Options) error {
	i.logger.Debug("Clicking list item.", zap.Stringer("descriptor", desc))
	el, err := i.resolve(ctx, desc, opts, schemas.Visible)
	if err != nil {
		return err
	}
	return clickElement(ctx, desc, el)
}

// ClickTab clicks a tab and checks the application marked it selected,
// retrying the click while the marker is missing.
func (i *Interactor) ClickTab(ctx context.Context, desc schemas.Descriptor, opts *Options) error {
	return i.executor.Run(ctx, i.override(opts), func(ctx context.Context) error {
		if err := i.Click(ctx, desc, opts); err != nil {
			return err
		}
		el, err := i.resolve(ctx, desc, opts, schemas.Visible)
		if err != nil {
			return err
		}
		selected, class, err := i.tabSelected(ctx, el)
		if err != nil {
			return err
		}
		if !selected {
			return &VerificationError{What: "tab class", Expected: i.cfg.TabSelectedClass, Actual: class}
		}
		i.logger.Debug("Tab selected.", zap.Stringer("descriptor", desc))
		return nil
	})
}

func (i *Interactor) tabSelected(ctx context.Context, el schemas.Element) (bool, string, error) {
	class, _, err := el.GetAttribute(ctx, "class")
	if err != nil {
		return false, "", err
	}
	for _, c := range strings.Fields(class) {
		if c == i.cfg.TabSelectedClass {
			return true, class, nil
		}
	}
	aria, _, err := el.GetAttribute(ctx, "aria-selected")
	if err != nil {
		return false, class, err
	}
	return aria == "true", class, nil
}

// -- Keyboard --

func (i *Interactor) press(ctx context.Context, keys ...schemas.Key) error {
	i.logger.Debug("Sending keys.", zap.Any("keys", keys))
	return i.driver.SendKeys(ctx, keys...)
}

// PressEnter sends Enter to the focused element.
func (i *Interactor) PressEnter(ctx context.Context) error { return i.press(ctx, schemas.KeyEnter) }

// PressF4 sends F4, which opens value help on most input controls.
func (i *Interactor) PressF4(ctx context.Context) error { return i.press(ctx, schemas.KeyF4) }

// PressTab moves focus to the next element.
func (i *Interactor) PressTab(ctx context.Context) error { return i.press(ctx, schemas.KeyTab) }

// PressEscape sends Escape, closing an open popover or dialog.
func (i *Interactor) PressEscape(ctx context.Context) error {
	return i.press(ctx, schemas.KeyEscape)
}

// PressBackspace deletes one character or token before the caret.
func (i *Interactor) PressBackspace(ctx context.Context) error {
	return i.press(ctx, schemas.KeyBackspace)
}

// PressArrowLeft moves the caret one step left.
func (i *Interactor) PressArrowLeft(ctx context.Context) error {
	return i.press(ctx, schemas.KeyArrowLeft)
}

// PressArrowRight moves the caret one step right.
func (i *Interactor) PressArrowRight(ctx context.Context) error {
	return i.press(ctx, schemas.KeyArrowRight)
}

// SelectAll clicks desc when given, then sends the platform select-all chord
// to whatever holds focus.
func (i *Interactor) SelectAll(ctx context.Context, desc *schemas.Descriptor, opts *Options) error {
	if desc != nil {
		if err := i.Click(ctx, *desc, opts); err != nil {
			return err
		}
	}
	return i.press(ctx, i.selectAllModifier(), "a")
}

func (i *Interactor) selectAllModifier() schemas.Key {
	if i.cfg.SelectAllUsesMeta() {
		return schemas.KeyMeta
	}
	return schemas.KeyControl
}
