// internal/interaction/fill.go
package interaction

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/browser/locator"
)

// -- Fill --

// Fill sets the value of the control's underlying input node directly. An
// absent value is a no-op; an explicit empty string is written.
func (i *Interactor) Fill(ctx context.Context, desc schemas.Descriptor, value schemas.Value, opts *Options) error {
	v, ok := value.Get()
	if !ok {
		i.logger.Debug("Fill skipped, no value.", zap.Stringer("descriptor", desc))
		return nil
	}
	i.logger.Debug("Filling control.", zap.Stringer("descriptor", desc))
	el, err := i.resolve(ctx, desc, opts, schemas.Visible)
	if err != nil {
		return err
	}
	input, err := i.underlyingInput(ctx, desc, el)
	if err != nil {
		return err
	}
	return input.SetValue(ctx, v)
}

// FillAndRetry is Fill under the retry executor.
func (i *Interactor) FillAndRetry(ctx context.Context, desc schemas.Descriptor, value schemas.Value, opts *Options) error {
	return i.executor.Run(ctx, i.override(opts), func(ctx context.Context) error {
		return i.Fill(ctx, desc, value, opts)
	})
}

// underlyingInput finds the node that holds the control's value: the control
// itself when it is an input or textarea, else its first descendant of the
// kind's binding, else the control itself.
func (i *Interactor) underlyingInput(ctx context.Context, desc schemas.Descriptor, el schemas.Element) (schemas.Element, error) {
	tag, err := el.TagName(ctx)
	if err != nil {
		return nil, err
	}
	if tag == "input" || tag == "textarea" {
		return el, nil
	}

	var binding string
	switch desc.Kind {
	case schemas.MultilineField:
		binding = "textarea"
	case schemas.KindUnspecified, schemas.PlainField, schemas.TokenizerField,
		schemas.SelectPopupSingle, schemas.SelectPopupMulti:
		binding = "input"
	default:
		return nil, fmt.Errorf("unsupported control kind %s", desc.Kind)
	}

	nodes, err := locator.Descendants(ctx, i.driver, desc, el, binding)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return el, nil
	}
	return nodes[0], nil
}

// FillActive sets the value of the focused element.
func (i *Interactor) FillActive(ctx context.Context, value schemas.Value, opts *Options) error {
	v, ok := value.Get()
	if !ok {
		return &PreconditionError{Function: "fillActive", Missing: []string{"value"}}
	}
	active, err := i.driver.ActiveElement(ctx)
	if err != nil {
		return err
	}
	return active.SetValue(ctx, v)
}

// FillActiveAndRetry is FillActive under the retry executor.
func (i *Interactor) FillActiveAndRetry(ctx context.Context, value schemas.Value, opts *Options) error {
	if value.IsAbsent() {
		return &PreconditionError{Function: "fillActiveAndRetry", Missing: []string{"value"}}
	}
	return i.executor.Run(ctx, i.override(opts), func(ctx context.Context) error {
		return i.FillActive(ctx, value, opts)
	})
}

// -- Clear --

// Clear empties a control. With a descriptor the control is clicked first;
// with nil the focused element is cleared in place and its own id names the
// container. Raw text is blanked in the page, then controls that can hold
// tokens have them removed with select-all and backspace.
func (i *Interactor) Clear(ctx context.Context, desc *schemas.Descriptor, opts *Options) error {
	kind := schemas.KindUnspecified
	var target schemas.Element
	if desc != nil {
		i.logger.Debug("Clearing control.", zap.Stringer("descriptor", *desc))
		kind = desc.Kind
		el, err := i.resolve(ctx, *desc, opts, schemas.Clickable)
		if err != nil {
			return err
		}
		if err := clickElement(ctx, *desc, el); err != nil {
			return err
		}
		target = el
	} else {
		i.logger.Debug("Clearing focused element.")
		active, err := i.driver.ActiveElement(ctx)
		if err != nil {
			return err
		}
		target = active
	}

	id, ok, err := idOf(ctx, target)
	if err != nil {
		return err
	}
	var res schemas.BlankResult
	switch {
	case ok:
		if res, err = i.blank(ctx, id); err != nil {
			return err
		}
		if res.Editable == 0 {
			return fmt.Errorf("%w: no input or textarea to clear under [id='%s']", schemas.ErrInvalidElementState, id)
		}
	case desc == nil:
		return i.clearFocused(ctx)
	default:
		if res, err = i.blankWithin(ctx, *desc, target); err != nil {
			return err
		}
		if res.Editable == 0 {
			return fmt.Errorf("%w: no input or textarea to clear in %s", schemas.ErrInvalidElementState, desc)
		}
	}

	switch kind {
	case schemas.PlainField, schemas.MultilineField, schemas.SelectPopupSingle:
		return nil
	case schemas.TokenizerField, schemas.SelectPopupMulti, schemas.KindUnspecified:
		if res.Tokens == 0 {
			return nil
		}
		i.logger.Debug("Removing tokens.", zap.String("id", id), zap.Int("tokens", res.Tokens))
		if err := i.SelectAll(ctx, desc, opts); err != nil {
			return err
		}
		return i.PressBackspace(ctx)
	default:
		return fmt.Errorf("unsupported control kind %s", kind)
	}
}

// clearFocused is the fallback for a focused element without an id: the
// driver clears it in place.
func (i *Interactor) clearFocused(ctx context.Context) error {
	active, err := i.driver.ActiveElement(ctx)
	if err != nil {
		return err
	}
	return active.ClearValue(ctx)
}

// blankWithin does what the in-page blanking script does, for a resolved
// control that has no id to look it up by: it empties the control's first
// input and first textarea (or the control itself) and counts its tokens.
func (i *Interactor) blankWithin(ctx context.Context, desc schemas.Descriptor, el schemas.Element) (schemas.BlankResult, error) {
	var res schemas.BlankResult
	tag, err := el.TagName(ctx)
	if err != nil {
		return res, err
	}
	targets := []schemas.Element{el}
	if tag != "input" && tag != "textarea" {
		targets = targets[:0]
		for _, binding := range []string{"input", "textarea"} {
			nodes, err := locator.Descendants(ctx, i.driver, desc, el, binding)
			if err != nil {
				return res, err
			}
			if len(nodes) > 0 {
				targets = append(targets, nodes[0])
			}
		}
	}
	for _, t := range targets {
		if err := t.ClearValue(ctx); err != nil {
			return res, err
		}
	}
	res.Editable = len(targets)

	tokens, err := locator.Descendants(ctx, i.driver, desc, el, i.cfg.TokenSelector)
	if err != nil {
		return res, err
	}
	res.Tokens = len(tokens)
	return res, nil
}

func (i *Interactor) blank(ctx context.Context, id string) (schemas.BlankResult, error) {
	var res schemas.BlankResult
	raw, err := i.driver.RunInPageScript(ctx, schemas.ScriptBlankInputsAndCountTokens, id, i.cfg.TokenSelector)
	if err != nil {
		return res, err
	}
	if err := jsoniter.Unmarshal(raw, &res); err != nil {
		return res, fmt.Errorf("failed to decode %s result: %w", schemas.ScriptBlankInputsAndCountTokens, err)
	}
	return res, nil
}

// ClearAndRetry is Clear under the retry executor.
func (i *Interactor) ClearAndRetry(ctx context.Context, desc *schemas.Descriptor, opts *Options) error {
	return i.executor.Run(ctx, i.override(opts), func(ctx context.Context) error {
		return i.Clear(ctx, desc, opts)
	})
}

// -- Clear and fill --

func requireValue(function string, desc *schemas.Descriptor, value schemas.Value) error {
	if !value.IsAbsent() {
		return nil
	}
	var missing []string
	if desc == nil {
		missing = append(missing, "descriptor")
	}
	return &PreconditionError{Function: function, Missing: append(missing, "value")}
}

// ClearAndFill clears the control, then fills whatever holds focus afterwards.
// desc may be nil to work on the focused element; value is mandatory.
func (i *Interactor) ClearAndFill(ctx context.Context, desc *schemas.Descriptor, value schemas.Value, opts *Options) error {
	if err := requireValue("clearAndFill", desc, value); err != nil {
		return err
	}
	if err := i.Clear(ctx, desc, opts); err != nil {
		return err
	}
	return i.FillActive(ctx, value, opts)
}

// ClearFillAndRetry runs ClearAndFill under the retry executor. With verify
// each attempt reads the focused element back and fails on a mismatch.
func (i *Interactor) ClearFillAndRetry(ctx context.Context, desc *schemas.Descriptor, value schemas.Value, verify bool, opts *Options) error {
	if err := requireValue("clearFillAndRetry", desc, value); err != nil {
		return err
	}
	want, _ := value.Get()
	return i.executor.Run(ctx, i.override(opts), func(ctx context.Context) error {
		if err := i.ClearAndFill(ctx, desc, value, opts); err != nil {
			return err
		}
		if !verify {
			return nil
		}
		return i.verifyActive(ctx, want)
	})
}

func (i *Interactor) verifyActive(ctx context.Context, want string) error {
	active, err := i.driver.ActiveElement(ctx)
	if err != nil {
		return err
	}
	got, err := active.GetValue(ctx)
	if err != nil {
		return err
	}
	if got != want {
		return &VerificationError{Expected: want, Actual: got}
	}
	return nil
}

// ClearAndFillActive clears and refills the focused element through the driver.
func (i *Interactor) ClearAndFillActive(ctx context.Context, value schemas.Value, opts *Options) error {
	v, ok := value.Get()
	if !ok {
		return &PreconditionError{Function: "clearAndFillActive", Missing: []string{"value"}}
	}
	active, err := i.driver.ActiveElement(ctx)
	if err != nil {
		return err
	}
	if err := active.ClearValue(ctx); err != nil {
		return err
	}
	return active.SetValue(ctx, v)
}

// ClearFillActiveAndRetry is ClearAndFillActive under the retry executor.
func (i *Interactor) ClearFillActiveAndRetry(ctx context.Context, value schemas.Value, opts *Options) error {
	if value.IsAbsent() {
		return &PreconditionError{Function: "clearFillActiveAndRetry", Missing: []string{"value"}}
	}
	return i.executor.Run(ctx, i.override(opts), func(ctx context.Context) error {
		return i.ClearAndFillActive(ctx, value, opts)
	})
}

// ClearAndFillSmartField fills a smart field, whose editable input carries an
// id derived from the control's: it clicks that input, selects its content
// and writes the value over it.
func (i *Interactor) ClearAndFillSmartField(ctx context.Context, desc schemas.Descriptor, value schemas.Value, opts *Options) error {
	v, ok := value.Get()
	if !ok {
		return &PreconditionError{Function: "clearAndFillSmartField", Missing: []string{"value"}}
	}
	id, err := i.controlID(ctx, desc, opts, schemas.Visible)
	if err != nil {
		return err
	}
	inner := schemas.Descriptor{Selector: fmt.Sprintf("input[id*='%s']", id), Description: "smart field input of " + id}
	input, err := i.resolve(ctx, inner, withTimeout(nil, i.timeout(opts)), schemas.Clickable)
	if err != nil {
		return err
	}
	if err := clickElement(ctx, inner, input); err != nil {
		return err
	}
	if err := i.SelectAll(ctx, &desc, opts); err != nil {
		return err
	}
	return input.SetValue(ctx, v)
}

// ClearAndFillSmartFieldAndRetry is ClearAndFillSmartField under the retry executor.
func (i *Interactor) ClearAndFillSmartFieldAndRetry(ctx context.Context, desc schemas.Descriptor, value schemas.Value, opts *Options) error {
	if value.IsAbsent() {
		return &PreconditionError{Function: "clearAndFillSmartFieldAndRetry", Missing: []string{"value"}}
	}
	return i.executor.Run(ctx, i.override(opts), func(ctx context.Context) error {
		return i.ClearAndFillSmartField(ctx, desc, value, opts)
	})
}

// ClearSmartFieldInput blanks a smart field. The wrapper's id reaches the
// inner input, so this is Clear on desc.
func (i *Interactor) ClearSmartFieldInput(ctx context.Context, desc schemas.Descriptor, opts *Options) error {
	return i.Clear(ctx, &desc, opts)
}
