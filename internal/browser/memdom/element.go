// internal/browser/memdom/element.go
package memdom

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/browser/parser"
)

// Element is a handle on one node of a Document. It goes stale when the node
// is detached.
type Element struct {
	doc  *Document
	node *html.Node
}

var _ schemas.Element = (*Element)(nil)

// Node exposes the underlying node for tests and hooks.
func (e *Element) Node() *html.Node { return e.node }

// lock takes the document lock and checks the handle is still live.
func (e *Element) lock(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.doc.mu.Lock()
	if !e.doc.attached(e.node) {
		e.doc.mu.Unlock()
		return nil, fmt.Errorf("%w: %s is no longer attached to the document", schemas.ErrStaleElement, describe(e.node))
	}
	return e.doc.mu.Unlock, nil
}

func (e *Element) Exists(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.doc.attached(e.node), nil
}

func (e *Element) IsVisible(ctx context.Context) (bool, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()
	return isVisible(e.node), nil
}

func (e *Element) IsVisibleInViewport(ctx context.Context) (bool, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()
	return isVisible(e.node) && !isOffscreen(e.node), nil
}

func (e *Element) IsClickable(ctx context.Context) (bool, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()
	return isVisible(e.node) && !isDisabled(e.node) && !isCovered(e.node), nil
}

func (e *Element) IsSelected(ctx context.Context) (bool, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()
	if HasAttr(e.node, "checked") || HasAttr(e.node, "selected") {
		return true, nil
	}
	v, _ := parser.Attr(e.node, "aria-selected")
	return v == "true", nil
}

// Click dispatches a click at the element. A covering element or an armed
// interception makes it fail with ErrClickIntercepted; otherwise focus moves,
// checkable inputs toggle, and matching OnClick hooks run.
func (e *Element) Click(ctx context.Context) error {
	unlock, err := e.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	d := e.doc

	for _, ic := range d.intercepts {
		if ic.remaining > 0 && ic.group.Matches(e.node) {
			ic.remaining--
			return fmt.Errorf("%w: other element would receive the click: %s", schemas.ErrClickIntercepted, ic.by)
		}
	}
	if isCovered(e.node) {
		return fmt.Errorf("%w: other element would receive the click: overlay above %s", schemas.ErrClickIntercepted, describe(e.node))
	}
	if !isVisible(e.node) {
		return fmt.Errorf("%w: %s is not visible", schemas.ErrInvalidElementState, describe(e.node))
	}

	d.stats.Clicks++
	d.selectAll = false
	d.focused = focusTarget(e.node)
	if !isDisabled(e.node) {
		handleClickConsequence(e.node)
	}

	// Snapshot first: hooks may register further hooks or detach this node.
	hooks := append([]clickHook(nil), d.clickHooks...)
	for _, h := range hooks {
		for cur := e.node; cur != nil; cur = cur.Parent {
			if h.group.Matches(cur) {
				h.fn(e.node, d.root)
				break
			}
		}
	}
	d.logger.Debug("Clicked element.", zap.String("element", describe(e.node)))
	return nil
}

// focusTarget mirrors label-style focus delegation: clicking a control wrapper
// focuses its first text field.
func focusTarget(n *html.Node) *html.Node {
	if isFocusable(n) {
		return n
	}
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if c != n && (tagName(c) == "input" || tagName(c) == "textarea") && isFocusable(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

func handleClickConsequence(n *html.Node) {
	if tagName(n) != "input" {
		return
	}
	t, _ := parser.Attr(n, "type")
	switch strings.ToLower(t) {
	case "checkbox":
		if HasAttr(n, "checked") {
			RemoveAttr(n, "checked")
		} else {
			SetAttr(n, "checked", "checked")
		}
	case "radio":
		handleRadioSelection(n)
	}
}

// handleRadioSelection checks n and unchecks the rest of its name group within
// the enclosing form (or the whole document).
func handleRadioSelection(n *html.Node) {
	name, ok := parser.Attr(n, "name")
	if !ok || name == "" {
		SetAttr(n, "checked", "checked")
		return
	}
	scope := n
	for scope.Parent != nil {
		scope = scope.Parent
		if scope.Type == html.ElementNode && tagName(scope) == "form" {
			break
		}
	}
	for _, radio := range findAllTag(scope, "input") {
		t, _ := parser.Attr(radio, "type")
		rn, _ := parser.Attr(radio, "name")
		if strings.EqualFold(t, "radio") && rn == name {
			RemoveAttr(radio, "checked")
		}
	}
	SetAttr(n, "checked", "checked")
}

func (e *Element) checkEditable() error {
	if !isEditable(e.node) {
		return fmt.Errorf("%w: cannot set value of %s", schemas.ErrInvalidElementState, describe(e.node))
	}
	if isDisabled(e.node) || HasAttr(e.node, "readonly") {
		return fmt.Errorf("%w: %s is not editable", schemas.ErrInvalidElementState, describe(e.node))
	}
	return nil
}

func (e *Element) SetValue(ctx context.Context, value string) error {
	unlock, err := e.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if err := e.checkEditable(); err != nil {
		return err
	}
	e.doc.stats.Writes++
	if e.doc.failWrites > 0 {
		e.doc.failWrites--
		e.doc.logger.Debug("Dropping write.", zap.String("element", describe(e.node)))
		return nil
	}
	setValue(e.node, value)
	return nil
}

func (e *Element) ClearValue(ctx context.Context) error {
	unlock, err := e.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if err := e.checkEditable(); err != nil {
		return err
	}
	setValue(e.node, "")
	return nil
}

func (e *Element) ScrollIntoView(ctx context.Context) error {
	unlock, err := e.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	for cur := e.node; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode {
			RemoveAttr(cur, "data-offscreen")
		}
	}
	return nil
}

func (e *Element) GetValue(ctx context.Context) (string, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return "", err
	}
	defer unlock()
	return valueOf(e.node), nil
}

// GetText returns the whitespace-normalized text content.
func (e *Element) GetText(ctx context.Context) (string, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return "", err
	}
	defer unlock()
	return NormalizeText(textContent(e.node)), nil
}

func (e *Element) GetAttribute(ctx context.Context, name string) (string, bool, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return "", false, err
	}
	defer unlock()
	v, ok := parser.Attr(e.node, name)
	return v, ok, nil
}

func (e *Element) Contains(ctx context.Context, other schemas.Element) (bool, error) {
	o, ok := other.(*Element)
	if !ok || o.doc != e.doc {
		return false, fmt.Errorf("cannot compare %T with an element of another document", other)
	}
	unlock, err := e.lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()
	return isAncestor(e.node, o.node), nil
}

func (e *Element) TagName(ctx context.Context) (string, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return "", err
	}
	defer unlock()
	return tagName(e.node), nil
}
