// internal/browser/session/driver.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/browser/scripts"
)

// Query stamps the current matches of desc with refs and returns handles on them.
func (s *Session) Query(ctx context.Context, desc schemas.Descriptor) ([]schemas.Element, error) {
	var raw []byte
	if err := s.evaluate(ctx, &raw, scripts.Query, scripts.Chain(desc), scripts.RefAttribute, s.id); err != nil {
		return nil, fmt.Errorf("query %s: %w", desc, err)
	}
	var refs []string
	if err := jsoniter.Unmarshal(raw, &refs); err != nil {
		return nil, fmt.Errorf("failed to decode query result: %w", err)
	}
	elements := make([]schemas.Element, len(refs))
	for i, ref := range refs {
		elements[i] = &Element{s: s, ref: ref}
	}
	return elements, nil
}

// ActiveElement returns the focused element, or body.
func (s *Session) ActiveElement(ctx context.Context) (schemas.Element, error) {
	var raw []byte
	if err := s.evaluate(ctx, &raw, scripts.ActiveElement, scripts.RefAttribute, s.id); err != nil {
		return nil, fmt.Errorf("reading active element: %w", err)
	}
	var ref string
	if err := jsoniter.Unmarshal(raw, &ref); err != nil {
		return nil, fmt.Errorf("failed to decode active element: %w", err)
	}
	return &Element{s: s, ref: ref}, nil
}

// SendKeys dispatches the keys to the focused element with any modifiers in
// keys held for the whole sequence.
func (s *Session) SendKeys(ctx context.Context, keys ...schemas.Key) error {
	mods, typed := schemas.SplitChord(keys)
	var actions []chromedp.Action
	for _, k := range typed {
		events, err := keyEvents(k, mods)
		if err != nil {
			return err
		}
		for _, ev := range events {
			actions = append(actions, ev)
		}
	}
	s.logger.Debug("Dispatching keys.", zap.Int("count", len(typed)), zap.Int("modifiers", int(mods)))
	if err := s.RunActions(ctx, actions...); err != nil {
		return fmt.Errorf("failed to dispatch keys: %w", err)
	}
	return nil
}

// RunInPageScript runs one of the named in-page programs.
func (s *Session) RunInPageScript(ctx context.Context, script schemas.Script, args ...any) (json.RawMessage, error) {
	src, err := scripts.Lookup(script)
	if err != nil {
		return nil, fmt.Errorf("javascript error: %w", err)
	}
	var raw []byte
	if err := s.evaluate(ctx, &raw, src, args...); err != nil {
		return nil, err
	}
	return raw, nil
}

var namedKeys = map[schemas.Key]string{
	schemas.KeyEnter:      kb.Enter,
	schemas.KeyTab:        kb.Tab,
	schemas.KeyBackspace:  kb.Backspace,
	schemas.KeyEscape:     kb.Escape,
	schemas.KeyArrowLeft:  kb.ArrowLeft,
	schemas.KeyArrowRight: kb.ArrowRight,
	schemas.KeyF4:         kb.F4,
}

// Editing commands Chrome only performs for a synthetic shortcut when asked explicitly.
var shortcutCommands = map[string]string{
	"a": "selectAll",
	"c": "copy",
	"v": "paste",
	"x": "cut",
	"z": "undo",
}

// keyEvents encodes one typed key. Under Ctrl, Meta or Alt the key is a
// shortcut: it produces no text and carries its editing command.
func keyEvents(k schemas.Key, mods schemas.KeyModifier) ([]*input.DispatchKeyEventParams, error) {
	s, ok := namedKeys[k]
	if !ok {
		s = string(k)
	}
	runes := []rune(s)
	if len(runes) != 1 {
		return nil, fmt.Errorf("cannot encode key %q", k)
	}

	shortcut := mods&(schemas.ModCtrl|schemas.ModMeta|schemas.ModAlt) != 0
	var events []*input.DispatchKeyEventParams
	for _, ev := range kb.Encode(runes[0]) {
		ev.Modifiers |= input.Modifier(mods)
		if shortcut {
			if ev.Type == input.KeyChar {
				continue
			}
			ev.Text, ev.UnmodifiedText = "", ""
			if cmd, ok := shortcutCommands[strings.ToLower(s)]; ok && ev.Type == input.KeyDown {
				ev.Commands = []string{cmd}
			}
		}
		events = append(events, ev)
	}
	return events, nil
}
