// internal/browser/memdom/document.go
package memdom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/browser/parser"
)

// DefaultTokenSelector matches token chips when the script caller passes none.
const DefaultTokenSelector = ".sapMToken, [data-token]"

// HookFunc runs under the document lock after a click. target is the clicked
// element; root is the document node.
type HookFunc func(target, root *html.Node)

// KeyHookFunc runs under the document lock after each typed key.
type KeyHookFunc func(key schemas.Key, target, root *html.Node)

type clickHook struct {
	group parser.SelectorGroup
	fn    HookFunc
}

type intercept struct {
	group     parser.SelectorGroup
	remaining int
	by        string
}

// Stats counts the interactions a Document has seen.
type Stats struct {
	Clicks     int
	Writes     int
	Keys       int
	ScriptRuns int
}

// Document is a UI driver over an in-memory HTML tree. Visibility, the viewport and
// obstruction are modelled from markup (see isVisible, isOffscreen, isCovered), and
// page behaviour is scripted with OnClick and OnKey hooks.
type Document struct {
	id     string
	logger *zap.Logger

	mu        sync.Mutex
	root      *html.Node
	focused   *html.Node
	selectAll bool

	clickHooks []clickHook
	keyHooks   []KeyHookFunc
	failWrites int
	intercepts []*intercept
	stats      Stats

	selectors map[string]parser.SelectorGroup
}

var _ schemas.Driver = (*Document)(nil)

// Parse builds a Document from HTML markup.
func Parse(r io.Reader, logger *zap.Logger) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New().String()
	return &Document{
		id:        id,
		logger:    logger.Named("memdom").With(zap.String("session_id", id)),
		root:      root,
		selectors: make(map[string]parser.SelectorGroup),
	}, nil
}

// ParseString is Parse over a string.
func ParseString(markup string, logger *zap.Logger) (*Document, error) {
	return Parse(strings.NewReader(markup), logger)
}

// Open reads a fixture file.
func Open(path string, logger *zap.Logger) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer f.Close()
	return Parse(f, logger)
}

// ID returns the session id.
func (d *Document) ID() string { return d.id }

// HTML renders the current tree.
func (d *Document) HTML() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var sb strings.Builder
	_ = html.Render(&sb, d.root)
	return sb.String()
}

// Mutate runs fn against the root under the document lock. Tests use it to
// simulate asynchronous re-renders.
func (d *Document) Mutate(fn func(root *html.Node)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.root)
}

// OnClick registers fn to run after a click on an element matching selector
// or on any of its descendants.
func (d *Document) OnClick(selector string, fn HookFunc) error {
	group, err := parser.ParseSelector(selector)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clickHooks = append(d.clickHooks, clickHook{group: group, fn: fn})
	return nil
}

// OnKey registers fn to run after every key event, with the focused element
// (nil when only the body has focus) as target.
func (d *Document) OnKey(fn KeyHookFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keyHooks = append(d.keyHooks, fn)
}

// FailWrites makes the next n SetValue calls report success without changing anything,
// the way a field that re-renders under the user's hands drops input.
func (d *Document) FailWrites(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failWrites = n
}

// InterceptClicks makes the next n clicks on elements matching selector fail as
// if the element `by` sat on top of them.
func (d *Document) InterceptClicks(selector string, n int, by string) error {
	group, err := parser.ParseSelector(selector)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.intercepts = append(d.intercepts, &intercept{group: group, remaining: n, by: by})
	return nil
}

// Stats returns a snapshot of the interaction counters.
func (d *Document) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Document) compile(selector string) (parser.SelectorGroup, error) {
	if group, ok := d.selectors[selector]; ok {
		return group, nil
	}
	group, err := parser.ParseSelector(selector)
	if err != nil {
		return nil, err
	}
	d.selectors[selector] = group
	return group, nil
}

// Query evaluates the descriptor chain from the outermost scope inwards. Each
// step keeps the nodes that match its selector and text and sit under a node
// kept by the previous step.
func (d *Document) Query(ctx context.Context, desc schemas.Descriptor) ([]schemas.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	var scope []*html.Node
	for i, step := range desc.Chain() {
		group, err := d.compile(step.Selector)
		if err != nil {
			return nil, err
		}
		var next []*html.Node
		walk(d.root, func(n *html.Node) bool {
			if !group.Matches(n) {
				return true
			}
			if step.Text != "" && NormalizeText(textContent(n)) != step.Text {
				return true
			}
			if i > 0 && !underAny(n, scope) {
				return true
			}
			next = append(next, n)
			return true
		})
		scope = next
		if len(scope) == 0 {
			break
		}
	}

	elements := make([]schemas.Element, len(scope))
	for i, n := range scope {
		elements[i] = &Element{doc: d, node: n}
	}
	return elements, nil
}

func underAny(n *html.Node, ancestors []*html.Node) bool {
	for _, a := range ancestors {
		if isAncestor(a, n) {
			return true
		}
	}
	return false
}

// ActiveElement returns the focused element, or body when nothing has focus.
func (d *Document) ActiveElement(ctx context.Context) (schemas.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.focused != nil && d.attached(d.focused) {
		return &Element{doc: d, node: d.focused}, nil
	}
	d.focused = nil
	if bodies := findAllTag(d.root, "body"); len(bodies) > 0 {
		return &Element{doc: d, node: bodies[0]}, nil
	}
	return &Element{doc: d, node: d.root}, nil
}

// SendKeys applies keys to the focused element. Printable characters type,
// Backspace deletes, Control/Meta+a arms select-all, and every key fires the
// OnKey hooks.
func (d *Document) SendKeys(ctx context.Context, keys ...schemas.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	mods, typed := schemas.SplitChord(keys)
	chord := mods&(schemas.ModCtrl|schemas.ModMeta) != 0
	for _, k := range typed {
		d.stats.Keys++
		target := d.focused
		if target != nil && !d.attached(target) {
			target, d.focused = nil, nil
		}

		switch {
		case chord && strings.EqualFold(string(k), "a"):
			d.selectAll = true
		case k == schemas.KeyBackspace:
			d.backspace(target)
		case len([]rune(string(k))) == 1 && !chord:
			if target != nil && isEditable(target) && !isDisabled(target) {
				if d.selectAll {
					setValue(target, string(k))
				} else {
					setValue(target, valueOf(target)+string(k))
				}
			}
			d.selectAll = false
		default:
			// Named keys carry no built-in behaviour; pages script it with OnKey.
		}

		for _, fn := range d.keyHooks {
			fn(k, target, d.root)
		}
	}
	d.logger.Debug("Keys sent.", zap.Int("count", len(typed)), zap.Bool("chord", chord))
	return nil
}

// backspace deletes the selection or the character before the caret. With an
// empty field it removes the last token chip of the enclosing control, the way
// tokenizer inputs behave.
func (d *Document) backspace(target *html.Node) {
	if target == nil {
		d.selectAll = false
		return
	}
	tokens := d.enclosingTokens(target)
	if d.selectAll {
		if isEditable(target) {
			setValue(target, "")
		}
		for _, t := range tokens {
			Detach(t)
		}
		d.selectAll = false
		return
	}
	if isEditable(target) {
		if v := []rune(valueOf(target)); len(v) > 0 {
			setValue(target, string(v[:len(v)-1]))
			return
		}
	}
	if len(tokens) > 0 {
		Detach(tokens[len(tokens)-1])
	}
}

// enclosingTokens finds the nearest ancestor of target that contains token
// chips and returns them.
func (d *Document) enclosingTokens(target *html.Node) []*html.Node {
	group, err := d.compile(DefaultTokenSelector)
	if err != nil {
		return nil
	}
	for cur := target; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if tokens := findAll(cur, group); len(tokens) > 0 {
			return tokens
		}
	}
	return nil
}

// RunInPageScript runs the Go rendition of a named in-page program.
func (d *Document) RunInPageScript(ctx context.Context, script schemas.Script, args ...any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.ScriptRuns++

	switch script {
	case schemas.ScriptBlankInputsAndCountTokens:
		if len(args) < 1 {
			return nil, fmt.Errorf("javascript error: %s requires a container id", script)
		}
		containerID, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("javascript error: container id must be a string, got %T", args[0])
		}
		tokenSelector := DefaultTokenSelector
		if len(args) > 1 {
			if s, ok := args[1].(string); ok && s != "" {
				tokenSelector = s
			}
		}
		return d.blankInputsAndCountTokens(containerID, tokenSelector)
	default:
		return nil, fmt.Errorf("javascript error: unknown script %q", script)
	}
}

func (d *Document) blankInputsAndCountTokens(containerID, tokenSelector string) (json.RawMessage, error) {
	container := FindByID(d.root, containerID)
	if container == nil {
		return nil, fmt.Errorf("javascript error: element with id %q not found", containerID)
	}
	tokens, err := d.compile(tokenSelector)
	if err != nil {
		return nil, err
	}

	var result schemas.BlankResult
	switch tagName(container) {
	case "input", "textarea":
		setValue(container, "")
		result.Editable = 1
	default:
		for _, tag := range []string{"input", "textarea"} {
			if all := findAllTag(container, tag); len(all) > 0 {
				setValue(all[0], "")
				result.Editable++
			}
		}
	}
	result.Tokens = len(findAll(container, tokens))
	return jsoniter.Marshal(result)
}

// attached reports whether n is still reachable from the document root.
func (d *Document) attached(n *html.Node) bool {
	return n == d.root || isAncestor(d.root, n)
}
