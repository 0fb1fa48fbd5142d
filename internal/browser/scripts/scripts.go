// internal/browser/scripts/scripts.go
// Package scripts holds the in-page programs shared by the browser-backed
// drivers. Query stamps each match with a ref attribute; element operations
// look their node up again by that ref, so a handle whose node was removed
// from the page reports itself stale instead of acting on a detached node.
package scripts

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

// RefAttribute is stamped on every node a query returns.
const RefAttribute = "data-steadyhand-ref"

// Element operations understood by ElementOp.
const (
	OpExists     = "exists"
	OpVisible    = "visible"
	OpInViewport = "inViewport"
	OpClickable  = "clickable"
	OpSelected   = "selected"
	OpValue      = "value"
	OpText       = "text"
	OpAttribute  = "attribute"
	OpTag        = "tag"
	OpSetValue   = "setValue"
	OpClearValue = "clearValue"
	OpScroll     = "scroll"
	OpClickPoint = "clickPoint"
	OpContains   = "contains"
)

// Query takes (chain, refAttribute, refPrefix). chain lists {selector, text}
// steps, outermost scope first; every step's matches must sit under a match
// of the step before. It returns the refs of the final matches in document order.
const Query = `function(chain, attr, prefix) {
	const norm = (s) => (s || '').replace(/\s+/g, ' ').trim();
	let scope = null;
	for (const step of chain) {
		const next = [];
		for (const n of document.querySelectorAll(step.selector)) {
			if (step.text && norm(n.textContent) !== step.text) continue;
			if (scope && !scope.some((a) => a !== n && a.contains(n))) continue;
			next.push(n);
		}
		scope = next;
		if (scope.length === 0) break;
	}
	return (scope || []).map((n) => {
		if (!n.getAttribute(attr)) {
			window.__steadyhandSeq = (window.__steadyhandSeq || 0) + 1;
			n.setAttribute(attr, prefix + '-' + window.__steadyhandSeq);
		}
		return n.getAttribute(attr);
	});
}`

// ActiveElement takes (refAttribute, refPrefix) and returns the ref of the
// focused element, or of body.
const ActiveElement = `function(attr, prefix) {
	const n = document.activeElement || document.body;
	if (!n.getAttribute(attr)) {
		window.__steadyhandSeq = (window.__steadyhandSeq || 0) + 1;
		n.setAttribute(attr, prefix + '-' + window.__steadyhandSeq);
	}
	return n.getAttribute(attr);
}`

// ElementOp takes (refAttribute, ref, op, arg) and returns a Result.
const ElementOp = `function(attr, ref, op, arg) {
	const el = document.querySelector('[' + attr + '="' + CSS.escape(ref) + '"]');
	if (!el) return { stale: true };
	const norm = (s) => (s || '').replace(/\s+/g, ' ').trim();
	const describe = (n) => {
		let d = '<' + n.tagName.toLowerCase();
		if (n.id) d += ' id="' + n.id + '"';
		if (n.className && typeof n.className === 'string') d += ' class="' + n.className + '"';
		return d + '>';
	};
	const visible = () => {
		const r = el.getBoundingClientRect();
		const s = window.getComputedStyle(el);
		return r.width > 0 && r.height > 0 && s.display !== 'none' && s.visibility !== 'hidden' && s.opacity !== '0';
	};
	const disabled = () => el.disabled === true || el.getAttribute('aria-disabled') === 'true' || !!el.closest('fieldset[disabled]');
	const obstruction = () => {
		const r = el.getBoundingClientRect();
		const x = r.left + r.width / 2, y = r.top + r.height / 2;
		const hit = document.elementFromPoint(x, y);
		if (!hit || hit === el || el.contains(hit)) return { x, y, by: '' };
		return { x, y, by: describe(hit) };
	};
	const assign = (v) => {
		const tag = el.tagName.toLowerCase();
		if (!['input', 'textarea', 'select'].includes(tag) && !el.isContentEditable) {
			return { invalid: 'cannot set value of ' + describe(el) };
		}
		if (disabled() || el.readOnly) {
			return { invalid: describe(el) + ' is not editable' };
		}
		if (el.isContentEditable) {
			el.textContent = v;
		} else {
			const d = Object.getOwnPropertyDescriptor(Object.getPrototypeOf(el), 'value');
			if (d && d.set) d.set.call(el, v); else el.value = v;
		}
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return {};
	};
	switch (op) {
	case 'exists':
		return { bool: el.isConnected };
	case 'visible':
		return { bool: visible() };
	case 'inViewport': {
		if (!visible()) return { bool: false };
		const r = el.getBoundingClientRect();
		return { bool: r.bottom > 0 && r.right > 0 && r.top < window.innerHeight && r.left < window.innerWidth };
	}
	case 'clickable':
		return { bool: visible() && !disabled() && obstruction().by === '' };
	case 'selected':
		return { bool: el.checked === true || el.selected === true || el.getAttribute('aria-selected') === 'true' };
	case 'value':
		if ('value' in el && typeof el.value === 'string') return { str: el.value };
		if (el.isContentEditable) return { str: el.textContent };
		return { str: el.getAttribute('value') || '' };
	case 'text':
		return { str: norm(el.innerText !== undefined ? el.innerText : el.textContent) };
	case 'attribute':
		return { bool: el.hasAttribute(arg), str: el.getAttribute(arg) || '' };
	case 'tag':
		return { str: el.tagName.toLowerCase() };
	case 'contains': {
		const o = document.querySelector('[' + attr + '="' + CSS.escape(arg) + '"]');
		return { bool: !!o && o !== el && el.contains(o) };
	}
	case 'setValue':
		return assign(arg);
	case 'clearValue':
		return assign('');
	case 'scroll':
		el.scrollIntoView({ block: 'center', inline: 'center' });
		return {};
	case 'clickPoint': {
		if (!visible()) return { invalid: describe(el) + ' is not visible' };
		el.scrollIntoView({ block: 'center', inline: 'center' });
		const o = obstruction();
		if (o.by !== '') return { intercepted: o.by, x: o.x, y: o.y };
		return { x: o.x, y: o.y };
	}
	}
	throw new Error('unknown element operation ' + op);
}`

// BlankInputsAndCountTokens implements schemas.ScriptBlankInputsAndCountTokens.
const BlankInputsAndCountTokens = `function(id, tokenSelector) {
	const c = document.getElementById(id);
	if (!c) throw new Error('element with id "' + id + '" not found');
	const tag = c.tagName.toLowerCase();
	const targets = (tag === 'input' || tag === 'textarea')
		? [c]
		: [c.querySelector('input'), c.querySelector('textarea')].filter(Boolean);
	for (const t of targets) {
		const d = Object.getOwnPropertyDescriptor(Object.getPrototypeOf(t), 'value');
		if (d && d.set) d.set.call(t, ''); else t.value = '';
		t.dispatchEvent(new Event('input', { bubbles: true }));
	}
	return { editable: targets.length, tokens: tokenSelector ? c.querySelectorAll(tokenSelector).length : 0 };
}`

var named = map[schemas.Script]string{
	schemas.ScriptBlankInputsAndCountTokens: BlankInputsAndCountTokens,
}

// Lookup returns the source of a named in-page program.
func Lookup(s schemas.Script) (string, error) {
	src, ok := named[s]
	if !ok {
		return "", fmt.Errorf("unknown script %q", s)
	}
	return src, nil
}

// Step is one scope of a query chain.
type Step struct {
	Selector string `json:"selector"`
	Text     string `json:"text,omitempty"`
}

// Chain flattens a descriptor into query steps, outermost first.
func Chain(desc schemas.Descriptor) []Step {
	chain := desc.Chain()
	steps := make([]Step, len(chain))
	for i, d := range chain {
		steps[i] = Step{Selector: d.Selector, Text: d.Text}
	}
	return steps
}

// Invocation renders an expression that calls fn with the JSON encoding of args.
func Invocation(fn string, args ...any) (string, error) {
	if args == nil {
		args = []any{}
	}
	encoded, err := jsoniter.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to encode script arguments: %w", err)
	}
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(fn)
	sb.WriteString(").apply(null, ")
	sb.Write(encoded)
	sb.WriteString(")")
	return sb.String(), nil
}

// Result is what ElementOp returns.
type Result struct {
	Stale       bool    `json:"stale"`
	Invalid     string  `json:"invalid"`
	Intercepted string  `json:"intercepted"`
	Bool        bool    `json:"bool"`
	Str         string  `json:"str"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// Decode reads an ElementOp result and maps its failure markers onto the
// driver sentinels.
func Decode(raw []byte, ref string) (Result, error) {
	var res Result
	if err := jsoniter.Unmarshal(raw, &res); err != nil {
		return res, fmt.Errorf("failed to decode element result %s: %w", string(raw), err)
	}
	switch {
	case res.Stale:
		return res, fmt.Errorf("%w: %s", schemas.ErrStaleElement, ref)
	case res.Invalid != "":
		return res, fmt.Errorf("%w: %s", schemas.ErrInvalidElementState, res.Invalid)
	case res.Intercepted != "":
		return res, fmt.Errorf("%w: other element would receive the click: %s", schemas.ErrClickIntercepted, res.Intercepted)
	}
	return res, nil
}
