// internal/browser/memdom/dom.go
package memdom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/steadyhand/internal/browser/parser"
)

// Node helpers. They do no locking; inside hooks and Mutate callbacks the
// document lock is already held.

// SetAttr sets or replaces an attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, attr := range n.Attr {
		if attr.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute if present.
func RemoveAttr(n *html.Node, key string) {
	for i, attr := range n.Attr {
		if attr.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// HasAttr reports whether the attribute is present, whatever its value.
func HasAttr(n *html.Node, key string) bool {
	_, ok := parser.Attr(n, key)
	return ok
}

// AddClass appends a class if it is not already there.
func AddClass(n *html.Node, class string) {
	current, _ := parser.Attr(n, "class")
	for _, c := range strings.Fields(current) {
		if c == class {
			return
		}
	}
	SetAttr(n, "class", strings.TrimSpace(current+" "+class))
}

// AppendHTML parses markup as a fragment in the context of parent and appends the result.
func AppendHTML(parent *html.Node, markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), parent)
	if err != nil {
		return fmt.Errorf("failed to parse fragment: %w", err)
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	return nil
}

// Detach removes n from its parent. Handles to it go stale.
func Detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// FindByID returns the first element with the id, in document order.
func FindByID(root *html.Node, id string) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if v, ok := parser.Attr(n, "id"); ok && v == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// walk visits element nodes depth first in document order until fn returns false.
func walk(root *html.Node, fn func(*html.Node) bool) bool {
	if root.Type == html.ElementNode {
		if !fn(root) {
			return false
		}
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func findAll(root *html.Node, group parser.SelectorGroup) []*html.Node {
	var found []*html.Node
	walk(root, func(n *html.Node) bool {
		if n != root && group.Matches(n) {
			found = append(found, n)
		}
		return true
	})
	return found
}

func tagName(n *html.Node) string {
	return strings.ToLower(n.Data)
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return sb.String()
}

// NormalizeText collapses whitespace runs and trims, the rule descriptors'
// Text criterion is compared under.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func setTextContent(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

var invisibleTags = map[string]bool{
	"head": true, "script": true, "style": true, "template": true, "title": true, "meta": true, "link": true,
}

// isVisible models visibility without a layout engine: the hidden attribute,
// inline display/visibility/opacity, and hidden inputs, on the node or any ancestor.
func isVisible(n *html.Node) bool {
	if tagName(n) == "input" {
		if t, _ := parser.Attr(n, "type"); strings.EqualFold(t, "hidden") {
			return false
		}
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if invisibleTags[tagName(cur)] || HasAttr(cur, "hidden") {
			return false
		}
		styleAttr, _ := parser.Attr(cur, "style")
		if styleAttr == "" {
			continue
		}
		styles := parser.InlineStyle(styleAttr)
		if styles["display"] == "none" {
			return false
		}
		if v := styles["visibility"]; v == "hidden" || v == "collapse" {
			return false
		}
		if o := styles["opacity"]; o == "0" || o == "0.0" {
			return false
		}
	}
	return true
}

// isOffscreen is the viewport model: an element under a data-offscreen
// marker is rendered but scrolled out of view.
func isOffscreen(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && HasAttr(cur, "data-offscreen") {
			return true
		}
	}
	return false
}

// isCovered models a static overlay sitting on top of the element.
func isCovered(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && HasAttr(cur, "data-covered") {
			return true
		}
	}
	return false
}

func isDisabled(n *html.Node) bool {
	if HasAttr(n, "disabled") {
		return true
	}
	if v, _ := parser.Attr(n, "aria-disabled"); v == "true" {
		return true
	}
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && tagName(cur) == "fieldset" && HasAttr(cur, "disabled") {
			return true
		}
	}
	return false
}

var nonTextInputTypes = map[string]bool{
	"checkbox": true, "radio": true, "button": true, "submit": true, "reset": true,
	"hidden": true, "image": true, "file": true,
}

// isEditable reports whether the node holds a user-editable text value.
func isEditable(n *html.Node) bool {
	switch tagName(n) {
	case "textarea":
		return true
	case "input":
		t, _ := parser.Attr(n, "type")
		return !nonTextInputTypes[strings.ToLower(t)]
	}
	return false
}

func isFocusable(n *html.Node) bool {
	switch tagName(n) {
	case "input", "textarea", "select", "button":
		return !isDisabled(n)
	case "a":
		return HasAttr(n, "href")
	}
	return HasAttr(n, "tabindex") || HasAttr(n, "contenteditable")
}

func valueOf(n *html.Node) string {
	switch tagName(n) {
	case "textarea":
		return textContent(n)
	case "select":
		for _, opt := range findAllTag(n, "option") {
			if HasAttr(opt, "selected") {
				if v, ok := parser.Attr(opt, "value"); ok {
					return v
				}
				return NormalizeText(textContent(opt))
			}
		}
		return ""
	}
	v, _ := parser.Attr(n, "value")
	return v
}

func setValue(n *html.Node, value string) {
	if tagName(n) == "textarea" {
		setTextContent(n, value)
		return
	}
	SetAttr(n, "value", value)
}

func findAllTag(root *html.Node, tag string) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) bool {
		if n != root && tagName(n) == tag {
			out = append(out, n)
		}
		return true
	})
	return out
}

func isAncestor(ancestor, n *html.Node) bool {
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

func describe(n *html.Node) string {
	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(tagName(n))
	if id, ok := parser.Attr(n, "id"); ok {
		sb.WriteString(fmt.Sprintf(" id=%q", id))
	}
	if class, ok := parser.Attr(n, "class"); ok {
		sb.WriteString(fmt.Sprintf(" class=%q", class))
	}
	sb.WriteString(">")
	return sb.String()
}
