// internal/browser/parser/match.go
package parser

import (
	"strings"

	"golang.org/x/net/html"
)

// Matches reports whether the element node matches any selector in the group.
func (g SelectorGroup) Matches(node *html.Node) bool {
	if node == nil || node.Type != html.ElementNode {
		return false
	}
	for _, complexSelector := range g {
		last := len(complexSelector.Selectors) - 1
		if last >= 0 && recursiveMatch(node, complexSelector, last) {
			return true
		}
	}
	return false
}

// recursiveMatch walks right to left through the compound selectors.
func recursiveMatch(node *html.Node, complexSelector ComplexSelector, index int) bool {
	if node == nil || index < 0 || node.Type != html.ElementNode {
		return false
	}
	current := complexSelector.Selectors[index]
	if !MatchesSimple(node, current.SimpleSelector) {
		return false
	}
	if index == 0 {
		return true
	}

	next := index - 1
	switch current.Combinator {
	case CombinatorDescendant:
		for parent := node.Parent; parent != nil; parent = parent.Parent {
			if recursiveMatch(parent, complexSelector, next) {
				return true
			}
		}
		return false
	case CombinatorChild:
		return recursiveMatch(node.Parent, complexSelector, next)
	case CombinatorAdjacentSibling:
		return recursiveMatch(PreviousElementSibling(node), complexSelector, next)
	case CombinatorGeneralSibling:
		for sibling := PreviousElementSibling(node); sibling != nil; sibling = PreviousElementSibling(sibling) {
			if recursiveMatch(sibling, complexSelector, next) {
				return true
			}
		}
		return false
	}
	return false
}

// PreviousElementSibling skips text and comment nodes.
func PreviousElementSibling(node *html.Node) *html.Node {
	for sibling := node.PrevSibling; sibling != nil; sibling = sibling.PrevSibling {
		if sibling.Type == html.ElementNode {
			return sibling
		}
	}
	return nil
}

// NextElementSibling skips text and comment nodes.
func NextElementSibling(node *html.Node) *html.Node {
	for sibling := node.NextSibling; sibling != nil; sibling = sibling.NextSibling {
		if sibling.Type == html.ElementNode {
			return sibling
		}
	}
	return nil
}

// MatchesSimple checks one compound selector against one element.
func MatchesSimple(node *html.Node, selector SimpleSelector) bool {
	if selector.TagName != "" && selector.TagName != "*" && strings.ToLower(node.Data) != selector.TagName {
		return false
	}
	if selector.ID != "" {
		if id, ok := Attr(node, "id"); !ok || id != selector.ID {
			return false
		}
	}
	if len(selector.Classes) > 0 {
		classAttr, _ := Attr(node, "class")
		nodeClasses := strings.Fields(classAttr)
		for _, required := range selector.Classes {
			if !containsString(nodeClasses, required) {
				return false
			}
		}
	}
	for _, attrSel := range selector.Attributes {
		if !matchesAttribute(node, attrSel) {
			return false
		}
	}
	for _, pseudo := range selector.Pseudos {
		if !matchesPseudo(node, pseudo) {
			return false
		}
	}
	return true
}

func matchesAttribute(node *html.Node, sel AttributeSelector) bool {
	actual, found := Attr(node, sel.Name)
	if !found {
		return false
	}

	switch sel.Operator {
	case "":
		return true
	case "=":
		return actual == sel.Value
	case "~=":
		return containsString(strings.Fields(actual), sel.Value)
	case "|=":
		return actual == sel.Value || strings.HasPrefix(actual, sel.Value+"-")
	case "^=":
		return sel.Value != "" && strings.HasPrefix(actual, sel.Value)
	case "$=":
		return sel.Value != "" && strings.HasSuffix(actual, sel.Value)
	case "*=":
		return sel.Value != "" && strings.Contains(actual, sel.Value)
	default:
		return false
	}
}

func matchesPseudo(node *html.Node, pseudo PseudoClass) bool {
	switch pseudo.Name {
	case "checked":
		_, checked := Attr(node, "checked")
		_, selected := Attr(node, "selected")
		return checked || selected
	case "disabled":
		_, disabled := Attr(node, "disabled")
		return disabled
	case "enabled":
		_, disabled := Attr(node, "disabled")
		return !disabled
	case "first-child":
		return PreviousElementSibling(node) == nil
	case "last-child":
		return NextElementSibling(node) == nil
	case "not":
		return pseudo.Not != nil && !MatchesSimple(node, *pseudo.Not)
	}
	return false
}

// Attr returns the value of an attribute, matching the name case-insensitively.
func Attr(node *html.Node, name string) (string, bool) {
	for _, attr := range node.Attr {
		if strings.EqualFold(attr.Key, name) {
			return attr.Val, true
		}
	}
	return "", false
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// InlineStyle parses a style attribute into lower-cased property/value pairs.
// Later declarations win, except that !important ones are not overridden by
// normal ones.
func InlineStyle(styleAttr string) map[string]string {
	styles := make(map[string]string)
	important := make(map[string]bool)
	for _, part := range strings.Split(styleAttr, ";") {
		kv := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(kv) != 2 {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])
		isImportant := false
		if strings.HasSuffix(strings.ToLower(val), "!important") {
			isImportant = true
			val = strings.TrimSpace(val[:len(val)-len("!important")])
		}
		if important[prop] && !isImportant {
			continue
		}
		styles[prop] = strings.ToLower(val)
		important[prop] = isImportant
	}
	return styles
}
