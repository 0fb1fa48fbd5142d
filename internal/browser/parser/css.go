// internal/browser/parser/css.go
package parser

import (
	"fmt"
	"strings"
)

// SelectorGroup represents a comma-separated list of selectors (e.g., "h1, h2 .title").
type SelectorGroup []ComplexSelector

// ComplexSelector represents a sequence of simple selectors joined by combinators (e.g., "div > p").
type ComplexSelector struct {
	Selectors []SimpleSelectorWithCombinator
}

// SimpleSelectorWithCombinator pairs a simple selector with its preceding combinator.
type SimpleSelectorWithCombinator struct {
	Combinator     Combinator
	SimpleSelector SimpleSelector
}

// SimpleSelector represents one compound selector (tag, ID, classes, attributes, pseudo-classes).
type SimpleSelector struct {
	TagName    string
	ID         string
	Classes    []string
	Attributes []AttributeSelector
	Pseudos    []PseudoClass
}

// AttributeSelector represents a CSS attribute selector like `[href]` or `[target="_blank"]`.
type AttributeSelector struct {
	Name     string
	Operator string // "", "=", "~=", "|=", "^=", "$=", "*="
	Value    string
}

// PseudoClass is one of the supported structural/state pseudo-classes.
// Not holds the argument of :not().
type PseudoClass struct {
	Name string
	Not  *SimpleSelector
}

var supportedPseudos = map[string]bool{
	"checked":     true,
	"disabled":    true,
	"enabled":     true,
	"first-child": true,
	"last-child":  true,
	"not":         true,
}

// Combinator defines the relationship between simple selectors.
type Combinator int

const (
	CombinatorNone            Combinator = iota // No combinator (first selector)
	CombinatorDescendant                        // Space
	CombinatorChild                             // >
	CombinatorAdjacentSibling                   // +
	CombinatorGeneralSibling                    // ~
)

// IsValid checks if the selector has at least one component.
func (s SimpleSelector) IsValid() bool {
	return s.TagName != "" || s.ID != "" || len(s.Classes) > 0 || len(s.Attributes) > 0 || len(s.Pseudos) > 0
}

// Parser holds the state of the selector parser.
type Parser struct {
	input string
	pos   int
}

func NewParser(input string) *Parser {
	return &Parser{input: input, pos: 0}
}

// ParseSelector parses a selector list. Unlike a stylesheet parser it does not
// skip what it does not understand: any unsupported syntax is an error, so a
// descriptor never silently matches more than its author meant.
func ParseSelector(selector string) (SelectorGroup, error) {
	p := NewParser(selector)
	group, err := p.parseSelectorGroup()
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return group, nil
}

func (p *Parser) parseSelectorGroup() (SelectorGroup, error) {
	var group SelectorGroup
	for {
		complex, err := p.parseComplexSelector()
		if err != nil {
			return nil, err
		}
		if len(complex.Selectors) == 0 {
			return nil, fmt.Errorf("empty selector at offset %d", p.pos)
		}
		group = append(group, complex)

		p.consumeWhitespace()
		if p.eof() {
			return group, nil
		}
		if p.currentChar() != ',' {
			return nil, fmt.Errorf("unexpected %q at offset %d", p.currentChar(), p.pos)
		}
		p.consumeChar()
	}
}

// parseComplexSelector parses a sequence of simple selectors and combinators.
func (p *Parser) parseComplexSelector() (ComplexSelector, error) {
	var complexSelector ComplexSelector
	combinator := CombinatorNone

	for {
		p.consumeWhitespace()
		if p.eof() || p.currentChar() == ',' || p.currentChar() == ')' {
			if combinator != CombinatorNone && combinator != CombinatorDescendant {
				return complexSelector, fmt.Errorf("dangling combinator at offset %d", p.pos)
			}
			return complexSelector, nil
		}

		simple, err := p.parseSimpleSelector()
		if err != nil {
			return complexSelector, err
		}
		complexSelector.Selectors = append(complexSelector.Selectors, SimpleSelectorWithCombinator{
			Combinator:     combinator,
			SimpleSelector: simple,
		})

		sawSpace := p.consumeWhitespace()
		if p.eof() || p.currentChar() == ',' || p.currentChar() == ')' {
			return complexSelector, nil
		}

		switch p.currentChar() {
		case '>':
			combinator = CombinatorChild
			p.consumeChar()
		case '+':
			combinator = CombinatorAdjacentSibling
			p.consumeChar()
		case '~':
			combinator = CombinatorGeneralSibling
			p.consumeChar()
		default:
			if !sawSpace {
				return complexSelector, fmt.Errorf("unexpected %q at offset %d", p.currentChar(), p.pos)
			}
			combinator = CombinatorDescendant
		}
	}
}

// parseSimpleSelector parses a single compound selector (e.g., input#id.cls[type='text']:not(.x)).
func (p *Parser) parseSimpleSelector() (SimpleSelector, error) {
	selector := SimpleSelector{}

	if !p.eof() {
		ch := p.currentChar()
		if ch == '*' {
			p.consumeChar()
			selector.TagName = "*"
		} else if isValidIdentifierStart(ch) {
			selector.TagName = strings.ToLower(p.parseIdentifier())
		}
	}

	for !p.eof() {
		switch p.currentChar() {
		case '#':
			p.consumeChar()
			id := p.parseIdentifier()
			if id == "" {
				return selector, fmt.Errorf("empty id at offset %d", p.pos)
			}
			selector.ID = id
		case '.':
			p.consumeChar()
			class := p.parseIdentifier()
			if class == "" {
				return selector, fmt.Errorf("empty class at offset %d", p.pos)
			}
			selector.Classes = append(selector.Classes, class)
		case '[':
			p.consumeChar()
			attr, err := p.parseAttributeSelector()
			if err != nil {
				return selector, err
			}
			selector.Attributes = append(selector.Attributes, attr)
		case ':':
			p.consumeChar()
			pseudo, err := p.parsePseudoClass()
			if err != nil {
				return selector, err
			}
			selector.Pseudos = append(selector.Pseudos, pseudo)
		default:
			goto done
		}
	}

done:
	if !selector.IsValid() {
		if p.eof() {
			return selector, fmt.Errorf("unexpected end of selector")
		}
		return selector, fmt.Errorf("unexpected %q at offset %d", p.currentChar(), p.pos)
	}
	return selector, nil
}

func (p *Parser) parsePseudoClass() (PseudoClass, error) {
	name := strings.ToLower(p.parseIdentifier())
	if !supportedPseudos[name] {
		return PseudoClass{}, fmt.Errorf("unsupported pseudo-class :%s", name)
	}
	if name != "not" {
		return PseudoClass{Name: name}, nil
	}
	if p.eof() || p.currentChar() != '(' {
		return PseudoClass{}, fmt.Errorf("expected '(' after :not")
	}
	p.consumeChar()
	p.consumeWhitespace()
	inner, err := p.parseSimpleSelector()
	if err != nil {
		return PseudoClass{}, err
	}
	p.consumeWhitespace()
	if p.eof() || p.currentChar() != ')' {
		return PseudoClass{}, fmt.Errorf("expected ')' to close :not")
	}
	p.consumeChar()
	return PseudoClass{Name: name, Not: &inner}, nil
}

// parseAttributeSelector parses the contents of `[...]` for an attribute selector.
func (p *Parser) parseAttributeSelector() (AttributeSelector, error) {
	p.consumeWhitespace()
	name := p.parseIdentifier()
	if name == "" {
		return AttributeSelector{}, fmt.Errorf("missing attribute name at offset %d", p.pos)
	}
	p.consumeWhitespace()

	if p.eof() {
		return AttributeSelector{}, fmt.Errorf("unexpected EOF in attribute selector")
	}

	// Presence selector like `[disabled]`.
	if p.currentChar() == ']' {
		p.consumeChar()
		return AttributeSelector{Name: name}, nil
	}

	var operator strings.Builder
	switch p.currentChar() {
	case '=':
		operator.WriteByte(p.consumeChar())
	case '~', '|', '^', '$', '*':
		operator.WriteByte(p.consumeChar())
		if p.eof() || p.currentChar() != '=' {
			return AttributeSelector{}, fmt.Errorf("malformed attribute operator at offset %d", p.pos)
		}
		operator.WriteByte(p.consumeChar())
	default:
		return AttributeSelector{}, fmt.Errorf("unexpected %q in attribute selector", p.currentChar())
	}

	p.consumeWhitespace()

	var value string
	if !p.eof() && (p.currentChar() == '"' || p.currentChar() == '\'') {
		quote := p.consumeChar()
		var sb strings.Builder
		for !p.eof() && p.currentChar() != quote {
			ch := p.consumeChar()
			if ch == '\\' && !p.eof() {
				ch = p.consumeChar()
			}
			sb.WriteByte(ch)
		}
		if p.eof() {
			return AttributeSelector{}, fmt.Errorf("unterminated string in attribute selector")
		}
		p.consumeChar()
		value = sb.String()
	} else {
		value = p.parseIdentifier()
	}
	p.consumeWhitespace()

	if p.eof() || p.currentChar() != ']' {
		return AttributeSelector{}, fmt.Errorf("expected ']' to close attribute selector")
	}
	p.consumeChar()

	return AttributeSelector{
		Name:     strings.ToLower(name),
		Operator: operator.String(),
		Value:    value,
	}, nil
}

// --- Lexer-like Helpers ---

func (p *Parser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *Parser) currentChar() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

func (p *Parser) consumeChar() byte {
	ch := p.currentChar()
	if !p.eof() {
		p.pos++
	}
	return ch
}

// consumeWhitespace reports whether any whitespace was skipped.
func (p *Parser) consumeWhitespace() bool {
	start := p.pos
	for !p.eof() && isWhitespace(p.currentChar()) {
		p.pos++
	}
	return p.pos > start
}

func (p *Parser) parseIdentifier() string {
	start := p.pos
	for !p.eof() && isValidIdentifierChar(p.currentChar()) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isValidIdentifierStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch == '-'
}

func isValidIdentifierChar(ch byte) bool {
	return isValidIdentifierStart(ch) || (ch >= '0' && ch <= '9')
}
