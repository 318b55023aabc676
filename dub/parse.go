package dub

import (
	"fmt"
	"strconv"
)

type Node interface {
	isNode()
}

func (Identifier) isNode() {}
func (Number) isNode()     {}
func (String) isNode()     {}
func (Array) isNode()      {}
func (Tuple) isNode()      {}

// Command is a single REPL input: a command name followed by arguments.
type Command struct {
	Name Identifier
	Args []Node
}

type Identifier string
type Number float64
type String string

// Array is a bracketed sequence, used for note patterns. Nesting an array
// subdivides its slot.
type Array []Node

// Tuple is a parenthesized group, used for notes that share a slot (chords).
type Tuple []Node

func Parse(input string) (Command, error) {
	tokens, err := lex(input)
	if err != nil {
		return Command{}, err
	}
	p := parser{tokens: tokens}
	return p.parse()
}

type parser struct {
	pos    int
	tokens []token
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) parse() (Command, error) {
	var cmd Command
	token := p.next()
	if token.typ != typeIdentifier {
		return cmd, unexpected(token)
	}
	cmd.Name = Identifier(token.text)
	for token := p.next(); token.typ != typeEOF; token = p.next() {
		arg, err := p.parseNode(token)
		if err != nil {
			return cmd, err
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

func (p *parser) parseNode(t token) (Node, error) {
	switch t.typ {
	case typeIdentifier:
		return Identifier(t.text), nil
	case typeString:
		return String(t.text[1 : len(t.text)-1]), nil
	case typeNumber:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, err
		}
		return Number(f), nil
	case typeLeftBracket:
		nodes, err := p.parseSeq(typeRightBracket)
		return Array(nodes), err
	case typeLeftParen:
		nodes, err := p.parseSeq(typeRightParen)
		return Tuple(nodes), err
	default:
		return nil, unexpected(t)
	}
}

func (p *parser) parseSeq(end tokenType) ([]Node, error) {
	var nodes []Node
	for {
		t := p.next()
		if t.typ == end {
			return nodes, nil
		}
		if t.typ == typeEOF {
			return nodes, fmt.Errorf("unclosed sequence at position %d", t.pos)
		}
		node, err := p.parseNode(t)
		if err != nil {
			return nodes, err
		}
		nodes = append(nodes, node)
	}
}

func unexpected(t token) error {
	return fmt.Errorf("unexpected token %q at position %d", t.text, t.pos)
}
