package query

import (
	"errors"
	"fmt"
	"strings"
)

// BoolExpression is a node of a parsed boolean instruction
type BoolExpression interface {
	String() string
}

// LeafExpression is a sub-instruction compiled through the field registry
type LeafExpression struct {
	Text string
}

func (e *LeafExpression) String() string { return "(" + e.Text + ")" }

// PrefixExpression is NOT applied to one operand
type PrefixExpression struct {
	Operator TokenType
	Right    BoolExpression
}

func (e *PrefixExpression) String() string {
	return string(e.Operator) + " " + e.Right.String()
}

// InfixExpression combines two operands with AND, OR or XOR
type InfixExpression struct {
	Operator TokenType
	Left     BoolExpression
	Right    BoolExpression
}

func (e *InfixExpression) String() string {
	return "(" + e.Left.String() + " " + string(e.Operator) + " " + e.Right.String() + ")"
}

// Operator precedence levels, NOT binds tightest
const (
	_ int = iota
	LOWEST
	DISJUNCTION
	EXCLUSIVE
	CONJUNCTION
	PREFIX
)

var precedences = map[TokenType]int{
	OR:  DISJUNCTION,
	XOR: EXCLUSIVE,
	AND: CONJUNCTION,
}

// BoolParser is a Pratt parser over Lexer tokens
type BoolParser struct {
	lexer     *Lexer
	errors    []error
	curToken  Token
	peekToken Token
}

func NewBoolParser(lexer *Lexer) *BoolParser {
	p := &BoolParser{lexer: lexer}

	p.nextToken()
	p.nextToken()

	return p
}

// ParseBoolean parses a complete boolean instruction
func ParseBoolean(input string) (BoolExpression, error) {
	return NewBoolParser(NewLexer(input)).ParseExpression()
}

// ParseExpression parses the whole input, which must be a single expression
func (p *BoolParser) ParseExpression() (BoolExpression, error) {
	expr := p.parseExpression(LOWEST)

	if expr == nil {
		if len(p.errors) > 0 {
			return nil, p.errors[0]
		}
		return nil, errors.New("malformed boolean instruction")
	}

	if p.curToken.Type != EOF {
		return nil, fmt.Errorf("unexpected text after expression: '%s'", p.curToken.Literal)
	}

	return expr, nil
}

func (p *BoolParser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
}

func (p *BoolParser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *BoolParser) addError(format string, args ...any) {
	p.errors = append(p.errors, fmt.Errorf(format, args...))
}

func (p *BoolParser) parseExpression(precedence int) BoolExpression {
	var left BoolExpression

	switch p.curToken.Type {
	case NOT:
		left = p.parsePrefixExpression()
	case GROUP:
		left = p.parseGroup()
	case ILLEGAL:
		p.addError("unexpected text: '%s'. Every sub-expression must be surrounded by brackets", p.curToken.Literal)
		return nil
	case EOF:
		p.addError("unexpected end of expression")
		return nil
	default:
		p.addError("unexpected operator: %s", p.curToken.Literal)
		return nil
	}

	if left == nil {
		return nil
	}

	for p.curToken.Type != EOF && precedence < p.curPrecedence() {
		left = p.parseInfixExpression(left)
		if left == nil {
			return nil
		}
	}

	return left
}

func (p *BoolParser) parsePrefixExpression() BoolExpression {
	expression := &PrefixExpression{Operator: p.curToken.Type}

	p.nextToken()

	expression.Right = p.parseExpression(PREFIX)
	if expression.Right == nil {
		p.addError("expected expression after %s", expression.Operator)
		return nil
	}

	return expression
}

func (p *BoolParser) parseInfixExpression(left BoolExpression) BoolExpression {
	expression := &InfixExpression{Operator: p.curToken.Type, Left: left}

	precedence := p.curPrecedence()
	p.nextToken()

	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		p.addError("expected expression after %s", expression.Operator)
		return nil
	}

	return expression
}

// parseGroup turns delimited text into a leaf, or parses it again when the
// text is itself a boolean expression
func (p *BoolParser) parseGroup() BoolExpression {
	text := p.curToken.Literal
	p.nextToken()

	if text == "" {
		p.addError("empty sub-expression")
		return nil
	}

	if !looksBoolean(text) {
		return &LeafExpression{Text: text}
	}

	inner, err := ParseBoolean(text)
	if err != nil {
		p.errors = append(p.errors, err)
		return nil
	}

	return inner
}

// looksBoolean reports whether text starts like a boolean expression: an
// opening delimiter, or NOT followed by one
func looksBoolean(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	if _, ok := closingDelimiters[text[0]]; ok {
		return true
	}

	rest, ok := strings.CutPrefix(text, "NOT ")
	if !ok {
		return false
	}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return false
	}
	_, ok = closingDelimiters[rest[0]]
	return ok
}
