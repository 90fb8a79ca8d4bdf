package query

import (
	"strings"
	"unicode"
)

// TokenType identifies a boolean expression token
type TokenType string

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"
	GROUP   TokenType = "GROUP" // delimited text, either a sub-instruction or a nested expression
	AND     TokenType = "AND"
	OR      TokenType = "OR"
	XOR     TokenType = "XOR"
	NOT     TokenType = "NOT"
)

// Token is a lexical unit of a boolean instruction
type Token struct {
	Type     TokenType
	Literal  string
	Position int
}

var operatorWords = map[string]TokenType{
	"AND": AND,
	"OR":  OR,
	"XOR": XOR,
	"NOT": NOT,
}

// closingDelimiters pairs every opening delimiter with its closing one
var closingDelimiters = map[byte]byte{
	'(': ')',
	'[': ']',
	'{': '}',
	'"': '"',
}

// Lexer splits a boolean instruction into operators and delimited groups
type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           byte
}

func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()

	return l
}

// NextToken reads and returns the next token from the input
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	start := l.position

	if l.ch == 0 {
		return Token{Type: EOF, Position: start}
	}

	if closing, ok := closingDelimiters[l.ch]; ok {
		text, ok := l.readGroup(l.ch, closing)
		if !ok {
			return Token{Type: ILLEGAL, Literal: l.input[start:], Position: start}
		}
		return Token{Type: GROUP, Literal: text, Position: start}
	}

	word := l.readWord()
	if word == "" {
		tok := Token{Type: ILLEGAL, Literal: string(l.ch), Position: start}
		l.readChar()
		return tok
	}

	if tt, ok := operatorWords[word]; ok {
		return Token{Type: tt, Literal: word, Position: start}
	}

	return Token{Type: ILLEGAL, Literal: word, Position: start}
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		l.readPosition++

		return
	}

	l.ch = l.input[l.readPosition]
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) skipWhitespace() {
	for l.ch != 0 && unicode.IsSpace(rune(l.ch)) {
		l.readChar()
	}
}

// readGroup consumes a delimited group and returns the text inside it. Nested
// delimiters of the same kind are balanced; quotes do not nest. Inside a
// bracketed group a quoted span is skipped whole, so `(description includes ")")`
// stays one group.
func (l *Lexer) readGroup(open, closing byte) (string, bool) {
	depth := 0
	start := l.position + 1

	for {
		l.readChar()

		switch {
		case l.ch == 0:
			return "", false
		case l.ch == '"' && open != '"':
			if !l.skipQuoted() {
				return "", false
			}
		case l.ch == closing && depth == 0:
			text := l.input[start:l.position]
			l.readChar()
			return strings.TrimSpace(text), true
		case l.ch == closing:
			depth--
		case l.ch == open && open != closing:
			depth++
		}
	}
}

// skipQuoted moves to the quote closing the one under the cursor
func (l *Lexer) skipQuoted() bool {
	for {
		l.readChar()
		switch l.ch {
		case 0:
			return false
		case '"':
			return true
		}
	}
}

func (l *Lexer) readWord() string {
	start := l.position
	for l.ch != 0 && !unicode.IsSpace(rune(l.ch)) {
		if _, ok := closingDelimiters[l.ch]; ok {
			break
		}
		l.readChar()
	}

	return l.input[start:l.position]
}
