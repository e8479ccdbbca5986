// Package formula turns spreadsheet formula text into computed values.
// Formulas are tokenized, parsed into a small AST over a fixed grammar
// (market ticker, function call, arithmetic with cell references), and
// evaluated against a caller-supplied value lookup.
package formula

import "strings"

// TokenType represents different types of tokens in formulas
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenEquals
	TokenNumber
	TokenString
	TokenCell
	TokenRange
	TokenTicker
	TokenFunction
	TokenIdentifier
	TokenUnaryPrefixOp
	TokenBinaryOp
	TokenComma
	TokenLeftParen
	TokenRightParen
	TokenWhitespace
	TokenError
)

// character classification constants. slightly easier to read.
const (
	charNull       = 0
	charTab        = '\t'
	charNewline    = '\n'
	charReturn     = '\r'
	charSpace      = ' '
	charQuote      = '"'
	charApostrophe = '\''
	charDollar     = '$'
	charLParen     = '('
	charRParen     = ')'
	charAsterisk   = '*'
	charPlus       = '+'
	charComma      = ','
	charMinus      = '-'
	charPeriod     = '.'
	charSlash      = '/'
	charColon      = ':'
	charLess       = '<'
	charEqual      = '='
	charGreater    = '>'
	charExclaim    = '!'
)

// Token represents a lexical token with position information
type Token struct {
	Type  TokenType
	Value string
	Pos   int // rune position in input
}

// Lexer tokenizes spreadsheet formula expressions
type Lexer struct {
	input      string
	runes      []rune // UTF-8 aware representation
	pos        int
	parenDepth int
	tokens     []Token
}

// NewLexer creates a new lexer for the given formula body (text after
// the leading '=' has been stripped)
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		runes:  []rune(input),
		tokens: []Token{},
	}
}

// Tokenize tokenizes the entire input and returns the tokens, or an
// error describing the first offending character
func (l *Lexer) Tokenize() ([]Token, error) {
	for l.pos < len(l.runes) {
		tok := l.nextToken()
		if tok.Type == TokenError {
			return nil, &Error{Code: ErrParse, Message: tok.Value}
		}
		if tok.Type != TokenWhitespace {
			l.tokens = append(l.tokens, tok)
		}
	}

	if l.parenDepth > 0 {
		return nil, &Error{Code: ErrParse, Message: "unbalanced parentheses: missing closing parenthesis"}
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Pos: l.pos})
	return l.tokens, nil
}

// nextToken returns the next token from the input
func (l *Lexer) nextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.runes) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	startPos := l.pos
	ch := l.current()

	// string literals, either quote style
	if ch == charQuote || ch == charApostrophe {
		return l.scanString(ch)
	}

	// market ticker symbols
	if ch == charDollar {
		return l.scanTicker()
	}

	// numbers, including a leading decimal point
	if isDigit(ch) || (ch == charPeriod && isDigit(l.peek(1))) {
		return l.scanNumber()
	}

	switch ch {
	case charLParen:
		l.pos++
		l.parenDepth++
		return Token{Type: TokenLeftParen, Value: "(", Pos: startPos}
	case charRParen:
		l.pos++
		l.parenDepth--
		if l.parenDepth < 0 {
			return Token{Type: TokenError, Value: "unexpected closing parenthesis", Pos: startPos}
		}
		return Token{Type: TokenRightParen, Value: ")", Pos: startPos}
	case charComma:
		l.pos++
		return Token{Type: TokenComma, Value: ",", Pos: startPos}
	case charPlus, charMinus, charAsterisk, charSlash:
		l.pos++
		return Token{Type: TokenBinaryOp, Value: string(ch), Pos: startPos}
	case charLess, charGreater, charEqual, charExclaim:
		return l.scanComparisonOp()
	}

	if isAlpha(ch) {
		return l.scanIdentifierOrCell()
	}

	l.pos++
	return Token{Type: TokenError, Value: "unexpected character: " + string(ch), Pos: startPos}
}

// helper methods for character navigation and classification

func (l *Lexer) substring(start, end int) string {
	if start < 0 || end > len(l.runes) || start > end {
		return ""
	}
	return string(l.runes[start:end])
}

func (l *Lexer) current() rune {
	if l.pos >= len(l.runes) {
		return charNull
	}
	return l.runes[l.pos]
}

func (l *Lexer) peek(offset int) rune {
	pos := l.pos + offset
	if pos >= len(l.runes) || pos < 0 {
		return charNull
	}
	return l.runes[pos]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.runes) {
		ch := l.current()
		if ch == charSpace || ch == charTab || ch == charNewline || ch == charReturn {
			l.pos++
		} else {
			break
		}
	}
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isAlphaNumeric(ch rune) bool {
	return isAlpha(ch) || isDigit(ch)
}

// scanNumber scans a number token including decimals
func (l *Lexer) scanNumber() Token {
	startPos := l.pos

	for l.pos < len(l.runes) && isDigit(l.current()) {
		l.pos++
	}

	if l.current() == charPeriod {
		l.pos++ // consume '.'
		for l.pos < len(l.runes) && isDigit(l.current()) {
			l.pos++
		}
	}

	return Token{Type: TokenNumber, Value: l.substring(startPos, l.pos), Pos: startPos}
}

// scanString scans a string literal delimited by the given quote rune.
// a doubled quote inside the literal is an escape for the quote itself.
func (l *Lexer) scanString(quote rune) Token {
	startPos := l.pos
	l.pos++ // consume opening quote

	var result []rune
	for l.pos < len(l.runes) {
		ch := l.current()
		if ch == quote {
			if l.peek(1) == quote {
				result = append(result, quote)
				l.pos += 2
				continue
			}
			l.pos++ // consume closing quote
			return Token{Type: TokenString, Value: string(result), Pos: startPos}
		}
		result = append(result, ch)
		l.pos++
	}

	return Token{Type: TokenError, Value: "unclosed string literal", Pos: startPos}
}

// scanTicker scans a market ticker reference like $AAPL. the symbol
// must be one or more uppercase letters.
func (l *Lexer) scanTicker() Token {
	startPos := l.pos
	l.pos++ // consume '$'

	symStart := l.pos
	for l.pos < len(l.runes) && l.current() >= 'A' && l.current() <= 'Z' {
		l.pos++
	}

	symbol := l.substring(symStart, l.pos)
	if symbol == "" {
		return Token{Type: TokenError, Value: "expected ticker symbol after '$'", Pos: startPos}
	}
	return Token{Type: TokenTicker, Value: symbol, Pos: startPos}
}

// scanIdentifierOrCell scans identifiers, functions, cells, and ranges
func (l *Lexer) scanIdentifierOrCell() Token {
	startPos := l.pos

	for l.pos < len(l.runes) && isAlphaNumeric(l.current()) {
		l.pos++
	}

	value := l.substring(startPos, l.pos)

	if isCell(value) {
		// check for a range (A1:B2)
		if l.current() == charColon {
			savedPos := l.pos
			l.pos++ // consume ':'

			cellStart := l.pos
			for l.pos < len(l.runes) && isAlphaNumeric(l.current()) {
				l.pos++
			}

			if isCell(l.substring(cellStart, l.pos)) {
				return Token{Type: TokenRange, Value: l.substring(startPos, l.pos), Pos: startPos}
			}
			// not a valid range, restore and return just the cell
			l.pos = savedPos
		}
		return Token{Type: TokenCell, Value: strings.ToUpper(value), Pos: startPos}
	}

	// a function name is an identifier followed by an open paren
	if l.current() == charLParen {
		return Token{Type: TokenFunction, Value: strings.ToUpper(value), Pos: startPos}
	}

	return Token{Type: TokenIdentifier, Value: value, Pos: startPos}
}

// scanComparisonOp scans the comparison operators, preferring the
// two-character forms
func (l *Lexer) scanComparisonOp() Token {
	startPos := l.pos
	ch := l.current()

	switch ch {
	case charLess:
		l.pos++
		if l.current() == charEqual {
			l.pos++
			return Token{Type: TokenBinaryOp, Value: "<=", Pos: startPos}
		}
		if l.current() == charGreater {
			l.pos++
			return Token{Type: TokenBinaryOp, Value: "<>", Pos: startPos}
		}
		return Token{Type: TokenBinaryOp, Value: "<", Pos: startPos}
	case charGreater:
		l.pos++
		if l.current() == charEqual {
			l.pos++
			return Token{Type: TokenBinaryOp, Value: ">=", Pos: startPos}
		}
		return Token{Type: TokenBinaryOp, Value: ">", Pos: startPos}
	case charEqual:
		l.pos++
		if l.current() == charEqual {
			l.pos++ // treat == the same as =
		}
		return Token{Type: TokenBinaryOp, Value: "=", Pos: startPos}
	case charExclaim:
		l.pos++
		if l.current() == charEqual {
			l.pos++
			return Token{Type: TokenBinaryOp, Value: "!=", Pos: startPos}
		}
		return Token{Type: TokenError, Value: "unexpected '!'", Pos: startPos}
	}

	return Token{Type: TokenError, Value: "unknown operator", Pos: startPos}
}

// isCell checks if a string is a valid cell reference (e.g., A1, B12)
func isCell(s string) bool {
	if len(s) < 2 {
		return false
	}

	// find where letters end and numbers begin
	letterEnd := 0
	for i, ch := range s {
		if isAlpha(ch) {
			letterEnd = i + 1
		} else {
			break
		}
	}

	// must have at least one letter and one digit
	if letterEnd == 0 || letterEnd == len(s) {
		return false
	}

	for i := letterEnd; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
