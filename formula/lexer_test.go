package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(t *testing.T, input string) []TokenType {
	t.Helper()
	tokens, err := NewLexer(input).Tokenize()
	require.NoError(t, err)
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestLexerBasics(t *testing.T) {
	cases := []struct {
		input string
		want  []TokenType
	}{
		{"1+2", []TokenType{TokenNumber, TokenBinaryOp, TokenNumber, TokenEOF}},
		{"A1", []TokenType{TokenCell, TokenEOF}},
		{"a1", []TokenType{TokenCell, TokenEOF}},
		{"A1:B2", []TokenType{TokenRange, TokenEOF}},
		{"SUM(A1:A10)", []TokenType{TokenFunction, TokenLeftParen, TokenRange, TokenRightParen, TokenEOF}},
		{"$AAPL", []TokenType{TokenTicker, TokenEOF}},
		{`"hello"`, []TokenType{TokenString, TokenEOF}},
		{"'hello'", []TokenType{TokenString, TokenEOF}},
		{"A1>10", []TokenType{TokenCell, TokenBinaryOp, TokenNumber, TokenEOF}},
		{"A1<=10", []TokenType{TokenCell, TokenBinaryOp, TokenNumber, TokenEOF}},
		{"A1!=B1", []TokenType{TokenCell, TokenBinaryOp, TokenCell, TokenEOF}},
		{"A1<>B1", []TokenType{TokenCell, TokenBinaryOp, TokenCell, TokenEOF}},
		{"1.5*.5", []TokenType{TokenNumber, TokenBinaryOp, TokenNumber, TokenEOF}},
		{"hello", []TokenType{TokenIdentifier, TokenEOF}},
		{"IF(A1>1,2,3)", []TokenType{
			TokenFunction, TokenLeftParen, TokenCell, TokenBinaryOp, TokenNumber,
			TokenComma, TokenNumber, TokenComma, TokenNumber, TokenRightParen, TokenEOF,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, tokenTypes(t, tc.input))
		})
	}
}

func TestLexerValues(t *testing.T) {
	tokens, err := NewLexer(`CONCAT(A1, "a ""b""", 'c')`).Tokenize()
	require.NoError(t, err)

	assert.Equal(t, "CONCAT", tokens[0].Value)
	assert.Equal(t, "A1", tokens[2].Value)
	assert.Equal(t, `a "b"`, tokens[4].Value)
	assert.Equal(t, "c", tokens[6].Value)
}

func TestLexerTicker(t *testing.T) {
	tokens, err := NewLexer("$GOOG").Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, TokenTicker, tokens[0].Type)
	assert.Equal(t, "GOOG", tokens[0].Value)

	// symbols are uppercase only
	_, err = NewLexer("$goog").Tokenize()
	assert.Error(t, err)
}

func TestLexerErrors(t *testing.T) {
	invalid := []string{
		`"unclosed`,
		"'unclosed",
		"$",
		"SUM(A1",
		"A1)",
		"!",
		"a1 & b2",
		"a;b",
	}
	for _, input := range invalid {
		t.Run(input, func(t *testing.T) {
			_, err := NewLexer(input).Tokenize()
			assert.Error(t, err)
		})
	}
}

func TestIsCell(t *testing.T) {
	assert.True(t, isCell("A1"))
	assert.True(t, isCell("zz99"))
	assert.False(t, isCell("A"))
	assert.False(t, isCell("123"))
	assert.False(t, isCell("A1B"))
}
