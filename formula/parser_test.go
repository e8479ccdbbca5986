package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseArithmetic(t *testing.T, input string) (ASTNode, error) {
	t.Helper()
	tokens, err := NewLexer(input).Tokenize()
	require.NoError(t, err)
	return NewParser(tokens, input).ParseArithmetic()
}

func parseCall(t *testing.T, input string) (*CallNode, error) {
	t.Helper()
	tokens, err := NewLexer(input).Tokenize()
	require.NoError(t, err)
	return NewParser(tokens, input).ParseCall()
}

func TestParseArithmetic(t *testing.T) {
	valid := []string{
		"1+2",
		"1+2*3",
		"(1+2)*3",
		"-A1",
		"A1+B2/2",
		"--1",
		"1.5/.5",
	}
	for _, input := range valid {
		t.Run(input, func(t *testing.T) {
			node, err := parseArithmetic(t, input)
			require.NoError(t, err)
			assert.NotNil(t, node)
		})
	}
}

func TestParseArithmeticRejects(t *testing.T) {
	invalid := []string{
		"",
		"1+",
		"(1+2",
		"1 2",
		"A1>1",    // comparisons are not part of the arithmetic grammar
		"SUM(A1)", // neither are function calls
	}
	for _, input := range invalid {
		t.Run(input, func(t *testing.T) {
			tokens, err := NewLexer(input).Tokenize()
			if err != nil {
				return // lexer already rejected it
			}
			_, err = NewParser(tokens, input).ParseArithmetic()
			assert.Error(t, err)
		})
	}
}

func TestParsePrecedence(t *testing.T) {
	node, err := parseArithmetic(t, "1+2*3")
	require.NoError(t, err)

	root, ok := node.(*BinaryOpNode)
	require.True(t, ok)
	assert.Equal(t, BinOpAdd, root.Op)

	right, ok := root.Right.(*BinaryOpNode)
	require.True(t, ok)
	assert.Equal(t, BinOpMultiply, right.Op)
}

func TestParseCall(t *testing.T) {
	call, err := parseCall(t, "SUM(A1:A3, B1)")
	require.NoError(t, err)

	assert.Equal(t, "SUM", call.Name)
	require.Len(t, call.Args, 2)
	assert.IsType(t, &RangeNode{}, call.Args[0])
	assert.IsType(t, &CellNode{}, call.Args[1])
	assert.Equal(t, []string{"A1:A3", "B1"}, call.Raw)
}

func TestParseCallEmptyArgs(t *testing.T) {
	call, err := parseCall(t, "SUM()")
	require.NoError(t, err)
	assert.Empty(t, call.Args)
}

func TestParseCallRawText(t *testing.T) {
	call, err := parseCall(t, `IF(A1>10, "High", "Low")`)
	require.NoError(t, err)

	require.Len(t, call.Raw, 3)
	assert.Equal(t, "A1>10", call.Raw[0])
	assert.Equal(t, `"High"`, call.Raw[1])
	assert.Equal(t, `"Low"`, call.Raw[2])

	cond, ok := call.Args[0].(*BinaryOpNode)
	require.True(t, ok)
	assert.Equal(t, BinOpGreater, cond.Op)
}

func TestParseCallUnparsableArgKeepsRaw(t *testing.T) {
	call, err := parseCall(t, "CONCAT(hello hello, A1)")
	require.NoError(t, err)

	require.Len(t, call.Args, 2)
	assert.Nil(t, call.Args[0])
	assert.Equal(t, "hello hello", call.Raw[0])
	assert.IsType(t, &CellNode{}, call.Args[1])
}

func TestParseCallNestedParens(t *testing.T) {
	call, err := parseCall(t, "IF((A1+1)>2, 1, 2)")
	require.NoError(t, err)
	require.Len(t, call.Args, 3)
	assert.Equal(t, "(A1+1)>2", call.Raw[0])
}

func TestParseCallTrailingTokens(t *testing.T) {
	_, err := parseCall(t, "SUM(A1)+1")
	assert.Error(t, err)
}
