package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gridcalc/cellref"
)

// BinaryOp represents binary operators in AST nodes
type BinaryOp int

const (
	BinOpAdd BinaryOp = iota
	BinOpSubtract
	BinOpMultiply
	BinOpDivide
	BinOpEqual
	BinOpNotEqual
	BinOpLess
	BinOpLessEqual
	BinOpGreater
	BinOpGreaterEqual
)

// UnaryOp represents unary operators in AST nodes
type UnaryOp int

const (
	UnaryOpPlus UnaryOp = iota
	UnaryOpMinus
)

// ASTNode is an expression tree node. Nodes evaluate against an env;
// cell and range references resolve through it.
type ASTNode interface {
	Eval(env *env) (Value, error)
}

// env is the evaluation environment for expression nodes. The same
// environment backs IF conditions: the sandbox there is the grammar
// itself, since identifiers, calls, tickers, ranges, and string
// literals all fail to evaluate in numeric context.
type env struct {
	sheet  SheetID
	lookup Lookup
}

// NumberNode represents a numeric literal
type NumberNode struct {
	Value float64
}

func (n *NumberNode) Eval(env *env) (Value, error) {
	return n.Value, nil
}

// StringNode represents a string literal. String literals have no
// meaning inside numeric expressions; functions consume them through
// the raw argument text instead.
type StringNode struct {
	Value string
}

func (n *StringNode) Eval(env *env) (Value, error) {
	return nil, errValue("string literal in numeric expression")
}

// CellNode represents a single cell reference
type CellNode struct {
	Ref   string
	Coord cellref.Coord
}

// Eval substitutes the cell's numeric value, defaulting to 0 for
// blank, non-numeric, or formula-valued cells.
func (n *CellNode) Eval(env *env) (Value, error) {
	if env.lookup == nil {
		return 0.0, nil
	}
	num, ok := env.lookup.CellValue(env.sheet, n.Coord.Col, n.Coord.Row)
	if !ok {
		return 0.0, nil
	}
	return num, nil
}

// RangeNode represents a rectangular range of cells. Ranges are only
// meaningful as function arguments; evaluating one as a scalar fails.
type RangeNode struct {
	Text  string
	Start cellref.Coord
	End   cellref.Coord
}

func (n *RangeNode) Eval(env *env) (Value, error) {
	return nil, errValue("range used as a scalar value")
}

// Coords enumerates the range's coordinates, rows outer, columns inner
func (n *RangeNode) Coords() []cellref.Coord {
	return cellref.Expand(cellref.Format(n.Start), cellref.Format(n.End))
}

// IdentNode represents a bare identifier. Identifiers have no binding
// in this engine, so evaluation always fails.
type IdentNode struct {
	Name string
}

func (n *IdentNode) Eval(env *env) (Value, error) {
	return nil, &Error{Code: ErrName, Message: fmt.Sprintf("unknown identifier: %s", n.Name)}
}

// TickerNode represents a market ticker reference like $AAPL. Tickers
// are only valid as a whole formula; the evaluator handles them before
// expression evaluation.
type TickerNode struct {
	Symbol string
}

func (n *TickerNode) Eval(env *env) (Value, error) {
	return nil, errValue("ticker reference in expression")
}

// CallNode represents a function call. Args holds the parsed argument
// expressions; an argument that did not parse is a nil entry. Raw
// holds the verbatim source text of each argument so functions with
// textual semantics (CONCAT, IF branches) see exactly what was typed.
type CallNode struct {
	Name string
	Args []ASTNode
	Raw  []string
}

func (n *CallNode) Eval(env *env) (Value, error) {
	return nil, errValue("function call in expression")
}

// BinaryOpNode represents a binary operation
type BinaryOpNode struct {
	Op    BinaryOp
	Left  ASTNode
	Right ASTNode
}

func (n *BinaryOpNode) Eval(env *env) (Value, error) {
	leftVal, err := n.Left.Eval(env)
	if err != nil {
		return nil, err
	}
	rightVal, err := n.Right.Eval(env)
	if err != nil {
		return nil, err
	}

	left, ok := toNumber(leftVal)
	if !ok {
		return nil, errValue("operand is not numeric")
	}
	right, ok := toNumber(rightVal)
	if !ok {
		return nil, errValue("operand is not numeric")
	}

	switch n.Op {
	case BinOpAdd:
		return left + right, nil
	case BinOpSubtract:
		return left - right, nil
	case BinOpMultiply:
		return left * right, nil
	case BinOpDivide:
		if right == 0 {
			return nil, &Error{Code: ErrDiv0, Message: "division by zero"}
		}
		return left / right, nil
	case BinOpEqual:
		return left == right, nil
	case BinOpNotEqual:
		return left != right, nil
	case BinOpLess:
		return left < right, nil
	case BinOpLessEqual:
		return left <= right, nil
	case BinOpGreater:
		return left > right, nil
	case BinOpGreaterEqual:
		return left >= right, nil
	default:
		return nil, errValue("unknown operator")
	}
}

// UnaryOpNode represents a unary operation
type UnaryOpNode struct {
	Op      UnaryOp
	Operand ASTNode
}

func (n *UnaryOpNode) Eval(env *env) (Value, error) {
	val, err := n.Operand.Eval(env)
	if err != nil {
		return nil, err
	}
	num, ok := toNumber(val)
	if !ok {
		return nil, errValue("unary operator requires a numeric value")
	}
	if n.Op == UnaryOpMinus {
		return -num, nil
	}
	return num, nil
}

// Parser parses tokens into an AST
type Parser struct {
	tokens []Token
	runes  []rune // source text, for raw argument capture
	pos    int
}

// NewParser creates a parser over tokens produced from src
func NewParser(tokens []Token, src string) *Parser {
	return &Parser{
		tokens: tokens,
		runes:  []rune(src),
	}
}

// ParseExpression parses a full comparison expression and requires all
// tokens to be consumed. This is the grammar for IF conditions.
func (p *Parser) ParseExpression() (ASTNode, error) {
	node, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return node, nil
}

// ParseArithmetic parses an additive expression with no comparison
// operators, the grammar for fallback arithmetic formulas. A dangling
// comparison operator is an unexpected token, so formulas outside the
// arithmetic character set fail here rather than half-evaluating.
func (p *Parser) ParseArithmetic() (ASTNode, error) {
	node, err := p.parseAddition()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return node, nil
}

// ParseCall parses a whole-formula function call and requires all
// tokens to be consumed.
func (p *Parser) ParseCall() (*CallNode, error) {
	if p.peekType() != TokenFunction {
		return nil, &Error{Code: ErrParse, Message: "expected function name"}
	}
	name := p.tokens[p.pos].Value
	p.pos++

	if p.peekType() != TokenLeftParen {
		return nil, &Error{Code: ErrParse, Message: "expected '(' after function name"}
	}
	p.pos++

	node := &CallNode{Name: name}

	if p.peekType() == TokenRightParen {
		p.pos++
		if err := p.expectEOF(); err != nil {
			return nil, err
		}
		return node, nil
	}

	for {
		arg, raw, terminator, err := p.parseCallArg()
		if err != nil {
			return nil, err
		}
		node.Args = append(node.Args, arg)
		node.Raw = append(node.Raw, raw)
		if terminator == TokenRightParen {
			break
		}
	}

	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return node, nil
}

// parseCallArg consumes one argument up to the next top-level comma or
// the closing parenthesis. The tokens are parsed as an expression on
// their own; if they do not form one, the parsed node is nil and only
// the raw text survives, which mirrors the engine treating unparsable
// argument parts as unresolvable rather than failing the whole call.
func (p *Parser) parseCallArg() (ASTNode, string, TokenType, error) {
	start := p.pos
	depth := 0

	for {
		if p.pos >= len(p.tokens) {
			return nil, "", TokenEOF, &Error{Code: ErrParse, Message: "unexpected end in function arguments"}
		}
		tok := p.tokens[p.pos]
		switch tok.Type {
		case TokenEOF:
			return nil, "", TokenEOF, &Error{Code: ErrParse, Message: "unexpected end in function arguments"}
		case TokenLeftParen:
			depth++
		case TokenRightParen:
			if depth == 0 {
				return p.finishCallArg(start, p.pos, TokenRightParen)
			}
			depth--
		case TokenComma:
			if depth == 0 {
				return p.finishCallArg(start, p.pos, TokenComma)
			}
		}
		p.pos++
	}
}

// finishCallArg builds the node and raw text for the argument tokens
// in [start, end) and consumes the terminator token.
func (p *Parser) finishCallArg(start, end int, terminator TokenType) (ASTNode, string, TokenType, error) {
	raw := strings.TrimSpace(string(p.runes[p.tokens[start].Pos:p.tokens[end].Pos]))

	segment := make([]Token, end-start, end-start+1)
	copy(segment, p.tokens[start:end])
	segment = append(segment, Token{Type: TokenEOF, Pos: p.tokens[end].Pos})

	sub := &Parser{tokens: segment, runes: p.runes}
	node, err := sub.ParseExpression()
	if err != nil {
		node = nil // keep the raw text, drop the unparsable node
	}

	p.pos = end + 1 // consume the terminator
	return node, raw, terminator, nil
}

func (p *Parser) peekType() TokenType {
	if p.pos >= len(p.tokens) {
		return TokenEOF
	}
	return p.tokens[p.pos].Type
}

func (p *Parser) expectEOF() error {
	if p.peekType() != TokenEOF {
		return &Error{Code: ErrParse, Message: fmt.Sprintf("unexpected token after expression: %s", p.tokens[p.pos].Value)}
	}
	return nil
}

// parseComparison handles comparison operators (lowest precedence)
func (p *Parser) parseComparison() (ASTNode, error) {
	left, err := p.parseAddition()
	if err != nil {
		return nil, err
	}

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		if tok.Type != TokenBinaryOp {
			break
		}

		var op BinaryOp
		switch tok.Value {
		case "=":
			op = BinOpEqual
		case "<>", "!=":
			op = BinOpNotEqual
		case "<":
			op = BinOpLess
		case "<=":
			op = BinOpLessEqual
		case ">":
			op = BinOpGreater
		case ">=":
			op = BinOpGreaterEqual
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parseAddition()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{Op: op, Left: left, Right: right}
	}

	return left, nil
}

// parseAddition handles addition and subtraction
func (p *Parser) parseAddition() (ASTNode, error) {
	left, err := p.parseMultiplication()
	if err != nil {
		return nil, err
	}

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		if tok.Type != TokenBinaryOp {
			break
		}

		var op BinaryOp
		switch tok.Value {
		case "+":
			op = BinOpAdd
		case "-":
			op = BinOpSubtract
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parseMultiplication()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{Op: op, Left: left, Right: right}
	}

	return left, nil
}

// parseMultiplication handles multiplication and division
func (p *Parser) parseMultiplication() (ASTNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		if tok.Type != TokenBinaryOp {
			break
		}

		var op BinaryOp
		switch tok.Value {
		case "*":
			op = BinOpMultiply
		case "/":
			op = BinOpDivide
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{Op: op, Left: left, Right: right}
	}

	return left, nil
}

// parseUnary handles prefix plus and minus
func (p *Parser) parseUnary() (ASTNode, error) {
	if p.pos >= len(p.tokens) {
		return nil, &Error{Code: ErrParse, Message: "unexpected end of expression"}
	}

	tok := p.tokens[p.pos]
	if tok.Type == TokenBinaryOp && (tok.Value == "+" || tok.Value == "-") {
		op := UnaryOpPlus
		if tok.Value == "-" {
			op = UnaryOpMinus
		}
		p.pos++
		operand, err := p.parseUnary() // recurse for chained unary operators
		if err != nil {
			return nil, err
		}
		return &UnaryOpNode{Op: op, Operand: operand}, nil
	}

	return p.parsePrimary()
}

// parsePrimary handles literals, references, calls, and parentheses
func (p *Parser) parsePrimary() (ASTNode, error) {
	if p.pos >= len(p.tokens) {
		return nil, &Error{Code: ErrParse, Message: "unexpected end of expression"}
	}

	tok := p.tokens[p.pos]

	switch tok.Type {
	case TokenNumber:
		p.pos++
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil || math.IsInf(val, 0) {
			return nil, &Error{Code: ErrParse, Message: fmt.Sprintf("invalid number: %s", tok.Value)}
		}
		return &NumberNode{Value: val}, nil

	case TokenString:
		p.pos++
		return &StringNode{Value: tok.Value}, nil

	case TokenCell:
		p.pos++
		coord, ok := cellref.Parse(tok.Value)
		if !ok {
			return nil, &Error{Code: ErrRef, Message: fmt.Sprintf("invalid cell reference: %s", tok.Value)}
		}
		return &CellNode{Ref: tok.Value, Coord: coord}, nil

	case TokenRange:
		p.pos++
		startRef, endRef, _ := cellref.SplitRange(tok.Value)
		start, ok := cellref.Parse(startRef)
		if !ok {
			return nil, &Error{Code: ErrRef, Message: fmt.Sprintf("invalid range start: %s", startRef)}
		}
		end, ok := cellref.Parse(endRef)
		if !ok {
			return nil, &Error{Code: ErrRef, Message: fmt.Sprintf("invalid range end: %s", endRef)}
		}
		return &RangeNode{Text: tok.Value, Start: start, End: end}, nil

	case TokenTicker:
		p.pos++
		return &TickerNode{Symbol: tok.Value}, nil

	case TokenIdentifier:
		p.pos++
		return &IdentNode{Name: tok.Value}, nil

	case TokenFunction:
		// nested calls are not part of the grammar; fail like any
		// other unexpected token so the formula resolves to absent
		return nil, &Error{Code: ErrParse, Message: fmt.Sprintf("unexpected function: %s", tok.Value)}

	case TokenLeftParen:
		p.pos++
		node, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if p.peekType() != TokenRightParen {
			return nil, &Error{Code: ErrParse, Message: "expected closing parenthesis"}
		}
		p.pos++
		return node, nil

	default:
		return nil, &Error{Code: ErrParse, Message: fmt.Sprintf("unexpected token: %s", tok.Value)}
	}
}
