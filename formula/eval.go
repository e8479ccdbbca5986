package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Value is a computed formula result.
// types:
//   - float64: numeric values
//   - string: text values (CONCAT, IF branches, the "#ERROR!" sentinel)
//   - nil: absent (evaluation failure)
type Value any

// SheetID identifies the sheet a formula's references resolve against
type SheetID = uuid.UUID

// Lookup fetches the current scalar value of a cell from whatever
// storage backs the sheet. Implementations must report ok=false for
// blank cells, for cells whose stored value is itself a formula (this
// engine never evaluates nested formulas), and for cells that do not
// parse as a number.
type Lookup interface {
	CellValue(sheet SheetID, col, row int) (float64, bool)
}

// LookupFunc adapts a function to the Lookup interface
type LookupFunc func(sheet SheetID, col, row int) (float64, bool)

func (f LookupFunc) CellValue(sheet SheetID, col, row int) (float64, bool) {
	return f(sheet, col, row)
}

// PriceSource provides current market prices for ticker formulas
type PriceSource interface {
	Price(symbol string) (float64, error)
}

// Evaluator computes formula values. It is stateless between calls;
// every evaluation operates on the snapshot its lookup exposes.
type Evaluator struct {
	lookup Lookup
	market PriceSource
	log    *zap.Logger
}

// NewEvaluator creates an evaluator. market may be nil when ticker
// formulas are not in use; log may be nil.
func NewEvaluator(lookup Lookup, market PriceSource, log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{lookup: lookup, market: market, log: log}
}

// Evaluate computes the value of a formula for the given sheet. The
// leading '=' is optional in the input. ok is false when evaluation
// fails; failures are never returned as Go errors. The one exception
// to absent-on-failure is the market ticker form, which yields the
// user-visible "#ERROR!" sentinel when the price lookup fails.
func (e *Evaluator) Evaluate(sheet SheetID, formula string) (Value, bool) {
	body := strings.TrimSpace(formula)
	body = strings.TrimPrefix(body, "=")
	if strings.TrimSpace(body) == "" {
		return nil, false
	}

	tokens, err := NewLexer(body).Tokenize()
	if err != nil {
		return nil, false
	}

	// market ticker: the whole formula is $SYMBOL
	if len(tokens) == 2 && tokens[0].Type == TokenTicker {
		return e.evalTicker(tokens[0].Value)
	}

	// recognized function call spanning the whole formula
	if tokens[0].Type == TokenFunction {
		call, err := NewParser(tokens, body).ParseCall()
		if err != nil {
			return nil, false
		}
		return e.evalCall(sheet, call)
	}

	// fallback: pure arithmetic with cell references substituted
	return e.evalArithmetic(sheet, tokens, body)
}

func (e *Evaluator) evalTicker(symbol string) (Value, bool) {
	if e.market == nil {
		return ErrorSentinel, true
	}
	price, err := e.market.Price(symbol)
	if err != nil {
		e.log.Warn("market price lookup failed",
			zap.String("symbol", symbol),
			zap.Error(err))
		return ErrorSentinel, true
	}
	return price, true
}

func (e *Evaluator) evalCall(sheet SheetID, call *CallNode) (Value, bool) {
	env := &env{sheet: sheet, lookup: e.lookup}

	switch call.Name {
	case "SUM":
		return e.sum(env, call), true
	case "AVERAGE", "AVG":
		return e.average(env, call), true
	case "COUNT":
		return e.count(env, call), true
	case "MIN":
		return e.minimum(env, call), true
	case "MAX":
		return e.maximum(env, call), true
	case "PRODUCT":
		return e.product(env, call), true
	case "CONCAT":
		return e.concat(env, call), true
	case "IF":
		return e.conditional(env, call)
	default:
		return nil, false
	}
}

func (e *Evaluator) evalArithmetic(sheet SheetID, tokens []Token, body string) (Value, bool) {
	node, err := NewParser(tokens, body).ParseArithmetic()
	if err != nil {
		return nil, false
	}

	env := &env{sheet: sheet, lookup: e.lookup}
	result, err := node.Eval(env)
	if err != nil {
		return nil, false
	}

	num, ok := toNumber(result)
	if !ok || math.IsNaN(num) || math.IsInf(num, 0) {
		return nil, false
	}
	return num, true
}

// toNumber converts a value to a number, returning ok=false if the
// conversion fails
func toNumber(value Value) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		num, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return num, true
	default:
		return 0, false
	}
}

// formatNumber renders a number without unnecessary decimals
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return fmt.Sprintf("%g", v)
}

// stripQuotes removes one pair of surrounding single or double quotes
func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
