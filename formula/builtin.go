package formula

import (
	"fmt"
	"strconv"
	"strings"

	"gridcalc/cellref"
)

// collectValues gathers every resolvable numeric value from a call's
// arguments. Each argument is either a range, expanded coordinate by
// coordinate, or a single cell reference. Blank and unparsable cells
// are silently skipped, not treated as zero; argument parts that are
// neither references nor ranges contribute nothing.
func (e *Evaluator) collectValues(env *env, call *CallNode) []float64 {
	var values []float64
	if e.lookup == nil {
		return values
	}

	resolve := func(c cellref.Coord) {
		if num, ok := e.lookup.CellValue(env.sheet, c.Col, c.Row); ok {
			values = append(values, num)
		}
	}

	for _, arg := range call.Args {
		switch n := arg.(type) {
		case *RangeNode:
			for _, c := range n.Coords() {
				resolve(c)
			}
		case *CellNode:
			resolve(n.Coord)
		}
	}
	return values
}

func (e *Evaluator) sum(env *env, call *CallNode) Value {
	sum := 0.0
	for _, v := range e.collectValues(env, call) {
		sum += v
	}
	// trim float accumulation noise so =SUM(0.1,0.2)-style chains stay clean
	rounded, _ := strconv.ParseFloat(fmt.Sprintf("%.15f", sum), 64)
	return rounded
}

func (e *Evaluator) average(env *env, call *CallNode) Value {
	values := e.collectValues(env, call)
	if len(values) == 0 {
		return 0.0 // never NaN on an empty range
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func (e *Evaluator) count(env *env, call *CallNode) Value {
	// a count of resolvable numeric values, not of cells
	return float64(len(e.collectValues(env, call)))
}

func (e *Evaluator) minimum(env *env, call *CallNode) Value {
	values := e.collectValues(env, call)
	if len(values) == 0 {
		return 0.0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func (e *Evaluator) maximum(env *env, call *CallNode) Value {
	values := e.collectValues(env, call)
	if len(values) == 0 {
		return 0.0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func (e *Evaluator) product(env *env, call *CallNode) Value {
	values := e.collectValues(env, call)
	// 1 is the running identity, but an empty collection yields 0
	if len(values) == 0 {
		return 0.0
	}
	product := 1.0
	for _, v := range values {
		product *= v
	}
	return product
}

// concat joins its arguments with no separator. A cell reference
// argument is substituted with its stringified value, or the empty
// string when absent; a quoted literal loses its quotes; anything else
// passes through as typed.
func (e *Evaluator) concat(env *env, call *CallNode) Value {
	var b strings.Builder
	for i, raw := range call.Raw {
		switch n := call.Args[i].(type) {
		case *CellNode:
			if e.lookup != nil {
				if num, ok := e.lookup.CellValue(env.sheet, n.Coord.Col, n.Coord.Row); ok {
					b.WriteString(formatNumber(num))
				}
			}
		case *StringNode:
			b.WriteString(n.Value)
		default:
			b.WriteString(stripQuotes(raw))
		}
	}
	return b.String()
}

// conditional implements IF(condition, trueValue, falseValue). The
// condition is evaluated in the sandboxed expression context, where
// cell references substitute as numbers (0 when absent) and nothing
// with naming or call capability is reachable; a condition that did
// not parse as such an expression is simply false. Commas past the
// second top-level one belong to the false branch.
func (e *Evaluator) conditional(env *env, call *CallNode) (Value, bool) {
	if len(call.Raw) < 3 {
		return nil, false
	}

	condition := false
	if cond := call.Args[0]; cond != nil {
		if result, err := cond.Eval(env); err == nil {
			switch v := result.(type) {
			case bool:
				condition = v
			case float64:
				condition = v != 0
			}
		}
	}

	branch := call.Raw[1]
	if !condition {
		branch = strings.Join(call.Raw[2:], ",")
	}
	return e.resolveBranch(env, strings.TrimSpace(branch)), true
}

// resolveBranch turns a chosen IF branch into a value: a bare cell
// reference substitutes its value (0 when absent), anything else is a
// literal with surrounding quotes stripped.
func (e *Evaluator) resolveBranch(env *env, branch string) Value {
	if coord, ok := cellref.Parse(branch); ok {
		if e.lookup != nil {
			if num, ok := e.lookup.CellValue(env.sheet, coord.Col, coord.Row); ok {
				return num
			}
		}
		return 0.0
	}
	return stripQuotes(branch)
}
