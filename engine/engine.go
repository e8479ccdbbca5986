// Package engine is the host-facing surface of the computation engine:
// formula evaluation for the cell-write path and style decisions for
// the render/export paths. It owns no state beyond its collaborators;
// both paths read from whatever snapshot the lookup exposes.
package engine

import (
	"go.uber.org/zap"

	"gridcalc/condfmt"
	"gridcalc/formula"
)

// Computed pairs the raw formula text (what the host persists as the
// cell's formula) with the value cached alongside it for display. A
// nil Value means evaluation failed.
type Computed struct {
	Formula string
	Value   formula.Value
}

// Engine wires the formula evaluator and the rule engine together
type Engine struct {
	eval  *formula.Evaluator
	rules *condfmt.Engine
}

// New creates an engine. market may be nil when ticker formulas are
// not in use; log may be nil.
func New(lookup formula.Lookup, market formula.PriceSource, log *zap.Logger) *Engine {
	return &Engine{
		eval:  formula.NewEvaluator(lookup, market, log),
		rules: condfmt.NewEngine(log),
	}
}

// EvaluateFormula evaluates a written value that begins with '=' and
// returns the formula text together with its computed value.
func (e *Engine) EvaluateFormula(sheet formula.SheetID, text string) Computed {
	value, ok := e.eval.Evaluate(sheet, text)
	if !ok {
		value = nil
	}
	return Computed{Formula: text, Value: value}
}

// StyleForCell returns the style of the first matching rule in
// priority order for one cell, or nil.
func (e *Engine) StyleForCell(ref, value string, rules []condfmt.Rule, rangeValues map[string]string) *condfmt.Style {
	return e.rules.StyleForCell(ref, value, rules, rangeValues)
}

// StyleForSheet returns one style decision per styled cell for a whole
// sheet snapshot.
func (e *Engine) StyleForSheet(rules []condfmt.Rule, cells map[string]string) map[string]condfmt.Style {
	return e.rules.StyleForSheet(rules, cells)
}
