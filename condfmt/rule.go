// Package condfmt evaluates conditional formatting rules: given the
// persisted rules for a sheet and a snapshot of cell values, it picks
// the style of the first matching rule per cell in priority order.
package condfmt

import (
	"encoding/json"

	"github.com/google/uuid"
)

// RuleType names the predicate a rule evaluates
type RuleType string

const (
	RuleCellValue         RuleType = "CELL_VALUE"
	RuleTextContains      RuleType = "TEXT_CONTAINS"
	RuleDuplicateValues   RuleType = "DUPLICATE_VALUES"
	RuleUniqueValues      RuleType = "UNIQUE_VALUES"
	RuleAboveBelowAverage RuleType = "ABOVE_BELOW_AVERAGE"
	RuleTopBottom         RuleType = "TOP_BOTTOM"

	// Declared rule types with no predicate implementation; they
	// never match. TODO: resolve with the owners whether DATE_IS and
	// FORMULA_CUSTOM should gain predicates or be retired.
	RuleDateIs        RuleType = "DATE_IS"
	RuleFormulaCustom RuleType = "FORMULA_CUSTOM"
)

// Rule is a persisted conditional formatting rule. Rules are
// CRUD-owned by the host application; this engine only reads them.
// Condition carries the per-type payload and is decoded on every
// evaluation, nothing is cached per cell.
type Rule struct {
	ID              uuid.UUID       `json:"id"`
	SheetID         uuid.UUID       `json:"sheetId"`
	Name            string          `json:"name"`
	RuleType        RuleType        `json:"ruleType"`
	Condition       json.RawMessage `json:"condition"`
	Range           string          `json:"range"`
	BackgroundColor string          `json:"backgroundColor,omitempty"`
	TextColor       string          `json:"textColor,omitempty"`
	Bold            bool            `json:"bold"`
	Italic          bool            `json:"italic"`
	Priority        int             `json:"priority"` // higher evaluates first
}

// Style is the visual decoration a matching rule applies to a cell
type Style struct {
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
	Bold            bool   `json:"bold"`
	Italic          bool   `json:"italic"`
}

func (r *Rule) style() Style {
	return Style{
		BackgroundColor: r.BackgroundColor,
		TextColor:       r.TextColor,
		Bold:            r.Bold,
		Italic:          r.Italic,
	}
}

// Comparison operators for CELL_VALUE conditions
const (
	OpGreater      = ">"
	OpLess         = "<"
	OpGreaterEqual = ">="
	OpLessEqual    = "<="
	OpEqual        = "="
	OpEqualAlias   = "=="
	OpNotEqual     = "!="
	OpBetween      = "between"
)

// cellValueCondition is the CELL_VALUE payload. Value2 is only used by
// the between operator (inclusive on both bounds).
type cellValueCondition struct {
	Operator string  `json:"operator"`
	Value    float64 `json:"value"`
	Value2   float64 `json:"value2,omitempty"`
}

// textContainsCondition is the TEXT_CONTAINS payload
type textContainsCondition struct {
	Text          string `json:"text"`
	CaseSensitive bool   `json:"caseSensitive"`
}

// averageCondition is the ABOVE_BELOW_AVERAGE payload; Type is
// "above" or "below"
type averageCondition struct {
	Type string `json:"type"`
}

// topBottomCondition is the TOP_BOTTOM payload; Type is "top" or
// "bottom"
type topBottomCondition struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// rangeDependent reports whether the rule type needs the values of
// every cell in its range to evaluate a single cell
func (t RuleType) rangeDependent() bool {
	switch t {
	case RuleDuplicateValues, RuleUniqueValues, RuleAboveBelowAverage, RuleTopBottom:
		return true
	default:
		return false
	}
}
