package condfmt

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gridcalc/cellref"
)

// Engine evaluates conditional formatting rules. It is stateless;
// every call works on the rules and values the caller supplies.
type Engine struct {
	log *zap.Logger
}

// NewEngine creates a rule engine. log may be nil.
func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log}
}

// StyleForCell returns the style of the highest-priority matching rule
// for one cell, or nil when no rule matches. rangeValues supplies the
// cell values the range-dependent rule types aggregate over; for each
// such rule only the entries inside that rule's own range are
// considered. It may be nil when no such rule types are present.
func (e *Engine) StyleForCell(ref, value string, rules []Rule, rangeValues map[string]string) *Style {
	ordered := byPriority(rules)

	for i := range ordered {
		rule := &ordered[i]
		if !cellref.InRange(ref, rule.Range) {
			continue
		}
		if e.ruleMatches(rule, value, e.valuesInRange(rule, rangeValues)) {
			s := rule.style()
			return &s
		}
	}
	return nil
}

// StyleForSheet evaluates every rule against every cell in the value
// map and returns one style decision per styled cell. Cells are
// independent, so they are evaluated in parallel; the output carries
// no ordering guarantee.
func (e *Engine) StyleForSheet(rules []Rule, cells map[string]string) map[string]Style {
	ordered := byPriority(rules)

	// compute each rule's in-range value set once, not per cell
	rangeValues := make([]map[string]string, len(ordered))
	for i := range ordered {
		if ordered[i].RuleType.rangeDependent() {
			rangeValues[i] = e.valuesInRange(&ordered[i], cells)
		}
	}

	styles := make(map[string]Style)
	var mu sync.Mutex
	var g errgroup.Group

	for ref, value := range cells {
		ref, value := ref, value
		g.Go(func() error {
			for i := range ordered {
				rule := &ordered[i]
				if !cellref.InRange(ref, rule.Range) {
					continue
				}
				if e.ruleMatches(rule, value, rangeValues[i]) {
					mu.Lock()
					styles[ref] = rule.style()
					mu.Unlock()
					break
				}
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return styles
}

// byPriority returns the rules sorted by descending priority without
// mutating the caller's slice. The sort is stable so equal priorities
// keep their stored order.
func byPriority(rules []Rule) []Rule {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})
	return ordered
}

// valuesInRange filters the candidate values to those inside the
// rule's own range. Only range-dependent rule types need this.
func (e *Engine) valuesInRange(rule *Rule, candidates map[string]string) map[string]string {
	if !rule.RuleType.rangeDependent() || len(candidates) == 0 {
		return nil
	}
	values := make(map[string]string)
	for ref, v := range candidates {
		if cellref.InRange(ref, rule.Range) {
			values[ref] = v
		}
	}
	return values
}

// ruleMatches evaluates one rule's predicate for one cell. A rule
// whose condition cannot be decoded never matches; it is logged and
// skipped so the remaining rules still get evaluated.
func (e *Engine) ruleMatches(rule *Rule, value string, rangeValues map[string]string) bool {
	matched, err := e.evalPredicate(rule, value, rangeValues)
	if err != nil {
		e.log.Warn("invalid rule condition",
			zap.String("rule", rule.ID.String()),
			zap.String("ruleType", string(rule.RuleType)),
			zap.Error(err))
		return false
	}
	return matched
}

func (e *Engine) evalPredicate(rule *Rule, value string, rangeValues map[string]string) (bool, error) {
	switch rule.RuleType {
	case RuleCellValue:
		var cond cellValueCondition
		if err := json.Unmarshal(rule.Condition, &cond); err != nil {
			return false, err
		}
		return matchCellValue(value, cond), nil

	case RuleTextContains:
		var cond textContainsCondition
		if err := json.Unmarshal(rule.Condition, &cond); err != nil {
			return false, err
		}
		if cond.CaseSensitive {
			return strings.Contains(value, cond.Text), nil
		}
		return strings.Contains(strings.ToLower(value), strings.ToLower(cond.Text)), nil

	case RuleDuplicateValues:
		return countOccurrences(value, rangeValues) > 1, nil

	case RuleUniqueValues:
		return countOccurrences(value, rangeValues) == 1, nil

	case RuleAboveBelowAverage:
		var cond averageCondition
		if err := json.Unmarshal(rule.Condition, &cond); err != nil {
			return false, err
		}
		return matchAverage(value, cond, rangeValues), nil

	case RuleTopBottom:
		var cond topBottomCondition
		if err := json.Unmarshal(rule.Condition, &cond); err != nil {
			return false, err
		}
		return matchTopBottom(value, cond, rangeValues), nil

	default:
		// DATE_IS, FORMULA_CUSTOM, and anything unknown never match
		return false, nil
	}
}

func matchCellValue(value string, cond cellValueCondition) bool {
	num, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false
	}

	switch cond.Operator {
	case OpGreater:
		return num > cond.Value
	case OpLess:
		return num < cond.Value
	case OpGreaterEqual:
		return num >= cond.Value
	case OpLessEqual:
		return num <= cond.Value
	case OpEqual, OpEqualAlias:
		return num == cond.Value
	case OpNotEqual:
		return num != cond.Value
	case OpBetween:
		lo, hi := cond.Value, cond.Value2
		if lo > hi {
			lo, hi = hi, lo
		}
		return num >= lo && num <= hi
	default:
		return false
	}
}

func countOccurrences(value string, rangeValues map[string]string) int {
	count := 0
	for _, v := range rangeValues {
		if v == value {
			count++
		}
	}
	return count
}

func matchAverage(value string, cond averageCondition, rangeValues map[string]string) bool {
	num, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false
	}

	sum, count := 0.0, 0
	for _, v := range rangeValues {
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			sum += n
			count++
		}
	}
	if count == 0 {
		return false
	}
	mean := sum / float64(count)

	switch cond.Type {
	case "above":
		return num > mean
	case "below":
		return num < mean
	default:
		return false
	}
}

// matchTopBottom sorts the numeric values in range and keeps the first
// count entries; the cell matches when its value appears among them.
// Membership is by value, so ties at the boundary admit every cell
// holding the boundary value. This mirrors the stored behavior; the
// tie-break intent is an open question with the rule owners.
func matchTopBottom(value string, cond topBottomCondition, rangeValues map[string]string) bool {
	num, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false
	}
	if cond.Count <= 0 {
		return false
	}

	var numbers []float64
	for _, v := range rangeValues {
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			numbers = append(numbers, n)
		}
	}
	if len(numbers) == 0 {
		return false
	}

	switch cond.Type {
	case "top":
		sort.Sort(sort.Reverse(sort.Float64Slice(numbers)))
	case "bottom":
		sort.Float64s(numbers)
	default:
		return false
	}

	if cond.Count < len(numbers) {
		numbers = numbers[:cond.Count]
	}
	for _, n := range numbers {
		if n == num {
			return true
		}
	}
	return false
}
