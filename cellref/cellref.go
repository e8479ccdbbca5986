// Package cellref converts between A1-style cell references and
// zero-based (column, row) coordinates, and expands range references
// into the rectangular coordinate sets they cover.
package cellref

import (
	"strconv"
	"strings"
)

// Coord is a zero-based (column, row) cell coordinate. Coordinates are
// derived from A1 notation and never persisted directly.
type Coord struct {
	Col int
	Row int
}

// Parse converts an A1-style reference like "B12" into a coordinate.
// Input is case-insensitive. ok is false for anything that is not
// letters followed by digits.
func Parse(ref string) (Coord, bool) {
	ref = strings.ToUpper(strings.TrimSpace(ref))

	// find where letters end and digits begin
	letterEnd := 0
	for i, ch := range ref {
		if ch >= 'A' && ch <= 'Z' {
			letterEnd = i + 1
		} else {
			break
		}
	}

	// must have at least one letter and one digit
	if letterEnd == 0 || letterEnd == len(ref) {
		return Coord{}, false
	}
	for i := letterEnd; i < len(ref); i++ {
		if ref[i] < '0' || ref[i] > '9' {
			return Coord{}, false
		}
	}

	row, err := strconv.Atoi(ref[letterEnd:])
	if err != nil || row < 1 {
		return Coord{}, false
	}

	return Coord{
		Col: LettersToColumn(ref[:letterEnd]),
		Row: row - 1,
	}, true
}

// LettersToColumn converts column letters to a zero-based index using
// bijective base-26 (A=0, Z=25, AA=26, ...). Input must be uppercase
// letters; anything else yields an unspecified result, callers validate
// with Parse first.
func LettersToColumn(letters string) int {
	col := 0
	for i, ch := range letters {
		col = col*26 + int(ch-'A')
		if i < len(letters)-1 {
			col++ // no digit for zero in bijective base-26
		}
	}
	return col
}

// ColumnToLetters converts a zero-based column index to letters.
// Inverse of LettersToColumn for all n >= 0.
func ColumnToLetters(n int) string {
	var b []byte
	for {
		b = append([]byte{byte('A' + n%26)}, b...)
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	return string(b)
}

// Format renders a coordinate back to A1 notation.
func Format(c Coord) string {
	return ColumnToLetters(c.Col) + strconv.Itoa(c.Row+1)
}

// Expand produces every coordinate in the inclusive bounding rectangle
// of two references, rows outer, columns inner. Endpoint order in the
// input is irrelevant. Returns nil if either endpoint fails to parse.
func Expand(startRef, endRef string) []Coord {
	start, ok := Parse(startRef)
	if !ok {
		return nil
	}
	end, ok := Parse(endRef)
	if !ok {
		return nil
	}

	minRow, maxRow := min(start.Row, end.Row), max(start.Row, end.Row)
	minCol, maxCol := min(start.Col, end.Col), max(start.Col, end.Col)

	coords := make([]Coord, 0, (maxRow-minRow+1)*(maxCol-minCol+1))
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			coords = append(coords, Coord{Col: col, Row: row})
		}
	}
	return coords
}

// ExpandRange expands a range string like "A1:C10" or a single
// reference like "B2". Returns nil on any parse failure.
func ExpandRange(rng string) []Coord {
	start, end, ok := SplitRange(rng)
	if !ok {
		return nil
	}
	return Expand(start, end)
}

// SplitRange splits "A1:C10" into its endpoints. A single reference is
// returned as both endpoints. ok is false when there is more than one
// colon.
func SplitRange(rng string) (start, end string, ok bool) {
	parts := strings.Split(rng, ":")
	switch len(parts) {
	case 1:
		return parts[0], parts[0], true
	case 2:
		return parts[0], parts[1], true
	default:
		return "", "", false
	}
}

// InRange reports whether ref falls inside the inclusive bounding
// rectangle of rangeStr. A range with no colon matches only the exact
// same cell. Fails closed on any parse failure.
func InRange(ref, rangeStr string) bool {
	c, ok := Parse(ref)
	if !ok {
		return false
	}

	if !strings.Contains(rangeStr, ":") {
		rc, ok := Parse(rangeStr)
		return ok && rc == c
	}

	startRef, endRef, ok := SplitRange(rangeStr)
	if !ok {
		return false
	}
	start, ok := Parse(startRef)
	if !ok {
		return false
	}
	end, ok := Parse(endRef)
	if !ok {
		return false
	}

	return c.Row >= min(start.Row, end.Row) && c.Row <= max(start.Row, end.Row) &&
		c.Col >= min(start.Col, end.Col) && c.Col <= max(start.Col, end.Col)
}
