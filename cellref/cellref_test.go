package cellref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		ref  string
		want Coord
		ok   bool
	}{
		{"A1", Coord{0, 0}, true},
		{"B12", Coord{1, 11}, true},
		{"Z1", Coord{25, 0}, true},
		{"AA1", Coord{26, 0}, true},
		{"b2", Coord{1, 1}, true}, // case-insensitive
		{" C3 ", Coord{2, 2}, true},
		{"A0", Coord{}, false},
		{"A", Coord{}, false},
		{"1", Coord{}, false},
		{"A1B", Coord{}, false},
		{"", Coord{}, false},
		{"$A1", Coord{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.ref, func(t *testing.T) {
			got, ok := Parse(tc.ref)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestColumnLettersRoundTrip(t *testing.T) {
	concrete := map[int]string{
		0:   "A",
		25:  "Z",
		26:  "AA",
		27:  "AB",
		701: "ZZ",
		702: "AAA",
	}
	for n, letters := range concrete {
		assert.Equal(t, letters, ColumnToLetters(n))
		assert.Equal(t, n, LettersToColumn(letters))
	}

	// lossless for all non-negative indices; a few thousand is plenty
	for n := 0; n < 20000; n++ {
		require.Equal(t, n, LettersToColumn(ColumnToLetters(n)), "n=%d", n)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "A1", Format(Coord{0, 0}))
	assert.Equal(t, "AB3", Format(Coord{27, 2}))
}

func TestExpand(t *testing.T) {
	t.Run("single cell", func(t *testing.T) {
		coords := Expand("A1", "A1")
		require.Len(t, coords, 1)
		assert.Equal(t, Coord{0, 0}, coords[0])
	})

	t.Run("rows outer columns inner", func(t *testing.T) {
		coords := Expand("A1", "B2")
		assert.Equal(t, []Coord{{0, 0}, {1, 0}, {0, 1}, {1, 1}}, coords)
	})

	t.Run("reversed endpoints normalize", func(t *testing.T) {
		assert.Equal(t, Expand("A1", "B2"), Expand("B2", "A1"))
	})

	t.Run("bad endpoint is empty", func(t *testing.T) {
		assert.Nil(t, Expand("A1", "nope"))
		assert.Nil(t, ExpandRange("xx:A1"))
	})
}

func TestInRange(t *testing.T) {
	cases := []struct {
		ref, rng string
		want     bool
	}{
		{"B2", "A1:C3", true},
		{"D1", "A1:C3", false},
		{"A1", "A1", true},
		{"A2", "A1", false},
		{"C3", "C3:A1", true}, // endpoint order irrelevant
		{"B2", "bogus", false},
		{"bogus", "A1:C3", false},
		{"A1", "A1:B2:C3", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, InRange(tc.ref, tc.rng), "%s in %s", tc.ref, tc.rng)
	}
}
