package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// countingSource records calls and can be flipped into a failure mode
type countingSource struct {
	price float64
	err   error
	calls int
}

func (s *countingSource) Price(symbol string) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.price, nil
}

func newTestCache(source Source) (*Cache, *fakeClock) {
	c := NewCache(source, time.Minute, nil)
	clk := &fakeClock{now: time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)}
	c.clock = clk
	return c, clk
}

func TestCacheServesFreshEntry(t *testing.T) {
	src := &countingSource{price: 190.5}
	c, clk := newTestCache(src)

	price, err := c.Price("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 190.5, price)
	assert.Equal(t, 1, src.calls)

	// inside the freshness window the source is not consulted again
	clk.advance(30 * time.Second)
	src.price = 200
	price, err = c.Price("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 190.5, price)
	assert.Equal(t, 1, src.calls)
}

func TestCacheRefreshesPastFreshness(t *testing.T) {
	src := &countingSource{price: 190.5}
	c, clk := newTestCache(src)

	_, err := c.Price("AAPL")
	require.NoError(t, err)

	clk.advance(time.Minute)
	src.price = 200
	price, err := c.Price("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 200.0, price)
	assert.Equal(t, 2, src.calls)
}

func TestCacheServesStaleOnRefreshFailure(t *testing.T) {
	src := &countingSource{price: 190.5}
	c, clk := newTestCache(src)

	_, err := c.Price("AAPL")
	require.NoError(t, err)

	clk.advance(2 * time.Minute)
	src.err = errors.New("quote service down")
	price, err := c.Price("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 190.5, price)
}

func TestCacheFailsWithoutStaleEntry(t *testing.T) {
	src := &countingSource{err: errors.New("quote service down")}
	c, _ := newTestCache(src)

	_, err := c.Price("AAPL")
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestCacheEvictStale(t *testing.T) {
	src := &countingSource{price: 1}
	c, clk := newTestCache(src)

	_, err := c.Price("AAPL")
	require.NoError(t, err)
	clk.advance(4 * time.Minute)
	_, err = c.Price("GOOG")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	// AAPL is now 6 minutes old, past five freshness windows
	clk.advance(2 * time.Minute)
	c.evictStale()
	assert.Equal(t, 1, c.Len())
}

func TestSweepStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &countingSource{price: 1}
	c, _ := newTestCache(src)

	ctx, cancel := context.WithCancel(context.Background())
	c.StartSweep(ctx, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)
}
