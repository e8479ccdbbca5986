package market

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		symbol := r.URL.Query().Get("symbol")
		fmt.Fprintf(w, `{"symbol":%q,"price":190.5}`, symbol)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, nil)
	price, err := c.Price("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 190.5, price)
}

func TestClientPriceBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown symbol", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, nil)
	_, err := c.Price("NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestClientPriceBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, nil)
	_, err := c.Price("AAPL")
	assert.Error(t, err)
}

func TestClientPriceTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewClient(srv.URL, 20*time.Millisecond, nil)
	_, err := c.Price("AAPL")
	assert.Error(t, err)
}

func TestClientPriceUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", 100*time.Millisecond, nil)
	_, err := c.Price("AAPL")
	assert.Error(t, err)
}
