package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fenrir/service"
)

func newTestServer(t *testing.T) (*httptest.Server, *service.Venue) {
	t.Helper()
	venue := service.New(zap.NewNop(), nil, nil)
	srv := NewServer(zap.NewNop(), venue, 16)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, venue
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cmd  Command
		ok   bool
	}{
		{"buy ok", Command{Op: OpBuy, ID: 1, Symbol: "X", Price: 100, Qty: 5}, true},
		{"sell ok", Command{Op: OpSell, ID: 1, Symbol: "X", Price: 100, Qty: 5}, true},
		{"cancel needs only id", Command{Op: OpCancel, ID: 1}, true},
		{"unknown op", Command{Op: "modify", ID: 1}, false},
		{"zero qty", Command{Op: OpBuy, ID: 1, Symbol: "X", Price: 100}, false},
		{"negative qty", Command{Op: OpBuy, ID: 1, Symbol: "X", Price: 100, Qty: -1}, false},
		{"zero price", Command{Op: OpSell, ID: 1, Symbol: "X", Qty: 5}, false},
		{"empty symbol", Command{Op: OpBuy, ID: 1, Price: 100, Qty: 5}, false},
		{"symbol too long", Command{Op: OpBuy, ID: 1, Symbol: strings.Repeat("A", 17), Price: 100, Qty: 5}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validate(tc.cmd, 16)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBookEndpoint(t *testing.T) {
	ts, venue := newTestServer(t)

	venue.Buy(1, "ETH-USD", 95, 10)
	venue.Sell(2, "ETH-USD", 105, 7)

	resp, err := http.Get(ts.URL + "/api/v1/books/ETH-USD")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap BookSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, "ETH-USD", snap.Symbol)
	require.Len(t, snap.Bids, 1)
	require.Len(t, snap.Asks, 1)
	assert.Equal(t, int64(95), snap.Bids[0].Price)
	assert.Equal(t, int64(7), snap.Asks[0].Qty)
}

func TestSessionCommandRoundTrip(t *testing.T) {
	ts, venue := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	send := func(cmd Command) Ack {
		t.Helper()
		require.NoError(t, conn.WriteJSON(cmd))
		var ack Ack
		require.NoError(t, conn.ReadJSON(&ack))
		return ack
	}

	ack := send(Command{Op: OpSell, ID: 1, Symbol: "X", Price: 100, Qty: 10})
	assert.True(t, ack.OK)

	ack = send(Command{Op: OpBuy, ID: 2, Symbol: "X", Price: 100, Qty: 4})
	assert.True(t, ack.OK)

	// Degenerate input is rejected at the transport, never matched.
	ack = send(Command{Op: OpBuy, ID: 3, Symbol: "X", Price: 100, Qty: 0})
	assert.False(t, ack.OK)
	assert.NotEmpty(t, ack.Error)

	ack = send(Command{Op: "modify", ID: 1})
	assert.False(t, ack.OK)

	_, asks := venue.Levels("X")
	require.Len(t, asks, 1)
	assert.Equal(t, int64(6), asks[0].Qty)
}

func TestBadSymbolRejected(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/books/" + strings.Repeat("A", 40))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
