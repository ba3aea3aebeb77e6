package telemetry

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-mm-brain/internal/domain"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_FiltersByUserAndMint(t *testing.T) {
	hub := NewHub(Options{})
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	all := dial(t, srv, "")
	alice := dial(t, srv, "?user=alice&mint=MINT")
	require.Eventually(t, func() bool { return hub.Len() == 2 }, time.Second, 5*time.Millisecond)

	hub.Publish(domain.LogEntry{UserID: "bob", Mint: "MINT", Kind: domain.LogInfo, Message: "bob"})
	hub.Publish(domain.LogEntry{UserID: "alice", Mint: "MINT", Kind: domain.LogTrade, Message: "alice"})

	read := func(conn *websocket.Conn) domain.LogEntry {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var e domain.LogEntry
		require.NoError(t, json.Unmarshal(data, &e))
		return e
	}

	assert.Equal(t, "bob", read(all).Message)
	assert.Equal(t, "alice", read(all).Message)

	got := read(alice)
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, domain.LogTrade, got.Kind)
}

func TestHub_DropsSlowClient(t *testing.T) {
	clients := prometheus.NewGauge(prometheus.GaugeOpts{Name: "clients"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "dropped"})
	hub := NewHub(Options{Buffer: 1, Clients: clients, Dropped: dropped})

	slow := &client{send: make(chan []byte, 1)}
	require.True(t, hub.add(slow))
	assert.Equal(t, 1.0, testutil.ToFloat64(clients))

	hub.Publish(domain.LogEntry{Message: "first"})
	hub.Publish(domain.LogEntry{Message: "second"})

	assert.Equal(t, 0, hub.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(dropped))
	assert.Equal(t, 0.0, testutil.ToFloat64(clients))

	// The queued entry is still delivered before the channel closes.
	msg, ok := <-slow.send
	require.True(t, ok)
	assert.Contains(t, string(msg), "first")
	_, ok = <-slow.send
	assert.False(t, ok)
}

func TestHub_CloseRefusesNewClients(t *testing.T) {
	hub := NewHub(Options{})
	hub.Close()
	assert.False(t, hub.add(&client{send: make(chan []byte, 1)}))
	assert.Equal(t, 0, hub.Len())
}
