package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/ztna-soc-console/internal/dashboard"
	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"github.com/xela07ax/ztna-soc-console/internal/source"
)

type frame struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestHub_HelloThenBroadcast(t *testing.T) {
	hub := NewHub(source.NewSynthesizer("").ConnectionHealth, zap.NewNop())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	var clients atomic.Int64
	hub.OnClientsChanged(func(n int) { clients.Store(int64(n)) })

	conn := dial(t, srv)

	hello := read(t, conn)
	assert.Equal(t, TopicLog, hello.Topic)
	var ev domain.ScoredEvent
	require.NoError(t, json.Unmarshal(hello.Data, &ev))
	assert.Equal(t, "SYS_HEALTH", ev.User)
	assert.Equal(t, "SOC Connection Established. Monitoring Live...", ev.Message)

	hub.Render(domain.ScoredEvent{ID: "e-1", User: "Rina S.", RiskLabel: domain.LabelLow})
	f := read(t, conn)
	assert.Equal(t, TopicLog, f.Topic)
	assert.Contains(t, string(f.Data), `"id":"e-1"`)

	hub.SetLinkIndicator(domain.LinkUp)
	f = read(t, conn)
	assert.Equal(t, TopicLink, f.Topic)
	assert.Equal(t, `"UP"`, string(f.Data))

	hub.Clear()
	assert.Equal(t, TopicClear, read(t, conn).Topic)

	hub.PhoneState(domain.MFAState{Phase: domain.MFAPrompted, Message: "REQ"})
	f = read(t, conn)
	assert.Equal(t, TopicPhone, f.Topic)
	assert.Contains(t, string(f.Data), "PROMPTED")

	require.NoError(t, hub.DrawSparkline([]int{45, 25, 60, 50}))
	f = read(t, conn)
	assert.Equal(t, TopicSpark, f.Topic)
	assert.Equal(t, `[45,25,60,50]`, string(f.Data))

	assert.Equal(t, int64(1), clients.Load())
}

func TestHub_IsChartView(t *testing.T) {
	var view dashboard.View = NewHub(nil, zap.NewNop())
	_, ok := view.(dashboard.ChartView)
	assert.True(t, ok, "сокет - бэкенд графика")
}

func TestHub_DropsClosedClient(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	assert.NotPanics(t, func() { hub.Render(domain.ScoredEvent{ID: "after"}) })
}

func TestHub_CloseRejectsNewClients(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	hub.Close()
	conn := dial(t, srv)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Zero(t, hub.Len())
}
