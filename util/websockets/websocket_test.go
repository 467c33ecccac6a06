package websockets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwise1/moment_stack/internal/model"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startManager(t *testing.T) (*WebSocketManager, string) {
	t.Helper()
	manager := NewWebSocketManager(500, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(manager.HandleConnections))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return manager, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(v))
}

func subscribe(t *testing.T, conn *websocket.Conn, lat, lng, radius float64) Reply {
	t.Helper()
	require.NoError(t, conn.WriteJSON(Message{Type: MsgTypeSubscribe, Latitude: lat, Longitude: lng, RadiusMeters: radius}))
	var ack Reply
	readJSON(t, conn, &ack)
	return ack
}

func momentAt(lat, lng float64) model.Moment {
	return model.Moment{ID: uuid.New(), Title: "t", Mood: model.MoodHappy, Location: model.Location{Latitude: lat, Longitude: lng}}
}

func TestSubscribeAndReceiveNearbyEvent(t *testing.T) {
	manager, url := startManager(t)
	conn := dial(t, url)

	ack := subscribe(t, conn, 40.7128, -74.0060, 0)
	assert.Equal(t, MsgTypeSubscribed, ack.Type)
	assert.Equal(t, 500.0, ack.RadiusMeters, "default radius applies")

	// far away first: must be skipped, so the next frame is the nearby one
	manager.Publish(model.MomentEvent{Type: model.EventMomentCreated, Moment: momentAt(51.5, -0.12)})
	nearby := momentAt(40.7130, -74.0062)
	manager.Publish(model.MomentEvent{Type: model.EventMomentCreated, Moment: nearby})

	var got model.MomentEvent
	readJSON(t, conn, &got)
	assert.Equal(t, model.EventMomentCreated, got.Type)
	assert.Equal(t, nearby.ID, got.Moment.ID)
}

func TestUnsubscribedClientsReceiveNothing(t *testing.T) {
	manager, url := startManager(t)
	conn := dial(t, url)

	require.Eventually(t, func() bool { return manager.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	manager.Publish(model.MomentEvent{Type: model.EventMomentCreated, Moment: momentAt(0, 0)})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestSubscribeRejectsInvalidInput(t *testing.T) {
	_, url := startManager(t)
	conn := dial(t, url)

	ack := subscribe(t, conn, 95, 0, 100)
	assert.Equal(t, MsgTypeError, ack.Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	var reply Reply
	readJSON(t, conn, &reply)
	assert.Equal(t, MsgTypeError, reply.Type)

	require.NoError(t, conn.WriteJSON(Message{Type: "dance"}))
	readJSON(t, conn, &reply)
	assert.Equal(t, "unknown message type", reply.Error)
}

func TestSubscribeCapsRadius(t *testing.T) {
	_, url := startManager(t)
	conn := dial(t, url)
	ack := subscribe(t, conn, 0, 0, 5_000_000)
	assert.Equal(t, float64(model.MaxRadiusMeters), ack.RadiusMeters)
}

func TestDisconnectUnregisters(t *testing.T) {
	manager, url := startManager(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return manager.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return manager.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPublishNeverBlocks(t *testing.T) {
	manager := NewWebSocketManager(0, zap.NewNop())
	done := make(chan struct{})
	go func() {
		for i := 0; i < eventBuffer*2; i++ {
			manager.Publish(model.MomentEvent{Type: model.EventMomentDeleted})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked without a running manager")
	}
}

func TestIsNearby(t *testing.T) {
	c := &Client{Latitude: 40.7128, Longitude: -74.0060, RadiusMeters: 1000}
	assert.True(t, isNearby(c, 40.7128, -74.0060))
	assert.True(t, isNearby(c, 40.7200, -74.0060))
	assert.False(t, isNearby(c, 40.8000, -74.0060))

	// One degree of longitude on the equator is 111,319m on WGS84 and 111,195m
	// on a sphere; the feed follows the ellipsoid like the nearby query.
	edge := &Client{Latitude: 0, Longitude: 0, RadiusMeters: 111_250}
	assert.False(t, isNearby(edge, 0, 1))
	edge.RadiusMeters = 111_320
	assert.True(t, isNearby(edge, 0, 1))
}

func TestEventEncoding(t *testing.T) {
	raw, err := json.Marshal(model.MomentEvent{Type: model.EventMomentUpdated, Moment: momentAt(1, 2)})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"moment_updated"`)
	assert.Contains(t, string(raw), `"latitude":1`)
}
