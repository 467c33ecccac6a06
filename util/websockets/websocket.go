package websockets

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bwise1/moment_stack/internal/geo"
	"github.com/bwise1/moment_stack/internal/model"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 32
	eventBuffer    = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewWebSocketManager initializes a WebSocketManager. defaultRadius applies to
// subscriptions that do not name a radius.
func NewWebSocketManager(defaultRadius float64, log *zap.Logger) *WebSocketManager {
	if defaultRadius <= 0 {
		defaultRadius = model.DefaultRadiusMeters
	}
	return &WebSocketManager{
		clients:       make(map[*websocket.Conn]*Client),
		events:        make(chan model.MomentEvent, eventBuffer),
		defaultRadius: defaultRadius,
		log:           log,
	}
}

// Run dispatches moment events until ctx is done, then disconnects every client.
func (manager *WebSocketManager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			manager.mu.Lock()
			for conn, client := range manager.clients {
				close(client.send)
				delete(manager.clients, conn)
			}
			manager.mu.Unlock()
			return

		case event := <-manager.events:
			manager.dispatch(event)
		}
	}
}

func (manager *WebSocketManager) register(client *Client) {
	manager.mu.Lock()
	manager.clients[client.Conn] = client
	manager.mu.Unlock()
}

func (manager *WebSocketManager) unregister(conn *websocket.Conn) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	if client, exists := manager.clients[conn]; exists {
		delete(manager.clients, conn)
		close(client.send)
	}
}

// Publish queues a moment event for nearby subscribers. It never blocks; events
// are dropped when the queue is full.
func (manager *WebSocketManager) Publish(event model.MomentEvent) {
	select {
	case manager.events <- event:
	default:
		manager.log.Warn("websocket event queue full, dropping event",
			zap.String("type", event.Type), zap.String("moment_id", event.Moment.ID.String()))
	}
}

func (manager *WebSocketManager) dispatch(event model.MomentEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		manager.log.Error("failed to encode moment event", zap.Error(err))
		return
	}

	loc := event.Moment.Location
	manager.mu.Lock()
	defer manager.mu.Unlock()
	for conn, client := range manager.clients {
		if !client.subscribed || !isNearby(client, loc.Latitude, loc.Longitude) {
			continue
		}
		select {
		case client.send <- payload:
		default:
			// slow consumer
			delete(manager.clients, conn)
			close(client.send)
		}
	}
}

// ClientCount returns the number of connected clients.
func (manager *WebSocketManager) ClientCount() int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return len(manager.clients)
}

// HandleConnections upgrades HTTP requests to WebSocket connections
func (manager *WebSocketManager) HandleConnections(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		manager.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{Conn: conn, send: make(chan []byte, sendBuffer)}
	manager.register(client)

	go manager.writePump(client)
	manager.readPump(client)
}

func (manager *WebSocketManager) readPump(client *Client) {
	defer manager.unregister(client.Conn)

	conn := client.Conn
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				manager.log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		var message Message
		if err := json.Unmarshal(msg, &message); err != nil {
			manager.reply(client, Reply{Type: MsgTypeError, Error: "invalid json"})
			continue
		}

		switch message.Type {
		case MsgTypeSubscribe:
			if !geo.ValidateCoordinates(message.Latitude, message.Longitude) {
				manager.reply(client, Reply{Type: MsgTypeError, Error: "invalid coordinates"})
				continue
			}
			radius := message.RadiusMeters
			if radius <= 0 {
				radius = manager.defaultRadius
			}
			radius = min(radius, model.MaxRadiusMeters)

			manager.mu.Lock()
			client.Latitude = message.Latitude
			client.Longitude = message.Longitude
			client.RadiusMeters = radius
			client.subscribed = true
			manager.mu.Unlock()

			manager.reply(client, Reply{
				Type:         MsgTypeSubscribed,
				Latitude:     message.Latitude,
				Longitude:    message.Longitude,
				RadiusMeters: radius,
			})

		case MsgTypeUnsubscribe:
			manager.mu.Lock()
			client.subscribed = false
			manager.mu.Unlock()

		default:
			manager.reply(client, Reply{Type: MsgTypeError, Error: "unknown message type"})
		}
	}
}

func (manager *WebSocketManager) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// reply is only called from the client's read loop, before it unregisters.
func (manager *WebSocketManager) reply(client *Client, r Reply) {
	payload, err := json.Marshal(r)
	if err != nil {
		return
	}
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	if _, ok := manager.clients[client.Conn]; !ok {
		return
	}
	select {
	case client.send <- payload:
	default:
	}
}

// isNearby reports whether the point lies inside the client's subscription radius.
func isNearby(client *Client, lat, lon float64) bool {
	return geo.Within(client.Latitude, client.Longitude, lat, lon, client.RadiusMeters)
}
