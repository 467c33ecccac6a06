package websockets

import (
	"sync"

	"github.com/bwise1/moment_stack/internal/model"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message types
const (
	MsgTypeSubscribe   = "subscribe"
	MsgTypeSubscribed  = "subscribed"
	MsgTypeUnsubscribe = "unsubscribe"
	MsgTypeError       = "error"
)

// Client represents a connected WebSocket subscriber. Location fields are
// guarded by the manager's mutex.
type Client struct {
	Conn         *websocket.Conn
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	subscribed   bool
	send         chan []byte
}

type WebSocketManager struct {
	clients       map[*websocket.Conn]*Client
	events        chan model.MomentEvent
	mu            sync.RWMutex
	defaultRadius float64
	log           *zap.Logger
}

// Message struct for incoming WebSocket messages
type Message struct {
	Type         string  `json:"type"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`
	RadiusMeters float64 `json:"radius_meters,omitempty"`
}

// Reply is sent back to a client in response to its own messages.
type Reply struct {
	Type         string  `json:"type"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`
	RadiusMeters float64 `json:"radius_meters,omitempty"`
	Error        string  `json:"error,omitempty"`
}
