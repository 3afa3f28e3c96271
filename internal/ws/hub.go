package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Capstone-E1/aquawatch_backend/internal/models"
)

// Message types pushed to dashboards
const (
	TypeConnected   = "connected"
	TypeMeasurement = "measurement"
	TypeObservation = "observation"
	TypeForecast    = "forecast"
	TypeAlert       = "alert"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// Client represents a WebSocket client connection
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	stationID int64 // 0 receives every station
}

type envelope struct {
	stationID int64
	data      []byte
}

// Hub maintains active WebSocket connections and broadcasts messages
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *zap.Logger

	mu    sync.RWMutex
	count int
}

// Message represents a WebSocket message structure
type Message struct {
	Type      string      `json:"type"`
	StationID int64       `json:"station_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves hub events until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				h.remove(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.setCount(len(h.clients))
			h.logger.Info("websocket client connected",
				zap.Int64("station_id", client.stationID),
				zap.Int("clients", len(h.clients)),
			)

			welcome := Message{
				Type:      TypeConnected,
				StationID: client.stationID,
				Timestamp: time.Now(),
				Data:      map[string]string{"status": "connected"},
			}
			if data, err := json.Marshal(welcome); err == nil {
				h.deliver(client, data)
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(client)
				h.logger.Info("websocket client disconnected", zap.Int("clients", len(h.clients)))
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				if client.stationID != 0 && client.stationID != msg.stationID {
					continue
				}
				h.deliver(client, msg.data)
			}
		}
	}
}

func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.setCount(len(h.clients))
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// GetConnectedClientsCount returns the number of connected clients
func (h *Hub) GetConnectedClientsCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

func (h *Hub) publish(msgType string, stationID int64, payload interface{}) {
	message := Message{
		Type:      msgType,
		StationID: stationID,
		Timestamp: time.Now(),
		Data:      payload,
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", zap.String("type", msgType), zap.Error(err))
		return
	}

	select {
	case h.broadcast <- envelope{stationID: stationID, data: data}:
	default:
		h.logger.Warn("broadcast channel is full, dropping message", zap.String("type", msgType))
	}
}

func (h *Hub) BroadcastMeasurement(m *models.Measurement) {
	h.publish(TypeMeasurement, m.StationID, m)
}

func (h *Hub) BroadcastObservation(obs *models.Observation) {
	h.publish(TypeObservation, obs.StationID, obs)
}

func (h *Hub) BroadcastForecast(f *models.Forecast) {
	h.publish(TypeForecast, f.StationID, f)
}

func (h *Hub) BroadcastAlert(a *models.Alert) {
	h.publish(TypeAlert, a.StationID, a)
}

// HandleWebSocket upgrades the request. An optional station_id query parameter
// limits the connection to one station.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	var stationID int64
	if raw := r.URL.Query().Get("station_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "invalid station_id", http.StatusBadRequest)
			return
		}
		stationID = id
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		stationID: stationID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection so pongs and close frames are processed
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump sends one JSON message per frame and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
