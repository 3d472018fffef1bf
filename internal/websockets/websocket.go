package websockets

import (
	"spooltrack/config"
	"spooltrack/internal/events"
	"sync"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	PING_INTERVAL     = 30 * time.Second
	WRITE_TIMEOUT     = 10 * time.Second
	SEND_CHANNEL_SIZE = 64
)

// Client is one connected browser tab. Each mutation event is pushed so
// open grids can re-query instead of polling.
type Client struct {
	ID         string
	Connection *websocket.Conn
	send       chan events.Event
}

// Manager fans inventory-change events out to every connected client.
type Manager struct {
	config   config.Config
	log      logger.Logger
	eventBus *events.EventBus

	mu      sync.RWMutex
	clients map[string]*Client
}

func New(eventBus *events.EventBus, config config.Config) (*Manager, error) {
	log := logger.New("websockets")

	manager := &Manager{
		config:   config,
		log:      log,
		eventBus: eventBus,
		clients:  make(map[string]*Client),
	}

	err := eventBus.Subscribe(events.INVENTORY_CHANNEL, manager.broadcast)
	if err != nil {
		return nil, log.Err("failed to subscribe to inventory events", err)
	}

	return manager, nil
}

func (m *Manager) broadcast(event events.Event) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		select {
		case client.send <- event:
		default:
			m.log.Warn("Dropping event for slow client", "clientID", client.ID)
		}
	}
	return nil
}

// HandleWebSocket owns one connection for its lifetime. Fiber calls it
// from the /ws route after the upgrade.
func (m *Manager) HandleWebSocket(conn *websocket.Conn) {
	log := m.log.Function("HandleWebSocket")

	client := &Client{
		ID:         uuid.New().String(),
		Connection: conn,
		send:       make(chan events.Event, SEND_CHANNEL_SIZE),
	}

	m.mu.Lock()
	m.clients[client.ID] = client
	m.mu.Unlock()
	log.Info("Client connected", "clientID", client.ID)

	done := make(chan struct{})
	go m.writeLoop(client, done)

	// Read loop: the feed is one-way, reads only surface disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(done)
	m.mu.Lock()
	delete(m.clients, client.ID)
	m.mu.Unlock()
	log.Info("Client disconnected", "clientID", client.ID)
}

func (m *Manager) writeLoop(client *Client, done chan struct{}) {
	log := m.log.Function("writeLoop")
	ticker := time.NewTicker(PING_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case event := <-client.send:
			_ = client.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
			if err := client.Connection.WriteJSON(event); err != nil {
				log.Warn("Failed to write event", "clientID", client.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = client.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// ClientCount reports connected clients, for the health endpoint.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
