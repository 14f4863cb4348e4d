package websockets

import (
	"time"

	"encore/config"
	"encore/internal/database"
	"encore/internal/events"
	"encore/internal/logger"
	"encore/internal/repositories"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	MESSAGE_TYPE_PING          = "ping"
	MESSAGE_TYPE_PONG          = "pong"
	MESSAGE_TYPE_ERROR         = "error"
	MESSAGE_TYPE_AUTH_REQUEST  = "auth_request"
	MESSAGE_TYPE_AUTH_RESPONSE = "auth_response"
	MESSAGE_TYPE_AUTH_SUCCESS  = "auth_success"
	MESSAGE_TYPE_AUTH_FAILURE  = "auth_failure"
	MESSAGE_TYPE_SUBSCRIBE     = "subscribe_band"
	MESSAGE_TYPE_EVENT         = "event"

	PING_INTERVAL     = 30 * time.Second
	PONG_TIMEOUT      = 60 * time.Second
	WRITE_TIMEOUT     = 10 * time.Second
	MAX_MESSAGE_SIZE  = 64 * 1024
	SEND_CHANNEL_SIZE = 64
)

type Message struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Channel   string         `json:"channel,omitempty"`
	BandID    string         `json:"bandId,omitempty"`
	Token     string         `json:"token,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Client is one websocket connection. A client authenticates with a bearer
// token, then subscribes to the bands whose leaderboard and schedule pushes
// it wants.
type Client struct {
	ID         string
	UserID     uuid.UUID
	Connection *websocket.Conn
	Manager    *Manager
	Status     int
	bands      map[uuid.UUID]struct{}
	send       chan Message
}

// Manager fans engine events out to connected band members. It subscribes to
// the event bus so pushes reach clients on every instance, not just the one
// that handled the write.
type Manager struct {
	hub      *Hub
	db       database.DB
	config   config.Config
	userRepo repositories.UserRepository
	log      logger.Logger
	eventBus *events.EventBus
}

func New(
	db database.DB,
	eventBus *events.EventBus,
	config config.Config,
	userRepo repositories.UserRepository,
) (*Manager, error) {
	log := logger.New("websockets")

	manager := &Manager{
		hub: &Hub{
			broadcast:  make(chan Message),
			register:   make(chan *Client),
			unregister: make(chan *Client),
			clients:    make(map[string]*Client),
		},
		db:       db,
		config:   config,
		userRepo: userRepo,
		log:      log,
		eventBus: eventBus,
	}

	log.Function("New").Info("Starting websocket hub")
	go manager.hub.run(manager)

	if err := manager.subscribeToEngineEvents(); err != nil {
		return nil, err
	}

	return manager, nil
}

// subscribeToEngineEvents forwards leaderboard and schedule events onto the
// hub as band-scoped pushes.
func (m *Manager) subscribeToEngineEvents() error {
	log := m.log.Function("subscribeToEngineEvents")

	forward := func(event events.Event) error {
		if event.BandID == nil {
			return nil
		}
		m.hub.broadcast <- Message{
			ID:        uuid.New().String(),
			Type:      MESSAGE_TYPE_EVENT,
			Channel:   string(event.Channel),
			BandID:    event.BandID.String(),
			Data:      event.Data,
			Timestamp: time.Now(),
		}
		return nil
	}

	if err := m.eventBus.Subscribe(events.LEADERBOARD_CHANNEL, forward); err != nil {
		return log.Err("failed to subscribe to leaderboard events", err)
	}
	if err := m.eventBus.Subscribe(events.SCHEDULE_CHANNEL, forward); err != nil {
		return log.Err("failed to subscribe to schedule events", err)
	}

	return nil
}

func (m *Manager) HandleWebSocket(c *websocket.Conn) {
	log := m.log.Function("HandleWebSocket")
	clientID := uuid.New().String()

	client := &Client{
		ID:         clientID,
		UserID:     uuid.Nil,
		Connection: c,
		Manager:    m,
		Status:     STATUS_UNAUTHENTICATED,
		bands:      make(map[uuid.UUID]struct{}),
		send:       make(chan Message, SEND_CHANNEL_SIZE),
	}

	authRequest := Message{
		ID:        uuid.New().String(),
		Type:      MESSAGE_TYPE_AUTH_REQUEST,
		Timestamp: time.Now(),
	}
	if err := c.WriteJSON(authRequest); err != nil {
		log.Er("failed to send auth request", err)
		_ = c.Close()
		return
	}

	m.hub.register <- client

	go client.writePump()
	client.readPump()
}

func (c *Client) readPump() {
	log := c.Manager.log.Function("readPump")

	defer func() {
		c.Manager.hub.unregister <- c
		_ = c.Connection.Close()
	}()

	c.Connection.SetReadLimit(MAX_MESSAGE_SIZE)
	_ = c.Connection.SetReadDeadline(time.Now().Add(PONG_TIMEOUT))
	c.Connection.SetPongHandler(func(string) error {
		return c.Connection.SetReadDeadline(time.Now().Add(PONG_TIMEOUT))
	})

	for {
		var message Message
		if err := c.Connection.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("unexpected close", "clientID", c.ID, "error", err)
			}
			return
		}

		c.Manager.handleClientMessage(c, message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PING_INTERVAL)
	defer func() {
		ticker.Stop()
		_ = c.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
			if !ok {
				_ = c.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Connection.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
			if err := c.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (m *Manager) handleClientMessage(client *Client, message Message) {
	switch message.Type {
	case MESSAGE_TYPE_AUTH_RESPONSE:
		m.authenticateClient(client, message)

	case MESSAGE_TYPE_SUBSCRIBE:
		m.subscribeClientToBand(client, message)

	case MESSAGE_TYPE_PING:
		client.send <- Message{
			ID:        uuid.New().String(),
			Type:      MESSAGE_TYPE_PONG,
			Timestamp: time.Now(),
		}
	}
}
