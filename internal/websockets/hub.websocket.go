package websockets

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	STATUS_UNAUTHENTICATED = iota
	STATUS_AUTHENTICATED
	STATUS_CLOSED
)

type Hub struct {
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	clients    map[string]*Client
	mutex      sync.RWMutex
}

func (h *Hub) run(m *Manager) {
	for {
		select {
		case client := <-h.register:
			m.registerClient(client)

		case client := <-h.unregister:
			func() {
				defer func() {
					if r := recover(); r != nil {
						_ = r // already closed
					}
				}()
				close(client.send)
			}()
			m.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToBand(message, m)
		}
	}
}

func (m *Manager) registerClient(client *Client) {
	m.hub.mutex.Lock()
	defer m.hub.mutex.Unlock()

	m.hub.clients[client.ID] = client
	m.log.Function("registerClient").Info("Client registered", "clientID", client.ID)
}

func (m *Manager) unregisterClient(client *Client) {
	m.hub.mutex.Lock()
	defer m.hub.mutex.Unlock()

	delete(m.hub.clients, client.ID)
	m.log.Function("unregisterClient").
		Info("Client unregistered", "clientID", client.ID, "userID", client.UserID)
}

// broadcastToBand delivers a band-scoped message to every authenticated
// client subscribed to that band. Slow clients get one buffered retry before
// disconnection so one stalled connection cannot back up the hub.
func (h *Hub) broadcastToBand(message Message, m *Manager) {
	log := m.log.Function("broadcastToBand")

	bandID, err := uuid.Parse(message.BandID)
	if err != nil {
		log.Warn("broadcast message without valid band", "bandID", message.BandID)
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for clientID, client := range h.clients {
		if client.Status != STATUS_AUTHENTICATED {
			continue
		}
		if _, subscribed := client.bands[bandID]; !subscribed {
			continue
		}

		select {
		case client.send <- message:
		default:
			go func(c *Client, cID string, msg Message) {
				select {
				case c.send <- msg:
				case <-time.After(5 * time.Second):
					_ = log.Error("Client too slow, disconnecting", "clientID", cID)
					m.hub.unregister <- c
				}
			}(client, clientID, message)
		}
	}
}
