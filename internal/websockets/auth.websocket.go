package websockets

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// authenticateClient validates the token from an auth_response message and
// promotes the client. Failure closes the connection; there is no
// unauthenticated mode.
func (m *Manager) authenticateClient(client *Client, message Message) {
	log := m.log.Function("authenticateClient")

	userID, err := m.parseToken(message.Token)
	if err != nil {
		log.Warn("websocket auth failed", "clientID", client.ID, "error", err)
		m.rejectClient(client, "Invalid token")
		return
	}

	user, err := m.userRepo.GetByID(context.Background(), m.db.SQL, userID)
	if err != nil || user == nil || !user.IsActive {
		log.Warn("websocket auth rejected", "clientID", client.ID, "userID", userID)
		m.rejectClient(client, "User not found")
		return
	}

	m.hub.mutex.Lock()
	client.UserID = user.ID
	client.Status = STATUS_AUTHENTICATED
	m.hub.mutex.Unlock()

	client.send <- Message{
		ID:        uuid.New().String(),
		Type:      MESSAGE_TYPE_AUTH_SUCCESS,
		Timestamp: time.Now(),
	}

	log.Info("websocket client authenticated", "clientID", client.ID, "userID", user.ID)
}

// subscribeClientToBand adds a band to the client's push subscriptions.
func (m *Manager) subscribeClientToBand(client *Client, message Message) {
	log := m.log.Function("subscribeClientToBand")

	if client.Status != STATUS_AUTHENTICATED {
		m.rejectClient(client, "Authentication required")
		return
	}

	bandID, err := uuid.Parse(message.BandID)
	if err != nil {
		client.send <- Message{
			ID:        uuid.New().String(),
			Type:      MESSAGE_TYPE_ERROR,
			Data:      map[string]any{"error": "invalid bandId"},
			Timestamp: time.Now(),
		}
		return
	}

	m.hub.mutex.Lock()
	client.bands[bandID] = struct{}{}
	m.hub.mutex.Unlock()

	log.Info("client subscribed to band", "clientID", client.ID, "bandID", bandID)
}

func (m *Manager) rejectClient(client *Client, reason string) {
	client.send <- Message{
		ID:        uuid.New().String(),
		Type:      MESSAGE_TYPE_AUTH_FAILURE,
		Data:      map[string]any{"error": reason},
		Timestamp: time.Now(),
	}

	client.Status = STATUS_CLOSED
	m.hub.unregister <- client
}

func (m *Manager) parseToken(tokenString string) (uuid.UUID, error) {
	if tokenString == "" {
		return uuid.Nil, jwt.ErrTokenMalformed
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(m.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return uuid.Nil, err
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, err
	}

	return uuid.Parse(subject)
}
