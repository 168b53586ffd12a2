package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Jaykim98z/jandibat-live-draft/internal/coordinator"
	"github.com/Jaykim98z/jandibat-live-draft/internal/models"
	"github.com/Jaykim98z/jandibat-live-draft/internal/token"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is handled by middleware.
		return true
	},
}

// Envelope is the wire frame for every websocket message, both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Client is one websocket connection. It implements coordinator.Conn.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

func (c *Client) ID() string { return c.id }

// Send queues an event for delivery, dropping it if the buffer is full.
func (c *Client) Send(event string, payload any) {
	data, err := json.Marshal(outEnvelope{Event: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to marshal event")
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn().Str("conn", c.id).Str("event", event).Msg("send buffer full, dropping event")
	}
}

// WSHandler accepts websocket connections and routes their events into the
// coordinator. Every coordinator error goes back to the triggering
// connection only, as an "error" event.
type WSHandler struct {
	coord  *coordinator.Coordinator
	tokens *token.Issuer
}

func NewWSHandler(coord *coordinator.Coordinator, tokens *token.Issuer) *WSHandler {
	return &WSHandler{coord: coord, tokens: tokens}
}

func (h *WSHandler) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	log.Info().Str("conn", client.id).Msg("websocket connected")

	go client.writePump()
	h.readPump(client)
}

func (h *WSHandler) readPump(client *Client) {
	// The request context dies with the socket; cleanup needs its own.
	ctx := context.Background()
	defer func() {
		h.coord.Disconnect(ctx, client)
		client.conn.Close()
		log.Info().Str("conn", client.id).Msg("websocket disconnected")
	}()

	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("conn", client.id).Msg("websocket error")
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			client.Send(coordinator.EventError, coordinator.ErrorPayload{Message: "malformed message"})
			continue
		}
		if err := h.dispatch(ctx, client, env); err != nil {
			client.Send(coordinator.EventError, coordinator.ErrorPayload{Message: models.AsError(err).Message})
		}
	}
}

func (h *WSHandler) dispatch(ctx context.Context, client *Client, env Envelope) error {
	switch env.Event {
	case coordinator.EventJoin:
		var data struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
			return models.NewError(models.CodeValidation, "join requires a room token")
		}
		claims, err := h.tokens.Parse(data.Token)
		if err != nil {
			return models.NewError(models.CodeUnauthorized, "invalid room token")
		}
		return h.coord.Join(ctx, client, claims.RoomCode, claims.ParticipantID)

	case coordinator.EventLeave:
		return h.coord.Leave(ctx, client)

	case coordinator.EventSendChat:
		var data struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return models.NewError(models.CodeValidation, "malformed chat message")
		}
		return h.coord.SendChat(ctx, client, data.Message)

	case coordinator.EventToggleReady:
		return h.coord.ToggleReady(ctx, client)

	case coordinator.EventUpdateSettings:
		var patch coordinator.SettingsPatch
		if err := json.Unmarshal(env.Data, &patch); err != nil {
			return models.NewError(models.CodeValidation, "malformed settings")
		}
		return h.coord.UpdateSettings(ctx, client, patch)

	case coordinator.EventAssignRole:
		var data struct {
			ParticipantID string      `json:"participantId"`
			Role          models.Role `json:"role"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return models.NewError(models.CodeValidation, "malformed role assignment")
		}
		return h.coord.AssignRole(ctx, client, data.ParticipantID, data.Role)

	case coordinator.EventAutoAssignRoles:
		return h.coord.AutoAssignRoles(ctx, client)

	case coordinator.EventStartDraft:
		return h.coord.StartDraft(ctx, client)
	}
	return models.Errorf(models.CodeValidation, "unknown event %q", env.Event)
}

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
