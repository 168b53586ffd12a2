package handlers

import (
	"crypto/rand"
	"math/big"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Jaykim98z/jandibat-live-draft/internal/models"
	"github.com/Jaykim98z/jandibat-live-draft/internal/roles"
	"github.com/Jaykim98z/jandibat-live-draft/internal/store"
	"github.com/Jaykim98z/jandibat-live-draft/internal/token"
)

const (
	codeChars       = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts = 10
	activeRoomLimit = 20
)

// RoomHandler is the room lifecycle gateway: synchronous, non-streaming
// operations against the document store. All roster mutations after the
// founding join go through the coordinator instead.
type RoomHandler struct {
	store  store.Store
	tokens *token.Issuer
}

func NewRoomHandler(st store.Store, tokens *token.Issuer) *RoomHandler {
	return &RoomHandler{store: st, tokens: tokens}
}

func respondError(c *gin.Context, err error) {
	e := models.AsError(err)
	c.JSON(e.HTTPStatus(), gin.H{"error": e.Message, "code": e.Code})
}

// Create makes a new room with its founding participant.
func (h *RoomHandler) Create(c *gin.Context) {
	var req models.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidPosition(req.Host.Position) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "invalid position",
			"validPositions": models.Positions,
		})
		return
	}

	settings := models.Settings{
		DraftType:       models.DraftShuffle,
		TurnTime:        models.DefaultTurnTime,
		MaxParticipants: models.MaxParticipants,
	}
	if req.Settings != nil {
		if req.Settings.DraftType != "" {
			if !models.ValidDraftType(req.Settings.DraftType) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid draft type"})
				return
			}
			settings.DraftType = req.Settings.DraftType
		}
		if req.Settings.TurnTime > 0 {
			settings.TurnTime = req.Settings.TurnTime
		}
		settings.Password = req.Settings.Password
	}

	code, err := h.generateCode(c)
	if err != nil {
		respondError(c, err)
		return
	}

	participantID := uuid.NewString()
	now := time.Now()
	room := &models.Room{
		Code:  code,
		Title: strings.TrimSpace(req.Title),
		Host: models.HostInfo{
			ParticipantID: participantID,
			Handle:        req.Host.Handle,
			Nickname:      req.Host.Nickname,
			Avatar:        req.Host.Avatar,
			Position:      req.Host.Position,
		},
		Settings: settings,
		Status:   models.StatusWaiting,
		Participants: []models.Participant{{
			ID:       participantID,
			Handle:   req.Host.Handle,
			Nickname: req.Host.Nickname,
			Avatar:   req.Host.Avatar,
			Position: req.Host.Position,
			Role:     models.RolePlayer,
			IsHost:   true,
			IsReady:  true,
			JoinedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(models.RoomTTL),
	}

	if err := h.store.SaveRoom(c, room); err != nil {
		log.Error().Err(err).Str("room", code).Msg("failed to store room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}

	tok, err := h.tokens.Issue(code, participantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue room token"})
		return
	}

	log.Info().Str("room", code).Str("host", req.Host.Nickname).Msg("room created")
	c.JSON(http.StatusCreated, gin.H{
		"room":          roles.View(room),
		"participantId": participantID,
		"isHost":        true,
		"token":         tok,
	})
}

// Get returns the redacted room view by code.
func (h *RoomHandler) Get(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))
	if len(code) != models.RoomCodeLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room code must be 6 characters"})
		return
	}
	room, err := h.store.FindRoom(c, code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": roles.View(room)})
}

// Join is the founding join: it creates the roster entry the websocket
// session will later bind to. Joining twice with the same handle returns the
// existing entry instead of duplicating it.
func (h *RoomHandler) Join(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))

	var req models.JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidPosition(req.User.Position) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "invalid position",
			"validPositions": models.Positions,
		})
		return
	}

	room, err := h.store.FindRoom(c, code)
	if err != nil {
		respondError(c, err)
		return
	}

	if room.Settings.Password != "" && room.Settings.Password != req.Password {
		respondError(c, models.NewError(models.CodeUnauthorized, "wrong password"))
		return
	}

	if existing, ok := room.ParticipantByHandle(req.User.Handle); ok {
		tok, err := h.tokens.Issue(code, existing.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue room token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"room":          roles.View(room),
			"participantId": existing.ID,
			"isHost":        existing.IsHost,
			"token":         tok,
		})
		return
	}

	if room.IsFull() {
		respondError(c, models.Errorf(models.CodeValidation, "room is full (max %d)", models.MaxParticipants))
		return
	}

	participantID := uuid.NewString()
	room.Participants = append(room.Participants, models.Participant{
		ID:       participantID,
		Handle:   req.User.Handle,
		Nickname: req.User.Nickname,
		Avatar:   req.User.Avatar,
		Position: req.User.Position,
		Role:     models.RolePlayer,
		IsHost:   false,
		IsReady:  false,
		JoinedAt: time.Now(),
	})
	room.UpdatedAt = time.Now()

	if err := h.store.SaveRoom(c, room); err != nil {
		log.Error().Err(err).Str("room", code).Msg("failed to store room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join room"})
		return
	}

	tok, err := h.tokens.Issue(code, participantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue room token"})
		return
	}

	log.Info().Str("room", code).Str("user", req.User.Nickname).Msg("participant joined room")
	c.JSON(http.StatusOK, gin.H{
		"room":          roles.View(room),
		"participantId": participantID,
		"isHost":        false,
		"token":         tok,
	})
}

// List returns a short summary of active rooms, newest first.
func (h *RoomHandler) List(c *gin.Context) {
	rooms, err := h.store.ListRooms(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
		return
	}

	active := make([]*models.Room, 0, len(rooms))
	for _, room := range rooms {
		if room.Status == models.StatusWaiting || room.Status == models.StatusDrafting {
			active = append(active, room)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	if len(active) > activeRoomLimit {
		active = active[:activeRoomLimit]
	}

	summaries := make([]gin.H, 0, len(active))
	for _, room := range active {
		summaries = append(summaries, gin.H{
			"code":             room.Code,
			"title":            room.Title,
			"host":             room.Host.Nickname,
			"participantCount": len(room.Participants),
			"status":           room.Status,
			"createdAt":        room.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(summaries), "rooms": summaries})
}

// generateCode samples 6 characters from [A-Z0-9], retrying on collision a
// bounded number of times before giving up with a conflict.
func (h *RoomHandler) generateCode(c *gin.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := randomCode()
		_, err := h.store.FindRoom(c, code)
		if err != nil {
			if models.AsError(err).Code == models.CodeNotFound {
				return code, nil
			}
			return "", err
		}
	}
	return "", models.NewError(models.CodeConflict, "could not generate a unique room code")
}

func randomCode() string {
	code := make([]byte, models.RoomCodeLength)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(codeChars))))
		code[i] = codeChars[n.Int64()]
	}
	return string(code)
}
