// Package coordinator keeps the persisted room roster consistent with the
// volatile set of live connections. Every inbound connection event loads the
// room document, mutates it, persists, recomputes derived views and fans the
// result out to every subscriber of the room. Mutations to one room are
// serialized by a per-room mutex; different rooms proceed in parallel.
package coordinator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Jaykim98z/jandibat-live-draft/internal/models"
	"github.com/Jaykim98z/jandibat-live-draft/internal/roles"
	"github.com/Jaykim98z/jandibat-live-draft/internal/store"
)

type Coordinator struct {
	store    store.Store
	channel  Channel
	registry *Registry

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// rng overrides the shuffle source in tests; nil means time-seeded.
	rng *rand.Rand
}

func New(st store.Store, ch Channel, reg *Registry) *Coordinator {
	return &Coordinator{
		store:    st,
		channel:  ch,
		registry: reg,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Registry exposes the session registry for read-side consumers.
func (c *Coordinator) Registry() *Registry {
	return c.registry
}

// lockRoom serializes read-modify-write cycles on one room document.
func (c *Coordinator) lockRoom(code string) func() {
	c.mu.Lock()
	l, ok := c.locks[code]
	if !ok {
		l = &sync.Mutex{}
		c.locks[code] = l
	}
	c.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Join binds a connection to its roster entry and announces it to the room.
// A connection already in a different room is first made to leave it, so a
// connection is a member of at most one room.
func (c *Coordinator) Join(ctx context.Context, conn Conn, roomCode, participantID string) error {
	if sess, ok := c.registry.Get(conn.ID()); ok && sess.RoomCode != roomCode {
		if err := c.Leave(ctx, conn); err != nil {
			log.Warn().Err(err).Str("room", sess.RoomCode).Msg("implicit leave failed")
		}
	}

	unlock := c.lockRoom(roomCode)
	defer unlock()

	room, err := c.store.FindRoom(ctx, roomCode)
	if err != nil {
		return err
	}
	p, ok := room.Participant(participantID)
	if !ok {
		return models.NewError(models.CodeNotFound, "participant not found in room")
	}

	c.registry.Put(conn.ID(), Session{
		ParticipantID: participantID,
		RoomCode:      roomCode,
		Nickname:      p.Nickname,
	})
	c.channel.Subscribe(roomCode, conn)

	view := roles.View(room)
	c.channel.Publish(roomCode, EventRoomUpdated, RoomUpdatedPayload{Room: view})
	conn.Send(EventJoined, JoinedPayload{
		Room:          view,
		ParticipantID: participantID,
		IsHost:        room.IsHost(participantID),
	})
	c.systemMessage(ctx, roomCode, fmt.Sprintf("%s joined the room", p.Nickname))

	log.Info().Str("room", roomCode).Str("participant", participantID).Str("conn", conn.ID()).Msg("joined room")
	return nil
}

// Leave removes the connection's roster entry for good. It is a no-op for
// connections without a session, which makes the explicit-leave and
// disconnect paths safe to double-fire. The registry entry and subscription
// are cleared even when the roster write fails; the reverse inconsistency is
// logged and reclaimed by the room TTL.
func (c *Coordinator) Leave(ctx context.Context, conn Conn) error {
	sess, ok := c.registry.Get(conn.ID())
	if !ok {
		return nil
	}

	unlock := c.lockRoom(sess.RoomCode)
	defer unlock()

	c.registry.Remove(conn.ID())
	c.channel.Unsubscribe(sess.RoomCode, conn)

	room, err := c.store.FindRoom(ctx, sess.RoomCode)
	if err != nil {
		log.Warn().Err(err).Str("room", sess.RoomCode).Msg("room lookup failed during leave")
		return nil
	}

	room.RemoveParticipant(sess.ParticipantID)
	room.UpdatedAt = time.Now()
	if c.registry.RoomCount(sess.RoomCode) == 0 {
		// Soft delete: the document stays for audit until the TTL reclaims it.
		room.Status = models.StatusAbandoned
		log.Info().Str("room", sess.RoomCode).Msg("last session gone, room abandoned")
	}
	if err := c.store.SaveRoom(ctx, room); err != nil {
		log.Error().Err(err).Str("room", sess.RoomCode).Msg("roster write failed during leave")
		return nil
	}

	c.channel.Publish(sess.RoomCode, EventParticipantLeft, ParticipantLeftPayload{
		ParticipantID: sess.ParticipantID,
		Nickname:      sess.Nickname,
		Room:          roles.View(room),
	})
	c.systemMessage(ctx, sess.RoomCode, fmt.Sprintf("%s left the room", sess.Nickname))

	log.Info().Str("room", sess.RoomCode).Str("participant", sess.ParticipantID).Msg("left room")
	return nil
}

// Disconnect treats a transport-level connection loss as a permanent leave.
func (c *Coordinator) Disconnect(ctx context.Context, conn Conn) {
	_ = c.Leave(ctx, conn)
}

// SendChat persists a chat line and delivers it to every subscriber of the
// room, sender included.
func (c *Coordinator) SendChat(ctx context.Context, conn Conn, text string) error {
	sess, ok := c.registry.Get(conn.ID())
	if !ok {
		return models.NewError(models.CodeValidation, "you have not joined a room")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return models.NewError(models.CodeValidation, "message is empty")
	}
	if utf8.RuneCountInString(text) > models.MaxChatLength {
		return models.Errorf(models.CodeValidation, "message too long (max %d characters)", models.MaxChatLength)
	}

	msg := &models.ChatMessage{
		ID:            uuid.NewString(),
		RoomCode:      sess.RoomCode,
		ParticipantID: sess.ParticipantID,
		Nickname:      sess.Nickname,
		Text:          text,
		Type:          models.MessageUser,
		Timestamp:     time.Now(),
	}
	if err := c.store.AppendMessage(ctx, msg); err != nil {
		return err
	}
	c.channel.Publish(sess.RoomCode, EventChatMessage, msg)
	return nil
}

// ToggleReady flips the participant's ready flag. The host is always ready.
func (c *Coordinator) ToggleReady(ctx context.Context, conn Conn) error {
	sess, ok := c.registry.Get(conn.ID())
	if !ok {
		return models.NewError(models.CodeValidation, "you have not joined a room")
	}

	unlock := c.lockRoom(sess.RoomCode)
	defer unlock()

	room, err := c.store.FindRoom(ctx, sess.RoomCode)
	if err != nil {
		return err
	}
	p, ok := room.Participant(sess.ParticipantID)
	if !ok {
		return models.NewError(models.CodeNotFound, "participant not found in room")
	}
	if !p.IsHost {
		p.IsReady = !p.IsReady
	}
	room.UpdatedAt = time.Now()
	if err := c.store.SaveRoom(ctx, room); err != nil {
		return err
	}
	c.channel.Publish(sess.RoomCode, EventRoomUpdated, RoomUpdatedPayload{Room: roles.View(room)})
	return nil
}

// UpdateSettings applies the provided subset of settings. Host only.
func (c *Coordinator) UpdateSettings(ctx context.Context, conn Conn, patch SettingsPatch) error {
	sess, ok := c.registry.Get(conn.ID())
	if !ok {
		return models.NewError(models.CodeValidation, "you have not joined a room")
	}

	unlock := c.lockRoom(sess.RoomCode)
	defer unlock()

	room, err := c.store.FindRoom(ctx, sess.RoomCode)
	if err != nil {
		return err
	}
	if !room.IsHost(sess.ParticipantID) {
		return models.NewError(models.CodeForbidden, "only the host can update room settings")
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" || utf8.RuneCountInString(title) > models.MaxTitleLength {
			return models.Errorf(models.CodeValidation, "title must be 1-%d characters", models.MaxTitleLength)
		}
		room.Title = title
	}
	if patch.DraftType != nil {
		if !models.ValidDraftType(*patch.DraftType) {
			return models.Errorf(models.CodeValidation, "invalid draft type %q", *patch.DraftType)
		}
		room.Settings.DraftType = *patch.DraftType
	}
	if patch.TurnTime != nil {
		if *patch.TurnTime <= 0 {
			return models.NewError(models.CodeValidation, "turn time must be positive")
		}
		room.Settings.TurnTime = *patch.TurnTime
	}
	if patch.MaxParticipants != nil {
		if *patch.MaxParticipants < 2 || *patch.MaxParticipants > models.MaxParticipants {
			return models.Errorf(models.CodeValidation, "max participants must be 2-%d", models.MaxParticipants)
		}
		room.Settings.MaxParticipants = *patch.MaxParticipants
	}

	room.UpdatedAt = time.Now()
	if err := c.store.SaveRoom(ctx, room); err != nil {
		return err
	}
	c.channel.Publish(sess.RoomCode, EventRoomUpdated, RoomUpdatedPayload{Room: roles.View(room)})
	log.Info().Str("room", sess.RoomCode).Msg("room settings updated")
	return nil
}

// AssignRole sets one participant's role. Host only.
func (c *Coordinator) AssignRole(ctx context.Context, conn Conn, targetID string, role models.Role) error {
	sess, ok := c.registry.Get(conn.ID())
	if !ok {
		return models.NewError(models.CodeValidation, "you have not joined a room")
	}

	unlock := c.lockRoom(sess.RoomCode)
	defer unlock()

	room, err := c.store.FindRoom(ctx, sess.RoomCode)
	if err != nil {
		return err
	}
	if !room.IsHost(sess.ParticipantID) {
		return models.NewError(models.CodeForbidden, "only the host can assign roles")
	}
	if err := roles.Assign(room, targetID, role); err != nil {
		return err
	}
	room.UpdatedAt = time.Now()
	if err := c.store.SaveRoom(ctx, room); err != nil {
		return err
	}
	c.channel.Publish(sess.RoomCode, EventRoleAssigned, RoleAssignedPayload{
		ParticipantID: targetID,
		Role:          role,
		Room:          roles.View(room),
	})
	return nil
}

// AutoAssignRoles overwrites every role in one shot. Host only.
func (c *Coordinator) AutoAssignRoles(ctx context.Context, conn Conn) error {
	sess, ok := c.registry.Get(conn.ID())
	if !ok {
		return models.NewError(models.CodeValidation, "you have not joined a room")
	}

	unlock := c.lockRoom(sess.RoomCode)
	defer unlock()

	room, err := c.store.FindRoom(ctx, sess.RoomCode)
	if err != nil {
		return err
	}
	if !room.IsHost(sess.ParticipantID) {
		return models.NewError(models.CodeForbidden, "only the host can auto-assign roles")
	}

	roles.AutoAssign(room, c.rng)
	room.UpdatedAt = time.Now()
	if err := c.store.SaveRoom(ctx, room); err != nil {
		return err
	}
	c.channel.Publish(sess.RoomCode, EventRolesAutoAssigned, RoomUpdatedPayload{Room: roles.View(room)})
	c.systemMessage(ctx, sess.RoomCode, "Roles were assigned automatically")
	return nil
}

// StartDraft transitions waiting -> drafting after re-validating the gate
// against the freshly loaded roster. Host only.
func (c *Coordinator) StartDraft(ctx context.Context, conn Conn) error {
	sess, ok := c.registry.Get(conn.ID())
	if !ok {
		return models.NewError(models.CodeValidation, "you have not joined a room")
	}

	unlock := c.lockRoom(sess.RoomCode)
	defer unlock()

	room, err := c.store.FindRoom(ctx, sess.RoomCode)
	if err != nil {
		return err
	}
	if !room.IsHost(sess.ParticipantID) {
		return models.NewError(models.CodeForbidden, "only the host can start the draft")
	}
	if room.Status != models.StatusWaiting {
		return models.Errorf(models.CodeConflict, "draft cannot start from status %q", room.Status)
	}

	summary := roles.Recompute(room.Participants)
	if summary.ManagerCount < 2 {
		return models.Errorf(models.CodePreconditionFailed,
			"at least 2 managers required to start the draft, have %d", summary.ManagerCount)
	}
	if summary.PlayerCount < 1 {
		return models.Errorf(models.CodePreconditionFailed,
			"at least 1 player required to start the draft, have %d", summary.PlayerCount)
	}

	room.Status = models.StatusDrafting
	room.UpdatedAt = time.Now()
	if err := c.store.SaveRoom(ctx, room); err != nil {
		return err
	}
	c.channel.Publish(sess.RoomCode, EventDraftStarted, RoomUpdatedPayload{Room: roles.View(room)})
	c.systemMessage(ctx, sess.RoomCode, "The draft has started!")

	log.Info().Str("room", sess.RoomCode).Int("managers", summary.ManagerCount).
		Int("players", summary.PlayerCount).Msg("draft started")
	return nil
}

// systemMessage persists and broadcasts a coordinator-generated chat line.
// Failures are logged, never surfaced; announcements must not fail the
// operation that triggered them.
func (c *Coordinator) systemMessage(ctx context.Context, roomCode, text string) {
	msg := &models.ChatMessage{
		ID:            uuid.NewString(),
		RoomCode:      roomCode,
		ParticipantID: "system",
		Nickname:      "System",
		Text:          text,
		Type:          models.MessageSystem,
		Timestamp:     time.Now(),
	}
	if err := c.store.AppendMessage(ctx, msg); err != nil {
		log.Warn().Err(err).Str("room", roomCode).Msg("failed to persist system message")
	}
	c.channel.Publish(roomCode, EventChatMessage, msg)
}
