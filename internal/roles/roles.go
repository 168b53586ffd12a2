// Package roles is the role assignment engine: pure functions over a roster
// snapshot. Derived views are never stored, they are recomputed here on every
// mutation and broadcast.
package roles

import (
	"math/rand"
	"time"

	"github.com/Jaykim98z/jandibat-live-draft/internal/models"
)

const (
	minManagers = 2
	minPlayers  = 1
)

// Summary holds the role tallies and the draft-start gate.
type Summary struct {
	ManagerCount  int
	PlayerCount   int
	CanStartDraft bool
}

// Recompute tallies roles and evaluates the draft-start gate.
// Readiness is deliberately not part of the gate.
func Recompute(participants []models.Participant) Summary {
	var s Summary
	for _, p := range participants {
		switch p.Role {
		case models.RoleManager:
			s.ManagerCount++
		case models.RolePlayer:
			s.PlayerCount++
		}
	}
	s.CanStartDraft = s.ManagerCount >= minManagers && s.PlayerCount >= minPlayers
	return s
}

// Assign sets the role of exactly one participant.
func Assign(room *models.Room, participantID string, role models.Role) error {
	if !models.ValidRole(role) {
		return models.Errorf(models.CodeValidation, "invalid role %q", role)
	}
	p, ok := room.Participant(participantID)
	if !ok {
		return models.NewError(models.CodeNotFound, "participant not found in room")
	}
	p.Role = role
	return nil
}

// targetManagers is the manager quota for a roster of the given size.
func targetManagers(rosterSize int) int {
	switch {
	case rosterSize <= 4:
		return 2
	case rosterSize <= 8:
		return 3
	default:
		return 4
	}
}

// AutoAssign overwrites every participant's role in one shot: the host is
// always a manager, a uniformly shuffled subset of the rest fills the quota,
// everyone else becomes a player. Pass a nil rng for a time-seeded shuffle.
func AutoAssign(room *models.Room, rng *rand.Rand) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	target := targetManagers(len(room.Participants))

	others := make([]*models.Participant, 0, len(room.Participants))
	for i := range room.Participants {
		p := &room.Participants[i]
		if p.IsHost {
			p.Role = models.RoleManager
		} else {
			p.Role = models.RolePlayer
			others = append(others, p)
		}
	}

	rng.Shuffle(len(others), func(i, j int) {
		others[i], others[j] = others[j], others[i]
	})
	for i := 0; i < target-1 && i < len(others); i++ {
		others[i].Role = models.RoleManager
	}
}

// Managers derives the manager list from the roster, in join order.
func Managers(room *models.Room, assignedAt time.Time) []models.ManagerView {
	out := make([]models.ManagerView, 0, len(room.Participants))
	for _, p := range room.Participants {
		if p.Role != models.RoleManager {
			continue
		}
		out = append(out, models.ManagerView{
			ParticipantID: p.ID,
			Handle:        p.Handle,
			Nickname:      p.Nickname,
			Avatar:        p.Avatar,
			Position:      p.Position,
			AssignedAt:    assignedAt,
			Team:          []models.PoolPlayer{},
		})
	}
	return out
}

// PlayerPool derives the draft-eligible entries from the roster.
func PlayerPool(room *models.Room) []models.PoolPlayer {
	out := make([]models.PoolPlayer, 0, len(room.Participants))
	for _, p := range room.Participants {
		if p.Role != models.RolePlayer {
			continue
		}
		out = append(out, models.PoolPlayer{
			ParticipantID: p.ID,
			Handle:        p.Handle,
			Nickname:      p.Nickname,
			Avatar:        p.Avatar,
			Position:      p.Position,
		})
	}
	return out
}

// View assembles the full client-facing snapshot of a room, password
// redacted, derived views freshly recomputed.
func View(room *models.Room) models.RoomView {
	summary := Recompute(room.Participants)
	return models.RoomView{
		Code:             room.Code,
		Title:            room.Title,
		Host:             room.Host,
		Settings:         room.Settings.View(),
		Status:           room.Status,
		Participants:     room.Participants,
		ParticipantCount: len(room.Participants),
		Managers:         Managers(room, room.UpdatedAt),
		PlayerPool:       PlayerPool(room),
		ManagerCount:     summary.ManagerCount,
		PlayerCount:      summary.PlayerCount,
		CanStartDraft:    summary.CanStartDraft,
		CreatedAt:        room.CreatedAt,
		UpdatedAt:        room.UpdatedAt,
	}
}
