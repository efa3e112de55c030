package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/isbjornDAO/tundra-sub002/internal/apperr"
	"github.com/isbjornDAO/tundra-sub002/internal/bracket"
)

type TournamentInput struct {
	Game     string
	Capacity int
	Policy   bracket.VerificationPolicy
}

type ParticipantInput struct {
	Name        string
	OrganizerID string
	Region      string
	// Resolved through the RosterProvider when set, otherwise Roster is used as given
	TeamRef string
	Roster  []string
}

type TournamentData struct {
	Tournament   bracket.Tournament    `json:"tournament"`
	Participants []bracket.Participant `json:"participants"`
}

func (e *Engine) CreateTournament(ctx context.Context, in TournamentInput) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	game := strings.TrimSpace(in.Game)
	if game == "" {
		return uuid.Nil, apperr.New(apperr.CodeInvalidInput, "game is required")
	}
	if in.Capacity < 2 || in.Capacity > e.cfg.MaxCapacity {
		return uuid.Nil, apperr.WithMetadata(apperr.CodeInvalidCapacity,
			fmt.Sprintf("capacity must be between 2 and %d", e.cfg.MaxCapacity),
			map[string]string{"capacity": strconv.Itoa(in.Capacity)})
	}
	if err := in.Policy.Validate(); err != nil {
		return uuid.Nil, apperr.Wrap(apperr.CodeInvalidInput, "invalid verification policy", err)
	}

	now := e.cfg.Now().UTC()
	t := bracket.Tournament{
		ID:        uuid.New(),
		Game:      game,
		Capacity:  in.Capacity,
		Status:    bracket.TournamentOpen,
		Policy:    in.Policy.Clone(),
		Version:   1,
		CreatedAt: now,
	}
	snap := &bracket.Snapshot{Tournament: t}
	st := newTournamentState(snap)

	key := gameKey(game)
	e.mu.Lock()
	if other, taken := e.liveGames[key]; taken {
		e.mu.Unlock()
		return uuid.Nil, apperr.WithMetadata(apperr.CodeDuplicateActiveTournament,
			fmt.Sprintf("tournament %s is still running for %s", other, game),
			map[string]string{"game": game, "tournament_id": other.String()})
	}
	e.liveGames[key] = t.ID
	e.tournaments[t.ID] = st
	e.mu.Unlock()

	e.log.Info("tournament created", "tournament_id", t.ID, "game", game, "capacity", in.Capacity)
	e.afterCommit(ctx, st, snap.Clone(), []bracket.Event{{
		Type:         bracket.EventTournamentCreated,
		TournamentID: t.ID,
		At:           now,
		Payload:      map[string]string{"game": game, "capacity": strconv.Itoa(in.Capacity)},
	}})
	return t.ID, nil
}

func (e *Engine) RegisterParticipant(ctx context.Context, tournamentID uuid.UUID, in ParticipantInput) (uuid.UUID, error) {
	name := strings.TrimSpace(in.Name)
	organizer := strings.TrimSpace(in.OrganizerID)
	if name == "" || organizer == "" {
		return uuid.Nil, apperr.New(apperr.CodeInvalidInput, "participant name and organizer are required")
	}

	var roster []string
	for _, player := range in.Roster {
		if player = strings.TrimSpace(player); player != "" {
			roster = append(roster, player)
		}
	}
	if ref := strings.TrimSpace(in.TeamRef); ref != "" && e.cfg.Rosters != nil {
		players, err := e.cfg.Rosters.Roster(ctx, ref)
		if err != nil {
			return uuid.Nil, apperr.Wrap(apperr.CodeUnknown, "fetch roster", err)
		}
		roster = append([]string(nil), players...)
	}

	var participantID uuid.UUID
	err := e.mutate(ctx, tournamentID, func(c *change) error {
		t := &c.snap.Tournament
		if t.Status == bracket.TournamentFull && t.ParticipantCount >= t.Capacity {
			return apperr.ErrTournamentFull
		}
		if t.Status != bracket.TournamentOpen {
			return apperr.ErrTournamentNotOpen
		}
		if t.ParticipantCount >= t.Capacity {
			return apperr.ErrTournamentFull
		}

		seed := 0
		for _, p := range c.snap.Participants {
			if p.OrganizerID == organizer {
				return apperr.WithMetadata(apperr.CodeDuplicateOrganizer, "organizer already has an entry in this tournament",
					map[string]string{"organizer_id": organizer, "participant_id": p.ID.String()})
			}
			seed = max(seed, p.Seed)
		}

		p := bracket.Participant{
			ID:           uuid.New(),
			TournamentID: t.ID,
			Name:         name,
			OrganizerID:  organizer,
			Roster:       roster,
			Region:       strings.TrimSpace(in.Region),
			Seed:         seed + 1,
			RegisteredAt: c.now,
		}
		c.snap.Participants = append(c.snap.Participants, p)
		t.ParticipantCount++
		participantID = p.ID
		c.emit(bracket.EventParticipantRegistered, nil, map[string]string{
			"participant_id": p.ID.String(),
			"name":           p.Name,
		})

		if t.ParticipantCount == t.Capacity {
			t.Status = bracket.TournamentFull
			c.emit(bracket.EventTournamentFull, nil, map[string]string{"participants": strconv.Itoa(t.ParticipantCount)})
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return participantID, nil
}

// WithdrawParticipant removes an entry before the bracket exists. The organizer of the entry or
// an administrator may withdraw it.
func (e *Engine) WithdrawParticipant(ctx context.Context, tournamentID, participantID uuid.UUID, principalID string) error {
	admin, err := e.isAdmin(ctx, principalID)
	if err != nil {
		return err
	}

	return e.mutate(ctx, tournamentID, func(c *change) error {
		t := &c.snap.Tournament
		if t.Status != bracket.TournamentOpen && t.Status != bracket.TournamentFull {
			return apperr.ErrParticipantLocked
		}

		idx := -1
		for i, p := range c.snap.Participants {
			if p.ID == participantID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return notFound("participant", participantID)
		}
		if c.snap.Participants[idx].OrganizerID != principalID && !admin {
			return apperr.ErrUnauthorized
		}

		c.snap.Participants = append(c.snap.Participants[:idx], c.snap.Participants[idx+1:]...)
		t.ParticipantCount--
		c.emit(bracket.EventParticipantWithdrawn, nil, map[string]string{"participant_id": participantID.String()})
		return nil
	})
}

// ForceClose stops registration before capacity is reached.
func (e *Engine) ForceClose(ctx context.Context, tournamentID uuid.UUID, adminID string) error {
	if err := e.requireAdmin(ctx, adminID); err != nil {
		return err
	}

	return e.mutate(ctx, tournamentID, func(c *change) error {
		t := &c.snap.Tournament
		if t.Status != bracket.TournamentOpen {
			return apperr.ErrTournamentNotOpen
		}
		t.Status = bracket.TournamentFull
		c.emit(bracket.EventTournamentFull, nil, map[string]string{
			"participants": strconv.Itoa(t.ParticipantCount),
			"forced":       "true",
		})
		return nil
	})
}

func (e *Engine) DeleteTournament(ctx context.Context, tournamentID uuid.UUID, adminID string) error {
	if err := e.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	st, err := e.state(tournamentID)
	if err != nil {
		return err
	}
	if err := st.lock(ctx); err != nil {
		return err
	}
	if st.deleted.Load() {
		st.unlock()
		return notFound("tournament", tournamentID)
	}
	st.deleted.Store(true)
	snap := st.snap

	e.mu.Lock()
	delete(e.tournaments, tournamentID)
	if snap.Bracket != nil {
		for _, m := range snap.Bracket.Matches {
			delete(e.matches, m.ID)
		}
	}
	for _, p := range snap.Proposals {
		delete(e.proposals, p.ID)
	}
	if key := gameKey(snap.Tournament.Game); e.liveGames[key] == tournamentID {
		delete(e.liveGames, key)
	}
	e.mu.Unlock()
	st.unlock()

	e.log.Info("tournament deleted", "tournament_id", tournamentID, "admin_id", adminID)

	if e.cfg.Recorder != nil {
		st.persistMu.Lock()
		if err := e.cfg.Recorder.DeleteTournament(context.WithoutCancel(ctx), tournamentID); err != nil {
			e.log.Error("failed to delete persisted tournament", "tournament_id", tournamentID, "error", err)
		}
		st.persistMu.Unlock()
	}
	events := []bracket.Event{{Type: bracket.EventTournamentDeleted, TournamentID: tournamentID, At: e.cfg.Now().UTC()}}
	for _, n := range e.cfg.Notifiers {
		n.Notify(ctx, events)
	}
	return nil
}

func (e *Engine) GetTournamentData(ctx context.Context, tournamentID uuid.UUID) (*TournamentData, error) {
	var data *TournamentData
	err := e.read(ctx, tournamentID, func(s *bracket.Snapshot) error {
		c := s.Clone()
		data = &TournamentData{Tournament: c.Tournament, Participants: c.Participants}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ListTournaments returns every tournament, newest first. An empty game lists all games.
func (e *Engine) ListTournaments(ctx context.Context, game string) ([]bracket.Tournament, error) {
	key := gameKey(game)
	var out []bracket.Tournament
	for _, id := range e.tournamentIDs() {
		err := e.read(ctx, id, func(s *bracket.Snapshot) error {
			if key == "" || gameKey(s.Tournament.Game) == key {
				out = append(out, s.Clone().Tournament)
			}
			return nil
		})
		if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
			return nil, err
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
