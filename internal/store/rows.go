package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isbjornDAO/tundra-sub002/internal/bracket"
	"github.com/jmoiron/sqlx/types"
)

type tournamentRow struct {
	ID               uuid.UUID                `db:"id"`
	Game             string                   `db:"game"`
	Capacity         int                      `db:"capacity"`
	ParticipantCount int                      `db:"participant_count"`
	Status           bracket.TournamentStatus `db:"status"`
	Policy           types.JSONText           `db:"policy"`
	BracketID        *uuid.UUID               `db:"bracket_id"`
	WinnerID         *uuid.UUID               `db:"winner_id"`
	RunnerUpID       *uuid.UUID               `db:"runner_up_id"`
	Version          int64                    `db:"version"`
	CreatedAt        time.Time                `db:"created_at"`
}

type participantRow struct {
	ID           uuid.UUID      `db:"id"`
	TournamentID uuid.UUID      `db:"tournament_id"`
	Name         string         `db:"name"`
	OrganizerID  string         `db:"organizer_id"`
	Roster       types.JSONText `db:"roster"`
	Region       string         `db:"region"`
	Seed         int            `db:"seed"`
	RegisteredAt time.Time      `db:"registered_at"`
}

type bracketRow struct {
	ID           uuid.UUID             `db:"id"`
	TournamentID uuid.UUID             `db:"tournament_id"`
	Status       bracket.BracketStatus `db:"status"`
	WinnerID     *uuid.UUID            `db:"winner_id"`
	Participants types.JSONText        `db:"participants"`
}

type matchRow struct {
	ID                 uuid.UUID                `db:"id"`
	BracketID          uuid.UUID                `db:"bracket_id"`
	TournamentID       uuid.UUID                `db:"tournament_id"`
	Round              int                      `db:"round"`
	Tag                bracket.RoundTag         `db:"tag"`
	Order              int                      `db:"match_order"`
	SlotAKind          bracket.SlotKind         `db:"slot_a_kind"`
	SlotAParticipantID *uuid.UUID               `db:"slot_a_participant_id"`
	SlotASourceMatchID *uuid.UUID               `db:"slot_a_source_match_id"`
	SlotBKind          bracket.SlotKind         `db:"slot_b_kind"`
	SlotBParticipantID *uuid.UUID               `db:"slot_b_participant_id"`
	SlotBSourceMatchID *uuid.UUID               `db:"slot_b_source_match_id"`
	Status             bracket.MatchStatus      `db:"status"`
	Kind               bracket.VerificationKind `db:"verification_kind"`
	Hosts              types.JSONText           `db:"hosts"`
	ScheduledAt        *time.Time               `db:"scheduled_at"`
	AcceptedProposalID *uuid.UUID               `db:"accepted_proposal_id"`
	WinnerID           *uuid.UUID               `db:"winner_id"`
	LoserID            *uuid.UUID               `db:"loser_id"`
	Disputed           bool                     `db:"disputed"`
	Forced             bool                     `db:"forced"`
	CompletedAt        *time.Time               `db:"completed_at"`
}

type proposalRow struct {
	TournamentID uuid.UUID `db:"tournament_id"`
	bracket.TimeSlotProposal
}

type submissionRow struct {
	TournamentID uuid.UUID `db:"tournament_id"`
	bracket.ResultSubmission
}

func toJSON(v any) (types.JSONText, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return types.JSONText(b), nil
}

func newTournamentRow(t bracket.Tournament) (tournamentRow, error) {
	policy, err := toJSON(t.Policy)
	if err != nil {
		return tournamentRow{}, fmt.Errorf("encode policy: %w", err)
	}
	return tournamentRow{
		ID:               t.ID,
		Game:             t.Game,
		Capacity:         t.Capacity,
		ParticipantCount: t.ParticipantCount,
		Status:           t.Status,
		Policy:           policy,
		BracketID:        t.BracketID,
		WinnerID:         t.WinnerID,
		RunnerUpID:       t.RunnerUpID,
		Version:          t.Version,
		CreatedAt:        t.CreatedAt,
	}, nil
}

func (r tournamentRow) tournament() (bracket.Tournament, error) {
	t := bracket.Tournament{
		ID:               r.ID,
		Game:             r.Game,
		Capacity:         r.Capacity,
		ParticipantCount: r.ParticipantCount,
		Status:           r.Status,
		BracketID:        r.BracketID,
		WinnerID:         r.WinnerID,
		RunnerUpID:       r.RunnerUpID,
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
	}
	if err := r.Policy.Unmarshal(&t.Policy); err != nil {
		return t, fmt.Errorf("decode policy of tournament %s: %w", r.ID, err)
	}
	return t, nil
}

func newParticipantRows(ps []bracket.Participant) ([]participantRow, error) {
	rows := make([]participantRow, 0, len(ps))
	for _, p := range ps {
		roster, err := toJSON(p.Roster)
		if err != nil {
			return nil, fmt.Errorf("encode roster: %w", err)
		}
		rows = append(rows, participantRow{
			ID:           p.ID,
			TournamentID: p.TournamentID,
			Name:         p.Name,
			OrganizerID:  p.OrganizerID,
			Roster:       roster,
			Region:       p.Region,
			Seed:         p.Seed,
			RegisteredAt: p.RegisteredAt,
		})
	}
	return rows, nil
}

func (r participantRow) participant() (bracket.Participant, error) {
	p := bracket.Participant{
		ID:           r.ID,
		TournamentID: r.TournamentID,
		Name:         r.Name,
		OrganizerID:  r.OrganizerID,
		Region:       r.Region,
		Seed:         r.Seed,
		RegisteredAt: r.RegisteredAt,
	}
	if err := r.Roster.Unmarshal(&p.Roster); err != nil {
		return p, fmt.Errorf("decode roster of participant %s: %w", r.ID, err)
	}
	return p, nil
}

func newMatchRows(ms []bracket.Match) ([]matchRow, error) {
	rows := make([]matchRow, 0, len(ms))
	for _, m := range ms {
		hosts, err := toJSON(m.Hosts)
		if err != nil {
			return nil, fmt.Errorf("encode hosts: %w", err)
		}
		rows = append(rows, matchRow{
			ID:                 m.ID,
			BracketID:          m.BracketID,
			TournamentID:       m.TournamentID,
			Round:              m.Round,
			Tag:                m.Tag,
			Order:              m.Order,
			SlotAKind:          m.SlotA.Kind,
			SlotAParticipantID: m.SlotA.ParticipantID,
			SlotASourceMatchID: m.SlotA.SourceMatchID,
			SlotBKind:          m.SlotB.Kind,
			SlotBParticipantID: m.SlotB.ParticipantID,
			SlotBSourceMatchID: m.SlotB.SourceMatchID,
			Status:             m.Status,
			Kind:               m.Kind,
			Hosts:              hosts,
			ScheduledAt:        m.ScheduledAt,
			AcceptedProposalID: m.AcceptedProposalID,
			WinnerID:           m.WinnerID,
			LoserID:            m.LoserID,
			Disputed:           m.Disputed,
			Forced:             m.Forced,
			CompletedAt:        m.CompletedAt,
		})
	}
	return rows, nil
}

func (r matchRow) match() (bracket.Match, error) {
	m := bracket.Match{
		ID:                 r.ID,
		BracketID:          r.BracketID,
		TournamentID:       r.TournamentID,
		Round:              r.Round,
		Tag:                r.Tag,
		Order:              r.Order,
		SlotA:              bracket.Slot{Kind: r.SlotAKind, ParticipantID: r.SlotAParticipantID, SourceMatchID: r.SlotASourceMatchID},
		SlotB:              bracket.Slot{Kind: r.SlotBKind, ParticipantID: r.SlotBParticipantID, SourceMatchID: r.SlotBSourceMatchID},
		Status:             r.Status,
		Kind:               r.Kind,
		ScheduledAt:        r.ScheduledAt,
		AcceptedProposalID: r.AcceptedProposalID,
		WinnerID:           r.WinnerID,
		LoserID:            r.LoserID,
		Disputed:           r.Disputed,
		Forced:             r.Forced,
		CompletedAt:        r.CompletedAt,
	}
	if err := r.Hosts.Unmarshal(&m.Hosts); err != nil {
		return m, fmt.Errorf("decode hosts of match %s: %w", r.ID, err)
	}
	return m, nil
}
