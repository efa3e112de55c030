package bracket

import (
	"time"

	"github.com/google/uuid"
	"github.com/isbjornDAO/tundra-sub002/internal/utils"
)

type MatchStatus string

const (
	MatchPending        MatchStatus = "pending"
	MatchScheduling     MatchStatus = "scheduling"
	MatchScheduled      MatchStatus = "scheduled"
	MatchAwaitingResult MatchStatus = "awaiting_result"
	MatchCompleted      MatchStatus = "completed"
)

type RoundTag string

const (
	RoundFirst   RoundTag = "first"
	RoundQuarter RoundTag = "quarter"
	RoundSemi    RoundTag = "semi"
	RoundFinal   RoundTag = "final"
)

var roundOrder = map[RoundTag]int{RoundFirst: 0, RoundQuarter: 1, RoundSemi: 2, RoundFinal: 3}

func (t RoundTag) Valid() bool {
	_, ok := roundOrder[t]
	return ok
}

// Before reports whether t is played before other.
func (t RoundTag) Before(other RoundTag) bool {
	return roundOrder[t] < roundOrder[other]
}

// TagForRound names round r (1-based) of a bracket with total rounds, counting back from the final.
func TagForRound(r, total int) RoundTag {
	switch total - r {
	case 0:
		return RoundFinal
	case 1:
		return RoundSemi
	case 2:
		return RoundQuarter
	default:
		return RoundFirst
	}
}

type SlotKind string

const (
	SlotParticipant SlotKind = "participant"
	SlotPlaceholder SlotKind = "placeholder"
	SlotBye         SlotKind = "bye"
)

// Slot is one side of a match: a concrete participant, the winner of an earlier match, or nothing.
type Slot struct {
	Kind          SlotKind   `json:"kind"`
	ParticipantID *uuid.UUID `json:"participant_id,omitempty"`
	SourceMatchID *uuid.UUID `json:"source_match_id,omitempty"`
}

func ConcreteSlot(participantID uuid.UUID) Slot {
	return Slot{Kind: SlotParticipant, ParticipantID: &participantID}
}

func PlaceholderSlot(matchID uuid.UUID) Slot {
	return Slot{Kind: SlotPlaceholder, SourceMatchID: &matchID}
}

func (s Slot) IsConcrete() bool {
	return s.Kind == SlotParticipant && s.ParticipantID != nil
}

// WaitsOn reports whether the slot is a placeholder for the winner of matchID.
func (s Slot) WaitsOn(matchID uuid.UUID) bool {
	return s.Kind == SlotPlaceholder && s.SourceMatchID != nil && *s.SourceMatchID == matchID
}

func (s Slot) clone() Slot {
	s.ParticipantID = utils.ClonePtr(s.ParticipantID)
	s.SourceMatchID = utils.ClonePtr(s.SourceMatchID)
	return s
}

type Match struct {
	ID           uuid.UUID `json:"id"`
	BracketID    uuid.UUID `json:"bracket_id"`
	TournamentID uuid.UUID `json:"tournament_id"`

	// Position in the bracket for reconstructing the view
	Round int      `json:"round"`
	Tag   RoundTag `json:"tag"`
	Order int      `json:"order"`

	SlotA Slot `json:"slot_a"`
	SlotB Slot `json:"slot_b"`

	Status MatchStatus      `json:"status"`
	Kind   VerificationKind `json:"verification_kind"`
	Hosts  []HostBinding    `json:"hosts,omitempty"`

	ScheduledAt        *time.Time `json:"scheduled_at,omitempty"`
	AcceptedProposalID *uuid.UUID `json:"accepted_proposal_id,omitempty"`

	WinnerID    *uuid.UUID `json:"winner_id,omitempty"`
	LoserID     *uuid.UUID `json:"loser_id,omitempty"`
	Disputed    bool       `json:"disputed"`
	Forced      bool       `json:"forced"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Ready reports whether both sides are concrete participants.
func (m *Match) Ready() bool {
	return m.SlotA.IsConcrete() && m.SlotB.IsConcrete()
}

// HasParticipant reports whether id occupies one of the two slots.
func (m *Match) HasParticipant(id uuid.UUID) bool {
	return (m.SlotA.IsConcrete() && *m.SlotA.ParticipantID == id) ||
		(m.SlotB.IsConcrete() && *m.SlotB.ParticipantID == id)
}

// Opponent returns the other participant of a ready match.
func (m *Match) Opponent(id uuid.UUID) (uuid.UUID, bool) {
	if !m.Ready() {
		return uuid.Nil, false
	}
	switch id {
	case *m.SlotA.ParticipantID:
		return *m.SlotB.ParticipantID, true
	case *m.SlotB.ParticipantID:
		return *m.SlotA.ParticipantID, true
	}
	return uuid.Nil, false
}

// HostFor returns the principal bound to scope.
func (m *Match) HostFor(scope string) (string, bool) {
	for _, h := range m.Hosts {
		if h.Scope == scope {
			return h.PrincipalID, true
		}
	}
	return "", false
}

func (m *Match) IsFinal() bool {
	return m.Tag == RoundFinal
}

// Clone returns a deep copy.
func (m Match) Clone() Match {
	return m.clone()
}

func (m Match) clone() Match {
	m.SlotA = m.SlotA.clone()
	m.SlotB = m.SlotB.clone()
	m.Hosts = cloneEach(m.Hosts, func(h HostBinding) HostBinding { return h })
	m.ScheduledAt = utils.ClonePtr(m.ScheduledAt)
	m.AcceptedProposalID = utils.ClonePtr(m.AcceptedProposalID)
	m.WinnerID = utils.ClonePtr(m.WinnerID)
	m.LoserID = utils.ClonePtr(m.LoserID)
	m.CompletedAt = utils.ClonePtr(m.CompletedAt)
	return m
}
