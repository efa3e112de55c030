package bracket

import (
	"encoding/binary"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/isbjornDAO/tundra-sub002/internal/apperr"
)

type BuildParams struct {
	TournamentID uuid.UUID
	// Participants in registration order
	Participants []Participant
	Policy       VerificationPolicy
	// Defaults to uuid.New
	NewID func() uuid.UUID
}

// Gets the number of single elimination rounds, so with input 5 it returns 3 and so on
func calcRounds(count int) int {
	if count < 2 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(count))))
}

// Shuffle reorders participants with a PRNG seeded from the tournament id, so the same
// tournament always produces the same draw.
func Shuffle(tournamentID uuid.UUID, participants []Participant) {
	src := rand.NewPCG(binary.BigEndian.Uint64(tournamentID[:8]), binary.BigEndian.Uint64(tournamentID[8:]))
	r := rand.New(src)
	r.Shuffle(len(participants), func(i, j int) {
		participants[i], participants[j] = participants[j], participants[i]
	})
}

// A bracket position going into a round: either a participant carried by a bye or the
// winner of a match from the previous round.
type node struct {
	participantID *uuid.UUID
	matchID       *uuid.UUID
}

func (n node) slot() Slot {
	if n.matchID != nil {
		return PlaceholderSlot(*n.matchID)
	}
	return ConcreteSlot(*n.participantID)
}

// Build constructs the full match tree for a tournament.
//
// Participants are shuffled deterministically and paired 0v1, 2v3, ...; an odd participant out
// gets a bye and moves to the next round without a match. Later rounds pair the winners of the
// previous round through placeholder slots until a single final remains.
func Build(p BuildParams) (*Bracket, error) {
	n := len(p.Participants)
	if n < 2 {
		return nil, apperr.ErrInsufficientParticipants
	}
	newID := p.NewID
	if newID == nil {
		newID = uuid.New
	}

	b := &Bracket{
		ID:           newID(),
		TournamentID: p.TournamentID,
		Status:       BracketActive,
		Participants: make([]Participant, n),
	}
	for i, part := range p.Participants {
		b.Participants[i] = part.clone()
	}

	drawn := make([]Participant, n)
	copy(drawn, b.Participants)
	Shuffle(p.TournamentID, drawn)

	nodes := make([]node, n)
	for i := range drawn {
		id := drawn[i].ID
		nodes[i] = node{participantID: &id}
	}

	totalRounds := calcRounds(n)
	b.Matches = make([]Match, 0, n-1)

	for round := 1; len(nodes) > 1; round++ {
		tag := TagForRound(round, totalRounds)
		kind := p.Policy.KindFor(tag)

		next := make([]node, 0, (len(nodes)+1)/2)
		order := 0
		for i := 0; i+1 < len(nodes); i += 2 {
			order++
			m := Match{
				ID:           newID(),
				BracketID:    b.ID,
				TournamentID: p.TournamentID,
				Round:        round,
				Tag:          tag,
				Order:        order,
				SlotA:        nodes[i].slot(),
				SlotB:        nodes[i+1].slot(),
				Status:       MatchPending,
				Kind:         kind,
			}
			if kind == DualHost {
				m.Hosts = append([]HostBinding(nil), p.Policy.Hosts...)
			}
			if m.Ready() {
				m.Status = MatchScheduling
			}
			b.Matches = append(b.Matches, m)

			id := m.ID
			next = append(next, node{matchID: &id})
		}
		if len(nodes)%2 == 1 {
			next = append(next, nodes[len(nodes)-1])
		}
		nodes = next
	}

	return b, nil
}
