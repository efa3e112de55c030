package bracket

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/isbjornDAO/tundra-sub002/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeParticipants(tournamentID uuid.UUID, n int) []Participant {
	ps := make([]Participant, n)
	for i := range ps {
		ps[i] = Participant{
			ID:           uuid.New(),
			TournamentID: tournamentID,
			Name:         fmt.Sprintf("Clan %d", i+1),
			OrganizerID:  fmt.Sprintf("organizer-%d", i+1),
			Roster:       []string{fmt.Sprintf("player-%d", i+1)},
			Seed:         i + 1,
		}
	}
	return ps
}

func TestCalcRounds(t *testing.T) {
	testCases := []struct {
		count    int
		expected int
	}{
		{0, 0}, {1, 0}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {8, 3}, {9, 4}, {16, 4}, {17, 5},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d participants", tc.count), func(t *testing.T) {
			assert.Equal(t, tc.expected, calcRounds(tc.count))
		})
	}
}

func TestTagForRound(t *testing.T) {
	assert.Equal(t, RoundFinal, TagForRound(1, 1))
	assert.Equal(t, RoundSemi, TagForRound(1, 2))
	assert.Equal(t, []RoundTag{RoundFirst, RoundQuarter, RoundSemi, RoundFinal}, []RoundTag{
		TagForRound(1, 4), TagForRound(2, 4), TagForRound(3, 4), TagForRound(4, 4),
	})
	assert.Equal(t, RoundFirst, TagForRound(2, 5))
	assert.True(t, RoundQuarter.Before(RoundSemi))
}

func TestBuildMatchCounts(t *testing.T) {
	for n := 2; n <= 17; n++ {
		t.Run(fmt.Sprintf("%d participants", n), func(t *testing.T) {
			tournamentID := uuid.New()
			b, err := Build(BuildParams{TournamentID: tournamentID, Participants: makeParticipants(tournamentID, n)})
			require.NoError(t, err)

			assert.Len(t, b.Matches, n-1, "every match eliminates exactly one participant")

			finals := 0
			for _, m := range b.Matches {
				if m.Tag == RoundFinal {
					finals++
				}
			}
			assert.Equal(t, 1, finals)
			assert.Len(t, b.Rounds(), calcRounds(n))
			assert.Equal(t, calcRounds(n), b.Final().Round)

			// each match is referenced by at most one placeholder, and all but the final are referenced
			refs := make(map[uuid.UUID]int)
			for _, m := range b.Matches {
				for _, s := range []Slot{m.SlotA, m.SlotB} {
					if s.Kind == SlotPlaceholder {
						refs[*s.SourceMatchID]++
					}
				}
			}
			for _, m := range b.Matches {
				if m.IsFinal() {
					assert.Zero(t, refs[m.ID])
				} else {
					assert.Equal(t, 1, refs[m.ID], "match %s should feed exactly one slot", m.ID)
				}
			}
		})
	}
}

func TestBuildFirstRound(t *testing.T) {
	tournamentID := uuid.New()
	participants := makeParticipants(tournamentID, 5)

	b, err := Build(BuildParams{TournamentID: tournamentID, Participants: participants})
	require.NoError(t, err)

	rounds := b.Rounds()
	require.Len(t, rounds, 3)

	// 5 entries: two first round matches, the fifth drawn participant gets a bye
	require.Len(t, rounds[0], 2)
	seen := make(map[uuid.UUID]bool)
	for _, m := range rounds[0] {
		assert.True(t, m.Ready())
		assert.Equal(t, MatchScheduling, m.Status)
		seen[*m.SlotA.ParticipantID] = true
		seen[*m.SlotB.ParticipantID] = true
	}
	assert.Len(t, seen, 4)

	// round 2 pairs the two first round winners, the bye participant waits for the final
	require.Len(t, rounds[1], 1)
	assert.Equal(t, SlotPlaceholder, rounds[1][0].SlotA.Kind)
	assert.Equal(t, SlotPlaceholder, rounds[1][0].SlotB.Kind)
	assert.Equal(t, MatchPending, rounds[1][0].Status)

	final := rounds[2][0]
	assert.Equal(t, RoundFinal, final.Tag)
	assert.Equal(t, SlotPlaceholder, final.SlotA.Kind)
	require.True(t, final.SlotB.IsConcrete())
	assert.False(t, seen[*final.SlotB.ParticipantID])
}

func TestBuildIsDeterministicPerTournament(t *testing.T) {
	tournamentID := uuid.New()
	participants := makeParticipants(tournamentID, 8)

	draw := func() []uuid.UUID {
		b, err := Build(BuildParams{TournamentID: tournamentID, Participants: participants})
		require.NoError(t, err)
		var ids []uuid.UUID
		for _, m := range b.Rounds()[0] {
			ids = append(ids, *m.SlotA.ParticipantID, *m.SlotB.ParticipantID)
		}
		return ids
	}

	assert.Equal(t, draw(), draw())

	// registration order on the bracket snapshot is untouched by the shuffle
	b, err := Build(BuildParams{TournamentID: tournamentID, Participants: participants})
	require.NoError(t, err)
	for i, p := range b.Participants {
		assert.Equal(t, participants[i].ID, p.ID)
	}
}

func TestBuildSnapshotsParticipantsByValue(t *testing.T) {
	tournamentID := uuid.New()
	participants := makeParticipants(tournamentID, 2)

	b, err := Build(BuildParams{TournamentID: tournamentID, Participants: participants})
	require.NoError(t, err)

	participants[0].Roster[0] = "changed-after-close"
	assert.Equal(t, "player-1", b.Participants[0].Roster[0])
}

func TestBuildVerificationPolicy(t *testing.T) {
	tournamentID := uuid.New()
	hosts := []HostBinding{{Scope: "region-a", PrincipalID: "host-a"}, {Scope: "region-b", PrincipalID: "host-b"}}
	policy := VerificationPolicy{
		Default: SingleReport,
		Rounds:  map[RoundTag]VerificationKind{RoundFinal: DualHost},
		Hosts:   hosts,
	}

	b, err := Build(BuildParams{TournamentID: tournamentID, Participants: makeParticipants(tournamentID, 4), Policy: policy})
	require.NoError(t, err)

	for _, m := range b.Matches {
		if m.IsFinal() {
			assert.Equal(t, DualHost, m.Kind)
			assert.Equal(t, hosts, m.Hosts)
		} else {
			assert.Equal(t, SingleReport, m.Kind)
			assert.Empty(t, m.Hosts)
		}
	}
}

func TestBuildRejectsTooFewParticipants(t *testing.T) {
	tournamentID := uuid.New()
	_, err := Build(BuildParams{TournamentID: tournamentID, Participants: makeParticipants(tournamentID, 1)})
	assert.ErrorIs(t, err, apperr.ErrInsufficientParticipants)
}

func TestVerificationPolicyValidate(t *testing.T) {
	testCases := []struct {
		name    string
		policy  VerificationPolicy
		wantErr bool
	}{
		{name: "zero policy", policy: VerificationPolicy{}},
		{name: "dual host with hosts", policy: VerificationPolicy{Default: DualHost, Hosts: []HostBinding{{Scope: "a", PrincipalID: "h"}}}},
		{name: "dual host without hosts", policy: VerificationPolicy{Rounds: map[RoundTag]VerificationKind{RoundSemi: DualHost}}, wantErr: true},
		{name: "unknown kind", policy: VerificationPolicy{Default: "coin_flip"}, wantErr: true},
		{name: "unknown round", policy: VerificationPolicy{Rounds: map[RoundTag]VerificationKind{"groups": SingleReport}}, wantErr: true},
		{name: "duplicate scope", policy: VerificationPolicy{Hosts: []HostBinding{{Scope: "a", PrincipalID: "x"}, {Scope: "a", PrincipalID: "y"}}}, wantErr: true},
		{name: "unbound scope", policy: VerificationPolicy{Hosts: []HostBinding{{Scope: "a"}}}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.policy.Validate()
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
