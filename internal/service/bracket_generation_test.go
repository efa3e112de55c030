package service

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/isbjornDAO/tundra-sub002/internal/apperr"
	"github.com/isbjornDAO/tundra-sub002/internal/bracket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestGenerateBracketPreconditions(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	id, err := te.CreateTournament(ctx, TournamentInput{Game: "valorant", Capacity: 4})
	require.NoError(t, err)
	te.fill(t, id, 3)

	_, err = te.GenerateBracket(ctx, id)
	assert.ErrorIs(t, err, apperr.ErrTournamentNotFull)

	_, err = te.GetBracketData(ctx, id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = te.GenerateBracket(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGenerateBracketTwice(t *testing.T) {
	te := newTestEngine(t)
	id := te.startTournament(t, "valorant", 4, bracket.VerificationPolicy{})

	_, err := te.GenerateBracket(context.Background(), id)
	assert.ErrorIs(t, err, apperr.ErrBracketAlreadyExists)
}

func TestConcurrentGenerateBracketBuildsOnce(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	id, err := te.CreateTournament(ctx, TournamentInput{Game: "valorant", Capacity: 8})
	require.NoError(t, err)
	te.fill(t, id, 8)

	var built atomic.Int32
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			_, err := te.GenerateBracket(ctx, id)
			if err == nil {
				built.Add(1)
				return nil
			}
			if apperr.CodeOf(err) == apperr.CodeBracketAlreadyExists {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), built.Load())
	assert.Equal(t, 1, te.events.count(bracket.EventBracketGenerated))
	assert.Len(t, te.bracketData(t, id).Bracket.Matches, 7)
}

func TestFourTeamTournamentRunsToCompletion(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	id := te.startTournament(t, "valorant", 4, bracket.VerificationPolicy{})

	data := te.bracketData(t, id)
	assert.Equal(t, bracket.TournamentActive, data.Tournament.Status)
	require.Len(t, data.Rounds, 2)
	require.Len(t, data.Rounds[0], 2)
	for _, m := range data.Rounds[0] {
		assert.Equal(t, bracket.MatchScheduling, m.Status)
		assert.Equal(t, bracket.RoundSemi, m.Tag)
	}
	final := data.Rounds[1][0]
	assert.Equal(t, bracket.MatchPending, final.Status)
	assert.True(t, final.SlotA.WaitsOn(data.Rounds[0][0].ID))
	assert.True(t, final.SlotB.WaitsOn(data.Rounds[0][1].ID))
	assert.Equal(t, 2, te.events.count(bracket.EventMatchReady))

	w1 := te.play(t, data.Rounds[0][0].ID)
	w2 := te.play(t, data.Rounds[0][1].ID)

	finalData := te.match(t, final.ID)
	assert.Equal(t, bracket.MatchScheduling, finalData.Match.Status)
	assert.Equal(t, w1, finalData.ParticipantA.ID)
	assert.Equal(t, w2, finalData.ParticipantB.ID)

	champion := te.play(t, final.ID)

	tournament, err := te.GetTournamentData(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentCompleted, tournament.Tournament.Status)
	require.NotNil(t, tournament.Tournament.WinnerID)
	require.NotNil(t, tournament.Tournament.RunnerUpID)
	assert.Equal(t, champion, *tournament.Tournament.WinnerID)
	assert.Equal(t, w2, *tournament.Tournament.RunnerUpID)

	data = te.bracketData(t, id)
	assert.Equal(t, bracket.BracketCompleted, data.Bracket.Status)
	assert.Nil(t, data.NextMatchID)
	assert.Equal(t, 1, te.events.count(bracket.EventTournamentCompleted))
}

func TestByeParticipantAdvancesWithoutMatch(t *testing.T) {
	te := newTestEngine(t)
	id := te.startTournament(t, "valorant", 5, bracket.VerificationPolicy{})

	data := te.bracketData(t, id)
	require.Len(t, data.Bracket.Matches, 4)
	require.Len(t, data.Rounds[0], 2)

	played := map[uuid.UUID]bool{}
	for _, m := range data.Rounds[0] {
		played[*m.SlotA.ParticipantID] = true
		played[*m.SlotB.ParticipantID] = true
	}
	var bye uuid.UUID
	for _, p := range data.Bracket.Participants {
		if !played[p.ID] {
			bye = p.ID
		}
	}
	require.NotEqual(t, uuid.Nil, bye)

	var carried bool
	for _, m := range data.Bracket.Matches {
		if m.HasParticipant(bye) {
			carried = true
			assert.Greater(t, m.Round, 1)
		}
	}
	assert.True(t, carried)
}

func TestAdvanceMatchIsIdempotent(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	id := te.startTournament(t, "valorant", 4, bracket.VerificationPolicy{})
	first := te.bracketData(t, id).Rounds[0][0]

	changed, err := te.AdvanceMatch(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, changed, "unfinished match has nothing to advance")

	te.play(t, first.ID)
	before := te.bracketData(t, id)

	changed, err = te.AdvanceMatch(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, before, te.bracketData(t, id))
}
