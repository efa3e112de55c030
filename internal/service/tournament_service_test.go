package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/isbjornDAO/tundra-sub002/internal/apperr"
	"github.com/isbjornDAO/tundra-sub002/internal/bracket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCreateTournamentValidation(t *testing.T) {
	testCases := []struct {
		name string
		in   TournamentInput
		want error
	}{
		{
			name: "missing game",
			in:   TournamentInput{Game: "  ", Capacity: 4},
			want: apperr.ErrInvalidInput,
		},
		{
			name: "capacity below two",
			in:   TournamentInput{Game: "chess", Capacity: 1},
			want: apperr.ErrInvalidCapacity,
		},
		{
			name: "capacity above maximum",
			in:   TournamentInput{Game: "chess", Capacity: DefaultMaxCapacity + 1},
			want: apperr.ErrInvalidCapacity,
		},
		{
			name: "dual host without hosts",
			in:   TournamentInput{Game: "chess", Capacity: 4, Policy: bracket.VerificationPolicy{Default: bracket.DualHost}},
			want: apperr.ErrInvalidInput,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			te := newTestEngine(t)
			_, err := te.CreateTournament(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestCreateTournamentOnePerGame(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	_, err := te.CreateTournament(ctx, TournamentInput{Game: "valorant", Capacity: 4})
	require.NoError(t, err)

	_, err = te.CreateTournament(ctx, TournamentInput{Game: " Valorant ", Capacity: 8})
	assert.ErrorIs(t, err, apperr.ErrDuplicateActiveTournament)

	_, err = te.CreateTournament(ctx, TournamentInput{Game: "dota", Capacity: 8})
	assert.NoError(t, err)

	tournaments, err := te.ListTournaments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, tournaments, 2)

	tournaments, err = te.ListTournaments(ctx, "VALORANT")
	require.NoError(t, err)
	require.Len(t, tournaments, 1)
	assert.Equal(t, "valorant", tournaments[0].Game)
}

func TestCompletedTournamentFreesGame(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	id := te.startTournament(t, "valorant", 2, bracket.VerificationPolicy{})

	final := te.bracketData(t, id).Bracket.Final()
	require.NotNil(t, final)
	te.play(t, final.ID)

	data, err := te.GetTournamentData(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentCompleted, data.Tournament.Status)

	_, err = te.CreateTournament(ctx, TournamentInput{Game: "valorant", Capacity: 4})
	assert.NoError(t, err)
}

func TestRegisterParticipantFillsTournament(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	id, err := te.CreateTournament(ctx, TournamentInput{Game: "valorant", Capacity: 4})
	require.NoError(t, err)

	te.fill(t, id, 3)
	data, err := te.GetTournamentData(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentOpen, data.Tournament.Status)
	assert.Equal(t, 0, te.events.count(bracket.EventTournamentFull))

	_, err = te.RegisterParticipant(ctx, id, ParticipantInput{Name: "Team 4", OrganizerID: organizerOf(4)})
	require.NoError(t, err)

	data, err = te.GetTournamentData(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentFull, data.Tournament.Status)
	assert.Equal(t, 4, data.Tournament.ParticipantCount)
	assert.Equal(t, 1, te.events.count(bracket.EventTournamentFull))
	for i, p := range data.Participants {
		assert.Equal(t, i+1, p.Seed)
	}

	_, err = te.RegisterParticipant(ctx, id, ParticipantInput{Name: "Team 5", OrganizerID: organizerOf(5)})
	assert.ErrorIs(t, err, apperr.ErrTournamentFull)
}

func TestRegisterParticipantRules(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	id, err := te.CreateTournament(ctx, TournamentInput{Game: "valorant", Capacity: 4})
	require.NoError(t, err)
	te.fill(t, id, 1)

	_, err = te.RegisterParticipant(ctx, id, ParticipantInput{Name: "Second", OrganizerID: organizerOf(1)})
	assert.ErrorIs(t, err, apperr.ErrDuplicateOrganizer)

	_, err = te.RegisterParticipant(ctx, id, ParticipantInput{Name: "", OrganizerID: "org-x"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = te.RegisterParticipant(ctx, uuid.New(), ParticipantInput{Name: "Lost", OrganizerID: "org-x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

type teamRosters map[string][]string

func (r teamRosters) Roster(_ context.Context, teamRef string) ([]string, error) {
	players, ok := r[teamRef]
	if !ok {
		return nil, fmt.Errorf("unknown team %q", teamRef)
	}
	return players, nil
}

func TestRegisterParticipantSnapshotsRoster(t *testing.T) {
	rosters := teamRosters{"team-liquid": {"alice", "bob"}}
	te := newTestEngine(t, func(c *Config) { c.Rosters = rosters })
	ctx := context.Background()
	id, err := te.CreateTournament(ctx, TournamentInput{Game: "valorant", Capacity: 4})
	require.NoError(t, err)

	_, err = te.RegisterParticipant(ctx, id, ParticipantInput{Name: "Liquid", OrganizerID: "org-liquid", TeamRef: "team-liquid"})
	require.NoError(t, err)
	rosters["team-liquid"][0] = "carol"

	data, err := te.GetTournamentData(ctx, id)
	require.NoError(t, err)
	require.Len(t, data.Participants, 1)
	assert.Equal(t, []string{"alice", "bob"}, data.Participants[0].Roster)

	_, err = te.RegisterParticipant(ctx, id, ParticipantInput{Name: "Ghost", OrganizerID: "org-ghost", TeamRef: "nobody"})
	assert.Error(t, err)
}

func TestRegisterParticipantTrimsRoster(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	id, err := te.CreateTournament(ctx, TournamentInput{Game: "valorant", Capacity: 4})
	require.NoError(t, err)

	_, err = te.RegisterParticipant(ctx, id, ParticipantInput{
		Name:        "  Fnatic ",
		OrganizerID: " org-fnatic",
		Roster:      []string{" alice ", "", "\tbob"},
	})
	require.NoError(t, err)

	data, err := te.GetTournamentData(ctx, id)
	require.NoError(t, err)
	require.Len(t, data.Participants, 1)
	p := data.Participants[0]
	assert.Equal(t, "Fnatic", p.Name)
	assert.Equal(t, "org-fnatic", p.OrganizerID)
	assert.Equal(t, []string{"alice", "bob"}, p.Roster)
}

func TestConcurrentRegistrationNeverOverbooks(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	const capacity = 8
	id, err := te.CreateTournament(ctx, TournamentInput{Game: "valorant", Capacity: capacity})
	require.NoError(t, err)

	var accepted, rejected atomic.Int32
	var g errgroup.Group
	for i := 0; i < 64; i++ {
		g.Go(func() error {
			_, err := te.RegisterParticipant(ctx, id, ParticipantInput{
				Name:        fmt.Sprintf("Team %d", i),
				OrganizerID: fmt.Sprintf("org-%d", i),
			})
			switch {
			case err == nil:
				accepted.Add(1)
			case apperr.CodeOf(err) == apperr.CodeTournamentFull:
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(capacity), accepted.Load())
	assert.Equal(t, int32(64-capacity), rejected.Load())

	data, err := te.GetTournamentData(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, capacity, data.Tournament.ParticipantCount)
	assert.Len(t, data.Participants, capacity)
	assert.Equal(t, 1, te.events.count(bracket.EventTournamentFull))
}

func TestWithdrawParticipant(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	id, err := te.CreateTournament(ctx, TournamentInput{Game: "valorant", Capacity: 2})
	require.NoError(t, err)
	ids := te.fill(t, id, 2)

	err = te.WithdrawParticipant(ctx, id, ids[0], organizerOf(2))
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	require.NoError(t, te.WithdrawParticipant(ctx, id, ids[0], organizerOf(1)))
	data, err := te.GetTournamentData(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, data.Tournament.ParticipantCount)
	assert.Equal(t, bracket.TournamentFull, data.Tournament.Status)

	err = te.WithdrawParticipant(ctx, id, ids[0], testAdmin)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = te.GenerateBracket(ctx, id)
	assert.ErrorIs(t, err, apperr.ErrInsufficientParticipants)
}

func TestWithdrawAfterBracketIsLocked(t *testing.T) {
	te := newTestEngine(t)
	id := te.startTournament(t, "valorant", 2, bracket.VerificationPolicy{})
	data, err := te.GetTournamentData(context.Background(), id)
	require.NoError(t, err)

	err = te.WithdrawParticipant(context.Background(), id, data.Participants[0].ID, testAdmin)
	assert.ErrorIs(t, err, apperr.ErrParticipantLocked)
}

func TestForceClose(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	id, err := te.CreateTournament(ctx, TournamentInput{Game: "valorant", Capacity: 8})
	require.NoError(t, err)
	te.fill(t, id, 3)

	assert.ErrorIs(t, te.ForceClose(ctx, id, organizerOf(1)), apperr.ErrUnauthorized)
	require.NoError(t, te.ForceClose(ctx, id, testAdmin))
	assert.ErrorIs(t, te.ForceClose(ctx, id, testAdmin), apperr.ErrTournamentNotOpen)

	_, err = te.RegisterParticipant(ctx, id, ParticipantInput{Name: "Late", OrganizerID: "org-late"})
	assert.ErrorIs(t, err, apperr.ErrTournamentNotOpen)

	_, err = te.GenerateBracket(ctx, id)
	require.NoError(t, err)
	assert.Len(t, te.bracketData(t, id).Bracket.Matches, 2)
}

func TestDeleteTournament(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	id := te.startTournament(t, "valorant", 4, bracket.VerificationPolicy{})
	matchID := te.bracketData(t, id).Rounds[0][0].ID

	assert.ErrorIs(t, te.DeleteTournament(ctx, id, organizerOf(1)), apperr.ErrUnauthorized)
	require.NoError(t, te.DeleteTournament(ctx, id, testAdmin))

	_, err := te.GetTournamentData(ctx, id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = te.GetMatchData(ctx, matchID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, te.DeleteTournament(ctx, id, testAdmin), apperr.ErrNotFound)
	assert.Equal(t, 1, te.events.count(bracket.EventTournamentDeleted))

	_, err = te.CreateTournament(ctx, TournamentInput{Game: "valorant", Capacity: 4})
	assert.NoError(t, err)
}

func TestAutoGenerateBracketWhenFull(t *testing.T) {
	te := newTestEngine(t, func(c *Config) { c.AutoGenerateBracket = true })
	ctx := context.Background()
	id, err := te.CreateTournament(ctx, TournamentInput{Game: "valorant", Capacity: 4})
	require.NoError(t, err)
	te.fill(t, id, 4)

	data, err := te.GetTournamentData(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentActive, data.Tournament.Status)
	require.NotNil(t, data.Tournament.BracketID)
	assert.Equal(t, 1, te.events.count(bracket.EventBracketGenerated))
}
