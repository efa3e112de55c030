package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/isbjornDAO/tundra-sub002/internal/apperr"
	"github.com/isbjornDAO/tundra-sub002/internal/bracket"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

// TournamentStore persists whole tournament snapshots. A snapshot replaces the stored state of
// its tournament only when its version is newer.
type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) SaveSnapshot(ctx context.Context, snap *bracket.Snapshot) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	applied, err := s.UpsertTournament(ctx, tx, snap.Tournament)
	if err != nil {
		return fmt.Errorf("failed to save tournament: %w", err)
	}
	if !applied {
		// a newer version is already stored
		return nil
	}

	id := snap.Tournament.ID
	if err := s.clearChildren(ctx, tx, id); err != nil {
		return err
	}
	if err := s.CreateParticipants(ctx, tx, snap.Participants); err != nil {
		return fmt.Errorf("failed to save participants: %w", err)
	}
	if snap.Bracket != nil {
		if err := s.CreateBracket(ctx, tx, snap.Bracket); err != nil {
			return fmt.Errorf("failed to save bracket: %w", err)
		}
		if err := s.CreateMatches(ctx, tx, snap.Bracket.Matches); err != nil {
			return fmt.Errorf("failed to save matches: %w", err)
		}
	}
	if err := s.CreateProposals(ctx, tx, id, snap.Proposals); err != nil {
		return fmt.Errorf("failed to save proposals: %w", err)
	}
	if err := s.CreateSubmissions(ctx, tx, id, snap.Submissions); err != nil {
		return fmt.Errorf("failed to save submissions: %w", err)
	}

	return tx.Commit()
}

// UpsertTournament writes the tournament row unless the stored version is the same or newer.
// It reports whether the row was written.
func (s *TournamentStore) UpsertTournament(ctx context.Context, tx *sqlx.Tx, t bracket.Tournament) (bool, error) {
	row, err := newTournamentRow(t)
	if err != nil {
		return false, err
	}
	res, err := tx.NamedExecContext(ctx, `INSERT INTO tournaments (id, game, capacity, participant_count, status, policy, bracket_id, winner_id, runner_up_id, version, created_at)
		VALUES (:id, :game, :capacity, :participant_count, :status, :policy, :bracket_id, :winner_id, :runner_up_id, :version, :created_at)
		ON CONFLICT(id) DO UPDATE SET
			participant_count = excluded.participant_count,
			status = excluded.status,
			policy = excluded.policy,
			bracket_id = excluded.bracket_id,
			winner_id = excluded.winner_id,
			runner_up_id = excluded.runner_up_id,
			version = excluded.version
		WHERE excluded.version > tournaments.version`, row)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *TournamentStore) clearChildren(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) error {
	for _, table := range []string{"result_submissions", "time_proposals", "matches", "brackets", "participants"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE tournament_id = ?", tournamentID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func (s *TournamentStore) CreateParticipants(ctx context.Context, tx *sqlx.Tx, participants []bracket.Participant) error {
	if len(participants) == 0 {
		return nil
	}
	rows, err := newParticipantRows(participants)
	if err != nil {
		return err
	}
	_, err = tx.NamedExecContext(ctx, `INSERT INTO participants (id, tournament_id, name, organizer_id, roster, region, seed, registered_at)
		VALUES (:id, :tournament_id, :name, :organizer_id, :roster, :region, :seed, :registered_at)`, rows)
	return err
}

func (s *TournamentStore) CreateBracket(ctx context.Context, tx *sqlx.Tx, b *bracket.Bracket) error {
	participants, err := toJSON(b.Participants)
	if err != nil {
		return fmt.Errorf("encode bracket participants: %w", err)
	}
	row := bracketRow{
		ID:           b.ID,
		TournamentID: b.TournamentID,
		Status:       b.Status,
		WinnerID:     b.WinnerID,
		Participants: participants,
	}
	_, err = tx.NamedExecContext(ctx, `INSERT INTO brackets (id, tournament_id, status, winner_id, participants)
		VALUES (:id, :tournament_id, :status, :winner_id, :participants)`, row)
	return err
}

func (s *TournamentStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	rows, err := newMatchRows(matches)
	if err != nil {
		return err
	}
	_, err = tx.NamedExecContext(ctx, `INSERT INTO matches (id, bracket_id, tournament_id, round, tag, match_order,
			slot_a_kind, slot_a_participant_id, slot_a_source_match_id, slot_b_kind, slot_b_participant_id, slot_b_source_match_id,
			status, verification_kind, hosts, scheduled_at, accepted_proposal_id, winner_id, loser_id, disputed, forced, completed_at)
		VALUES (:id, :bracket_id, :tournament_id, :round, :tag, :match_order,
			:slot_a_kind, :slot_a_participant_id, :slot_a_source_match_id, :slot_b_kind, :slot_b_participant_id, :slot_b_source_match_id,
			:status, :verification_kind, :hosts, :scheduled_at, :accepted_proposal_id, :winner_id, :loser_id, :disputed, :forced, :completed_at)`, rows)
	return err
}

func (s *TournamentStore) CreateProposals(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, proposals []bracket.TimeSlotProposal) error {
	if len(proposals) == 0 {
		return nil
	}
	rows := make([]proposalRow, 0, len(proposals))
	for _, p := range proposals {
		rows = append(rows, proposalRow{TournamentID: tournamentID, TimeSlotProposal: p})
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO time_proposals (id, tournament_id, match_id, proposer_id, proposed_at, status, responder_id, created_at, responded_at)
		VALUES (:id, :tournament_id, :match_id, :proposer_id, :proposed_at, :status, :responder_id, :created_at, :responded_at)`, rows)
	return err
}

func (s *TournamentStore) CreateSubmissions(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, submissions []bracket.ResultSubmission) error {
	if len(submissions) == 0 {
		return nil
	}
	rows := make([]submissionRow, 0, len(submissions))
	for _, r := range submissions {
		rows = append(rows, submissionRow{TournamentID: tournamentID, ResultSubmission: r})
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO result_submissions (id, tournament_id, match_id, reporter_id, scope, winner_id, note, submitted_at)
		VALUES (:id, :tournament_id, :match_id, :reporter_id, :scope, :winner_id, :note, :submitted_at)`, rows)
	return err
}

func (s *TournamentStore) DeleteTournament(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM tournaments WHERE id = ?", id)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	var row tournamentRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM tournaments WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.WithMetadata(apperr.CodeNotFound, "tournament not found", map[string]string{"id": id.String()})
	}
	if err != nil {
		return nil, err
	}
	t, err := row.tournament()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetSnapshot loads the complete stored state of one tournament.
func (s *TournamentStore) GetSnapshot(ctx context.Context, id uuid.UUID) (*bracket.Snapshot, error) {
	t, err := s.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := &bracket.Snapshot{Tournament: *t}

	var (
		participants []participantRow
		brackets     []bracketRow
		matches      []matchRow
		proposals    []proposalRow
		submissions  []submissionRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.SelectContext(gctx, &participants, "SELECT * FROM participants WHERE tournament_id = ? ORDER BY seed ASC", id)
	})
	g.Go(func() error {
		return s.db.SelectContext(gctx, &brackets, "SELECT * FROM brackets WHERE tournament_id = ?", id)
	})
	g.Go(func() error {
		return s.db.SelectContext(gctx, &matches, "SELECT * FROM matches WHERE tournament_id = ? ORDER BY round ASC, match_order ASC", id)
	})
	g.Go(func() error {
		return s.db.SelectContext(gctx, &proposals, "SELECT * FROM time_proposals WHERE tournament_id = ? ORDER BY rowid ASC", id)
	})
	g.Go(func() error {
		return s.db.SelectContext(gctx, &submissions, "SELECT * FROM result_submissions WHERE tournament_id = ? ORDER BY rowid ASC", id)
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load tournament %s: %w", id, err)
	}

	for _, r := range participants {
		p, err := r.participant()
		if err != nil {
			return nil, err
		}
		snap.Participants = append(snap.Participants, p)
	}

	if len(brackets) > 0 {
		br := brackets[0]
		b := &bracket.Bracket{
			ID:           br.ID,
			TournamentID: br.TournamentID,
			Status:       br.Status,
			WinnerID:     br.WinnerID,
		}
		if err := br.Participants.Unmarshal(&b.Participants); err != nil {
			return nil, fmt.Errorf("decode bracket participants: %w", err)
		}
		for _, r := range matches {
			m, err := r.match()
			if err != nil {
				return nil, err
			}
			b.Matches = append(b.Matches, m)
		}
		snap.Bracket = b
	}

	for _, r := range proposals {
		snap.Proposals = append(snap.Proposals, r.TimeSlotProposal)
	}
	for _, r := range submissions {
		snap.Submissions = append(snap.Submissions, r.ResultSubmission)
	}
	return snap, nil
}

// LoadSnapshots loads every stored tournament, oldest first.
func (s *TournamentStore) LoadSnapshots(ctx context.Context) ([]*bracket.Snapshot, error) {
	var ids []uuid.UUID
	if err := s.db.SelectContext(ctx, &ids, "SELECT id FROM tournaments ORDER BY created_at ASC"); err != nil {
		return nil, err
	}

	snaps := make([]*bracket.Snapshot, 0, len(ids))
	for _, id := range ids {
		snap, err := s.GetSnapshot(ctx, id)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}
