package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/isbjornDAO/tundra-sub002/internal/apperr"
	"github.com/isbjornDAO/tundra-sub002/internal/bracket"
)

const DefaultMaxCapacity = 16

// IdentityResolver answers authorization facts about an opaque principal id.
type IdentityResolver interface {
	IsAdmin(ctx context.Context, principalID string) (bool, error)
}

// RosterProvider returns the current player list of a team so it can be snapshotted at registration.
type RosterProvider interface {
	Roster(ctx context.Context, teamRef string) ([]string, error)
}

// Recorder persists committed tournament state.
type Recorder interface {
	SaveSnapshot(ctx context.Context, snap *bracket.Snapshot) error
	DeleteTournament(ctx context.Context, id uuid.UUID) error
}

// Notifier receives the events of each committed transition.
type Notifier interface {
	Notify(ctx context.Context, events []bracket.Event)
}

type Config struct {
	// Largest capacity accepted by CreateTournament
	MaxCapacity int
	// Build the bracket as soon as a tournament becomes full
	AutoGenerateBracket bool

	Now       func() time.Time
	Logger    *slog.Logger
	Identity  IdentityResolver
	Rosters   RosterProvider
	Recorder  Recorder
	Notifiers []Notifier
}

// tournamentState owns one tournament. sem is the per-tournament exclusive section; a
// channel instead of a mutex so waiting for it honours context cancellation.
type tournamentState struct {
	sem  chan struct{}
	snap *bracket.Snapshot

	deleted atomic.Bool

	persistMu sync.Mutex
	persisted int64
}

func newTournamentState(snap *bracket.Snapshot) *tournamentState {
	return &tournamentState{sem: make(chan struct{}, 1), snap: snap}
}

func (st *tournamentState) lock(ctx context.Context) error {
	select {
	case st.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (st *tournamentState) unlock() {
	<-st.sem
}

// Engine runs the tournament lifecycle: registry, bracket builder, round advancement,
// scheduling negotiation and result consensus. Operations on one tournament are serialised;
// different tournaments proceed in parallel.
type Engine struct {
	cfg Config
	log *slog.Logger

	// mu guards the indexes only. It is never held while waiting for a tournament lock.
	mu          sync.RWMutex
	tournaments map[uuid.UUID]*tournamentState
	matches     map[uuid.UUID]uuid.UUID
	proposals   map[uuid.UUID]uuid.UUID
	liveGames   map[string]uuid.UUID
}

func NewEngine(cfg Config) *Engine {
	if cfg.MaxCapacity <= 0 {
		cfg.MaxCapacity = DefaultMaxCapacity
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		cfg:         cfg,
		log:         cfg.Logger,
		tournaments: make(map[uuid.UUID]*tournamentState),
		matches:     make(map[uuid.UUID]uuid.UUID),
		proposals:   make(map[uuid.UUID]uuid.UUID),
		liveGames:   make(map[string]uuid.UUID),
	}
}

func gameKey(game string) string {
	return strings.ToLower(strings.TrimSpace(game))
}

// Restore loads previously persisted snapshots. It must run before the engine serves requests.
func (e *Engine) Restore(snaps []*bracket.Snapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, snap := range snaps {
		t := snap.Tournament
		if _, exists := e.tournaments[t.ID]; exists {
			return fmt.Errorf("restore: duplicate tournament %s", t.ID)
		}
		if t.Status.IsLive() {
			key := gameKey(t.Game)
			if other, taken := e.liveGames[key]; taken {
				return fmt.Errorf("restore: tournaments %s and %s are both live for game %q", other, t.ID, t.Game)
			}
			e.liveGames[key] = t.ID
		}

		st := newTournamentState(snap.Clone())
		st.persisted = t.Version
		e.tournaments[t.ID] = st
		if snap.Bracket != nil {
			for _, m := range snap.Bracket.Matches {
				e.matches[m.ID] = t.ID
			}
		}
		for _, p := range snap.Proposals {
			e.proposals[p.ID] = t.ID
		}
	}

	e.log.Info("tournaments restored", "count", len(snaps))
	return nil
}

// change is the scratch state of one mutation. Nothing in it is visible to other callers
// until the mutation function returns without error.
type change struct {
	snap   *bracket.Snapshot
	now    time.Time
	events []bracket.Event

	newMatches   []uuid.UUID
	newProposals []uuid.UUID
	releaseGame  bool
}

func (c *change) emit(typ bracket.EventType, matchID *uuid.UUID, payload map[string]string) {
	ev := bracket.Event{
		Type:         typ,
		TournamentID: c.snap.Tournament.ID,
		At:           c.now,
		Payload:      payload,
	}
	if matchID != nil {
		id := *matchID
		ev.MatchID = &id
	}
	c.events = append(c.events, ev)
}

// errUnchanged lets a mutation finish without committing anything.
var errUnchanged = errors.New("unchanged")

func notFound(what string, id uuid.UUID) error {
	return apperr.WithMetadata(apperr.CodeNotFound, fmt.Sprintf("%s %s not found", what, id), map[string]string{
		"kind": what,
		"id":   id.String(),
	})
}

func (e *Engine) state(id uuid.UUID) (*tournamentState, error) {
	e.mu.RLock()
	st, ok := e.tournaments[id]
	e.mu.RUnlock()
	if !ok {
		return nil, notFound("tournament", id)
	}
	return st, nil
}

func (e *Engine) tournamentOfMatch(matchID uuid.UUID) (uuid.UUID, error) {
	e.mu.RLock()
	id, ok := e.matches[matchID]
	e.mu.RUnlock()
	if !ok {
		return uuid.Nil, notFound("match", matchID)
	}
	return id, nil
}

func (e *Engine) tournamentOfProposal(proposalID uuid.UUID) (uuid.UUID, error) {
	e.mu.RLock()
	id, ok := e.proposals[proposalID]
	e.mu.RUnlock()
	if !ok {
		return uuid.Nil, notFound("proposal", proposalID)
	}
	return id, nil
}

// mutate runs fn against a scratch copy of the tournament under its exclusive section and
// commits the copy only if fn succeeds. Persistence and notification happen after unlock.
func (e *Engine) mutate(ctx context.Context, id uuid.UUID, fn func(c *change) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st, err := e.state(id)
	if err != nil {
		return err
	}
	if err := st.lock(ctx); err != nil {
		return err
	}

	if st.deleted.Load() {
		st.unlock()
		return notFound("tournament", id)
	}

	c := &change{snap: st.snap.Clone(), now: e.cfg.Now().UTC()}
	if err := fn(c); err != nil {
		st.unlock()
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}

	c.snap.Tournament.Version++
	st.snap = c.snap
	e.index(c)
	committed := c.snap.Clone()
	st.unlock()

	e.afterCommit(ctx, st, committed, c.events)
	return nil
}

func (e *Engine) index(c *change) {
	if len(c.newMatches) == 0 && len(c.newProposals) == 0 && !c.releaseGame {
		return
	}
	tid := c.snap.Tournament.ID

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range c.newMatches {
		e.matches[id] = tid
	}
	for _, id := range c.newProposals {
		e.proposals[id] = tid
	}
	if c.releaseGame {
		key := gameKey(c.snap.Tournament.Game)
		if e.liveGames[key] == tid {
			delete(e.liveGames, key)
		}
	}
}

func (e *Engine) afterCommit(ctx context.Context, st *tournamentState, snap *bracket.Snapshot, events []bracket.Event) {
	e.persist(ctx, st, snap)

	for _, n := range e.cfg.Notifiers {
		n.Notify(ctx, events)
	}

	if !e.cfg.AutoGenerateBracket {
		return
	}
	for _, ev := range events {
		if ev.Type != bracket.EventTournamentFull {
			continue
		}
		if _, err := e.GenerateBracket(context.WithoutCancel(ctx), ev.TournamentID); err != nil {
			e.log.Warn("automatic bracket generation failed", "tournament_id", ev.TournamentID, "error", err)
		}
	}
}

// persist writes snapshots in version order per tournament and never after deletion.
func (e *Engine) persist(ctx context.Context, st *tournamentState, snap *bracket.Snapshot) {
	if e.cfg.Recorder == nil {
		return
	}
	st.persistMu.Lock()
	defer st.persistMu.Unlock()

	if st.deleted.Load() || snap.Tournament.Version <= st.persisted {
		return
	}
	if err := e.cfg.Recorder.SaveSnapshot(context.WithoutCancel(ctx), snap); err != nil {
		e.log.Error("failed to persist tournament", "tournament_id", snap.Tournament.ID, "version", snap.Tournament.Version, "error", err)
		return
	}
	st.persisted = snap.Tournament.Version
}

// read runs fn against the committed snapshot under the tournament's exclusive section.
// fn must copy anything it returns.
func (e *Engine) read(ctx context.Context, id uuid.UUID, fn func(s *bracket.Snapshot) error) error {
	st, err := e.state(id)
	if err != nil {
		return err
	}
	if err := st.lock(ctx); err != nil {
		return err
	}
	defer st.unlock()
	if st.deleted.Load() {
		return notFound("tournament", id)
	}
	return fn(st.snap)
}

func (e *Engine) isAdmin(ctx context.Context, principalID string) (bool, error) {
	if e.cfg.Identity == nil || principalID == "" {
		return false, nil
	}
	ok, err := e.cfg.Identity.IsAdmin(ctx, principalID)
	if err != nil {
		return false, apperr.Wrap(apperr.CodeUnknown, "resolve identity", err)
	}
	return ok, nil
}

func (e *Engine) requireAdmin(ctx context.Context, principalID string) error {
	ok, err := e.isAdmin(ctx, principalID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.WithMetadata(apperr.CodeUnauthorized, "administrator role required", map[string]string{"principal_id": principalID})
	}
	return nil
}

func (e *Engine) tournamentIDs() []uuid.UUID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(e.tournaments))
	for id := range e.tournaments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
