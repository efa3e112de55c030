package api

import (
	"net/http"

	"github.com/isbjornDAO/tundra-sub002/internal/bracket"
	"github.com/isbjornDAO/tundra-sub002/internal/httputil"
	"github.com/isbjornDAO/tundra-sub002/internal/service"
)

type createTournamentRequest struct {
	Game     string                     `json:"game"`
	Capacity int                        `json:"capacity"`
	Policy   bracket.VerificationPolicy `json:"policy"`
}

type registerParticipantRequest struct {
	Name    string   `json:"name"`
	Region  string   `json:"region"`
	TeamRef string   `json:"team_ref"`
	Roster  []string `json:"roster"`
}

// CreateTournament handles POST /tournaments.
func (h *Handler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var req createTournamentRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, "invalid tournament", err)
		return
	}

	id, err := h.engine.CreateTournament(r.Context(), service.TournamentInput{
		Game:     req.Game,
		Capacity: req.Capacity,
		Policy:   req.Policy,
	})
	if err != nil {
		httputil.Error(w, "failed to create tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, idResponse{ID: id})
}

// ListTournaments handles GET /tournaments, optionally filtered by ?game=.
func (h *Handler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.engine.ListTournaments(r.Context(), r.URL.Query().Get("game"))
	if err != nil {
		httputil.Error(w, "failed to list tournaments", err)
		return
	}
	if tournaments == nil {
		tournaments = []bracket.Tournament{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"tournaments": tournaments})
}

func (h *Handler) GetTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "tournamentID")
	if !ok {
		return
	}
	data, err := h.engine.GetTournamentData(r.Context(), id)
	if err != nil {
		httputil.Error(w, "failed to get tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, data)
}

func (h *Handler) DeleteTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "tournamentID")
	if !ok {
		return
	}
	if err := h.engine.DeleteTournament(r.Context(), id, principal(r)); err != nil {
		httputil.Error(w, "failed to delete tournament", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegisterParticipant enters a team on behalf of the calling organizer.
func (h *Handler) RegisterParticipant(w http.ResponseWriter, r *http.Request) {
	tournamentID, ok := urlID(w, r, "tournamentID")
	if !ok {
		return
	}
	var req registerParticipantRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, "invalid participant", err)
		return
	}

	id, err := h.engine.RegisterParticipant(r.Context(), tournamentID, service.ParticipantInput{
		Name:        req.Name,
		OrganizerID: principal(r),
		Region:      req.Region,
		TeamRef:     req.TeamRef,
		Roster:      req.Roster,
	})
	if err != nil {
		httputil.Error(w, "failed to register participant", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (h *Handler) WithdrawParticipant(w http.ResponseWriter, r *http.Request) {
	tournamentID, ok := urlID(w, r, "tournamentID")
	if !ok {
		return
	}
	participantID, ok := urlID(w, r, "participantID")
	if !ok {
		return
	}
	if err := h.engine.WithdrawParticipant(r.Context(), tournamentID, participantID, principal(r)); err != nil {
		httputil.Error(w, "failed to withdraw participant", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ForceClose(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "tournamentID")
	if !ok {
		return
	}
	if err := h.engine.ForceClose(r.Context(), id, principal(r)); err != nil {
		httputil.Error(w, "failed to close registration", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GenerateBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "tournamentID")
	if !ok {
		return
	}
	bracketID, err := h.engine.GenerateBracket(r.Context(), id)
	if err != nil {
		httputil.Error(w, "failed to generate bracket", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, idResponse{ID: bracketID})
}

func (h *Handler) GetBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "tournamentID")
	if !ok {
		return
	}
	data, err := h.engine.GetBracketData(r.Context(), id)
	if err != nil {
		httputil.Error(w, "failed to get bracket", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, data)
}

func (h *Handler) ListDisputes(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "tournamentID")
	if !ok {
		return
	}
	disputes, err := h.engine.ListDisputes(r.Context(), id)
	if err != nil {
		httputil.Error(w, "failed to list disputes", err)
		return
	}
	if disputes == nil {
		disputes = []service.MatchData{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"disputes": disputes})
}
