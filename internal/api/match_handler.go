package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/isbjornDAO/tundra-sub002/internal/httputil"
	"github.com/isbjornDAO/tundra-sub002/internal/service"
)

type proposeTimeRequest struct {
	At time.Time `json:"at"`
}

type respondRequest struct {
	Decision service.Decision `json:"decision"`
}

type submitResultRequest struct {
	Scope    string    `json:"scope"`
	WinnerID uuid.UUID `json:"winner_id"`
	Note     string    `json:"note"`
}

type winnerRequest struct {
	WinnerID uuid.UUID `json:"winner_id"`
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "matchID")
	if !ok {
		return
	}
	data, err := h.engine.GetMatchData(r.Context(), id)
	if err != nil {
		httputil.Error(w, "failed to get match", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, data)
}

func (h *Handler) ProposeTime(w http.ResponseWriter, r *http.Request) {
	matchID, ok := urlID(w, r, "matchID")
	if !ok {
		return
	}
	var req proposeTimeRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, "invalid proposal", err)
		return
	}
	id, err := h.engine.ProposeTime(r.Context(), matchID, principal(r), req.At)
	if err != nil {
		httputil.Error(w, "failed to propose time", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (h *Handler) RespondToProposal(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := urlID(w, r, "proposalID")
	if !ok {
		return
	}
	var req respondRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, "invalid response", err)
		return
	}
	if err := h.engine.RespondToTime(r.Context(), proposalID, principal(r), req.Decision); err != nil {
		httputil.Error(w, "failed to respond to proposal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitResult records a host's claim for a dual-host match.
func (h *Handler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	matchID, ok := urlID(w, r, "matchID")
	if !ok {
		return
	}
	var req submitResultRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, "invalid submission", err)
		return
	}
	err := h.engine.SubmitResult(r.Context(), matchID, service.SubmissionInput{
		ReporterID: principal(r),
		Scope:      req.Scope,
		WinnerID:   req.WinnerID,
		Note:       req.Note,
	})
	if err != nil {
		httputil.Error(w, "failed to submit result", err)
		return
	}
	h.writeMatch(w, r, matchID)
}

func (h *Handler) ReportResult(w http.ResponseWriter, r *http.Request) {
	matchID, ok := urlID(w, r, "matchID")
	if !ok {
		return
	}
	var req winnerRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, "invalid report", err)
		return
	}
	if err := h.engine.ReportResult(r.Context(), matchID, principal(r), req.WinnerID); err != nil {
		httputil.Error(w, "failed to report result", err)
		return
	}
	h.writeMatch(w, r, matchID)
}

func (h *Handler) ForceResult(w http.ResponseWriter, r *http.Request) {
	matchID, ok := urlID(w, r, "matchID")
	if !ok {
		return
	}
	var req winnerRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, "invalid result", err)
		return
	}
	if err := h.engine.ForceResult(r.Context(), matchID, principal(r), req.WinnerID); err != nil {
		httputil.Error(w, "failed to force result", err)
		return
	}
	h.writeMatch(w, r, matchID)
}

// writeMatch answers a result call with the match as it stands after the call.
func (h *Handler) writeMatch(w http.ResponseWriter, r *http.Request, matchID uuid.UUID) {
	data, err := h.engine.GetMatchData(r.Context(), matchID)
	if err != nil {
		httputil.Error(w, "failed to get match", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, data)
}
