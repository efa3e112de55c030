// Package api exposes the tournament engine as a JSON HTTP API.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/isbjornDAO/tundra-sub002/internal/httputil"
	"github.com/isbjornDAO/tundra-sub002/internal/middleware"
	"github.com/isbjornDAO/tundra-sub002/internal/service"
)

type Handler struct {
	engine *service.Engine
}

func NewHandler(engine *service.Engine) *Handler {
	return &Handler{engine: engine}
}

// NewRouter mounts every endpoint. Reads are public; mutations need the principal header.
func NewRouter(engine *service.Engine, corsOrigins []string) http.Handler {
	h := NewHandler(engine)
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.PrincipalHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.LoadPrincipal)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.ListTournaments)
		r.Get("/{tournamentID}", h.GetTournament)
		r.Get("/{tournamentID}/bracket", h.GetBracket)
		r.Get("/{tournamentID}/disputes", h.ListDisputes)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePrincipal)

			r.Post("/", h.CreateTournament)
			r.Delete("/{tournamentID}", h.DeleteTournament)
			r.Post("/{tournamentID}/participants", h.RegisterParticipant)
			r.Delete("/{tournamentID}/participants/{participantID}", h.WithdrawParticipant)
			r.Post("/{tournamentID}/close", h.ForceClose)
			r.Post("/{tournamentID}/bracket", h.GenerateBracket)
		})
	})

	r.Route("/matches/{matchID}", func(r chi.Router) {
		r.Get("/", h.GetMatch)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePrincipal)

			r.Post("/proposals", h.ProposeTime)
			r.Post("/results", h.SubmitResult)
			r.Post("/report", h.ReportResult)
			r.Post("/force", h.ForceResult)
		})
	})

	r.With(middleware.RequirePrincipal).Post("/proposals/{proposalID}/response", h.RespondToProposal)

	return r
}

type idResponse struct {
	ID uuid.UUID `json:"id"`
}

// urlID parses a uuid path parameter, writing a 400 when it is malformed.
func urlID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httputil.BadRequest(w, "invalid "+param, err)
		return uuid.Nil, false
	}
	return id, true
}

func principal(r *http.Request) string {
	id, _ := middleware.GetPrincipalFromContext(r.Context())
	return id
}
