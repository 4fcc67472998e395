package api

import (
	"net/http"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type dashboardHandler struct {
	responder     Responder
	logger        zerolog.Logger
	dashboardRepo *database.DashboardRepo
}

func newDashboardHandler(dashboardRepo *database.DashboardRepo) dashboardHandler {
	logger := log.With().Str("handlerName", "dashboardHandler").Logger()

	return dashboardHandler{
		responder:     NewResponder(logger),
		logger:        logger,
		dashboardRepo: dashboardRepo,
	}
}

// getStats returns counts by status and category plus the five latest projects
func (h dashboardHandler) getStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := h.dashboardRepo.Stats(r.Context())
		if err != nil {
			h.responder.WriteProcedureError(w, "Failed to fetch dashboard statistics", err)
			return
		}
		h.responder.WriteJSON(w, stats)
	}
}
