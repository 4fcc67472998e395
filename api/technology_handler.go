package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type technologyHandler struct {
	responder      Responder
	logger         zerolog.Logger
	technologyRepo *database.TechnologyRepo
}

func newTechnologyHandler(technologyRepo *database.TechnologyRepo) technologyHandler {
	logger := log.With().Str("handlerName", "technologyHandler").Logger()

	return technologyHandler{
		responder:      NewResponder(logger),
		logger:         logger,
		technologyRepo: technologyRepo,
	}
}

// technologyRequest is used for both create and full-replace update
type technologyRequest struct {
	Name     string  `json:"name" validate:"required"`
	Category string  `json:"category" validate:"required,oneof=Frontend Backend Database Cloud DevOps"`
	URL      *string `json:"url"`
	Github   *string `json:"github"`
	Image    string  `json:"image" validate:"required,uuid"`
}

func (req technologyRequest) input() database.TechnologyInput {
	return database.TechnologyInput{
		Name:     req.Name,
		Category: models.TechnologyCategory(req.Category),
		URL:      req.URL,
		Github:   req.Github,
		ImageID:  uuid.MustParse(req.Image),
	}
}

func (h technologyHandler) getAllTechnologies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		technologies, err := h.technologyRepo.FindAll(r.Context())
		if err != nil {
			h.responder.WriteProcedureError(w, "Technologies not found", err)
			return
		}
		h.responder.WriteJSON(w, technologies)
	}
}

func (h technologyHandler) getTechnologiesByCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := models.TechnologyCategory(chi.URLParam(r, "category"))
		if !category.Valid() {
			h.responder.WriteError(w, errs.NewValidationError("category", "oneof", "Frontend Backend Database Cloud DevOps"))
			return
		}

		technologies, err := h.technologyRepo.FindByCategory(r.Context(), category)
		if err != nil {
			h.responder.WriteProcedureError(w, "Technologies not found", err)
			return
		}
		h.responder.WriteJSON(w, technologies)
	}
}

func (h technologyHandler) getTechnology() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		technologyID, err := uuidParam(r, "technologyID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		technology, err := h.technologyRepo.FindByID(r.Context(), technologyID)
		if err != nil {
			h.responder.WriteProcedureError(w, "Technology not found", err)
			return
		}
		if technology == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("Technology not found"))
			return
		}
		h.responder.WriteJSON(w, technology)
	}
}

// searchTechnologies matches the whole name exactly
func (h technologyHandler) searchTechnologies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := searchQuery(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		technologies, err := h.technologyRepo.FindByName(r.Context(), q)
		if err != nil {
			h.responder.WriteProcedureError(w, "Technologies not found", err)
			return
		}
		h.responder.WriteJSON(w, technologies)
	}
}

func (h technologyHandler) createTechnology() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req technologyRequest
		if err := decodeAndValidate(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		technology, err := h.technologyRepo.Add(r.Context(), req.input())
		if err != nil {
			h.responder.WriteProcedureError(w, "Technology not created", err)
			return
		}

		h.logger.Info().Str("technologyId", technology.ID.String()).Msg("Technology created")
		h.responder.WriteJSONStatus(w, http.StatusCreated, technology)
	}
}

func (h technologyHandler) updateTechnology() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		technologyID, err := uuidParam(r, "technologyID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req technologyRequest
		if err := decodeAndValidate(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		technology, err := h.technologyRepo.Replace(r.Context(), technologyID, req.input())
		if errors.Is(err, database.ErrNotFound) {
			h.responder.WriteError(w, errs.NewNotFoundError("Technology not found"))
			return
		}
		if err != nil {
			h.responder.WriteProcedureError(w, "Technology not updated", err)
			return
		}
		h.responder.WriteJSON(w, technology)
	}
}

func (h technologyHandler) deleteTechnology() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		technologyID, err := uuidParam(r, "technologyID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		err = h.technologyRepo.Delete(r.Context(), technologyID)
		if errors.Is(err, database.ErrNotFound) {
			h.responder.WriteError(w, errs.NewNotFoundError("Technology not found"))
			return
		}
		if err != nil {
			h.responder.WriteProcedureError(w, "Technology not deleted", err)
			return
		}

		h.logger.Info().Str("technologyId", technologyID.String()).Msg("Technology deleted")
		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "technology deleted successfully",
		})
	}
}
