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

type projectHandler struct {
	responder   Responder
	logger      zerolog.Logger
	projectRepo *database.ProjectRepo
}

func newProjectHandler(projectRepo *database.ProjectRepo) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		projectRepo: projectRepo,
	}
}

type createProjectRequest struct {
	Title           string            `json:"title" validate:"required"`
	Description     string            `json:"description" validate:"required"`
	LongDescription string            `json:"longDescription"`
	Image           string            `json:"image" validate:"required,uuid"`
	LiveURL         *string           `json:"liveUrl"`
	GithubURL       string            `json:"githubUrl" validate:"required"`
	Status          string            `json:"status" validate:"required,oneof=Development Beta Live Archived"`
	Featured        bool              `json:"featured"`
	Duration        string            `json:"duration" validate:"required"`
	Year            string            `json:"year" validate:"required"`
	Technologies    []string          `json:"technologies" validate:"dive,uuid"`
	Features        []models.TextItem `json:"features" validate:"dive"`
	Challenges      []models.TextItem `json:"challenges" validate:"dive"`
	Gallery         []string          `json:"gallery" validate:"dive,uuid"`
}

func (req createProjectRequest) input() database.ProjectInput {
	return database.ProjectInput{
		Title:           req.Title,
		Description:     req.Description,
		LongDescription: req.LongDescription,
		ImageID:         uuid.MustParse(req.Image),
		LiveURL:         req.LiveURL,
		GithubURL:       req.GithubURL,
		Status:          models.ProjectStatus(req.Status),
		Featured:        req.Featured,
		Duration:        req.Duration,
		Year:            req.Year,
		Features:        req.Features,
		Challenges:      req.Challenges,
		Gallery:         parseUUIDs(req.Gallery),
		Technologies:    parseUUIDs(req.Technologies),
	}
}

// updateProjectRequest fields left out of the body are not changed
type updateProjectRequest struct {
	Title           *string            `json:"title" validate:"omitempty,min=1"`
	Description     *string            `json:"description"`
	LongDescription *string            `json:"longDescription"`
	Image           *string            `json:"image" validate:"omitempty,uuid"`
	LiveURL         *string            `json:"liveUrl"`
	GithubURL       *string            `json:"githubUrl" validate:"omitempty,min=1"`
	Status          *string            `json:"status" validate:"omitempty,oneof=Development Beta Live Archived"`
	Featured        *bool              `json:"featured"`
	Duration        *string            `json:"duration"`
	Year            *string            `json:"year"`
	Technologies    *[]string          `json:"technologies" validate:"omitempty,dive,uuid"`
	Features        *[]models.TextItem `json:"features" validate:"omitempty,dive"`
	Challenges      *[]models.TextItem `json:"challenges" validate:"omitempty,dive"`
	Gallery         *[]string          `json:"gallery" validate:"omitempty,dive,uuid"`
}

func (req updateProjectRequest) update() database.ProjectUpdate {
	update := database.ProjectUpdate{
		Title:           req.Title,
		Description:     req.Description,
		LongDescription: req.LongDescription,
		LiveURL:         req.LiveURL,
		GithubURL:       req.GithubURL,
		Featured:        req.Featured,
		Duration:        req.Duration,
		Year:            req.Year,
		Features:        req.Features,
		Challenges:      req.Challenges,
	}
	if req.Image != nil {
		id := uuid.MustParse(*req.Image)
		update.ImageID = &id
	}
	if req.Status != nil {
		status := models.ProjectStatus(*req.Status)
		update.Status = &status
	}
	if req.Technologies != nil {
		ids := parseUUIDs(*req.Technologies)
		update.Technologies = &ids
	}
	if req.Gallery != nil {
		ids := parseUUIDs(*req.Gallery)
		update.Gallery = &ids
	}
	return update
}

// getAllProjects returns every project with its image, gallery and technologies
func (h projectHandler) getAllProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := h.projectRepo.FindAll(r.Context())
		if err != nil {
			h.responder.WriteProcedureError(w, "Projects not found", err)
			return
		}
		h.responder.WriteJSON(w, projects)
	}
}

// getProject returns one project or 404
func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projectRepo.FindByID(r.Context(), projectID)
		if err != nil {
			h.responder.WriteProcedureError(w, "Project not found", err)
			return
		}
		if project == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("Project not found"))
			return
		}

		h.responder.WriteJSON(w, project)
	}
}

func (h projectHandler) getProjectsByStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := models.ProjectStatus(chi.URLParam(r, "status"))
		if !status.Valid() {
			h.responder.WriteError(w, errs.NewValidationError("status", "oneof", "Development Beta Live Archived"))
			return
		}

		projects, err := h.projectRepo.FindByStatus(r.Context(), status)
		if err != nil {
			h.responder.WriteProcedureError(w, "Projects not found", err)
			return
		}
		h.responder.WriteJSON(w, projects)
	}
}

func (h projectHandler) getProjectsByFeatured() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		featured, err := boolQuery(r, "featured", false)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		projects, err := h.projectRepo.FindByFeatured(r.Context(), featured)
		if err != nil {
			h.responder.WriteProcedureError(w, "Projects not found", err)
			return
		}
		h.responder.WriteJSON(w, projects)
	}
}

// searchProjects matches the whole title exactly
func (h projectHandler) searchProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := searchQuery(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		projects, err := h.projectRepo.FindByTitle(r.Context(), q)
		if err != nil {
			h.responder.WriteProcedureError(w, "Projects not found", err)
			return
		}
		h.responder.WriteJSON(w, projects)
	}
}

func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProjectRequest
		if err := decodeAndValidate(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projectRepo.Add(r.Context(), req.input())
		if err != nil {
			h.responder.WriteProcedureError(w, "Project not created", err)
			return
		}

		h.logger.Info().Str("projectId", project.ID.String()).Msg("Project created")
		h.responder.WriteJSONStatus(w, http.StatusCreated, project)
	}
}

func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req updateProjectRequest
		if err := decodeAndValidate(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projectRepo.Update(r.Context(), projectID, req.update())
		if errors.Is(err, database.ErrNotFound) {
			h.responder.WriteError(w, errs.NewNotFoundError("Project not found"))
			return
		}
		if err != nil {
			h.responder.WriteProcedureError(w, "Project not updated", err)
			return
		}

		h.responder.WriteJSON(w, project)
	}
}

func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		err = h.projectRepo.Delete(r.Context(), projectID)
		if errors.Is(err, database.ErrNotFound) {
			h.responder.WriteError(w, errs.NewNotFoundError("Project not found"))
			return
		}
		if err != nil {
			h.responder.WriteProcedureError(w, "Project not deleted", err)
			return
		}

		h.logger.Info().Str("projectId", projectID.String()).Msg("Project deleted")
		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "project deleted successfully",
		})
	}
}
