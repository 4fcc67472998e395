package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/metrics"
	"github.com/rs/zerolog"
)

type Responder struct {
	logger zerolog.Logger
}

func NewResponder(logger zerolog.Logger) Responder {
	return Responder{logger}
}

func (r Responder) WriteJSON(w http.ResponseWriter, data any) {
	r.WriteJSONStatus(w, http.StatusOK, data)
}

// WriteJSONStatus writes data with the given status code
func (r Responder) WriteJSONStatus(w http.ResponseWriter, status int, data any) {
	// Marshal the data first so a failure can still answer with a 500
	jsonData, err := json.Marshal(data)
	if err != nil {
		r.logger.Error().Err(err).Msg("error marshaling response data")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	// Check if response is too large (e.g., > 10MB)
	const maxResponseSize = 10 * 1024 * 1024 // 10MB
	if len(jsonData) > maxResponseSize {
		r.logger.Error().
			Int("responseSize", len(jsonData)).
			Int("maxSize", maxResponseSize).
			Msg("response too large, truncating")

		truncatedJSON, _ := json.Marshal(map[string]interface{}{
			"error":        "Response too large",
			"message":      "The requested data exceeds the maximum response size",
			"maxSizeMB":    maxResponseSize / (1024 * 1024),
			"actualSizeMB": len(jsonData) / (1024 * 1024),
		})
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		w.Write(truncatedJSON)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(jsonData); err != nil {
		r.logger.Error().Err(err).Msg("error writing response")
	}
}

// WriteError answers with an error body. Server errors expose only their
// message; the cause chain is logged.
func (r Responder) WriteError(w http.ResponseWriter, err error) {
	var apiErr *errs.ApiErr

	if !errors.As(err, &apiErr) {
		r.logger.Error().Err(err).Msg("unexpected error")
		r.WriteJSONStatus(w, http.StatusInternalServerError, ErrorResponse{
			Error:  "Internal Server Error",
			Status: "error",
		})
		return
	}

	if apiErr.IsServerError() {
		r.logger.Error().Int("status", apiErr.StatusCode).Msg(apiErr.GetFullError())
		r.WriteJSONStatus(w, apiErr.StatusCode, ErrorResponse{
			Error:  apiErr.Message(),
			Status: "error",
		})
		return
	}

	if apiErr.Cause != nil {
		r.logger.Warn().Err(apiErr.Cause).Int("status", apiErr.StatusCode).Msg(apiErr.Message())
	}
	r.WriteJSONStatus(w, apiErr.StatusCode, ErrorResponse{
		Error:   apiErr.Message(),
		Status:  "error",
		Field:   apiErr.Field,
		Details: apiErr.Details,
	})
}

// WriteProcedureError answers a failed repository call. Invalid references,
// rejected values and constraint conflicts keep a specific client error;
// everything else becomes an opaque 500 carrying message.
func (r Responder) WriteProcedureError(w http.ResponseWriter, message string, err error) {
	var fieldErr *database.FieldError
	if errors.As(err, &fieldErr) {
		switch {
		case errors.Is(err, database.ErrInvalidReference):
			r.WriteError(w, errs.NewInvalidReferenceError(fieldErr.Field))
			return
		case errors.Is(err, database.ErrInvalidValue):
			r.WriteError(w, errs.NewInvalidFieldError(fieldErr.Field, "value is not allowed"))
			return
		}
	}

	var apiErr *errs.ApiErr
	if errors.As(err, &apiErr) && !apiErr.IsServerError() {
		r.WriteError(w, apiErr)
		return
	}

	if dbErr := errs.NewDatabaseError("write", "record", err); !dbErr.IsServerError() {
		r.WriteError(w, dbErr)
		return
	}

	metrics.RecordProcedureError(message)
	r.WriteError(w, errs.NewProcedureError(message, err))
}
