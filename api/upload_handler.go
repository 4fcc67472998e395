package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/filestore"
	"github.com/rpupo63/portfolio-backend/metrics"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type uploadPresigner interface {
	PresignUpload(ctx context.Context, filename, contentType string, size int64) (*filestore.PresignedUpload, error)
}

type uploadHandler struct {
	responder      Responder
	logger         zerolog.Logger
	uploadRepo     *database.UploadRepo
	presigner      uploadPresigner
	callbackSecret string
}

func newUploadHandler(uploadRepo *database.UploadRepo, presigner uploadPresigner, callbackSecret string) uploadHandler {
	logger := log.With().Str("handlerName", "uploadHandler").Logger()

	return uploadHandler{
		responder:      NewResponder(logger),
		logger:         logger,
		uploadRepo:     uploadRepo,
		presigner:      presigner,
		callbackSecret: callbackSecret,
	}
}

// saveFileRequest is the metadata of a file already stored in object storage
type saveFileRequest struct {
	Key  string `json:"key" validate:"required"`
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required"`
	Size string `json:"size" validate:"required"`
}

type presignRequest struct {
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"contentType" validate:"required"`
	Size        int64  `json:"size" validate:"required,gt=0"`
}

const (
	sourceAdmin    = "admin"
	sourceCallback = "callback"
)

func (h uploadHandler) save(w http.ResponseWriter, r *http.Request, req saveFileRequest, source string) {
	upload := &models.Upload{
		Key:  req.Key,
		Name: req.Name,
		URL:  req.URL,
		Size: req.Size,
	}
	if err := h.uploadRepo.Add(r.Context(), upload); err != nil {
		if !errs.IsAlreadyExists(errs.NewDatabaseError("save", "upload", err)) {
			h.responder.WriteProcedureError(w, "File not saved", err)
			return
		}
		// a callback that raced with its own retry still gets the stored row
		if source == sourceCallback && h.replayUpload(w, r, req.Key) {
			return
		}
		h.responder.WriteError(w, errs.NewConflictError("File already exists"))
		return
	}
	metrics.UploadsRegistered.WithLabelValues(source).Inc()

	h.logger.Info().Str("uploadId", upload.ID.String()).Str("key", upload.Key).Str("source", source).Msg("Upload saved")
	h.responder.WriteJSONStatus(w, http.StatusCreated, upload)
}

// replayUpload answers with the upload already stored under key. It reports
// false when there is none and nothing was written.
func (h uploadHandler) replayUpload(w http.ResponseWriter, r *http.Request, key string) bool {
	existing, err := h.uploadRepo.FindByKey(r.Context(), key)
	if err != nil {
		h.responder.WriteProcedureError(w, "File not saved", err)
		return true
	}
	if existing == nil {
		return false
	}

	h.logger.Info().Str("uploadId", existing.ID.String()).Str("key", key).Msg("Upload callback repeated")
	h.responder.WriteJSON(w, existing)
	return true
}

// saveFile records an upload on behalf of the admin
func (h uploadHandler) saveFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveFileRequest
		if err := decodeAndValidate(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.save(w, r, req, sourceAdmin)
	}
}

// completeUpload is called by the storage integration once a transfer
// finished. The body must be signed with the shared callback secret. Retries
// are answered with the row the first delivery stored.
func (h uploadHandler) completeUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.callbackSecret == "" {
			h.responder.WriteError(w, errs.NewServiceUnavailableError("upload callback"))
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
		if err != nil {
			h.responder.WriteError(w, errs.NewMaxBodySizeExceededError(maxBodySize))
			return
		}
		if !filestore.VerifySignature(h.callbackSecret, body, r.Header.Get(filestore.SignatureHeader)) {
			h.responder.WriteError(w, errs.NewInvalidSignatureError())
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		var req saveFileRequest
		if err := decodeAndValidate(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if h.replayUpload(w, r, req.Key) {
			return
		}
		h.save(w, r, req, sourceCallback)
	}
}

// presignUpload hands out a presigned PUT url for an image
func (h uploadHandler) presignUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.presigner == nil {
			h.responder.WriteError(w, errs.NewServiceUnavailableError("file storage"))
			return
		}

		var req presignRequest
		if err := decodeAndValidate(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		presigned, err := h.presigner.PresignUpload(r.Context(), req.Filename, req.ContentType, req.Size)
		switch {
		case errors.Is(err, filestore.ErrUnsupportedContentType):
			h.responder.WriteError(w, errs.NewUnsupportedUploadError("only image uploads are accepted"))
			return
		case errors.Is(err, filestore.ErrFileTooLarge):
			h.responder.WriteError(w, errs.NewUnsupportedUploadError("images must be at most 4MB"))
			return
		case err != nil:
			h.responder.WriteProcedureError(w, "File not saved", err)
			return
		}

		h.responder.WriteJSON(w, presigned)
	}
}

func (h uploadHandler) getAllFiles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uploads, err := h.uploadRepo.FindAll(r.Context())
		if err != nil {
			h.responder.WriteProcedureError(w, "Files not found", err)
			return
		}
		h.responder.WriteJSON(w, uploads)
	}
}

func (h uploadHandler) getFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uploadID, err := uuidParam(r, "uploadID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		upload, err := h.uploadRepo.FindByID(r.Context(), uploadID)
		if err != nil {
			h.responder.WriteProcedureError(w, "File not found", err)
			return
		}
		if upload == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("File not found"))
			return
		}
		h.responder.WriteJSON(w, upload)
	}
}
