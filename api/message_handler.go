package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/metrics"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type messageNotifier interface {
	NotifyNewMessage(ctx context.Context, m *models.Message)
}

type messageHandler struct {
	responder   Responder
	logger      zerolog.Logger
	messageRepo *database.MessageRepo
	notifier    messageNotifier
}

func newMessageHandler(messageRepo *database.MessageRepo, notifier messageNotifier) messageHandler {
	logger := log.With().Str("handlerName", "messageHandler").Logger()

	return messageHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		messageRepo: messageRepo,
		notifier:    notifier,
	}
}

// email is only required to be present
type createMessageRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,max=255"`
	Message string `json:"message" validate:"required,max=5000"`
}

// createMessage stores a contact form submission and notifies the owner
func (h messageHandler) createMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createMessageRequest
		if err := decodeAndValidate(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		message := &models.Message{
			Name:    req.Name,
			Email:   req.Email,
			Message: req.Message,
		}
		if err := h.messageRepo.Add(r.Context(), message); err != nil {
			h.responder.WriteProcedureError(w, "Message not created", err)
			return
		}
		metrics.MessagesReceived.Inc()

		if h.notifier != nil {
			// notifications still go out if the client disconnects
			ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 15*time.Second)
			h.notifier.NotifyNewMessage(ctx, message)
			cancel()
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, message)
	}
}

func (h messageHandler) getAllMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messages, err := h.messageRepo.FindAll(r.Context())
		if err != nil {
			h.responder.WriteProcedureError(w, "Messages not found", err)
			return
		}
		h.responder.WriteJSON(w, messages)
	}
}

func (h messageHandler) getMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messageID, err := uuidParam(r, "messageID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		message, err := h.messageRepo.FindByID(r.Context(), messageID)
		if err != nil {
			h.responder.WriteProcedureError(w, "Message not found", err)
			return
		}
		if message == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("Message not found"))
			return
		}
		h.responder.WriteJSON(w, message)
	}
}

func (h messageHandler) deleteMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messageID, err := uuidParam(r, "messageID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		err = h.messageRepo.Delete(r.Context(), messageID)
		if errors.Is(err, database.ErrNotFound) {
			h.responder.WriteError(w, errs.NewNotFoundError("Message not found"))
			return
		}
		if err != nil {
			h.responder.WriteProcedureError(w, "Message not deleted", err)
			return
		}

		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "message deleted successfully",
		})
	}
}
