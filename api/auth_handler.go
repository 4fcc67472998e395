package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/rpupo63/portfolio-backend/auth"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type credentialChecker interface {
	Login(email, password string) (string, time.Time, error)
}

type authHandler struct {
	responder Responder
	logger    zerolog.Logger
	checker   credentialChecker
}

func newAuthHandler(checker credentialChecker) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder: NewResponder(logger),
		logger:    logger,
		checker:   checker,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type sessionResponse struct {
	Email string `json:"email"`
}

// login exchanges the admin credential for a bearer token
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.checker == nil {
			h.responder.WriteError(w, errs.NewServiceUnavailableError("authentication"))
			return
		}

		var req loginRequest
		if err := decodeAndValidate(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		token, expiresAt, err := h.checker.Login(req.Email, req.Password)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.Warn().Str("remote_addr", r.RemoteAddr).Msg("Rejected admin login")
			h.responder.WriteError(w, errs.NewInvalidCredentialsError())
			return
		}
		if err != nil {
			h.responder.WriteError(w, errs.NewProcedureError("Login failed", err))
			return
		}

		h.responder.WriteJSON(w, loginResponse{Token: token, ExpiresAt: expiresAt})
	}
}

// session reports who the current token belongs to
func (h authHandler) session() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, err := ctxGetAdmin(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.Unauthorized)
			return
		}
		h.responder.WriteJSON(w, sessionResponse{Email: email})
	}
}
