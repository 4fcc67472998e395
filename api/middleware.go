package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/portfolio-backend/auth"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type tokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type authMiddleware struct {
	responder Responder
	verifier  tokenVerifier
}

func newAuthMiddleware(verifier tokenVerifier) authMiddleware {
	logger := log.With().Str("handlerName", "authMiddleware").Logger()
	return authMiddleware{
		responder: NewResponder(logger),
		verifier:  verifier,
	}
}

func (m authMiddleware) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.verifier == nil {
			m.responder.WriteError(w, errs.NewServiceUnavailableError("authentication"))
			return
		}

		token := auth.ExtractToken(r)
		if token == "" {
			m.responder.WriteError(w, errs.NewMissingTokenError())
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				m.responder.WriteError(w, errs.NewExpiredTokenError())
				return
			}
			m.responder.WriteError(w, errs.NewInvalidTokenError())
			return
		}

		updatedCtx := ctxWithAdmin(r.Context(), claims.Subject)
		next.ServeHTTP(w, r.WithContext(updatedCtx))
	})
}

type limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Window() time.Duration
}

// rateLimit rejects clients over the limit. Requests pass when the limiter is
// unset or its backend fails.
func rateLimit(l limiter, name string) func(http.Handler) http.Handler {
	logger := log.With().Str("handlerName", "rateLimit").Str("limit", name).Logger()
	responder := NewResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := l.Allow(r.Context(), clientIP(r))
			if err != nil {
				logger.Warn().Err(err).Msg("Rate limit check failed, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				metrics.RateLimited.WithLabelValues(name).Inc()
				w.Header().Set("Retry-After", formatSeconds(l.Window()))
				responder.WriteError(w, errs.NewRateLimitError(name, l.Window()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// trustedProxies are the networks whose forwarding headers are believed
type trustedProxies []*net.IPNet

// parseTrustedProxies reads IPs and CIDRs, e.g. "10.0.0.0/8,127.0.0.1"
func parseTrustedProxies(entries []string) trustedProxies {
	var nets trustedProxies
	for _, entry := range entries {
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				log.Warn().Str("entry", entry).Msg("Ignoring invalid TRUSTED_PROXIES entry")
				continue
			}
			bits := 8 * net.IPv6len
			if ip.To4() != nil {
				ip, bits = ip.To4(), 8*net.IPv4len
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipNet, err := net.ParseCIDR(entry)
		if err != nil {
			log.Warn().Str("entry", entry).Msg("Ignoring invalid TRUSTED_PROXIES entry")
			continue
		}
		nets = append(nets, ipNet)
	}
	return nets
}

func (t trustedProxies) contains(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, ipNet := range t {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

// realIP replaces RemoteAddr with the forwarded client address, but only when
// the socket peer is a trusted proxy. X-Forwarded-For is read right to left
// and the first hop that is not a trusted proxy wins, so a client cannot pick
// its own address by prepending entries.
func realIP(trusted trustedProxies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(trusted) == 0 || !trusted.contains(clientIP(r)) {
				next.ServeHTTP(w, r)
				return
			}

			if ip := forwardedClient(r, trusted); ip != "" {
				r.RemoteAddr = ip
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forwardedClient(r *http.Request, trusted trustedProxies) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		hops := strings.Split(forwarded, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if net.ParseIP(hop) == nil {
				break
			}
			if !trusted.contains(hop) {
				return hop
			}
		}
	}
	if addr := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(addr) != nil {
		return addr
	}
	return ""
}

// clientIP is the host part of RemoteAddr
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// formatSeconds renders d as whole seconds for the Retry-After header
func formatSeconds(d time.Duration) string {
	return strconv.Itoa(int(d.Round(time.Second).Seconds()))
}

type statusResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.status = statusCode
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(statusCode)
	}
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func LogInternalServerErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srw := &statusResponseWriter{ResponseWriter: w, status: 200}

		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", err).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic")

				// Write 500 if nothing written yet
				if !srw.wroteHeader {
					srw.WriteHeader(http.StatusInternalServerError)
				}
			}
		}()

		next.ServeHTTP(srw, r)

		if srw.status >= http.StatusInternalServerError {
			log.Error().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", srw.status).
				Msg("server error response")
		}
	})
}

// recordMetrics observes request latency by route pattern, not raw path
func recordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w, status: 200}

		next.ServeHTTP(srw, r)

		pattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		metrics.RecordHTTPRequest(r.Method, pattern, srw.status, time.Since(start))
	})
}

// ColoredHTTPLoggingMiddleware logs HTTP requests with colored output based on status codes
func ColoredHTTPLoggingMiddleware(next http.Handler) http.Handler {
	colorLogger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w, status: 200}

		next.ServeHTTP(srw, r)

		duration := time.Since(start)

		var logEvent *zerolog.Event
		switch {
		case srw.status >= 500:
			logEvent = colorLogger.Error()
		case srw.status >= 400:
			logEvent = colorLogger.Warn()
		default:
			logEvent = colorLogger.Info()
		}

		logEvent.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", srw.status).
			Dur("duration", duration).
			Str("remote_addr", r.RemoteAddr).
			Msg("HTTP Request")
	})
}
