package web

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/compabray/agenda-frontend/internal/auth"
)

type contextKey string

const (
	ctxKeyUser  contextKey = "user"
	ctxKeyToken contextKey = "token"
)

// userFrom returns the authenticated admin user, or nil outside guarded routes.
func userFrom(ctx context.Context) *auth.User {
	u, _ := ctx.Value(ctxKeyUser).(*auth.User)
	return u
}

// tokenFrom returns the bearer token stored for the current admin session.
func tokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(ctxKeyToken).(string)
	return t
}

// requestLogger logs one line per request with method, path, status and latency.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.status).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// ipLimiter hands out one token bucket per client IP.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &ipLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[ip] = lim
	}
	return lim
}

func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.get(ip).Allow() {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const adminCookieName = "agenda_admin"

// requireAdmin guards the dashboard routes. It resolves the session cookie
// to a stored bearer token, re-validates the token on every request and
// redirects to the login page when it is missing, expired or malformed.
// Expired sessions are deleted from the store so stale cookies cannot be
// replayed.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(adminCookieName)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		token, err := s.adminSessions.Get(r.Context(), cookie.Value)
		if err != nil {
			s.logger.Error().Err(err).Msg("session store lookup failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if token == "" {
			s.clearAdminSession(w, r, cookie.Value)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		user, err := auth.Parse(s.jwtSecret, token)
		if err != nil {
			s.logger.Warn().Err(err).Msg("rejecting admin session")
			s.clearAdminSession(w, r, cookie.Value)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if !user.HasRole(s.requiredRole) {
			s.logger.Warn().Str("role", user.Role).Msg("role not allowed for dashboard")
			s.clearAdminSession(w, r, cookie.Value)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUser, user)
		ctx = context.WithValue(ctx, ctxKeyToken, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) clearAdminSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := s.adminSessions.Delete(r.Context(), sessionID); err != nil {
		s.logger.Warn().Err(err).Msg("failed to delete admin session")
	}
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
