package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/compabray/agenda-frontend/internal/agendaapi"
	"github.com/compabray/agenda-frontend/internal/auth"
	"github.com/compabray/agenda-frontend/internal/events"
	"github.com/compabray/agenda-frontend/internal/export"
	"github.com/compabray/agenda-frontend/internal/metrics"
)

// slotsPerDay is the number of bookable slots the agenda service exposes
// per day, used for the occupancy figure on the dashboard.
const slotsPerDay = 12

type loginPage struct {
	Error string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("login")
	s.render(w, "login.html", loginPage{})
}

// handleLogin validates a pasted bearer token, stores it server-side and
// hands the browser an opaque session cookie. The token itself never
// travels in a cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("login")
	token := strings.TrimSpace(r.FormValue("token"))
	user, err := auth.Parse(s.jwtSecret, token)
	if err != nil {
		s.logger.Warn().Err(err).Msg("login rejected")
		w.WriteHeader(http.StatusUnauthorized)
		s.render(w, "login.html", loginPage{Error: "Invalid or expired token."})
		return
	}

	sessionID := uuid.NewString()
	if err := s.adminSessions.Put(r.Context(), sessionID, token); err != nil {
		s.logger.Error().Err(err).Msg("failed to store admin session")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Info().Str("sub", user.Sub).Str("role", user.Role).Msg("admin logged in")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("logout")
	if cookie, err := r.Cookie(adminCookieName); err == nil && cookie.Value != "" {
		s.clearAdminSession(w, r, cookie.Value)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// dashboardPage is the view model for the admin dashboard.
type dashboardPage struct {
	User          *auth.User
	Date          string
	PrevDate      string
	NextDate      string
	TodayDate     string
	Banner        string
	Staff         []agendaapi.Staff
	StaffFilter   string
	StaffLocked   bool
	Reservations  []agendaapi.Reservation
	Count         int
	ActiveStaff   int
	OccupancyPct  int
	staffNameByID map[string]string
}

// StaffName resolves a staff ID for display, falling back to the raw ID.
func (p dashboardPage) StaffName(id string) string {
	if name, ok := p.staffNameByID[id]; ok {
		return name
	}
	return id
}

// dashboardQuery normalizes the date and staff filter from the request.
// Staff-role users are pinned to their own reservations regardless of the
// requested filter.
func dashboardQuery(r *http.Request, user *auth.User) (date, staffID string) {
	date = r.URL.Query().Get("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		date = time.Now().Format("2006-01-02")
	}
	staffID = r.URL.Query().Get("staff")
	if user.HasRole(auth.RoleStaff) {
		staffID = user.StaffID
	}
	return date, staffID
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_dashboard")
	user := userFrom(r.Context())
	token := tokenFrom(r.Context())
	date, staffID := dashboardQuery(r, user)

	ctx := r.Context()
	staff, err := s.api.ListStaff(ctx, token, user.BusinessID)
	if err != nil {
		s.handleAPIError(w, r, err, "list staff")
		return
	}
	reservations, err := s.api.ListReservations(ctx, token, user.BusinessID, date, staffID)
	if err != nil {
		s.handleAPIError(w, r, err, "list reservations")
		return
	}

	day, _ := time.Parse("2006-01-02", date)
	page := dashboardPage{
		User:          user,
		Date:          date,
		PrevDate:      day.AddDate(0, 0, -1).Format("2006-01-02"),
		NextDate:      day.AddDate(0, 0, 1).Format("2006-01-02"),
		TodayDate:     time.Now().Format("2006-01-02"),
		Banner:        r.URL.Query().Get("error"),
		Staff:         staff,
		StaffFilter:   staffID,
		StaffLocked:   user.HasRole(auth.RoleStaff),
		Reservations:  reservations,
		Count:         len(reservations),
		staffNameByID: make(map[string]string, len(staff)),
	}
	for _, st := range staff {
		page.staffNameByID[st.ID] = st.Name
		if st.Active {
			page.ActiveStaff++
		}
	}
	page.OccupancyPct = len(reservations) * 100 / slotsPerDay
	s.render(w, "admin.html", page)
}

// handleCancelReservation deletes a reservation through the API and
// reloads the day. The list is never patched locally; the service's
// answer is the only source of truth.
func (s *Server) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_cancel")
	user := userFrom(r.Context())
	token := tokenFrom(r.Context())
	id := chi.URLParam(r, "id")

	date := r.FormValue("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		date = time.Now().Format("2006-01-02")
	}

	if err := s.api.CancelReservation(r.Context(), token, id); err != nil {
		if errors.Is(err, agendaapi.ErrUnauthorized) {
			s.handleAPIError(w, r, err, "cancel reservation")
			return
		}
		// The list stays as the service last reported it; the failure is
		// only surfaced as a banner.
		s.logger.Error().Err(err).Str("reservation", id).Msg("cancel failed")
		http.Redirect(w, r, "/admin?date="+date+"&error=cancel", http.StatusSeeOther)
		return
	}
	s.logger.Info().Str("reservation", id).Str("sub", user.Sub).Msg("reservation cancelled")
	s.bus.Publish(events.Event{
		Type:          events.TypeReservationCancelled,
		BusinessID:    user.BusinessID,
		Date:          date,
		ReservationID: id,
		StaffID:       user.StaffID,
	})
	http.Redirect(w, r, "/admin?date="+date, http.StatusSeeOther)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_export")
	user := userFrom(r.Context())
	token := tokenFrom(r.Context())
	date, staffID := dashboardQuery(r, user)

	ctx := r.Context()
	staff, err := s.api.ListStaff(ctx, token, user.BusinessID)
	if err != nil {
		s.handleAPIError(w, r, err, "list staff")
		return
	}
	reservations, err := s.api.ListReservations(ctx, token, user.BusinessID, date, staffID)
	if err != nil {
		s.handleAPIError(w, r, err, "list reservations")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(date)))
	if err := export.WriteReservations(w, date, reservations, staff); err != nil {
		s.logger.Error().Err(err).Msg("export failed")
		return
	}
	metrics.IncAdminExport()
}

// handleAPIError maps upstream failures for guarded handlers. A 401 from
// the agenda service means the token was revoked or expired upstream, so
// the local session is dropped and the user is sent back to login.
func (s *Server) handleAPIError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if errors.Is(err, agendaapi.ErrUnauthorized) {
		s.logger.Warn().Str("op", op).Msg("upstream rejected admin token")
		if cookie, cerr := r.Cookie(adminCookieName); cerr == nil && cookie.Value != "" {
			s.clearAdminSession(w, r, cookie.Value)
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	s.logger.Error().Err(err).Str("op", op).Msg("agenda api call failed")
	http.Error(w, "upstream error", http.StatusBadGateway)
}
