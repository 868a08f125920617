package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/compabray/agenda-frontend/internal/booking"
	"github.com/compabray/agenda-frontend/internal/metrics"
)

const visitorCookieName = "agenda_visitor"

// visitorSession resolves the wizard session for the current visitor,
// setting the visitor cookie on first contact.
func (s *Server) visitorSession(w http.ResponseWriter, r *http.Request) *booking.Session {
	cookie, err := r.Cookie(visitorCookieName)
	if err != nil || cookie.Value == "" {
		id := uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     visitorCookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		return s.wizardSessions.GetOrCreate(id)
	}
	return s.wizardSessions.GetOrCreate(cookie.Value)
}

// widgetPage is the full view model for the booking page.
type widgetPage struct {
	Session  booking.SessionView
	Calendar CalendarMonth
}

func (s *Server) handleWidget(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("widget")
	sess := s.visitorSession(w, r)
	view := sess.Snapshot()

	now := time.Now()
	year, month := now.Year(), now.Month()
	if view.Date != "" {
		if d, err := time.Parse("2006-01-02", view.Date); err == nil {
			year, month = d.Year(), d.Month()
		}
	}
	if m := r.URL.Query().Get("month"); m != "" {
		if d, err := time.Parse("2006-01", m); err == nil {
			year, month = d.Year(), d.Month()
		}
	}

	s.render(w, "booking.html", widgetPage{
		Session:  view,
		Calendar: MonthGrid(year, month, now, view.Date),
	})
}

func (s *Server) handleSelectDate(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("widget_date")
	sess := s.visitorSession(w, r)
	date := r.FormValue("date")
	if err := s.wizard.SelectDate(r.Context(), sess, date); err != nil {
		s.logger.Debug().Err(err).Str("date", date).Msg("date rejected")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSelectTime(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("widget_time")
	sess := s.visitorSession(w, r)
	timeOfDay := r.FormValue("time")
	if err := s.wizard.SelectTime(sess, timeOfDay); err != nil {
		s.logger.Debug().Err(err).Str("time", timeOfDay).Msg("time rejected")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("widget_submit")
	sess := s.visitorSession(w, r)
	s.wizard.SetCustomer(sess, r.FormValue("name"), r.FormValue("phone"))
	err := s.wizard.Submit(r.Context(), sess)
	switch {
	case err == nil:
	case errors.Is(err, booking.ErrSlotTaken):
		// Conflict is rendered from session state, nothing extra to do.
	case errors.Is(err, booking.ErrValidation), errors.Is(err, booking.ErrBusy):
		s.logger.Debug().Err(err).Msg("submit rejected")
	default:
		s.logger.Error().Err(err).Msg("reservation submit failed")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("widget_dismiss")
	sess := s.visitorSession(w, r)
	s.wizard.DismissMessage(sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
