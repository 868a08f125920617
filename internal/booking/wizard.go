// Package booking implements the date -> time -> details -> submit wizard
// that drives the public reservation widget. All availability and conflict
// authority stays with the external agenda service; the wizard only keeps
// per-visitor UI state and reacts to service answers.
package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/compabray/agenda-frontend/internal/events"
	"github.com/compabray/agenda-frontend/internal/metrics"
)

// State represents the current step of the wizard.
type State string

const (
	StateIdle         State = "idle"
	StateDateSelected State = "date_selected"
	StateTimeSelected State = "time_selected"
	StateSubmitting   State = "submitting"
	StateSuccess      State = "success"
	StateConflict     State = "conflict"
	StateError        State = "error"
)

// Message is the transient, dismissible banner shown after a submit.
type Message string

const (
	MessageNone     Message = ""
	MessageSuccess  Message = "success"
	MessageConflict Message = "conflict"
	MessageError    Message = "error"
)

var (
	// ErrBadDate means the date string is not YYYY-MM-DD.
	ErrBadDate = errors.New("booking: invalid date")

	// ErrPastDate means the visitor tried to pick a day in the past.
	ErrPastDate = errors.New("booking: date in the past")

	// ErrNoDate means a time was picked before any date.
	ErrNoDate = errors.New("booking: no date selected")

	// ErrSlotUnavailable means the picked time is not in the available set.
	ErrSlotUnavailable = errors.New("booking: slot not available")

	// ErrValidation means the submit guard failed (empty name/phone/date/time).
	ErrValidation = errors.New("booking: missing required fields")

	// ErrBusy means a submit is already in flight for this session.
	ErrBusy = errors.New("booking: submit in progress")

	// ErrSlotTaken is the wizard-level conflict sentinel. The reservation
	// service adapter maps the API 409 onto it.
	ErrSlotTaken = errors.New("booking: slot taken")
)

// transitions is the allowed-transition table for wizard states.
var transitions = map[State][]State{
	StateIdle:         {StateDateSelected},
	StateDateSelected: {StateDateSelected, StateTimeSelected},
	StateTimeSelected: {StateDateSelected, StateTimeSelected, StateSubmitting},
	StateSubmitting:   {StateSuccess, StateConflict, StateError},
	StateSuccess:      {StateDateSelected, StateTimeSelected},
	StateConflict:     {StateDateSelected, StateTimeSelected},
	StateError:        {StateDateSelected, StateTimeSelected, StateSubmitting},
}

// CanTransition checks if a transition is allowed.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Customer is the contact data required to submit.
type Customer struct {
	Name  string
	Phone string
}

// SlotSource fetches the availability snapshot for a date.
type SlotSource interface {
	FetchSlots(ctx context.Context, businessID, date string) ([]Slot, error)
}

// ReservationService creates reservations. It must return ErrSlotTaken
// when the service reports the slot was concurrently booked.
type ReservationService interface {
	CreateReservation(ctx context.Context, businessID, date, timeOfDay string, customer Customer) error
}

// Wizard orchestrates wizard sessions against the agenda service.
type Wizard struct {
	slots        SlotSource
	reservations ReservationService
	businessID   string
	bus          *events.Bus
	logger       zerolog.Logger
	now          func() time.Time
}

// NewWizard creates a wizard bound to one business.
func NewWizard(slots SlotSource, reservations ReservationService, businessID string, bus *events.Bus, logger zerolog.Logger) *Wizard {
	return &Wizard{
		slots:        slots,
		reservations: reservations,
		businessID:   businessID,
		bus:          bus,
		logger:       logger,
		now:          time.Now,
	}
}

// SelectDate picks a day, clears any selected time and message, and
// fetches the slot snapshot for that day. Past dates are rejected.
func (w *Wizard) SelectDate(ctx context.Context, s *Session, date string) error {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ErrBadDate
	}
	if day.Before(w.today()) {
		return ErrPastDate
	}

	s.mu.Lock()
	if !CanTransition(s.State, StateDateSelected) {
		s.mu.Unlock()
		return ErrBusy
	}
	s.State = StateDateSelected
	s.Date = date
	s.Time = ""
	s.Message = MessageNone
	s.Loading = true
	s.fetchSeq++
	seq := s.fetchSeq
	s.touch()
	s.mu.Unlock()

	w.refreshSlots(ctx, s, date, seq)
	return nil
}

// SelectTime picks a time. Only valid with a date selected and the time
// present in the fetched available set.
func (w *Wizard) SelectTime(s *Session, timeOfDay string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Date == "" {
		return ErrNoDate
	}
	if !CanTransition(s.State, StateTimeSelected) {
		return ErrBusy
	}
	if !slotAvailable(s.Slots, timeOfDay) {
		return ErrSlotUnavailable
	}

	s.State = StateTimeSelected
	s.Time = timeOfDay
	s.Message = MessageNone
	s.touch()
	return nil
}

// SetCustomer records the form fields. Validation happens at submit.
func (w *Wizard) SetCustomer(s *Session, name, phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Name = name
	s.Phone = phone
	s.touch()
}

// Submit sends the reservation to the agenda service.
//
// On success the date is kept and the wizard returns to date selection
// with refreshed slots (the day's availability changed). On conflict the
// time is discarded and slots are re-fetched so the taken slot disappears.
// On any other failure the state is left as-is for a manual retry.
func (w *Wizard) Submit(ctx context.Context, s *Session) error {
	s.mu.Lock()
	if s.State == StateSubmitting {
		s.mu.Unlock()
		return ErrBusy
	}
	name := strings.TrimSpace(s.Name)
	phone := strings.TrimSpace(s.Phone)
	if s.Date == "" || s.Time == "" || name == "" || phone == "" {
		s.mu.Unlock()
		return ErrValidation
	}
	if !CanTransition(s.State, StateSubmitting) {
		s.mu.Unlock()
		return ErrBusy
	}
	s.State = StateSubmitting
	date := s.Date
	timeOfDay := s.Time
	s.touch()
	s.mu.Unlock()

	err := w.reservations.CreateReservation(ctx, w.businessID, date, timeOfDay, Customer{Name: name, Phone: phone})

	var eventType string
	var refetch bool
	var seq uint64

	s.mu.Lock()
	switch {
	case err == nil:
		s.State = StateSuccess
		s.Message = MessageSuccess
		s.Time = ""
		s.Name = ""
		s.Phone = ""
		eventType = events.TypeReservationCreated
		refetch = true
	case errors.Is(err, ErrSlotTaken):
		s.State = StateConflict
		s.Message = MessageConflict
		s.Time = ""
		eventType = events.TypeReservationConflict
		refetch = true
	default:
		s.State = StateError
		s.Message = MessageError
	}
	if refetch {
		s.Loading = true
		s.fetchSeq++
		seq = s.fetchSeq
	}
	s.touch()
	s.mu.Unlock()

	if eventType != "" && w.bus != nil {
		w.bus.Publish(events.Event{
			Type:       eventType,
			BusinessID: w.businessID,
			Date:       date,
			Time:       timeOfDay,
		})
	}
	if err != nil && !errors.Is(err, ErrSlotTaken) {
		w.logger.Error().Err(err).Str("date", date).Str("time", timeOfDay).Msg("reservation submit failed")
	}
	if refetch {
		w.refreshSlots(ctx, s, date, seq)
	}
	return err
}

// DismissMessage clears the banner. Outcome states fold back into the
// step the visitor is actually on.
func (w *Wizard) DismissMessage(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Message = MessageNone
	switch s.State {
	case StateSuccess, StateConflict:
		s.State = StateDateSelected
	case StateError:
		if s.Time != "" {
			s.State = StateTimeSelected
		} else {
			s.State = StateDateSelected
		}
	}
	s.touch()
}

// refreshSlots applies a fetched snapshot unless a newer fetch was issued
// or the visitor moved to another date meanwhile (last request wins).
func (w *Wizard) refreshSlots(ctx context.Context, s *Session, date string, seq uint64) {
	slots, err := w.slots.FetchSlots(ctx, w.businessID, date)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.fetchSeq || date != s.Date {
		metrics.IncSlotFetch("stale")
		return
	}
	s.Loading = false
	if err != nil {
		metrics.IncSlotFetch("error")
		w.logger.Error().Err(err).Str("date", date).Msg("slot fetch failed")
		s.Slots = []Slot{}
		s.Message = MessageError
		return
	}
	metrics.IncSlotFetch("applied")
	if slots == nil {
		slots = []Slot{}
	}
	s.Slots = slots
	s.touch()
}

func (w *Wizard) today() time.Time {
	now := w.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func slotAvailable(slots []Slot, timeOfDay string) bool {
	for _, slot := range slots {
		if slot.Time == timeOfDay && slot.Available {
			return true
		}
	}
	return false
}
