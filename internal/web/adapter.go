package web

import (
	"context"
	"errors"

	"github.com/compabray/agenda-frontend/internal/agendaapi"
	"github.com/compabray/agenda-frontend/internal/booking"
)

// AgendaAdapter implements the wizard's slot and reservation interfaces
// on top of the agenda API client.
type AgendaAdapter struct {
	client *agendaapi.Client
}

// NewAgendaAdapter wraps an API client for use by the booking wizard.
func NewAgendaAdapter(client *agendaapi.Client) *AgendaAdapter {
	return &AgendaAdapter{client: client}
}

func (a *AgendaAdapter) FetchSlots(ctx context.Context, businessID, date string) ([]booking.Slot, error) {
	resp, err := a.client.GetAvailability(ctx, businessID, date)
	if err != nil {
		return nil, err
	}
	slots := make([]booking.Slot, 0, len(resp.Slots))
	for _, s := range resp.Slots {
		slots = append(slots, booking.Slot{Time: s.Time, Available: s.Available})
	}
	return slots, nil
}

func (a *AgendaAdapter) CreateReservation(ctx context.Context, businessID, date, timeOfDay string, customer booking.Customer) error {
	err := a.client.CreateReservation(ctx, agendaapi.CreateReservationRequest{
		BusinessID: businessID,
		Date:       date,
		Time:       timeOfDay,
		Customer:   agendaapi.Customer{Name: customer.Name, Phone: customer.Phone},
	})
	if errors.Is(err, agendaapi.ErrSlotTaken) {
		return booking.ErrSlotTaken
	}
	return err
}
