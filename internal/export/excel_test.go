package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/compabray/agenda-frontend/internal/agendaapi"
)

func TestFilename(t *testing.T) {
	assert.Equal(t, "reservations_2024-06-10.xlsx", Filename("2024-06-10"))
}

func TestWriteReservations(t *testing.T) {
	reservations := []agendaapi.Reservation{
		{
			ID:       "r1",
			Customer: agendaapi.Customer{Name: "Ana", Phone: "099111222"},
			Start:    time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
			End:      time.Date(2024, 6, 10, 9, 40, 0, 0, time.UTC),
			StaffID:  "st-1",
		},
		{
			ID:       "r2",
			Customer: agendaapi.Customer{Name: "Bruno", Phone: "098000111", Email: "bruno@example.com"},
			Start:    time.Date(2024, 6, 10, 10, 20, 0, 0, time.UTC),
			End:      time.Date(2024, 6, 10, 11, 0, 0, 0, time.UTC),
		},
	}
	staff := []agendaapi.Staff{{ID: "st-1", Name: "Maya", Active: true}}

	var buf bytes.Buffer
	require.NoError(t, WriteReservations(&buf, "2024-06-10", reservations, staff))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("2024-06-10")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per reservation")

	assert.Equal(t, "Start", rows[0][0])
	assert.Equal(t, "09:00", rows[1][0])
	assert.Equal(t, "Ana", rows[1][2])
	assert.Equal(t, "Maya", rows[1][5], "staff id resolved to name")
	assert.Equal(t, "Bruno", rows[2][2])
}

func TestWriteReservationsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReservations(&buf, "2024-06-10", nil, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("2024-06-10")
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}
