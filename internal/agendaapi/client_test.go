package agendaapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAvailability(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		_ = json.NewEncoder(w).Encode(AvailableResponse{
			Date: "2024-06-10",
			Slots: []Slot{
				{Time: "09:00", Available: true},
				{Time: "09:40", Available: false},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	resp, err := client.GetAvailability(context.Background(), "biz-1", "2024-06-10")
	require.NoError(t, err)
	assert.Equal(t, "/available?businessId=biz-1&date=2024-06-10", gotPath)
	require.Len(t, resp.Slots, 2)
	assert.True(t, resp.Slots[0].Available)
	assert.False(t, resp.Slots[1].Available)
}

func TestGetAvailabilityNeverNilSlots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(AvailableResponse{Date: "2024-06-10"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	resp, err := client.GetAvailability(context.Background(), "biz-1", "2024-06-10")
	require.NoError(t, err)
	assert.NotNil(t, resp.Slots)
	assert.Empty(t, resp.Slots)
}

func TestCreateReservation(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"created", http.StatusCreated, nil},
		{"conflict maps to ErrSlotTaken", http.StatusConflict, ErrSlotTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotBody CreateReservationRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPost, r.Method)
				require.Equal(t, "/reservations", r.URL.Path)
				require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, 5*time.Second)
			err := client.CreateReservation(context.Background(), CreateReservationRequest{
				BusinessID: "biz-1",
				Date:       "2024-06-10",
				Time:       "09:00",
				Customer:   Customer{Name: "Ana", Phone: "099111222"},
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "09:00", gotBody.Time)
			assert.Equal(t, "Ana", gotBody.Customer.Name)
		})
	}
}

func TestCreateReservationServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	err := client.CreateReservation(context.Background(), CreateReservationRequest{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSlotTaken))
}

func TestCancelReservation(t *testing.T) {
	var gotMethod, gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	require.NoError(t, client.CancelReservation(context.Background(), "tok", "res-42"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/reservations/res-42", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestAdminCallsMapUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	ctx := context.Background()

	_, err := client.ListStaff(ctx, "expired", "biz-1")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = client.ListReservations(ctx, "expired", "biz-1", "2024-06-10", "")
	require.ErrorIs(t, err, ErrUnauthorized)

	err = client.CancelReservation(ctx, "expired", "res-1")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestListReservationsSortedByStart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]Reservation{
			{ID: "b", Start: time.Date(2024, 6, 10, 11, 0, 0, 0, time.UTC)},
			{ID: "a", Start: time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)},
			{ID: "c", Start: time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	got, err := client.ListReservations(context.Background(), "tok", "biz-1", "2024-06-10", "")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "c", "b"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestListReservationsStaffFilterParam(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode([]Reservation{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.ListReservations(context.Background(), "tok", "biz-1", "2024-06-10", "st-7")
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "staffId=st-7")
}

func TestListStaffUsesCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode([]Staff{{ID: "st-1", Name: "Maya", Active: true}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	client.UseRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)

	ctx := context.Background()
	first, err := client.ListStaff(ctx, "tok", "biz-1")
	require.NoError(t, err)
	second, err := client.ListStaff(ctx, "tok", "biz-1")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}
