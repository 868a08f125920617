package agendaapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Sentinel errors for responses the UI has to react to specifically.
var (
	// ErrSlotTaken is returned when the service answers 409 on reservation
	// creation: the slot was booked between fetch and submit.
	ErrSlotTaken = errors.New("agendaapi: slot already taken")

	// ErrUnauthorized is returned for 401 responses on admin endpoints.
	ErrUnauthorized = errors.New("agendaapi: unauthorized")
)

// Slot is a bookable time unit for a date.
type Slot struct {
	Time      string `json:"time"` // HH:mm
	Available bool   `json:"available"`
}

// AvailableResponse is the payload of GET /available.
type AvailableResponse struct {
	Date    string `json:"date"`
	StaffID string `json:"staffId"`
	Slots   []Slot `json:"slots"`
}

// Customer is the contact data collected by the booking form.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// CreateReservationRequest is the body of POST /reservations.
type CreateReservationRequest struct {
	BusinessID string   `json:"businessId"`
	Date       string   `json:"date"` // YYYY-MM-DD
	Time       string   `json:"time"` // HH:mm
	Customer   Customer `json:"customer"`
}

// Reservation is the read-only projection served to the admin dashboard.
type Reservation struct {
	ID       string    `json:"_id"`
	Customer Customer  `json:"customer"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	StaffID  string    `json:"staffId,omitempty"`
}

// Staff is reference data for filtering and display.
type Staff struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Client is a simple HTTP client for the external agenda REST service.
// The service owns all availability and conflict authority; this client
// only moves JSON back and forth.
type Client struct {
	baseURL    string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client for the given base URL, e.g. "https://host/api".
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UseRedisCache configures optional Redis caching for reference data
// (staff list). Availability is never cached: a concurrent submit can
// invalidate it at any moment.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// GetAvailability fetches the slot snapshot for a business/date (YYYY-MM-DD).
func (c *Client) GetAvailability(ctx context.Context, businessID, date string) (*AvailableResponse, error) {
	endpoint := fmt.Sprintf("%s/available?businessId=%s&date=%s",
		c.baseURL, url.QueryEscape(businessID), url.QueryEscape(date))

	var resp AvailableResponse
	if err := c.doGet(ctx, endpoint, "", &resp); err != nil {
		return nil, fmt.Errorf("get availability: %w", err)
	}
	if resp.Slots == nil {
		resp.Slots = []Slot{}
	}
	return &resp, nil
}

// CreateReservation posts a new reservation. Returns ErrSlotTaken on 409.
func (c *Client) CreateReservation(ctx context.Context, req CreateReservationRequest) error {
	endpoint := fmt.Sprintf("%s/reservations", c.baseURL)
	if err := c.doPost(ctx, endpoint, req, nil); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return ErrSlotTaken
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// CancelReservation deletes a reservation by id. Admin credential required.
func (c *Client) CancelReservation(ctx context.Context, token, id string) error {
	endpoint := fmt.Sprintf("%s/reservations/%s", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	addBearer(req, token)
	if err := c.do(req, nil); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return ErrUnauthorized
		}
		return fmt.Errorf("cancel reservation %s: %w", id, err)
	}
	return nil
}

// ListStaff returns the business staff list. Cached when Redis is configured.
func (c *Client) ListStaff(ctx context.Context, token, businessID string) ([]Staff, error) {
	endpoint := fmt.Sprintf("%s/admin/staff?businessId=%s", c.baseURL, url.QueryEscape(businessID))
	cacheKey := fmt.Sprintf("staff:%s", businessID)

	var staff []Staff
	if c.readCache(ctx, cacheKey, &staff) {
		return staff, nil
	}

	if err := c.doGet(ctx, endpoint, token, &staff); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("list staff: %w", err)
	}
	c.writeCache(ctx, cacheKey, staff)
	return staff, nil
}

// ListReservations returns reservations for a date (YYYY-MM-DD) sorted
// ascending by start time. staffID is optional.
func (c *Client) ListReservations(ctx context.Context, token, businessID, date, staffID string) ([]Reservation, error) {
	q := url.Values{}
	q.Set("businessId", businessID)
	q.Set("date", date)
	if staffID != "" {
		q.Set("staffId", staffID)
	}
	endpoint := fmt.Sprintf("%s/admin/reservations?%s", c.baseURL, q.Encode())

	var reservations []Reservation
	if err := c.doGet(ctx, endpoint, token, &reservations); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	sort.Slice(reservations, func(i, j int) bool {
		return reservations[i].Start.Before(reservations[j].Start)
	})
	return reservations, nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, endpoint, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	addBearer(req, token)
	return c.do(req, out)
}

func (c *Client) doPost(ctx context.Context, endpoint string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(data)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return ErrSlotTaken
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode >= 300:
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	return dec.Decode(out)
}

func addBearer(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
