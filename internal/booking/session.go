package booking

import (
	"sync"
	"time"
)

// Slot mirrors the availability snapshot fetched for the selected date.
type Slot struct {
	Time      string
	Available bool
}

// Session holds the wizard data for one visitor.
type Session struct {
	ID    string
	State State

	Date  string // YYYY-MM-DD, empty until a date is picked
	Time  string // HH:mm, empty until a time is picked
	Name  string
	Phone string

	Message Message

	// Slots is the last applied availability snapshot for Date. It is
	// replaced wholesale on every applied fetch, never patched.
	Slots   []Slot
	Loading bool

	// fetchSeq tags the newest requested fetch; responses carrying an
	// older tag are discarded (last request wins).
	fetchSeq uint64

	StartedAt time.Time
	UpdatedAt time.Time

	mu sync.Mutex
}

// NewSession creates a fresh wizard session in the initial state.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		State:     StateIdle,
		Slots:     []Slot{},
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Snapshot returns a copy of the visible session fields for rendering.
func (s *Session) Snapshot() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots := make([]Slot, len(s.Slots))
	copy(slots, s.Slots)
	return SessionView{
		State:   s.State,
		Date:    s.Date,
		Time:    s.Time,
		Name:    s.Name,
		Phone:   s.Phone,
		Message: s.Message,
		Slots:   slots,
		Loading: s.Loading,
	}
}

// SessionView is an immutable copy handed to templates.
type SessionView struct {
	State   State
	Date    string
	Time    string
	Name    string
	Phone   string
	Message Message
	Slots   []Slot
	Loading bool
}

// IsExpired checks if the session has been idle longer than timeout.
func (s *Session) IsExpired(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.UpdatedAt) > timeout
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

// SessionStore manages wizard sessions keyed by visitor ID.
type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	timeout  time.Duration
}

// NewSessionStore creates a session store with the given idle timeout.
func NewSessionStore(timeout time.Duration) *SessionStore {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		timeout:  timeout,
	}
}

// Get returns a session for the visitor, or nil.
func (ss *SessionStore) Get(id string) *Session {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.sessions[id]
}

// GetOrCreate returns the existing session or creates a new one.
func (ss *SessionStore) GetOrCreate(id string) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	session, ok := ss.sessions[id]
	if ok && !session.IsExpired(ss.timeout) {
		return session
	}

	session = NewSession(id)
	ss.sessions[id] = session
	return session
}

// Delete removes a session.
func (ss *SessionStore) Delete(id string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, id)
}

// Cleanup removes expired sessions and returns how many were dropped.
func (ss *SessionStore) Cleanup() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	removed := 0
	for id, session := range ss.sessions {
		if session.IsExpired(ss.timeout) {
			delete(ss.sessions, id)
			removed++
		}
	}
	return removed
}
