// Package session walks a user through the problems due today, one at a time
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/example/algorecall/pkg/models"
)

var (
	// ErrFinished is returned when recording an outcome on a finished session
	ErrFinished = errors.New("session: no problem left to review")
	// ErrNotCurrent is returned when an answer names a problem other than the current one
	ErrNotCurrent = errors.New("session: problem is not the current one")
)

// ReviewSession is an ordered pass over a due queue. It is safe for concurrent use.
type ReviewSession struct {
	UserID    int64
	StartedAt time.Time

	turn sync.Mutex

	mu         sync.Mutex
	queue      []models.Problem
	idx        int
	remembered int
	forgot     int
	skipped    int
}

// New starts a session over queue. The queue is copied.
func New(userID int64, queue []models.Problem, startedAt time.Time) *ReviewSession {
	return &ReviewSession{
		UserID:    userID,
		StartedAt: startedAt,
		queue:     append([]models.Problem(nil), queue...),
	}
}

// Hold serializes the handling of answers to this session until release is called
func (s *ReviewSession) Hold() (release func()) {
	s.turn.Lock()
	return s.turn.Unlock
}

// Current returns the problem under review
func (s *ReviewSession) Current() (*models.Problem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done() {
		return nil, false
	}
	return &s.queue[s.idx], true
}

// Record counts the outcome of the current problem and moves to the next one
func (s *ReviewSession) Record(remembered bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record(remembered)
}

// Answer records the outcome only if problemID is the current problem
func (s *ReviewSession) Answer(problemID string, remembered bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done() {
		return ErrFinished
	}
	if s.queue[s.idx].ID != problemID {
		return ErrNotCurrent
	}
	return s.record(remembered)
}

func (s *ReviewSession) record(remembered bool) error {
	if s.done() {
		return ErrFinished
	}
	if remembered {
		s.remembered++
	} else {
		s.forgot++
	}
	s.idx++
	return nil
}

// Skip moves past the current problem without an outcome
func (s *ReviewSession) Skip() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done() {
		return ErrFinished
	}
	s.skipped++
	s.idx++
	return nil
}

// SkipProblem skips only if problemID is the current problem
func (s *ReviewSession) SkipProblem(problemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done() {
		return ErrFinished
	}
	if s.queue[s.idx].ID != problemID {
		return ErrNotCurrent
	}
	s.skipped++
	s.idx++
	return nil
}

// Done reports whether every problem has been handled
func (s *ReviewSession) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done()
}

func (s *ReviewSession) done() bool {
	return s.idx >= len(s.queue)
}

// Position returns the 1-based index of the current problem and the queue length
func (s *ReviewSession) Position() (current, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx + 1, len(s.queue)
}

// Progress returns the handled share of the queue, in percent
func (s *ReviewSession) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return 100
	}
	return float64(s.idx) / float64(len(s.queue)) * 100
}

// Counts returns how many problems were remembered, forgotten and skipped
func (s *ReviewSession) Counts() (remembered, forgot, skipped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remembered, s.forgot, s.skipped
}

// Store keeps at most one session per user
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*ReviewSession
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*ReviewSession)}
}

// Put replaces the user's session
func (st *Store) Put(s *ReviewSession) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.UserID] = s
}

// Get returns the user's session, if any
func (st *Store) Get(userID int64) (*ReviewSession, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[userID]
	return s, ok
}

// Delete ends the user's session
func (st *Store) Delete(userID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, userID)
}
