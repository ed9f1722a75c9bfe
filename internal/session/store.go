package session

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"scenably/internal/entity"
	"scenably/internal/ports"
	"scenably/pkg/apperr"
	"scenably/pkg/logg"
)

const storeName = "SessionStore"

// Entry pairs a session with the process handle it owns. The handle is
// absent until spawn confirms and is never reused after the process
// exits.
type Entry struct {
	Session *entity.Session
	Handle  ports.ProcessHandle
}

// Store is the single source of truth for in-flight sessions. All
// mutation goes through the orchestrators and their process-event
// callbacks; sessions never survive a host restart.
type Store struct {
	mu      sync.Mutex
	entries map[string]*Entry
	logger  *zap.Logger
}

func NewStore(logger *zap.Logger) *Store {
	return &Store{
		entries: make(map[string]*Entry),
		logger:  logger.With(zap.String(logg.Layer, storeName)),
	}
}

// Put registers a new session. A live entry under the same id rejects
// the call; a sessionId is only reusable after its terminal removal.
func (s *Store) Put(sess *entity.Session) error {
	const op = "Put"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[sess.ID]; exists {
		return apperr.SessionActiveError(op, sess.ID)
	}

	s.entries[sess.ID] = &Entry{Session: sess}
	s.logger.Debug("Session registered",
		zap.String(logg.SessionID, sess.ID),
		zap.String(logg.Kind, string(sess.Kind)))

	return nil
}

func (s *Store) Get(sessionID string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[sessionID]

	return entry, ok
}

// Attach records the spawned process handle and transitions the session
// to its active status in one step, so no reader observes a running
// session without a handle.
func (s *Store) Attach(sessionID string, handle ports.ProcessHandle, status entity.SessionStatus) error {
	const op = "Attach"

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[sessionID]
	if !ok {
		return apperr.NotFoundError(op, fmt.Errorf("session not found: %s", sessionID))
	}

	if err := checkTransition(entry.Session.Status, status); err != nil {
		return apperr.WrapWithReason(op, apperr.CodeInternal, err, "illegal_transition")
	}

	entry.Handle = handle
	entry.Session.Status = status
	entry.Session.PID = handle.PID()

	return nil
}

func (s *Store) UpdateStatus(sessionID string, status entity.SessionStatus) error {
	const op = "UpdateStatus"

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[sessionID]
	if !ok {
		return apperr.NotFoundError(op, fmt.Errorf("session not found: %s", sessionID))
	}

	if err := checkTransition(entry.Session.Status, status); err != nil {
		return apperr.WrapWithReason(op, apperr.CodeInternal, err, "illegal_transition")
	}

	entry.Session.Status = status

	return nil
}

// Remove drops the session. Terminal transitions call this immediately
// after setting completed/error; removing an absent id is a no-op so
// close handlers and stop calls cannot race into an error.
func (s *Store) Remove(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[sessionID]; ok {
		delete(s.entries, sessionID)
		s.logger.Debug("Session removed", zap.String(logg.SessionID, sessionID))
	}
}

func (s *Store) Active(kind entity.ActivityKind) []*entity.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sessions []*entity.Session

	for _, entry := range s.entries {
		if kind != "" && entry.Session.Kind != kind {
			continue
		}

		sessions = append(sessions, entry.Session)
	}

	return sessions
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

var allowedTransitions = map[entity.SessionStatus][]entity.SessionStatus{
	entity.SessionStarting:  {entity.SessionRecording, entity.SessionRunning, entity.SessionStopping, entity.SessionCompleted, entity.SessionError},
	entity.SessionRecording: {entity.SessionStopping, entity.SessionCompleted, entity.SessionError},
	entity.SessionRunning:   {entity.SessionStopping, entity.SessionCompleted, entity.SessionError},
	entity.SessionStopping:  {entity.SessionCompleted, entity.SessionError},
}

func checkTransition(from, to entity.SessionStatus) error {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return nil
		}
	}

	return fmt.Errorf("illegal transition %s -> %s", from, to)
}
