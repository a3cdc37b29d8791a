package logstore

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/oxmal/go-llmbridge/internal/session"
)

const (
	// DefaultTTL controls how long a session's logged rows are retained.
	// Sessions idle longer than this are unlikely to be continued with a
	// previous_response_id anyway.
	DefaultTTL = 60 * time.Minute
	// DefaultCapacity is a safety ceiling to prevent unbounded memory growth
	// in long-running instances. LRU eviction keeps the most recently used
	// sessions within this limit.
	DefaultCapacity = 10000
	// cleanupTick is the interval between background expired-entry sweeps.
	cleanupTick = 30 * time.Second
)

type sessionEntry struct {
	rows       []session.SpendLogRow
	requestIDs []string
	lastAccess time.Time
	listElem   *list.Element
}

// Memory is an in-memory session log store with TTL and capacity limits.
// It indexes rows two ways: by session id for history reads, and by request
// id so a previous_response_id can be mapped back to its session.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	requests map[string]string
	lru      *list.List
	ttl      time.Duration
	capacity int
	stopCh   chan struct{}
	done     chan struct{}
}

// NewMemory creates an in-memory log store with TTL and capacity limits.
// The caller must call Close to stop the background cleanup goroutine.
func NewMemory(ttl time.Duration, capacity int) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Memory{
		sessions: make(map[string]*sessionEntry),
		requests: make(map[string]string),
		lru:      list.New(),
		ttl:      ttl,
		capacity: capacity,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Close stops the background cleanup goroutine and waits for it to finish.
func (s *Memory) Close() {
	close(s.stopCh)
	<-s.done
}

func (s *Memory) cleanupLoop() {
	defer close(s.done)
	ticker := time.NewTicker(cleanupTick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			s.cleanupExpiredLocked(now)
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

// Append records one logged row under its session id.
func (s *Memory) Append(row session.SpendLogRow) {
	if row.SessionID == "" {
		return
	}

	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[row.SessionID]
	if !ok {
		e = &sessionEntry{}
		s.sessions[row.SessionID] = e
	}
	e.rows = append(e.rows, row)
	if row.RequestID != "" {
		s.requests[row.RequestID] = row.SessionID
		e.requestIDs = append(e.requestIDs, row.RequestID)
	}
	e.lastAccess = now
	s.touchLRU(row.SessionID, e)
	s.evictIfNeededLocked()
}

// SessionForRequest returns the session id a request id belongs to, or ""
// when the request id is unknown.
func (s *Memory) SessionForRequest(ctx context.Context, requestID string) (string, error) {
	if requestID == "" {
		return "", nil
	}

	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID, ok := s.requests[requestID]
	if !ok {
		return "", nil
	}
	if e, ok := s.sessions[sessionID]; ok {
		e.lastAccess = now
		s.touchLRU(sessionID, e)
	}
	return sessionID, nil
}

// RowsForSession returns every logged row for the session in append order.
func (s *Memory) RowsForSession(ctx context.Context, sessionID string) ([]session.SpendLogRow, error) {
	if sessionID == "" {
		return nil, nil
	}

	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	e.lastAccess = now
	s.touchLRU(sessionID, e)

	out := make([]session.SpendLogRow, len(e.rows))
	copy(out, e.rows)
	return out, nil
}

// Len returns current session count (for tests).
func (s *Memory) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// touchLRU moves or inserts a session's element to the front of the LRU list.
func (s *Memory) touchLRU(sessionID string, e *sessionEntry) {
	if e.listElem != nil {
		s.lru.MoveToFront(e.listElem)
	} else {
		e.listElem = s.lru.PushFront(sessionID)
	}
}

func (s *Memory) cleanupExpiredLocked(now time.Time) {
	for sessionID, e := range s.sessions {
		if now.Sub(e.lastAccess) > s.ttl {
			s.removeLocked(sessionID, e)
		}
	}
}

func (s *Memory) evictIfNeededLocked() {
	for len(s.sessions) > s.capacity {
		back := s.lru.Back()
		if back == nil {
			return
		}
		sessionID := back.Value.(string)
		e, ok := s.sessions[sessionID]
		if !ok {
			s.lru.Remove(back)
			continue
		}
		s.removeLocked(sessionID, e)
	}
}

func (s *Memory) removeLocked(sessionID string, e *sessionEntry) {
	if e.listElem != nil {
		s.lru.Remove(e.listElem)
		e.listElem = nil
	}
	for _, requestID := range e.requestIDs {
		delete(s.requests, requestID)
	}
	delete(s.sessions, sessionID)
}
