package history

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/errors"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/pkg/cache"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/pkg/worker"
)

// Role identifies the author of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a chat session.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	TraceID   string    `json:"trace_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the in-memory view of one chat session.
type Session struct {
	ID           string    `json:"session_id"`
	FirstMessage time.Time `json:"first_message"`
	LastMessage  time.Time `json:"last_message"`
	Turns        []Turn    `json:"turns"`
}

// Persister durably stores completed turns. Writes happen asynchronously on
// the store's worker pool, so a slow persister never blocks Record.
type Persister interface {
	Save(ctx context.Context, sessionID string, turn Turn) error
}

// PersistRecord is the unit of work handed to the persistence pool.
type PersistRecord struct {
	SessionID string
	Turn      Turn
}

// Store keeps active chat sessions in a TTL cache and streams every recorded
// turn to the persister through a worker pool.
type Store struct {
	sessions  cache.Cache[*Session]
	pool      *worker.Pool[PersistRecord]
	persister Persister
	logger    *slog.Logger

	mu sync.Mutex // serializes read-modify-write on session values
}

// StoreConfig bounds the session store.
type StoreConfig struct {
	SessionTTL      time.Duration
	CleanupInterval time.Duration
	Workers         int
	QueueSize       int
}

func (c StoreConfig) withDefaults() StoreConfig {
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * time.Minute
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = time.Minute
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 512
	}
	return c
}

// NewStore creates a session store. persister may be nil, in which case turns
// live only in the TTL cache.
func NewStore(ctx context.Context, cfg StoreConfig, persister Persister, logger *slog.Logger) (*Store, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "HistoryStore")

	sessions, err := cache.NewTTL[*Session](ctx, cfg.SessionTTL, cfg.CleanupInterval)
	if err != nil {
		return nil, errors.Wrap(err, "HistoryStore", "NewStore", "create session cache")
	}

	s := &Store{
		sessions:  sessions,
		persister: persister,
		logger:    logger,
	}

	if persister != nil {
		pool, err := worker.NewPool(cfg.Workers, cfg.QueueSize, s.persist)
		if err != nil {
			return nil, errors.Wrap(err, "HistoryStore", "NewStore", "create persistence pool")
		}
		if err := pool.Start(ctx); err != nil {
			return nil, errors.Wrap(err, "HistoryStore", "NewStore", "start persistence pool")
		}
		s.pool = pool
	}

	return s, nil
}

// Record appends a turn to the session, creating the session on first use.
// The turn is queued for persistence; a full queue drops the write with a
// warning rather than failing the chat.
func (s *Store) Record(sessionID string, turn Turn) error {
	if sessionID == "" {
		return errors.WrapInvalid(errors.ErrSessionNotFound, "HistoryStore", "Record", "record turn without session id")
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}

	s.mu.Lock()
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		session = &Session{ID: sessionID, FirstMessage: turn.Timestamp}
	}
	session.Turns = append(session.Turns, turn)
	session.LastMessage = turn.Timestamp
	_, err := s.sessions.Set(sessionID, session)
	s.mu.Unlock()
	if err != nil {
		return errors.Wrap(err, "HistoryStore", "Record", "store session")
	}

	if s.pool != nil {
		if err := s.pool.Submit(PersistRecord{SessionID: sessionID, Turn: turn}); err != nil {
			s.logger.Warn("history persistence queue full, dropping turn",
				"session_id", sessionID, "error", err)
		}
	}
	return nil
}

// Get returns the session's turns in recording order.
func (s *Store) Get(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrSessionNotFound, "HistoryStore", "Get", "load session "+sessionID)
	}
	return session, nil
}

// Sessions lists the active sessions, most recently used first.
func (s *Store) Sessions() []*Session {
	keys := s.sessions.Keys()
	out := make([]*Session, 0, len(keys))
	for _, key := range keys {
		if session, ok := s.sessions.Get(key); ok {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessage.After(out[j].LastMessage)
	})
	return out
}

// Search returns sessions containing the term in any turn, case-insensitive.
func (s *Store) Search(term string, limit int) []*Session {
	if limit <= 0 {
		limit = 10
	}
	needle := strings.ToLower(term)

	var out []*Session
	for _, session := range s.Sessions() {
		for _, turn := range session.Turns {
			if strings.Contains(strings.ToLower(turn.Content), needle) {
				out = append(out, session)
				break
			}
		}
		if len(out) >= limit {
			break
		}
	}
	return out
}

// Close drains the persistence pool and releases the session cache.
func (s *Store) Close(timeout time.Duration) error {
	if s.pool != nil {
		if err := s.pool.Stop(timeout); err != nil {
			return errors.Wrap(err, "HistoryStore", "Close", "stop persistence pool")
		}
	}
	return s.sessions.Close()
}

func (s *Store) persist(ctx context.Context, record PersistRecord) error {
	if err := s.persister.Save(ctx, record.SessionID, record.Turn); err != nil {
		s.logger.Warn("history persistence failed",
			"session_id", record.SessionID, "error", err)
		return err
	}
	return nil
}
