package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nyayalabs/nyaya/internal/models"
	"github.com/nyayalabs/nyaya/pkg/utils"
)

// Store holds sessions in memory behind a single mutex. Sessions are
// removed only by Sweep or by the capacity policy, never on read.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	maxSessions int
	logger      *zap.Logger
}

// NewStore creates an empty session store. maxSessions caps the number of
// live sessions; when the cap would be exceeded, Create evicts the session
// idle the longest. 0 means unbounded.
func NewStore(maxSessions int, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		logger:      logger,
	}
}

// Create registers a new session and returns its ID.
func (s *Store) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		s.evictOldestLocked()
	}

	id := uuid.New().String()
	now := time.Now().UTC()
	s.sessions[id] = &Session{
		ID:           id,
		CreatedAt:    now,
		LastActivity: now,
	}
	s.logger.Debug("session created", zap.String("session_id", id))
	return id
}

func (s *Store) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, sess := range s.sessions {
		if oldestID == "" || sess.LastActivity.Before(oldest) {
			oldestID = id
			oldest = sess.LastActivity
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
		s.logger.Info("session evicted at capacity", zap.String("session_id", oldestID))
	}
}

// Get returns a snapshot of the session, or false if it does not exist.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return snapshot(sess), true
}

// RecordTurn appends a history record for an answered question and bumps
// the session's activity. Unknown IDs are a silent no-op. Confidence joins
// the trend only when positive, so error responses never drag the average.
func (s *Store) RecordTurn(id, question string, resp *models.QueryResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return
	}

	now := time.Now().UTC()
	sess.QuestionCount++
	sess.History = append(sess.History, Turn{
		QuestionNumber: sess.QuestionCount,
		Query:          question,
		Timestamp:      now.Format(time.RFC3339),
		Confidence:     resp.Confidence,
		QueryType:      resp.QueryType,
	})
	if resp.Confidence > 0 {
		sess.ConfidenceScores = append(sess.ConfidenceScores, resp.Confidence)
	}
	sess.LastActivity = now
}

// Stats summarizes a session, or returns false if it does not exist.
// Duration runs from creation to the last recorded activity.
func (s *Store) Stats(id string) (models.SessionStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return models.SessionStats{}, false
	}

	var avg float64
	if len(sess.ConfidenceScores) > 0 {
		var sum float64
		for _, c := range sess.ConfidenceScores {
			sum += c
		}
		avg = utils.Round2(sum / float64(len(sess.ConfidenceScores)))
	}

	types := make(map[string]int)
	for _, turn := range sess.History {
		types[turn.QueryType]++
	}

	return models.SessionStats{
		SessionID:         sess.ID,
		CreatedAt:         sess.CreatedAt.Format(time.RFC3339),
		QuestionCount:     sess.QuestionCount,
		AverageConfidence: avg,
		DurationMinutes:   int(sess.LastActivity.Sub(sess.CreatedAt).Minutes()),
		LastActivity:      sess.LastActivity.Format(time.RFC3339),
		QueryTypes:        types,
	}, true
}

// Delete removes a session, reporting whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Sweep removes sessions idle longer than maxAge and returns how many.
func (s *Store) Sweep(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-maxAge)
	removed := 0
	for id, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("expired sessions removed", zap.Int("count", removed))
	}
	return removed
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func snapshot(sess *Session) *Session {
	out := *sess
	out.History = append([]Turn(nil), sess.History...)
	out.ConfidenceScores = append([]float64(nil), sess.ConfidenceScores...)
	return &out
}
