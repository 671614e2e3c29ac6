package inmemory

import (
	"context"
	"sync"

	"github.com/moraplatform/qa-engine/internal/core/domain"
)

// ConversationStore keeps session history in process memory. It is the
// default when no database is configured; history then lives only as long
// as the process.
type ConversationStore struct {
	mu       sync.Mutex
	sessions map[string][]domain.ConversationTurn
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{sessions: make(map[string][]domain.ConversationTurn)}
}

func (s *ConversationStore) Append(_ context.Context, sessionID string, turns ...domain.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], turns...)
	return nil
}

func (s *ConversationStore) Recent(_ context.Context, sessionID string, limit int) ([]domain.ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.sessions[sessionID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]domain.ConversationTurn, len(all))
	copy(out, all)
	return out, nil
}
