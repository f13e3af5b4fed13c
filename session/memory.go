package session

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/coach/artifact"
	"github.com/tailored-agentic-units/coach/core/protocol"
)

var kindOrder = []artifact.Kind{
	artifact.KindEpic,
	artifact.KindFeature,
	artifact.KindPIObjectives,
	artifact.KindStory,
}

type memorySession struct {
	id     string
	turns  []protocol.Turn
	drafts map[artifact.Kind]artifact.Draft
	mu     sync.RWMutex
}

// NewMemorySession creates a Session backed by an in-memory slice.
// The session is assigned a unique UUIDv7 identifier.
func NewMemorySession() Session {
	return newMemorySession(uuid.Must(uuid.NewV7()).String())
}

func newMemorySession(id string) *memorySession {
	return &memorySession{
		id:     id,
		drafts: make(map[artifact.Kind]artifact.Draft),
	}
}

func (s *memorySession) ID() string {
	return s.id
}

func (s *memorySession) Append(turns ...protocol.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turns...)
}

func (s *memorySession) History() []protocol.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]protocol.Turn, len(s.turns))
	copy(copied, s.turns)
	return copied
}

func (s *memorySession) Window(n int) []protocol.Turn {
	if n <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	start := max(len(s.turns)-n, 0)
	return slices.Clone(s.turns[start:])
}

func (s *memorySession) SetDraft(d artifact.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.Kind] = d
}

func (s *memorySession) Draft(kind artifact.Kind) (artifact.Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[kind]
	return d, ok
}

func (s *memorySession) Drafts() []artifact.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()

	drafts := make([]artifact.Draft, 0, len(s.drafts))
	for _, kind := range kindOrder {
		if d, ok := s.drafts[kind]; ok {
			drafts = append(drafts, d)
		}
	}
	return drafts
}

func (s *memorySession) ClearDraft(kind artifact.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, kind)
}

func (s *memorySession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

func (s *memorySession) Record() Record {
	rec := Record{
		ID:                  s.id,
		ConversationHistory: s.History(),
		Drafts:              s.Drafts(),
		Timestamp:           time.Now().UTC(),
	}
	rec.mirrorDrafts()
	return rec
}
