package store

import (
	"context"
	"sync"
	"time"

	ledgerevents "doceo/contracts/ledger"
	"doceo/internal/ledger/models"
	"doceo/internal/sentinel"
	id "doceo/pkg/domain"
)

// InMemoryStore holds the full ledger state in memory. It backs tests and
// single-node deployments where durability is not required.
type InMemoryStore struct {
	mu          sync.RWMutex
	credentials map[id.DocumentHash]*models.Credential
	counts      map[id.Principal]uint64
	verifiers   map[id.Principal]*models.VerifierEntry
	config      *models.Config
	events      []*models.Event
	nextEventID uint64
}

// New constructs an empty in-memory ledger store.
func New() *InMemoryStore {
	return &InMemoryStore{
		credentials: make(map[id.DocumentHash]*models.Credential),
		counts:      make(map[id.Principal]uint64),
		verifiers:   make(map[id.Principal]*models.VerifierEntry),
		nextEventID: 1,
	}
}

func (s *InMemoryStore) GetCredential(_ context.Context, hash id.DocumentHash) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	credential, ok := s.credentials[hash]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyCredential := *credential
	return &copyCredential, nil
}

func (s *InMemoryStore) InsertCredential(_ context.Context, credential *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[credential.Hash]; ok {
		return sentinel.ErrAlreadyExists
	}
	copyCredential := *credential
	s.credentials[credential.Hash] = &copyCredential
	return nil
}

func (s *InMemoryStore) UpdateCredential(_ context.Context, credential *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[credential.Hash]; !ok {
		return sentinel.ErrNotFound
	}
	copyCredential := *credential
	s.credentials[credential.Hash] = &copyCredential
	return nil
}

func (s *InMemoryStore) CredentialCount(_ context.Context, tutor id.Principal) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[tutor], nil
}

func (s *InMemoryStore) IncrementCredentialCount(_ context.Context, tutor id.Principal) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[tutor]++
	return s.counts[tutor], nil
}

func (s *InMemoryStore) GetVerifier(_ context.Context, principal id.Principal) (*models.VerifierEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.verifiers[principal]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyEntry := *entry
	return &copyEntry, nil
}

func (s *InMemoryStore) PutVerifier(_ context.Context, entry *models.VerifierEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyEntry := *entry
	s.verifiers[entry.Principal] = &copyEntry
	return nil
}

func (s *InMemoryStore) GetConfig(_ context.Context) (*models.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config == nil {
		return nil, sentinel.ErrNotFound
	}
	copyConfig := *s.config
	return &copyConfig, nil
}

func (s *InMemoryStore) PutConfig(_ context.Context, config *models.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyConfig := *config
	s.config = &copyConfig
	return nil
}

func (s *InMemoryStore) AppendEvent(_ context.Context, typ ledgerevents.EventType, payload string, tick id.Tick) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event := &models.Event{
		ID:         s.nextEventID,
		Type:       typ,
		Payload:    payload,
		Tick:       tick,
		RecordedAt: time.Now().UTC(),
	}
	s.nextEventID++
	s.events = append(s.events, event)
	copyEvent := *event
	return &copyEvent, nil
}

func (s *InMemoryStore) ListEvents(_ context.Context, afterID uint64, limit int) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Event
	for _, event := range s.events {
		if event.ID <= afterID {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		copyEvent := *event
		out = append(out, &copyEvent)
	}
	return out, nil
}

func (s *InMemoryStore) FetchUnpublished(_ context.Context, limit int) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Event
	for _, event := range s.events {
		if !event.IsPending() {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		copyEvent := *event
		out = append(out, &copyEvent)
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, eventID uint64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range s.events {
		if event.ID == eventID {
			publishedAt := at
			event.PublishedAt = &publishedAt
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *InMemoryStore) CountPending(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pending := 0
	for _, event := range s.events {
		if event.IsPending() {
			pending++
		}
	}
	return pending, nil
}
