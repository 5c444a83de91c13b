package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"CoinSentry/internal/domain/models"
	drepo "CoinSentry/internal/domain/repository"

	"github.com/google/uuid"
)

// ErrPositionNotFound is returned for lookups of unknown position ids.
var ErrPositionNotFound = errors.New("position not found")

// MemoryPositionStore is the in-memory PositionStore. Closed positions
// stay in the map for history but drop out of ListActive.
type MemoryPositionStore struct {
	mu        sync.RWMutex
	positions map[string]*models.Position
}

// NewMemoryPositionStore creates an empty store.
func NewMemoryPositionStore() *MemoryPositionStore {
	return &MemoryPositionStore{positions: make(map[string]*models.Position)}
}

// Save stores a position, assigning an id and creation time when absent.
func (s *MemoryPositionStore) Save(_ context.Context, p *models.Position) error {
	if p == nil {
		return errors.New("nil position")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	cp := *p
	s.mu.Lock()
	s.positions[cp.ID] = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryPositionStore) Get(_ context.Context, id string) (*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.positions[id]
	if !ok {
		return nil, ErrPositionNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryPositionStore) ListByOwner(_ context.Context, ownerID string) ([]*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Position, 0)
	for _, p := range s.positions {
		if p.OwnerID == ownerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *MemoryPositionStore) ListActive(_ context.Context) ([]*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Position, 0)
	for _, p := range s.positions {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	sortByCreation(out)
	return out, nil
}

// Close marks a position inactive. Closing twice is not an error.
func (s *MemoryPositionStore) Close(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[id]
	if !ok {
		return ErrPositionNotFound
	}
	if !p.IsActive {
		return nil
	}
	now := time.Now()
	p.IsActive = false
	p.ClosedAt = &now
	return nil
}

func sortByCreation(ps []*models.Position) {
	sort.Slice(ps, func(i, j int) bool {
		return ps[i].CreatedAt.Before(ps[j].CreatedAt)
	})
}

var _ drepo.PositionStore = (*MemoryPositionStore)(nil)
