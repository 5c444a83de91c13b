package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"CoinSentry/internal/domain/models"
	drepo "CoinSentry/internal/domain/repository"
	"CoinSentry/pkg/cache"
)

// MemoryDedupStore keeps suppression records in a plain map. Good
// enough for a single process; records never expire but are one small
// struct per active position.
type MemoryDedupStore struct {
	mu   sync.RWMutex
	recs map[string]models.DedupRecord
}

// NewMemoryDedupStore creates an empty dedup store.
func NewMemoryDedupStore() *MemoryDedupStore {
	return &MemoryDedupStore{recs: make(map[string]models.DedupRecord)}
}

func (s *MemoryDedupStore) Get(_ context.Context, positionID string) (*models.DedupRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.recs[positionID]
	if !ok {
		return nil, nil
	}
	cp := rec
	return &cp, nil
}

func (s *MemoryDedupStore) Put(_ context.Context, positionID string, rec *models.DedupRecord) error {
	if rec == nil {
		return errors.New("nil dedup record")
	}
	s.mu.Lock()
	s.recs[positionID] = *rec
	s.mu.Unlock()
	return nil
}

// RedisDedupStore keeps suppression records in Redis so concurrent
// instances share one cooldown gate. Records expire on their own after
// a retention period comfortably above any sane cooldown.
type RedisDedupStore struct {
	store     cache.Service
	retention time.Duration
}

// NewRedisDedupStore creates a Redis-backed dedup store.
func NewRedisDedupStore(store cache.Service, retention time.Duration) *RedisDedupStore {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &RedisDedupStore{store: store, retention: retention}
}

func (s *RedisDedupStore) Get(ctx context.Context, positionID string) (*models.DedupRecord, error) {
	var rec models.DedupRecord
	if err := s.store.Get(ctx, dedupKey(positionID), &rec); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (s *RedisDedupStore) Put(ctx context.Context, positionID string, rec *models.DedupRecord) error {
	if rec == nil {
		return errors.New("nil dedup record")
	}
	return s.store.Set(ctx, dedupKey(positionID), rec, s.retention)
}

func dedupKey(positionID string) string {
	return "dedup:" + positionID
}

var (
	_ drepo.DedupStore = (*MemoryDedupStore)(nil)
	_ drepo.DedupStore = (*RedisDedupStore)(nil)
)
