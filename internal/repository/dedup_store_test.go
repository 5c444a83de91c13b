package repository

import (
	"context"
	"testing"
	"time"

	"CoinSentry/internal/domain/models"
	"CoinSentry/pkg/cache"
)

func TestMemoryDedupMissReturnsNil(t *testing.T) {
	s := NewMemoryDedupStore()
	rec, err := s.Get(context.Background(), "pos-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record on miss, got %+v", rec)
	}
}

func TestMemoryDedupRoundTrip(t *testing.T) {
	s := NewMemoryDedupStore()
	ctx := context.Background()

	in := &models.DedupRecord{
		Fingerprint: "stop_proximity,volume_anomaly",
		EmittedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := s.Put(ctx, "pos-1", in); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, "pos-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Fingerprint != in.Fingerprint || !got.EmittedAt.Equal(in.EmittedAt) {
		t.Fatalf("got %+v, want %+v", got, in)
	}

	// returned record is a copy
	got.Fingerprint = "mutated"
	again, _ := s.Get(ctx, "pos-1")
	if again.Fingerprint != in.Fingerprint {
		t.Fatal("stored record aliased caller memory")
	}
}

func TestMemoryDedupRejectsNil(t *testing.T) {
	s := NewMemoryDedupStore()
	if err := s.Put(context.Background(), "pos-1", nil); err == nil {
		t.Fatal("expected error for nil record")
	}
}

func TestRedisDedupRoundTrip(t *testing.T) {
	backing := cache.NewMemoryCache(cache.WithMemoryMaxSize(64))
	s := NewRedisDedupStore(backing, time.Hour)
	ctx := context.Background()

	rec, err := s.Get(ctx, "pos-9")
	if err != nil {
		t.Fatalf("get miss: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil on miss, got %+v", rec)
	}

	in := &models.DedupRecord{Fingerprint: "tp_proximity", EmittedAt: time.Now().UTC().Truncate(time.Second)}
	if err := s.Put(ctx, "pos-9", in); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, "pos-9")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Fingerprint != in.Fingerprint {
		t.Fatalf("got %+v, want %+v", got, in)
	}
}
