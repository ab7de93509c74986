package ratelimit

import (
	"context"
	"testing"
	"time"
)

type fakeStore struct {
	countsByWindow map[string]int
	counts         []int
	i              int
}

func (f *fakeStore) GetCommandCountSince(ctx context.Context, sinceISO string) (int, error) {
	n := f.counts[f.i]
	f.i++
	if f.i >= len(f.counts) {
		f.i = len(f.counts) - 1
	}
	return n, nil
}

func TestLimiterBlocksAtPerMinuteCap(t *testing.T) {
	fs := &fakeStore{counts: []int{100, 100}}
	l := New(fs, 100, 1000)
	v, err := l.Check(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if v == nil || v.Rule != "rate_per_minute" {
		t.Fatalf("expected rate_per_minute violation, got %+v", v)
	}
}

func TestLimiterAllowsUnderCap(t *testing.T) {
	fs := &fakeStore{counts: []int{5, 50}}
	l := New(fs, 100, 1000)
	v, err := l.Check(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if v != nil {
		t.Fatalf("expected no violation, got %+v", v)
	}
}

func TestLocalLimiterSlidingWindow(t *testing.T) {
	l := NewLocal(2, 100)
	now := time.Now()

	if v := l.Check(now); v != nil {
		t.Fatalf("expected no violation on first check, got %+v", v)
	}
	l.Record(now)
	l.Record(now)

	v := l.Check(now)
	if v == nil || v.Rule != "rate_per_minute" {
		t.Fatalf("expected rate_per_minute violation after 2 records with cap 2, got %+v", v)
	}
}

func TestLocalLimiterPrunesOldEntries(t *testing.T) {
	l := NewLocal(1, 100)
	old := time.Now().Add(-2 * time.Minute)
	l.Record(old)

	v := l.Check(time.Now())
	if v != nil {
		t.Fatalf("expected old entry to be pruned, got %+v", v)
	}
}
