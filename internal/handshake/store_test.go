package handshake

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_PutTake(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, "rt-1", "secret-1"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	secret, err := s.Take(ctx, "rt-1")
	if err != nil {
		t.Fatalf("Take error: %v", err)
	}
	if secret != "secret-1" {
		t.Fatalf("unexpected secret: %q", secret)
	}

	// single use: a second take finds nothing
	secret2, err := s.Take(ctx, "rt-1")
	if err != nil || secret2 != "" {
		t.Fatalf("expected empty on reuse, got %q, %v", secret2, err)
	}
}

func TestMemoryStore_UnknownToken(t *testing.T) {
	s := NewMemoryStore()
	secret, err := s.Take(context.Background(), "never-issued")
	if err != nil || secret != "" {
		t.Fatalf("expected empty for unknown token, got %q, %v", secret, err)
	}
}

func TestMemoryStore_ConcurrentHandshakes(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	// two in-flight logins must not clobber each other
	if err := s.Put(ctx, "rt-a", "secret-a"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := s.Put(ctx, "rt-b", "secret-b"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if got, _ := s.Take(ctx, "rt-b"); got != "secret-b" {
		t.Fatalf("unexpected secret for rt-b: %q", got)
	}
	if got, _ := s.Take(ctx, "rt-a"); got != "secret-a" {
		t.Fatalf("unexpected secret for rt-a: %q", got)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore()
	s.ttl = 10 * time.Millisecond
	ctx := context.Background()

	if err := s.Put(ctx, "rt-exp", "secret"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if got, _ := s.Take(ctx, "rt-exp"); got != "" {
		t.Fatalf("expected expired entry to be gone, got %q", got)
	}
}
