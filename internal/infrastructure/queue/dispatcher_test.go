package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/secretsapp/secrets-api/internal/core/domain"
)

type recordingAudit struct {
	mu     sync.Mutex
	events []domain.AuthEvent
	done   chan struct{}
	want   int
}

func newRecordingAudit(want int) *recordingAudit {
	return &recordingAudit{done: make(chan struct{}), want: want}
}

func (r *recordingAudit) Process(_ context.Context, event domain.AuthEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	if len(r.events) == r.want {
		close(r.done)
	}
	return nil
}

func TestDispatcher_DeliversAllEvents(t *testing.T) {
	audit := newRecordingAudit(3)
	d := NewDispatcher(4, audit, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(domain.AuthEvent{Type: domain.EventRegistered, Identifier: "a@example.com"})
	d.Enqueue(domain.AuthEvent{Type: domain.EventLoginSucceeded, Identifier: "b@example.com"})
	d.Enqueue(domain.AuthEvent{Type: domain.EventLoggedOut, Identifier: "c@example.com"})

	select {
	case <-audit.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for events, got %d", len(audit.events))
	}
}

func TestDispatcher_SameIdentifierKeepsOrder(t *testing.T) {
	audit := newRecordingAudit(3)
	d := NewDispatcher(4, audit, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	// All three shard to the same worker, so arrival order is preserved.
	d.Enqueue(domain.AuthEvent{Type: domain.EventRegistered, Identifier: "a@example.com"})
	d.Enqueue(domain.AuthEvent{Type: domain.EventLoginRejected, Identifier: "a@example.com"})
	d.Enqueue(domain.AuthEvent{Type: domain.EventLoginSucceeded, Identifier: "a@example.com"})

	select {
	case <-audit.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for events")
	}

	audit.mu.Lock()
	defer audit.mu.Unlock()
	wantOrder := []domain.AuthEventType{domain.EventRegistered, domain.EventLoginRejected, domain.EventLoginSucceeded}
	for i, want := range wantOrder {
		if audit.events[i].Type != want {
			t.Fatalf("event %d: expected %s, got %s", i, want, audit.events[i].Type)
		}
	}
}

func TestDispatcher_ShardIsDeterministic(t *testing.T) {
	d := NewDispatcher(8, newRecordingAudit(0), zerolog.Nop())
	first := d.shardIndex("alice@example.com")
	for i := 0; i < 10; i++ {
		if got := d.shardIndex("alice@example.com"); got != first {
			t.Fatalf("shard index not deterministic: %d vs %d", first, got)
		}
	}
}
