package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type memStorage struct {
	mu      sync.Mutex
	batches int
	events  []Event
}

func (m *memStorage) WriteBatch(_ context.Context, events []Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
	m.events = append(m.events, events...)
	return nil
}

func (m *memStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func TestTrailFlushesEverythingOnStop(t *testing.T) {
	storage := &memStorage{}
	trail := NewTrail(storage, zap.NewNop(), 64, time.Hour)
	trail.Start()

	for i := 0; i < 10; i++ {
		trail.Log(Event{ID: "e", Operation: "card.read", Allowed: i%2 == 0})
	}
	trail.Stop()

	// Интервал flush намеренно огромный: всё должно дойти через drain на Stop
	if storage.count() != 10 {
		t.Fatalf("flushed %d events, want 10", storage.count())
	}
}

func TestTrailFlushesFullBatches(t *testing.T) {
	storage := &memStorage{}
	trail := NewTrail(storage, zap.NewNop(), 512, time.Hour)
	trail.Start()

	// Больше одного батча: воркер обязан сбрасывать по лимиту, не дожидаясь тикера
	for i := 0; i < batchLimit+5; i++ {
		trail.Log(Event{ID: "e", Operation: "card.list", Allowed: true})
	}

	deadline := time.After(2 * time.Second)
	for storage.count() < batchLimit {
		select {
		case <-deadline:
			t.Fatalf("batch flush did not happen, stored %d", storage.count())
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}

	trail.Stop()
	if storage.count() != batchLimit+5 {
		t.Fatalf("stored %d events, want %d", storage.count(), batchLimit+5)
	}
}

func TestTrailSetsTimestamp(t *testing.T) {
	storage := &memStorage{}
	trail := NewTrail(storage, zap.NewNop(), 8, time.Hour)
	trail.Start()

	trail.Log(Event{ID: "e", Operation: "user.delete", Allowed: false, Reason: "Access denied"})
	trail.Stop()

	if storage.count() != 1 {
		t.Fatalf("stored %d events", storage.count())
	}
	if storage.events[0].Timestamp.IsZero() {
		t.Error("timestamp must be filled on Log")
	}
}

func TestTrailDropsAfterStop(t *testing.T) {
	storage := &memStorage{}
	trail := NewTrail(storage, zap.NewNop(), 8, time.Hour)
	trail.Start()
	trail.Stop()

	// Не должно паниковать записью в закрытый канал
	trail.Log(Event{ID: "late", Operation: "card.read", Allowed: true})

	if storage.count() != 0 {
		t.Fatalf("stored %d events, want 0", storage.count())
	}
}
