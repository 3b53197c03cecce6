package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/catalog-backend/internal/cfg"
	"github.com/DRSN-tech/catalog-backend/internal/usecase"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
)

type fakeOutboxRepo struct {
	mu        sync.Mutex
	pending   []*usecase.OutboxEvent
	processed []int64
	fetchErr  error
}

func (r *fakeOutboxRepo) Create(_ context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = int64(len(r.pending) + len(r.processed) + 1)
	r.pending = append(r.pending, event)
	return event, nil
}

func (r *fakeOutboxRepo) GetAndMarkAsProcessing(_ context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}

	var batch []*usecase.OutboxEvent
	for _, ev := range r.pending {
		if ev.Status != usecase.Pending {
			continue
		}
		ev.Status = usecase.Processing
		batch = append(batch, ev)
		if len(batch) == limit {
			break
		}
	}
	return batch, nil
}

func (r *fakeOutboxRepo) MarkAsProcessed(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.pending {
		if ev.ID == id {
			ev.Status = usecase.Processed
			r.processed = append(r.processed, id)
		}
	}
	return nil
}

func (r *fakeOutboxRepo) processedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.processed)
}

type fakeProducer struct {
	mu     sync.Mutex
	sent   []*usecase.WriteRawMessageReq
	failOn map[int64]error
}

func (p *fakeProducer) WriteRawMessage(_ context.Context, req *usecase.WriteRawMessageReq) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failOn[req.ProductID]; err != nil {
		return err
	}
	p.sent = append(p.sent, req)
	return nil
}

func seed(repo *fakeOutboxRepo, productIDs ...int64) {
	for _, id := range productIDs {
		_, _ = repo.Create(context.Background(), usecase.NewOutboxEvent("ev", usecase.ProductCreated, id, []byte(`{}`), time.Now()))
	}
}

func newTestWorker(repo *fakeOutboxRepo, producer *fakeProducer, batch int) *OutboxWorker {
	return NewOutboxWorker(repo, producer, &cfg.OutboxCfg{PollInterval: 10 * time.Millisecond, BatchSize: batch}, "", logger.Nop())
}

func TestDrainPublishesEverythingAcrossBatches(t *testing.T) {
	repo := &fakeOutboxRepo{}
	producer := &fakeProducer{}
	seed(repo, 1, 2, 3, 4, 5)

	w := newTestWorker(repo, producer, 2)
	w.drain(context.Background())

	if got := repo.processedCount(); got != 5 {
		t.Fatalf("processed = %d, want 5", got)
	}
	for i, req := range producer.sent {
		if req.ProductID != int64(i+1) {
			t.Errorf("message %d: product %d, want %d", i, req.ProductID, i+1)
		}
		if req.EventType != usecase.ProductCreated {
			t.Errorf("message %d: event type %q", i, req.EventType)
		}
	}
}

func TestFailedEventStaysInProcessing(t *testing.T) {
	repo := &fakeOutboxRepo{}
	producer := &fakeProducer{failOn: map[int64]error{2: errors.New("dial tcp: connection refused")}}
	seed(repo, 1, 2, 3)

	w := newTestWorker(repo, producer, 10)
	w.drain(context.Background())

	if got := repo.processedCount(); got != 2 {
		t.Fatalf("processed = %d, want 2", got)
	}
	if repo.pending[1].Status != usecase.Processing {
		t.Errorf("failed event status = %q, want processing", repo.pending[1].Status)
	}
}

func TestDrainStopsOnFetchError(t *testing.T) {
	repo := &fakeOutboxRepo{fetchErr: errors.New("db down")}
	w := newTestWorker(repo, &fakeProducer{}, 10)

	hasMore, err := w.processBatch(context.Background())
	if err == nil || hasMore {
		t.Fatalf("processBatch = (%v, %v), want error and no more", hasMore, err)
	}

	w.drain(context.Background())
}

func TestStartPollsUntilStopped(t *testing.T) {
	repo := &fakeOutboxRepo{}
	producer := &fakeProducer{}
	w := newTestWorker(repo, producer, 10)

	w.Start(context.Background())
	seed(repo, 7)

	deadline := time.Now().Add(2 * time.Second)
	for repo.processedCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if repo.processedCount() != 1 {
		t.Fatalf("event published by poll loop: got %d", repo.processedCount())
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"refused", errors.New("dial tcp 127.0.0.1:9092: Connection Refused"), true},
		{"timeout", errors.New("read: i/o timeout"), true},
		{"broker", errors.New("[8] Broker Not Available"), true},
		{"permanent", errors.New("message too large"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestToMessageCarriesKeyAndEventType(t *testing.T) {
	msg := toMessage(usecase.NewWriteRawMessageReq(42, usecase.ProductDeleted, []byte(`{"id":42}`)))

	if string(msg.Key) != "42" {
		t.Errorf("key = %q, want 42", msg.Key)
	}
	if len(msg.Headers) != 1 || msg.Headers[0].Key != EventTypeHeader || string(msg.Headers[0].Value) != "product.deleted" {
		t.Errorf("headers = %+v", msg.Headers)
	}
}
