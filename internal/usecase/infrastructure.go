package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/DRSN-tech/catalog-backend/internal/domain"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
)

// TxManager выполняет единицу работы в одной транзакции.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

// EventRecorder фиксирует факт изменения продукта в той же транзакции, что и само изменение.
type EventRecorder interface {
	Record(ctx context.Context, eventType OutboxEventType, product *domain.Product) error
}

// OutboxRecorder пишет события в таблицу outbox_events.
type OutboxRecorder struct {
	repo OutboxRepository
	now  func() time.Time
}

func NewOutboxRecorder(repo OutboxRepository) *OutboxRecorder {
	return &OutboxRecorder{repo: repo, now: time.Now}
}

func (r *OutboxRecorder) Record(ctx context.Context, eventType OutboxEventType, product *domain.Product) error {
	eventID := uuid.NewString()
	occurredAt := r.now().UTC()

	payload, err := json.Marshal(ProductEventPayload{
		EventID:    eventID,
		EventType:  eventType,
		OccurredAt: occurredAt,
		Product:    *product,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if _, err := r.repo.Create(ctx, NewOutboxEvent(eventID, eventType, product.ID, payload, occurredAt)); err != nil {
		return err
	}

	return nil
}

// NopRecorder используется, когда публикация событий выключена.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, OutboxEventType, *domain.Product) error {
	return nil
}
