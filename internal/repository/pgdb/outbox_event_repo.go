package pgdb

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/catalog-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/catalog-backend/internal/usecase"
	"github.com/DRSN-tech/catalog-backend/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jimlawless/whereami"
)

// OutboxChannel — канал NOTIFY, по которому воркер узнаёт о новых событиях.
const OutboxChannel = "outbox_pending"

// staleProcessingAfter — через сколько событие в статусе processing снова считается
// доступным: воркер мог упасть, не отметив его.
const staleProcessingAfter = "1 minute"

type OutboxEventRepo struct {
	x    *postgres.Executor
	conv converter.OutboxEventConverter
}

func NewOutboxEventRepo(x *postgres.Executor, conv converter.OutboxEventConverter) *OutboxEventRepo {
	return &OutboxEventRepo{
		x:    x,
		conv: conv,
	}
}

func scanOutboxEvent(row pgx.CollectableRow) (*converter.OutboxEventModel, error) {
	var model converter.OutboxEventModel
	err := row.Scan(
		&model.ID,
		&model.EventID,
		&model.EventType,
		&model.ProductID,
		&model.Payload,
		&model.Status,
		&model.CreatedAt,
		&model.ProcessedAt,
	)
	return &model, err
}

// Create пишет событие в текущей транзакции и уведомляет воркер. NOTIFY доставляется
// только после коммита.
func (o *OutboxEventRepo) Create(ctx context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	const op = "OutboxEventRepo.Create"

	model := o.conv.ToModel(event)
	query := `
		INSERT INTO outbox_events (
			event_id,
			event_type,
			product_id,
			payload,
			status,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at;
	`

	type inserted struct {
		id        int64
		createdAt time.Time
	}

	row, err := postgres.QueryOne(ctx, o.x, op, query, []any{
		model.EventID,
		model.EventType,
		model.ProductID,
		model.Payload,
		model.Status,
		model.CreatedAt,
	}, func(row pgx.CollectableRow) (inserted, error) {
		var r inserted
		err := row.Scan(&r.id, &r.createdAt)
		return r, err
	})
	if err != nil {
		if postgresDuplicate(err) {
			return nil, fmt.Errorf("%s: event with id %s already exists", whereami.WhereAmI(), event.EventID)
		}
		return nil, err
	}
	model.ID, model.CreatedAt = row.id, row.createdAt

	if _, err := o.x.Exec(ctx, op, "NOTIFY "+OutboxChannel); err != nil {
		return nil, err
	}

	return o.conv.ToEntity(model), nil
}

// GetAndMarkAsProcessing забирает пачку ожидающих событий одним запросом. SKIP LOCKED
// не даёт двум воркерам взять одно событие.
func (o *OutboxEventRepo) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	const op = "OutboxEventRepo.GetAndMarkAsProcessing"

	query := `
		UPDATE outbox_events
		SET status = $1, processing_started_at = NOW()
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE status = $2
			   OR (status = $1 AND processing_started_at < NOW() - INTERVAL '` + staleProcessingAfter + `')
			ORDER BY created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, event_id::text, event_type, product_id, payload, status, created_at, processed_at
	`

	models, err := postgres.Query(ctx, o.x, op, query,
		[]any{string(usecase.Processing), string(usecase.Pending), limit}, scanOutboxEvent)
	if err != nil {
		return nil, err
	}

	return o.conv.ToArrEntity(models), nil
}

// MarkAsProcessed отмечает событие опубликованным. Повторная отметка ничего не меняет.
func (o *OutboxEventRepo) MarkAsProcessed(ctx context.Context, id int64) error {
	const op = "OutboxEventRepo.MarkAsProcessed"

	query := `
		UPDATE outbox_events
		SET status = $1, processed_at = NOW()
		WHERE id = $2 AND status = $3
	`

	_, err := o.x.Exec(ctx, op, query, string(usecase.Processed), id, string(usecase.Processing))
	return err
}
