package kafka

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/catalog-backend/internal/cfg"
	"github.com/DRSN-tech/catalog-backend/internal/repository/pgdb"
	"github.com/DRSN-tech/catalog-backend/internal/usecase"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/DRSN-tech/catalog-backend/pkg/jitter"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
	"github.com/jackc/pgx/v5"
)

const (
	notificationWait = 30 * time.Second
	reconnectBase    = 500 * time.Millisecond
	reconnectMax     = 30 * time.Second
)

// OutboxWorker переносит события из outbox_events в Kafka. Будится по NOTIFY,
// а периодический опрос подбирает то, что пропущено или зависло в processing.
type OutboxWorker struct {
	repo      usecase.OutboxRepository
	producer  usecase.MessageProducer
	logger    logger.Logger
	cfg       *cfg.OutboxCfg
	dbConnStr string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOutboxWorker создаёт воркер. При пустом dbConnStr LISTEN не используется,
// остаётся только опрос.
func NewOutboxWorker(
	repo usecase.OutboxRepository,
	producer usecase.MessageProducer,
	cfg *cfg.OutboxCfg,
	dbConnStr string,
	logger logger.Logger,
) *OutboxWorker {
	return &OutboxWorker{
		repo:      repo,
		producer:  producer,
		logger:    logger,
		cfg:       cfg,
		dbConnStr: dbConnStr,
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	if w.dbConnStr == "" {
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.listenOutboxNotifications(ctx)
	}()
}

// Stop останавливает воркер и ждёт завершения текущей пачки.
func (w *OutboxWorker) Stop(_ context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	return nil
}

func (w *OutboxWorker) run(ctx context.Context) {
	// Остатки с прошлого запуска
	w.logger.Infof("Draining pending outbox events on startup...")
	w.drain(ctx)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("Outbox worker stopped")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *OutboxWorker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		hasMore, err := w.processBatch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Warnf("Outbox batch failed: %v", err)
			}
			return
		}
		if !hasMore {
			return
		}
	}
}

func (w *OutboxWorker) listenOutboxNotifications(ctx context.Context) {
	for attempt := 0; ctx.Err() == nil; attempt++ {
		err := w.listen(ctx, func() { attempt = 0 })
		if ctx.Err() != nil {
			return
		}

		delay := jitter.ExponentialBackoff(reconnectBase, reconnectMax, attempt, jitter.DefaultJitter)
		w.logger.Warnf("LISTEN %s lost: %v. Reconnecting in %s", pgdb.OutboxChannel, err, delay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// listen держит отдельное соединение с LISTEN и разбирает outbox на каждое уведомление.
// Возвращается только при ошибке соединения или отмене ctx.
func (w *OutboxWorker) listen(ctx context.Context, onConnected func()) error {
	conn, err := pgx.Connect(ctx, w.dbConnStr)
	if err != nil {
		return e.Wrap("failed to connect for LISTEN", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	if _, err := conn.Exec(ctx, "LISTEN "+pgdb.OutboxChannel); err != nil {
		return e.Wrap("failed to LISTEN", err)
	}

	onConnected()
	w.logger.Infof("Subscribed to '%s' channel", pgdb.OutboxChannel)

	for {
		waitCtx, cancel := context.WithTimeout(ctx, notificationWait)
		notif, err := conn.WaitForNotification(waitCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			return err
		}

		if notif.Channel == pgdb.OutboxChannel {
			w.logger.Debugf("Received outbox notification, draining outbox events")
			w.drain(ctx)
		}
	}
}

// processBatch публикует одну пачку. Неотправленные события остаются в processing
// и возвращаются в очередь после таймаута.
func (w *OutboxWorker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, w.cfg.BatchSize)
	if err != nil {
		return false, err
	}

	if len(events) == 0 {
		return false, nil
	}

	for _, event := range events {
		if err := w.processEvent(ctx, event); err != nil {
			w.logger.Warnf("Outbox event %s for product %d not published: %v", event.EventID, event.ProductID, err)
			continue
		}
		if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
			w.logger.Warnf("mark processed failed: %v", err)
		}
	}

	return len(events) == w.cfg.BatchSize, nil
}

func (w *OutboxWorker) processEvent(ctx context.Context, event *usecase.OutboxEvent) error {
	req := usecase.NewWriteRawMessageReq(event.ProductID, event.EventType, event.Payload)
	if err := w.producer.WriteRawMessage(ctx, req); err != nil {
		if isRetryableError(err) {
			return e.Wrap("Temporary Kafka failure, will retry", err)
		}
		return e.Wrap("Permanent Kafka failure", err)
	}
	return nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}
