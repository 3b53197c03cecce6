package tr

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
)

type txKey struct{}

// WithTx кладёт транзакцию в контекст.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromCtx извлекает объект транзакции (pgx.Tx) из контекста
func TxFromCtx(ctx context.Context) (pgx.Tx, error) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return nil, e.ErrTransactionNotFound
	}
	return tx, nil
}

// Coordinator выполняет единицу работы в транзакции на выделенном соединении.
type Coordinator struct {
	db     transaction.Transactional
	logger logger.Logger
}

func NewCoordinator(db transaction.Transactional, logger logger.Logger) *Coordinator {
	return &Coordinator{db: db, logger: logger}
}

// RunInTx открывает транзакцию, передаёт fn контекст с ней и фиксирует её при успехе.
// Ошибка fn откатывает транзакцию и возвращается без изменений; паника откатывает
// транзакцию и пробрасывается дальше. Если в ctx уже есть транзакция, fn выполняется в ней.
func (c *Coordinator) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	const op = "Coordinator.RunInTx"

	if _, txErr := TxFromCtx(ctx); txErr == nil {
		return fn(ctx)
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, c.db)
	if err != nil {
		c.logger.Errorf(err, "%s: failed to begin transaction", op)
		return e.Storage(op, err)
	}

	// Соединение возвращается в пул при Commit или Rollback, поэтому каждый путь выхода
	// обязан завершить транзакцию.
	defer func() {
		if p := recover(); p != nil {
			c.rollback(ctx, tx, fmt.Errorf("panic: %v", p))
			panic(p)
		}
		if err != nil {
			c.rollback(ctx, tx, err)
		}
	}()

	pgxTx, ok := tx.Transaction().(pgx.Tx)
	if !ok {
		err = e.Storage(op, e.ErrTransactionNotFound)
		return err
	}

	if err = fn(WithTx(ctx, pgxTx)); err != nil {
		return err
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		c.logger.Errorf(commitErr, "%s: failed to commit transaction", op)
		err = e.Storage(op, commitErr)
		return err
	}

	return nil
}

func (c *Coordinator) rollback(ctx context.Context, tx *transaction.Transaction, cause error) {
	if !tx.IsActive() {
		return
	}

	if err := tx.Rollback(ctx); err != nil {
		c.logger.Errorf(err, "transaction rollback failed (cause: %v)", cause)
		return
	}

	c.logger.Debugf("transaction rolled back: %v", cause)
}

// Runner выполняет fn в транзакции. Реализуется Coordinator.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// InTx — вариант RunInTx, возвращающий результат единицы работы.
func InTx[T any](ctx context.Context, r Runner, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}
