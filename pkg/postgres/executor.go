package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
	"github.com/DRSN-tech/catalog-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier — общее подмножество пула и транзакции, достаточное для выполнения одного запроса.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Executor выполняет параметризованные запросы. Если в контексте есть транзакция,
// запрос идёт через неё, иначе — через пул.
type Executor struct {
	db     Querier
	logger logger.Logger
}

func NewExecutor(db Querier, logger logger.Logger) *Executor {
	return &Executor{db: db, logger: logger}
}

func (x *Executor) conn(ctx context.Context) Querier {
	if tx, err := tr.TxFromCtx(ctx); err == nil {
		return tx
	}

	return x.db
}

// Exec выполняет запрос без результата и возвращает число затронутых строк.
func (x *Executor) Exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	tag, err := x.conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, x.fail(op, query, err)
	}

	return tag.RowsAffected(), nil
}

func (x *Executor) fail(op, query string, err error) error {
	x.logger.Errorf(err, "%s: query failed: %s", op, compact(query))
	return e.Storage(op, err)
}

// Query выполняет запрос и отображает каждую строку функцией scan.
// Пустой результат — пустой срез, не nil.
func Query[T any](ctx context.Context, x *Executor, op, query string, args []any, scan pgx.RowToFunc[T]) ([]T, error) {
	rows, err := x.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, x.fail(op, query, err)
	}

	items, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, x.fail(op, query, err)
	}

	if items == nil {
		items = make([]T, 0)
	}

	return items, nil
}

// QueryOne возвращает первую строку результата. Отсутствие строк — e.ErrNoRows,
// это не ошибка хранилища.
func QueryOne[T any](ctx context.Context, x *Executor, op, query string, args []any, scan pgx.RowToFunc[T]) (T, error) {
	var zero T

	rows, err := x.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return zero, x.fail(op, query, err)
	}

	item, err := pgx.CollectOneRow(rows, scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, e.ErrNoRows
		}
		return zero, x.fail(op, query, err)
	}

	return item, nil
}

// compact схлопывает пробелы многострочного запроса для лога.
func compact(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
