package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
	"github.com/DRSN-tech/catalog-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

type idName struct {
	ID   int64
	Name string
}

func scanIDName(row pgx.CollectableRow) (idName, error) {
	var v idName
	err := row.Scan(&v.ID, &v.Name)
	return v, err
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestQueryCollectsRows(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("SELECT id, name FROM categories").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "Books").
			AddRow(int64(2), "Games"))

	x := NewExecutor(mock, logger.Nop())
	got, err := Query(context.Background(), x, "test", "SELECT id, name FROM categories", nil, scanIDName)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if len(got) != 2 || got[1].Name != "Games" {
		t.Errorf("unexpected rows: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestQueryEmptyResultIsEmptySlice(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("SELECT id, name FROM categories").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}))

	x := NewExecutor(mock, logger.Nop())
	got, err := Query(context.Background(), x, "test", "SELECT id, name FROM categories", nil, scanIDName)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestQueryDriverErrorIsStorage(t *testing.T) {
	mock := newMock(t)
	driverErr := errors.New("relation \"categories\" does not exist")
	mock.ExpectQuery("SELECT id, name FROM categories").WillReturnError(driverErr)

	x := NewExecutor(mock, logger.Nop())
	_, err := Query(context.Background(), x, "categories.list", "SELECT id, name FROM categories", nil, scanIDName)

	if !e.Is(err, e.KindStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if !errors.Is(err, driverErr) {
		t.Error("expected driver error in chain")
	}
}

func TestQueryOneNoRows(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("SELECT id, name FROM categories WHERE id = \\$1").
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}))

	x := NewExecutor(mock, logger.Nop())
	_, err := QueryOne(context.Background(), x, "test", "SELECT id, name FROM categories WHERE id = $1", []any{int64(5)}, scanIDName)

	if !errors.Is(err, e.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
	if e.Is(err, e.KindStorage) {
		t.Error("no rows must not be a storage error")
	}
}

func TestExecReturnsRowsAffected(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("DELETE FROM products WHERE id = \\$1").
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	x := NewExecutor(mock, logger.Nop())
	n, err := x.Exec(context.Background(), "test", "DELETE FROM products WHERE id = $1", int64(3))
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if n != 1 {
		t.Errorf("rows affected = %d, want 1", n)
	}
}

func TestExecutorUsesTransactionFromContext(t *testing.T) {
	pool := newMock(t)
	txMock := newMock(t)

	txMock.ExpectBegin()
	txMock.ExpectExec("UPDATE products").
		WithArgs("x", int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	txMock.ExpectCommit()

	coord := tr.NewCoordinator(txMock, logger.Nop())
	x := NewExecutor(pool, logger.Nop())

	err := coord.RunInTx(context.Background(), func(ctx context.Context) error {
		_, err := x.Exec(ctx, "test", "UPDATE products SET title = $1 WHERE id = $2", "x", int64(1))
		return err
	})
	if err != nil {
		t.Fatalf("RunInTx: %v", err)
	}

	if err := txMock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
	if err := pool.ExpectationsWereMet(); err != nil {
		t.Errorf("pool must not be used inside a transaction: %v", err)
	}
}

func TestCompact(t *testing.T) {
	got := compact("\n\t\tSELECT id,\n\t\t  name FROM categories\n")
	if got != "SELECT id, name FROM categories" {
		t.Errorf("compact() = %q", got)
	}
}
