package pgdb

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation — SQLSTATE нарушения уникального индекса.
const uniqueViolation = "23505"

func postgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
