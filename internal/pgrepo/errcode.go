package pgrepo

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgxErrCode extracts the PostgreSQL SQLSTATE code from err, or "" if err
// does not wrap a *pgconn.PgError (e.g. "23505" unique_violation,
// "23503" foreign_key_violation).
func pgxErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
