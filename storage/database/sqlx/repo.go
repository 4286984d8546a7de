// Package sqlxrepos implements the repositories over Postgres with sqlx.
package sqlxrepos

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// uniqueViolation is the Postgres error code of a unique constraint violation.
const uniqueViolation = "23505"

// trapNoRowsErr maps "no rows" to notFound and wraps any other error with msg.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// isUniqueViolation reports whether err was raised by a unique constraint.
func isUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}

// validID reports whether id can be compared to a uuid column; Postgres rejects anything else.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// checkAffected returns notFound when res changed no row.
func checkAffected(res sql.Result, notFound error, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
