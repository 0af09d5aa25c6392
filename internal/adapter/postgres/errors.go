package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/lib/pq"
)

// mapError turns driver errors into domain errors. what names the record, e.g. "bike".
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s not found", domain.ErrNotFound, what)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23502":
			return fmt.Errorf("%w: required field is missing", domain.ErrValidation)
		case "23503":
			return fmt.Errorf("%w: referenced record does not exist", domain.ErrValidation)
		case "23505":
			return fmt.Errorf("%w: %s already exists", domain.ErrConflict, what)
		case "23514":
			return fmt.Errorf("%w: %s violates constraint %s", domain.ErrValidation, what, pqErr.Constraint)
		}
	}
	return err
}
