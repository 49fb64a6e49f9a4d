// package repositories provides persistence layer implementations for all model types.
//
// Each repository wraps a [sql.DB] opened by [shared.NewDatabase] with migrations applied.
package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/statify/internal/shared"
)

// affectedOne converts an Exec result into [shared.ErrNotFound] when no row matched.
func affectedOne(result sql.Result, what, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %s", shared.ErrNotFound, what, id)
	}
	return nil
}
