package sqlite

import (
	"fmt"
	"strings"

	"github.com/rpggio/photobook/internal/repository"
)

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// mapError tags driver errors with the repository error they stand for.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: %w", repository.ErrForeignKeyViolation, err)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %w", repository.ErrDuplicate, err)
	case isBusy(err):
		return fmt.Errorf("%w: %w", repository.ErrTransient, err)
	default:
		return err
	}
}
