package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/careerpath-backend/internal/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgSerialization       = "40001"
	pgDeadlock            = "40P01"
)

// Classify maps driver errors onto the storage error taxonomy:
// ErrNotFound, ErrConstraintViolation, ErrStorageUnavailable. Anything else is
// returned unchanged. The original error stays in the chain.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pkgerrors.ErrNotFound) ||
		errors.Is(err, pkgerrors.ErrConstraintViolation) ||
		errors.Is(err, pkgerrors.ErrStorageUnavailable) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", pkgerrors.ErrNotFound, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", pkgerrors.ErrConstraintViolation, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation, pgSerialization, pgDeadlock:
			return fmt.Errorf("%w: %w", pkgerrors.ErrConstraintViolation, err)
		}
		return err
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %w", pkgerrors.ErrStorageUnavailable, err)
	}
	if pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", pkgerrors.ErrStorageUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", pkgerrors.ErrStorageUnavailable, err)
	}

	// sqlite reports constraint failures as plain text
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "constraint failed") {
		return fmt.Errorf("%w: %w", pkgerrors.ErrConstraintViolation, err)
	}
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "sql: database is closed") {
		return fmt.Errorf("%w: %w", pkgerrors.ErrStorageUnavailable, err)
	}
	return err
}
