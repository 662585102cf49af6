package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/careerpath-backend/internal/pkg/errors"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"record not found", gorm.ErrRecordNotFound, pkgerrors.ErrNotFound},
		{"duplicated key", gorm.ErrDuplicatedKey, pkgerrors.ErrConstraintViolation},
		{"pg unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), pkgerrors.ErrConstraintViolation},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, pkgerrors.ErrConstraintViolation},
		{"deadline", context.DeadlineExceeded, pkgerrors.ErrStorageUnavailable},
		{"sqlite unique", errors.New("UNIQUE constraint failed: user_career.user_id, user_career.career_id"), pkgerrors.ErrConstraintViolation},
		{"sqlite locked", errors.New("database is locked"), pkgerrors.ErrStorageUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.in)
			if !errors.Is(got, tc.want) {
				t.Fatalf("Classify(%v) = %v, want %v", tc.in, got, tc.want)
			}
			if !errors.Is(got, tc.in) {
				t.Fatalf("Classify dropped the original error from the chain")
			}
		})
	}

	if Classify(nil) != nil {
		t.Fatalf("Classify(nil) should be nil")
	}
	plain := errors.New("syntax error")
	if got := Classify(plain); got != plain {
		t.Fatalf("unclassified errors must pass through unchanged, got %v", got)
	}
	if got := Classify(&pgconn.PgError{Code: "42601"}); errors.Is(got, pkgerrors.ErrConstraintViolation) {
		t.Fatalf("syntax errors must not be classified as constraint violations")
	}
}
