package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	pkgerrors "github.com/yungbote/careerpath-backend/internal/pkg/errors"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("career %w", pkgerrors.ErrNotFound), http.StatusNotFound, "not_found"},
		{fmt.Errorf("x: %w", pkgerrors.ErrInvalidArgument), http.StatusBadRequest, "invalid_argument"},
		{pkgerrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{pkgerrors.ErrForbidden, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("upsert: %w", pkgerrors.ErrConstraintViolation), http.StatusConflict, "conflict"},
		{fmt.Errorf("ping: %w", pkgerrors.ErrStorageUnavailable), http.StatusServiceUnavailable, "unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "load_failed"},
		{fmt.Errorf("wrapped: %w", New(http.StatusTeapot, "teapot", nil)), http.StatusTeapot, "teapot"},
	}
	for _, tc := range cases {
		got := FromError(tc.err, "load_failed")
		if got.Status != tc.status || got.Code != tc.code {
			t.Fatalf("FromError(%v): got=%d/%s want=%d/%s", tc.err, got.Status, got.Code, tc.status, tc.code)
		}
	}
}
