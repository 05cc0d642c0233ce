package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestKindMappings(t *testing.T) {
	tests := []struct {
		err        *AppError
		wantStatus int
		wantCode   codes.Code
	}{
		{BadRequest("order has no items"), http.StatusBadRequest, codes.InvalidArgument},
		{Forbidden("role may not place orders"), http.StatusForbidden, codes.PermissionDenied},
		{Conflict("invalid status transition"), http.StatusConflict, codes.AlreadyExists},
		{NotFound("order not found"), http.StatusNotFound, codes.NotFound},
		{Unprocessable("unusable order"), http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{Internal("boom"), http.StatusInternalServerError, codes.Internal},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Kind()), func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode())
			assert.Equal(t, tt.wantCode, tt.err.GRPCCode())
		})
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection refused")
	appErr := From(fmt.Errorf("writing order: %w", cause))

	require.NotNil(t, appErr)
	assert.Equal(t, KindInternal, appErr.Kind())
	assert.ErrorIs(t, appErr, cause)
}

func TestFromPreservesAppErrors(t *testing.T) {
	orig := NotFound("order not found", WithDetail("id", "o-1"))
	wrapped := fmt.Errorf("service: %w", error(orig))

	got := From(wrapped)
	assert.Equal(t, KindNotFound, got.Kind())
	assert.Equal(t, "o-1", got.Details()["id"])
}

func TestDetailsAndCause(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Conflict("order status changed concurrently",
		WithDetail("from", "pending"),
		WithDetails(map[string]any{"to": "confirmed"}),
		WithCause(cause),
	)

	assert.Equal(t, "pending", err.Details()["from"])
	assert.Equal(t, "confirmed", err.Details()["to"])
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestEmptyMessageFallsBackToKind(t *testing.T) {
	err := New(KindBadRequest, "")
	assert.Equal(t, string(KindBadRequest), err.Message())
}
