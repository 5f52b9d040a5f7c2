package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"validation", NewValidationError("dish name is required"), http.StatusBadRequest},
		{"not found", NewNotFoundError("drink", "absinthe"), http.StatusNotFound},
		{"missing credential", NewMissingCredentialError("gemini"), http.StatusServiceUnavailable},
		{"decode", NewAIDecodeError("generate_recipe", fmt.Errorf("bad json")), http.StatusBadGateway},
		{"empty reply", NewAIEmptyReplyError("generate_recipe"), http.StatusBadGateway},
		{"persist", NewStatePersistError("holiday_table_app_v1", fmt.Errorf("disk full")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestIs_SeesThroughWrapping(t *testing.T) {
	base := NewMissingCredentialError("gemini")
	wrapped := fmt.Errorf("suggest dish: %w", base)

	assert.True(t, Is(wrapped, CodeMissingCredential))
	assert.Equal(t, CodeMissingCredential, GetCode(wrapped))
	assert.False(t, Is(stderrors.New("plain"), CodeMissingCredential))
	assert.Equal(t, CodeInternal, GetCode(stderrors.New("plain")))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))

	appErr := NewValidationError("x")
	assert.Same(t, appErr, Wrap(appErr, "ignored"))

	cause := stderrors.New("boom")
	wrapped := Wrap(cause, "save failed")
	require.NotNil(t, wrapped)
	assert.Equal(t, CodeInternal, wrapped.Code)
	assert.ErrorIs(t, wrapped, cause)
}

func TestToErrorResponse(t *testing.T) {
	resp := ToErrorResponse(NewNotFoundError("dish", "d-1"), "req-42")

	assert.Equal(t, CodeNotFound, resp.Error.Code)
	assert.Equal(t, "req-42", resp.Error.RequestID)
	assert.Equal(t, "d-1", resp.Error.Metadata["id"])
	assert.NotEmpty(t, resp.Error.Timestamp)
}
