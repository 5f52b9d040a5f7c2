package testutils

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holidaytable/planner/internal/domain/planner"
	apperrors "github.com/holidaytable/planner/pkg/errors"
)

// StateAssertions provides planner state assertion helpers
type StateAssertions struct {
	t *testing.T
}

// NewStateAssertions creates new state assertions
func NewStateAssertions(t *testing.T) *StateAssertions {
	return &StateAssertions{t: t}
}

// Invariants checks the properties every reachable state must hold
func (sa *StateAssertions) Invariants(s planner.AppState, msgAndArgs ...interface{}) {
	sa.t.Helper()
	assert.GreaterOrEqual(sa.t, s.PeopleCount, 1, msgAndArgs...)
	assert.GreaterOrEqual(sa.t, s.EventDays, 1, msgAndArgs...)

	seenDrinks := make(map[string]bool)
	for _, d := range s.Drinks {
		assert.False(sa.t, seenDrinks[d.ID], "duplicate drink %s", d.ID)
		assert.Greater(sa.t, d.Count, 0, "drink %s has non-positive count", d.ID)
		seenDrinks[d.ID] = true
	}

	seenDishes := make(map[string]bool)
	for _, d := range s.Menu {
		assert.False(sa.t, seenDishes[d.ID], "duplicate dish %s", d.ID)
		assert.NoError(sa.t, d.Validate(), msgAndArgs...)
		seenDishes[d.ID] = true
	}

	for name, p := range s.Prices {
		assert.Greater(sa.t, p, 0.0, "price for %s must be positive", name)
	}
}

// MenuNames asserts the menu holds exactly the named dishes in order
func (sa *StateAssertions) MenuNames(s planner.AppState, names ...string) {
	sa.t.Helper()
	got := make([]string, 0, len(s.Menu))
	for _, d := range s.Menu {
		got = append(got, d.Name)
	}
	assert.Equal(sa.t, names, got)
}

// HTTPAssertions provides HTTP response assertion helpers
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates new HTTP assertions
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// JSONBody decodes the recorded body into target
func (ha *HTTPAssertions) JSONBody(body []byte, target interface{}) {
	ha.t.Helper()
	require.NoError(ha.t, json.Unmarshal(body, target), "response body: %s", string(body))
}

// ErrorCode asserts an error response with the given status and code
func (ha *HTTPAssertions) ErrorCode(status int, body []byte, wantStatus int, wantCode apperrors.ErrorCode) {
	ha.t.Helper()
	assert.Equal(ha.t, wantStatus, status, "response body: %s", string(body))

	var resp apperrors.ErrorResponse
	ha.JSONBody(body, &resp)
	assert.Equal(ha.t, wantCode, resp.Error.Code)
}

// Header asserts that a header has the expected value
func (ha *HTTPAssertions) Header(h http.Header, name, expected string) {
	ha.t.Helper()
	assert.Equal(ha.t, expected, h.Get(name), "header %s", name)
}
