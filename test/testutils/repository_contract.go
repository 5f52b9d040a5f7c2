package testutils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holidaytable/planner/internal/ports/outbound"
)

// RunStateRepositoryContract checks the behaviour every state store backend shares
func RunStateRepositoryContract(t *testing.T, repo outbound.StateRepository) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_EmptySlot_ShouldReturnNotFound", func(t *testing.T) {
		blob, err := repo.Load(ctx, "missing_key")

		assert.ErrorIs(t, err, outbound.ErrStateNotFound)
		assert.Nil(t, blob)
	})

	t.Run("Save_ThenLoad_ShouldRoundTrip", func(t *testing.T) {
		payload := []byte(`{"peopleCount":6,"eventDays":2,"drinks":[],"menu":[],"prices":{}}`)

		require.NoError(t, repo.Save(ctx, "roundtrip", payload))
		got, err := repo.Load(ctx, "roundtrip")

		require.NoError(t, err)
		assert.JSONEq(t, string(payload), string(got))
	})

	t.Run("Save_Twice_ShouldOverwrite", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "overwrite", []byte(`{"peopleCount":1}`)))
		require.NoError(t, repo.Save(ctx, "overwrite", []byte(`{"peopleCount":2}`)))

		got, err := repo.Load(ctx, "overwrite")

		require.NoError(t, err)
		assert.JSONEq(t, `{"peopleCount":2}`, string(got))
	})

	t.Run("Keys_ShouldBeIndependent", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "slot_a", []byte(`{"a":1}`)))
		require.NoError(t, repo.Save(ctx, "slot_b", []byte(`{"b":2}`)))

		a, err := repo.Load(ctx, "slot_a")
		require.NoError(t, err)
		b, err := repo.Load(ctx, "slot_b")
		require.NoError(t, err)

		assert.JSONEq(t, `{"a":1}`, string(a))
		assert.JSONEq(t, `{"b":2}`, string(b))
	})

	t.Run("Ping_ShouldSucceed", func(t *testing.T) {
		hc, ok := repo.(outbound.HealthChecker)
		if !ok {
			t.Skip("repository has no health check")
		}
		assert.NoError(t, hc.Ping(ctx))
	})
}
