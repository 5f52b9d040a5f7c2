package gorm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gormrepo "github.com/holidaytable/planner/internal/infrastructure/persistence/gorm"
	"github.com/holidaytable/planner/test/testutils"
)

func newRepository(t *testing.T) *gormrepo.StateRepository {
	db := testutils.NewSQLiteTestDB(t)
	require.NoError(t, gormrepo.Migrate(db))
	return gormrepo.NewStateRepository(db)
}

func TestStateRepository_Contract(t *testing.T) {
	testutils.RunStateRepositoryContract(t, newRepository(t))
}

func TestStateRepository_Upsert_ShouldKeepOneRow(t *testing.T) {
	db := testutils.NewSQLiteTestDB(t)
	require.NoError(t, gormrepo.Migrate(db))
	repo := gormrepo.NewStateRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(ctx, "holiday_table_app_v1", []byte(`{"peopleCount":4}`)))
	}

	var count int64
	require.NoError(t, db.Model(&gormrepo.StateBlobModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
