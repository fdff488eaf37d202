package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasetyo/checkin-bot/internal/domain"
)

func newTestRepository(t *testing.T) *SessionRepository {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewSessionRepository(db)
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now().UTC().Truncate(time.Second)

	session := &domain.Session{
		OwnerID:   42,
		OwnerName: "Udin",
		Step:      domain.StepStoreRegion,
		StoreName: "Acme Store",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Save(session))

	got, err := repo.Get(42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.OwnerID)
	assert.Equal(t, "Udin", got.OwnerName)
	assert.Equal(t, domain.StepStoreRegion, got.Step)
	assert.Equal(t, "Acme Store", got.StoreName)
	assert.Empty(t, got.StoreRegion)
}

func TestGetReturnsNilForUnknownOwner(t *testing.T) {
	repo := newTestRepository(t)

	got, err := repo.Get(7)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveUpsertsOnConflict(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now().UTC()

	require.NoError(t, repo.Save(&domain.Session{OwnerID: 1, OwnerName: "Udin", Step: domain.StepStoreName, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, repo.Save(&domain.Session{OwnerID: 1, OwnerName: "Udin", Step: domain.StepLocation, StoreName: "Acme", StoreRegion: "North", CreatedAt: now, UpdatedAt: now}))

	got, err := repo.Get(1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.StepLocation, got.Step)
	assert.Equal(t, "Acme", got.StoreName)
	assert.Equal(t, "North", got.StoreRegion)
}

func TestDelete(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now().UTC()

	require.NoError(t, repo.Save(&domain.Session{OwnerID: 1, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, repo.Delete(1))
	require.NoError(t, repo.Delete(1))

	got, err := repo.Get(1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteIdleBefore(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now().UTC()

	require.NoError(t, repo.Save(&domain.Session{OwnerID: 1, CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, repo.Save(&domain.Session{OwnerID: 2, CreatedAt: now, UpdatedAt: now}))

	removed, err := repo.DeleteIdleBefore(now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, removed)

	stale, err := repo.Get(1)
	require.NoError(t, err)
	assert.Nil(t, stale)

	fresh, err := repo.Get(2)
	require.NoError(t, err)
	assert.NotNil(t, fresh)
}
