package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicq/clinicq-backend/internal/queue/models"
)

func seededRepo() *MemoryRepository {
	repo := NewMemoryRepository()
	repo.AddClinic(models.Clinic{ID: 1, Name: "General Medicine"})
	return repo
}

func TestMemoryRegisterUnknownClinic(t *testing.T) {
	repo := seededRepo()
	_, _, err := repo.RegisterPatient(context.Background(), &models.Patient{FullName: "A", Mobile: "9876543210"}, 7, "")
	assert.ErrorIs(t, err, ErrConstraint)
}

func TestMemoryEntryNotFound(t *testing.T) {
	repo := seededRepo()
	ctx := context.Background()

	_, err := repo.GetEntry(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.SetPaid(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.UpdateStatus(ctx, 1, models.StatusCompleted, nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.UpdatePriority(ctx, 1, 3)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetClinic(ctx, 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListOrdering(t *testing.T) {
	repo := seededRepo()
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		_, entry, err := repo.RegisterPatient(ctx, &models.Patient{FullName: "P", Mobile: "9876543210"}, 1, "")
		require.NoError(t, err)
		ids = append(ids, entry.ID)
	}

	// Bump the last arrival to the front.
	_, err := repo.UpdatePriority(ctx, ids[2], 10)
	require.NoError(t, err)

	entries, err := repo.ListByClinic(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, ids[2], entries[0].ID, "priority descending comes first")
	assert.Equal(t, ids[0], entries[1].ID, "then queue number ascending")
	assert.Equal(t, ids[1], entries[2].ID)
}

func TestMemoryStartConsultation(t *testing.T) {
	repo := seededRepo()
	ctx := context.Background()

	_, first, err := repo.RegisterPatient(ctx, &models.Patient{FullName: "A", Mobile: "9876543210"}, 1, "")
	require.NoError(t, err)
	_, second, err := repo.RegisterPatient(ctx, &models.Patient{FullName: "B", Mobile: "9876543211"}, 1, "")
	require.NoError(t, err)

	now := time.Now()
	started, err := repo.StartConsultation(ctx, first.ID, now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, started.Status)
	require.NotNil(t, started.StartTime)
	assert.Equal(t, now, *started.StartTime)

	// The clinic is busy for everyone else, and the running entry cannot be
	// started twice.
	_, err = repo.StartConsultation(ctx, second.ID, now)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = repo.StartConsultation(ctx, first.ID, now)
	assert.ErrorIs(t, err, ErrBusy)

	_, err = repo.StartConsultation(ctx, 99, now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryReturnsCopies(t *testing.T) {
	repo := seededRepo()
	ctx := context.Background()

	_, entry, err := repo.RegisterPatient(ctx, &models.Patient{FullName: "P", Mobile: "9876543210"}, 1, "")
	require.NoError(t, err)

	got, err := repo.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	got.Status = models.StatusCompleted

	fresh, err := repo.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, fresh.Status, "mutating a returned entry must not touch the store")
}
