package repository

import (
	"context"
	"testing"

	"github.com/kahvecikaan/storefront-admin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySubmissionRepository(0)

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)

	s := &domain.Submission{ID: "a", Title: "Airbase", Status: domain.SubmissionRunning}
	require.NoError(t, repo.Add(ctx, s))
	require.NoError(t, repo.Add(ctx, &domain.Submission{ID: "b", Status: domain.SubmissionRunning}))

	// mutating the caller's value does not leak into the store
	s.Status = domain.SubmissionFailed
	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionRunning, got.Status)

	got.Status = domain.SubmissionPartial
	got.Steps = append(got.Steps, domain.StepResult{Label: "Create product (details)", Succeeded: true})
	require.NoError(t, repo.Update(ctx, got))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, domain.SubmissionPartial, all[0].Status)
	assert.Len(t, all[0].Steps, 1)

	all[0].Steps[0].Label = "changed"
	again, _ := repo.GetByID(ctx, "a")
	assert.Equal(t, "Create product (details)", again.Steps[0].Label)

	assert.ErrorIs(t, repo.Update(ctx, &domain.Submission{ID: "zzz"}), domain.ErrSubmissionNotFound)
}

func TestSubmissionRepositoryEvictsOldestFinished(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySubmissionRepository(2)

	require.NoError(t, repo.Add(ctx, &domain.Submission{ID: "a", Status: domain.SubmissionRunning}))
	require.NoError(t, repo.Add(ctx, &domain.Submission{ID: "b", Status: domain.SubmissionSucceeded}))
	require.NoError(t, repo.Add(ctx, &domain.Submission{ID: "c", Status: domain.SubmissionPartial}))

	// "a" is still running, so the oldest finished one goes
	_, err := repo.GetByID(ctx, "b")
	assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "c", all[1].ID)

	// with nothing finished to drop the store grows past its limit
	require.NoError(t, repo.Add(ctx, &domain.Submission{ID: "d", Status: domain.SubmissionRunning}))
	require.NoError(t, repo.Add(ctx, &domain.Submission{ID: "e", Status: domain.SubmissionRunning}))
	all, err = repo.GetAll(ctx)
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, s := range all {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"a", "d", "e"}, ids)
}
