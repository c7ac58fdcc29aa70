package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/storefront-admin/internal/domain"
	"github.com/kahvecikaan/storefront-admin/internal/events"
	"github.com/kahvecikaan/storefront-admin/internal/repository"
	"github.com/kahvecikaan/storefront-admin/internal/storeapi"
	"github.com/kahvecikaan/storefront-admin/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	categories []storeapi.Category
}

func (f *fakeCatalog) ListCategories(ctx context.Context) ([]storeapi.Category, error) {
	return f.categories, nil
}

func (f *fakeCatalog) ListDevelopers(ctx context.Context) ([]storeapi.Developer, error) {
	return nil, nil
}

func (f *fakeCatalog) CategoryExists(ctx context.Context, id int64) (bool, error) {
	return containsCategory(f.categories, id), nil
}

func (f *fakeCatalog) Close() error { return nil }

type fakeStaging struct {
	mu      sync.Mutex
	removed []string
}

func (f *fakeStaging) RemoveAll(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, path)
	return nil
}

func (f *fakeStaging) Removed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

// orchestratorFunc adapts a function to the Orchestrator interface
type orchestratorFunc func(ctx context.Context, d *domain.ProductDraft, obs upload.Observer) (*upload.Report, error)

func (f orchestratorFunc) Submit(ctx context.Context, d *domain.ProductDraft, obs upload.Observer) (*upload.Report, error) {
	return f(ctx, d, obs)
}

func setupService(t *testing.T, o Orchestrator) (SubmissionService, *fakeStaging, *events.EventBus[any]) {
	t.Helper()

	bus := events.NewEventBus[any]()
	staging := &fakeStaging{}
	catalog := &fakeCatalog{categories: []storeapi.Category{{ID: 1, Name: "Maps"}}}
	svc := NewSubmissionService(repository.NewMemorySubmissionRepository(0), catalog, o, staging, bus, hclog.NewNullLogger())
	t.Cleanup(func() { svc.Close() })

	return svc, staging, bus
}

func testDraft() *domain.ProductDraft {
	return &domain.ProductDraft{
		Title:        "Airbase",
		CategoryID:   1,
		Visibility:   domain.VisibilityVisible,
		ProductFiles: []domain.Blob{domain.BytesBlob("pack.zip", "", []byte("zip"))},
	}
}

func waitForStatus(t *testing.T, svc SubmissionService, id string) *domain.Submission {
	t.Helper()

	var sub *domain.Submission
	require.Eventually(t, func() bool {
		var err error
		sub, err = svc.GetSubmission(context.Background(), id)
		return err == nil && sub.Status != domain.SubmissionRunning
	}, 2*time.Second, 10*time.Millisecond)
	return sub
}

func TestSubmitSucceeded(t *testing.T) {
	o := orchestratorFunc(func(ctx context.Context, d *domain.ProductDraft, obs upload.Observer) (*upload.Report, error) {
		create := domain.StepResult{Label: "Create product (details)", Kind: domain.StepCreate, Succeeded: true, Attempts: 1}
		file := domain.StepResult{Label: "Product file 1 (pack.zip)", Kind: domain.StepProductFile, Succeeded: true, Attempts: 1}
		obs.StepStarted(1, 2, create.Label, "Saving product details...")
		obs.StepFinished(1, 2, create)
		obs.StepStarted(2, 2, file.Label, "Uploading product file 1 of 1 (pack.zip)...")
		obs.StepFinished(2, 2, file)
		return &upload.Report{ProductID: 7, Steps: []domain.StepResult{create, file}}, nil
	})
	svc, staging, bus := setupService(t, o)
	sub := bus.Subscribe()

	started, err := svc.Submit(context.Background(), testDraft(), "stage-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionRunning, started.Status)
	assert.NotEmpty(t, started.ID)

	done := waitForStatus(t, svc, started.ID)
	assert.Equal(t, domain.SubmissionSucceeded, done.Status)
	assert.Equal(t, int64(7), done.ProductID)
	assert.Len(t, done.Steps, 2)
	assert.NotNil(t, done.FinishedAt)
	assert.Empty(t, done.Step)

	require.Eventually(t, func() bool {
		return len(staging.Removed()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"stage-1"}, staging.Removed())

	var kinds []string
	require.Eventually(t, func() bool {
		select {
		case ev := <-sub:
			switch ev.(type) {
			case events.StepStarted:
				kinds = append(kinds, "started")
			case events.StepFinished:
				kinds = append(kinds, "finished")
			case events.SubmissionFinished:
				kinds = append(kinds, "submission")
			}
		default:
		}
		return len(kinds) == 5
	}, time.Second, time.Millisecond)
	assert.Equal(t, []string{"started", "finished", "started", "finished", "submission"}, kinds)
}

func TestSubmitPartial(t *testing.T) {
	o := orchestratorFunc(func(ctx context.Context, d *domain.ProductDraft, obs upload.Observer) (*upload.Report, error) {
		return &upload.Report{ProductID: 3, Steps: []domain.StepResult{
			{Label: "Create product (details)", Succeeded: true},
			{Label: "Product file 1 (pack.zip)", ErrorMessage: "File too large", FailureKind: domain.FailurePayloadTooLarge},
		}}, nil
	})
	svc, _, _ := setupService(t, o)

	started, err := svc.Submit(context.Background(), testDraft(), "")
	require.NoError(t, err)

	done := waitForStatus(t, svc, started.ID)
	assert.Equal(t, domain.SubmissionPartial, done.Status)
	require.Len(t, done.Failures(), 1)
	assert.Equal(t, "Product file 1 (pack.zip)", done.Failures()[0].Label)
}

func TestSubmitCreateFailed(t *testing.T) {
	o := orchestratorFunc(func(ctx context.Context, d *domain.ProductDraft, obs upload.Observer) (*upload.Report, error) {
		return nil, &upload.CreateError{
			Label: "Create product (details)",
			Err:   &storeapi.Error{Op: "create product", Kind: domain.FailureServer, Message: "category not found"},
		}
	})
	svc, _, _ := setupService(t, o)

	started, err := svc.Submit(context.Background(), testDraft(), "")
	require.NoError(t, err)

	done := waitForStatus(t, svc, started.ID)
	assert.Equal(t, domain.SubmissionFailed, done.Status)
	assert.Equal(t, "category not found", done.Error)
	assert.Zero(t, done.ProductID)
}

func TestSubmitRejectsBeforeRunning(t *testing.T) {
	o := orchestratorFunc(func(ctx context.Context, d *domain.ProductDraft, obs upload.Observer) (*upload.Report, error) {
		t.Fatal("orchestrator must not run")
		return nil, nil
	})
	svc, staging, _ := setupService(t, o)

	d := testDraft()
	d.CategoryID = 99
	_, err := svc.Submit(context.Background(), d, "stage-x")
	assert.ErrorIs(t, err, domain.ErrUnknownCategory)

	d = testDraft()
	d.ProductFiles = nil
	_, err = svc.Submit(context.Background(), d, "stage-y")
	assert.ErrorIs(t, err, domain.ErrNoProductFiles)

	assert.Equal(t, []string{"stage-x", "stage-y"}, staging.Removed())

	subs, err := svc.ListSubmissions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestResubmitStartsNewSubmission(t *testing.T) {
	var (
		mu     sync.Mutex
		nextID int64
	)
	o := orchestratorFunc(func(ctx context.Context, d *domain.ProductDraft, obs upload.Observer) (*upload.Report, error) {
		mu.Lock()
		nextID++
		id := nextID
		mu.Unlock()
		return &upload.Report{ProductID: id, Steps: []domain.StepResult{{Succeeded: true}}}, nil
	})
	svc, _, _ := setupService(t, o)

	first, err := svc.Submit(context.Background(), testDraft(), "")
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), testDraft(), "")
	require.NoError(t, err)

	a := waitForStatus(t, svc, first.ID)
	b := waitForStatus(t, svc, second.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.ProductID, b.ProductID)
}

func TestCloseCancelsRunningSubmissions(t *testing.T) {
	running := make(chan struct{})
	o := orchestratorFunc(func(ctx context.Context, d *domain.ProductDraft, obs upload.Observer) (*upload.Report, error) {
		close(running)
		<-ctx.Done()
		return &upload.Report{ProductID: 5, Steps: []domain.StepResult{
			{Label: "Create product (details)", Succeeded: true},
			{Label: "Product file 1 (pack.zip)", FailureKind: domain.FailureCanceled},
		}}, nil
	})
	svc, staging, _ := setupService(t, o)

	started, err := svc.Submit(context.Background(), testDraft(), "stage-c")
	require.NoError(t, err)
	<-running

	require.NoError(t, svc.Close())

	sub, err := svc.GetSubmission(context.Background(), started.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionPartial, sub.Status)
	assert.Equal(t, []string{"stage-c"}, staging.Removed())
}

func TestGetSubmissionNotFound(t *testing.T) {
	svc, _, _ := setupService(t, orchestratorFunc(nil))

	_, err := svc.GetSubmission(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)
}
