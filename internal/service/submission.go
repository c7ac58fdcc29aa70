package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/storefront-admin/internal/domain"
	"github.com/kahvecikaan/storefront-admin/internal/events"
	"github.com/kahvecikaan/storefront-admin/internal/metrics"
	"github.com/kahvecikaan/storefront-admin/internal/repository"
	"github.com/kahvecikaan/storefront-admin/internal/storeapi"
	"github.com/kahvecikaan/storefront-admin/internal/upload"
)

// Orchestrator runs the create-then-upload sequence for one draft
type Orchestrator interface {
	Submit(ctx context.Context, draft *domain.ProductDraft, obs upload.Observer) (*upload.Report, error)
}

// Staging removes the files staged for a submission
type Staging interface {
	RemoveAll(path string) error
}

type SubmissionService interface {
	// Submit starts a submission for draft in the background. stagingKey names
	// the staged files, which are removed once the submission finishes.
	Submit(ctx context.Context, draft *domain.ProductDraft, stagingKey string) (*domain.Submission, error)
	GetSubmission(ctx context.Context, id string) (*domain.Submission, error)
	ListSubmissions(ctx context.Context) ([]*domain.Submission, error)
	Close() error
}

type submissionService struct {
	repo         repository.SubmissionRepository
	catalog      CatalogService
	orchestrator Orchestrator
	staging      Staging
	eventBus     *events.EventBus[any]
	logger       hclog.Logger
	baseCtx      context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	once         sync.Once
	now          func() time.Time
}

func NewSubmissionService(
	repo repository.SubmissionRepository,
	catalog CatalogService,
	orchestrator Orchestrator,
	staging Staging,
	eventBus *events.EventBus[any],
	logger hclog.Logger) SubmissionService {
	ctx, cancel := context.WithCancel(context.Background())

	return &submissionService{
		repo:         repo,
		catalog:      catalog,
		orchestrator: orchestrator,
		staging:      staging,
		eventBus:     eventBus,
		logger:       logger,
		baseCtx:      ctx,
		cancel:       cancel,
		now:          time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, draft *domain.ProductDraft, stagingKey string) (*domain.Submission, error) {
	s.logger.Debug("Submitting product", "title", draft.Title, "category_id", draft.CategoryID)

	if len(draft.ProductFiles) == 0 {
		s.removeStaging(stagingKey)
		return nil, domain.ErrNoProductFiles
	}
	if len(draft.CoverImages) > domain.MaxCoverImages {
		s.removeStaging(stagingKey)
		return nil, domain.ErrTooManyCoverImages
	}

	ok, err := s.catalog.CategoryExists(ctx, draft.CategoryID)
	if err != nil {
		s.logger.Error("Unable to check category", "category_id", draft.CategoryID, "error", err)
		s.removeStaging(stagingKey)
		return nil, err
	}
	if !ok {
		s.removeStaging(stagingKey)
		return nil, domain.ErrUnknownCategory
	}

	sub := &domain.Submission{
		ID:        uuid.NewString(),
		Title:     draft.Title,
		Status:    domain.SubmissionRunning,
		Steps:     []domain.StepResult{},
		CreatedAt: s.now(),
	}
	if err := s.repo.Add(ctx, sub); err != nil {
		s.logger.Error("Unable to add submission", "title", draft.Title, "error", err)
		s.removeStaging(stagingKey)
		return nil, err
	}

	s.wg.Add(1)
	go s.run(sub.Clone(), draft, stagingKey)

	s.logger.Info("Submission started", "id", sub.ID, "title", sub.Title)
	return sub, nil
}

// run drives one submission to completion. It owns sub until it returns.
func (s *submissionService) run(sub *domain.Submission, draft *domain.ProductDraft, stagingKey string) {
	defer s.wg.Done()
	defer s.removeStaging(stagingKey)

	obs := &submissionObserver{svc: s, sub: sub}
	report, err := s.orchestrator.Submit(s.baseCtx, draft, obs)

	finished := s.now()
	sub.FinishedAt = &finished
	sub.Step = ""

	switch {
	case err != nil:
		sub.Status = domain.SubmissionFailed
		sub.Error = storeapi.MessageOf(unwrapCreate(err))
	case report.Succeeded():
		sub.Status = domain.SubmissionSucceeded
		sub.ProductID = report.ProductID
		sub.Steps = report.Steps
	default:
		sub.Status = domain.SubmissionPartial
		sub.ProductID = report.ProductID
		sub.Steps = report.Steps
	}

	if err := s.repo.Update(context.Background(), sub); err != nil {
		s.logger.Error("Unable to update submission", "id", sub.ID, "error", err)
	}

	metrics.ObserveSubmission(sub.Status)
	s.eventBus.Publish(events.SubmissionFinished{
		SubmissionID: sub.ID,
		Status:       sub.Status,
		ProductID:    sub.ProductID,
		Failures:     sub.Failures(),
		Error:        sub.Error,
	})

	s.logger.Info("Submission finished", "id", sub.ID, "status", sub.Status, "product_id", sub.ProductID)
}

func (s *submissionService) removeStaging(key string) {
	if key == "" {
		return
	}
	if err := s.staging.RemoveAll(key); err != nil {
		s.logger.Error("Unable to remove staged files", "key", key, "error", err)
	}
}

func (s *submissionService) GetSubmission(ctx context.Context, id string) (*domain.Submission, error) {
	s.logger.Debug("Getting submission by ID", "id", id)

	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Unable to get the submission by ID", "id", id, "error", err)
		return nil, err
	}
	return sub, nil
}

func (s *submissionService) ListSubmissions(ctx context.Context) ([]*domain.Submission, error) {
	s.logger.Debug("Getting all submissions")

	subs, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("Unable to get submissions", "error", err)
		return nil, err
	}
	return subs, nil
}

// Close cancels running submissions and waits for them to record their outcome
func (s *submissionService) Close() error {
	s.once.Do(func() {
		s.logger.Info("Shutting down SubmissionService...")
		s.cancel()
		s.wg.Wait()
		s.logger.Info("SubmissionService shutdown complete.")
	})
	return nil
}

func unwrapCreate(err error) error {
	var createErr *upload.CreateError
	if errors.As(err, &createErr) {
		return createErr.Err
	}
	return err
}

// submissionObserver stores progress on the submission and publishes it
type submissionObserver struct {
	svc *submissionService
	sub *domain.Submission
}

func (o *submissionObserver) StepStarted(index, total int, label, message string) {
	o.sub.Step = message
	o.save()

	o.svc.eventBus.Publish(events.StepStarted{
		SubmissionID: o.sub.ID,
		Index:        index,
		Total:        total,
		Label:        label,
		Message:      message,
	})
}

func (o *submissionObserver) StepFinished(index, total int, result domain.StepResult) {
	o.sub.Steps = append(o.sub.Steps, result)
	o.save()

	o.svc.eventBus.Publish(events.StepFinished{
		SubmissionID: o.sub.ID,
		Index:        index,
		Total:        total,
		Result:       result,
	})
}

func (o *submissionObserver) save() {
	if err := o.svc.repo.Update(context.Background(), o.sub); err != nil {
		o.svc.logger.Error("Unable to record submission progress", "id", o.sub.ID, "error", err)
	}
}
