package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/storefront-admin/internal/domain"
	"github.com/kahvecikaan/storefront-admin/internal/metrics"
	"github.com/kahvecikaan/storefront-admin/internal/storeapi"
)

// StoreAPI is the subset of the store client the orchestrator drives
type StoreAPI interface {
	CreateProduct(ctx context.Context, req storeapi.CreateProductRequest) (*storeapi.CreatedProduct, error)
	UploadCoverImage(ctx context.Context, productID int64, blob domain.Blob) (*storeapi.UploadResult, error)
	UploadVideo(ctx context.Context, productID int64, blob domain.Blob) (*storeapi.UploadResult, error)
	UploadProductFile(ctx context.Context, productID int64, blob domain.Blob) (*storeapi.UploadResult, error)
}

// Observer receives progress for a running submission. Index is 1-based.
type Observer interface {
	StepStarted(index, total int, label, message string)
	StepFinished(index, total int, result domain.StepResult)
}

// CreateError is returned when the product record could not be created.
// No uploads are attempted after it.
type CreateError struct {
	Label string
	Err   error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Label, storeapi.MessageOf(e.Err))
}

func (e *CreateError) Unwrap() error {
	return e.Err
}

// Report is the outcome of a submission whose product record was created
type Report struct {
	ProductID int64
	// Steps holds every step in execution order, the create step first
	Steps []domain.StepResult
}

// Failures returns the failed steps in execution order
func (r *Report) Failures() []domain.StepResult {
	var failed []domain.StepResult
	for _, s := range r.Steps {
		if !s.Succeeded {
			failed = append(failed, s)
		}
	}
	return failed
}

// Succeeded reports whether every step succeeded
func (r *Report) Succeeded() bool {
	return len(r.Failures()) == 0
}

// step is one upload planned against the created product
type step struct {
	kind    domain.StepKind
	label   string
	message string
	blob    domain.Blob
}

// Orchestrator creates a product and then uploads its binaries one at a time
type Orchestrator struct {
	api StoreAPI
	log hclog.Logger
}

// New creates an Orchestrator
func New(api StoreAPI, log hclog.Logger) *Orchestrator {
	return &Orchestrator{api: api, log: log}
}

// Submit creates the product described by draft and uploads its cover images,
// video and product files in that order. A failed upload is recorded and the
// sequence continues. Only a failure to create the record is returned as an
// error, as a *CreateError.
func (o *Orchestrator) Submit(ctx context.Context, draft *domain.ProductDraft, obs Observer) (*Report, error) {
	if len(draft.ProductFiles) == 0 {
		return nil, domain.ErrNoProductFiles
	}
	if obs == nil {
		obs = nopObserver{}
	}

	steps := plan(draft)
	total := len(steps) + 1
	createLabel := "Create product (details)"

	obs.StepStarted(1, total, createLabel, "Saving product details...")
	if err := ctx.Err(); err != nil {
		return nil, &CreateError{Label: createLabel, Err: &storeapi.Error{
			Op: "create product", Kind: domain.FailureCanceled, Message: "submission canceled", Err: err,
		}}
	}

	start := time.Now()
	created, err := o.api.CreateProduct(ctx, storeapi.NewCreateProductRequest(draft))
	createResult := domain.StepResult{Label: createLabel, Kind: domain.StepCreate, Attempts: 1}
	if err != nil {
		createResult.ErrorMessage = storeapi.MessageOf(err)
		createResult.FailureKind = storeapi.KindOf(err)
		metrics.ObserveStep(createResult, time.Since(start))
		obs.StepFinished(1, total, createResult)

		o.log.Error("Unable to create product", "title", draft.Title, "error", err)
		return nil, &CreateError{Label: createLabel, Err: err}
	}
	createResult.Succeeded = true
	metrics.ObserveStep(createResult, time.Since(start))
	obs.StepFinished(1, total, createResult)

	o.log.Info("Product created, uploading assets", "product_id", created.ID, "steps", len(steps))

	report := &Report{ProductID: created.ID, Steps: []domain.StepResult{createResult}}
	for i, s := range steps {
		index := i + 2
		obs.StepStarted(index, total, s.label, s.message)

		result := o.run(ctx, created.ID, s)
		report.Steps = append(report.Steps, result)
		obs.StepFinished(index, total, result)
	}

	if failed := report.Failures(); len(failed) > 0 {
		o.log.Warn("Submission finished with failed steps", "product_id", created.ID, "failed", len(failed))
	} else {
		o.log.Info("Submission finished", "product_id", created.ID)
	}

	return report, nil
}

// run executes one upload step and records its outcome
func (o *Orchestrator) run(ctx context.Context, productID int64, s step) domain.StepResult {
	result := domain.StepResult{Label: s.label, Kind: s.kind}

	if err := ctx.Err(); err != nil {
		result.FailureKind = domain.FailureCanceled
		result.ErrorMessage = "submission canceled before this step started"
		return result
	}

	start := time.Now()
	var (
		res *storeapi.UploadResult
		err error
	)
	switch s.kind {
	case domain.StepCoverImage:
		res, err = o.api.UploadCoverImage(ctx, productID, s.blob)
	case domain.StepVideo:
		res, err = o.api.UploadVideo(ctx, productID, s.blob)
	default:
		res, err = o.api.UploadProductFile(ctx, productID, s.blob)
	}

	if err != nil {
		result.ErrorMessage = storeapi.MessageOf(err)
		result.FailureKind = storeapi.KindOf(err)
		result.Attempts = storeapi.AttemptsOf(err)

		o.log.Error("Upload step failed",
			"product_id", productID,
			"step", s.label,
			"kind", result.FailureKind,
			"attempts", result.Attempts,
			"error", result.ErrorMessage)
	} else {
		result.Succeeded = true
		result.URL = res.URL
		result.Attempts = res.Attempts
	}

	metrics.ObserveStep(result, time.Since(start))
	return result
}

// plan lists the uploads for draft in execution order
func plan(d *domain.ProductDraft) []step {
	var steps []step

	for i, b := range d.CoverImages {
		steps = append(steps, step{
			kind:    domain.StepCoverImage,
			label:   fmt.Sprintf("Cover image %d (%s)", i+1, b.Name),
			message: fmt.Sprintf("Uploading cover image %d of %d (%s)...", i+1, len(d.CoverImages), b.Name),
			blob:    b,
		})
	}

	if d.Video != nil {
		steps = append(steps, step{
			kind:    domain.StepVideo,
			label:   fmt.Sprintf("Video (%s)", d.Video.Name),
			message: fmt.Sprintf("Uploading video (%s)...", d.Video.Name),
			blob:    *d.Video,
		})
	}

	for i, b := range d.ProductFiles {
		steps = append(steps, step{
			kind:    domain.StepProductFile,
			label:   fmt.Sprintf("Product file %d (%s)", i+1, b.Name),
			message: fmt.Sprintf("Uploading product file %d of %d (%s)...", i+1, len(d.ProductFiles), b.Name),
			blob:    b,
		})
	}

	return steps
}

type nopObserver struct{}

func (nopObserver) StepStarted(int, int, string, string) {}
func (nopObserver) StepFinished(int, int, domain.StepResult) {}
