package repository

import (
	"context"
	"sync"

	"github.com/kahvecikaan/storefront-admin/internal/domain"
)

type SubmissionRepository interface {
	GetAll(ctx context.Context) ([]*domain.Submission, error)
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	Add(ctx context.Context, submission *domain.Submission) error
	Update(ctx context.Context, submission *domain.Submission) error
}

// memorySubmissionRepository keeps submissions in insertion order. Callers
// always receive copies, so a running submission can be read while it is
// being updated. Once limit is reached the oldest finished submissions are
// evicted; running ones are never dropped.
type memorySubmissionRepository struct {
	submissions []*domain.Submission
	limit       int
	mutex       sync.RWMutex
}

// NewMemorySubmissionRepository keeps at most limit submissions. A limit of
// zero or less keeps every submission.
func NewMemorySubmissionRepository(limit int) SubmissionRepository {
	return &memorySubmissionRepository{limit: limit}
}

func (r *memorySubmissionRepository) GetAll(ctx context.Context) ([]*domain.Submission, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]*domain.Submission, len(r.submissions))
	for i, s := range r.submissions {
		out[i] = s.Clone()
	}
	return out, nil
}

func (r *memorySubmissionRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return r.submissions[i].Clone(), nil
	}

	return nil, domain.ErrSubmissionNotFound
}

func (r *memorySubmissionRepository) Add(ctx context.Context, submission *domain.Submission) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.submissions = append(r.submissions, submission.Clone())
	r.evict()
	return nil
}

func (r *memorySubmissionRepository) Update(ctx context.Context, submission *domain.Submission) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if i := r.indexOf(submission.ID); i >= 0 {
		r.submissions[i] = submission.Clone()
		return nil
	}

	return domain.ErrSubmissionNotFound
}

func (r *memorySubmissionRepository) indexOf(id string) int {
	for i, s := range r.submissions {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// evict drops the oldest finished submissions until the store is within limit
func (r *memorySubmissionRepository) evict() {
	if r.limit <= 0 {
		return
	}

	excess := len(r.submissions) - r.limit
	if excess <= 0 {
		return
	}

	kept := r.submissions[:0]
	for _, s := range r.submissions {
		if excess > 0 && s.Status != domain.SubmissionRunning {
			excess--
			continue
		}
		kept = append(kept, s)
	}
	clear(r.submissions[len(kept):])
	r.submissions = kept
}
