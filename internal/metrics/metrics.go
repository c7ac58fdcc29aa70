package metrics

import (
	"time"

	"github.com/kahvecikaan/storefront-admin/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_upload_steps_total",
		Help: "Total number of upload steps executed, partitioned by step kind and outcome.",
	}, []string{"kind", "outcome"})

	uploadStepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_upload_step_duration_seconds",
		Help:    "Duration of upload steps including retries.",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 180, 300, 660},
	}, []string{"kind"})

	submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_submissions_total",
		Help: "Total number of finished product submissions, partitioned by final status.",
	}, []string{"status"})
)

// ObserveStep records the outcome and duration of one upload step
func ObserveStep(r domain.StepResult, elapsed time.Duration) {
	outcome := "succeeded"
	if !r.Succeeded {
		outcome = string(r.FailureKind)
	}
	uploadSteps.WithLabelValues(string(r.Kind), outcome).Inc()
	uploadStepDuration.WithLabelValues(string(r.Kind)).Observe(elapsed.Seconds())
}

// ObserveSubmission records a finished submission
func ObserveSubmission(status domain.SubmissionStatus) {
	submissions.WithLabelValues(string(status)).Inc()
}
