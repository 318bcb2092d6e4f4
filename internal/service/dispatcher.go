package service

import (
	"context"
	"fmt"

	"wara/internal/queue"
)

// NewJobDispatcher routes queued jobs to the owning service. Used as the
// worker handler.
func NewJobDispatcher(docs DocumentService, cmps ComparisonService, reps ReportService) queue.HandlerFunc {
	return func(ctx context.Context, job queue.Job) error {
		switch job.Type {
		case queue.JobProcessDocument:
			return docs.Process(ctx, job.ID)
		case queue.JobRunComparison:
			return cmps.Run(ctx, job.ID)
		case queue.JobGenerateReport:
			return reps.Generate(ctx, job.ID)
		default:
			return fmt.Errorf("unknown job type %q", job.Type)
		}
	}
}
