package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Worker runs queued jobs through the Processor.
type Worker struct {
	proc *Processor
	log  *slog.Logger
}

func NewWorker(proc *Processor, log *slog.Logger) *Worker {
	return &Worker{proc: proc, log: log}
}

// Process runs one job to a terminal status.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "file", job.Filename)
	start := time.Now()

	data := job.FileData()
	if data == nil {
		// Failed before it was picked up, e.g. rejected by a full queue.
		return
	}

	out, err := w.proc.ProcessFile(ctx, Upload{Filename: job.Filename, Data: data}, job.SetStatus)
	if err != nil {
		log.Error("job failed", "error", err)
		job.Fail(err)
		return
	}
	job.Complete(out)
	log.Info("job completed",
		"cards", out.Metadata.FlashcardCount,
		"fallback", out.Metadata.UsedFallback,
		"cached", out.Metadata.Cached,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
