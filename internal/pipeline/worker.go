package pipeline

import (
	"context"
	"log/slog"
)

// Worker runs queued analysis jobs.
type Worker struct {
	analyzer *Analyzer
	log      *slog.Logger
}

func NewWorker(analyzer *Analyzer, log *slog.Logger) *Worker {
	return &Worker{analyzer: analyzer, log: log}
}

// Process runs the analysis for a job and records its outcome on the job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)
	log.Info("analysis started", "documents", len(job.Documents), "persona", job.Persona)

	var stage Stage = StageParsing
	result, err := w.analyzer.RunUploads(ctx, job.Uploads(), job.Persona, job.Task, func(s Stage) {
		stage = s
		job.SetStatus(statusForStage(s), string(s))
	})
	if err != nil {
		log.Error("analysis failed", "stage", stage, "error", err)
		job.Fail(string(stage), err)
		return
	}

	for _, name := range result.Metadata.SkippedDocuments {
		job.AddError("skipped " + name)
	}
	job.Complete(result)
	log.Info("analysis completed",
		"sections", result.Metadata.TotalSectionsFound,
		"extracted", len(result.ExtractedSections),
		"skipped", len(result.Metadata.SkippedDocuments),
	)
}
