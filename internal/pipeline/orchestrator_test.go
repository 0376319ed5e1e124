package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/dgallion1/docpersona/internal/config"
	"github.com/dgallion1/docpersona/internal/embed"
)

func waitTerminal(t *testing.T, job *Job) JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := job.Snapshot()
		if snap.Status.Terminal() {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", job.ID)
	return JobSnapshot{}
}

func TestOrchestratorRunsJobs(t *testing.T) {
	cfg := config.Config{WorkerCount: 2, MaxQueueSize: 4, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, newTestAnalyzer(embed.NewHashing(32)), discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	md := "# Overview\n\nThis markdown file carries one paragraph that is long enough to be kept as real content here.\n"
	job := NewJob([]Upload{{Filename: "a.md", Data: []byte(md)}}, "Student", "learn")
	if err := o.Submit(job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := waitTerminal(t, job)
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (%v)", snap.Status, snap.Progress.Errors)
	}
	if o.GetJob(job.ID) != job {
		t.Error("expected job retrievable by id")
	}
	res := job.Result()
	if res == nil || len(res.ExtractedSections) != 1 {
		t.Fatalf("expected one extracted section, got %+v", res)
	}
}

func TestOrchestratorQueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, newTestAnalyzer(embed.NewHashing(8)), discardLogger())

	if err := o.Submit(NewJob(nil, "", "")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	overflow := NewJob(nil, "", "")
	if err := o.Submit(overflow); err == nil {
		t.Fatal("expected queue full error")
	}
	if snap := overflow.Snapshot(); snap.Status != StatusFailed || snap.Phase != "queue_full" {
		t.Errorf("expected failed/queue_full, got %s/%s", snap.Status, snap.Phase)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}

func TestOrchestratorSubmitAfterStop(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, newTestAnalyzer(embed.NewHashing(8)), discardLogger())
	o.Start(context.Background())
	o.Stop()
	o.Stop()

	if err := o.Submit(NewJob(nil, "", "")); err == nil {
		t.Fatal("expected error after stop")
	}
}
