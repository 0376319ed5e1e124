package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// JobStatus represents the state of an analysis job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusSegmenting JobStatus = "segmenting"
	StatusRanking    JobStatus = "ranking"
	StatusRefining   JobStatus = "refining"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// statusForStage maps analyzer stages onto the coarser job statuses.
func statusForStage(s Stage) JobStatus {
	switch s {
	case StageParsing:
		return StatusParsing
	case StageSegmenting:
		return StatusSegmenting
	case StageProfiled, StageRanked:
		return StatusRanking
	default:
		return StatusRefining
	}
}

// Terminal reports whether no further transitions will happen.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DocumentInfo describes one uploaded file.
type DocumentInfo struct {
	Filename string `json:"filename"`
	Bytes    int    `json:"bytes"`
	SHA256   string `json:"sha256"`
}

// Job tracks one queued analysis.
type Job struct {
	mu sync.Mutex

	ID        string
	Persona   string
	Task      string
	Documents []DocumentInfo

	Status   JobStatus
	Phase    string
	Progress Progress

	CreatedAt time.Time
	UpdatedAt time.Time

	// Internal: not serialized.
	uploads []Upload
	result  *AnalysisResult
	errors  []string
}

// Progress summarises a job's outcome so far.
type Progress struct {
	Documents     int      `json:"documents"`
	Skipped       int      `json:"skipped"`
	SectionsFound int      `json:"sections_found"`
	Errors        []string `json:"errors"`
}

// NewJob creates a queued job for the given uploads.
func NewJob(uploads []Upload, personaText, task string) *Job {
	now := time.Now()
	docs := make([]DocumentInfo, len(uploads))
	for i, u := range uploads {
		docs[i] = DocumentInfo{Filename: u.Filename, Bytes: len(u.Data), SHA256: ContentHashHex(u.Data)}
	}
	return &Job{
		ID:        NewJobID(),
		Persona:   personaText,
		Task:      task,
		Documents: docs,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		uploads:   uploads,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes finished jobs not updated within the TTL. Jobs still in
// flight are kept.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Terminal() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// Complete stores the result, marks the job completed and releases the
// uploaded bytes.
func (j *Job) Complete(result *AnalysisResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = result
	j.uploads = nil
	j.Progress.Documents = len(result.Metadata.InputDocuments)
	j.Progress.Skipped = len(result.Metadata.SkippedDocuments)
	j.Progress.SectionsFound = result.Metadata.TotalSectionsFound
	j.Status = StatusCompleted
	j.Phase = string(StageAssembled)
	j.UpdatedAt = time.Now()
}

// Fail records err, marks the job failed and releases the uploaded bytes.
func (j *Job) Fail(phase string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err.Error())
	j.Progress.Errors = j.errors
	j.uploads = nil
	j.Status = StatusFailed
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Uploads returns the pending document bodies.
func (j *Job) Uploads() []Upload {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.uploads
}

// Result returns the analysis result, or nil until the job completes.
func (j *Job) Result() *AnalysisResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string         `json:"job_id"`
	Status    JobStatus      `json:"status"`
	Phase     string         `json:"phase"`
	Persona   string         `json:"persona"`
	Task      string         `json:"job_to_be_done"`
	Documents []DocumentInfo `json:"documents"`
	Progress  Progress       `json:"progress"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	docs := make([]DocumentInfo, len(j.Documents))
	copy(docs, j.Documents)

	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:        j.ID,
		Status:    j.Status,
		Phase:     j.Phase,
		Persona:   j.Persona,
		Task:      j.Task,
		Documents: docs,
		Progress:  p,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
