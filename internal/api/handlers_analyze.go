package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docpersona/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// multipartMemory is the in-memory budget for ParseMultipartForm; larger
// parts spill to temp files.
const multipartMemory = 64 << 20

// handleAnalyze accepts a multipart upload with a "files" field (one or more
// documents), plus optional "persona" and "job" fields. Unsupported formats
// are accepted and reported as skipped documents in the result.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		jsonError(w, "invalid multipart form or upload too large", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "no files provided (use field name \"files\")", http.StatusBadRequest)
		return
	}
	if s.cfg.MaxBatchFiles > 0 && len(files) > s.cfg.MaxBatchFiles {
		jsonError(w, fmt.Sprintf("too many files: %d (max %d)", len(files), s.cfg.MaxBatchFiles), http.StatusBadRequest)
		return
	}

	personaText := strings.TrimSpace(r.FormValue("persona"))
	if personaText == "" {
		personaText = s.cfg.DefaultPersona
	}
	task := strings.TrimSpace(r.FormValue("job"))
	if task == "" {
		task = s.cfg.DefaultJob
	}

	uploads := make([]pipeline.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			jsonError(w, fmt.Sprintf("open %s: %v", fh.Filename, err), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes))
		f.Close()
		if err != nil {
			jsonError(w, fmt.Sprintf("read %s: %v", fh.Filename, err), http.StatusBadRequest)
			return
		}
		uploads = append(uploads, pipeline.Upload{Filename: sanitizeFilename(fh.Filename), Data: data})
	}

	job := pipeline.NewJob(uploads, personaText, task)
	if err := s.orchestrator.Submit(job); err != nil {
		s.log.Warn("analysis rejected", "job_id", job.ID, "error", err)
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	s.log.Info("analysis queued", "job_id", job.ID, "documents", len(uploads), "persona", personaText)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":    job.ID,
		"status":    pipeline.StatusQueued,
		"documents": len(uploads),
		"poll_url":  "/api/analyze/" + job.ID + "/status",
	})
}

func (s *Server) handleAnalyzeStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleAnalyzeResult returns the analysis document once the job completes.
// Pending jobs answer 202 with their status; failed jobs answer 422.
func (s *Server) handleAnalyzeResult(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	snap := job.Snapshot()
	switch {
	case snap.Status == pipeline.StatusFailed:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"job_id": snap.ID,
			"status": snap.Status,
			"phase":  snap.Phase,
			"errors": snap.Progress.Errors,
		})
	case !snap.Status.Terminal():
		writeJSON(w, http.StatusAccepted, snap)
	default:
		res := job.Result()
		if res == nil {
			jsonError(w, "result missing for completed job", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", snap.ID+".json"))
		if err := res.WriteJSON(w); err != nil {
			s.log.Error("write result", "job_id", snap.ID, "error", err)
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
