package api

import (
	"fmt"
	"net/http"

	"github.com/dgallion1/docpersona/internal/outline"
	"github.com/dgallion1/docpersona/internal/parser"
)

// handleOutline parses a single uploaded "file" and returns its heading
// outline synchronously.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		jsonError(w, "invalid multipart form or upload too large", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	f, fh, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "no file provided (use field name \"file\")", http.StatusBadRequest)
		return
	}
	defer f.Close()

	name := sanitizeFilename(fh.Filename)
	if !parser.IsSupportedExtension(name) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", name), http.StatusUnsupportedMediaType)
		return
	}
	p, err := s.parseOpts.ForFile(name)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}
	tree, err := p.Parse(f, name)
	if err != nil {
		s.log.Warn("outline parse failed", "filename", name, "error", err)
		jsonError(w, fmt.Sprintf("parse %s: %v", name, err), http.StatusUnprocessableEntity)
		return
	}

	out := outline.Extract(tree)
	w.Header().Set("Content-Type", "application/json")
	if err := out.WriteJSON(w); err != nil {
		s.log.Error("write outline", "filename", name, "error", err)
	}
}
