package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/texgallery/renderd/domain/job"
)

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req job.CompileRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.renderer.Compile(r.Context(), req)
	if err != nil {
		writeFailure(w, err)
		return
	}

	if req.Recorder && len(result.Dependencies) > 0 {
		writeJSON(w, http.StatusOK, struct {
			Dependencies []string `json:"dependencies"`
			PDF          []byte   `json:"pdf"`
			Log          string   `json:"log"`
		}{result.Dependencies, result.PDF, result.Log})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.PDF)
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req job.ThumbnailRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	img, err := s.renderer.Thumbnail(r.Context(), req)
	if err != nil {
		writeFailure(w, err)
		return
	}

	if req.Format == job.FormatJPEG {
		w.Header().Set("Content-Type", "image/jpeg")
	} else {
		w.Header().Set("Content-Type", "image/png")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req job.ArchiveRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.renderer.Archive(r.Context(), req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody reads a size-capped JSON body into dst, reporting a
// validation failure to the client on any decoding problem.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "validation", "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "validation", "malformed request body")
		return false
	}
	return true
}
