package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/logbook/internal/core"
	"github.com/JonMunkholm/logbook/internal/logging"
	"github.com/JonMunkholm/logbook/internal/web/templates"
)

// multipartMemory is the part of an upload kept in memory while parsing the
// form; the rest spills to disk.
const multipartMemory = 8 << 20

type setMappingRequest struct {
	Mappings []core.FieldMapping `json:"mappings" validate:"required,min=1,dive"`
}

type saveTemplateRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type commitRequest struct {
	SkipZeroTime *bool `json:"skipZeroTime"`
}

// handleOpenImport reads an uploaded logbook and starts a wizard session.
func (s *Server) handleOpenImport(w http.ResponseWriter, r *http.Request) {
	// Allow for multipart framing on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.respondError(w, r, &requestError{status: http.StatusRequestEntityTooLarge, msg: "file too large or invalid form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, badRequest("no file provided"))
		return
	}
	defer file.Close()

	view, err := s.service.Open(r.Context(), header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "import_id", view.ID).Info("import opened",
		"file", header.Filename,
		"kind", view.Kind,
		"step", view.Step,
	)
	writeJSONStatus(w, r, http.StatusCreated, view)
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, view)
}

func (s *Server) handleCloseImport(w http.ResponseWriter, r *http.Request) {
	s.service.Close(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// handleSetMapping replaces the column mappings of a generic import.
func (s *Server) handleSetMapping(w http.ResponseWriter, r *http.Request) {
	var req setMappingRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	view, err := s.service.SetMappings(chi.URLParam(r, "id"), req.Mappings)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, view)
}

// handleSaveMappingTemplate stores the session's current mappings for reuse.
func (s *Server) handleSaveMappingTemplate(w http.ResponseWriter, r *http.Request) {
	var req saveTemplateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	tmpl, err := s.service.SaveTemplate(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSONStatus(w, r, http.StatusCreated, tmpl)
}

// handlePreview parses the file and returns the report, as a fragment for
// HTMX requests.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := s.service.Preview(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.PreviewReport(id, *report).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render preview", "error", err)
		}
		return
	}
	writeJSON(w, r, report)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	step, err := s.service.Back(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]core.Step{"step": step})
}

// handleCommit imports the previewed flights. The body is optional; without
// it the configured skip-zero-time default applies.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	opts := core.CommitOptions{SkipZeroTime: s.cfg.Import.SkipZeroTime}
	if r.ContentLength != 0 {
		var req commitRequest
		if err := s.decodeJSON(r, &req); err != nil {
			s.respondError(w, r, err)
			return
		}
		if req.SkipZeroTime != nil {
			opts.SkipZeroTime = *req.SkipZeroTime
		}
	}

	result, err := s.service.Commit(r.Context(), chi.URLParam(r, "id"), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.ImportSummary(*result).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render import summary", "error", err)
		}
		return
	}
	writeJSON(w, r, result)
}
