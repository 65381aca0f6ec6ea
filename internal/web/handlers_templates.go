package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/logbook/internal/core"
)

type createTemplateRequest struct {
	Name     string              `json:"name" validate:"required,max=100"`
	Headers  []string            `json:"headers" validate:"required,min=1,dive,required"`
	Mappings []core.FieldMapping `json:"mappings" validate:"required,min=1,dive"`
}

// handleDownloadTemplate returns a blank logbook CSV in the requested layout.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	data, filename, err := core.DownloadTemplate(chi.URLParam(r, "kind"))
	if err != nil {
		s.respondError(w, r, &requestError{status: http.StatusNotFound, msg: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	_, _ = w.Write(data)
}

// handleListMappingTemplates returns saved mappings. With ?headers=a,b,c the
// templates are scored against those headers instead.
func (s *Server) handleListMappingTemplates(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("headers"); raw != "" {
		headers := strings.Split(raw, ",")
		for i := range headers {
			headers[i] = strings.TrimSpace(headers[i])
		}
		matches, err := s.service.MatchTemplates(r.Context(), headers)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, r, matches)
		return
	}

	list, err := s.service.ListTemplates(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, list)
}

func (s *Server) handleCreateMappingTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	tmpl, err := s.service.CreateTemplate(r.Context(), req.Name, req.Headers, req.Mappings)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSONStatus(w, r, http.StatusCreated, tmpl)
}
