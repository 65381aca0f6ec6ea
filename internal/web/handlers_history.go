package web

import (
	"net/http"

	"github.com/JonMunkholm/logbook/internal/core"
)

// maxHistoryLimit caps ?limit on the history endpoint.
const maxHistoryLimit = 500

// handleHistory lists recent import runs, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := min(parseIntParam(r, "limit", core.DefaultHistoryLimit), maxHistoryLimit)

	runs, err := s.service.History(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, runs)
}
