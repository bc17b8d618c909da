package adapthttp

import (
	"errors"
	"net/http"
	"strconv"
)

func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	items, err := s.svc.Summary.List(r.Context(), userFromContext(r).ID, intQuery(r, "limit", 52))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// handleSummaryChecked handles POST /summaries/{id}/checked.
func (s *Server) handleSummaryChecked(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/summaries/")
	if len(parts) != 2 || parts[1] != "checked" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid id"))
		return
	}
	if err := s.svc.Summary.MarkChecked(r.Context(), userFromContext(r).ID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
