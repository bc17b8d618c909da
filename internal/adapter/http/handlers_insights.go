package adapthttp

import (
	"errors"
	"net/http"

	"weighttrack/internal/domain"
	"weighttrack/internal/insights"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	d, err := s.svc.Insights.Dashboard(r.Context(), userFromContext(r).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	a, err := s.svc.Insights.Analytics(r.Context(), userFromContext(r).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleTrend serves the chart series. ?recent=N wins over ?from/?to.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	unit := r.URL.Query().Get("unit")
	if unit == "" {
		unit = "kg"
	}
	if unit != "kg" && unit != "lb" {
		writeError(w, http.StatusBadRequest, errors.New(`unit must be "kg" or "lb"`))
		return
	}

	win := insights.Window{Recent: intQuery(r, "recent", 0)}
	if win.Recent == 0 {
		var err error
		if win.From, err = dayQuery(r, "from"); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if win.To, err = dayQuery(r, "to"); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	line, err := s.svc.Insights.Trend(r.Context(), userFromContext(r).ID, win, unit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unit": unit, "labels": line.Labels, "weights": line.Weights})
}

func (s *Server) handleMilestones(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	earned, err := s.svc.Insights.Achievements(r.Context(), userFromContext(r).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": earned})
}

// handleMilestoneSeen handles POST /milestones/{key}/displayed.
func (s *Server) handleMilestoneSeen(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/milestones/")
	if len(parts) != 2 || parts[1] != "displayed" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := s.svc.Insights.MarkDisplayed(r.Context(), userFromContext(r).ID, parts[0]); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("unknown milestone"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
