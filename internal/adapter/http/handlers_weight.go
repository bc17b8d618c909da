package adapthttp

import (
	"errors"
	"net/http"
	"strconv"

	"weighttrack/internal/app"
	"weighttrack/internal/domain"
)

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFromContext(r)

	switch r.Method {
	case http.MethodGet:
		from, err := dayQuery(r, "from")
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		to, err := dayQuery(r, "to")
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		var items []domain.Observation
		if from.IsZero() && to.IsZero() {
			items, err = s.svc.Weight.ListRecent(ctx, user.ID, intQuery(r, "limit", 14))
		} else {
			items, err = s.svc.Weight.List(ctx, user.ID, domain.ObservationFilter{From: from, To: to})
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case http.MethodPost:
		var body struct {
			Date   string   `json:"date"`
			Weight *float64 `json:"weight"`
			Note   *string  `json:"note"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		in := app.LogInput{Weight: body.Weight, Note: body.Note}
		if body.Date != "" {
			d, err := domain.ParseDay(body.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
				return
			}
			in.Day = d
		}
		res, err := s.svc.Weight.Log(ctx, user.ID, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleObservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFromContext(r)

	parts := pathParts(r, "/observations/")
	if len(parts) != 1 {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid id"))
		return
	}

	switch r.Method {
	case http.MethodPut:
		var body struct {
			Weight      *float64 `json:"weight"`
			ClearWeight bool     `json:"clearWeight"`
			Note        *string  `json:"note"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		var res *app.LogResult
		if body.ClearWeight {
			res, err = s.svc.Weight.ClearWeight(ctx, user.ID, id)
			if err == nil && body.Note != nil {
				res, err = s.svc.Weight.Edit(ctx, user.ID, id, nil, body.Note)
			}
		} else {
			res, err = s.svc.Weight.Edit(ctx, user.ID, id, body.Weight, body.Note)
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)

	case http.MethodDelete:
		refresh, err := s.svc.Weight.Delete(ctx, user.ID, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "refresh": refresh})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFromContext(r)

	switch r.Method {
	case http.MethodGet:
		today, err := s.svc.Weight.GetToday(ctx, user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"checkedIn": today != nil && today.CheckedIn, "entry": today})

	case http.MethodPost:
		var body struct {
			Weight *float64 `json:"weight"`
			Note   *string  `json:"note"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		res, err := s.svc.Weight.CheckIn(ctx, user.ID, body.Weight, body.Note)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFromContext(r)

	switch r.Method {
	case http.MethodGet:
		p, err := s.svc.Profile.Get(ctx, user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, p)

	case http.MethodPut:
		var body app.ProfileInput
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		p, refresh, err := s.svc.Profile.Update(ctx, user.ID, body)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": p, "refresh": refresh})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
