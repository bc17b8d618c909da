package adapthttp

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

// maxImportBytes caps the size of an uploaded CSV.
const maxImportBytes = 5 << 20

// handleImport accepts a raw CSV body (Content-Type text/csv).
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	report, err := s.svc.Import.Import(r.Context(), user.ID, r.Body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("import exceeds %d bytes", tooBig.Limit))
			return
		}
		writeServiceError(w, err)
		return
	}
	log.Printf("import: user %d imported %d rows, backfilled %d, skipped %d",
		user.ID, report.Imported, report.Backfilled, len(report.Skipped))
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r)
	name := fmt.Sprintf("weights-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := s.svc.Import.Export(r.Context(), user.ID, w); err != nil {
		// Headers are already out; the truncated body is all the client gets.
		log.Printf("export: user %d: %v", user.ID, err)
	}
}
