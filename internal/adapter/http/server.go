package adapthttp

import (
	"context"
	"log"
	"net/http"
	"time"

	"weighttrack/internal/app"
	"weighttrack/internal/domain"
)

// defaultUsername is the identity used when auth is disabled.
const defaultUsername = "local"

// Services bundles the application services the adapter drives.
type Services struct {
	Weight   *app.WeightService
	Profile  *app.ProfileService
	Insights *app.InsightsService
	Summary  *app.SummaryService
	Import   *app.ImportService
}

// pinger is implemented by stores that can report their own reachability.
type pinger interface {
	Ping(ctx context.Context) error
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	svc         Services
	users       domain.UserRepository
	webDir      string
	disableAuth bool
}

// New creates a Server wired to the given application services. Requests are
// attributed to the user named by the forward-auth Remote-User header. An
// empty webDir serves the API only.
func New(svc Services, users domain.UserRepository, webDir string) *Server {
	return &Server{svc: svc, users: users, webDir: webDir}
}

// WithoutAuth attributes every request to a single local user.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/profile", s.handleProfile)

	api.HandleFunc("/observations", s.handleObservations)
	api.HandleFunc("/observations/", s.handleObservation)
	api.HandleFunc("/check-in", s.handleCheckIn)

	api.HandleFunc("/insights/dashboard", s.handleDashboard)
	api.HandleFunc("/insights/analytics", s.handleAnalytics)
	api.HandleFunc("/insights/trend", s.handleTrend)

	api.HandleFunc("/milestones", s.handleMilestones)
	api.HandleFunc("/milestones/", s.handleMilestoneSeen)

	api.HandleFunc("/summaries", s.handleSummaries)
	api.HandleFunc("/summaries/", s.handleSummaryChecked)

	api.HandleFunc("/import", s.handleImport)
	api.HandleFunc("/export", s.handleExport)

	root := http.NewServeMux()
	root.HandleFunc("/api/health", s.handleHealth)
	root.Handle("/api/", http.StripPrefix("/api", s.identityMiddleware(api)))
	if s.webDir != "" {
		root.Handle("/", spaFromDisk(s.webDir))
	}

	return s.loggingMiddleware(withNoCache(root))
}

// handleHealth reports whether the backing store answers a ping.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.users.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			log.Printf("health: ping failed: %v", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "database unreachable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
