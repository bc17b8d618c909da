package adapthttp

import (
	"context"
	"log"
	"net/http"
	"time"

	"weighttrack/internal/domain"
)

type contextKey string

const userContextKey contextKey = "user"

// identityMiddleware resolves the forward-auth Remote-User header to a user,
// provisioning it on first sight.
func (s *Server) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := r.Header.Get("Remote-User")
		if s.disableAuth {
			username = defaultUsername
		}
		if username == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		user, err := s.resolveUser(r.Context(), username)
		if err != nil {
			log.Printf("resolve user %q: %v", username, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) resolveUser(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil || user != nil {
		return user, err
	}
	user, err = s.users.Create(ctx, username)
	if err == nil {
		log.Printf("provisioned user %q (id %d)", username, user.ID)
	}
	return user, err
}

// userFromContext returns the user attached by identityMiddleware.
func userFromContext(r *http.Request) *domain.User {
	u, _ := r.Context().Value(userContextKey).(*domain.User)
	return u
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs method, path, status and latency of every request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
