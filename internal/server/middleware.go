package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"obraflow/pkg/types"

	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/sirupsen/logrus"
)

// Context key types to avoid collisions
type contextKey string

const contextKeyPrincipal contextKey = "principal"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps the wrapped writer usable for SSE streaming.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

// RequireAuth verifies the session cookie, resolves the principal's
// role, and adds the principal to the request context.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken, err := s.cookies.Read(r)
		if err != nil {
			s.logger.WithError(err).Debug("no usable session cookie")

			s.setRedirectCookie(w, r.URL.Path, time.Minute*5)

			http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
			return
		}

		set, err := s.jwksCache.Lookup(r.Context(), s.jwksURL)
		if err != nil {
			s.logger.WithError(err).Error("failed to fetch JWKS")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		token, err := jwt.Parse(
			[]byte(accessToken),
			jwt.WithKeySet(set),
			jwt.WithValidate(true),
		)
		if err != nil {
			s.logger.WithError(err).Info("failed to parse session JWT")
			s.cookies.Clear(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		uid, ok := token.Subject()
		if !ok || uid == "" {
			s.logger.Error("no user ID in JWT subject claim")
			s.cookies.Clear(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		var email string
		if err := token.Get("email", &email); err != nil {
			s.logger.WithError(err).Debug("no email claim in JWT")
		}

		var name string
		if err := token.Get("name", &name); err != nil {
			name = email
		}

		role, err := s.resolver.Resolve(r.Context(), uid, name)
		if err != nil {
			if errors.Is(err, types.ErrUnknownRole) {
				// unrecognized role: treat as signed out, surface the error
				s.cookies.Clear(w)
				http.Redirect(w, r, "/login?error="+unknownRoleMessage, http.StatusSeeOther)
				return
			}

			s.logger.WithError(err).WithField("uid", uid).Error("failed to resolve role")
			s.internalServerError(w)
			return
		}

		principal := &types.Principal{
			UID:         uid,
			Email:       email,
			DisplayName: name,
			Role:        role,
		}

		ctx := context.WithValue(r.Context(), contextKeyPrincipal, principal)

		s.logger.WithFields(logrus.Fields{
			"uid":  uid,
			"role": role,
		}).Debug("authenticated user")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole sends a principal with the wrong role back through the
// role router at /.
func (s *Service) RequireRole(role types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := s.principalFromContext(r.Context())
			if err != nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			if principal.Role != role {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Only strip if path is not root and has trailing slash
		if path != "/" && strings.HasSuffix(path, "/") {
			newPath := strings.TrimSuffix(path, "/")
			newURL := *r.URL
			newURL.Path = newPath

			http.Redirect(w, r, newURL.String(), http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}
