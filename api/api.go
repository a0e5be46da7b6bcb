// Package api exposes the authentication service over HTTP. Handlers
// stay thin: they decode, call the session service, and map errors; all
// flow logic lives in the session package.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/gskelton/gatehouse/session"
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	sessions  *session.Service
	recaptcha RecaptchaVerifier
	logger    *slog.Logger
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithRecaptcha enables reCAPTCHA verification on signup. When not set,
// signup skips the check.
func WithRecaptcha(verifier RecaptchaVerifier) Option {
	return func(a *API) {
		a.recaptcha = verifier
	}
}

// WithLogger sets the structured logger for request-level events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// New creates a new API instance.
func New(sessions *session.Service, opts ...Option) *API {
	a := &API{sessions: sessions}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/openapi.yaml",
		Path:    "docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/openapi.yaml",
		Path:    "redoc",
	}, nil))

	r.Post("/signup", a.Signup)
	r.Post("/login", a.Login)
	r.Post("/verify-2fa", a.Verify2FA)
	r.Post("/logout", a.Logout)
	r.Post("/verify-token", a.VerifyToken)
	r.Delete("/users/{email}", a.DeleteUser)

	return r
}
