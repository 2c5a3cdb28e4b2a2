package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/terraconstructs/geoform/internal/apierror"
	"github.com/terraconstructs/geoform/internal/config"
	"github.com/terraconstructs/geoform/internal/middleware"
	"github.com/terraconstructs/geoform/internal/telemetry"
)

// RouterOptions controls the construction of the geoform HTTP router.
// Zero-valued limits in Server disable the matching middleware.
type RouterOptions struct {
	Accounts      AccountService
	Authn         func(http.Handler) http.Handler
	Responder     *apierror.Responder
	Logger        logrus.FieldLogger
	Server        config.ServerConfig
	Metrics       *telemetry.ServerMetrics // optional
	CORSOptions   *cors.Options
	Middleware    []func(http.Handler) http.Handler
	HealthHandler http.HandlerFunc
}

// DefaultCORSOptions returns the CORS policy for the given origins.
func DefaultCORSOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodPut,
			http.MethodPatch,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Accept", "Content-Type"},
		MaxAge:         300,
	}
}

func healthHandler(log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, log, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// NewRouter assembles a chi.Router with the shared middleware stack and the
// account endpoints mounted. Routes under the protected group run behind
// opts.Authn; sign-in, sign-up and health are public.
func NewRouter(opts RouterOptions) (chi.Router, error) {
	if opts.Accounts == nil {
		return nil, errors.New("router requires an account service")
	}
	if opts.Authn == nil {
		return nil, errors.New("router requires the authentication middleware")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Responder == nil {
		opts.Responder = apierror.NewResponder(opts.Logger)
	}

	r := chi.NewRouter()

	// Baseline middleware shared across entrypoints.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
	}

	corsCfg := DefaultCORSOptions(opts.Server.CORSOrigins)
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	if opts.Server.BodyLimit > 0 {
		r.Use(middleware.BodyLimit(opts.Server.BodyLimit))
	}
	if opts.Server.RateLimit > 0 {
		r.Use(middleware.RateLimit(opts.Server.RateLimit, middleware.DefaultRateLimitQueue, opts.Responder))
	}
	if opts.Server.Timeout > 0 {
		r.Use(middleware.Timeout(opts.Server.Timeout, opts.Responder))
	}

	// Apply custom middleware passed from the caller.
	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		opts.Responder.Write(w, req, apierror.NotFound(MsgRouteNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		opts.Responder.Write(w, req, apierror.MethodNotAllowed(MsgMethodNotAllowed))
	})

	health := opts.HealthHandler
	if health == nil {
		health = healthHandler(opts.Logger)
	}
	r.Get("/health", health)

	h := NewAccountHandlers(opts.Accounts, opts.Responder, opts.Logger)

	// Public
	r.Post("/api/auth/sign-in", h.SignIn)
	r.Post("/api/users", h.SignUp)

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(opts.Authn)
		r.Get("/api/users/me", h.Me)
		r.Get("/api/users", h.FindByUsername)
		r.Get("/api/users/{id}", h.Get)
	})

	return r, nil
}

// NewH2CHandler wraps the router with an h2c server to provide HTTP/2 over
// cleartext alongside HTTP/1.1.
func NewH2CHandler(opts RouterOptions) (http.Handler, error) {
	router, err := NewRouter(opts)
	if err != nil {
		return nil, err
	}
	return h2c.NewHandler(router, &http2.Server{}), nil
}
