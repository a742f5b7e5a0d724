package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/teemow/szymon/internal/instrumentation"
)

// DefaultRequestTimeout bounds a request including its Google API calls.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig configures the HTTP surface of the gateway.
type RouterConfig struct {
	Logger         *slog.Logger
	FrontendURL    string
	AllowedOrigins []string
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	StaticDir      string
	AssetsDir      string
	// Tracing wraps the router in an otelhttp server span.
	Tracing bool
	// Now overrides the clock used to pick the current week.
	Now func() time.Time
}

// NewRouter builds the gateway handler.
func NewRouter(sc *ServerContext, health *HealthChecker, cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if health == nil {
		health = NewHealthChecker(sc)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(MetricsMiddleware(sc.Metrics()))
	r.Use(middleware.Recoverer)
	r.Use(RateLimit(NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health.RegisterHealthEndpoints(r)
	r.Get("/favicon.ico", faviconHandler(cfg.AssetsDir))

	auth := &authHandlers{sc: sc, frontendURL: cfg.FrontendURL, logger: cfg.Logger}

	r.Route("/api/tasks", func(r chi.Router) {
		r.Get("/auth/status", auth.status)
		r.Get("/auth/login", auth.login(instrumentation.ServiceTasks))
		r.Get("/auth/callback", auth.callback(instrumentation.ServiceTasks))
		r.Post("/auth/logout", auth.logout)
		(&taskHandlers{sc: sc}).routes(r)
	})

	r.Route("/api/calendar", func(r chi.Router) {
		r.Get("/auth/status", auth.status)
		r.Get("/auth/login", auth.login(instrumentation.ServiceCalendar))
		r.Get("/auth/callback", auth.callback(instrumentation.ServiceCalendar))
		r.Post("/auth/logout", auth.logout)
		(&calendarHandlers{sc: sc}).routes(r)
	})

	r.Get("/api/board", (&boardHandlers{sc: sc, now: cfg.Now}).board)

	if cfg.StaticDir != "" && isDir(cfg.StaticDir) {
		r.NotFound(spaHandler(cfg.StaticDir))
	} else {
		r.NotFound(notFoundJSON)
	}

	if !cfg.Tracing {
		return r
	}
	return otelhttp.NewHandler(r, "szymon",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
