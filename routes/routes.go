package routes

import (
	"log/slog"
	"net/http"
	"strings"

	_ "github.com/Dosada05/mergington-activities/docs" // registers the swagger spec
	"github.com/Dosada05/mergington-activities/handlers"
	"github.com/Dosada05/mergington-activities/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	StaticDir      string
	AllowedOrigins []string
	Logger         *slog.Logger
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	activityHandler *handlers.ActivityHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Metrics)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.NotFound(handlers.NotFound(logger))

	router.Get("/", handlers.Root)
	router.Get("/healthz", handlers.Healthz(logger))
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	if opts.StaticDir != "" {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		router.Get("/static/*", serveIndexDirectly(fileServer).ServeHTTP)
	}

	router.Route("/activities", func(r chi.Router) {
		r.Get("/", activityHandler.ListActivities)
		r.Get("/{activityName}", activityHandler.GetActivity)
		r.Post("/{activityName}/signup", activityHandler.Signup)
	})

	router.Get("/ws/activities", webSocketHandler.ServeWs)
}

// serveIndexDirectly answers ".../index.html" with the file itself. http.FileServer
// would otherwise redirect it to the directory, and "/" points at that exact URL.
func serveIndexDirectly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/index.html") {
			r2 := r.Clone(r.Context())
			r2.URL.Path = strings.TrimSuffix(r.URL.Path, "index.html")
			r2.URL.RawPath = ""
			next.ServeHTTP(w, r2)
			return
		}
		next.ServeHTTP(w, r)
	})
}
