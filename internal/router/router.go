package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/aDarkMaker/JoinUs/internal/auth"
	"github.com/aDarkMaker/JoinUs/internal/handler"
	mw "github.com/aDarkMaker/JoinUs/internal/middleware"
)

// Options carries the settings the router needs besides handlers.
type Options struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// JWTSecret protects the admin routes; empty leaves them open.
	JWTSecret string
}

func New(
	opts Options,
	authH *handler.AuthHandler,
	formH *handler.FormHandler,
	subH *handler.SubmissionHandler,
	exportH *handler.ExportHandler,
	searchH *handler.SearchHandler,
	dashH *handler.DashboardHandler,
	healthH *handler.HealthHandler,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Recovery(opts.Logger))
	r.Use(mw.Logger(opts.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		// The widget reads X-Duplicate to offer an overwrite.
		ExposedHeaders: []string{"X-Duplicate"},
		MaxAge:         300,
	}))

	r.Get("/", formH.Page)
	r.Get("/form.json", formH.Config)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", healthH.Health)
		r.Post("/submit", subH.Submit)
		r.Post("/auth/login", authH.Login)

		// Admin routes
		r.Group(func(r chi.Router) {
			if opts.JWTSecret != "" {
				r.Use(auth.Middleware(opts.JWTSecret))
			}
			r.Get("/export", exportH.Export)
			r.Get("/submissions", searchH.List)
			r.Get("/dashboard", dashH.Dashboard)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"ok":false,"error":"not found"}`))
	})

	return r
}
