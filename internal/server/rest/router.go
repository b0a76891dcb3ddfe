package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/dmitrijs2005/scanvault/internal/common"
	"github.com/dmitrijs2005/scanvault/internal/server/storage"
)

type RouterOptions struct {
	CORSOrigins []string
	// AuthRateLimit is requests per minute and IP on register/login; 0
	// disables limiting.
	AuthRateLimit int
	// LocalRoot, when set, is served read-only under /uploads.
	LocalRoot string
	Metrics   *Metrics
}

func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition", "Content-Length"},
		MaxAge:         300,
	}))

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	if opts.LocalRoot != "" {
		r.Method(http.MethodGet, storage.LocalURLPrefix+"/*", http.StripPrefix(storage.LocalURLPrefix, filesOnly(http.FileServer(http.Dir(opts.LocalRoot)))))
	}

	r.Get("/health", h.health)

	r.Route(common.APIPrefix, func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if opts.AuthRateLimit > 0 {
					r.Use(httprate.Limit(opts.AuthRateLimit, time.Minute,
						httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
						httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
							writeErrorMessage(w, http.StatusTooManyRequests, "too many requests")
						}),
					))
				}
				r.Post("/register", h.register)
				r.Post("/login", h.login)
			})
			r.With(h.authenticate).Get("/me", h.me)
		})

		r.Route("/scans", func(r chi.Router) {
			// blob endpoints are public so <img> tags and viewers can load them
			r.Get("/{id}/file", h.scanFile)
			r.Get("/{id}/thumbnail", h.scanThumbnail)
			r.Get("/{id}/download", h.scanDownload)
			r.Get("/{id}/file-url", h.scanFileURL)
			r.Get("/{id}/versions/{version}/download", h.versionDownload)

			r.Group(func(r chi.Router) {
				r.Use(h.authenticate)
				r.Get("/", h.listScans)
				r.Get("/search", h.listScans)
				r.Post("/", h.createScan)
				r.Get("/{id}", h.getScan)
				r.Put("/{id}", h.updateScan)
				r.Delete("/{id}", h.deleteScan)
				r.Post("/{id}/versions", h.uploadVersion)
				r.Put("/{id}/thumbnail", h.setThumbnail)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Use(h.authenticate)
			r.Get("/", h.listTags)
			r.Post("/", h.createTag)
			r.Get("/{id}", h.getTag)
			r.Put("/{id}", h.updateTag)
			r.Delete("/{id}", h.deleteTag)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Use(h.authenticate)
			r.Get("/", h.listProjects)
			r.Post("/", h.createProject)
			r.Get("/{id}", h.getProject)
			r.Put("/{id}", h.updateProject)
			r.Delete("/{id}", h.deleteProject)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// filesOnly hides directory listings of a file server.
func filesOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
