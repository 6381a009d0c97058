package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/contractnest/contractnest/internal/auth"
	"github.com/contractnest/contractnest/internal/observability"
	"github.com/contractnest/contractnest/internal/taxrates"
	"github.com/contractnest/contractnest/internal/tenantprofile"
	"github.com/contractnest/contractnest/internal/theme"
	"github.com/contractnest/contractnest/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	Authenticator auth.Authenticator
	TaxRates      *taxrates.Handler
	Profile       *tenantprofile.Handler
	Themes        *theme.Handler
	Jobs          *jobs.Handler
	Metrics       *observability.Metrics
}

// NewRouter constructs the chi.Router with the API and operational routes.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.Jobs != nil {
		r.Route("/jobs", params.Jobs.MountRoutes)
	}
	if params.Config != nil && params.Config.MediaDir != "" {
		media := http.StripPrefix("/media/", http.FileServer(filesOnly{http.Dir(params.Config.MediaDir)}))
		r.Handle("/media/*", mediaCacheHandler(media))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Themes are static and readable before a token exists.
		if params.Themes != nil {
			r.Route("/themes", params.Themes.MountRoutes)
		}
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(params.Authenticator, params.Logger))
			if params.TaxRates != nil {
				r.Route("/tax-rates", params.TaxRates.MountRoutes)
			}
			if params.Profile != nil {
				r.Route("/tenant", params.Profile.MountRoutes)
				r.Route("/catalog", params.Profile.MountCatalog)
			}
		})
	})

	return r
}

// mediaCacheHandler serves uploaded logos with a day of browser caching. File
// names are unique per upload so stale entries are never served.
func mediaCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

// filesOnly hides directories so media listings are never served.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}
