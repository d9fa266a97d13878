// Package web serves the Michigan bands directory: the HTML pages, the JSON write API,
// and the sign-in flows that put a session in front of both.
package web

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/desertthunder/mibands/internal/auth"
	"github.com/desertthunder/mibands/internal/preview"
	"github.com/desertthunder/mibands/internal/repositories"
	"github.com/desertthunder/mibands/internal/server"
	"github.com/desertthunder/mibands/internal/services"
	"github.com/desertthunder/mibands/internal/shared"
)

// mapPageSize is how many bands the map page and marker API load at most.
const mapPageSize = 500

// Options configures an [App]. Config and DB are required.
type Options struct {
	Config *shared.Config
	DB     *sql.DB
	Logger *log.Logger

	// Previews overrides the cached website preview fetcher.
	Previews preview.Source
	// Providers overrides the sign-in providers built from Config.
	Providers map[string]services.IdentityProvider
}

// App holds the repositories and services behind every route.
type App struct {
	cfg       *shared.Config
	bands     *repositories.BandRepository
	profiles  *repositories.ProfileRepository
	users     *repositories.UserRepository
	accounts  *Accounts
	sessions  *auth.SessionManager
	previews  preview.Source
	providers map[string]services.IdentityProvider
	pages     *pages
	logger    *log.Logger
}

// New wires an [App] from opts.
func New(opts Options) (*App, error) {
	if opts.Config == nil || opts.DB == nil {
		return nil, fmt.Errorf("%w: web app needs a config and a database", shared.ErrMissingConfig)
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	cfg := opts.Config

	sessions, err := auth.NewSessionManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL(), cfg.Auth.CookieSecure)
	if err != nil {
		return nil, err
	}

	tmpl, err := parsePages()
	if err != nil {
		return nil, err
	}

	users := repositories.NewUserRepository(opts.DB)
	profiles := repositories.NewProfileRepository(opts.DB)

	previews := opts.Previews
	if previews == nil {
		previews = preview.NewCached(
			preview.NewFetcher(cfg.Preview, cfg.Server.BaseURL),
			repositories.NewPreviewRepository(opts.DB),
			cfg.Preview.CacheTTL(),
			logger.With("component", "preview"),
		)
	}

	providers := opts.Providers
	if providers == nil {
		providers = services.ProvidersFromConfig(cfg.Auth)
	}

	return &App{
		cfg:       cfg,
		bands:     repositories.NewBandRepository(opts.DB),
		profiles:  profiles,
		users:     users,
		accounts:  NewAccounts(users, profiles),
		sessions:  sessions,
		previews:  previews,
		providers: providers,
		pages:     tmpl,
		logger:    logger,
	}, nil
}

// Sessions returns the session manager used to sign cookies.
func (a *App) Sessions() *auth.SessionManager {
	return a.sessions
}

// Handler builds the router with the shared middleware stack and every route mounted.
func (a *App) Handler() http.Handler {
	router := server.NewRouter()
	router.Use(server.Standard(a.logger, a.sessions)...)
	router.NotFound(a.notFound)

	router.Handler(a)
	router.Handler(server.NewOAuthHandler(a.providers, a.sessions, a.accounts, a.logger))
	router.Handle(http.MethodGet, "/metrics", promhttp.Handler())
	return router
}

// Routes registers the pages and the JSON API.
func (a *App) Routes(r chi.Router) {
	r.Get("/", a.home)
	r.Get("/bands/{slug}", a.bandDetail)
	r.Get("/map", a.mapPage)
	r.Get("/sign-in", a.signInPage)
	r.Get("/sign-up", a.signUpPage)
	r.Post("/sign-out", a.signOut)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		server.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(server.RateLimit(a.cfg.RateLimit))
		r.Post("/sign-in", a.signIn)
		r.Post("/sign-up", a.signUp)
	})

	r.Group(func(r chi.Router) {
		r.Use(server.RequireUserPage)
		r.Get("/my-bands", a.myBands)
		r.Get("/submit", a.submitPage)
		r.Post("/submit", a.submit)
		r.Get("/profile", a.profilePage)
		r.Post("/profile", a.saveProfile)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(server.CORS(a.cfg.CORS))
		r.Get("/bands", a.apiListBands)
		r.Get("/bands/{slug}", a.apiGetBand)
		r.Get("/bands/{slug}/preview", a.apiBandPreview)
		r.Get("/map/markers", a.apiMarkers)
		r.Post("/links/normalize", a.apiNormalizeLinks)

		r.Group(func(r chi.Router) {
			r.Use(server.RateLimit(a.cfg.RateLimit))
			r.Post("/admin/add-band", a.apiAdminAddBand)

			r.Group(func(r chi.Router) {
				r.Use(server.RequireUser)
				r.Post("/bands/add", a.apiAddBand)
				r.Patch("/bands/update", a.apiUpdateBand)
				r.Post("/profile/upsert", a.apiUpsertProfile)
			})
		})
	})
}

func (a *App) pageSize() int {
	return a.cfg.Listing.PageSize
}
