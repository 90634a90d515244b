// Package business serves the listing screens: add, edit, admin review and
// the public approved view.
package business

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/synapse-directory/synapse/internal/audit"
	"github.com/synapse-directory/synapse/internal/directory"
	"github.com/synapse-directory/synapse/internal/location"
	"github.com/synapse-directory/synapse/internal/shared"
	"github.com/synapse-directory/synapse/internal/view"
)

// Directory is the Directory API as seen by the screens.
type Directory interface {
	directory.Lister
	directory.Submitter
	directory.Decider
}

// Deps groups the collaborators of Handler.
type Deps struct {
	Logger    *slog.Logger
	Templates *view.Engine
	CSRF      *shared.CSRFManager
	Directory Directory
	// Guard serialises submissions and decisions across requests.
	Guard directory.Guard
	// Scheduler runs the delayed post-decision refresh; nil disables it.
	Scheduler    directory.Scheduler
	History      *audit.Recorder
	Maps         location.MapProvider
	MapsAPIKey   string
	RefreshDelay time.Duration
	// MapWait bounds how long a form render waits for the map provider.
	MapWait time.Duration
}

// Handler wires the listing screens.
type Handler struct {
	logger       *slog.Logger
	templates    *view.Engine
	csrf         *shared.CSRFManager
	directory    Directory
	guard        directory.Guard
	scheduler    directory.Scheduler
	history      *audit.Recorder
	maps         location.MapProvider
	mapsAPIKey   string
	refreshDelay time.Duration
	mapWait      time.Duration
	validator    *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(deps Deps) *Handler {
	h := &Handler{
		logger:       deps.Logger,
		templates:    deps.Templates,
		csrf:         deps.CSRF,
		directory:    deps.Directory,
		guard:        deps.Guard,
		scheduler:    deps.Scheduler,
		history:      deps.History,
		maps:         deps.Maps,
		mapsAPIKey:   deps.MapsAPIKey,
		refreshDelay: deps.RefreshDelay,
		mapWait:      deps.MapWait,
		validator:    newFormValidator(),
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.guard == nil {
		h.guard = directory.NewMemoryGuard()
	}
	if h.maps == nil {
		h.maps = location.StaticProvider{}
	}
	if h.refreshDelay < 0 {
		h.refreshDelay = directory.DefaultRefreshDelay
	}
	if h.mapWait <= 0 {
		h.mapWait = 3 * time.Second
	}
	return h
}

// MountRoutes registers the screens on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.home)

	r.Route("/businesses", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/new", h.newForm)
		r.Get("/{id}/edit", h.editForm)
		r.Post("/{id}", h.update)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/", h.admin)
		r.Post("/{id}/approve", h.approve)
		r.Post("/{id}/reject", h.reject)
	})

	r.Get("/approved", h.approved)

	r.Route("/location", func(r chi.Router) {
		r.Get("/default", h.locationDefault)
		r.Get("/search", h.locationSearch)
		r.Post("/pick", h.locationPick)
	})

	r.Get("/api/businesses", h.apiList)
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/home.html", "Project Synapse", nil, http.StatusOK)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data map[string]any, status int) {
	h.renderPage(w, r, template, view.TemplateData{Title: title, Data: data}, status)
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, template string, page view.TemplateData, status int) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		page.CSRFToken, _ = h.csrf.EnsureToken(r.Context(), sess)
		page.Flash = sess.PopFlash()
	}
	page.CurrentPath = r.URL.Path
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, page); err != nil {
		h.logger.Error("render template", slog.String("template", template), slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// load fetches the listing through a fresh Loader. Screens never share
// listing state across requests.
func (h *Handler) load(ctx context.Context) directory.State {
	loader := directory.NewLoader(h.directory)
	if _, err := loader.Load(ctx); err != nil {
		h.logger.Warn("load businesses", slog.Any("error", err))
	}
	return loader.State()
}

func refreshSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
