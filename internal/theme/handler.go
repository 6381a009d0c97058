package theme

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/contractnest/contractnest/internal/platform/httpx"
)

// Handler serves the registry read-only.
type Handler struct {
	registry *Registry
}

// NewHandler constructs a Handler.
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

type themeSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

// MountRoutes registers theme routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.resolve)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	themes := h.registry.Themes()
	out := make([]themeSummary, 0, len(themes))
	for _, t := range themes {
		out = append(out, themeSummary{ID: t.ID, Name: t.Name, Default: t.ID == h.registry.DefaultID()})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.registry.Lookup(id); !ok {
		httpx.CodedProblem(w, http.StatusNotFound, "Not Found", "unknown theme "+id, httpx.CodeNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, h.registry.Resolve(id, ParseMode(r.URL.Query().Get("mode"))))
}
