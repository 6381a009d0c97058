package tenantprofile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/contractnest/contractnest/internal/platform/httpx"
	"github.com/contractnest/contractnest/internal/shared"
)

const logoField = "logo"

// Operations is the service surface the handler needs.
type Operations interface {
	Get(ctx context.Context, tenantID uuid.UUID) (Profile, error)
	Save(ctx context.Context, p shared.Principal, profile Profile) (Profile, error)
	UploadLogo(ctx context.Context, p shared.Principal, filename string, r io.Reader) (string, error)
}

// Handler wires HTTP endpoints for the tenant profile and its pickers.
type Handler struct {
	logger       *slog.Logger
	service      Operations
	maxLogoBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service Operations, maxLogoBytes int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxLogoBytes <= 0 {
		maxLogoBytes = DefaultLogoMaxBytes
	}
	return &Handler{logger: logger, service: service, maxLogoBytes: maxLogoBytes}
}

// MountRoutes registers /tenant routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/profile", h.get)
	r.Put("/profile", h.save)
	r.Post("/logo", h.uploadLogo)
}

// MountCatalog registers picker routes, typically under /catalog.
func (h *Handler) MountCatalog(r chi.Router) {
	r.Get("/business-types", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, listResponse[BusinessType]{Data: BusinessTypes()})
	})
	r.Get("/industries", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, listResponse[Industry]{Data: Industries()})
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	profile, err := h.service.Get(r.Context(), p.TenantID)
	if err != nil {
		if !errors.Is(err, httpx.ErrNotFound) {
			h.logger.Error("get tenant profile failed", slog.Any("error", err), slog.String("tenant_id", p.TenantID.String()))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.CodedProblem(w, http.StatusBadRequest, "Bad Request", "request body is not valid JSON", httpx.CodeValidation)
		return
	}
	saved, err := h.service.Save(r.Context(), p, req.profile())
	if err != nil {
		if errors.Is(err, httpx.ErrValidation) {
			h.logger.Info("save tenant profile rejected", slog.Any("error", err), slog.String("tenant_id", p.TenantID.String()))
		} else {
			h.logger.Error("save tenant profile failed", slog.Any("error", err), slog.String("tenant_id", p.TenantID.String()))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

func (h *Handler) uploadLogo(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	// Multipart framing adds a little on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxLogoBytes+64<<10)
	if err := r.ParseMultipartForm(h.maxLogoBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.CodedProblem(w, http.StatusRequestEntityTooLarge, "Payload Too Large", "logo upload is too large", CodeLogoTooLarge)
			return
		}
		httpx.CodedProblem(w, http.StatusBadRequest, "Bad Request", "expected a multipart form", CodeLogoMissing)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()
	file, header, err := r.FormFile(logoField)
	if err != nil {
		httpx.CodedProblem(w, http.StatusBadRequest, "Bad Request", "form field \"logo\" is required", CodeLogoMissing)
		return
	}
	defer file.Close()

	url, err := h.service.UploadLogo(r.Context(), p, header.Filename, file)
	if err != nil {
		if errors.Is(err, httpx.ErrValidation) {
			h.logger.Info("logo upload rejected", slog.Any("error", err), slog.String("filename", header.Filename))
		} else {
			h.logger.Error("logo upload failed", slog.Any("error", err), slog.String("tenant_id", p.TenantID.String()))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, logoResponse{URL: url})
}

func principal(w http.ResponseWriter, r *http.Request) (shared.Principal, bool) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return shared.Principal{}, false
	}
	return p, true
}
