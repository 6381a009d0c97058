package taxrates

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/contractnest/contractnest/internal/platform/httpx"
	"github.com/contractnest/contractnest/internal/shared"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyModule = "tax_rates.create"
)

// Operations is the service surface the handler needs.
type Operations interface {
	List(ctx context.Context, tenantID uuid.UUID) ([]TaxRate, error)
	Create(ctx context.Context, p shared.Principal, in CreateInput) (TaxRate, error)
	Update(ctx context.Context, p shared.Principal, id uuid.UUID, patch Patch) (TaxRate, error)
	Delete(ctx context.Context, p shared.Principal, id uuid.UUID) error
	SetDefault(ctx context.Context, p shared.Principal, id uuid.UUID) ([]TaxRate, error)
}

// Handler wires HTTP endpoints for tax rates.
type Handler struct {
	logger      *slog.Logger
	service     Operations
	idempotency shared.IdempotencyChecker
}

// NewHandler constructs a Handler. idempotency may be nil.
func NewHandler(logger *slog.Logger, service Operations, idempotency shared.IdempotencyChecker) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, idempotency: idempotency}
}

// MountRoutes registers tax rate routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/default", h.setDefault)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	rates, err := h.service.List(r.Context(), p.TenantID)
	if err != nil {
		h.logger.Error("list tax rates failed", slog.Any("error", err), slog.String("tenant_id", p.TenantID.String()))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toListResponse(rates))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.CodedProblem(w, http.StatusBadRequest, "Bad Request", "request body is not valid JSON", httpx.CodeValidation)
		return
	}

	key := r.Header.Get(idempotencyHeader)
	if key != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), p.TenantID, key, idempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.CodedProblem(w, http.StatusConflict, "Duplicate Request", "this request was already processed", CodeDuplicateRequest)
				return
			}
			h.logger.Error("idempotency check failed", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
	}

	created, err := h.service.Create(r.Context(), p, req.input())
	if err != nil {
		if key != "" && h.idempotency != nil {
			if delErr := h.idempotency.Delete(r.Context(), p.TenantID, key); delErr != nil {
				h.logger.Warn("release idempotency key", slog.Any("error", delErr))
			}
		}
		h.logFailure("create tax rate failed", err, "")
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := rateID(w, r)
	if !ok {
		return
	}
	var req patchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.CodedProblem(w, http.StatusBadRequest, "Bad Request", "request body is not valid JSON", httpx.CodeValidation)
		return
	}
	updated, err := h.service.Update(r.Context(), p, id, req.patch())
	if err != nil {
		h.logFailure("update tax rate failed", err, id.String())
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := rateID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), p, id); err != nil {
		h.logFailure("delete tax rate failed", err, id.String())
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setDefault(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := rateID(w, r)
	if !ok {
		return
	}
	rates, err := h.service.SetDefault(r.Context(), p, id)
	if err != nil {
		h.logFailure("set default tax rate failed", err, id.String())
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toListResponse(rates))
}

// logFailure keeps expected business-rule rejections out of the error log.
func (h *Handler) logFailure(msg string, err error, id string) {
	var coded *httpx.Error
	if errors.As(err, &coded) || errors.Is(err, httpx.ErrValidation) {
		h.logger.Info(msg, slog.Any("error", err), slog.String("id", id))
		return
	}
	h.logger.Error(msg, slog.Any("error", err), slog.String("id", id))
}

func principal(w http.ResponseWriter, r *http.Request) (shared.Principal, bool) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return shared.Principal{}, false
	}
	return p, true
}

func rateID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
