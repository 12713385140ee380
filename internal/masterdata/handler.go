package masterdata

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// Handler wires the reference-read endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs masterdata handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers masterdata routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/masterdata", func(r chi.Router) {
		r.Get("/vendors", h.handleVendors)
		r.Get("/tax-codes", h.handleTaxCodes)
		r.Get("/warehouses", h.handleWarehouses)
		r.Get("/uoms", h.handleUOMs)
		r.Get("/items", h.handleItems)
		r.Get("/employees", h.handleEmployees)
		r.Get("/lookups", h.handleLookups)
	})
}

func (h *Handler) handleVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.service.Vendors(r.Context())
	if err != nil {
		h.respondError(w, "list vendors", err)
		return
	}
	httpx.JSON(w, http.StatusOK, vendors)
}

func (h *Handler) handleTaxCodes(w http.ResponseWriter, r *http.Request) {
	taxes, err := h.service.TaxCodes(r.Context())
	if err != nil {
		h.respondError(w, "list tax codes", err)
		return
	}
	httpx.JSON(w, http.StatusOK, taxes)
}

func (h *Handler) handleWarehouses(w http.ResponseWriter, r *http.Request) {
	warehouses, err := h.service.Warehouses(r.Context())
	if err != nil {
		h.respondError(w, "list warehouses", err)
		return
	}
	httpx.JSON(w, http.StatusOK, warehouses)
}

func (h *Handler) handleUOMs(w http.ResponseWriter, r *http.Request) {
	uoms, err := h.service.UOMs(r.Context())
	if err != nil {
		h.respondError(w, "list uoms", err)
		return
	}
	httpx.JSON(w, http.StatusOK, uoms)
}

func (h *Handler) handleItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Items(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.respondError(w, "list items", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) handleEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.Employees(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.respondError(w, "list employees", err)
		return
	}
	httpx.JSON(w, http.StatusOK, employees)
}

func (h *Handler) handleLookups(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.service.Lookups(r.Context())
	if err != nil {
		h.respondError(w, "load lookup bundle", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bundle)
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	h.logger.Error(action, slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
