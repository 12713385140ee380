package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires HTTP endpoints for the stock ledger.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/stock-transactions", h.handlePost)
	r.Get("/stock-transactions", h.handleList)
	r.Get("/current-stock/{item_id}", h.handleCurrentStock)
}

type postRequest struct {
	ItemID        int64   `json:"item_id" validate:"required"`
	WarehouseID   int64   `json:"warehouse_id"`
	TransType     string  `json:"trans_type" validate:"required,oneof=IN OUT ADJUSTMENT"`
	StockQty      float64 `json:"stock_qty"`
	UnitCost      float64 `json:"unit_cost"`
	ReferenceType string  `json:"reference_type"`
	ReferenceID   int64   `json:"reference_id"`
	Remarks       string  `json:"remarks"`
	CreatedBy     string  `json:"created_by"`
}

type transactionResponse struct {
	TransID       int64     `json:"trans_id"`
	ItemID        int64     `json:"item_id"`
	ItemCode      string    `json:"it_code,omitempty"`
	ItemName      string    `json:"it_name,omitempty"`
	WarehouseID   int64     `json:"warehouse_id,omitempty"`
	WarehouseName string    `json:"whs_name,omitempty"`
	TransType     string    `json:"trans_type"`
	StockQty      float64   `json:"stock_qty"`
	UnitCost      float64   `json:"unit_cost"`
	BalanceQty    float64   `json:"balance_qty"`
	ReferenceType string    `json:"reference_type,omitempty"`
	ReferenceID   int64     `json:"reference_id,omitempty"`
	Remarks       string    `json:"remarks,omitempty"`
	CreatedBy     string    `json:"created_by,omitempty"`
	TransDate     time.Time `json:"trans_date"`
}

func toTransactionResponse(entry Transaction) transactionResponse {
	return transactionResponse{
		TransID:       entry.TransID,
		ItemID:        entry.ItemID,
		ItemCode:      entry.ItemCode,
		ItemName:      entry.ItemName,
		WarehouseID:   entry.WarehouseID,
		WarehouseName: entry.WarehouseName,
		TransType:     string(entry.Type),
		StockQty:      entry.Qty,
		UnitCost:      entry.UnitCost,
		BalanceQty:    entry.BalanceQty,
		ReferenceType: entry.ReferenceType,
		ReferenceID:   entry.ReferenceID,
		Remarks:       entry.Remarks,
		CreatedBy:     entry.CreatedBy,
		TransDate:     entry.TransDate,
	}
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entry, err := h.service.Post(r.Context(), PostInput{
		ItemID:         req.ItemID,
		WarehouseID:    req.WarehouseID,
		Type:           TransactionType(req.TransType),
		Qty:            req.StockQty,
		UnitCost:       req.UnitCost,
		ReferenceType:  req.ReferenceType,
		ReferenceID:    req.ReferenceID,
		Remarks:        req.Remarks,
		CreatedBy:      req.CreatedBy,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.respondError(w, "post stock transaction", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTransactionResponse(entry))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := Filter{}
	q := r.URL.Query()
	if v := q.Get("item_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item_id")
			return
		}
		filter.ItemID = id
	}
	if v := q.Get("warehouse_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid warehouse_id")
			return
		}
		filter.WarehouseID = id
	}
	if v := q.Get("start_date"); v != "" {
		from, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid start_date")
			return
		}
		filter.From = from
	}
	if v := q.Get("end_date"); v != "" {
		to, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid end_date")
			return
		}
		filter.To = to.Add(24*time.Hour - time.Nanosecond)
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}
	entries, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, "list stock transactions", err)
		return
	}
	out := make([]transactionResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toTransactionResponse(entry))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleCurrentStock(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "item_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item_id")
		return
	}
	var warehouseID int64
	if v := r.URL.Query().Get("warehouse_id"); v != "" {
		warehouseID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid warehouse_id")
			return
		}
	}
	balance, err := h.service.CurrentStock(r.Context(), itemID, warehouseID)
	if err != nil {
		h.respondError(w, "current stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"item_id":       itemID,
		"warehouse_id":  warehouseID,
		"current_stock": balance,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidUnitCost):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
