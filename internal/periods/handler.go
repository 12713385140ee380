package periods

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for posting periods.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs periods handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers period routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/posting-periods", h.handleCreate)
	r.Get("/posting-periods", h.handleList)
	r.Get("/posting-periods/{period_id}", h.handleGet)
	r.Put("/posting-periods/{period_id}", h.handleUpdate)
	r.Patch("/posting-periods/{period_id}/status", h.handleSetStatus)
	r.Delete("/posting-periods/{period_id}", h.handleDelete)
	r.Get("/current-posting-period", h.handleCurrent)
}

type periodRequest struct {
	PeriodCode               string `json:"period_code" validate:"required"`
	PeriodName               string `json:"period_name" validate:"required"`
	StartDate                string `json:"start_date" validate:"required"`
	EndDate                  string `json:"end_date" validate:"required"`
	FiscalYear               int    `json:"fiscal_year" validate:"required"`
	PeriodMonth              int    `json:"period_month" validate:"required,min=1,max=12"`
	PeriodStatus             string `json:"period_status" validate:"omitempty,oneof=Open Closed Future"`
	AllowPosting             bool   `json:"allow_posting"`
	AllowGoodsReceipt        bool   `json:"allow_goods_receipt"`
	AllowGoodsIssue          bool   `json:"allow_goods_issue"`
	AllowInvoiceVerification bool   `json:"allow_invoice_verification"`
	CreatedBy                string `json:"created_by"`
	UpdatedBy                string `json:"updated_by"`
}

func (h *Handler) decodePeriod(w http.ResponseWriter, r *http.Request) (periodRequest, time.Time, time.Time, bool) {
	var req periodRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return req, time.Time{}, time.Time{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return req, time.Time{}, time.Time{}, false
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid start_date")
		return req, time.Time{}, time.Time{}, false
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid end_date")
		return req, time.Time{}, time.Time{}, false
	}
	return req, start, end, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, start, end, ok := h.decodePeriod(w, r)
	if !ok {
		return
	}
	period, err := h.service.Create(r.Context(), CreateInput{
		PeriodCode:               req.PeriodCode,
		PeriodName:               req.PeriodName,
		StartDate:                start,
		EndDate:                  end,
		FiscalYear:               req.FiscalYear,
		PeriodMonth:              req.PeriodMonth,
		Status:                   Status(req.PeriodStatus),
		AllowPosting:             req.AllowPosting,
		AllowGoodsReceipt:        req.AllowGoodsReceipt,
		AllowGoodsIssue:          req.AllowGoodsIssue,
		AllowInvoiceVerification: req.AllowInvoiceVerification,
		CreatedBy:                req.CreatedBy,
	})
	if err != nil {
		h.respondError(w, "create posting period", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, period)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	periodID, err := strconv.ParseInt(chi.URLParam(r, "period_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid period_id")
		return
	}
	req, start, end, ok := h.decodePeriod(w, r)
	if !ok {
		return
	}
	period, err := h.service.Update(r.Context(), periodID, UpdateInput{
		PeriodCode:               req.PeriodCode,
		PeriodName:               req.PeriodName,
		StartDate:                start,
		EndDate:                  end,
		FiscalYear:               req.FiscalYear,
		PeriodMonth:              req.PeriodMonth,
		Status:                   Status(req.PeriodStatus),
		AllowPosting:             req.AllowPosting,
		AllowGoodsReceipt:        req.AllowGoodsReceipt,
		AllowGoodsIssue:          req.AllowGoodsIssue,
		AllowInvoiceVerification: req.AllowInvoiceVerification,
		UpdatedBy:                req.UpdatedBy,
	})
	if err != nil {
		h.respondError(w, "update posting period", err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

type statusRequest struct {
	PeriodStatus string `json:"period_status" validate:"required,oneof=Open Closed Future"`
	UpdatedBy    string `json:"updated_by"`
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	periodID, err := strconv.ParseInt(chi.URLParam(r, "period_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid period_id")
		return
	}
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	period, err := h.service.SetStatus(r.Context(), periodID, Status(req.PeriodStatus), req.UpdatedBy)
	if err != nil {
		h.respondError(w, "set posting period status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	periodID, err := strconv.ParseInt(chi.URLParam(r, "period_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid period_id")
		return
	}
	period, err := h.service.Get(r.Context(), periodID)
	if err != nil {
		h.respondError(w, "get posting period", err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := Filter{}
	q := r.URL.Query()
	if v := q.Get("fiscal_year"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.FiscalYear = n
		}
	}
	if v := q.Get("period_status"); v != "" {
		filter.Status = Status(v)
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
	periods, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, "list posting periods", err)
		return
	}
	httpx.JSON(w, http.StatusOK, periods)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	periodID, err := strconv.ParseInt(chi.URLParam(r, "period_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid period_id")
		return
	}
	if err := h.service.Delete(r.Context(), periodID); err != nil {
		h.respondError(w, "delete posting period", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "posting period deleted"})
}

func (h *Handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	period, err := h.service.Current(r.Context())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no open posting period covers today")
			return
		}
		h.respondError(w, "current posting period", err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicateCode):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrOverlap), errors.Is(err, ErrValidation), errors.Is(err, ErrPostingClosed):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
