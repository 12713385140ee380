package procurement

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

// Handler wires HTTP endpoints for requisitions and orders.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs procurement handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers procurement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/purchase-requests", h.handleCreatePR)
	r.Get("/purchase-requests", h.handleListPRs)
	r.Get("/purchase-requests/approved", h.handleListApprovedPRs)
	r.Get("/purchase-requests/{req_id}", h.handleGetPR)
	r.Put("/purchase-requests/{req_id}", h.handleUpdatePR)
	r.Put("/purchase-requests/{req_id}/status", h.handleSetPRStatus)
	r.Delete("/purchase-requests/{req_id}", h.handleDeletePR)

	r.Post("/purchase-orders", h.handleCreatePO)
	r.Post("/purchase-orders/convert-from-pr", h.handleConvert)
	r.Get("/purchase-orders", h.handleListPOs)
	r.Get("/purchase-orders/{po_id}", h.handleGetPO)
	r.Put("/purchase-orders/{po_id}", h.handleUpdatePO)
	r.Put("/purchase-orders/{po_id}/status", h.handleSetPOStatus)
	r.Delete("/purchase-orders/{po_id}", h.handleDeletePO)
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type prRowRequest struct {
	LineNo   int     `json:"line_no" validate:"required,min=1"`
	ItemID   int64   `json:"it_id" validate:"required"`
	NeedDate string  `json:"need_date"`
	ReqQty   float64 `json:"req_qty" validate:"required,gt=0"`
}

type prRequest struct {
	EmpCode   string         `json:"emp_code" validate:"required"`
	PostDate  string         `json:"post_dt"`
	DocDate   string         `json:"doc_dt"`
	Priority  string         `json:"priority"`
	Remarks   string         `json:"remarks"`
	CreatedBy string         `json:"created_by"`
	UpdatedBy string         `json:"updated_by"`
	Rows      []prRowRequest `json:"rows" validate:"required,min=1,dive"`
}

func (h *Handler) decodePR(w http.ResponseWriter, r *http.Request) (prRequest, time.Time, time.Time, []PRRowInput, bool) {
	var req prRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return req, time.Time{}, time.Time{}, nil, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return req, time.Time{}, time.Time{}, nil, false
	}
	postDate, ok := parseDate(req.PostDate)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid post_dt")
		return req, time.Time{}, time.Time{}, nil, false
	}
	docDate, ok := parseDate(req.DocDate)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid doc_dt")
		return req, time.Time{}, time.Time{}, nil, false
	}
	rows := make([]PRRowInput, 0, len(req.Rows))
	for _, row := range req.Rows {
		needDate, ok := parseDate(row.NeedDate)
		if !ok {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid need_date on line "+strconv.Itoa(row.LineNo))
			return req, time.Time{}, time.Time{}, nil, false
		}
		rows = append(rows, PRRowInput{LineNo: row.LineNo, ItemID: row.ItemID, NeedDate: needDate, ReqQty: row.ReqQty})
	}
	return req, postDate, docDate, rows, true
}

func (h *Handler) handleCreatePR(w http.ResponseWriter, r *http.Request) {
	req, postDate, docDate, rows, ok := h.decodePR(w, r)
	if !ok {
		return
	}
	pr, err := h.service.CreatePR(r.Context(), CreatePRInput{
		EmpCode:   req.EmpCode,
		PostDate:  postDate,
		DocDate:   docDate,
		Priority:  req.Priority,
		Remarks:   req.Remarks,
		CreatedBy: req.CreatedBy,
		Rows:      rows,
	})
	if err != nil {
		h.respondError(w, "create purchase request", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, pr)
}

func (h *Handler) handleUpdatePR(w http.ResponseWriter, r *http.Request) {
	reqID, err := strconv.ParseInt(chi.URLParam(r, "req_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid req_id")
		return
	}
	req, postDate, docDate, rows, ok := h.decodePR(w, r)
	if !ok {
		return
	}
	pr, err := h.service.UpdatePR(r.Context(), reqID, UpdatePRInput{
		EmpCode:   req.EmpCode,
		PostDate:  postDate,
		DocDate:   docDate,
		Priority:  req.Priority,
		Remarks:   req.Remarks,
		UpdatedBy: req.UpdatedBy,
		Rows:      rows,
	})
	if err != nil {
		h.respondError(w, "update purchase request", err)
		return
	}
	httpx.JSON(w, http.StatusOK, pr)
}

type prStatusRequest struct {
	Status    string `json:"req_status" validate:"required"`
	UpdatedBy string `json:"updated_by"`
}

func (h *Handler) handleSetPRStatus(w http.ResponseWriter, r *http.Request) {
	reqID, err := strconv.ParseInt(chi.URLParam(r, "req_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid req_id")
		return
	}
	var req prStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	pr, err := h.service.SetPRStatus(r.Context(), reqID, PRStatus(req.Status), req.UpdatedBy)
	if err != nil {
		h.respondError(w, "set purchase request status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, pr)
}

func (h *Handler) handleGetPR(w http.ResponseWriter, r *http.Request) {
	reqID, err := strconv.ParseInt(chi.URLParam(r, "req_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid req_id")
		return
	}
	pr, err := h.service.GetPR(r.Context(), reqID)
	if err != nil {
		h.respondError(w, "get purchase request", err)
		return
	}
	httpx.JSON(w, http.StatusOK, pr)
}

func (h *Handler) handleListPRs(w http.ResponseWriter, r *http.Request) {
	filter := PRFilter{}
	q := r.URL.Query()
	if v := q.Get("req_status"); v != "" {
		filter.Status = PRStatus(v)
	}
	if v := q.Get("emp_code"); v != "" {
		filter.EmpCode = v
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
	prs, err := h.service.ListPRs(r.Context(), filter)
	if err != nil {
		h.respondError(w, "list purchase requests", err)
		return
	}
	httpx.JSON(w, http.StatusOK, prs)
}

func (h *Handler) handleListApprovedPRs(w http.ResponseWriter, r *http.Request) {
	prs, err := h.service.ListApprovedPRs(r.Context())
	if err != nil {
		h.respondError(w, "list approved purchase requests", err)
		return
	}
	httpx.JSON(w, http.StatusOK, prs)
}

func (h *Handler) handleDeletePR(w http.ResponseWriter, r *http.Request) {
	reqID, err := strconv.ParseInt(chi.URLParam(r, "req_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid req_id")
		return
	}
	if err := h.service.DeletePR(r.Context(), reqID); err != nil {
		h.respondError(w, "delete purchase request", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "purchase request deleted"})
}

type poRowRequest struct {
	LineNo          int     `json:"line_no" validate:"required,min=1"`
	ItemID          int64   `json:"it_id" validate:"required"`
	UOMID           int64   `json:"uom_id"`
	ReqQty          float64 `json:"req_qty" validate:"required,gt=0"`
	NeedDate        string  `json:"need_date"`
	UnitPrice       float64 `json:"unit_price" validate:"gte=0"`
	DiscountPercent float64 `json:"discount_percent" validate:"gte=0,lte=100"`
	TaxCode         string  `json:"tax_code"`
	WarehouseID     int64   `json:"whs_id"`
}

type poRequest struct {
	BPCode    string         `json:"bpcode" validate:"required"`
	EmpCode   string         `json:"emp_code"`
	PostDate  string         `json:"post_dt"`
	DocDate   string         `json:"doc_dt"`
	Remarks   string         `json:"remarks"`
	CreatedBy string         `json:"created_by"`
	UpdatedBy string         `json:"updated_by"`
	Rows      []poRowRequest `json:"rows" validate:"required,min=1,dive"`
}

func (h *Handler) decodePO(w http.ResponseWriter, r *http.Request) (poRequest, time.Time, time.Time, []PORowInput, bool) {
	var req poRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return req, time.Time{}, time.Time{}, nil, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return req, time.Time{}, time.Time{}, nil, false
	}
	postDate, ok := parseDate(req.PostDate)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid post_dt")
		return req, time.Time{}, time.Time{}, nil, false
	}
	docDate, ok := parseDate(req.DocDate)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid doc_dt")
		return req, time.Time{}, time.Time{}, nil, false
	}
	rows := make([]PORowInput, 0, len(req.Rows))
	for _, row := range req.Rows {
		needDate, ok := parseDate(row.NeedDate)
		if !ok {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid need_date on line "+strconv.Itoa(row.LineNo))
			return req, time.Time{}, time.Time{}, nil, false
		}
		rows = append(rows, PORowInput{
			LineNo:          row.LineNo,
			ItemID:          row.ItemID,
			UOMID:           row.UOMID,
			ReqQty:          row.ReqQty,
			NeedDate:        needDate,
			UnitPrice:       row.UnitPrice,
			DiscountPercent: row.DiscountPercent,
			TaxCode:         row.TaxCode,
			WarehouseID:     row.WarehouseID,
		})
	}
	return req, postDate, docDate, rows, true
}

func (h *Handler) handleCreatePO(w http.ResponseWriter, r *http.Request) {
	req, postDate, docDate, rows, ok := h.decodePO(w, r)
	if !ok {
		return
	}
	po, err := h.service.CreatePO(r.Context(), CreatePOInput{
		BPCode:    req.BPCode,
		EmpCode:   req.EmpCode,
		PostDate:  postDate,
		DocDate:   docDate,
		Remarks:   req.Remarks,
		CreatedBy: req.CreatedBy,
		Rows:      rows,
	})
	if err != nil {
		h.respondError(w, "create purchase order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, po)
}

func (h *Handler) handleUpdatePO(w http.ResponseWriter, r *http.Request) {
	poID, err := strconv.ParseInt(chi.URLParam(r, "po_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid po_id")
		return
	}
	req, postDate, docDate, rows, ok := h.decodePO(w, r)
	if !ok {
		return
	}
	po, err := h.service.UpdatePO(r.Context(), poID, UpdatePOInput{
		BPCode:    req.BPCode,
		EmpCode:   req.EmpCode,
		PostDate:  postDate,
		DocDate:   docDate,
		Remarks:   req.Remarks,
		UpdatedBy: req.UpdatedBy,
		Rows:      rows,
	})
	if err != nil {
		h.respondError(w, "update purchase order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

type convertRequest struct {
	ReqIDs    []int64 `json:"req_ids" validate:"required,min=1"`
	BPCode    string  `json:"bpcode" validate:"required"`
	PostDate  string  `json:"post_dt"`
	DocDate   string  `json:"doc_dt"`
	CreatedBy string  `json:"created_by"`
}

func (h *Handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	postDate, ok := parseDate(req.PostDate)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid post_dt")
		return
	}
	docDate, ok := parseDate(req.DocDate)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid doc_dt")
		return
	}
	po, err := h.service.ConvertFromPRs(r.Context(), ConvertInput{
		ReqIDs:    req.ReqIDs,
		BPCode:    req.BPCode,
		PostDate:  postDate,
		DocDate:   docDate,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		h.respondError(w, "convert purchase requests", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, po)
}

type poStatusRequest struct {
	Status    string `json:"po_status" validate:"required"`
	UpdatedBy string `json:"updated_by"`
}

func (h *Handler) handleSetPOStatus(w http.ResponseWriter, r *http.Request) {
	poID, err := strconv.ParseInt(chi.URLParam(r, "po_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid po_id")
		return
	}
	var req poStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	po, err := h.service.SetPOStatus(r.Context(), poID, POStatus(req.Status), req.UpdatedBy)
	if err != nil {
		h.respondError(w, "set purchase order status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) handleGetPO(w http.ResponseWriter, r *http.Request) {
	poID, err := strconv.ParseInt(chi.URLParam(r, "po_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid po_id")
		return
	}
	po, err := h.service.GetPO(r.Context(), poID)
	if err != nil {
		h.respondError(w, "get purchase order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) handleListPOs(w http.ResponseWriter, r *http.Request) {
	filter := POFilter{}
	q := r.URL.Query()
	if v := q.Get("po_status"); v != "" {
		filter.Status = POStatus(v)
	}
	if v := q.Get("bpcode"); v != "" {
		filter.BPCode = v
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
	pos, err := h.service.ListPOs(r.Context(), filter)
	if err != nil {
		h.respondError(w, "list purchase orders", err)
		return
	}
	httpx.JSON(w, http.StatusOK, pos)
}

func (h *Handler) handleDeletePO(w http.ResponseWriter, r *http.Request) {
	poID, err := strconv.ParseInt(chi.URLParam(r, "po_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid po_id")
		return
	}
	if err := h.service.DeletePO(r.Context(), poID); err != nil {
		h.respondError(w, "delete purchase order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "purchase order deleted"})
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, ErrPOClosed):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
