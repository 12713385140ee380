package resignation

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

// Handler wires HTTP endpoints for the resignation pipeline.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs resignation handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers resignation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/resignations", h.handleSubmit)
	r.Get("/resignations", h.handleList)
	r.Get("/resignations/{res_id}", h.handleGet)
	r.Delete("/resignations/{res_id}", h.handleDelete)
	r.Post("/resignations/{res_id}/approval", h.handleApproval)
	r.Post("/resignation-tasks/{res_id}", h.handleTask)
}

func parseStamp(value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, true
		}
	}
	return nil, false
}

func (h *Handler) resID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "res_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid res_id")
		return 0, false
	}
	return id, true
}

type submitRequest struct {
	EmpCode         string `json:"emp_code" validate:"required"`
	ResignationDate string `json:"resignation_date" validate:"required"`
	Reason          string `json:"reason"`
	Remarks         string `json:"remarks"`
	HODName         string `json:"hod_name"`
	HODEmail        string `json:"hod_email" validate:"omitempty,email"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, ok := parseStamp(req.ResignationDate)
	if !ok || date == nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid resignation_date")
		return
	}
	res, err := h.service.Submit(r.Context(), SubmitInput{
		EmpCode:         req.EmpCode,
		ResignationDate: *date,
		Reason:          req.Reason,
		Remarks:         req.Remarks,
		HODName:         req.HODName,
		HODEmail:        req.HODEmail,
	})
	if err != nil {
		h.respondError(w, "submit resignation", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

type approvalRequest struct {
	Decision      string `json:"decision" validate:"required"`
	ReleavingDate string `json:"releaving_date"`
	Remarks       string `json:"remarks"`
}

func (h *Handler) handleApproval(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resID(w, r)
	if !ok {
		return
	}
	var req approvalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	releaving, ok := parseStamp(req.ReleavingDate)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid releaving_date")
		return
	}
	res, err := h.service.Approve(r.Context(), id, ApprovalInput{
		Decision:      Status(req.Decision),
		ReleavingDate: releaving,
		Remarks:       req.Remarks,
	})
	if err != nil {
		h.respondError(w, "record approval decision", err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

type taskRequest struct {
	ExintAt  string  `json:"exint_at"`
	NodueAt  string  `json:"nodue_at"`
	RelAt    string  `json:"rel_at"`
	FnfAt    string  `json:"fnf_at"`
	CheqNo   string  `json:"cheqno"`
	CheqAmt  float64 `json:"cheqamt"`
	FinappAt string  `json:"finapp_at"`
	HRRemark string  `json:"hr_remark"`
}

func (h *Handler) handleTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resID(w, r)
	if !ok {
		return
	}
	var req taskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	input := TaskInput{CheqNo: req.CheqNo, CheqAmt: req.CheqAmt, HRRemark: req.HRRemark}
	fields := []struct {
		raw  string
		dest **time.Time
		name string
	}{
		{req.ExintAt, &input.ExintAt, "exint_at"},
		{req.NodueAt, &input.NodueAt, "nodue_at"},
		{req.RelAt, &input.RelAt, "rel_at"},
		{req.FnfAt, &input.FnfAt, "fnf_at"},
		{req.FinappAt, &input.FinappAt, "finapp_at"},
	}
	for _, f := range fields {
		stamp, ok := parseStamp(f.raw)
		if !ok {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid "+f.name)
			return
		}
		*f.dest = stamp
	}
	res, err := h.service.AdvanceTask(r.Context(), id, input)
	if err != nil {
		h.respondError(w, "advance exit formality", err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resID(w, r)
	if !ok {
		return
	}
	res, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get resignation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := Filter{}
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		filter.Status = Status(v)
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
	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, "list resignations", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, "delete resignation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "resignation deleted"})
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrSkipped):
		httpx.Skipped(w, err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
