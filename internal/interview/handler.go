package interview

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

// Handler wires HTTP endpoints for the interview pipeline.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs interview handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers interview routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/interview-joining", h.handleCreate)
	r.Get("/interview-joining", h.handleList)
	r.Get("/interview-joining/{inter_id}", h.handleGet)
	r.Put("/interview-joining/{inter_id}", h.handleUpdate)
	r.Delete("/interview-joining/{inter_id}", h.handleDelete)
	r.Post("/submit-feedback/{inter_id}", h.handleFeedback)
	r.Post("/hr-ctc/{inter_id}", h.handleCTC)
	r.Post("/interview-tasks/{inter_id}", h.handleMilestone)
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

func (h *Handler) interID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "inter_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid inter_id")
		return 0, false
	}
	return id, true
}

type candidateRequest struct {
	CandName   string `json:"cand_name" validate:"required"`
	CandEmail  string `json:"cand_email" validate:"omitempty,email"`
	Position   string `json:"position"`
	Department string `json:"department"`
	InterEmail string `json:"inter_email" validate:"omitempty,email"`
	CTCEmail   string `json:"ctc_email" validate:"omitempty,email"`
	CreatedBy  string `json:"created_by"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req candidateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	candidate, err := h.service.Create(r.Context(), CreateInput{
		CandName:   req.CandName,
		CandEmail:  req.CandEmail,
		Position:   req.Position,
		Department: req.Department,
		InterEmail: req.InterEmail,
		CTCEmail:   req.CTCEmail,
		CreatedBy:  req.CreatedBy,
	})
	if err != nil {
		h.respondError(w, "create candidate", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, candidate)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.interID(w, r)
	if !ok {
		return
	}
	var req candidateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	candidate, err := h.service.Update(r.Context(), id, UpdateInput{
		CandName:   req.CandName,
		CandEmail:  req.CandEmail,
		Position:   req.Position,
		Department: req.Department,
		InterEmail: req.InterEmail,
		CTCEmail:   req.CTCEmail,
	})
	if err != nil {
		h.respondError(w, "update candidate", err)
		return
	}
	httpx.JSON(w, http.StatusOK, candidate)
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
	Decision string `json:"decision" validate:"required"`
	JoinDate string `json:"join_date"`
	DesGiven *int64 `json:"des_given"`
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := h.interID(w, r)
	if !ok {
		return
	}
	var req feedbackRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	joinDate, ok := parseStamp(req.JoinDate)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid join_date")
		return
	}
	candidate, err := h.service.SubmitFeedback(r.Context(), id, FeedbackInput{
		Feedback: req.Feedback,
		Decision: Status(req.Decision),
		JoinDate: joinDate,
		DesGiven: req.DesGiven,
	})
	if err != nil {
		h.respondError(w, "submit feedback", err)
		return
	}
	httpx.JSON(w, http.StatusOK, candidate)
}

type ctcRequest struct {
	CTCValue  float64 `json:"ctc_value" validate:"required,gt=0"`
	HRRemarks string  `json:"hr_remarks"`
}

func (h *Handler) handleCTC(w http.ResponseWriter, r *http.Request) {
	id, ok := h.interID(w, r)
	if !ok {
		return
	}
	var req ctcRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	candidate, err := h.service.FinalizeCTC(r.Context(), id, CTCInput{
		CTCValue:  req.CTCValue,
		HRRemarks: req.HRRemarks,
	})
	if err != nil {
		h.respondError(w, "finalize ctc", err)
		return
	}
	httpx.JSON(w, http.StatusOK, candidate)
}

type milestoneRequest struct {
	FollowAt     string `json:"follow_at"`
	FollowRemark string `json:"follow_remark"`
	JoinAt       string `json:"join_at"`
	ApoletAt     string `json:"apolet_at"`
	BioAt        string `json:"bio_at"`
	IndtraAt     string `json:"indtra_at"`
	PFAt         string `json:"pf_at"`
	FMonthAt     string `json:"fmonth_at"`
	TMonthAt     string `json:"tmonth_at"`
	SMonthAt     string `json:"smonth_at"`
}

func (h *Handler) handleMilestone(w http.ResponseWriter, r *http.Request) {
	id, ok := h.interID(w, r)
	if !ok {
		return
	}
	var req milestoneRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	input := MilestoneInput{FollowRemark: req.FollowRemark}
	fields := []struct {
		raw  string
		dest **time.Time
		name string
	}{
		{req.FollowAt, &input.FollowAt, "follow_at"},
		{req.JoinAt, &input.JoinAt, "join_at"},
		{req.ApoletAt, &input.ApoletAt, "apolet_at"},
		{req.BioAt, &input.BioAt, "bio_at"},
		{req.IndtraAt, &input.IndtraAt, "indtra_at"},
		{req.PFAt, &input.PFAt, "pf_at"},
		{req.FMonthAt, &input.FMonthAt, "fmonth_at"},
		{req.TMonthAt, &input.TMonthAt, "tmonth_at"},
		{req.SMonthAt, &input.SMonthAt, "smonth_at"},
	}
	for _, f := range fields {
		stamp, ok := parseStamp(f.raw)
		if !ok {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid "+f.name)
			return
		}
		*f.dest = stamp
	}
	candidate, err := h.service.AdvanceMilestone(r.Context(), id, input)
	if err != nil {
		h.respondError(w, "advance onboarding milestone", err)
		return
	}
	httpx.JSON(w, http.StatusOK, candidate)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.interID(w, r)
	if !ok {
		return
	}
	candidate, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get candidate", err)
		return
	}
	httpx.JSON(w, http.StatusOK, candidate)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := Filter{}
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
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
	candidates, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, "list candidates", err)
		return
	}
	httpx.JSON(w, http.StatusOK, candidates)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.interID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, "delete candidate", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "candidate deleted"})
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
