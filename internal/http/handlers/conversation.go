package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/deepedumate/loan-aggregator-sub000/internal/domain"
	"github.com/deepedumate/loan-aggregator-sub000/internal/http/response"
	"github.com/deepedumate/loan-aggregator-sub000/internal/platform/logger"
	"github.com/deepedumate/loan-aggregator-sub000/internal/services"
)

type ConversationHandler struct {
	log *logger.Logger
	svc services.ConversationService
}

func NewConversationHandler(log *logger.Logger, svc services.ConversationService) *ConversationHandler {
	return &ConversationHandler{
		log: log.With("handler", "ConversationHandler"),
		svc: svc,
	}
}

// POST /api/conversations
func (h *ConversationHandler) Start(c *gin.Context) {
	view, err := h.svc.Start(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"conversation": view})
}

// GET /api/conversations/:id
func (h *ConversationHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": view})
}

// POST /api/conversations/:id/answer
func (h *ConversationHandler) Answer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req services.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeInvalidRequest, err)
		return
	}
	view, err := h.svc.Answer(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": view})
}

// POST /api/conversations/:id/edit
// body: { "entry_id": "..." }
func (h *ConversationHandler) Edit(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		EntryID uuid.UUID `json:"entry_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.EntryID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeInvalidRequest, errors.New("entry_id is required"))
		return
	}
	view, err := h.svc.EditEntry(c.Request.Context(), id, req.EntryID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": view})
}

// POST /api/conversations/:id/reset
func (h *ConversationHandler) Reset(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.svc.Reset(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": view})
}

// POST /api/conversations/:id/typeahead
// body: { "query": "..." }
// Suggestions arrive over the SSE channel after the debounce window; the
// response only acknowledges the keystroke.
func (h *ConversationHandler) Typeahead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeInvalidRequest, err)
		return
	}
	if err := h.svc.Typeahead(c.Request.Context(), id, req.Query); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}

// GET /api/conversations/:id/suggestions
func (h *ConversationHandler) Suggestions(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	suggestions, err := h.svc.Suggestions(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"suggestions": suggestions})
}

// POST /api/conversations/:id/otp/send
// body: { "country_code": "+91", "phone": "9876543210" }
// Convenience alias for answering the otp step with a phone number.
func (h *ConversationHandler) SendOTP(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		CountryCode string `json:"country_code"`
		Phone       string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeInvalidRequest, err)
		return
	}
	view, err := h.svc.Answer(c.Request.Context(), id, services.AnswerRequest{
		Step:        domain.StepOTP,
		CountryCode: req.CountryCode,
		Value:       req.Phone,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": view})
}

// POST /api/conversations/:id/otp/resend
func (h *ConversationHandler) ResendOTP(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.svc.ResendOTP(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": view})
}

// POST /api/conversations/:id/otp/verify
// body: { "code": "..." }
func (h *ConversationHandler) VerifyOTP(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeInvalidRequest, err)
		return
	}
	view, err := h.svc.VerifyOTP(c.Request.Context(), id, req.Code)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": view})
}

// PUT /api/conversations/:id/display-currency
// body: { "currency": "INR", "mode": "both" }
func (h *ConversationHandler) SetDisplayCurrency(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Currency string `json:"currency"`
		Mode     string `json:"mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeInvalidRequest, err)
		return
	}
	cost, err := h.svc.SetDisplayCurrency(c.Request.Context(), id, req.Currency, services.CurrencyMode(req.Mode))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cost": cost})
}

// GET /api/conversations/:id/display-currency
func (h *ConversationHandler) CostBreakdown(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cost, err := h.svc.CostBreakdown(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cost": cost})
}

// GET /api/conversations/:id/loans
func (h *ConversationHandler) EligibleLoans(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	offers, err := h.svc.EligibleLoans(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"loans": offers})
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeInvalidConversationID, err)
		return uuid.Nil, false
	}
	return id, true
}

func respondServiceError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		response.RespondError(c, http.StatusBadRequest, response.CodeInvalidAnswer, err)
	case errors.Is(err, services.ErrConversationNotFound), errors.Is(err, services.ErrEntryNotFound):
		response.RespondError(c, http.StatusNotFound, response.CodeNotFound, err)
	case errors.Is(err, services.ErrStepMismatch),
		errors.Is(err, services.ErrEditNotAllowed),
		errors.Is(err, services.ErrFlowComplete),
		errors.Is(err, services.ErrOperationInFlight),
		errors.Is(err, services.ErrNoProgramSelected):
		response.RespondError(c, http.StatusConflict, response.CodeConflict, err)
	case errors.Is(err, services.ErrCooldownActive):
		response.RespondError(c, http.StatusTooManyRequests, response.CodeCooldownActive, err)
	case errors.Is(err, services.ErrNotVerified):
		response.RespondError(c, http.StatusForbidden, response.CodeNotVerified, err)
	default:
		response.RespondError(c, http.StatusInternalServerError, response.CodeInternal, err)
	}
}
