package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	scheduleapp "github.com/moneta/backend/internal/application/schedule"
	"github.com/moneta/backend/internal/domain/schedule"
)

// CreateScheduleRequest is the request body for creating a schedule
type CreateScheduleRequest struct {
	AccountID        uuid.UUID               `json:"account_id" binding:"required"`
	CategoryID       *uuid.UUID              `json:"category_id"`
	CounterAccountID *uuid.UUID              `json:"counter_account_id"`
	Type             string                  `json:"type" binding:"required,oneof=expense income transfer"`
	Payee            string                  `json:"payee" binding:"max=200"`
	Amount           decimal.Decimal         `json:"amount" binding:"required"`
	Currency         string                  `json:"currency" binding:"omitempty,len=3"`
	Rule             schedule.RecurrenceRule `json:"rule" binding:"required"`
	FirstDue         time.Time               `json:"first_due" binding:"required"`
	AutoPost         bool                    `json:"auto_post"`
	Notes            string                  `json:"notes"`
}

// UpdateScheduleRequest is the request body for updating a schedule
type UpdateScheduleRequest struct {
	Amount   decimal.Decimal         `json:"amount" binding:"required"`
	Payee    string                  `json:"payee" binding:"max=200"`
	Rule     schedule.RecurrenceRule `json:"rule" binding:"required"`
	NextDue  time.Time               `json:"next_due" binding:"required"`
	AutoPost bool                    `json:"auto_post"`
}

// CompleteScheduleRequest is the request body for posting the due occurrence
type CompleteScheduleRequest struct {
	// PostedOn defaults to the schedule's due date when omitted
	PostedOn time.Time `json:"posted_on"`
}

// ScheduleResponse is the wire representation of a scheduled transaction
type ScheduleResponse struct {
	ID               uuid.UUID               `json:"id"`
	AccountID        uuid.UUID               `json:"account_id"`
	CategoryID       *uuid.UUID              `json:"category_id,omitempty"`
	CounterAccountID *uuid.UUID              `json:"counter_account_id,omitempty"`
	Type             string                  `json:"type"`
	Payee            string                  `json:"payee,omitempty"`
	Amount           decimal.Decimal         `json:"amount"`
	Currency         string                  `json:"currency"`
	Rule             schedule.RecurrenceRule `json:"rule"`
	NextDueDate      time.Time               `json:"next_due_date"`
	AutoPost         bool                    `json:"auto_post"`
	Status           string                  `json:"status"`
	Notes            string                  `json:"notes,omitempty"`
	LiabilityID      *uuid.UUID              `json:"liability_id,omitempty"`
}

// ScheduleHandler handles scheduled-transaction endpoints
type ScheduleHandler struct {
	BaseHandler
	scheduleService *scheduleapp.Service
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(scheduleService *scheduleapp.Service) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// RegisterRoutes registers schedule routes
func (h *ScheduleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	schedules := rg.Group("/schedules")
	{
		schedules.GET("", h.List)
		schedules.GET("/calendar", h.Calendar)
		schedules.GET("/:id", h.Get)
		schedules.POST("", h.Create)
		schedules.PUT("/:id", h.Update)
		schedules.DELETE("/:id", h.Delete)

		schedules.POST("/:id/pause", h.Pause)
		schedules.POST("/:id/resume", h.Resume)
		schedules.POST("/:id/skip", h.Skip)
		schedules.POST("/:id/complete", h.Complete)

		schedules.POST("/generate", h.Generate)
	}
}

// List returns the user's schedules
func (h *ScheduleHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	filter, err := bindFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.scheduleService.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]ScheduleResponse, len(page.Items))
	for i := range page.Items {
		items[i] = scheduleResponse(&page.Items[i])
	}
	h.SuccessWithMeta(c, items, page.Total, page.Page, page.PageSize)
}

// Get returns one schedule
func (h *ScheduleHandler) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid schedule ID")
		return
	}

	st, err := h.scheduleService.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, scheduleResponse(st))
}

// Create creates a scheduled transaction
func (h *ScheduleHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	st, err := h.scheduleService.Create(c.Request.Context(), scheduleapp.CreateScheduleInput{
		UserID:           userID,
		AccountID:        req.AccountID,
		CategoryID:       req.CategoryID,
		CounterAccountID: req.CounterAccountID,
		Type:             schedule.ScheduledTransactionType(req.Type),
		Payee:            req.Payee,
		Amount:           req.Amount,
		Currency:         req.Currency,
		Rule:             req.Rule,
		FirstDue:         req.FirstDue,
		AutoPost:         req.AutoPost,
		Notes:            req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, scheduleResponse(st))
}

// Update modifies a schedule's mutable fields
func (h *ScheduleHandler) Update(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid schedule ID")
		return
	}

	var req UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	st, err := h.scheduleService.Update(c.Request.Context(), scheduleapp.UpdateScheduleInput{
		UserID:   userID,
		ID:       id,
		Amount:   req.Amount,
		Payee:    req.Payee,
		Rule:     req.Rule,
		NextDue:  req.NextDue,
		AutoPost: req.AutoPost,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, scheduleResponse(st))
}

// Delete removes a schedule. Posted transactions stay in the ledger.
func (h *ScheduleHandler) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid schedule ID")
		return
	}

	if err := h.scheduleService.Delete(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Pause suspends a schedule
func (h *ScheduleHandler) Pause(c *gin.Context) {
	h.transition(c, h.scheduleService.Pause)
}

// Resume reactivates a paused schedule
func (h *ScheduleHandler) Resume(c *gin.Context) {
	h.transition(c, h.scheduleService.Resume)
}

// Skip advances the schedule past the current occurrence without posting
func (h *ScheduleHandler) Skip(c *gin.Context) {
	h.transition(c, h.scheduleService.Skip)
}

func (h *ScheduleHandler) transition(
	c *gin.Context,
	op func(ctx context.Context, userID, id uuid.UUID) (*schedule.ScheduledTransaction, error),
) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid schedule ID")
		return
	}

	st, err := op(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, scheduleResponse(st))
}

// Complete posts the current occurrence to the ledger and advances the
// schedule
func (h *ScheduleHandler) Complete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid schedule ID")
		return
	}

	var req CompleteScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BadRequest(c, "Invalid request body")
		return
	}

	st, err := h.scheduleService.Complete(c.Request.Context(), scheduleapp.CompleteInput{
		UserID:   userID,
		ID:       id,
		PostedOn: req.PostedOn,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, scheduleResponse(st))
}

// Calendar expands the user's schedules into dated occurrences within a
// window
func (h *ScheduleHandler) Calendar(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		h.BadRequest(c, "Invalid or missing 'from' date, expected YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		h.BadRequest(c, "Invalid or missing 'to' date, expected YYYY-MM-DD")
		return
	}

	events, err := h.scheduleService.Calendar(c.Request.Context(), userID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, events)
}

// Generate creates missing backing schedules for the user's active
// liabilities
func (h *ScheduleHandler) Generate(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.scheduleService.GenerateFromLiabilities(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"created": result.Created,
		"skipped": result.Skipped,
	})
}

func scheduleResponse(st *schedule.ScheduledTransaction) ScheduleResponse {
	return ScheduleResponse{
		ID:               st.ID,
		AccountID:        st.AccountID,
		CategoryID:       st.CategoryID,
		CounterAccountID: st.CounterAccountID,
		Type:             string(st.Type),
		Payee:            st.Payee,
		Amount:           st.Amount,
		Currency:         st.Currency,
		Rule:             st.Rule,
		NextDueDate:      st.NextDueDate,
		AutoPost:         st.AutoPost,
		Status:           string(st.Status),
		Notes:            st.Notes,
		LiabilityID:      st.LiabilityID,
	}
}
