package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	liabilityapp "github.com/moneta/backend/internal/application/liability"
	"github.com/moneta/backend/internal/domain/liability"
)

// CreateLiabilityRequest is the request body for creating a liability
type CreateLiabilityRequest struct {
	Name         string          `json:"name" binding:"required,max=200"`
	Kind         string          `json:"kind" binding:"required,oneof=loan credit mortgage other"`
	Principal    decimal.Decimal `json:"principal" binding:"required"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	Installment  decimal.Decimal `json:"installment" binding:"required"`
	Currency     string          `json:"currency" binding:"required,len=3"`
	PaymentDay   int             `json:"payment_day" binding:"required,min=1,max=28"`
	StartsOn     time.Time       `json:"starts_on" binding:"required"`
	AccountID    *uuid.UUID      `json:"account_id"`
	Notes        string          `json:"notes"`
}

// UpdateLiabilityRequest is the request body for updating a liability
type UpdateLiabilityRequest struct {
	Name        string          `json:"name" binding:"required,max=200"`
	Installment decimal.Decimal `json:"installment" binding:"required"`
	PaymentDay  int             `json:"payment_day" binding:"required,min=1,max=28"`
	Notes       string          `json:"notes"`
}

// LiabilityResponse is the wire representation of a liability
type LiabilityResponse struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Kind             string          `json:"kind"`
	Principal        decimal.Decimal `json:"principal"`
	InterestRate     decimal.Decimal `json:"interest_rate"`
	Installment      decimal.Decimal `json:"installment"`
	Currency         string          `json:"currency"`
	PaymentDay       int             `json:"payment_day"`
	StartsOn         time.Time       `json:"starts_on"`
	AccountID        *uuid.UUID      `json:"account_id,omitempty"`
	Status           string          `json:"status"`
	Notes            string          `json:"notes,omitempty"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// LiabilityHandler handles liability endpoints
type LiabilityHandler struct {
	BaseHandler
	liabilityService *liabilityapp.Service
}

// NewLiabilityHandler creates a new liability handler
func NewLiabilityHandler(liabilityService *liabilityapp.Service) *LiabilityHandler {
	return &LiabilityHandler{liabilityService: liabilityService}
}

// RegisterRoutes registers liability routes
func (h *LiabilityHandler) RegisterRoutes(rg *gin.RouterGroup) {
	liabilities := rg.Group("/liabilities")
	{
		liabilities.GET("", h.List)
		liabilities.GET("/:id", h.Get)
		liabilities.POST("", h.Create)
		liabilities.PUT("/:id", h.Update)
		liabilities.DELETE("/:id", h.Delete)

		liabilities.POST("/:id/close", h.Close)
	}
}

// List returns the user's liabilities with computed remaining balances
func (h *LiabilityHandler) List(c *gin.Context) {
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

	page, err := h.liabilityService.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]LiabilityResponse, len(page.Items))
	for i := range page.Items {
		items[i] = liabilityResponse(&page.Items[i])
	}
	h.SuccessWithMeta(c, items, page.Total, page.Page, page.PageSize)
}

// Get returns one liability
func (h *LiabilityHandler) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid liability ID")
		return
	}

	detail, err := h.liabilityService.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, liabilityResponse(detail))
}

// Create records a new liability
func (h *LiabilityHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateLiabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	l, err := h.liabilityService.Create(c.Request.Context(), liabilityapp.CreateLiabilityInput{
		UserID:       userID,
		Name:         req.Name,
		Kind:         liability.Kind(req.Kind),
		Principal:    req.Principal,
		InterestRate: req.InterestRate,
		Installment:  req.Installment,
		Currency:     req.Currency,
		PaymentDay:   req.PaymentDay,
		StartsOn:     req.StartsOn,
		AccountID:    req.AccountID,
		Notes:        req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, liabilityResponse(&liabilityapp.Detail{
		Liability:        l,
		RemainingBalance: l.RemainingBalance(time.Now()),
	}))
}

// Update modifies a liability's mutable fields. The backing schedule, if
// any, follows the change.
func (h *LiabilityHandler) Update(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid liability ID")
		return
	}

	var req UpdateLiabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	l, err := h.liabilityService.Update(c.Request.Context(), liabilityapp.UpdateLiabilityInput{
		UserID:      userID,
		ID:          id,
		Name:        req.Name,
		Installment: req.Installment,
		PaymentDay:  req.PaymentDay,
		Notes:       req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, liabilityResponse(&liabilityapp.Detail{
		Liability:        l,
		RemainingBalance: l.RemainingBalance(time.Now()),
	}))
}

// Delete removes a liability and its backing schedule
func (h *LiabilityHandler) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid liability ID")
		return
	}

	if err := h.liabilityService.Delete(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Close marks a liability as paid off and removes its backing schedule
func (h *LiabilityHandler) Close(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid liability ID")
		return
	}

	l, err := h.liabilityService.Close(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, liabilityResponse(&liabilityapp.Detail{
		Liability:        l,
		RemainingBalance: l.RemainingBalance(time.Now()),
	}))
}

func liabilityResponse(detail *liabilityapp.Detail) LiabilityResponse {
	l := detail.Liability
	return LiabilityResponse{
		ID:               l.ID,
		Name:             l.Name,
		Kind:             string(l.Kind),
		Principal:        l.Principal,
		InterestRate:     l.InterestRate,
		Installment:      l.Installment,
		Currency:         l.Currency,
		PaymentDay:       l.PaymentDay,
		StartsOn:         l.StartsOn,
		AccountID:        l.AccountID,
		Status:           string(l.Status),
		Notes:            l.Notes,
		RemainingBalance: detail.RemainingBalance,
	}
}
