package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerapp "github.com/moneta/backend/internal/application/ledger"
	"github.com/moneta/backend/internal/domain/ledger"
)

// CreateTransactionRequest is the request body for recording a transaction
type CreateTransactionRequest struct {
	AccountID  uuid.UUID       `json:"account_id" binding:"required"`
	CategoryID *uuid.UUID      `json:"category_id"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Currency   string          `json:"currency" binding:"omitempty,len=3"`
	PostedOn   time.Time       `json:"posted_on" binding:"required"`
	Payee      string          `json:"payee" binding:"max=200"`
	Notes      string          `json:"notes"`
}

// ReceiptUploadRequest is the request body for requesting a receipt upload
type ReceiptUploadRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

// ReceiptConfirmRequest is the request body for confirming a receipt upload
type ReceiptConfirmRequest struct {
	Key string `json:"key" binding:"required"`
}

// TransactionResponse is the wire representation of a transaction
type TransactionResponse struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"account_id"`
	CategoryID    *uuid.UUID      `json:"category_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PostedOn      time.Time       `json:"posted_on"`
	Payee         string          `json:"payee,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Origin        string          `json:"origin"`
	ScheduleID    *uuid.UUID      `json:"schedule_id,omitempty"`
	HasAttachment bool            `json:"has_attachment"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TransactionHandler handles the transaction register endpoints
type TransactionHandler struct {
	BaseHandler
	txnService *ledgerapp.TransactionService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(txnService *ledgerapp.TransactionService) *TransactionHandler {
	return &TransactionHandler{txnService: txnService}
}

// RegisterRoutes registers transaction routes
func (h *TransactionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	txns := rg.Group("/transactions")
	{
		txns.GET("", h.List)
		txns.GET("/:id", h.Get)
		txns.POST("", h.Create)
		txns.DELETE("/:id", h.Delete)

		txns.POST("/:id/receipt", h.RequestReceiptUpload)
		txns.POST("/:id/receipt/confirm", h.ConfirmReceipt)
		txns.GET("/:id/receipt", h.DownloadReceipt)
	}
}

// List returns the user's transactions, newest first
func (h *TransactionHandler) List(c *gin.Context) {
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

	page, err := h.txnService.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]TransactionResponse, len(page.Items))
	for i := range page.Items {
		items[i] = transactionResponse(&page.Items[i])
	}
	h.SuccessWithMeta(c, items, page.Total, page.Page, page.PageSize)
}

// Get returns one transaction
func (h *TransactionHandler) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	txn, err := h.txnService.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, transactionResponse(txn))
}

// Create records a manually entered transaction
func (h *TransactionHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	txn, err := h.txnService.Create(c.Request.Context(), ledgerapp.CreateTransactionInput{
		UserID:     userID,
		AccountID:  req.AccountID,
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		PostedOn:   req.PostedOn,
		Payee:      req.Payee,
		Notes:      req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, transactionResponse(txn))
}

// Delete removes a manually entered transaction. Bank-imported entries
// are immutable.
func (h *TransactionHandler) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	if err := h.txnService.Delete(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RequestReceiptUpload returns a presigned URL for uploading a receipt
func (h *TransactionHandler) RequestReceiptUpload(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	var req ReceiptUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.txnService.RequestReceiptUpload(c.Request.Context(), userID, id, req.ContentType)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"upload_url": result.UploadURL,
		"key":        result.Key,
		"expires_at": result.ExpiresAt,
	})
}

// ConfirmReceipt attaches an uploaded receipt to the transaction
func (h *TransactionHandler) ConfirmReceipt(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	var req ReceiptConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.txnService.ConfirmReceipt(c.Request.Context(), userID, id, req.Key); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// DownloadReceipt returns a presigned download URL for the receipt
func (h *TransactionHandler) DownloadReceipt(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	result, err := h.txnService.ReceiptDownloadURL(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"download_url": result.DownloadURL,
		"expires_at":   result.ExpiresAt,
	})
}

func transactionResponse(txn *ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            txn.ID,
		AccountID:     txn.AccountID,
		CategoryID:    txn.CategoryID,
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		PostedOn:      txn.PostedOn,
		Payee:         txn.Payee,
		Notes:         txn.Notes,
		Origin:        string(txn.Origin),
		ScheduleID:    txn.ScheduledTransactionID,
		HasAttachment: txn.AttachmentKey != nil,
		CreatedAt:     txn.CreatedAt,
	}
}
