package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	bankingapp "github.com/moneta/backend/internal/application/banking"
	"github.com/moneta/backend/internal/domain/banking"
)

// CallbackSecretHeader carries the shared secret SaltEdge is configured to
// send with every webhook callback.
const CallbackSecretHeader = "X-Callback-Secret"

// InitiateLinkRequest is the request body for starting a bank link session
type InitiateLinkRequest struct {
	// ReturnTo is where the provider redirects the user after consent
	ReturnTo string `json:"return_to" binding:"omitempty,url"`
}

// ConnectionResponse is the wire representation of a bank connection
type ConnectionResponse struct {
	ID               uuid.UUID  `json:"id"`
	ProviderCode     string     `json:"provider_code"`
	ProviderName     string     `json:"provider_name"`
	Status           string     `json:"status"`
	ConsentExpiresAt *time.Time `json:"consent_expires_at,omitempty"`
	LastSyncedAt     *time.Time `json:"last_synced_at,omitempty"`
	LastError        string     `json:"last_error,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// saltEdgeCallbackEnvelope is the JSON body SaltEdge posts to callback URLs
type saltEdgeCallbackEnvelope struct {
	Data struct {
		ConnectionID string `json:"connection_id"`
		CustomerID   string `json:"customer_id"`
		Stage        string `json:"stage"`
		ErrorClass   string `json:"error_class"`
		ErrorMessage string `json:"error_message"`
	} `json:"data"`
}

// BankingHandler handles open-banking endpoints
type BankingHandler struct {
	BaseHandler
	bankingService *bankingapp.Service
	logger         *zap.Logger
}

// NewBankingHandler creates a new banking handler
func NewBankingHandler(bankingService *bankingapp.Service, logger *zap.Logger) *BankingHandler {
	return &BankingHandler{
		bankingService: bankingService,
		logger:         logger,
	}
}

// RegisterRoutes registers banking routes. The callback routes are exempt
// from JWT auth and are verified by shared secret instead.
func (h *BankingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	bank := rg.Group("/banking")
	{
		bank.POST("/link", h.InitiateLink)
		bank.GET("/connections", h.ListConnections)
		bank.GET("/connections/:id", h.GetConnection)
		bank.POST("/connections/:id/sync", h.SyncConnection)
		bank.DELETE("/connections/:id", h.Revoke)

		bank.POST("/callbacks/saltedge/:type", h.Callback)
	}
}

// InitiateLink creates the provider customer if needed and returns a
// connect session URL for the user to link a bank
func (h *BankingHandler) InitiateLink(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req InitiateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BadRequest(c, "Invalid request body")
		return
	}

	session, err := h.bankingService.InitiateLink(c.Request.Context(), userID, req.ReturnTo)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, session)
}

// ListConnections returns the user's bank connections
func (h *BankingHandler) ListConnections(c *gin.Context) {
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

	conns, err := h.bankingService.ListConnections(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]ConnectionResponse, len(conns))
	for i := range conns {
		items[i] = connectionResponse(&conns[i])
	}
	h.Success(c, items)
}

// GetConnection returns one bank connection
func (h *BankingHandler) GetConnection(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid connection ID")
		return
	}

	conn, err := h.bankingService.GetConnection(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, connectionResponse(conn))
}

// SyncConnection triggers an immediate sync of accounts and transactions
func (h *BankingHandler) SyncConnection(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid connection ID")
		return
	}

	result, err := h.bankingService.SyncConnection(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Revoke removes the connection at the provider and deletes it locally.
// Linked accounts are unlinked; imported transactions stay in the ledger.
func (h *BankingHandler) Revoke(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid connection ID")
		return
	}

	if err := h.bankingService.Revoke(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Callback receives SaltEdge webhook callbacks. The :type path segment is
// one of success, failure, notify or destroy, matching the callback URLs
// configured in the SaltEdge dashboard. Always answers quickly; the
// triggered sync runs within the request but failures are not reported
// back to the provider beyond the status code.
func (h *BankingHandler) Callback(c *gin.Context) {
	callbackType := bankingapp.CallbackType(c.Param("type"))
	switch callbackType {
	case bankingapp.CallbackSuccess, bankingapp.CallbackFailure,
		bankingapp.CallbackNotify, bankingapp.CallbackDestroy:
	default:
		h.NotFound(c, "Unknown callback type")
		return
	}

	var envelope saltEdgeCallbackEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		h.BadRequest(c, "Invalid callback body")
		return
	}

	payload := bankingapp.CallbackPayload{
		Type:         callbackType,
		ConnectionID: envelope.Data.ConnectionID,
		CustomerID:   envelope.Data.CustomerID,
		Stage:        envelope.Data.Stage,
		ErrorClass:   envelope.Data.ErrorClass,
		ErrorMessage: envelope.Data.ErrorMessage,
	}

	secret := c.GetHeader(CallbackSecretHeader)
	if err := h.bankingService.HandleCallback(c.Request.Context(), secret, payload); err != nil {
		h.logger.Warn("Webhook callback rejected",
			zap.String("type", string(callbackType)),
			zap.String("connection_id", payload.ConnectionID),
			zap.Error(err))
		h.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func connectionResponse(conn *banking.Connection) ConnectionResponse {
	return ConnectionResponse{
		ID:               conn.ID,
		ProviderCode:     conn.ProviderCode,
		ProviderName:     conn.ProviderName,
		Status:           string(conn.Status),
		ConsentExpiresAt: conn.ConsentExpiresAt,
		LastSyncedAt:     conn.LastSyncedAt,
		LastError:        conn.LastError,
		CreatedAt:        conn.CreatedAt,
	}
}
