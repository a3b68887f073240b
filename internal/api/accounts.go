package api

import (
	"ledger_gateway/internal/gateway"    // Ledger access facade
	"ledger_gateway/internal/middleware" // Caller identity from the token
	"net/http"                           // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
)

// MovementRequest represents a deposit or withdrawal request
type MovementRequest struct {
	Amount          gateway.Amount `json:"amount" binding:"required"`          // Amount, decimal text or number
	ReferenceNumber string         `json:"referenceNumber" binding:"required"` // Idempotency key for this account
	Timestamp       string         `json:"timestamp"`                          // Set by the gateway when absent
}

// TransferRequest represents a transfer request
type TransferRequest struct {
	SenderID        string         `json:"senderID"`                           // Defaults to the caller; admins may name another
	ReceiverID      string         `json:"receiverID" binding:"required"`      // Target account
	Amount          gateway.Amount `json:"amount" binding:"required"`          // Transfer amount
	ReferenceNumber string         `json:"referenceNumber" binding:"required"` // Idempotency key with the two ids
	Timestamp       string         `json:"timestamp"`                          // Set by the gateway when absent
}

// GetAccountHandler returns one account without its hashed fields
func GetAccountHandler(svc *gateway.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		acc, err := svc.GetAccount(c.Request.Context(), gateway.GetAccountRequest{UserRequest: gateway.UserRequest{UserID: c.Param("userID")}})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"account": acc.Redacted()}) // Return account info
	}
}

// UserExistsHandler reports whether an account exists
func UserExistsHandler(svc *gateway.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		found, err := svc.UserExists(c.Request.Context(), gateway.UserExistsRequest{UserRequest: gateway.UserRequest{UserID: c.Param("userID")}})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"exists": found})
	}
}

// DepositHandler credits the account named in the path
func DepositHandler(svc *gateway.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req MovementRequest // Bind JSON request to struct
		// Validate request
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		used, err := svc.Deposit(c.Request.Context(), gateway.DepositRequest{MovementRequest: gateway.MovementRequest{
			UserID:          c.Param("userID"),   // Account to credit
			Amount:          req.Amount,          // Deposit amount
			ReferenceNumber: req.ReferenceNumber, // Idempotency key
			Timestamp:       req.Timestamp,       // Caller timestamp, if any
		}})
		if err != nil {
			respondError(c, err)
			return
		}
		// Return success response
		c.JSON(http.StatusOK, gin.H{"message": "Deposit successful", "timestamp": used.Timestamp})
	}
}

// WithdrawHandler debits the account named in the path
func WithdrawHandler(svc *gateway.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req MovementRequest // Bind JSON request to struct
		// Validate request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		used, err := svc.Withdraw(c.Request.Context(), gateway.WithdrawRequest{MovementRequest: gateway.MovementRequest{
			UserID:          c.Param("userID"),   // Account to debit
			Amount:          req.Amount,          // Withdrawal amount
			ReferenceNumber: req.ReferenceNumber, // Idempotency key
			Timestamp:       req.Timestamp,       // Caller timestamp, if any
		}})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Withdrawal successful", "timestamp": used.Timestamp})
	}
}

// TransferHandler moves funds from the caller's account to another account
func TransferHandler(svc *gateway.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TransferRequest // Bind JSON request to struct
		// Validate request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		caller := c.GetString(middleware.UserIDKey) // Authenticated account
		if req.SenderID == "" {
			req.SenderID = caller // Send from the caller's own account
		}
		// Only admins move funds out of someone else's account
		if req.SenderID != caller && !middleware.IsAdmin(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Cannot transfer from another account"})
			return
		}
		used, err := svc.CreateTransfer(c.Request.Context(), gateway.CreateTransferRequest{
			SenderID:        req.SenderID,        // Debited account
			ReceiverID:      req.ReceiverID,      // Credited account
			Amount:          req.Amount,          // Transfer amount
			ReferenceNumber: req.ReferenceNumber, // Idempotency key
			Timestamp:       req.Timestamp,       // Caller timestamp, if any
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Transfer successful", "timestamp": used.Timestamp})
	}
}

// GetTransferHandler returns one transfer; only its two parties and admins may read it
func GetTransferHandler(svc *gateway.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := c.GetString(middleware.UserIDKey) // Authenticated account
		sender, receiver := c.Param("senderID"), c.Param("receiverID")
		if caller != sender && caller != receiver && !middleware.IsAdmin(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access to this transfer is not allowed"})
			return
		}
		tr, err := svc.GetTransfer(c.Request.Context(), gateway.GetTransferRequest{
			SenderID:        sender,
			ReceiverID:      receiver,
			ReferenceNumber: c.Param("referenceNumber"),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transfer": tr})
	}
}

// GetTransactionHistoryHandler returns the journal of one account, one page at a time
func GetTransactionHistoryHandler(svc *gateway.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		txs, err := svc.QueryTransactions(c.Request.Context(), gateway.QueryTransactionsRequest{UserRequest: gateway.UserRequest{UserID: c.Param("userID")}})
		if err != nil {
			respondError(c, err)
			return
		}
		respondPage(c, "transactions", txs)
	}
}
