package api

import (
	"ledger_gateway/internal/domain"  // Domain models
	"ledger_gateway/internal/gateway" // Ledger access facade
	"net/http"                        // HTTP status codes
	"strconv"                         // String conversion

	"github.com/gin-gonic/gin" // Gin web framework
)

// pageParams reads page and page_size from the query string
func pageParams(c *gin.Context) (int, int) {
	page := 1      // Default page number
	pageSize := 20 // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		// If valid, set page size
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size
		}
	}
	return page, pageSize
}

// respondPage writes one page of items under key, with the pagination totals
func respondPage[T any](c *gin.Context, key string, items []T) {
	page, pageSize := pageParams(c)
	total := len(items)                             // Total number of items
	totalPages := (total + pageSize - 1) / pageSize // Calculate total pages
	start := (page - 1) * pageSize                  // Calculate offset for pagination
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	c.JSON(http.StatusOK, gin.H{
		key:           items[start:end], // Items on this page
		"page":        page,             // Current page
		"page_size":   pageSize,         // Page size
		"total":       total,            // Total number of items
		"total_pages": totalPages,       // Total pages
	})
}

// ListAccountsHandler returns all accounts without their hashed fields
func ListAccountsHandler(svc *gateway.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		accounts, err := svc.GetAllAccounts(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		resp := make([]domain.Account, len(accounts))
		// Strip hashes before they leave the gateway
		for i, a := range accounts {
			resp[i] = a.Redacted()
		}
		respondPage(c, "accounts", resp)
	}
}

// ListTransfersHandler returns every transfer once
func ListTransfersHandler(svc *gateway.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		transfers, err := svc.GetAllTransfers(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		respondPage(c, "transfers", transfers)
	}
}

// ListKeysHandler returns every ledger state key
func ListKeysHandler(svc *gateway.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		keys, err := svc.GetAllKeys(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		respondPage(c, "keys", keys)
	}
}

// GetTransferByKeyHandler returns the transfer stored under a state key
func GetTransferByKeyHandler(svc *gateway.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tr, err := svc.GetTransferByStateKey(c.Request.Context(), gateway.GetTransferByStateKeyRequest{StateKey: c.Param("stateKey")})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transfer": tr})
	}
}

// ListTransactionsHandler returns the journal of every account
func ListTransactionsHandler(svc *gateway.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		txs, err := svc.GetAllTransactions(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		respondPage(c, "transactions", txs)
	}
}

// DeleteAccountHandler removes an account
func DeleteAccountHandler(svc *gateway.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userID") // Account to delete
		if err := svc.DeleteAccount(c.Request.Context(), gateway.DeleteAccountRequest{UserRequest: gateway.UserRequest{UserID: userID}}); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Account " + userID + " deleted"})
	}
}
