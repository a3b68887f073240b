package api

import (
	"ledger_gateway/internal/gateway"    // Ledger access facade
	"ledger_gateway/internal/metrics"    // Prometheus handler
	"ledger_gateway/internal/middleware" // Auth middleware
	"net/http"                           // HTTP status codes

	"github.com/gin-gonic/gin"                       // Gin web framework
	"github.com/prometheus/client_golang/prometheus" // Metrics registry
	"github.com/sirupsen/logrus"                     // Logging library
)

// RouterConfig holds what the HTTP surface needs besides the facade
type RouterConfig struct {
	JWTSecret string              // JWT secret key
	IsProd    bool                // Release mode for gin
	Gatherer  prometheus.Gatherer // Served on /metrics; default registry when nil
}

// NewRouter builds the gin engine mirroring the gRPC surface
func NewRouter(svc *gateway.Service, cfg RouterConfig) *gin.Engine {
	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()                      // Gin router instance
	r.Use(gin.Logger(), gin.Recovery()) // Access log and panic recovery
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(metrics.Handler(gatherer)))             // Prometheus scrape endpoint
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) }) // Liveness check

	// Auth routes
	r.POST("/accounts", RegisterHandler(svc))          // Registration endpoint
	r.POST("/login", LoginHandler(svc, cfg.JWTSecret)) // Login endpoint

	auth := middleware.JWTAuthMiddleware(cfg.JWTSecret) // Every other route needs a token
	admin := middleware.AdminOnlyMiddleware()           // Privileged operations

	// Account routes (owner or admin)
	accounts := r.Group("/accounts", auth)
	accounts.GET("", admin, ListAccountsHandler(svc)) // List accounts endpoint
	owner := accounts.Group("/:userID", middleware.OwnerOrAdminMiddleware("userID"))
	owner.GET("", GetAccountHandler(svc))                         // Get account endpoint
	owner.GET("/exists", UserExistsHandler(svc))                  // Existence check endpoint
	owner.POST("/deposit", DepositHandler(svc))                   // Deposit endpoint
	owner.POST("/withdraw", WithdrawHandler(svc))                 // Withdraw endpoint
	owner.GET("/transactions", GetTransactionHistoryHandler(svc)) // Journal endpoint
	accounts.DELETE("/:userID", admin, DeleteAccountHandler(svc)) // Delete account endpoint

	// Transfer routes
	transfers := r.Group("/transfers", auth)
	transfers.POST("", TransferHandler(svc))                                          // Transfer endpoint
	transfers.GET("", admin, ListTransfersHandler(svc))                               // List transfers endpoint
	transfers.GET("/:senderID/:receiverID/:referenceNumber", GetTransferHandler(svc)) // Get transfer endpoint

	// Ledger inspection routes (admin only)
	keys := r.Group("/keys", auth, admin)
	keys.GET("", ListKeysHandler(svc))                                // List state keys endpoint
	keys.GET("/:stateKey", GetTransferByKeyHandler(svc))              // Transfer by state key endpoint
	r.GET("/transactions", auth, admin, ListTransactionsHandler(svc)) // All journals endpoint

	return r
}
