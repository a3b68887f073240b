package api

import (
	"errors"                          // Error classification
	"ledger_gateway/internal/domain"  // Account roles
	"ledger_gateway/internal/gateway" // Ledger access facade
	"ledger_gateway/internal/utils"   // JWT helpers
	"net/http"                        // HTTP status codes
	"regexp"                          // Regular expressions
	"strings"                         // String manipulation

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
)

// RegisterRequest opens an account from the public surface
type RegisterRequest struct {
	UserID   string         `json:"userID" binding:"required"`      // Account id chosen by the customer
	Name     string         `json:"name" binding:"required"`        // Display name
	IDNumber string         `json:"idNumber" binding:"required"`    // National id, stored hashed
	Email    string         `json:"email" binding:"required,email"` // Contact email
	Password string         `json:"password" binding:"required"`    // Stored hashed
	Phone    string         `json:"phone" binding:"required"`       // Contact phone number
	Balance  gateway.Amount `json:"balance"`                        // Opening balance, zero when absent
}

// Request struct for login
type LoginRequest struct {
	UserID   string `json:"userID" binding:"required"`   // Account id
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Response struct for authentication
type AuthResponse struct {
	Token string `json:"token"` // JWT token
}

// isValidUserID checks that the id is safe inside ledger state keys
func isValidUserID(userID string) bool {
	matched, _ := regexp.MatchString(`^[A-Za-z0-9-]{1,64}$`, userID) // No underscores, they separate key parts
	return matched                                                   // Return whether it matched
}

// isValidPassword checks if the password length fits bcrypt
func isValidPassword(password string) bool {
	return len(password) >= 8 && len(password) <= 72 // Return true if length is valid
}

// RegisterHandler creates a ledger account with role user
func RegisterHandler(svc *gateway.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Validate user id and password
		if !isValidUserID(req.UserID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userID must be 1-64 letters, digits or dashes"})
			return
		}
		// Validate password length
		if !isValidPassword(req.Password) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be 8-72 characters"})
			return
		}
		// Hash the identity fields before they reach the ledger
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		idHash, err := bcrypt.GenerateFromPassword([]byte(req.IDNumber), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash id number"})
			return
		}
		balance := req.Balance // Opening balance
		if strings.TrimSpace(string(balance)) == "" {
			balance = "0"
		}
		err = svc.CreateAccount(c.Request.Context(), gateway.CreateAccountRequest{
			UserID:       req.UserID,     // Account id
			Name:         req.Name,       // Display name
			IDHash:       string(idHash), // Salted id hash
			Email:        strings.ToLower(req.Email),
			PasswordHash: string(passwordHash), // Salted password hash
			Phone:        req.Phone,            // Contact phone
			Role:         domain.RoleUser,      // Public sign-ups are never admins
			Balance:      balance,              // Opening balance
		})
		if err != nil {
			respondError(c, err)
			return
		}
		// Return success response
		c.JSON(http.StatusCreated, gin.H{"message": "Account " + req.UserID + " created"})
	}
}

// LoginHandler authenticates an account holder and returns a JWT token
func LoginHandler(svc *gateway.Service, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Fetch the account from the ledger
		acc, err := svc.GetAccount(c.Request.Context(), gateway.GetAccountRequest{UserRequest: gateway.UserRequest{UserID: req.UserID}})
		if errors.Is(err, gateway.ErrInvocation) || errors.Is(err, gateway.ErrValidation) {
			// Unknown account looks the same as a wrong password
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
			logrus.WithField("user_id", req.UserID).Warn("Login failed") // Log failed attempt, never the hash
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(acc.UserID, acc.Role, jwtSecret)
		if err != nil {
			// If token generation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{Token: token})
	}
}
