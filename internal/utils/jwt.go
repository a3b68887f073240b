package utils

import (
	"ledger_gateway/internal/domain" // Account roles
	"strings"                        // Bearer prefix handling
	"time"                           // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// RoleAdmin is the account role allowed to run privileged operations
const RoleAdmin = domain.RoleAdmin

// TokenTTL is how long an issued token stays valid
const TokenTTL = 24 * time.Hour

// JWT Claims
type Claims struct {
	UserID               string `json:"user_id"` // Ledger account id
	Role                 string `json:"role"`    // Account role tag
	jwt.RegisteredClaims        // Standard JWT claims
}

// IsAdmin reports whether the token carries the admin role
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// GenerateJWT creates a JWT token for a given account
func GenerateJWT(userID, role, secret string) (string, error) {
	// Set token claims
	claims := Claims{
		UserID: userID, // Custom claim for user ID
		Role:   role,   // Custom claim for role
		// Standard claims
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,                                       // Account the token speaks for
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)), // Token expires in 24 hours
			IssuedAt:  jwt.NewNumericDate(time.Now()),               // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a JWT token string
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	// Check for parsing errors
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil // Return claims if valid
	}
	// Return error if token is invalid
	return nil, jwt.ErrSignatureInvalid
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false // Missing or malformed header
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}
