package authservice

import (
	"context"
	"time"

	authdomain "github.com/Black-And-White-Club/roster-bot/app/modules/auth/domain"
)

// Service defines the authentication service interface.
type Service interface {
	// IssueToken mints an API token for a user. A zero ttl uses the configured default.
	IssueToken(ctx context.Context, req IssueRequest) (*TokenResponse, error)

	// ValidateToken validates a JWT token and returns the claims if valid.
	ValidateToken(ctx context.Context, tokenString string) (*authdomain.Claims, error)
}

// IssueRequest names the holder of a new token.
type IssueRequest struct {
	UserID  string
	GuildID string
	Role    authdomain.Role
	TTL     time.Duration
}

// TokenResponse is a freshly signed token.
type TokenResponse struct {
	Token     string
	ExpiresAt time.Time
}
