package authjwt

import (
	"errors"
	"fmt"
	"time"

	authdomain "github.com/Black-And-White-Club/roster-bot/app/modules/auth/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "roster-bot"

// apiClaims represents the JWT claims structure.
type apiClaims struct {
	jwt.RegisteredClaims
	Guild string `json:"guild,omitempty"`
	Role  string `json:"role"`
}

// provider implements the Provider interface.
type provider struct {
	secret []byte
	now    func() time.Time
}

// NewProvider creates a new JWT provider.
func NewProvider(secret string) Provider {
	return &provider{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// GenerateToken creates a signed JWT token from the given claims.
func (p *provider) GenerateToken(domainClaims *authdomain.Claims, ttl time.Duration) (string, error) {
	if domainClaims == nil || domainClaims.UserID == "" {
		return "", fmt.Errorf("token subject is required")
	}
	if !domainClaims.Role.IsValid() {
		return "", fmt.Errorf("cannot issue token for role %q", domainClaims.Role)
	}
	now := p.now()
	claims := &apiClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    issuer,
			Subject:   domainClaims.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Guild: domainClaims.GuildID,
		Role:  string(domainClaims.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken validates a JWT token and returns the domain claims if valid.
func (p *provider) ValidateToken(tokenString string) (*authdomain.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &apiClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return p.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(p.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrInvalidSignature
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*apiClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	role, err := authdomain.ParseRole(claims.Role)
	if err != nil {
		return nil, ErrInvalidToken
	}

	domainClaims := &authdomain.Claims{
		UserID:  claims.Subject,
		GuildID: claims.Guild,
		Role:    role,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		domainClaims.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		domainClaims.IssuedAt = claims.IssuedAt.Time
	}

	return domainClaims, nil
}
