package authservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	authdomain "github.com/Black-And-White-Club/roster-bot/app/modules/auth/domain"
	authjwt "github.com/Black-And-White-Club/roster-bot/app/modules/auth/infrastructure/jwt"
	"github.com/Black-And-White-Club/roster-bot/app/shared/attr"
	"go.opentelemetry.io/otel/trace"
)

// Config holds the configuration for the auth service.
type Config struct {
	DefaultTTL time.Duration
}

// DefaultTokenTTL applies when neither the request nor the config sets a lifetime.
const DefaultTokenTTL = 24 * time.Hour

// service implements the Service interface.
type service struct {
	jwtProvider authjwt.Provider
	config      Config
	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewService creates a new auth service.
func NewService(
	jwtProvider authjwt.Provider,
	config Config,
	logger *slog.Logger,
	tracer trace.Tracer,
) Service {
	if logger == nil {
		logger = slog.Default()
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = DefaultTokenTTL
	}
	return &service{
		jwtProvider: jwtProvider,
		config:      config,
		logger:      logger,
		tracer:      tracer,
		now:         time.Now,
	}
}

// IssueToken mints an API token for a user.
func (s *service) IssueToken(ctx context.Context, req IssueRequest) (*TokenResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.IssueToken")
	defer span.End()

	if req.UserID == "" {
		return nil, ErrMissingUser
	}
	if !req.Role.IsValid() {
		s.logger.WarnContext(ctx, "Invalid role specified",
			attr.String("role", req.Role.String()),
		)
		return nil, ErrInvalidRole
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = s.config.DefaultTTL
	}
	expiresAt := s.now().Add(ttl)

	token, err := s.jwtProvider.GenerateToken(&authdomain.Claims{
		UserID:  req.UserID,
		GuildID: req.GuildID,
		Role:    req.Role,
	}, ttl)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrGenerateToken, err)
	}

	s.logger.InfoContext(ctx, "Issued API token",
		attr.UserID(req.UserID),
		attr.GuildID(req.GuildID),
		attr.String("role", req.Role.String()),
		attr.Time("expires_at", expiresAt),
	)
	return &TokenResponse{Token: token, ExpiresAt: expiresAt}, nil
}

// ValidateToken validates a JWT token and returns the claims if valid.
func (s *service) ValidateToken(ctx context.Context, tokenString string) (*authdomain.Claims, error) {
	_, span := s.tracer.Start(ctx, "AuthService.ValidateToken")
	defer span.End()

	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims, err := s.jwtProvider.ValidateToken(tokenString)
	if err != nil {
		if errors.Is(err, authjwt.ErrExpiredToken) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	return claims, nil
}
