package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	authservice "github.com/Black-And-White-Club/roster-bot/app/modules/auth/application"
	authhandlers "github.com/Black-And-White-Club/roster-bot/app/modules/auth/infrastructure/handlers"
	authjwt "github.com/Black-And-White-Club/roster-bot/app/modules/auth/infrastructure/jwt"
	"github.com/Black-And-White-Club/roster-bot/app/shared/observability"
	"github.com/Black-And-White-Club/roster-bot/config"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

// Module represents the unified auth module.
type Module struct {
	config  *config.Config
	service authservice.Service
	limiter *authhandlers.IPRateLimiter
	logger  *slog.Logger
}

// NewModule creates a new auth module and mounts /api/auth on httpRouter when it is set.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	httpRouter chi.Router,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "Initializing auth module")

	service := authservice.NewService(
		authjwt.NewProvider(cfg.JWT.Secret),
		authservice.Config{DefaultTTL: cfg.JWT.DefaultTTL},
		logger,
		obs.Tracer,
	)

	module := &Module{
		config:  cfg,
		service: service,
		limiter: authhandlers.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst),
		logger:  logger,
	}

	if httpRouter != nil {
		httpRouter.Route("/api/auth", func(r chi.Router) {
			module.Protect(r)
			r.Get("/whoami", handleWhoAmI)
		})
	}

	return module, nil
}

// Protect installs CORS, per-IP rate limiting and bearer authentication on r.
func (m *Module) Protect(r chi.Router) {
	r.Use(authhandlers.CORSMiddleware(m.config.HTTP.AllowedOrigins))
	r.Use(authhandlers.RateLimitMiddleware(m.limiter))
	r.Use(authhandlers.BearerAuthMiddleware(m.service))
}

func handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	claims, ok := authhandlers.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"user_id":    claims.UserID,
		"guild_id":   claims.GuildID,
		"role":       claims.Role,
		"expires_at": claims.ExpiresAt,
	})
}

// GetService returns the auth service for use by other modules.
func (m *Module) GetService() authservice.Service {
	return m.service
}
