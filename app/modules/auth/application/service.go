package authservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	authjwt "github.com/Black-And-White-Club/opsboard/app/modules/auth/infrastructure/jwt"
	userservice "github.com/Black-And-White-Club/opsboard/app/modules/user/application"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Config holds the configuration for the auth service.
type Config struct {
	TokenTTL time.Duration
}

// DefaultTokenTTL applies when Config.TokenTTL is unset.
const DefaultTokenTTL = 24 * time.Hour

// service implements the Service interface.
type service struct {
	discord     DiscordClient
	users       UserRegistry
	jwtProvider authjwt.Provider
	config      Config
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewService creates a new auth service.
func NewService(
	discord DiscordClient,
	users UserRegistry,
	jwtProvider authjwt.Provider,
	config Config,
	logger *slog.Logger,
	tracer trace.Tracer,
) Service {
	if config.TokenTTL <= 0 {
		config.TokenTTL = DefaultTokenTTL
	}
	return &service{
		discord:     discord,
		users:       users,
		jwtProvider: jwtProvider,
		config:      config,
		logger:      logger,
		tracer:      tracer,
	}
}

func (s *service) LoginURL(state string) string {
	return s.discord.AuthCodeURL(state)
}

// CompleteLogin exchanges the code, upserts the member and signs a token.
func (s *service) CompleteLogin(ctx context.Context, code string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.CompleteLogin")
	defer span.End()

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrMissingCode
	}

	profile, err := s.discord.FetchProfile(ctx, code)
	if err != nil {
		s.logger.WarnContext(ctx, "Discord code exchange failed", slog.String("error", err.Error()))
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrDiscordLogin, err)
	}

	user, err := s.users.RegisterFromDiscord(ctx, *profile)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to register member: %w", err)
	}
	span.SetAttributes(attribute.String("user_uuid", user.ID.String()))

	token, err := s.jwtProvider.GenerateToken(userservice.ClaimsFor(user), s.config.TokenTTL)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to sign session token",
			slog.String("user_uuid", user.ID.String()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrGenerateToken, err)
	}

	s.logger.InfoContext(ctx, "Member logged in",
		slog.String("user_uuid", user.ID.String()),
		slog.String("discord_id", user.DiscordID),
	)

	return &Session{
		Token:     token,
		ExpiresAt: time.Now().Add(s.config.TokenTTL),
		User:      user,
	}, nil
}

// Authenticate validates the token and reloads the member so role changes
// apply to sessions issued before them.
func (s *service) Authenticate(ctx context.Context, token string) (*authdomain.Claims, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Authenticate")
	defer span.End()

	claims, err := s.jwtProvider.ValidateToken(token)
	if err != nil {
		if errors.Is(err, authjwt.ErrExpiredToken) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetUser(ctx, claims.UserUUID)
	if err != nil {
		if errors.Is(err, userservice.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		span.RecordError(err)
		return nil, err
	}

	current := userservice.ClaimsFor(user)
	current.ExpiresAt = claims.ExpiresAt
	current.IssuedAt = claims.IssuedAt
	return current, nil
}
