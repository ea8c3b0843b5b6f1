package service

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/config"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

// AuthService verifies access tokens issued by the hosted auth provider.
// Sign-in and refresh happen at the provider; this service only reads tokens.
type AuthService struct {
	config config.AuthConfig
	parser *jwt.Parser
	logger *zap.Logger
}

// NewAuthService constructs an AuthService. Issuer and audience are enforced when set.
func NewAuthService(cfg config.AuthConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RoleClaim == "" {
		cfg.RoleClaim = "app_role"
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &AuthService{config: cfg, parser: jwt.NewParser(opts...), logger: logger}
}

// ValidateToken parses a bearer token and returns the caller identity.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	if s.config.JWTSecret == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token verification is not configured")
	}
	mapClaims := jwt.MapClaims{}
	token, err := s.parser.ParseWithClaims(tokenString, mapClaims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		s.logger.Debug("token rejected", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	if !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	subject, _ := mapClaims.GetSubject()
	if subject == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token has no subject")
	}
	claims := &models.JWTClaims{UserID: subject, Role: roleFromClaims(mapClaims, s.config.RoleClaim)}
	claims.Subject = subject
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if issuer, err := mapClaims.GetIssuer(); err == nil {
		claims.Issuer = issuer
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil {
		claims.ExpiresAt = exp
	}
	return claims, nil
}

// roleFromClaims reads the role from a top-level claim, falling back to app_metadata.
func roleFromClaims(claims jwt.MapClaims, name string) models.UserRole {
	if role, ok := claims[name].(string); ok && role != "" {
		return models.UserRole(strings.ToUpper(role))
	}
	if meta, ok := claims["app_metadata"].(map[string]interface{}); ok {
		if role, ok := meta[name].(string); ok && role != "" {
			return models.UserRole(strings.ToUpper(role))
		}
		if role, ok := meta["role"].(string); ok && role != "" {
			return models.UserRole(strings.ToUpper(role))
		}
	}
	return ""
}
