package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/appctx"
	"pharmapos/pkg/logger"
)

// Config holds the bcrypt hashes of the two shared secrets. Hashes, not
// the secrets themselves, come from the environment.
type Config struct {
	AdminSecretHash string
	StaffSecretHash string
}

// VerifyResult is the outcome of a successful secret check.
type VerifyResult struct {
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service verifies the shared terminal secret and issues role tokens.
// There is no user database; the secret IS the identity.
type Service struct {
	config Config
	jwt    *JWTService
}

// NewService creates a new auth service.
func NewService(config Config, jwtService *JWTService) *Service {
	return &Service{config: config, jwt: jwtService}
}

// Verify checks the submitted secret against the admin hash first, then the
// staff hash, and issues a token for whichever matched.
func (s *Service) Verify(ctx context.Context, secret string) (*VerifyResult, error) {
	if secret == "" {
		return nil, apperror.NewValidation("secret is required").
			WithDetail("field", "secret")
	}

	role, ok := s.matchRole(secret)
	if !ok {
		logger.Warn(ctx, "secret verification failed")
		return nil, apperror.NewUnauthorized("invalid secret")
	}

	token, expiresAt, err := s.jwt.GenerateToken(role)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	logger.Info(ctx, "terminal verified", "role", role)
	return &VerifyResult{Role: role, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) matchRole(secret string) (string, bool) {
	if s.config.AdminSecretHash != "" &&
		bcrypt.CompareHashAndPassword([]byte(s.config.AdminSecretHash), []byte(secret)) == nil {
		return appctx.RoleAdmin, true
	}
	if s.config.StaffSecretHash != "" &&
		bcrypt.CompareHashAndPassword([]byte(s.config.StaffSecretHash), []byte(secret)) == nil {
		return appctx.RoleStaff, true
	}
	return "", false
}
