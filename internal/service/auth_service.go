package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/univ-archive/internal/dto"
	"github.com/noah-isme/univ-archive/internal/models"
	appErrors "github.com/noah-isme/univ-archive/pkg/errors"
)

const tokenIssuer = "univ-archive"

// AuthConfig defines configuration for the admin login flow.
type AuthConfig struct {
	PasswordHash string
	// Password is hashed at construction when no hash is configured.
	Password    string
	TokenSecret string
	TokenTTL    time.Duration
}

// AuthService authenticates the archive administrator.
type AuthService struct {
	passwordHash []byte
	validator    *validator.Validate
	logger       *zap.Logger
	config       AuthConfig
	now          func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(validate *validator.Validate, logger *zap.Logger, config AuthConfig) (*AuthService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.TokenTTL <= 0 {
		config.TokenTTL = 8 * time.Hour
	}
	if config.TokenSecret == "" {
		return nil, fmt.Errorf("admin token secret is required")
	}
	hash := []byte(config.PasswordHash)
	if len(hash) == 0 {
		if config.Password == "" {
			return nil, fmt.Errorf("admin password or password hash is required")
		}
		generated, err := bcrypt.GenerateFromPassword([]byte(config.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		hash = generated
		logger.Warn("admin password configured in plaintext; set ADMIN_PASSWORD_HASH for production")
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("invalid admin password hash: %w", err)
	}
	config.Password = ""
	return &AuthService{passwordHash: hash, validator: validate, logger: logger, config: config, now: time.Now}, nil
}

// Login verifies the admin password and issues a session token.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*models.AdminSession, error) {
	if err := s.validator.StructCtx(ctx, req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "mot de passe requis")
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password)); err != nil {
		s.logger.Warn("admin login rejected", zap.String("ip", req.IP))
		return nil, appErrors.ErrInvalidCredentials
	}

	token, expiresAt, err := s.generateToken()
	if err != nil {
		return nil, appErrors.Internal(err, "échec de la création de session")
	}
	s.logger.Info("admin login", zap.String("ip", req.IP))
	return &models.AdminSession{
		Token:     token,
		ExpiresIn: int64(s.config.TokenTTL.Seconds()),
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken parses and validates an admin token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "session invalide ou expirée")
	}

	claims, ok := token.Claims.(*models.AdminClaims)
	if !ok || !token.Valid || claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session invalide")
	}
	return claims, nil
}

func (s *AuthService) generateToken() (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.TokenTTL)
	claims := &models.AdminClaims{
		Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.TokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
