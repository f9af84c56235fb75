package tokenmanager

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mishankov/taskhub/internal/apperrors"
	"github.com/mishankov/taskhub/internal/models"
)

const (
	defaultSigningMethod   = "HS256"
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
)

type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
}

// Token manager config with sensible defaults
type Config struct {
	// Secrets to sign access and refresh tokens
	// Separate keys so one token kind can never pass for the other
	// AccessSecret is required, RefreshSecret falls back to AccessSecret
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type TokenManager struct {
	accessSecret  string
	refreshSecret string

	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.AccessSecret == "" {
		return nil, errors.New("access secret must not be empty")
	}
	if cfg.RefreshSecret == "" {
		cfg.RefreshSecret = cfg.AccessSecret
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if alg == nil {
		return nil, fmt.Errorf("unknown signing method %q", cfg.Alg)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		alg:           alg,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}, nil
}

func (m *TokenManager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// GeneratePair issues a fresh access + refresh token pair for the user
// Both tokens are self contained JWT, persisting the refresh one is the
// caller's business
func (m *TokenManager) GeneratePair(userID uuid.UUID) (models.TokenPair, error) {
	var pair models.TokenPair

	access, err := m.generate(userID, m.accessSecret, m.accessTTL)
	if err != nil {
		return pair, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	refresh, err := m.generate(userID, m.refreshSecret, m.refreshTTL)
	if err != nil {
		return pair, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

func (m *TokenManager) generate(userID uuid.UUID, secret string, ttl time.Duration) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(
		m.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID: userID,
		},
	)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return models.IssuedToken{}, err
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// ParseAccess parses and validates an access token
// Returns apperrors.ErrTokenExpired or apperrors.ErrTokenInvalid
func (m *TokenManager) ParseAccess(access string) (uuid.UUID, error) {
	return m.parse(access, m.accessSecret)
}

// ParseRefresh parses and validates a refresh token cryptographically
// The caller still must compare it with the stored one: a valid signature
// alone does not mean the session is alive
func (m *TokenManager) ParseRefresh(refresh string) (uuid.UUID, error) {
	return m.parse(refresh, m.refreshSecret)
}

func (m *TokenManager) parse(tokenString string, secret string) (uuid.UUID, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
	)

	switch {
	case err == nil:
		return claims.UserID, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return uuid.Nil, fmt.Errorf("error parsing token: %w", apperrors.ErrTokenExpired)
	default:
		return uuid.Nil, fmt.Errorf("error parsing token: %w", apperrors.ErrTokenInvalid)
	}
}
