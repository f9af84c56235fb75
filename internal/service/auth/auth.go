package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mishankov/taskhub/internal/apperrors"
	"github.com/mishankov/taskhub/internal/logger"
	"github.com/mishankov/taskhub/internal/models"
	"github.com/mishankov/taskhub/internal/repository"
	"github.com/mishankov/taskhub/internal/service/auth/tokenmanager"
)

const (
	defaultAccessCookieName  = "accessToken"
	defaultRefreshCookieName = "refreshToken"
	defaultAuthScheme        = "Bearer"

	resetSecretBytesLen = 32
)

// Sender of password recovery mail
type MailSender interface {
	SendPasswordResetEmail(ctx context.Context, to string, name string, resetLink string) error
}

type Config struct {
	// Hasher to use during registration or login
	// Default bcrypt hasher is used if not set
	Hasher PasswordHasher

	// Cookie names for the token pair
	// Defaults: accessToken, refreshToken
	AccessCookieName  string
	RefreshCookieName string

	// Set Secure attribute on auth cookies (on in production)
	SecureCookies bool

	// Base URL of the SPA, used to build password reset links
	FrontendURL string
}

// Auth service: the whole session lifecycle lives here
// register, login, logout, refresh with rotation, password recovery
type AuthService struct {
	token  *tokenmanager.TokenManager
	hasher PasswordHasher

	userRepo  repository.UserRepo
	resetRepo repository.ResetTokenRepo

	mail   MailSender
	logger logger.Logger

	accessCookieName  string
	refreshCookieName string
	secureCookies     bool
	frontendURL       string
}

func NewService(
	cfg Config,
	token *tokenmanager.TokenManager,
	userRepo repository.UserRepo,
	resetRepo repository.ResetTokenRepo,
	mail MailSender,
	l logger.Logger,
) (*AuthService, error) {
	if token == nil {
		return nil, errors.New("token manager must not be nil")
	}
	if userRepo == nil || resetRepo == nil {
		return nil, errors.New("repos must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	if cfg.AccessCookieName == "" {
		cfg.AccessCookieName = defaultAccessCookieName
	}
	if cfg.RefreshCookieName == "" {
		cfg.RefreshCookieName = defaultRefreshCookieName
	}

	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &AuthService{
		token:             token,
		hasher:            hasher,
		userRepo:          userRepo,
		resetRepo:         resetRepo,
		mail:              mail,
		logger:            l,
		accessCookieName:  cfg.AccessCookieName,
		refreshCookieName: cfg.RefreshCookieName,
		secureCookies:     cfg.SecureCookies,
		frontendURL:       strings.TrimRight(cfg.FrontendURL, "/"),
	}, nil
}

// Register creates the user and opens a session for it right away
func (s *AuthService) Register(ctx context.Context, name string, email string, phone string, password string) (models.User, models.TokenPair, error) {
	var pair models.TokenPair

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, pair, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, name, normalizeEmail(email), phone, hash)
	if err != nil {
		return user, pair, err
	}

	pair, err = s.openSession(ctx, user.ID)
	if err != nil {
		return user, pair, err
	}

	return user, pair, nil
}

// Login verifies credentials and opens a session
// Unknown user and wrong password are indistinguishable for the caller
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error) {
	var pair models.TokenPair

	user, err := s.userRepo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		// Burn comparable time to keep "no such user" and "wrong password"
		// indistinguishable from outside
		_ = s.hasher.Compare("$2a$10$000000000000000000000000000000000000000000000000000000", password)
		return models.User{}, pair, apperrors.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, pair, apperrors.ErrInvalidCredentials
	}

	pair, err = s.openSession(ctx, user.ID)
	if err != nil {
		return user, pair, err
	}

	return user, pair, nil
}

// Logout drops the stored refresh token, killing the session server side
// Never fails: a client pressing "logout" must always succeed
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) {
	if err := s.userRepo.SetRefreshToken(ctx, userID, nil); err != nil {
		s.logger.Warn("failed to clear refresh token on logout", "user_id", userID, "error", err.Error())
	}
}

// Refresh rotates the token pair
// The incoming token must verify cryptographically AND match the single
// stored slot, anything else is an invalid token
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	var pair models.TokenPair

	userID, err := s.token.ParseRefresh(refresh)
	if err != nil {
		return pair, err
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return pair, fmt.Errorf("refresh for unknown user: %w", apperrors.ErrTokenInvalid)
	}

	if user.RefreshToken == nil || *user.RefreshToken != refresh {
		return pair, fmt.Errorf("refresh token already rotated or revoked: %w", apperrors.ErrTokenInvalid)
	}

	pair, err = s.token.GeneratePair(user.ID)
	if err != nil {
		return pair, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	// Compare-and-swap: of two concurrent refreshes with the same token
	// only one may win
	err = s.userRepo.SwapRefreshToken(ctx, user.ID, refresh, pair.Refresh.Value)
	if err != nil {
		if errors.Is(err, apperrors.ErrRefreshTokenMismatch) {
			return models.TokenPair{}, fmt.Errorf("refresh token lost the race: %w", apperrors.ErrTokenInvalid)
		}
		return models.TokenPair{}, err
	}

	return pair, nil
}

// ForgotPassword starts password recovery
// Returns nil for unknown emails too: the response must not reveal
// whether an account exists. Mail delivery failures are logged, not
// surfaced, for the same reason.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetUserByEmail(ctx, normalizeEmail(email))
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return nil
	case err != nil:
		return err
	}

	b := make([]byte, resetSecretBytesLen)
	if _, err := rand.Read(b); err != nil {
		return fmt.Errorf("error while generating reset secret. Err: %w", err)
	}
	secret := hex.EncodeToString(b)

	// Store the hash only. The plaintext secret lives in the mailed link
	// and nowhere else.
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error while hashing reset secret. Err: %w", err)
	}

	if _, err := s.resetRepo.Create(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s&id=%s", s.frontendURL, secret, user.ID)

	if s.mail == nil {
		s.logger.Warn("mail sender not configured, reset link dropped", "user_id", user.ID)
		return nil
	}

	if err := s.mail.SendPasswordResetEmail(ctx, user.Email, user.Name, link); err != nil {
		s.logger.Error("failed to send password reset email", "user_id", user.ID, "error", err.Error())
	}

	return nil
}

// ResetPassword completes recovery with the mailed secret
// The token is single use and any live session is revoked
func (s *AuthService) ResetPassword(ctx context.Context, userID uuid.UUID, secret string, newPassword string) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	token, err := s.resetRepo.GetActive(ctx, user.ID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(token.TokenHash), []byte(secret)); err != nil {
		return apperrors.ErrResetTokenInvalid
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, error=%w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	if err := s.resetRepo.Delete(ctx, token.ID); err != nil {
		return err
	}

	// Password just changed, whatever session existed should not survive
	s.Logout(ctx, user.ID)

	return nil
}

// openSession issues a token pair and persists the refresh half
func (s *AuthService) openSession(ctx context.Context, userID uuid.UUID) (models.TokenPair, error) {
	pair, err := s.token.GeneratePair(userID)
	if err != nil {
		return pair, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	if err := s.userRepo.SetRefreshToken(ctx, userID, &pair.Refresh.Value); err != nil {
		return pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return pair, nil
}

// UserFromRequest resolves the user behind the request's access token
// Header 'Authorization: Bearer ...' wins over the access cookie
func (s *AuthService) UserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	access, err := s.readAccessToken(r)
	if err != nil {
		return models.User{}, err
	}

	userID, err := s.token.ParseAccess(access)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		// Token may outlive the user it was issued for
		return models.User{}, fmt.Errorf("user of the token is gone: %w", apperrors.ErrTokenInvalid)
	}

	return user, nil
}

func (s *AuthService) readAccessToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, defaultAuthScheme) || token == "" {
			return "", fmt.Errorf("malformed authorization header: %w", apperrors.ErrTokenInvalid)
		}
		return token, nil
	}

	cookie, err := r.Cookie(s.accessCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	return "", fmt.Errorf("no access token in request: %w", apperrors.ErrTokenMissing)
}

// ReadRefreshToken extracts the refresh token from the request cookie
// Callers may fall back to the request body if the cookie is not there
func (s *AuthService) ReadRefreshToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", fmt.Errorf("no refresh token in request: %w", apperrors.ErrTokenMissing)
	}

	return cookie.Value, nil
}

// SetTokenPair writes the pair to response cookies
// Both cookies are HttpOnly, SameSite=Strict, Secure in production and
// live exactly as long as their tokens
func (s *AuthService) SetTokenPair(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.accessCookieName,
		Value:    pair.Access.Value,
		Path:     "/",
		MaxAge:   int(s.token.AccessTTL().Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    pair.Refresh.Value,
		Path:     "/",
		MaxAge:   int(s.token.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearTokenPair drops both auth cookies
func (s *AuthService) ClearTokenPair(w http.ResponseWriter) {
	for _, name := range []string{s.accessCookieName, s.refreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.secureCookies,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// SetTokenPairToRequest sets the pair on an outgoing request
// Mirror of SetTokenPair, handy in tests and the API client
func (s *AuthService) SetTokenPairToRequest(r *http.Request, pair models.TokenPair) {
	r.Header.Set("Authorization", defaultAuthScheme+" "+pair.Access.Value)
	r.AddCookie(&http.Cookie{Name: s.refreshCookieName, Value: pair.Refresh.Value})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
