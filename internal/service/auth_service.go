package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"users_api/internal/auth"
	"users_api/internal/logger"
	"users_api/internal/models"
	"users_api/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Domain errors for auth flows.
var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidToken    = errors.New("invalid token")
	ErrInvalidUsername = errors.New("username is empty")
)

// AuthConfig holds token signing parameters.
type AuthConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// SignUpInput is the data needed to register an account.
type SignUpInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// AuthService handles user auth logic
type AuthService struct {
	users    repository.Users
	cfg      AuthConfig
	recorder AccessRecorder
	log      *logger.Logger
	now      func() time.Time
}

func NewAuthService(users repository.Users, cfg AuthConfig, recorder AccessRecorder, log *logger.Logger) *AuthService {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &AuthService{users: users, cfg: cfg, recorder: recorder, log: log, now: time.Now}
}

// SignUp hashes password and creates a new user with the USER role.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (int, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return 0, ErrInvalidUsername
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return 0, fmt.Errorf("invalid password: %w", err)
	}
	id, err := s.users.Create(ctx, models.User{
		Username:  username,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      models.RoleUser,
	}, hash)
	if err != nil {
		return 0, err
	}
	recordAccess(ctx, s.recorder, s.log, models.AccessEvent{
		Type:        models.EventSignUp,
		Username:    username,
		Description: "account created",
		Metadata:    map[string]any{"user_id": id},
	})
	return id, nil
}

// tokenClaims defines JWT claims
type tokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// GenerateToken validates credentials and returns JWT
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.FindOneByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if u == nil {
		s.recordSignIn(ctx, username, false, ErrUserNotFound)
		return "", ErrUserNotFound
	}

	if err := verifyPassword(u.PasswordHash, password); err != nil {
		s.recordSignIn(ctx, u.Username, false, ErrInvalidPassword)
		return "", ErrInvalidPassword
	}

	token, err := s.issueToken(u)
	if err != nil {
		return "", err
	}
	s.recordSignIn(ctx, u.Username, true, nil)
	return token, nil
}

func (s *AuthService) recordSignIn(ctx context.Context, username string, ok bool, reason error) {
	meta := map[string]any{"success": ok}
	desc := "token issued"
	if reason != nil {
		meta["reason"] = reason.Error()
		desc = "sign-in rejected"
	}
	recordAccess(ctx, s.recorder, s.log, models.AccessEvent{
		Type:        models.EventSignIn,
		Username:    username,
		Description: desc,
		Metadata:    meta,
	})
}

// ParseToken verifies accessToken and returns the claims it carries.
func (s *AuthService) ParseToken(accessToken string) (auth.Claims, error) {
	token, err := jwt.ParseWithClaims(accessToken, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return auth.Claims{}, err
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return auth.Claims{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Username) == "" {
		return auth.Claims{}, fmt.Errorf("%w: username claim missing", ErrInvalidToken)
	}

	return auth.Claims{Username: claims.Username, Role: claims.Role}, nil
}

// helper: hash password safely
func hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// helper: issue a signed JWT for a user
func (s *AuthService) issueToken(u *models.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			Issuer:    s.cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Username: u.Username,
		Role:     u.Role,
	})
	return token.SignedString([]byte(s.cfg.Secret))
}
