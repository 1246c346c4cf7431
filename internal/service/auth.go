package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/model"
)

// TokenTTL is the lifetime of an admin session token. Logout is client-side
// (cookie removal); there is no server-side revocation, so expiry is the
// only thing that ends a session.
const TokenTTL = 24 * time.Hour

var (
	// ErrInvalidCredentials covers both unknown username and wrong password.
	// Callers must not distinguish the two cases to the client.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned for tokens that are malformed, tampered
	// with, expired, or signed with a different secret.
	ErrInvalidToken = errors.New("invalid token")
)

// timingDummyHash is a bcrypt digest compared against when the username does
// not exist, so unknown-user and wrong-password take similar time.
const timingDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Claims is the payload carried by admin session tokens.
type Claims struct {
	AdminID  int64  `json:"admin_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService owns password hashing, credential checks, and session token
// issue/verify for the admin account.
type AuthService struct {
	store     *config.Store
	jwtSecret []byte
	now       func() time.Time
}

// NewAuthService builds the service. The secret must be non-empty; callers
// are expected to have validated configuration before getting here.
func NewAuthService(store *config.Store, jwtSecret string) *AuthService {
	return &AuthService{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

// HashPassword derives a bcrypt hash from a plaintext password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plaintext matches the stored hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Register creates the singleton admin account. It returns
// config.ErrAdminExists when an account is already present; the store's
// singleton constraint makes that decision atomic under concurrent calls.
func (s *AuthService) Register(ctx context.Context, username, password, email string) (*model.Admin, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	admin := &model.Admin{
		Username:     strings.TrimSpace(username),
		PasswordHash: hash,
		Email:        strings.TrimSpace(email),
		Role:         model.RoleAdmin,
	}
	if err := s.store.CreateAdmin(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// Authenticate checks the credentials and returns the account on success.
// Unknown usernames still burn a bcrypt compare so the two failure modes are
// not separable by timing, and both come back as ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.Admin, error) {
	admin, err := s.store.GetAdminByUsername(ctx, username)
	if errors.Is(err, config.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword([]byte(timingDummyHash), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !VerifyPassword(password, admin.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	// Best effort; login still succeeds if the stamp fails.
	_ = s.store.UpdateAdminLastLogin(ctx, admin.ID)
	return admin, nil
}

// IssueToken signs a session token for the account with the given lifetime.
func (s *AuthService) IssueToken(admin *model.Admin, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		AdminID:  admin.ID,
		Username: admin.Username,
		Role:     admin.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a session token, returning its claims.
// Any failure collapses to ErrInvalidToken; the guard has no reason to tell
// clients why a token was rejected.
func (s *AuthService) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
