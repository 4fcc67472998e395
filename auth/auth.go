package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rpupo63/portfolio-backend/config"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "portfolio-backend"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("expired token")
)

// Authenticator checks the single admin credential and issues session tokens
type Authenticator struct {
	adminEmail   string
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
	compare      func(hash, password []byte) error
}

var (
	decoyOnce sync.Once
	decoyHash []byte
)

// decoy is compared against when no admin hash is configured, so a login
// costs one bcrypt comparison on every path
func decoy() []byte {
	decoyOnce.Do(func() {
		decoyHash, _ = bcrypt.GenerateFromPassword([]byte("portfolio-backend-decoy"), bcrypt.DefaultCost)
	})
	return decoyHash
}

// Claims are the JWT claims of an admin session
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func New(adminEmail, passwordHash, secret string, ttl time.Duration) (*Authenticator, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Authenticator{
		adminEmail:   strings.ToLower(strings.TrimSpace(adminEmail)),
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		ttl:          ttl,
		now:          time.Now,
		compare:      bcrypt.CompareHashAndPassword,
	}, nil
}

// NewFromConfig reads ADMIN_EMAIL, ADMIN_PASSWORD_HASH, JWT_SECRET and JWT_TTL_HOURS
func NewFromConfig(c map[string]string) (*Authenticator, error) {
	return New(
		config.GetString(c, "ADMIN_EMAIL", ""),
		config.GetString(c, "ADMIN_PASSWORD_HASH", ""),
		config.GetString(c, "JWT_SECRET", ""),
		time.Duration(config.GetInt(c, "JWT_TTL_HOURS", 24))*time.Hour,
	)
}

// HashPassword turns a plaintext password into a bcrypt hash.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Login verifies the admin credential and returns a signed token with its expiry.
// The password is always run through bcrypt, so a wrong email takes as long to
// reject as a wrong password.
func (a *Authenticator) Login(email, password string) (string, time.Time, error) {
	hash := a.passwordHash
	configured := a.adminEmail != "" && len(hash) != 0
	if !configured {
		hash = decoy()
	}

	emailMatches := subtle.ConstantTimeCompare([]byte(strings.ToLower(strings.TrimSpace(email))), []byte(a.adminEmail)) == 1
	passwordMatches := a.compare(hash, []byte(password)) == nil

	if !configured || !emailMatches || !passwordMatches {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return a.Issue(a.adminEmail)
}

// Issue signs a session token for subject
func (a *Authenticator) Issue(subject string) (string, time.Time, error) {
	now := a.now()
	expiresAt := now.Add(a.ttl)
	claims := Claims{
		Email: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify validates a token and returns its claims
func (a *Authenticator) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractToken returns the bearer token of the Authorization header
func ExtractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.Split(auth, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}
