package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/config"
	"github.com/medosmotr/examination-api/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims are the session token claims issued after a successful
// verification or password login
type Claims struct {
	Phone                 string  `json:"phone"`
	Role                  *string `json:"role,omitempty"`
	ClinicSubRole         *string `json:"clinicSubRole,omitempty"`
	RegistrationCompleted bool    `json:"registrationCompleted"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates first-party HS256 session tokens
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenManager creates a token manager from auth configuration
func NewTokenManager(cfg *config.AuthConfig, appName string) *TokenManager {
	return &TokenManager{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTLDuration(),
		issuer: appName,
	}
}

// Issue creates a signed session token for the user
func (m *TokenManager) Issue(user *domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Phone:                 user.Phone,
		RegistrationCompleted: user.RegistrationCompleted,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
	}
	if user.Role != nil {
		role := string(*user.Role)
		claims.Role = &role
	}
	if user.ClinicSubRole != nil {
		subRole := string(*user.ClinicSubRole)
		claims.ClinicSubRole = &subRole
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses a session token and returns the embedded user context
func (m *TokenManager) Validate(tokenString string) (*UserContext, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	userCtx := &UserContext{
		UserID:                userID,
		Phone:                 claims.Phone,
		RegistrationCompleted: claims.RegistrationCompleted,
	}
	if claims.Role != nil {
		role := domain.UserRole(*claims.Role)
		if role.IsValid() {
			userCtx.Role = &role
		}
	}
	if claims.ClinicSubRole != nil {
		subRole := domain.ClinicSubRole(*claims.ClinicSubRole)
		if subRole.IsValid() {
			userCtx.ClinicSubRole = &subRole
		}
	}
	return userCtx, nil
}
