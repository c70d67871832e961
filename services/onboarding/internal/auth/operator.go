package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/linkwise/linkwise/pkg/middleware"
)

// RoleOperator is the only role allowed on the operator dashboard.
const RoleOperator = "admin"

const issuer = "linkwise-onboarding"

// OperatorClaims are the claims carried by an operator dashboard token.
type OperatorClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// OperatorTokens signs and validates HS256 operator tokens.
type OperatorTokens struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewOperatorTokens creates a token manager for the given shared secret.
func NewOperatorTokens(secret string, expiry time.Duration) *OperatorTokens {
	return &OperatorTokens{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// Issue signs a token for userID with role.
func (o *OperatorTokens) Issue(userID, role string) (string, error) {
	now := o.now().UTC()
	claims := &OperatorClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(o.expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(o.secret)
	if err != nil {
		return "", fmt.Errorf("sign operator token: %w", err)
	}
	return signed, nil
}

// Validate parses tokenString and returns the claims the auth middleware
// puts on the request context.
func (o *OperatorTokens) Validate(tokenString string) (*middleware.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return o.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(o.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse operator token: %w", err)
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid operator token claims")
	}
	if claims.UserID == "" {
		return nil, errors.New("operator token has no user id")
	}

	return &middleware.Claims{UserID: claims.UserID, Role: claims.Role}, nil
}
