// Package auth holds the credential primitives of the auth server: session
// token issuance/verification (HS256 JWT) and bcrypt password hashing.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yapplr/yapplr/internal/common"
	"github.com/yapplr/yapplr/internal/server/models"
)

// Claims is the session token claim set. Subject carries the account id and
// ID (jti) a unique token identifier.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Username string `json:"username"`
}

// TokenSettings configures a TokenIssuer.
type TokenSettings struct {
	SecretKey string
	Issuer    string
	Audience  string
	Validity  time.Duration
}

// TokenIssuer signs and verifies session tokens with a symmetric key.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	validity time.Duration
	now      func() time.Time
}

// NewTokenIssuer validates the key length and returns an issuer.
func NewTokenIssuer(s TokenSettings) (*TokenIssuer, error) {
	if len(s.SecretKey) < common.MinSecretKeyLength {
		return nil, common.ErrMisconfiguredSecret
	}
	if s.Validity <= 0 {
		return nil, fmt.Errorf("session token validity must be positive")
	}
	return &TokenIssuer{
		secret:   []byte(s.SecretKey),
		issuer:   s.Issuer,
		audience: s.Audience,
		validity: s.Validity,
		now:      time.Now,
	}, nil
}

// Issue signs a token for account and returns it with its expiry.
func (i *TokenIssuer) Issue(account *models.Account) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.validity)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:    account.Email,
		Username: account.Username,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies signature, algorithm, issuer, audience and expiry.
// An expired token yields common.ErrTokenExpired; every other failure
// yields common.ErrInvalidToken.
func (i *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
