package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"vidtube/internal/model"
)

var (
	// ErrExpired means the token was well-formed and correctly signed but
	// is past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrInvalid covers malformed tokens, bad signatures, and wrong
	// signing algorithms.
	ErrInvalid = errors.New("token invalid")
)

// AccessClaims is the access-token payload. It denormalizes a few profile
// fields so authorization checks stay stateless.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

type refreshClaims struct {
	jwt.RegisteredClaims
}

// Issuer mints and verifies the two token families. Access and refresh
// tokens are signed with independent secrets so one cannot stand in for
// the other.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewIssuer(accessSecret string, refreshSecret string, accessTTL time.Duration, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (i *Issuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

func (i *Issuer) IssueAccess(user model.User) (string, error) {
	now := time.Now().UTC()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) IssueRefresh(userID string) (string, error) {
	now := time.Now().UTC()
	claims := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti makes every mint distinct; without it two tokens
			// issued within the same second would be byte-identical and
			// rotation could not tell old from new.
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, nil
}

// IssuePair mints a fresh access+refresh pair for the same user.
func (i *Issuer) IssuePair(user model.User) (model.TokenPair, error) {
	access, err := i.IssueAccess(user)
	if err != nil {
		return model.TokenPair{}, err
	}

	refresh, err := i.IssueRefresh(user.ID)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *Issuer) ParseAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.parse(tokenString, claims, i.accessSecret); err != nil {
		return nil, err
	}

	if claims.Subject == "" {
		return nil, ErrInvalid
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token and returns the user id it is
// bound to. Whether that token is still the live one for the user is the
// session service's concern, not the issuer's.
func (i *Issuer) ParseRefresh(tokenString string) (string, error) {
	claims := &refreshClaims{}
	if err := i.parse(tokenString, claims, i.refreshSecret); err != nil {
		return "", err
	}

	if claims.Subject == "" {
		return "", ErrInvalid
	}
	return claims.Subject, nil
}

func (i *Issuer) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpired
		}
		return ErrInvalid
	}
	if !parsed.Valid {
		return ErrInvalid
	}

	return nil
}
