package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kirinyoku/canteen-go/internal/clock"
	"github.com/kirinyoku/canteen-go/internal/domain"
)

const issuer = "canteen"

var ErrInvalidToken = errors.New("invalid token")

// Claims are the verified contents of an access token.
type Claims struct {
	EmployeeID int64
	Role       domain.Role
	ExpiresAt  time.Time
}

type tokenClaims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Issuer signs and verifies HS256 access tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewIssuer(secret string, ttl time.Duration, c clock.Clock) *Issuer {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	if c == nil {
		c = clock.NewSystem()
	}

	return &Issuer{secret: []byte(secret), ttl: ttl, clock: c}
}

func (i *Issuer) Issue(employeeID int64, role domain.Role) (Token, error) {
	const op = "auth.Issuer.Issue"

	now := i.clock.Now()
	exp := now.Add(i.ttl)

	claims := tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(employeeID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("%s: %w", op, err)
	}

	return Token{Token: signed, ExpiresAt: exp}, nil
}

func (i *Issuer) Parse(raw string) (*Claims, error) {
	const op = "auth.Issuer.Parse"

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || !claims.Role.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return &Claims{
		EmployeeID: id,
		Role:       claims.Role,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}
