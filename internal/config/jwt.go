package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenSession = errors.New("token does not carry a session id")

// SessionClaims authorize the holder to play one game session.
type SessionClaims struct {
	SessionID int64 `json:"session_id"`
	jwt.RegisteredClaims
}

type JWT struct {
	secret        []byte
	signingMethod jwt.SigningMethod
	tokenLifetime time.Duration
}

func (c JwtConfig) loadSecret() ([]byte, error) {
	if c.Secret != "" {
		return []byte(c.Secret), nil
	}
	if c.SecretFile == "" {
		return nil, fmt.Errorf("no jwt secret or secret file set")
	}
	b, err := os.ReadFile(c.SecretFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read JWT secret: %w", err)
	}
	secret := []byte(strings.TrimSpace(string(b)))
	if len(secret) == 0 {
		return nil, fmt.Errorf("JWT secret file %s is empty", c.SecretFile)
	}
	return secret, nil
}

func NewJWT(c JwtConfig) (*JWT, error) {
	secret, err := c.loadSecret()
	if err != nil {
		return nil, err
	}
	j := &JWT{
		secret:        secret,
		signingMethod: jwt.SigningMethodHS256,
		tokenLifetime: c.TokenLifetime.Duration,
	}
	return j, nil
}

// SignSession issues a token for sessionID. A zero token lifetime means the
// token never expires.
func (j *JWT) SignSession(sessionID int64, now time.Time) (string, error) {
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatInt(sessionID, 10),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if j.tokenLifetime > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(j.tokenLifetime))
	}
	return jwt.NewWithClaims(j.signingMethod, claims).SignedString(j.secret)
}

func (j *JWT) ParseSession(tokenString string) (*SessionClaims, error) {
	var claims SessionClaims
	_, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(t *jwt.Token) (any, error) {
			return j.secret, nil
		},
		jwt.WithValidMethods([]string{j.signingMethod.Alg()}),
	)
	if err != nil {
		return nil, err
	}
	if claims.SessionID == 0 {
		return nil, ErrTokenSession
	}
	return &claims, nil
}
