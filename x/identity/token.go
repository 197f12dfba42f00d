package identity

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
)

// MinSecretLength is the minimal length of the HMAC secret.
const MinSecretLength = 16

// SubjectCondition returns the condition that represents the owner of a
// token with given subject.
func SubjectCondition(subject string) weave.Condition {
	return weave.NewCondition("jwt", "sub", []byte(subject))
}

// Tokens issues and verifies HMAC signed JSON Web Tokens.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens returns a token service. Every issued token is valid for the ttl
// duration.
func NewTokens(secret []byte, issuer string, ttl time.Duration) (*Tokens, error) {
	if len(secret) < MinSecretLength {
		return nil, errors.Wrapf(errors.ErrInput, "secret must be at least %d bytes", MinSecretLength)
	}
	if ttl <= 0 {
		return nil, errors.Wrap(errors.ErrInput, "token ttl must be positive")
	}
	return &Tokens{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue returns a signed token for given subject.
func (t *Tokens) Issue(subject string) (string, error) {
	if subject == "" {
		return "", errors.Wrap(errors.ErrEmpty, "subject")
	}
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", errors.Wrapf(errors.ErrHuman, "sign token: %s", err)
	}
	return signed, nil
}

// Verify validates given token and returns the condition of its subject. A
// "Bearer " prefix is accepted.
func (t *Tokens) Verify(raw string) (weave.Condition, error) {
	raw = strings.TrimPrefix(raw, "Bearer ")
	if raw == "" {
		return nil, errors.Wrap(errors.ErrUnauthorized, "missing token")
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Wrapf(errors.ErrUnauthorized, "unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "invalid token: %s", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.Wrap(errors.ErrUnauthorized, "invalid token")
	}
	return SubjectCondition(claims.Subject), nil
}
