// Package resettoken issues and verifies signed password-reset links.
//
// A token is an HS256 JWT whose subject is the account id. It also carries a
// fingerprint of the password hash current at issue time, so it stops
// verifying as soon as the password changes: a reset token is single use
// without any server-side state.
package resettoken

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is how long a reset link stays usable.
const DefaultTTL = time.Hour

const issuer = "tutorcenter/password-reset"

// ErrInvalidToken covers malformed, forged, expired and already-used tokens.
var ErrInvalidToken = errors.New("reset token is invalid or expired")

// Claims are the JWT claims of a reset token.
type Claims struct {
	PasswordFingerprint string `json:"pwh"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies reset tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. ttl <= 0 selects DefaultTTL.
// PRE: secret is non-empty
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: secret, ttl: ttl, now: time.Now}
}

// Fingerprint returns a short digest of a password hash.
func Fingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}

// Issue returns a signed token for accountID bound to its current password hash.
func (i *Issuer) Issue(accountID, passwordHash string) (string, error) {
	now := i.now()
	claims := Claims{
		PasswordFingerprint: Fingerprint(passwordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and expiry and returns the claims.
// The caller must then call Matches with the account's current hash.
func (i *Issuer) Verify(token string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// Matches reports whether claims were issued against passwordHash.
func (c Claims) Matches(passwordHash string) bool {
	return c.PasswordFingerprint == Fingerprint(passwordHash)
}
