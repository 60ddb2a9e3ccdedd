package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// ErrInvalidToken is the only error callers see for a token that does not verify.
var ErrInvalidToken = errors.New("invalid token")

const codeInvalidToken = "AUTH_TOKEN_INVALID"

// TokenCodec signs and verifies HS256 tokens carrying exactly {sub, exp}.
type TokenCodec struct {
	secret []byte
}

// NewTokenCodec returns a codec for the given signing secret.
func NewTokenCodec(secret []byte) *TokenCodec {
	return &TokenCodec{secret: secret}
}

// Encode signs a token for subject that expires at expiresAt.
func (c *TokenCodec) Encode(subject string, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and that exp is strictly after now, and returns
// the subject. No leeway is applied. Every failure wraps ErrInvalidToken; the
// oops "reason" context says which check failed, for internal logs only.
func (c *TokenCodec) Decode(tokenString string, now time.Time) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	claims := &jwt.RegisteredClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return "", invalidToken(tokenFailureReason(err), err)
	}
	if !token.Valid {
		return "", invalidToken("invalid", nil)
	}
	if claims.Subject == "" {
		return "", invalidToken("missing_subject", nil)
	}
	return claims.Subject, nil
}

func tokenFailureReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return "missing_claim"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "unverifiable"
	default:
		return "invalid"
	}
}

func invalidToken(reason string, cause error) error {
	b := oops.Code(codeInvalidToken).With("reason", reason)
	if cause != nil {
		return b.Wrap(fmt.Errorf("%w: %v", ErrInvalidToken, cause))
	}
	return b.Wrap(ErrInvalidToken)
}
