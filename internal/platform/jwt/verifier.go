package jwtmw

import (
	"errors"
	"math"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails signature, expiry or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity payload carried by a verified token.
type Claims struct {
	UserID uint
	Email  string
}

// Verifier validates tokens issued by Generator. It never consults the user store.
type Verifier interface {
	VerifyToken(token string) (*Claims, error)
}

type verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier creates a verifier for HS256 tokens signed with secret.
func NewVerifier(secret string) *verifier {
	return &verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// VerifyToken checks signature and expiry and decodes the payload.
// Every failure is reported as ErrInvalidToken.
func (v *verifier) VerifyToken(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	token, err := v.parser.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		// Check signing algorithm (only HMAC allowed)
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	// JWT numbers are decoded as float64
	sub, ok := claims["sub"].(float64)
	if !ok || sub < 1 || sub > math.MaxUint32 || sub != math.Trunc(sub) {
		return nil, ErrInvalidToken
	}
	email, _ := claims["email"].(string)

	return &Claims{UserID: uint(sub), Email: email}, nil
}
