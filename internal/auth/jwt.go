package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionIssuer = "prediction-venue"
	sessionTTL    = 24 * time.Hour
)

var (
	ErrNoSigningKey   = errors.New("session signing key not configured")
	ErrInvalidSession = errors.New("invalid session token")
)

var signingKey []byte

// InitJWT sets the HMAC key used to sign and verify session tokens
func InitJWT(secret string) {
	signingKey = []byte(secret)
}

// Claims identify the wallet a session was issued to. The wallet is also
// carried as the subject.
type Claims struct {
	UserID        uint   `json:"user_id"`
	WalletAddress string `json:"wallet_address"`
	jwt.RegisteredClaims
}

// GenerateToken issues a session token for a wallet that proved ownership
func GenerateToken(userID uint, walletAddress string) (string, error) {
	if len(signingKey) == 0 {
		return "", ErrNoSigningKey
	}
	issued := time.Now()
	session := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:        userID,
		WalletAddress: walletAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   walletAddress,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(sessionTTL)),
		},
	})
	signed, err := session.SignedString(signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

// ValidateToken checks the signature, issuer and expiry of a session token
// and returns its claims.
func ValidateToken(raw string) (*Claims, error) {
	if len(signingKey) == 0 {
		return nil, ErrNoSigningKey
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	if claims.WalletAddress == "" || claims.Subject != claims.WalletAddress {
		return nil, fmt.Errorf("%w: wallet does not match subject", ErrInvalidSession)
	}
	return claims, nil
}
