package remote

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenTTL keeps signed device tokens short-lived; each request that needs
// one signs afresh, so expiry only has to outlast a single round trip.
const tokenTTL = 5 * time.Minute

// deviceClaims are the claims of a signed device token.
type deviceClaims struct {
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

// TokenSigner mints short-lived HS256 tokens proving device identity, for
// deployments where a static bearer token is not acceptable.
type TokenSigner struct {
	deviceID string
	secret   []byte
}

// NewTokenSigner creates a signer for the given device and shared secret.
func NewTokenSigner(deviceID, secret string) *TokenSigner {
	return &TokenSigner{deviceID: deviceID, secret: []byte(secret)}
}

// Sign returns a fresh signed token.
func (s *TokenSigner) Sign() (string, error) {
	now := time.Now()
	claims := &deviceClaims{
		DeviceID: s.deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.deviceID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
