package security

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
)

// JWTVerifier validates access tokens issued by the authentication service.
// RS256 with a PEM public key is preferred; an HS256 shared secret is accepted
// for local setups.
type JWTVerifier struct {
	publicKey *rsa.PublicKey
	secret    []byte
	issuer    string
}

func NewJWTVerifier(publicKeyPEM, hmacSecret, issuer string) (*JWTVerifier, error) {
	v := &JWTVerifier{issuer: strings.TrimSpace(issuer)}
	if strings.TrimSpace(publicKeyPEM) != "" {
		pub, err := parseRSAPublic(publicKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		v.publicKey = pub
	}
	if hmacSecret != "" {
		v.secret = []byte(hmacSecret)
	}
	if v.publicKey == nil && v.secret == nil {
		return nil, errors.New("jwt public key or hmac secret is required")
	}
	return v, nil
}

type accessClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (v *JWTVerifier) methods() []string {
	var out []string
	if v.publicKey != nil {
		out = append(out, jwt.SigningMethodRS256.Alg())
	}
	if v.secret != nil {
		out = append(out, jwt.SigningMethodHS256.Alg())
	}
	return out
}

func (v *JWTVerifier) Verify(raw string) (ports.AuthClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods()),
		jwt.WithLeeway(30 * time.Second),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	parsed, err := jwt.ParseWithClaims(raw, &accessClaims{}, func(token *jwt.Token) (any, error) {
		switch token.Method.Alg() {
		case jwt.SigningMethodRS256.Alg():
			return v.publicKey, nil
		case jwt.SigningMethodHS256.Alg():
			return v.secret, nil
		}
		return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
	}, opts...)
	if err != nil {
		return ports.AuthClaims{}, err
	}
	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid {
		return ports.AuthClaims{}, errors.New("invalid token claims")
	}

	subject := claims.UserID
	if subject == "" {
		subject = claims.Subject
	}
	userID, err := uuid.Parse(subject)
	if err != nil {
		return ports.AuthClaims{}, fmt.Errorf("parse user_id: %w", err)
	}
	out := ports.AuthClaims{UserID: userID, Role: claims.Role}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return out, nil
}

func parseRSAPublic(raw string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return nil, errors.New("invalid public PEM")
	}
	if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		if rsaKey, ok := key.(*rsa.PublicKey); ok {
			return rsaKey, nil
		}
		return nil, errors.New("public key is not RSA")
	}
	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}
	if cert, err := x509.ParseCertificate(block.Bytes); err == nil {
		if rsaKey, ok := cert.PublicKey.(*rsa.PublicKey); ok {
			return rsaKey, nil
		}
	}
	return nil, errors.New("unsupported public key format")
}

var _ ports.TokenVerifier = (*JWTVerifier)(nil)
