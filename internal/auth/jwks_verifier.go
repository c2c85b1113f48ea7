package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/homepanel/api/internal/config"
)

// ErrSubjectNotAllowed is returned for valid tokens of users outside the
// configured allow list.
var ErrSubjectNotAllowed = errors.New("subject not allowed")

// TokenVerifier defines the interface for JWT token verification
type TokenVerifier interface {
	Validate(tokenString string) (*Claims, error)
	Close() error
}

// Claims represents the JWT claims from Zitadel
type Claims struct {
	UserID            string   `json:"sub"`
	Email             string   `json:"email,omitempty"`
	EmailVerified     bool     `json:"email_verified,omitempty"`
	Name              string   `json:"name,omitempty"`
	PreferredUsername string   `json:"preferred_username,omitempty"`
	Roles             []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWKSVerifier implements TokenVerifier using the issuer's published key set
type JWKSVerifier struct {
	keyfunc  jwt.Keyfunc
	issuer   string
	audience string
	allowed  map[string]struct{}

	// stops the background key refresh
	cancel context.CancelFunc
}

// NewJWKSVerifier discovers the issuer's JWKS endpoint and keeps its keys
// refreshed until Close is called.
func NewJWKSVerifier(cfg *config.ZitadelConfig) (*JWKSVerifier, error) {
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("zitadel issuer is required")
	}

	discoverCtx, cancelDiscover := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelDiscover()

	jwksURL, err := discoverJWKSURL(discoverCtx, http.DefaultClient, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover JWKS URL: %w", err)
	}

	// The refresh goroutine lives as long as this context.
	refreshCtx, cancel := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultCtx(refreshCtx, []string{jwksURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create JWKS keyfunc: %w", err)
	}

	v := newVerifier(jwks.Keyfunc, cfg.Issuer, cfg.ClientID, cfg.AllowedSubjects)
	v.cancel = cancel
	return v, nil
}

func newVerifier(kf jwt.Keyfunc, issuer, audience string, allowedSubjects []string) *JWKSVerifier {
	v := &JWKSVerifier{
		keyfunc:  kf,
		issuer:   issuer,
		audience: audience,
	}
	if len(allowedSubjects) > 0 {
		v.allowed = make(map[string]struct{}, len(allowedSubjects))
		for _, sub := range allowedSubjects {
			v.allowed[sub] = struct{}{}
		}
	}
	return v
}

// discoverJWKSURL fetches the OIDC discovery document and extracts the jwks_uri.
func discoverJWKSURL(ctx context.Context, hc *http.Client, issuer string) (string, error) {
	discoveryURL := fmt.Sprintf("%s/.well-known/openid-configuration", issuer)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create discovery request: %w", err)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch discovery document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("discovery endpoint returned status %d", resp.StatusCode)
	}

	var doc struct {
		Issuer  string `json:"issuer"`
		JWKSURI string `json:"jwks_uri"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("failed to decode discovery document: %w", err)
	}

	if doc.JWKSURI == "" {
		return "", fmt.Errorf("jwks_uri not found in discovery document")
	}
	if doc.Issuer != "" && doc.Issuer != issuer {
		return "", fmt.Errorf("discovery issuer %q does not match %q", doc.Issuer, issuer)
	}

	return doc.JWKSURI, nil
}

// Validate checks signature, issuer, expiry and audience, then the subject
// allow list.
func (v *JWKSVerifier) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.keyfunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if v.allowed != nil {
		if _, ok := v.allowed[claims.UserID]; !ok {
			return nil, ErrSubjectNotAllowed
		}
	}

	return claims, nil
}

// Close stops the key refresh
func (v *JWKSVerifier) Close() error {
	if v.cancel != nil {
		v.cancel()
	}
	return nil
}
