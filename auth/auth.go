// Package auth provides bearer-token verification and role definitions for
// the operations backend. Tokens are issued by the account service (outside
// this repository); this package only validates them at the websocket
// handshake and extracts the connecting user's identity.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AmrendraTheCoder/go-backend-sub000/errors"
)

// Role identifies a user's function in the shop. Unknown roles are allowed
// to connect but only ever see the all-users broadcast group.
type Role string

// Defined roles
const (
	RoleAdministrator   Role = "administrator"
	RoleSupervisor      Role = "supervisor"
	RoleManager         Role = "manager"
	RoleJobCoordinator  Role = "job-coordinator"
	RoleMachineOperator Role = "machine-operator"
	RoleStockManager    Role = "stock-manager"
)

// CanReview reports whether the role may approve or reject pending jobs
func (r Role) CanReview() bool {
	switch r {
	case RoleAdministrator, RoleSupervisor, RoleManager:
		return true
	default:
		return false
	}
}

// IsSupervisory reports whether the role has full visibility across the shop
func (r Role) IsSupervisory() bool {
	return r == RoleAdministrator || r == RoleSupervisor
}

// Claims carries the identity fields embedded in a signed bearer token
type Claims struct {
	jwt.RegisteredClaims
	Name      string `json:"name,omitempty"`
	Role      Role   `json:"role"`
	MachineID string `json:"machine_id,omitempty"` // set for machine operators
}

// UserID returns the token subject
func (c *Claims) UserID() string {
	return c.Subject
}

// Actor is the authenticated identity performing a domain operation.
// Domain services take an Actor rather than raw claims so permission checks
// stay decoupled from the token format.
type Actor struct {
	ID        string
	Name      string
	Role      Role
	MachineID string
}

// Actor converts verified claims into a domain actor
func (c *Claims) Actor() Actor {
	return Actor{
		ID:        c.Subject,
		Name:      c.Name,
		Role:      c.Role,
		MachineID: c.MachineID,
	}
}

// Verifier validates HMAC-signed bearer tokens
type Verifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// VerifierOption configures a Verifier
type VerifierOption func(*Verifier)

// WithIssuer requires tokens to carry the given issuer claim
func WithIssuer(issuer string) VerifierOption {
	return func(v *Verifier) {
		v.issuer = issuer
	}
}

// WithLeeway allows clock skew when validating time-based claims
func WithLeeway(d time.Duration) VerifierOption {
	return func(v *Verifier) {
		v.leeway = d
	}
}

// NewVerifier creates a Verifier for the given signing secret
func NewVerifier(secret []byte, opts ...VerifierOption) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Verifier", "NewVerifier",
			"signing secret cannot be empty")
	}

	v := &Verifier{secret: secret, leeway: 30 * time.Second}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify parses and validates a bearer token and returns its claims.
// Any failure is reported as ErrUnauthenticated: the caller must reject the
// connection before creating any session state.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.Unauthenticatedf("missing token")
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return v.secret, nil
	}, parserOpts...)
	if err != nil {
		return nil, errors.Unauthenticatedf("invalid token: %v", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.Unauthenticatedf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, errors.Unauthenticatedf("token has no subject")
	}

	return claims, nil
}
