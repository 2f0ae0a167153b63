package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmrendraTheCoder/go-backend-sub000/errors"
)

var testSecret = []byte("test-signing-secret")

// signToken creates a signed token for tests
func signToken(t *testing.T, claims *Claims, secret []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func testClaims(userID string, role Role) *Claims {
	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Name: "Test User",
		Role: role,
	}
}

func TestNewVerifier_EmptySecret(t *testing.T) {
	_, err := NewVerifier(nil)
	assert.Error(t, err)
}

func TestVerify_ValidToken(t *testing.T) {
	v, err := NewVerifier(testSecret)
	require.NoError(t, err)

	claims := testClaims("user-1", RoleMachineOperator)
	claims.MachineID = "2"

	got, err := v.Verify(signToken(t, claims, testSecret))
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID())
	assert.Equal(t, RoleMachineOperator, got.Role)
	assert.Equal(t, "2", got.MachineID)
}

func TestVerify_Failures(t *testing.T) {
	v, err := NewVerifier(testSecret, WithIssuer("printops"))
	require.NoError(t, err)

	expired := testClaims("user-1", RoleAdministrator)
	expired.Issuer = "printops"
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-2 * time.Hour))

	noSubject := testClaims("", RoleAdministrator)
	noSubject.Issuer = "printops"

	wrongIssuer := testClaims("user-1", RoleAdministrator)
	wrongIssuer.Issuer = "someone-else"

	noExpiry := testClaims("user-1", RoleAdministrator)
	noExpiry.Issuer = "printops"
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not.a.jwt"},
		{"wrong secret", signToken(t, testClaims("user-1", RoleAdministrator), []byte("other"))},
		{"expired", signToken(t, expired, testSecret)},
		{"no subject", signToken(t, noSubject, testSecret)},
		{"wrong issuer", signToken(t, wrongIssuer, testSecret)},
		{"no expiry", signToken(t, noExpiry, testSecret)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			require.Error(t, err)
			assert.True(t, errors.IsUnauthenticated(err),
				"all verification failures map to ErrUnauthenticated")
		})
	}
}

func TestVerify_RejectsUnsignedAlg(t *testing.T) {
	v, err := NewVerifier(testSecret)
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, testClaims("user-1", RoleAdministrator))
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Verify(signed)
	assert.True(t, errors.IsUnauthenticated(err))
}

func TestRole_CanReview(t *testing.T) {
	assert.True(t, RoleAdministrator.CanReview())
	assert.True(t, RoleSupervisor.CanReview())
	assert.True(t, RoleManager.CanReview())
	assert.False(t, RoleJobCoordinator.CanReview())
	assert.False(t, RoleMachineOperator.CanReview())
	assert.False(t, RoleStockManager.CanReview())
	assert.False(t, Role("intern").CanReview())
}

func TestRole_IsSupervisory(t *testing.T) {
	assert.True(t, RoleAdministrator.IsSupervisory())
	assert.True(t, RoleSupervisor.IsSupervisory())
	assert.False(t, RoleManager.IsSupervisory())
	assert.False(t, RoleMachineOperator.IsSupervisory())
}
