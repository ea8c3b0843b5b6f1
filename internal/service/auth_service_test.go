package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/config"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func baseClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":      "user-1",
		"email":    "admin@school.test",
		"aud":      "authenticated",
		"exp":      time.Now().Add(time.Hour).Unix(),
		"app_role": "admin",
	}
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService(config.AuthConfig{JWTSecret: testSecret, Audience: "authenticated", RoleClaim: "app_role"}, nil)

	claims, err := svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, []byte(testSecret), baseClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "admin@school.test", claims.Email)
}

func TestAuthServiceRoleFromAppMetadata(t *testing.T) {
	svc := NewAuthService(config.AuthConfig{JWTSecret: testSecret}, nil)
	mc := baseClaims()
	delete(mc, "app_role")
	mc["app_metadata"] = map[string]interface{}{"role": "superadmin"}

	claims, err := svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, []byte(testSecret), mc))
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, claims.Role)
}

func TestAuthServiceRejectsBadTokens(t *testing.T) {
	svc := NewAuthService(config.AuthConfig{JWTSecret: testSecret, Audience: "authenticated"}, nil)

	expired := baseClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	wrongAudience := baseClaims()
	wrongAudience["aud"] = "anon"

	noSubject := baseClaims()
	delete(noSubject, "sub")

	cases := map[string]string{
		"expired":        signToken(t, jwt.SigningMethodHS256, []byte(testSecret), expired),
		"wrong secret":   signToken(t, jwt.SigningMethodHS256, []byte("other"), baseClaims()),
		"wrong audience": signToken(t, jwt.SigningMethodHS256, []byte(testSecret), wrongAudience),
		"wrong method":   signToken(t, jwt.SigningMethodHS512, []byte(testSecret), baseClaims()),
		"no subject":     signToken(t, jwt.SigningMethodHS256, []byte(testSecret), noSubject),
		"garbage":        "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestAuthServiceWithoutSecret(t *testing.T) {
	svc := NewAuthService(config.AuthConfig{}, nil)
	_, err := svc.ValidateToken("anything")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Status, appErrors.FromError(err).Status)
}
