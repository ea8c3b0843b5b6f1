package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/service"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, s.err
}

func protectedRouter(v TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWT(v), RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	r.GET("/imports/history", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestJWTAndRoles(t *testing.T) {
	cases := []struct {
		name   string
		header string
		claims *models.JWTClaims
		status int
	}{
		{"missing header", "", nil, http.StatusUnauthorized},
		{"wrong scheme", "Basic good", nil, http.StatusUnauthorized},
		{"bad token", "Bearer nope", nil, http.StatusUnauthorized},
		{"teacher role", "Bearer good", &models.JWTClaims{UserID: "u1", Role: models.RoleTeacher}, http.StatusForbidden},
		{"admin role", "Bearer good", &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}, http.StatusOK},
		{"superadmin role", "bearer good", &models.JWTClaims{UserID: "u1", Role: models.RoleSuperAdmin}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := protectedRouter(stubValidator{claims: tc.claims})
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/imports/history", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestJWTPropagatesValidatorError(t *testing.T) {
	r := protectedRouter(stubValidator{err: errors.New("boom")})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/imports/history", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMetricsSkipsAndLabelsUnmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics, "/metrics"))
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/imports/templates/:kind", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/metrics", "/imports/templates/teachers", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, uint64(2), metrics.Snapshot().RequestsTotal)
}
