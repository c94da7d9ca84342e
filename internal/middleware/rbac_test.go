package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/dedekind-labs/sua-api/internal/models"
)

func rbacRouter(claims *models.JWTClaims, allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/students/:id", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}, RBAC(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRBACAllowsRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStaff}
	r := rbacRouter(claims, string(models.RoleStaff))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/students/st1", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRBACRejectsRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}
	r := rbacRouter(claims, string(models.RoleStaff))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/students/st1", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRBACSelfMatchesRouteParam(t *testing.T) {
	studentID := "st1"
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent, StudentID: &studentID}
	r := rbacRouter(claims, string(models.RoleStaff), "SELF")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/students/st1", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/students/st2", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRBACMissingClaims(t *testing.T) {
	r := rbacRouter(nil, string(models.RoleStaff))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/students/st1", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
