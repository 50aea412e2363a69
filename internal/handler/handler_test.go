package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"adminapi/internal/handler"
	"adminapi/internal/repository/memory"
	"adminapi/internal/service"
	"adminapi/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password"
)

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Fields     []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"fields"`
}

func (e envelope) hasField(name string) bool {
	for _, f := range e.Fields {
		if f.Field == name {
			return true
		}
	}
	return false
}

type api struct {
	t      *testing.T
	router *gin.Engine
	rbac   service.RBACService
	token  string
}

// newAPI seeds the default catalog plus an administrator and logs in as it.
func newAPI(t *testing.T) *api {
	t.Helper()

	repos := memory.NewRepositories(memory.NewStore())
	hasher := service.BcryptHasher{Cost: bcrypt.MinCost}
	rbac := service.NewRBACService(repos, hasher, nil)
	auth := service.NewAuthService(repos.Users, rbac, hasher, "handler-test-secret", time.Hour)

	err := service.NewSeeder(repos, rbac).Seed(context.Background(), service.SeedOptions{
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
	})
	require.NoError(t, err)

	router := handler.NewRouter(logger.Discard(), handler.RouterConfig{
		AuthEnabled: true,
		TokenTTL:    time.Hour,
	}, handler.Services{
		RBAC:      rbac,
		Stores:    service.NewStoreService(repos, nil),
		Tours:     service.NewTourService(repos, nil),
		Auth:      auth,
		Dashboard: service.NewDashboardService(repos),
		Audit:     service.NewAuditService(repos.Audit),
	})

	a := &api{t: t, router: router, rbac: rbac}
	a.token = a.login(adminEmail, adminPassword)
	return a
}

func (a *api) login(email, password string) string {
	a.t.Helper()
	var tok service.TokenResponse
	a.decode(a.call(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password}), http.StatusOK, &tok)
	require.NotEmpty(a.t, tok.Token)
	return tok.Token
}

// call sends body as JSON; a string body is sent verbatim.
func (a *api) call(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *api) as(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.call(method, path, a.token, body)
}

// decode checks the status and unmarshals the envelope data into out.
func (a *api) decode(w *httptest.ResponseRecorder, status int, out any) envelope {
	a.t.Helper()
	require.Equal(a.t, status, w.Code, w.Body.String())

	var env envelope
	if status == http.StatusNoContent {
		require.Empty(a.t, w.Body.String())
		return env
	}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(a.t, status, env.StatusCode)
	if out != nil {
		require.NoError(a.t, json.Unmarshal(env.Data, out))
	}
	return env
}
