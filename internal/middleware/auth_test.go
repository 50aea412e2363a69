package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminapi/internal/middleware"
	"adminapi/internal/model"
	"adminapi/internal/service"
	"adminapi/pkg/apperror"
	"adminapi/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeTokens map[string]uint

func (f fakeTokens) ParseToken(token string) (uint, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return 0, apperror.Unauthorized("invalid token")
}

type fakeGrants map[uint]service.Grant

func (f fakeGrants) Grant(_ context.Context, userID uint) (*service.Grant, error) {
	g, ok := f[userID]
	if !ok {
		return nil, apperror.NotFound(model.EntityUser, userID)
	}
	return &g, nil
}

var (
	tokens = fakeTokens{"admin": 1, "visitor": 2, "disabled": 3, "ghost": 9}
	grants = fakeGrants{
		1: {UserID: 1, Active: true, Permissions: []model.Permission{{Key: "users.view"}, {Key: "users.add"}}},
		2: {UserID: 2, Active: true, Permissions: []model.Permission{{Key: "users.view"}}},
		3: {UserID: 3, Active: false, Permissions: []model.Permission{{Key: "users.add"}}},
	}
)

// newRouter exposes a guarded route that echoes the caller and actor ids.
func newRouter(guard gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/guarded", guard, func(c *gin.Context) {
		id, _ := middleware.UserID(c)
		actor, _ := model.ActorFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": id, "actor_id": actor})
	})
	return r
}

func do(r http.Handler, header, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: cookie})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequirePermission(t *testing.T) {
	t.Parallel()

	auth := middleware.NewAuth(true, tokens, grants)
	r := newRouter(auth.RequirePermission("users.add"))

	tests := []struct {
		name   string
		header string
		cookie string
		status int
	}{
		{name: "missing token", status: http.StatusUnauthorized},
		{name: "bad scheme", header: "Basic admin", status: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "deleted user", header: "Bearer ghost", status: http.StatusUnauthorized},
		{name: "missing permission", header: "Bearer visitor", status: http.StatusForbidden},
		{name: "disabled account", header: "Bearer disabled", status: http.StatusForbidden},
		{name: "granted", header: "Bearer admin", status: http.StatusOK},
		{name: "granted through cookie", cookie: "admin", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := do(r, tt.header, tt.cookie)
			require.Equal(t, tt.status, w.Code, w.Body.String())

			if tt.status != http.StatusOK {
				var body response.Response
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, "error", body.Status)
				assert.Equal(t, tt.status, body.StatusCode)
				assert.NotEmpty(t, body.Error)
			}
		})
	}
}

func TestRequirePermission_SetsActor(t *testing.T) {
	t.Parallel()

	auth := middleware.NewAuth(true, tokens, grants)
	w := do(newRouter(auth.RequirePermission("users.view")), "Bearer visitor", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":2,"actor_id":2}`, w.Body.String())
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	auth := middleware.NewAuth(true, tokens, grants)
	r := newRouter(auth.Authenticate())

	assert.Equal(t, http.StatusUnauthorized, do(r, "", "").Code)
	// no permission check: an authenticated caller passes regardless of grants
	assert.Equal(t, http.StatusOK, do(r, "Bearer disabled", "").Code)
}

func TestAuthDisabled(t *testing.T) {
	t.Parallel()

	auth := middleware.NewAuth(false, tokens, grants)
	r := newRouter(auth.RequirePermission("roles.manage"))

	w := do(r, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0,"actor_id":0}`, w.Body.String())

	// an honoured token still names the actor
	w = do(r, "Bearer visitor", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":2,"actor_id":2}`, w.Body.String())

	assert.Equal(t, http.StatusOK, do(r, "Bearer nope", "").Code)
}

func TestRequestLoggerAndRecovery(t *testing.T) {
	t.Parallel()

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	r := gin.New()
	r.Use(middleware.RequestLogger(log), middleware.Recovery())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-1", w.Header().Get(middleware.RequestIDHeader))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "req-1", entry.Data["request_id"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
	assert.Equal(t, "/ok", entry.Data["path"])

	hook.Reset()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	var messages []string
	for _, e := range hook.AllEntries() {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, messages, "panic recovered")
	assert.Contains(t, messages, "request failed")
}
