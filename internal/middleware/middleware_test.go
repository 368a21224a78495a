package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/token-manager/internal/apperr"
	"github.com/iliyamo/token-manager/internal/config"
	"github.com/iliyamo/token-manager/internal/model"
	"github.com/iliyamo/token-manager/internal/rbac"
)

type mockAuth struct{ mock.Mock }

func (m *mockAuth) Authenticate(ctx context.Context, header string) (model.Identity, error) {
	args := m.Called(ctx, header)
	return args.Get(0).(model.Identity), args.Error(1)
}

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func serve(t *testing.T, h echo.HandlerFunc, method, header string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/tokens", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/tokens")
	require.NoError(t, h(c))

	var body map[string]any
	if rec.Header().Get(echo.HeaderContentType) != "" && rec.Body.Len() > 0 && rec.Body.String() != "ok" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	auth := &mockAuth{}
	auth.On("Authenticate", mock.Anything, "").
		Return(model.Identity{}, apperr.Unauthenticated("Authorization header with Bearer token is required"))

	rec, body := serve(t, Authenticate(auth, zap.NewNop())(ok), http.MethodGet, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authorization header with Bearer token is required", body["error"])
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	auth := &mockAuth{}
	auth.On("Authenticate", mock.Anything, "Bearer junk").
		Return(model.Identity{}, apperr.Wrap(apperr.KindUnauthenticated, "Invalid or expired token", errors.New("malformed")))

	rec, body := serve(t, Authenticate(auth, zap.NewNop())(ok), http.MethodGet, "Bearer junk")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", body["error"])
}

func TestAuthenticate_InternalErrorHidden(t *testing.T) {
	auth := &mockAuth{}
	auth.On("Authenticate", mock.Anything, "Bearer x").
		Return(model.Identity{}, apperr.Internal("db down", errors.New("dial tcp")))

	rec, body := serve(t, Authenticate(auth, zap.NewNop())(ok), http.MethodGet, "Bearer x")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Authentication failed", body["error"])
}

func TestAuthenticate_SetsIdentity(t *testing.T) {
	want := model.Identity{ID: 7, Email: "a@b.c", Name: "A", Role: rbac.RoleMaintainer}
	auth := &mockAuth{}
	auth.On("Authenticate", mock.Anything, "Bearer good").Return(want, nil)

	var got model.Identity
	h := Authenticate(auth, zap.NewNop())(func(c echo.Context) error {
		var found bool
		got, found = IdentityFrom(c)
		assert.True(t, found)
		return c.NoContent(http.StatusNoContent)
	})
	rec, _ := serve(t, h, http.MethodGet, "Bearer good")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, want, got)
	auth.AssertExpectations(t)
}

func withRole(role rbac.Role, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		SetIdentity(c, model.Identity{ID: 1, Email: "u@x.io", Role: role})
		return next(c)
	}
}

func TestRequirePermission_ViewerCannotWriteTokens(t *testing.T) {
	h := withRole(rbac.RoleViewer, RequirePermission(rbac.TokensWrite)(ok))
	rec, body := serve(t, h, http.MethodPost, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Insufficient permissions", body["error"])
	assert.Equal(t, string(rbac.TokensWrite), body["required"])
	assert.Equal(t, "VIEWER", body["userRole"])
	perms, _ := body["userPermissions"].([]any)
	assert.Contains(t, perms, string(rbac.TokensRead))
	assert.NotContains(t, perms, string(rbac.TokensWrite))
}

func TestRequirePermission_Granted(t *testing.T) {
	h := withRole(rbac.RoleMaintainer, RequirePermission(rbac.TokensWrite)(ok))
	rec, _ := serve(t, h, http.MethodPost, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePermission_NoIdentity(t *testing.T) {
	rec, body := serve(t, RequirePermission(rbac.TokensRead)(ok), http.MethodGet, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", body["error"])
}

func TestRequireAllPermissions(t *testing.T) {
	all := RequireAllPermissions(rbac.TokensRead, rbac.UsersWrite)

	rec, body := serve(t, withRole(rbac.RoleMaintainer, all(ok)), http.MethodGet, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, []any{"tokens:read", "users:write"}, body["required"])
	assert.Equal(t, "MAINTAINER", body["userRole"])

	rec, _ = serve(t, withRole(rbac.RoleAdmin, all(ok)), http.MethodGet, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAnyPermission(t *testing.T) {
	anyOf := RequireAnyPermission(rbac.UsersWrite, rbac.TokensDelete)

	rec, body := serve(t, withRole(rbac.RoleViewer, anyOf(ok)), http.MethodGet, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, []any{"users:write", "tokens:delete"}, body["required"])

	rec, _ = serve(t, withRole(rbac.RoleMaintainer, anyOf(ok)), http.MethodGet, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/themes/3", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/themes/:id")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}
	assert.Equal(t, "rl:ip:10.0.0.1:route:GET /themes/:id", buildRateKey(cfg, c))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:anon:10.0.0.1", buildRateKey(cfg, c))

	SetIdentity(c, model.Identity{ID: 42})
	assert.Equal(t, "rl:user:42", buildRateKey(cfg, c))
}

func TestNilRedisPassesThrough(t *testing.T) {
	rl := NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, zap.NewNop())
	rec, _ := serve(t, rl(ok), http.MethodGet, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rc := NewResponseCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil, zap.NewNop())
	rec, _ = serve(t, rc.Cache()(ok), http.MethodGet, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))

	rec, _ = serve(t, rc.Invalidate()(ok), http.MethodPost, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.JSONEq(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{1, 2})
	assert.False(t, ok)
}

func TestCacheKeyIncludesGeneration(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{Prefix: "cache"}, nil, zap.NewNop())
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/tokens?x=1", nil), httptest.NewRecorder())
	c.SetPath("/tokens")

	k0 := rc.cacheKey(c, 0)
	k1 := rc.cacheKey(c, 1)
	assert.NotEqual(t, k0, k1)
	assert.Regexp(t, `^cache:0:[0-9a-f]{40}$`, k0)
}
