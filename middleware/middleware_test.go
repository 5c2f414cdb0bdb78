package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prashant564/Courses24-API/apperr"
	"github.com/prashant564/Courses24-API/httpkit"
	"github.com/prashant564/Courses24-API/models"
	"github.com/prashant564/Courses24-API/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubAuth struct {
	tokens map[string]models.Identity
}

func (s stubAuth) Authenticate(_ context.Context, token string) (models.Identity, error) {
	ident, ok := s.tokens[token]
	if !ok {
		return models.Identity{}, apperr.Unauthorized("Not authorized to access this route")
	}
	return ident, nil
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httpkit.ErrorResponse {
	t.Helper()
	var body httpkit.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func echoIdentity(w http.ResponseWriter, r *http.Request) {
	ident, _ := httpkit.IdentityFrom(r.Context())
	_, _ = w.Write([]byte(ident.Role))
}

func TestProtect(t *testing.T) {
	publisher := models.Identity{UserID: primitive.NewObjectID(), Role: models.RolePublisher}
	h := Protect(stubAuth{tokens: map[string]models.Identity{"good": publisher}})(http.HandlerFunc(echoIdentity))

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.RolePublisher, rec.Body.String())
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "good"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeError(t, rec)
		assert.False(t, body.Success)
		assert.Equal(t, "Not authorized to access this route", body.Error)
	})

	t.Run("logged out cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "none"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer forged")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthorizeRoles(t *testing.T) {
	gate := AuthorizeRoles(models.RolePublisher, models.RoleAdmin)(http.HandlerFunc(echoIdentity))

	serve := func(role string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		ctx := httpkit.WithIdentity(req.Context(), models.Identity{UserID: primitive.NewObjectID(), Role: role})
		rec := httptest.NewRecorder()
		gate.ServeHTTP(rec, req.WithContext(ctx))
		return rec
	}

	assert.Equal(t, http.StatusOK, serve(models.RolePublisher).Code)
	assert.Equal(t, http.StatusOK, serve(models.RoleAdmin).Code)

	rec := serve(models.RoleUser)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "User role user is not authorized to access this route", decodeError(t, rec).Error)

	anonymous := httptest.NewRecorder()
	gate.ServeHTTP(anonymous, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, anonymous.Code)
}

func TestAdvancedResults(t *testing.T) {
	var got repositories.ListQuery
	list := func(_ context.Context, _ *http.Request, q repositories.ListQuery) (*models.Results, error) {
		got = q
		return &models.Results{Success: true, Count: 1, Pagination: q.Paginate(12), Data: []string{"x"}}, nil
	}
	h := AdvancedResults(list)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := httpkit.ResultsFrom(r.Context())
		require.True(t, ok)
		httpkit.JSON(w, http.StatusOK, res)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?page=2&limit=5&housing=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, true, got.Filter["housing"])

	var body struct {
		Success    bool              `json:"success"`
		Pagination models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Success)
	require.NotNil(t, body.Pagination.Next)
	assert.Equal(t, 3, body.Pagination.Next.Page)

	bad := httptest.NewRecorder()
	h.ServeHTTP(bad, httptest.NewRequest(http.MethodGet, "/?name[$ne]=x", nil))
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestIPRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(10*time.Minute, 3)
	h := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit("10.0.0.1:1234"))
	}
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:5678"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2:1234"))
}

func TestIPRateLimiterIgnoresForwardedForFromUntrustedPeers(t *testing.T) {
	limiter := NewIPRateLimiter(10*time.Minute, 2)
	h := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	passed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			passed++
		}
	}
	assert.Equal(t, 2, passed)
	assert.Equal(t, 1, limiter.size())
}

func TestIPRateLimiterTrustedProxy(t *testing.T) {
	limiter := NewIPRateLimiter(10*time.Minute, 1, "10.0.0.0/8", "not-an-ip")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:4000"
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 198.51.100.9, 10.0.0.2")
	assert.Equal(t, "198.51.100.9", limiter.ClientIP(req))

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "10.0.0.5", limiter.ClientIP(req))

	req.RemoteAddr = "203.0.113.7:4000"
	req.Header.Set("X-Forwarded-For", "198.51.100.9")
	assert.Equal(t, "203.0.113.7", limiter.ClientIP(req))
}

func TestIPRateLimiterEvictsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(time.Minute, 1)
	limiter.now = func() time.Time { return now }
	limiter.lastSweep = now

	for i := 0; i < 10; i++ {
		limiter.allow(fmt.Sprintf("198.51.100.%d", i))
	}
	assert.Equal(t, 10, limiter.size())
	assert.False(t, limiter.allow("198.51.100.0"))

	now = now.Add(2 * time.Minute)
	assert.True(t, limiter.allow("203.0.113.1"))
	assert.Equal(t, 1, limiter.size())
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS("*")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/bootcamps", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called)
}

func TestRecoverAndRequestLogger(t *testing.T) {
	h := RequestLogger(SecurityHeaders(Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, httpkit.RequestID(r))
		panic("boom")
	}))))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server Error", decodeError(t, rec).Error)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
