package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"retailworks/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := serve(r, http.MethodGet, "/", http.Header{RequestIDHeader: {"abc-1"}})
	assert.Equal(t, "abc-1", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-1", w.Body.String())

	long := make([]byte, 65)
	for i := range long {
		long[i] = 'x'
	}
	w = serve(r, http.MethodGet, "/", http.Header{RequestIDHeader: {string(long)}})
	assert.Len(t, w.Header().Get(RequestIDHeader), 36, "oversized ids are replaced")
}

func TestJWTAuthAndRequireRole(t *testing.T) {
	r := gin.New()
	r.GET("/ops", JWTAuth("s3cret"), RequireRole(RoleOperator), func(c *gin.Context) {
		c.String(http.StatusOK, GetClaims(c).UserID)
	})
	bearer := func(tok string) http.Header { return http.Header{"Authorization": {"Bearer " + tok}} }

	op, err := IssueToken("s3cret", "u-7", RoleOperator, time.Minute)
	require.NoError(t, err)
	w := serve(r, http.MethodGet, "/ops", bearer(op))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-7", w.Body.String())

	analyst, err := IssueToken("s3cret", "u-8", RoleAnalyst, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/ops", bearer(analyst)).Code)

	admin, err := IssueToken("s3cret", "u-9", RoleAdmin, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ops", bearer(admin)).Code)

	expired, err := IssueToken("s3cret", "u-7", RoleOperator, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/ops", bearer(expired)).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/ops", http.Header{"Authorization": {"Basic Zm9v"}}).Code)
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler())
	r.GET("/missing", func(c *gin.Context) {
		_ = c.Error(apierror.NotFound("order", "id", "42"))
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("pq: deadlock detected"))
	})
	r.GET("/written", func(c *gin.Context) {
		c.String(http.StatusTeapot, "short and stout")
		_ = c.Error(errors.New("ignored"))
	})

	w := serve(r, http.MethodGet, "/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"reference_not_found"`)

	w = serve(r, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "deadlock")

	w = serve(r, http.MethodGet, "/written", nil)
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "short and stout", w.Body.String())
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(*gin.Context) { panic("nil map") })
	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodGet, "/", nil).Code)
}

func TestRateLimiterFallsBackToLocalWindow(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(nil, 2, time.Minute))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/", nil).Code)
	w := serve(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestLocalLimiterWindowResets(t *testing.T) {
	l := newLocalLimiter(1, 20*time.Millisecond)
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"), "limits are per client")
	time.Sleep(30 * time.Millisecond)
	assert.True(t, l.allow("10.0.0.1"))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://ops.example.com"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/", http.Header{"Origin": {"https://ops.example.com"}})
	assert.Equal(t, "https://ops.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodGet, "/", http.Header{"Origin": {"https://evil.example"}})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodOptions, "/", http.Header{"Origin": {"https://ops.example.com"}})
	assert.Equal(t, http.StatusNoContent, w.Code)

	open := gin.New()
	open.Use(CORS(nil))
	open.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, "*", serve(open, http.MethodGet, "/", nil).Header().Get("Access-Control-Allow-Origin"))
}
