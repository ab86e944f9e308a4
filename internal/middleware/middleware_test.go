package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/urban-twin-go/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func ownerRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, Owner(c))
	})
	return r
}

func get(r http.Handler, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	const secret = "test-secret"
	valid := signed(t, secret, jwt.MapClaims{"sub": "user-42", "exp": time.Now().Add(time.Hour).Unix()})
	expired := signed(t, secret, jwt.MapClaims{"sub": "user-42", "exp": time.Now().Add(-time.Hour).Unix()})
	wrongKey := signed(t, "other", jwt.MapClaims{"sub": "user-42"})
	noSubject := signed(t, secret, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})

	tests := []struct {
		name     string
		secret   string
		required bool
		path     string
		bearer   string
		status   int
		owner    string
	}{
		{name: "valid token", secret: secret, path: "/whoami", bearer: valid, status: 200, owner: "user-42"},
		{name: "query token", secret: secret, path: "/whoami?access_token=" + valid, status: 200, owner: "user-42"},
		{name: "optional without token", secret: secret, path: "/whoami", status: 200, owner: AnonymousOwner},
		{name: "required without token", secret: secret, required: true, path: "/whoami", status: 401},
		{name: "expired", secret: secret, path: "/whoami", bearer: expired, status: 401},
		{name: "wrong key", secret: secret, path: "/whoami", bearer: wrongKey, status: 401},
		{name: "no subject", secret: secret, path: "/whoami", bearer: noSubject, status: 401},
		{name: "auth disabled", path: "/whoami", bearer: "garbage", status: 200, owner: AnonymousOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(ownerRouter(Auth(tt.secret, tt.required)), tt.path, tt.bearer)
			assert.Equal(t, tt.status, w.Code)
			if tt.owner != "" {
				assert.Equal(t, tt.owner, w.Body.String())
			}
		})
	}
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("a")
	assert.True(t, ok)
	now = now.Add(10 * time.Second)
	ok, _ = rl.Allow("a")
	assert.True(t, ok)

	ok, retry := rl.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, 50*time.Second, retry)

	ok, _ = rl.Allow("b")
	assert.True(t, ok, "keys are independent")

	now = now.Add(51 * time.Second)
	ok, _ = rl.Allow("a")
	assert.True(t, ok, "oldest request left the window")

	now = now.Add(2 * time.Minute)
	rl.prune()
	assert.Empty(t, rl.requests)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := ownerRouter(RateLimit(NewRateLimiter(1, time.Minute)))

	assert.Equal(t, http.StatusOK, get(r, "/whoami", "").Code)
	w := get(r, "/whoami", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	unlimited := ownerRouter(RateLimit(NewRateLimiter(0, time.Minute)))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(unlimited, "/whoami", "").Code)
	}
}

func TestLoggerCountsByRoute(t *testing.T) {
	r := ownerRouter(Logger())
	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/whoami", "200"))
	unmatched := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404"))

	get(r, "/whoami", "")
	get(r, "/nope", "")

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/whoami", "200")))
	assert.Equal(t, unmatched+1, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestCORSPreflight(t *testing.T) {
	r := ownerRouter(CORS())
	req := httptest.NewRequest(http.MethodOptions, "/whoami", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
