package router

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	passwordhandler "github.com/jwalitptl/campus-forum/internal/handler/password"
	"github.com/jwalitptl/campus-forum/internal/middleware"
	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/service/password"
)

type rejectAll struct{}

func (rejectAll) ValidateToken(context.Context, string) (*model.TokenClaims, error) {
	return nil, stderrors.New("revoked")
}

type pingHandler struct{}

func (pingHandler) RegisterRoutes(_, protected *gin.RouterGroup) {
	protected.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
}

func newTestRouter(t *testing.T, reg prometheus.Registerer) *Router {
	gin.SetMode(gin.TestMode)
	r, err := NewRouter(middleware.NewAuthMiddleware(rejectAll{}), RouterConfig{
		RateLimit:     rate.Inf,
		RateBurst:     1,
		MetricsPrefix: "test",
		Registerer:    reg,
	},
		passwordhandler.NewHandler(password.NewService(nil)),
		pingHandler{},
	)
	require.NoError(t, err)
	r.Setup()
	return r
}

func TestRouter_PublicAndProtected(t *testing.T) {
	r := newTestRouter(t, prometheus.NewRegistry())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/password/validate", strings.NewReader(`{"password":"Secur3!Pass"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	w = httptest.NewRecorder()
	r.Engine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newTestRouter(t, reg)

	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Equal(t, float64(1), testutil.ToFloat64(
		r.metrics.requestTotal.WithLabelValues(http.MethodGet, "/api/v1/ping", "401")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		r.metrics.errorTotal.WithLabelValues(http.MethodGet, "/api/v1/ping", "client")))

	_, err := NewRouter(middleware.NewAuthMiddleware(rejectAll{}), RouterConfig{MetricsPrefix: "test", Registerer: reg})
	assert.Error(t, err, "registering the same collectors twice must fail")
}
