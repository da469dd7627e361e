package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"gridsync/internal/hub"
)

func newChecker(t *testing.T) (*Checker, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewChecker(db, hub.NewHub(0)), mock
}

func check(t *testing.T, c *Checker, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := c.grpc.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestRefresh(t *testing.T) {
	c, mock := newChecker(t)

	mock.ExpectPing()
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, c, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, c, Service))

	mock.ExpectPing().WillReturnError(errors.New("disk gone"))
	require.Error(t, c.Refresh(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, c, Service))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShutdown(t *testing.T) {
	c, mock := newChecker(t)
	mock.ExpectPing()
	require.NoError(t, c.Refresh(context.Background()))
	c.Shutdown()
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, c, ""))
}

func TestHTTPRoutes(t *testing.T) {
	c, mock := newChecker(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	c.RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	mock.ExpectPing()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	mock.ExpectPing().WillReturnError(errors.New("down"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "down")
}
