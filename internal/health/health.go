// Package health reports liveness and readiness over HTTP and the gRPC
// health protocol.
package health

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"gridsync/internal/hub"
)

// Service is the gRPC service name reported alongside the overall status.
const Service = "gridsync.Pipeline"

type Checker struct {
	DB  *sql.DB
	Hub *hub.Hub

	grpc *health.Server
}

func NewChecker(db *sql.DB, h *hub.Hub) *Checker {
	return &Checker{DB: db, Hub: h, grpc: health.NewServer()}
}

// Register adds the health service to s.
func (c *Checker) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, c.grpc)
}

// Refresh pings the database and publishes the result to gRPC watchers.
func (c *Checker) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	err := c.DB.PingContext(ctx)
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	c.grpc.SetServingStatus("", status)
	c.grpc.SetServingStatus(Service, status)
	return err
}

// Run refreshes every interval until ctx is done.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	_ = c.Refresh(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = c.Refresh(ctx)
		}
	}
}

// Shutdown marks every service not serving.
func (c *Checker) Shutdown() {
	c.grpc.Shutdown()
}

func (c *Checker) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", c.ready)
}

func (c *Checker) ready(ctx *gin.Context) {
	var stats hub.Stats
	if c.Hub != nil {
		stats = c.Hub.Stats()
	}
	if err := c.Refresh(ctx.Request.Context()); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"db_error":   err.Error(),
			"ws_clients": stats.Clients,
		})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"db":         "ok",
		"ws_clients": stats.Clients,
	})
}
