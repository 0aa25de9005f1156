package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/safarbet/safarbet/internal/pkg/database"
	"github.com/safarbet/safarbet/internal/pkg/logger"
	"github.com/safarbet/safarbet/internal/pkg/nats"
)

// HealthChecker defines the interface for health checking dependencies
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// PostgresHealthChecker checks PostgreSQL connection health
type PostgresHealthChecker struct {
	client *database.PostgresClient
}

// NewPostgresHealthChecker creates a new PostgreSQL health checker
func NewPostgresHealthChecker(client *database.PostgresClient) *PostgresHealthChecker {
	return &PostgresHealthChecker{client: client}
}

// CheckHealth checks if PostgreSQL is healthy
func (p *PostgresHealthChecker) CheckHealth(ctx context.Context) error {
	if p.client == nil {
		return nil
	}
	return p.client.GetDB().PingContext(ctx)
}

// RedisHealthChecker checks Redis connection health
type RedisHealthChecker struct {
	client *database.RedisClient
}

// NewRedisHealthChecker creates a new Redis health checker
func NewRedisHealthChecker(client *database.RedisClient) *RedisHealthChecker {
	return &RedisHealthChecker{client: client}
}

// CheckHealth checks if Redis is healthy
func (r *RedisHealthChecker) CheckHealth(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.GetClient().Ping(ctx).Err()
}

// NATSHealthChecker checks NATS connection health
type NATSHealthChecker struct {
	client *nats.Client
}

// NewNATSHealthChecker creates a new NATS health checker
func NewNATSHealthChecker(client *nats.Client) *NATSHealthChecker {
	return &NATSHealthChecker{client: client}
}

// CheckHealth checks if NATS is healthy
func (n *NATSHealthChecker) CheckHealth(ctx context.Context) error {
	if n.client == nil {
		return nil
	}
	if !n.client.IsConnected() {
		return fmt.Errorf("NATS not connected")
	}
	return nil
}

// HealthService manages health checks for multiple dependencies
type HealthService struct {
	checkers map[string]HealthChecker
}

// NewHealthService creates a new health service
func NewHealthService() *HealthService {
	return &HealthService{
		checkers: make(map[string]HealthChecker),
	}
}

// AddChecker registers a health checker for a dependency
func (h *HealthService) AddChecker(name string, checker HealthChecker) {
	h.checkers[name] = checker
}

// DependencyInfo describes the health of a single dependency
type DependencyInfo struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string                    `json:"status"`
	Timestamp    time.Time                 `json:"timestamp"`
	Service      string                    `json:"service"`
	Version      string                    `json:"version,omitempty"`
	Dependencies map[string]DependencyInfo `json:"dependencies"`
}

// Check runs all registered checkers and aggregates the result
func (h *HealthService) Check(ctx context.Context) (string, map[string]DependencyInfo) {
	overall := "healthy"
	deps := make(map[string]DependencyInfo, len(h.checkers))

	for name, checker := range h.checkers {
		checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := checker.CheckHealth(checkCtx)
		cancel()

		if err != nil {
			overall = "unhealthy"
			deps[name] = DependencyInfo{Status: "unhealthy", Error: err.Error()}
			logger.Warn("Dependency health check failed",
				logger.String("dependency", name),
				logger.Err(err))
			continue
		}
		deps[name] = DependencyInfo{Status: "healthy"}
	}

	return overall, deps
}

// RegisterHealthEndpoints registers /health and /health/ready on the server
func RegisterHealthEndpoints(e *echo.Echo, serviceName, version string, svc *HealthService) {
	handler := func(c echo.Context) error {
		status, deps := svc.Check(c.Request().Context())

		code := http.StatusOK
		if status != "healthy" {
			code = http.StatusServiceUnavailable
		}

		return c.JSON(code, HealthResponse{
			Status:       status,
			Timestamp:    time.Now().UTC(),
			Service:      serviceName,
			Version:      version,
			Dependencies: deps,
		})
	}

	e.GET("/health", handler)
	e.GET("/health/ready", handler)
}
