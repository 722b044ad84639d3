package api

import (
	"context"
	"time"

	"journeytrack/ingest/buildinfo"
	"journeytrack/ingest/database"
	"journeytrack/ingest/domain"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck handles the /health endpoint
// @Summary Health check endpoint
// @Description Check the health of the service, the time-series backend and the dedup cache
// @Tags Health
// @Produce json
// @Success 200 {object} domain.HealthResponse "Service is healthy"
// @Success 503 {object} domain.HealthResponse "Service is unhealthy"
// @Router /health [get]
func HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	response := domain.HealthResponse{
		Timestamp: time.Now(),
		BuildInfo: buildinfo.GetInfo(),
		Services:  domain.ServiceHealthStatus{},
	}

	backendHealthy := true
	if err := database.TimeSeriesHealthCheck(ctx); err != nil {
		backendHealthy = false
		response.Services.TimeSeries = domain.ServiceStatus{
			Status:  "unhealthy",
			Message: err.Error(),
		}
	} else {
		response.Services.TimeSeries = domain.ServiceStatus{
			Status: "healthy",
		}
	}

	// Redis is optional: a deployment without it runs with duplicate
	// suppression disabled and is still healthy.
	redisHealthy := true
	if !database.RedisEnabled() {
		response.Services.Redis = domain.ServiceStatus{
			Status:  "disabled",
			Message: "duplicate suppression is not configured",
		}
	} else if err := database.RedisHealthCheck(ctx); err != nil {
		redisHealthy = false
		response.Services.Redis = domain.ServiceStatus{
			Status:  "unhealthy",
			Message: err.Error(),
		}
	} else {
		response.Services.Redis = domain.ServiceStatus{
			Status: "healthy",
		}
	}

	if backendHealthy && redisHealthy {
		response.Status = "healthy"
		return c.Status(fiber.StatusOK).JSON(response)
	}

	response.Status = "unhealthy"
	return c.Status(fiber.StatusServiceUnavailable).JSON(response)
}
