package middleware

import (
	"strings"
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	promOnce sync.Once
	promInst *fiberprometheus.FiberPrometheus
)

// InitMetrics builds the HTTP request instrumentation for serviceName. The
// collectors live on the default Prometheus registry, so the instance is
// created once per process and shared by every Server.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promInst = fiberprometheus.NewWithRegistry(prometheus.DefaultRegisterer, serviceName, "http", "", nil)
	})
	return promInst
}

// MetricsMiddleware records request metrics, skipping the scrape and docs
// endpoints so they do not dominate the series.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	instrument := prom.Middleware
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/metrics" || strings.HasPrefix(path, "/api/v1/swagger") || strings.HasPrefix(path, "/health") {
			return c.Next()
		}
		return instrument(c)
	}
}
