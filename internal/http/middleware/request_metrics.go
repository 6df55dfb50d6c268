package middleware

import (
	"strconv"
	"time"

	"github.com/valyala/fasthttp"

	"uxpulse/internal/metrics"
)

// RequestMetrics records per-request Prometheus counters and latency.
// Scrape and health traffic is excluded so the service does not meter
// its own monitoring.
func RequestMetrics(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)

		path := string(ctx.Path())
		if path == "/metrics" || path == "/healthz" {
			return
		}

		metrics.HTTPRequest(
			path,
			string(ctx.Method()),
			strconv.Itoa(ctx.Response.StatusCode()),
			time.Since(start).Seconds(),
		)
	}
}
