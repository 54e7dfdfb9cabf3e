package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Telemetry wraps the handler with OpenTelemetry HTTP instrumentation:
// one span per request plus duration and size metrics.
func Telemetry(next http.Handler) http.Handler {
	return otelhttp.NewMiddleware("akasync-api")(next)
}
