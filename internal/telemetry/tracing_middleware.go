package telemetry

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// maxUserAgentLength caps the recorded User-Agent attribute so a hostile
// client cannot bloat span storage.
const maxUserAgentLength = 256

// skipTracePaths lists endpoints probed constantly by orchestration; spans
// for them are pure noise.
var skipTracePaths = map[string]struct{}{
	"/health":    {},
	"/readiness": {},
}

// TracingMiddleware wraps handlers in server spans, continuing any W3C trace
// context carried in the request headers. A nil provider disables tracing.
func TracingMiddleware(provider trace.TracerProvider) func(http.Handler) http.Handler {
	if provider == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	tracer := provider.Tracer(instrumentationName)
	propagator := otel.GetTextMapPropagator()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, skip := skipTracePaths[r.URL.Path]; skip {
				next.ServeHTTP(w, r)
				return
			}

			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// chi resolves the route pattern only after routing, so the span
			// starts under the concrete path and is renamed afterwards.
			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
					semconv.UserAgentOriginal(truncateUserAgent(r.UserAgent())),
				),
			)
			defer span.End()

			next.ServeHTTP(ww, r.WithContext(ctx))

			finishSpan(span, r, ww.Status())
		})
	}
}

// finishSpan renames the span to the bounded route pattern and sets the
// response attributes. 5xx marks the span as a server fault; 4xx is the
// client's problem and leaves the status unset.
func finishSpan(span trace.Span, r *http.Request, statusCode int) {
	pattern := routePattern(r)
	span.SetName(r.Method + " " + pattern)
	span.SetAttributes(
		semconv.HTTPRouteKey.String(pattern),
		semconv.HTTPResponseStatusCode(statusCode),
	)

	switch {
	case statusCode >= 500:
		span.SetStatus(codes.Error, http.StatusText(statusCode))
	case statusCode < 400:
		span.SetStatus(codes.Ok, "")
	}
}

func truncateUserAgent(ua string) string {
	if len(ua) > maxUserAgentLength {
		return ua[:maxUserAgentLength]
	}
	return ua
}
