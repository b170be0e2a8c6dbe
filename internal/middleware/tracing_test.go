package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"realestate/internal/access"
	"realestate/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := observability.Tracer
	observability.Tracer = tp.Tracer("test")
	t.Cleanup(func() {
		observability.Tracer = prev
		_ = tp.Shutdown(t.Context())
	})
	return recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestTracingMiddleware_RecordsActor(t *testing.T) {
	recorder := recordSpans(t)
	adminID := uuid.New()
	userID := uuid.New()

	app := fiber.New()
	app.Use(TracingMiddleware())
	// Stands in for Authenticate, which runs on the /api group after tracing.
	api := app.Group("/api", func(c *fiber.Ctx) error {
		switch c.Get("X-Test-Actor") {
		case "admin":
			c.Locals(actorLocal, access.Admin(adminID))
		case "user":
			c.Locals(actorLocal, access.User(userID))
		}
		return c.Next()
	})
	api.Get("/favorites/:userId/:propertyId/exists", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"isFavorite": false})
	})
	api.Delete("/inquiries/:id", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusInternalServerError, "boom")
	})

	tests := []struct {
		name      string
		method    string
		path      string
		actor     string
		wantKind  string
		wantID    string
		wantRole  string
		wantRoute string
		wantError bool
	}{
		{"anonymous", http.MethodGet, "/api/favorites/" + userID.String() + "/" + uuid.NewString() + "/exists",
			"", "anonymous", "", "", "/api/favorites/:userId/:propertyId/exists", false},
		{"user", http.MethodGet, "/api/favorites/" + userID.String() + "/" + uuid.NewString() + "/exists",
			"user", "user", userID.String(), "user", "/api/favorites/:userId/:propertyId/exists", false},
		{"admin failure", http.MethodDelete, "/api/inquiries/" + uuid.NewString(),
			"admin", "admin", adminID.String(), "admin", "/api/inquiries/:id", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder.Reset()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.actor != "" {
				req.Header.Set("X-Test-Actor", tt.actor)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			span := spans[0]
			assert.Equal(t, tt.method+" "+tt.wantRoute, span.Name())

			attrs := spanAttrs(span)
			assert.Equal(t, tt.wantKind, attrs["actor.kind"].AsString())
			assert.Equal(t, tt.wantID, attrs["actor.id"].AsString())
			assert.Equal(t, tt.wantRole, attrs["actor.role"].AsString())
			assert.Equal(t, tt.wantRoute, attrs["http.route"].AsString())
			if tt.wantError {
				assert.Equal(t, codes.Error, span.Status().Code)
			} else {
				assert.EqualValues(t, fiber.StatusOK, attrs["http.status_code"].AsInt64())
			}
		})
	}
}
