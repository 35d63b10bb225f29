package server

import (
	"encoding/json"
	"log/slog"
	"time"

	"goyfeed/internal/graph"
	"goyfeed/internal/middleware"
	"goyfeed/internal/models"
	"goyfeed/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
)

// graphQLRequest is the standard GraphQL-over-HTTP request body.
type graphQLRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// GraphQL executes one operation. GET requests carry the operation in query
// parameters and may only run queries.
func (s *Server) GraphQL(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req graphQLRequest
	if c.Method() == fiber.MethodGet {
		req.Query = c.Query("query")
		req.OperationName = c.Query("operationName")
		if raw := c.Query("variables"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
				return models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("variables must be a JSON object"))
			}
		}
		ctx = graph.WithReadOnly(ctx)
	} else if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Query == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("query is required"))
	}

	opName := req.OperationName
	if opName == "" {
		opName = "anonymous"
	}
	c.Locals("graphqlOperation", opName)

	span, ctx := observability.NewSpan(ctx, "graphql "+opName,
		attribute.String("graphql.operation.name", opName),
		attribute.String("http.method", c.Method()),
	)
	defer span.End()

	start := time.Now()
	resp := s.schema.Exec(ctx, req.Query, req.OperationName, req.Variables)
	middleware.GraphQLDuration.WithLabelValues(opName).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if len(resp.Errors) > 0 {
		outcome = "error"
		span.AddAttributes(attribute.Int("graphql.errors", len(resp.Errors)))
		span.SetError(resp.Errors[0])
	}
	middleware.GraphQLOperations.WithLabelValues(opName, outcome).Inc()

	if traceID := span.TraceID(); traceID != "" {
		if resp.Extensions == nil {
			resp.Extensions = map[string]interface{}{}
		}
		resp.Extensions["traceId"] = traceID
		if outcome == "error" {
			middleware.Logger.WarnContext(ctx, "graphql operation failed",
				slog.String("operation", opName),
				slog.String("trace_id", traceID),
				slog.String("error", resp.Errors[0].Message),
			)
		}
	}

	return c.JSON(resp)
}
