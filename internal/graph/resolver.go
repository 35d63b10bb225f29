// Package graph maps the GraphQL schema onto the service layer.
package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"goyfeed/internal/middleware"
	"goyfeed/internal/models"
	"goyfeed/internal/service"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/redis/go-redis/v9"
)

// Services bundles the business services the resolvers call.
type Services struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Graph    *service.GraphService
	Posts    *service.PostService
	Profiles *service.ProfileService
}

// RateLimit is a fixed window applied to one mutation. Policy decides what
// happens when Redis cannot answer.
type RateLimit struct {
	Limit  int
	Window time.Duration
	Policy middleware.FailPolicy
}

// DefaultRateLimits are applied to the mutations that create accounts,
// sessions or content. Credential endpoints refuse requests rather than run
// unthrottled.
var DefaultRateLimits = map[string]RateLimit{
	"signup":        {Limit: 5, Window: 10 * time.Minute, Policy: middleware.FailClosed},
	"login":         {Limit: 10, Window: time.Minute, Policy: middleware.FailClosed},
	"createPost":    {Limit: 10, Window: time.Minute},
	"createComment": {Limit: 30, Window: time.Minute},
}

// Resolver is the root resolver for both Query and Mutation fields.
type Resolver struct {
	svc    Services
	rdb    *redis.Client
	limits map[string]RateLimit
}

func NewResolver(svc Services, rdb *redis.Client) *Resolver {
	return &Resolver{svc: svc, rdb: rdb, limits: DefaultRateLimits}
}

// NewSchema parses the SDL against the resolver. It panics if a field has no
// matching resolver method.
func NewSchema(r *Resolver, maxDepth int) *graphql.Schema {
	opts := []graphql.SchemaOpt{}
	if maxDepth > 0 {
		opts = append(opts, graphql.MaxDepth(maxDepth))
	}
	return graphql.MustParseSchema(Schema, r, opts...)
}

type readOnlyKey struct{}

// WithReadOnly marks ctx as coming from a GET request, which may not run
// mutations.
func WithReadOnly(ctx context.Context) context.Context {
	return context.WithValue(ctx, readOnlyKey{}, true)
}

func writable(ctx context.Context) error {
	if ro, _ := ctx.Value(readOnlyKey{}).(bool); ro {
		return models.NewValidationError("Mutations must be sent with POST")
	}
	return nil
}

// viewer returns the authenticated user id or UNAUTHENTICATED.
func viewer(ctx context.Context) (uint, error) {
	uid, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return 0, models.NewUnauthenticatedError()
	}
	return uid, nil
}

// optionalViewer returns 0 for anonymous requests.
func optionalViewer(ctx context.Context) uint {
	uid, _ := middleware.UserIDFromContext(ctx)
	return uid
}

// beginMutation combines the method check and, when needed, the viewer check.
func beginMutation(ctx context.Context, needViewer bool) (uint, error) {
	if err := writable(ctx); err != nil {
		return 0, err
	}
	if !needViewer {
		return 0, nil
	}
	return viewer(ctx)
}

func (r *Resolver) rateLimit(ctx context.Context, op string) error {
	limit, ok := r.limits[op]
	if !ok {
		return nil
	}
	id := "ip:" + middleware.ClientIPFromContext(ctx)
	if uid, ok := middleware.UserIDFromContext(ctx); ok {
		id = fmt.Sprintf("user:%d", uid)
	}

	allowed, err := middleware.CheckRateLimitWithPolicy(ctx, r.rdb, op, id, limit.Limit, limit.Window, limit.Policy)
	if err != nil {
		return models.NewLimiterUnavailableError()
	}
	if !allowed {
		return models.NewRateLimitedError()
	}
	return nil
}

// fail passes typed application errors through and hides everything else
// behind INTERNAL_ERROR after logging the cause.
func fail(ctx context.Context, op string, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		if appErr.Code == models.CodeInternal && appErr.Err != nil {
			logInternal(ctx, op, appErr.Err)
		}
		return appErr
	}
	logInternal(ctx, op, err)
	return models.NewInternalError(err)
}

func logInternal(ctx context.Context, op string, err error) {
	middleware.Logger.ErrorContext(ctx, "graphql resolver failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

func parseID(id graphql.ID, field string) (uint, error) {
	n, err := strconv.ParseUint(string(id), 10, 64)
	if err != nil || n == 0 {
		return 0, models.NewValidationError(fmt.Sprintf("%s must be a positive integer id", field))
	}
	return uint(n), nil
}

func formatID(id uint) graphql.ID {
	return graphql.ID(strconv.FormatUint(uint64(id), 10))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func intArg(v *int32) int {
	if v == nil {
		return 0
	}
	return int(*v)
}
