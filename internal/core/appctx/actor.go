// Package appctx provides request-scoped values extraction.
package appctx

import (
	"context"
)

// Roles issued by the admin verification endpoint.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Actor contains the authenticated terminal operator.
type Actor struct {
	Role string
}

type actorKey struct{}

// WithActor adds Actor to context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor returns Actor from context, or nil.
func GetActor(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorKey{}).(*Actor); ok {
		return v
	}
	return nil
}

// GetRole returns the actor role from context or empty string.
func GetRole(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.Role
	}
	return ""
}

// IsAdmin checks if the context actor holds the admin role.
func IsAdmin(ctx context.Context) bool {
	return GetRole(ctx) == RoleAdmin
}
