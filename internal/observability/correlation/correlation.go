// Package correlation carries the per-request correlation id through
// context.Context.
package correlation

import (
	"context"
	"regexp"

	"github.com/google/uuid"
)

// Header is the request and response header carrying the id.
const Header = "X-Correlation-Id"

type ctxKey struct{}

var validID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// WithID returns a copy of ctx carrying id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the id stored in ctx, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// FromHeader returns the inbound id when it is well formed, otherwise a new one.
func FromHeader(v string) string {
	if validID.MatchString(v) {
		return v
	}
	return uuid.NewString()
}
