package simpleembed

import (
	"context"

	"github.com/google/uuid"
)

type principalKey struct{}

// ContextWithPrincipal attaches the acting principal to ctx. Assets created
// under this context are attributed to it.
func ContextWithPrincipal(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, principalKey{}, id)
}

// PrincipalFromContext returns the acting principal, if one is set.
func PrincipalFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(principalKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
