package repositories

import (
	"context"
	"errors"

	"listkeeper/internal/domain/listparams"
)

// ErrNotFound is returned when no params were stored for a session and resource
var ErrNotFound = errors.New("list params not found")

// ParamsRepository defines the contract for list params persistence.
// Params are scoped to a session, then to a resource.
type ParamsRepository interface {
	Load(ctx context.Context, sessionID, resource string) (*listparams.ListParams, error)
	Save(ctx context.Context, sessionID, resource string, params listparams.ListParams) error
	DeleteSession(ctx context.Context, sessionID string) error
}
