package memory

import (
	"context"
	"sync"

	"listkeeper/internal/domain/listparams"
	"listkeeper/internal/store/repositories"
)

// ParamsRepository keeps list params in process memory
type ParamsRepository struct {
	mu       sync.RWMutex
	sessions map[string]map[string]listparams.ListParams
}

// NewParamsRepository creates an empty in-memory repository
func NewParamsRepository() *ParamsRepository {
	return &ParamsRepository{sessions: make(map[string]map[string]listparams.ListParams)}
}

var _ repositories.ParamsRepository = (*ParamsRepository)(nil)

func (r *ParamsRepository) Load(_ context.Context, sessionID, resource string) (*listparams.ListParams, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.sessions[sessionID][resource]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := p.Clone()
	return &out, nil
}

func (r *ParamsRepository) Save(_ context.Context, sessionID, resource string, params listparams.ListParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lists, ok := r.sessions[sessionID]
	if !ok {
		lists = make(map[string]listparams.ListParams)
		r.sessions[sessionID] = lists
	}
	lists[resource] = params.Clone()
	return nil
}

func (r *ParamsRepository) DeleteSession(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}
