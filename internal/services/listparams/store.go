package listparams

import (
	"context"
	"errors"
	"time"

	"listkeeper/internal/domain/listparams"
	"listkeeper/internal/store/repositories"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// sessionStore scopes a params repository to one session
type sessionStore struct {
	repo      repositories.ParamsRepository
	sessionID string
}

func (s sessionStore) ListParams(ctx context.Context, resource string) (*listparams.ListParams, error) {
	p, err := s.repo.Load(ctx, s.sessionID, resource)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func (s sessionStore) ChangeListParams(ctx context.Context, resource string, params listparams.ListParams) error {
	return s.repo.Save(ctx, s.sessionID, resource, params)
}

// retryingStore retries writes with exponential backoff. Reads are not
// retried: a failed read surfaces to the caller right away.
type retryingStore struct {
	next       ParamsStore
	initial    time.Duration
	maxRetries uint64
}

func (s retryingStore) ListParams(ctx context.Context, resource string) (*listparams.ListParams, error) {
	return s.next.ListParams(ctx, resource)
}

func (s retryingStore) ChangeListParams(ctx context.Context, resource string, params listparams.ListParams) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.initial
	b := backoff.WithContext(backoff.WithMaxRetries(eb, s.maxRetries), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := s.next.ChangeListParams(ctx, resource, params)
		if err != nil {
			log.Warn().Err(err).Str("resource", resource).Int("attempt", attempt).Msg("store write failed")
		}
		return err
	}, b)
}
