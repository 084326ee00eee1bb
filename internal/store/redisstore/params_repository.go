package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"listkeeper/internal/domain/listparams"
	"listkeeper/internal/store/repositories"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "listparams"

// ParamsRepository stores each list's params as a JSON string. Keys of one
// session share a hash tag so a session can be dropped with one scan.
type ParamsRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewParamsRepository wraps a client. A zero ttl keeps entries forever.
func NewParamsRepository(client *redis.Client, ttl time.Duration) *ParamsRepository {
	return &ParamsRepository{client: client, ttl: ttl}
}

// NewClient opens a client the way the rest of the service configures redis
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

var _ repositories.ParamsRepository = (*ParamsRepository)(nil)

func Key(sessionID, resource string) string {
	return fmt.Sprintf("%s:{%s}:%s", keyPrefix, sessionID, resource)
}

func sessionPattern(sessionID string) string {
	return fmt.Sprintf("%s:{%s}:*", keyPrefix, sessionID)
}

func (r *ParamsRepository) Load(ctx context.Context, sessionID, resource string) (*listparams.ListParams, error) {
	data, err := r.client.Get(ctx, Key(sessionID, resource)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var p listparams.ListParams
	if err := sonic.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	return &p, nil
}

func (r *ParamsRepository) Save(ctx context.Context, sessionID, resource string, params listparams.ListParams) error {
	data, err := sonic.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	return r.client.Set(ctx, Key(sessionID, resource), data, r.ttl).Err()
}

func (r *ParamsRepository) DeleteSession(ctx context.Context, sessionID string) error {
	iter := r.client.Scan(ctx, 0, sessionPattern(sessionID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *ParamsRepository) Close() error {
	return r.client.Close()
}
