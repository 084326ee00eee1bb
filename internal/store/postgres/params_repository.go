package postgres

import (
	"context"
	"errors"
	"fmt"

	"listkeeper/internal/domain/listparams"
	"listkeeper/internal/store/repositories"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS list_params (
	session_id TEXT        NOT NULL,
	resource   TEXT        NOT NULL,
	params     JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (session_id, resource)
)`

// paramsRepository implements ParamsRepository on a jsonb column
type paramsRepository struct {
	db *pgxpool.Pool
}

// NewParamsRepository creates a new params repository
func NewParamsRepository(db *pgxpool.Pool) *paramsRepository {
	return &paramsRepository{db: db}
}

var _ repositories.ParamsRepository = (*paramsRepository)(nil)

// EnsureSchema creates the list_params table when missing
func (r *paramsRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schema)
	return err
}

// Load finds the params of one list
func (r *paramsRepository) Load(ctx context.Context, sessionID, resource string) (*listparams.ListParams, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `
		SELECT params
		FROM list_params
		WHERE session_id = $1 AND resource = $2`, sessionID, resource).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var p listparams.ListParams
	if err := sonic.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	return &p, nil
}

// Save upserts the params of one list
func (r *paramsRepository) Save(ctx context.Context, sessionID, resource string, params listparams.ListParams) error {
	raw, err := sonic.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO list_params (session_id, resource, params, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (session_id, resource)
		DO UPDATE SET params = EXCLUDED.params, updated_at = now()`,
		sessionID, resource, raw)
	return err
}

// DeleteSession removes every list of a session
func (r *paramsRepository) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM list_params WHERE session_id = $1`, sessionID)
	return err
}
