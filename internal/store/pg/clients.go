package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/campauth/internal/domain/repository"
)

type ClientRepo struct{ pool *pgxpool.Pool }

const clientColumns = `id::text, client_id, secret_hash, name, redirect_uris, scopes, grant_types,
	is_confidential, is_active, tenant_id, created_at, updated_at`

func scanClient(row pgx.Row) (*repository.Client, error) {
	var c repository.Client
	err := row.Scan(
		&c.ID, &c.ClientID, &c.SecretHash, &c.Name, &c.RedirectURIs, &c.Scopes, &c.GrantTypes,
		&c.IsConfidential, &c.IsActive, &c.TenantID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *ClientRepo) Create(ctx context.Context, in repository.CreateClientInput) (*repository.Client, error) {
	const query = `
		INSERT INTO oauth_client (client_id, secret_hash, name, redirect_uris, scopes, grant_types, is_confidential, tenant_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + clientColumns
	return scanClient(r.pool.QueryRow(ctx, query,
		in.ClientID, in.SecretHash, in.Name, nonNil(in.RedirectURIs), nonNil(in.Scopes), nonNil(in.GrantTypes),
		in.IsConfidential, in.TenantID,
	))
}

func (r *ClientRepo) GetByClientID(ctx context.Context, clientID string) (*repository.Client, error) {
	const query = `SELECT ` + clientColumns + ` FROM oauth_client WHERE client_id = $1`
	return scanClient(r.pool.QueryRow(ctx, query, clientID))
}

func (r *ClientRepo) GetByID(ctx context.Context, id string) (*repository.Client, error) {
	const query = `SELECT ` + clientColumns + ` FROM oauth_client WHERE id = $1`
	return scanClient(r.pool.QueryRow(ctx, query, id))
}

func (r *ClientRepo) ListByTenant(ctx context.Context, tenantID string) ([]repository.Client, error) {
	const query = `SELECT ` + clientColumns + ` FROM oauth_client WHERE tenant_id = $1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []repository.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, mapErr(rows.Err())
}

// RotateSecret: el UPDATE del client toma el lock de la fila antes de
// revocar, así que los inserts de token (FOR SHARE sobre el client) quedan
// ordenados antes o después de la rotación, nunca en el medio.
func (r *ClientRepo) RotateSecret(ctx context.Context, id, secretHash string) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("pg: begin rotate secret: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const update = `UPDATE oauth_client SET secret_hash = $2, updated_at = NOW() WHERE id = $1 AND is_confidential`
	tag, err := tx.Exec(ctx, update, id, secretHash)
	if err != nil {
		return 0, mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return 0, repository.ErrNotFound
	}

	const revoke = `UPDATE oauth_token SET revoked_at = NOW() WHERE client_id = $1 AND revoked_at IS NULL`
	tag, err = tx.Exec(ctx, revoke, id)
	if err != nil {
		return 0, mapErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("pg: commit rotate secret: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *ClientRepo) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE oauth_client SET is_active = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, active)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// nonNil evita NULL en columnas TEXT[] NOT NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
