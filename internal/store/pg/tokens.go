package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/campauth/internal/domain/repository"
)

type TokenRepo struct{ pool *pgxpool.Pool }

const tokenColumns = `id::text, client_id::text, user_id, access_token_hash, refresh_token_hash, scopes,
	expires_at, refresh_expires_at, revoked_at, created_at`

// insertToken solo inserta si el client conserva el secret_hash con el que
// se autenticó ($9). FOR SHARE serializa contra RotateSecret: si la rotación
// tomó la fila primero, el WHERE se reevalúa con el hash nuevo y no inserta;
// si el insert la tomó primero, la rotación espera y revoca la fila nueva.
const insertToken = `
	INSERT INTO oauth_token (client_id, user_id, access_token_hash, refresh_token_hash, scopes, expires_at, refresh_expires_at, created_at)
	SELECT c.id, $2::text, $3::text, $4::text, $5::text[], $6::timestamptz, $7::timestamptz, COALESCE($8::timestamptz, NOW())
	FROM oauth_client c
	WHERE c.id = $1::uuid AND c.secret_hash IS NOT DISTINCT FROM $9::text
	FOR SHARE OF c
	RETURNING ` + tokenColumns

func scanToken(row pgx.Row) (*repository.Token, error) {
	var t repository.Token
	err := row.Scan(
		&t.ID, &t.ClientID, &t.UserID, &t.AccessTokenHash, &t.RefreshTokenHash, &t.Scopes,
		&t.ExpiresAt, &t.RefreshExpiresAt, &t.RevokedAt, &t.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func insertArgs(in repository.CreateTokenInput) []any {
	var createdAt *time.Time
	if !in.CreatedAt.IsZero() {
		createdAt = &in.CreatedAt
	}
	return []any{
		in.ClientID, in.UserID, in.AccessTokenHash, in.RefreshTokenHash, nonNil(in.Scopes),
		in.ExpiresAt, in.RefreshExpiresAt, createdAt, in.ClientSecretHash,
	}
}

// insert corre insertToken; cero filas significa que el client cambió (o
// no existe).
func insert(ctx context.Context, q interface {
	QueryRow(context.Context, string, ...any) pgx.Row
}, in repository.CreateTokenInput) (*repository.Token, error) {
	t, err := scanToken(q.QueryRow(ctx, insertToken, insertArgs(in)...))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, repository.ErrClientChanged
	}
	return t, err
}

func (r *TokenRepo) Create(ctx context.Context, in repository.CreateTokenInput) (*repository.Token, error) {
	return insert(ctx, r.pool, in)
}

func (r *TokenRepo) GetByAccessHash(ctx context.Context, h string) (*repository.Token, error) {
	const query = `SELECT ` + tokenColumns + ` FROM oauth_token WHERE access_token_hash = $1`
	return scanToken(r.pool.QueryRow(ctx, query, h))
}

func (r *TokenRepo) GetByRefreshHash(ctx context.Context, h string) (*repository.Token, error) {
	const query = `SELECT ` + tokenColumns + ` FROM oauth_token WHERE refresh_token_hash = $1`
	return scanToken(r.pool.QueryRow(ctx, query, h))
}

func (r *TokenRepo) RevokeByAccessHash(ctx context.Context, h string) (bool, error) {
	const query = `UPDATE oauth_token SET revoked_at = NOW() WHERE access_token_hash = $1 AND revoked_at IS NULL`
	tag, err := r.pool.Exec(ctx, query, h)
	if err != nil {
		return false, mapErr(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *TokenRepo) RevokeByRefreshHash(ctx context.Context, h string) (bool, error) {
	const query = `UPDATE oauth_token SET revoked_at = NOW() WHERE refresh_token_hash = $1 AND revoked_at IS NULL`
	tag, err := r.pool.Exec(ctx, query, h)
	if err != nil {
		return false, mapErr(err)
	}
	return tag.RowsAffected() > 0, nil
}

// Rotate: el UPDATE condicional y el INSERT comparten transacción, así que
// dos refresh concurrentes con el mismo token no pueden ganar ambos. El lock
// compartido del client se toma primero para no cruzarse con RotateSecret.
func (r *TokenRepo) Rotate(ctx context.Context, oldID string, next repository.CreateTokenInput) (*repository.Token, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pg: begin rotate: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// client antes que token: mismo orden de locks que RotateSecret
	const lockClient = `SELECT 1 FROM oauth_client WHERE id = $1::uuid AND secret_hash IS NOT DISTINCT FROM $2::text FOR SHARE`
	var one int
	if err := tx.QueryRow(ctx, lockClient, next.ClientID, next.ClientSecretHash).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrClientChanged
		}
		return nil, mapErr(err)
	}

	const revoke = `UPDATE oauth_token SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`
	tag, err := tx.Exec(ctx, revoke, oldID)
	if err != nil {
		return nil, mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, repository.ErrAlreadyRevoked
	}

	t, err := insert(ctx, tx, next)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("pg: commit rotate: %w", err)
	}
	return t, nil
}

