// Package pg implementa el credential store sobre PostgreSQL (pgxpool).
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/campauth/internal/domain/repository"
)

type Config struct {
	DSN      string
	MaxConns int
	MinConns int
}

// Store agrupa el pool y los repositorios.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ repository.ClientRepository = (*ClientRepo)(nil)
	_ repository.TokenRepository  = (*TokenRepo)(nil)
)

// Open crea el pool y verifica conectividad.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool envuelve un pool existente.
func NewWithPool(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

func (s *Store) Clients() *ClientRepo { return &ClientRepo{pool: s.pool} }
func (s *Store) Tokens() *TokenRepo   { return &TokenRepo{pool: s.pool} }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }
func (s *Store) Close()                         { s.pool.Close() }

// Pool expone el pool para migraciones.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// mapErr traduce errores de pgx a errores de dominio.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", repository.ErrConflict, pgErr.ConstraintName)
		case "22P02": // invalid_text_representation (uuid mal formado)
			return repository.ErrNotFound
		}
	}
	return err
}
