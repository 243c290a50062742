// Package store abre el credential store configurado (memory | postgres).
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/campauth/internal/config"
	"github.com/dropDatabas3/campauth/internal/domain/repository"
	"github.com/dropDatabas3/campauth/internal/store/memory"
	"github.com/dropDatabas3/campauth/internal/store/pg"
	migrations "github.com/dropDatabas3/campauth/migrations/postgres"
)

// Store expone los repositorios del driver elegido.
type Store struct {
	Driver  string
	Clients repository.ClientRepository
	Tokens  repository.TokenRepository

	ping  func(context.Context) error
	close func()
	pg    *pg.Store
}

// ErrMigrationsUnsupported lo retorna Migrate para drivers sin esquema.
var ErrMigrationsUnsupported = errors.New("store: driver has no migrations")

// Open conecta según cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.Storage.Driver {
	case "memory", "":
		return NewMemory(), nil
	case "postgres":
		s, err := pg.Open(ctx, pg.Config{
			DSN:      cfg.Storage.DSN,
			MaxConns: cfg.Storage.Postgres.MaxConns,
			MinConns: cfg.Storage.Postgres.MinConns,
		})
		if err != nil {
			return nil, err
		}
		return &Store{
			Driver:  "postgres",
			Clients: s.Clients(),
			Tokens:  s.Tokens(),
			ping:    s.Ping,
			close:   s.Close,
			pg:      s,
		}, nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Storage.Driver)
	}
}

// NewMemory retorna un store en memoria vacío.
func NewMemory() *Store {
	m := memory.New()
	return &Store{
		Driver:  "memory",
		Clients: m.Clients(),
		Tokens:  m.Tokens(),
		ping:    m.Ping,
		close:   m.Close,
	}
}

func (s *Store) Ping(ctx context.Context) error { return s.ping(ctx) }
func (s *Store) Close()                         { s.close() }

// Migrate aplica las migraciones embebidas (solo postgres).
func (s *Store) Migrate(ctx context.Context) (*pg.MigrationResult, error) {
	if s.pg == nil {
		return nil, ErrMigrationsUnsupported
	}
	return s.pg.Migrate(ctx, migrations.FS, migrations.Dir)
}
