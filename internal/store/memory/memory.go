// Package memory implementa el credential store en memoria.
// Útil para desarrollo y tests; no persiste entre reinicios.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/campauth/internal/domain/repository"
)

// Store guarda clients y tokens bajo un único mutex, lo que hace atómicas
// las operaciones compuestas como Rotate.
type Store struct {
	mu sync.RWMutex

	clients       map[string]*repository.Client // por ID
	clientsByPub  map[string]string             // client_id -> ID
	tokens        map[string]*repository.Token  // por ID
	byAccessHash  map[string]string
	byRefreshHash map[string]string

	now func() time.Time
}

var (
	_ repository.ClientRepository = (*ClientRepo)(nil)
	_ repository.TokenRepository  = (*TokenRepo)(nil)
)

// Option configura el Store.
type Option func(*Store)

// WithClock reemplaza time.Now para created_at/updated_at/revoked_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		clients:       make(map[string]*repository.Client),
		clientsByPub:  make(map[string]string),
		tokens:        make(map[string]*repository.Token),
		byAccessHash:  make(map[string]string),
		byRefreshHash: make(map[string]string),
		now:           time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Clients retorna el repositorio de clients.
func (s *Store) Clients() *ClientRepo { return &ClientRepo{s: s} }

// Tokens retorna el repositorio de tokens.
func (s *Store) Tokens() *TokenRepo { return &TokenRepo{s: s} }

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close()                     {}

func cloneClient(c *repository.Client) *repository.Client {
	out := *c
	out.RedirectURIs = slices.Clone(c.RedirectURIs)
	out.Scopes = slices.Clone(c.Scopes)
	out.GrantTypes = slices.Clone(c.GrantTypes)
	if c.SecretHash != nil {
		h := *c.SecretHash
		out.SecretHash = &h
	}
	return &out
}

func cloneToken(t *repository.Token) *repository.Token {
	out := *t
	out.Scopes = slices.Clone(t.Scopes)
	if t.UserID != nil {
		v := *t.UserID
		out.UserID = &v
	}
	if t.RefreshTokenHash != nil {
		v := *t.RefreshTokenHash
		out.RefreshTokenHash = &v
	}
	if t.RefreshExpiresAt != nil {
		v := *t.RefreshExpiresAt
		out.RefreshExpiresAt = &v
	}
	if t.RevokedAt != nil {
		v := *t.RevokedAt
		out.RevokedAt = &v
	}
	return &out
}

// ─── Clients ───

type ClientRepo struct{ s *Store }

func (r *ClientRepo) Create(_ context.Context, in repository.CreateClientInput) (*repository.Client, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.clientsByPub[in.ClientID]; dup {
		return nil, repository.ErrConflict
	}
	now := s.now().UTC()
	c := &repository.Client{
		ID:             uuid.NewString(),
		ClientID:       in.ClientID,
		SecretHash:     in.SecretHash,
		Name:           in.Name,
		RedirectURIs:   slices.Clone(in.RedirectURIs),
		Scopes:         slices.Clone(in.Scopes),
		GrantTypes:     slices.Clone(in.GrantTypes),
		IsConfidential: in.IsConfidential,
		IsActive:       true,
		TenantID:       in.TenantID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.clients[c.ID] = c
	s.clientsByPub[c.ClientID] = c.ID
	return cloneClient(c), nil
}

func (r *ClientRepo) GetByClientID(_ context.Context, clientID string) (*repository.Client, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.clientsByPub[clientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneClient(s.clients[id]), nil
}

func (r *ClientRepo) GetByID(_ context.Context, id string) (*repository.Client, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneClient(c), nil
}

func (r *ClientRepo) ListByTenant(_ context.Context, tenantID string) ([]repository.Client, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []repository.Client
	for _, c := range s.clients {
		if c.TenantID == tenantID {
			out = append(out, *cloneClient(c))
		}
	}
	slices.SortFunc(out, func(a, b repository.Client) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (r *ClientRepo) RotateSecret(_ context.Context, id, secretHash string) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[id]
	if !ok || !c.IsConfidential {
		return 0, repository.ErrNotFound
	}
	c.SecretHash = &secretHash
	c.UpdatedAt = s.now().UTC()

	n := 0
	for tid, t := range s.tokens {
		if t.ClientID == id && s.revokeLocked(tid) {
			n++
		}
	}
	return n, nil
}

func (r *ClientRepo) SetActive(_ context.Context, id string, active bool) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.IsActive = active
	c.UpdatedAt = s.now().UTC()
	return nil
}

// ─── Tokens ───

type TokenRepo struct{ s *Store }

// insertLocked requiere s.mu tomado en escritura.
func (s *Store) insertLocked(in repository.CreateTokenInput) (*repository.Token, error) {
	c, ok := s.clients[in.ClientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !sameHash(c.SecretHash, in.ClientSecretHash) {
		return nil, repository.ErrClientChanged
	}
	if _, dup := s.byAccessHash[in.AccessTokenHash]; dup {
		return nil, repository.ErrConflict
	}
	if in.RefreshTokenHash != nil {
		if _, dup := s.byRefreshHash[*in.RefreshTokenHash]; dup {
			return nil, repository.ErrConflict
		}
	}
	createdAt := in.CreatedAt.UTC()
	if in.CreatedAt.IsZero() {
		createdAt = s.now().UTC()
	}
	t := cloneToken(&repository.Token{
		ID:               uuid.NewString(),
		ClientID:         in.ClientID,
		UserID:           in.UserID,
		AccessTokenHash:  in.AccessTokenHash,
		RefreshTokenHash: in.RefreshTokenHash,
		Scopes:           in.Scopes,
		ExpiresAt:        in.ExpiresAt,
		RefreshExpiresAt: in.RefreshExpiresAt,
		CreatedAt:        createdAt,
	})
	s.tokens[t.ID] = t
	s.byAccessHash[t.AccessTokenHash] = t.ID
	if t.RefreshTokenHash != nil {
		s.byRefreshHash[*t.RefreshTokenHash] = t.ID
	}
	return cloneToken(t), nil
}

func sameHash(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// revokeLocked setea revoked_at si no estaba seteado.
func (s *Store) revokeLocked(id string) bool {
	t, ok := s.tokens[id]
	if !ok || t.RevokedAt != nil {
		return false
	}
	now := s.now().UTC()
	t.RevokedAt = &now
	return true
}

func (r *TokenRepo) Create(_ context.Context, in repository.CreateTokenInput) (*repository.Token, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(in)
}

func (r *TokenRepo) getBy(index map[string]string, hash string) (*repository.Token, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := index[hash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneToken(s.tokens[id]), nil
}

func (r *TokenRepo) GetByAccessHash(_ context.Context, h string) (*repository.Token, error) {
	return r.getBy(r.s.byAccessHash, h)
}

func (r *TokenRepo) GetByRefreshHash(_ context.Context, h string) (*repository.Token, error) {
	return r.getBy(r.s.byRefreshHash, h)
}

func (r *TokenRepo) revokeBy(index map[string]string, hash string) bool {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := index[hash]
	if !ok {
		return false
	}
	return s.revokeLocked(id)
}

func (r *TokenRepo) RevokeByAccessHash(_ context.Context, h string) (bool, error) {
	return r.revokeBy(r.s.byAccessHash, h), nil
}

func (r *TokenRepo) RevokeByRefreshHash(_ context.Context, h string) (bool, error) {
	return r.revokeBy(r.s.byRefreshHash, h), nil
}

func (r *TokenRepo) Rotate(_ context.Context, oldID string, next repository.CreateTokenInput) (*repository.Token, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[oldID]; !ok {
		return nil, repository.ErrNotFound
	}
	if !s.revokeLocked(oldID) {
		return nil, repository.ErrAlreadyRevoked
	}
	t, err := s.insertLocked(next)
	if err != nil {
		// rollback
		s.tokens[oldID].RevokedAt = nil
		return nil, err
	}
	return t, nil
}

