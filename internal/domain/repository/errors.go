package repository

import "errors"

var (
	// ErrNotFound indica que el recurso no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica un duplicado (ej: client_id o hash repetido).
	ErrConflict = errors.New("conflict")

	// ErrAlreadyRevoked indica que el token ya estaba revocado cuando se
	// intentó revocarlo condicionalmente (rotación de refresh).
	ErrAlreadyRevoked = errors.New("already revoked")

	// ErrClientChanged indica que el secret del client cambió entre la
	// autenticación y la persistencia del token.
	ErrClientChanged = errors.New("client changed")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
