// Package repository define los contratos del credential store.
//
// Las implementaciones viven en internal/store/memory y internal/store/pg.
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Solo se persisten hashes SHA-256 (hex) de tokens, nunca el valor crudo
//   - Los tokens solo mutan para setear revoked_at; refresh crea una fila nueva
//   - Los clients nunca se borran, se desactivan con IsActive=false
package repository
