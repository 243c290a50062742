// Package audit registra eventos administrativos y de seguridad (alta de
// clients, rotación de secrets, revocaciones) en un logger "audit" separado
// del access log, para poder rutearlo a otro sink.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/campauth/internal/observability/logger"
)

// Eventos conocidos.
const (
	EventClientRegistered = "client.registered"
	EventSecretRotated    = "client.secret_rotated"
	EventClientActive     = "client.active_changed"
	EventTokenRevoked     = "token.revoked"
	EventRefreshReused    = "token.refresh_reused"
)

// Log escribe un evento de auditoría con los campos del logger del contexto
// (request_id, etc.) más los del evento.
func Log(ctx context.Context, event string, fields ...zap.Field) {
	l := logger.From(ctx).Named("audit")
	l.Info(event, append([]zap.Field{zap.String("event", event)}, fields...)...)
}
