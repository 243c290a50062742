package middlewares

import (
	"context"

	svc "github.com/dropDatabas3/campauth/internal/http/services/oauth"
)

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	ctxUserIDKey    ctxKey = "user_id"
	ctxTenantKey    ctxKey = "tenant_id"
	ctxTokenKey     ctxKey = "access_token"
	ctxClientIPKey  ctxKey = "client_ip"
)

func setRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, id)
}

// GetRequestID retorna el request id o "".
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(ctxRequestIDKey).(string)
	return v
}

// WithUserID inyecta la identidad autenticada por el proxy/login upstream.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, userID)
}

func GetUserID(ctx context.Context) string {
	v, _ := ctx.Value(ctxUserIDKey).(string)
	return v
}

func withTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ctxTenantKey, tenantID)
}

// GetTenantID retorna el tenant del header confiable (informativo).
func GetTenantID(ctx context.Context) string {
	v, _ := ctx.Value(ctxTenantKey).(string)
	return v
}

func withClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxClientIPKey, ip)
}

// GetClientIP retorna la IP resuelta por WithClientIP o "".
func GetClientIP(ctx context.Context) string {
	v, _ := ctx.Value(ctxClientIPKey).(string)
	return v
}

func withValidation(ctx context.Context, v *svc.ValidationResult) context.Context {
	return context.WithValue(ctx, ctxTokenKey, v)
}

// GetValidation retorna el token validado por RequireAccessToken.
func GetValidation(ctx context.Context) *svc.ValidationResult {
	v, _ := ctx.Value(ctxTokenKey).(*svc.ValidationResult)
	return v
}
