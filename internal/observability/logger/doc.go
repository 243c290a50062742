// Package logger expone un logger Zap global con scoping por contexto.
//
// Init se llama una vez desde main. Los middlewares HTTP inyectan un logger
// con request_id vía ToContext, y services/controllers lo recuperan con From:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("TokenService.Refresh"))
//	log.Info("token rotated", logger.ClientID(clientID))
//
// Nunca se loguean tokens ni secretos en crudo.
package logger
