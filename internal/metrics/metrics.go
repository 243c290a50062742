// Package metrics expone contadores Prometheus del authorization server.
// Todos los métodos aceptan receiver nil para que services y tests puedan
// correr sin registry.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInflight prometheus.Gauge

	tokensIssued  *prometheus.CounterVec
	tokensRevoked *prometheus.CounterVec
	oauthErrors   *prometheus.CounterVec
	codesIssued   prometheus.Counter
	codesRedeemed *prometheus.CounterVec
	codesSwept    prometheus.Counter
	rateLimited   *prometheus.CounterVec
}

// New registra las métricas en reg. reg nil crea un registry propio.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	}
	m := &Metrics{
		gatherer: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Requests HTTP procesadas",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo",
		}),
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_tokens_issued_total",
			Help: "Tokens emitidos por grant type",
		}, []string{"grant_type"}),
		tokensRevoked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_tokens_revoked_total",
			Help: "Tokens revocados por motivo",
		}, []string{"reason"}), // rotation|explicit|secret_rotation
		oauthErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_errors_total",
			Help: "Errores de protocolo por endpoint y código",
		}, []string{"endpoint", "error"}),
		codesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oauth_auth_codes_issued_total",
			Help: "Authorization codes emitidos",
		}),
		codesRedeemed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_auth_codes_redeemed_total",
			Help: "Intentos de canje de authorization code por resultado",
		}, []string{"result"}), // ok|miss|rejected
		codesSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oauth_auth_codes_swept_total",
			Help: "Authorization codes expirados purgados",
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rechazadas por rate limit",
		}, []string{"path"}),
	}

	for _, c := range []prometheus.Collector{
		m.httpRequests, m.httpDuration, m.httpInflight,
		m.tokensIssued, m.tokensRevoked, m.oauthErrors,
		m.codesIssued, m.codesRedeemed, m.codesSwept, m.rateLimited,
	} {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return err
	}
	return nil
}

// Handler sirve /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) TokenIssued(grantType string) {
	if m == nil {
		return
	}
	m.tokensIssued.WithLabelValues(grantType).Inc()
}

func (m *Metrics) TokensRevoked(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.tokensRevoked.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) OAuthError(endpoint, code string) {
	if m == nil {
		return
	}
	m.oauthErrors.WithLabelValues(endpoint, code).Inc()
}

func (m *Metrics) CodeIssued() {
	if m == nil {
		return
	}
	m.codesIssued.Inc()
}

func (m *Metrics) CodeRedeemed(result string) {
	if m == nil {
		return
	}
	m.codesRedeemed.WithLabelValues(result).Inc()
}

func (m *Metrics) CodesSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.codesSwept.Add(float64(n))
}

func (m *Metrics) RateLimited(path string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(normalizePath(path)).Inc()
}

// Instrument mide requests HTTP (contador, latencia, inflight).
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.ToUpper(r.Method)
		path := normalizePath(r.URL.Path)

		m.httpInflight.Inc()
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			m.httpInflight.Dec()
			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		}()
		next.ServeHTTP(rec, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// normalizePath acota la cardinalidad: rutas desconocidas van a "other".
func normalizePath(p string) string {
	switch p {
	case "/oauth/token", "/oauth/authorize", "/oauth/revoke", "/oauth/introspect",
		"/oauth/tokeninfo", "/oauth/.well-known/openid-configuration",
		"/.well-known/openid-configuration", "/health", "/ready", "/metrics":
		return p
	default:
		return "other"
	}
}
