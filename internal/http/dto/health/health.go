// Package health contiene DTOs para /health y /ready.
package health

import "time"

// ComponentStatus es el estado de una dependencia.
type ComponentStatus struct {
	Status  string `json:"status"`            // "ok" | "error"
	Message string `json:"message,omitempty"`
}

// Response es el cuerpo de /health y /ready.
type Response struct {
	Status     string                     `json:"status"` // "ok" | "ready" | "unavailable"
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentStatus `json:"components,omitempty"`
	Timestamp  time.Time                  `json:"timestamp"`
}
