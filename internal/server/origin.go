// Package server normalizes and validates HTTP origins for WebSocket requests
// to enforce configured access control.
package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// OriginPolicy decides which Origin headers may open a WebSocket connection.
// A single "*" entry in the configured list allows every origin.
type OriginPolicy struct {
	allowed  map[string]struct{}
	allowAll bool
}

// NewOriginPolicy builds a policy from a configured origin list. Entries that
// do not parse as scheme://host are ignored with a warning.
func NewOriginPolicy(origins []string) *OriginPolicy {
	policy := &OriginPolicy{allowed: make(map[string]struct{}, len(origins))}

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			policy.allowAll = true
			continue
		}
		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			slog.Warn("ignoring invalid origin in configuration", "origin", origin)
			continue
		}
		policy.allowed[normalized] = struct{}{}
	}

	return policy
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

// Allows reports whether the given Origin header value is acceptable.
func (p *OriginPolicy) Allows(originHeader string) bool {
	if originHeader == "" {
		return false
	}
	normalized, ok := normalizeOrigin(originHeader)
	if !ok {
		return false
	}
	if p.allowAll {
		return true
	}
	_, exists := p.allowed[normalized]
	return exists
}

// CheckRequest is the upgrader's CheckOrigin hook.
func (p *OriginPolicy) CheckRequest(r *http.Request) bool {
	if p.Allows(r.Header.Get("Origin")) {
		return true
	}
	slog.Warn("blocked websocket connection from disallowed origin",
		"origin", r.Header.Get("Origin"))
	return false
}
