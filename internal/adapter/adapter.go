// Package adapter defines the capability contract the pool manager uses to
// reach provider-family-specific logic, per SPEC_FULL.md §6. The manager
// never implements request/response translation itself; that lives in the
// (out-of-scope) service adapters this interface stands in for.
package adapter

import "context"

// Payload is an opaque, family-shaped request body. The probe engine builds
// these; adapters forward them to the upstream API unmodified.
type Payload map[string]any

// Result is an opaque adapter response. Only its presence (vs. an error)
// matters to the health probe; its contents are not interpreted here.
type Result map[string]any

// Adapter is the minimal capability every provider family must implement to
// participate in selection and health probing.
type Adapter interface {
	// GenerateContent issues a single chat-completion-shaped call. Required
	// for Mode B probes and for hot-path serving.
	GenerateContent(ctx context.Context, modelName string, payload Payload) (Result, error)
}

// UsageQuerier is an optional capability: adapters that can report quota
// directly expose it so the probe engine can run a Mode-A probe instead of
// sending a live chat message.
type UsageQuerier interface {
	GetUsageLimits(ctx context.Context) (RawUsageDocument, error)
}

// TokenRefresher is an optional capability for OAuth-backed families.
type TokenRefresher interface {
	RefreshToken(ctx context.Context) error
}

// ForceTokenRefresher is an optional capability: a refresh that ignores any
// cached validity window. Preferred over TokenRefresher when both are
// implemented (SPEC_FULL.md §4.3 Adapter acquisition).
type ForceTokenRefresher interface {
	ForceRefreshToken(ctx context.Context) error
}

// RawUsageDocument is the unparsed response of a quota query, shaped
// per-family. The only family that currently implements UsageQuerier is
// claude-kiro-oauth; see KiroUsageRaw in kiro.go for its shape.
type RawUsageDocument any

// ProxyConfig carries the process-wide per-family proxy toggles from
// SPEC_FULL.md §6 (USE_SYSTEM_PROXY_GEMINI, _OPENAI, _CLAUDE, _QWEN, _KIRO).
type ProxyConfig struct {
	Gemini bool
	OpenAI bool
	Claude bool
	Qwen   bool
	Kiro   bool
}

// Factory acquires an Adapter for a given entry, merging in the process-wide
// proxy settings, and lets the probe engine invalidate any cached instance
// before a probe so stale credentials are never exercised.
type Factory interface {
	Adapter(ctx context.Context, family, uuid string, credentials []byte, proxy ProxyConfig) (Adapter, error)
	Invalidate(family, uuid string)
}
