// Package probe implements the Health Probe Engine (SPEC_FULL.md §4.3): a
// dual-mode evaluation of a single provider entry that prefers a
// quota-query (Mode A) where the family and adapter support it, and falls
// back to a chat-send (Mode B) with per-family request-shape retries.
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oakhollow/providerpool/internal/adapter"
	"github.com/oakhollow/providerpool/internal/entry"
	"github.com/oakhollow/providerpool/internal/family"
	"github.com/oakhollow/providerpool/pkg/log"
)

// Result is the outcome of a single Probe call.
type Result struct {
	Success      bool
	ModelName    string
	ErrorMessage string
	UsageInfo    *entry.UsageSnapshot
}

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time

// Engine evaluates entries against their adapters.
type Engine struct {
	Adapters adapter.Factory
	Proxy    adapter.ProxyConfig
	Now      Clock
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Probe evaluates one entry, per §4.3. It returns (nil, nil) when no probe
// is defined for this family/entry (gated off and not forced); the caller
// (Supervisor or recovery) treats that as "no check implemented".
func (e *Engine) Probe(ctx context.Context, f family.Family, ent *entry.Entry, forceCheck bool) (*Result, error) {
	if !ent.CheckHealth && !forceCheck {
		return nil, nil
	}

	modelName := ent.CheckModelName
	if modelName == "" {
		if def, ok := family.DefaultCheckModel(f); ok {
			modelName = def
		}
	}

	// A cached adapter for this (family, uuid) might hold stale
	// credentials; drop it before probing so we exercise fresh ones.
	e.Adapters.Invalidate(string(f), ent.UUID)
	ad, err := e.Adapters.Adapter(ctx, string(f), ent.UUID, ent.Credentials, e.Proxy)
	if err != nil {
		return nil, fmt.Errorf("acquire adapter for %s/%s: %w", f, ent.UUID, err)
	}

	if family.IsUsageBased(f) {
		if res := e.probeModeA(ctx, f, ent, ad, modelName); res != nil {
			return res, nil
		}
		// Mode A unavailable or errored: fall through to Mode B.
	}

	return e.probeModeB(ctx, f, ad, modelName), nil
}

// probeModeA runs the quota-query probe. It returns nil when the family
// doesn't expose UsageQuerier, or when the quota call itself fails; both
// signal "Mode A absent", letting the caller fall back to Mode B.
func (e *Engine) probeModeA(ctx context.Context, f family.Family, ent *entry.Entry, ad adapter.Adapter, modelName string) *Result {
	querier, ok := ad.(adapter.UsageQuerier)
	if !ok {
		return nil
	}

	refreshed := false
	if forcer, ok := ad.(adapter.ForceTokenRefresher); ok {
		if err := forcer.ForceRefreshToken(ctx); err != nil {
			log.WithModule("probe").Warn("force refresh failed, continuing probe",
				"family", f, "uuid", ent.UUID, "error", err)
		} else {
			refreshed = true
		}
	}
	if !refreshed {
		if refresher, ok := ad.(adapter.TokenRefresher); ok {
			if err := refresher.RefreshToken(ctx); err != nil {
				log.WithModule("probe").Warn("refresh failed, continuing probe",
					"family", f, "uuid", ent.UUID, "error", err)
			}
		}
	}

	raw, err := querier.GetUsageLimits(ctx)
	if err != nil {
		return nil
	}

	kiroRaw, ok := raw.(adapter.KiroUsageRaw)
	if !ok {
		return nil
	}

	snap := adapter.FormatKiroUsage(kiroRaw)
	now := e.now()
	snap.CheckedAt = now
	ent.SetUsageInfo(now, &snap)

	healthy, message := adapter.KiroVerdict(snap)
	return &Result{Success: healthy, ModelName: modelName, ErrorMessage: message, UsageInfo: &snap}
}

// payloads builds the ordered list of request shapes to try for Mode B, per
// the family table in §4.3.
func payloads(f family.Family, modelName string) []adapter.Payload {
	switch f {
	case family.GeminiCLIOAuth, family.GeminiAntigravity:
		return []adapter.Payload{geminiPayload(modelName)}
	case family.ClaudeKiroOAuth:
		return []adapter.Payload{kiroChatPayload(modelName), geminiPayload(modelName)}
	case family.OpenAIResponsesCustom:
		return []adapter.Payload{responsesPayload(modelName)}
	default:
		return []adapter.Payload{chatPayload(modelName)}
	}
}

func geminiPayload(modelName string) adapter.Payload {
	return adapter.Payload{
		"contents": []map[string]any{
			{"role": "user", "parts": []map[string]any{{"text": "Hi"}}},
		},
		"model":      modelName,
		"max_tokens": 1,
	}
}

func kiroChatPayload(modelName string) adapter.Payload {
	return adapter.Payload{
		"messages":   []map[string]any{{"role": "user", "content": "Hi"}},
		"model":      modelName,
		"max_tokens": 1,
	}
}

func chatPayload(modelName string) adapter.Payload {
	return adapter.Payload{
		"messages": []map[string]any{{"role": "user", "content": "Hi"}},
		"model":    modelName,
	}
}

func responsesPayload(modelName string) adapter.Payload {
	return adapter.Payload{
		"input": []map[string]any{{"role": "user", "content": "Hi"}},
		"model": modelName,
	}
}

// probeModeB attempts each family-shaped payload in order, returning on the
// first success. Per-payload failure is a result value, not a caught
// exception; the strategy list is just iterated (DESIGN NOTES).
func (e *Engine) probeModeB(ctx context.Context, f family.Family, ad adapter.Adapter, modelName string) *Result {
	var lastErr error
	for _, p := range payloads(f, modelName) {
		_, err := ad.GenerateContent(ctx, modelName, p)
		if err == nil {
			return &Result{Success: true, ModelName: modelName}
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no probe payload configured")
	}
	return &Result{Success: false, ModelName: modelName, ErrorMessage: lastErr.Error()}
}
