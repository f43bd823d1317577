// Package generation houses the multi-provider content generation
// orchestrator at the heart of Fortuna.
//
// Callers hand it a prompt pair plus a task label and receive a structured
// JSON document back, no matter how many upstream providers misbehave along
// the way. The orchestrator ranks free candidate backends from a live
// catalog, rotates primary-provider credentials on rate limits, applies
// fixed cooldowns per error class, falls through to a secondary provider,
// and finally either substitutes a deterministic placeholder or reports the
// full attempt history, depending on the configured terminal policy.
//
// Error classification is an explicit contract: backend implementations
// return *BackendError values so the orchestrator never inspects error
// strings to decide how to react.
package generation
