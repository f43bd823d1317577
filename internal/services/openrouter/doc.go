// Package openrouter implements the OpenRouter chat completion and model
// catalog APIs behind the generation backend interfaces. Calls are one-shot:
// retry scheduling, credential rotation, and fallback live in the generation
// orchestrator, so the client's only jobs are transport and error
// classification.
package openrouter
