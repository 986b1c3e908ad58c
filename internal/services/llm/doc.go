// Package llm provides an OpenRouter-compatible chat client that translates
// caption batches and single metadata strings.
//
// TranslateBatch asks the model for a JSON array of translations and checks
// nothing beyond shape; callers compare lengths against their input and treat
// a mismatch as a contract violation. TranslateOne returns plain text.
//
// Transport failures are retried with exponential backoff that honours
// Retry-After. Errors surfaced to callers are tagged with services markers:
// rate limits, 5xx responses and timeouts become ErrTransient, malformed
// payloads become ErrContractViolation and everything else is ErrDelegate.
package llm
