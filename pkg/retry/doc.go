// Package retry provides simple exponential backoff retry logic for transient failures.
//
// # Overview
//
// This package offers a minimal retry mechanism with exponential backoff,
// used for NATS connection establishment, store access during startup, and
// the tablet clients' reconnection discipline.
//
// # Core Functions
//
//   - Do: Execute function with retry and exponential backoff
//   - DoWithResult: Execute function with retry, returns both result and error
//   - Config.Delay: Deterministic delay for a given attempt number, used by
//     callers that schedule their own retries (the reconnect manager)
//
// # Configuration Presets
//
//   - DefaultConfig(): 3 attempts, 100ms-5s delay (normal operations)
//   - Quick(): 10 attempts, 50ms-1s delay (component startup)
//   - Reconnect(): 5 attempts, 1s-30s delay (client reconnection)
//
// # Usage Examples
//
// Basic retry with defaults:
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
//	    return client.Connect()
//	})
//
// Self-scheduled backoff (reconnect manager style):
//
//	delay := cfg.Delay(attempt) // attempt is 1-based
//	timer := time.NewTimer(delay)
//
// Errors wrapped with NonRetryable stop the loop immediately.
package retry
