// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the completion client for hosted chat models.
//
// The client speaks the OpenAI-compatible chat completions API, so it works
// with api.openai.com as well as proxies and self-hosted gateways exposing
// the same endpoint.
//
// # Key Types
//
//   - Client: HTTP client with a per-request timeout and a request rate limit
//   - Message: Chat message in the API wire format
//   - CompletionError: Every failure, matching ErrCompletionFailed
//
// # Usage
//
//	client := cloud.NewClient(apiKey).WithTimeout(60 * time.Second)
//	text, err := client.Complete(ctx, "gpt-4o", []cloud.Message{
//	    cloud.NewUserMessage("Hello"),
//	})
//	if errors.Is(err, cloud.ErrCompletionFailed) {
//	    // surface to the user
//	}
//
// # Retries
//
// The client never retries. Callers decide whether to resubmit.
//
// # Security
//
// API keys are never logged; only a SHA-256 fingerprint is exposed.
package cloud
