// Package llm provides an OpenRouter chat client used to draft posting
// strategies.
//
// Client.CompleteJSON sends a system and user prompt with a json_object
// response format and returns the raw payload; DecodeJSON tolerates code
// fences and chatter around the object. Responses that arrive as tool-call
// arguments, streaming deltas, or legacy text completions are accepted too.
//
// Retries follow the shared httpretry policy: HTTP 408/429/5xx, network
// timeouts, and empty completions are retried with exponential backoff (base
// 1s, max 10s, up to 5 attempts). Context cancellation aborts retries
// immediately.
package llm
