// Package llm provides chat completion clients for the supported
// providers (OpenAI, Anthropic, Google Gemini) behind a single
// CompletionClient interface, plus classification of raw provider
// errors into the retry categories the dispatch workers act on.
//
// Provider SDK-internal retries are disabled. Retry policy belongs to
// the worker that owns the request, which also holds the rate limit
// admission it was granted.
package llm
