// Package client is the HTTP client of the voicegate gateway API used by the
// CLI. Every non-2xx answer is returned as *APIError.
package client
