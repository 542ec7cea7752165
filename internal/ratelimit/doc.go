// Package ratelimit paces outbound vision requests across all analysis
// workers. The worker count and the request rate are independent: workers
// may extract pages in parallel, but every request first passes this gate.
package ratelimit
