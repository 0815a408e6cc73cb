// Package discovery expands a series or episode identifier into the
// complete, deduplicated, season/episode-ordered set of episode identifiers.
//
// Three strategies run in priority order: the season-listing endpoint, an
// optionally configured external episode-listing endpoint, and a best-effort
// crawl of the group-listing index across configured (language, level)
// pairs. Results are persisted to a cache keyed by root identifier; a cached
// non-empty entry is authoritative until explicitly bypassed.
package discovery
