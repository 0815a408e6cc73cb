// Package catalog implements typed accessors over the remote catalog API.
//
// The client is pure request/response: it owns no state beyond the HTTP
// client and treats absent or malformed fields as missing rather than
// erroring. Empty listings are returned as empty slices so callers can run
// fallback behavior.
//
// Catalog responses are loosely typed on the wire (identifiers arrive as
// numbers or strings, season/episode counters under varying keys); the flex
// types in types.go absorb that heterogeneity at the boundary.
package catalog
