// Package history persists run outcomes to a local SQLite database so past
// downloads can be inspected after the fact. Each run stores its aggregate
// counts plus one row per job result.
package history
