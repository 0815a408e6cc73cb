// Package download executes one job per resolved identifier under bounded
// concurrency.
//
// Each job runs the same pipeline: title metadata, quality selection, link
// expiry check, atomic video streaming, subtitle filtering and streaming,
// and optional post-processing. Streams retry independently with backoff
// before the whole job retries, so a transient subtitle failure never
// discards an already-fetched video. An interrupt drains the pool: running
// jobs finish, queued jobs are recorded as not run.
package download
