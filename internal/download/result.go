package download

import "time"

// Status classifies the outcome of one job.
type Status string

const (
	// StatusOK marks a fully materialized job.
	StatusOK Status = "ok"
	// StatusPlanned marks a dry-run job that would have downloaded.
	StatusPlanned Status = "planned"
	// StatusNoQualities marks an identifier offering no encoding variants.
	StatusNoQualities Status = "no-qualities"
	// StatusNoQualityURL marks a selected variant without a usable URL.
	StatusNoQualityURL Status = "no-quality-url"
	// StatusError marks a job whose retries were exhausted.
	StatusError Status = "error"
	// StatusNotRun marks a job skipped because the pool was draining.
	StatusNotRun Status = "not-run"
)

// JobResult is the unit aggregated into the run summary.
type JobResult struct {
	ID         string
	Status     Status
	Title      string
	OutputPath string
	Err        error
}

// Summary aggregates every job result of a run.
type Summary struct {
	Results  []JobResult
	Started  time.Time
	Finished time.Time
}

// Counts buckets results the way the operator summary reports them:
// completed (ok or planned), skipped (nothing to download, or not run),
// and failed.
func (s Summary) Counts() (completed, skipped, failed int) {
	for _, r := range s.Results {
		switch r.Status {
		case StatusOK, StatusPlanned:
			completed++
		case StatusError:
			failed++
		default:
			skipped++
		}
	}
	return completed, skipped, failed
}

// Failed reports whether the run should surface a non-zero exit code.
func (s Summary) Failed() bool {
	_, _, failed := s.Counts()
	return failed > 0
}
