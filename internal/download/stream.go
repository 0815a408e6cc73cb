package download

import (
	"context"
	"log/slog"
	"os"
	"time"

	"showgrab/internal/fileutil"
	"showgrab/internal/logging"
	"showgrab/internal/services"
)

// streamPolicy controls how an individual stream download behaves.
type streamPolicy struct {
	retries      int           // additional attempts after the first
	backoff      time.Duration // doubled after every failed attempt
	skipExisting bool
	overwrite    bool
}

// streamToFile downloads one URL to dst atomically, retrying transient
// failures with exponential backoff. The final path only ever holds a
// complete file; interrupted attempts leave the previous content (if any)
// in place.
func (o *Orchestrator) streamToFile(ctx context.Context, logger *slog.Logger, mediaURL, dst string, policy streamPolicy) error {
	if fileutil.Exists(dst) {
		if policy.skipExisting {
			logger.Debug("target exists; skipping", logging.String("path", dst))
			return nil
		}
		if policy.overwrite {
			if err := os.Remove(dst); err != nil {
				return services.Wrap(services.ErrTransient, "download", "remove existing", dst, err)
			}
		}
		// Without either flag the atomic rename replaces the file in place.
	}

	backoff := policy.backoff
	var lastErr error
	for attempt := 0; attempt <= policy.retries; attempt++ {
		if attempt > 0 {
			logger.Debug("retrying stream",
				logging.Int("attempt", attempt+1),
				logging.Duration("backoff", backoff),
				logging.Error(lastErr))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		lastErr = o.streamOnce(ctx, logger, mediaURL, dst)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

func (o *Orchestrator) streamOnce(ctx context.Context, logger *slog.Logger, mediaURL, dst string) error {
	body, size, err := o.client.Stream(ctx, mediaURL)
	if err != nil {
		return err
	}
	defer body.Close()

	start := time.Now()
	written, err := fileutil.WriteStreamAtomic(dst, body)
	if err != nil {
		return services.Wrap(services.ErrTransient, "download", "stream", dst, err)
	}
	// size is -1 when the server declares no length; the write is still
	// atomic, only progress reporting loses its determinate fraction.
	if size >= 0 && written != size {
		return services.Wrap(services.ErrTransient, "download", "stream",
			"truncated body", nil)
	}

	logger.Debug("stream complete",
		logging.String("path", dst),
		logging.Int64("bytes", written),
		logging.Duration("elapsed", time.Since(start)))
	return nil
}
