package download

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"showgrab/internal/catalog"
	"showgrab/internal/fileutil"
	"showgrab/internal/language"
	"showgrab/internal/logging"
	"showgrab/internal/naming"
	"showgrab/internal/quality"
	"showgrab/internal/services"
)

// runJob executes the full pipeline for one identifier and reports the
// outcome. Pipeline errors bubble up so the caller can apply the job-level
// retry policy; terminal catalog conditions (no qualities, no URL) are
// results, not errors.
func (o *Orchestrator) runJob(ctx context.Context, id string) (JobResult, error) {
	logger := o.logger.With(logging.String(logging.FieldItemID, id))
	result := JobResult{ID: id, Status: StatusError}

	info, err := o.client.TitleInfo(ctx, id)
	if err != nil {
		return result, err
	}
	result.Title = naming.BaseTitle(info)
	if tag := naming.EpisodeTag(info); tag != "" {
		result.Title += " " + tag
	}

	variants, err := o.client.Qualities(ctx, id)
	if err != nil {
		return result, err
	}
	if len(variants) == 0 {
		logger.Warn("no encoding variants offered")
		result.Status = StatusNoQualities
		return result, nil
	}

	chosen, ok := quality.Select(variants, o.opts.Quality)
	if !ok || chosen.VideoURL == "" {
		logger.Warn("selected variant has no usable URL",
			logging.String("quality", chosen.Name))
		result.Status = StatusNoQualityURL
		return result, nil
	}
	logger.Info("quality selected",
		logging.String("quality", chosen.Name),
		logging.String("resolution", chosen.Resolution))

	o.warnNearExpiry(logger, chosen.VideoURL)

	dir := naming.TargetDir(info, o.opts.OutputDir, o.opts.SeriesDirs)
	stem := naming.Stem(info, chosen.Name, o.opts.Template)
	videoPath := filepath.Join(dir, stem+"."+naming.Extension(chosen.VideoURL))
	result.OutputPath = videoPath

	if o.opts.DryRun {
		logger.Info("dry run; would download", logging.String("path", videoPath))
		result.Status = StatusPlanned
		return result, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return result, services.Wrap(services.ErrConfiguration, "download", "create output dir", dir, err)
	}

	policy := streamPolicy{
		retries:      o.opts.StreamRetries,
		backoff:      o.streamBackoff,
		skipExisting: o.opts.SkipExisting,
		overwrite:    o.opts.Overwrite,
	}
	if err := o.streamToFile(ctx, logger, chosen.VideoURL, videoPath, policy); err != nil {
		return result, err
	}

	subtitlePaths, err := o.fetchSubtitles(ctx, logger, id, dir, stem, policy)
	if err != nil {
		return result, err
	}

	o.postProcess(ctx, logger, videoPath, subtitlePaths)

	result.Status = StatusOK
	return result, nil
}

func (o *Orchestrator) warnNearExpiry(logger *slog.Logger, mediaURL string) {
	expiry, ok := LinkExpiry(mediaURL)
	if !ok {
		return
	}
	remaining := time.Until(expiry)
	if remaining < o.opts.ExpiryWarn {
		logger.Warn("media link close to expiry",
			logging.Duration("remaining", remaining),
			logging.String("expires", expiry.Format(time.RFC3339)))
	}
}

// fetchSubtitles filters the catalog's tracks by the configured language set
// and format preference, then streams each survivor next to the video as
// "<stem>.<lang>.<format>". Returns the written paths in track order.
func (o *Orchestrator) fetchSubtitles(ctx context.Context, logger *slog.Logger, id, dir, stem string, policy streamPolicy) ([]string, error) {
	if len(o.opts.SubtitleLanguages) == 0 {
		return nil, nil
	}

	tracks, err := o.client.Subtitles(ctx, id)
	if err != nil {
		return nil, err
	}
	selected := filterSubtitles(tracks, o.opts.SubtitleLanguages, o.opts.SubtitleFormat)
	if len(selected) == 0 {
		logger.Debug("no subtitle tracks match the requested languages")
		return nil, nil
	}

	paths := make([]string, 0, len(selected))
	for _, track := range selected {
		code := language.Normalize(track.Language)
		if code == "" {
			code = track.Language
		}
		format := track.Format
		if format == "" {
			format = "srt"
		}
		dst := filepath.Join(dir, fmt.Sprintf("%s.%s.%s", stem, code, format))
		if err := o.streamToFile(ctx, logger, track.URL, dst, policy); err != nil {
			return nil, err
		}
		paths = append(paths, dst)
	}
	logger.Info("subtitles downloaded", logging.Int("tracks", len(paths)))
	return paths, nil
}

// filterSubtitles keeps tracks whose language matches the requested set,
// grouped per language: with format "both" every matching format survives,
// otherwise the preferred format wins and the first track is the fallback.
func filterSubtitles(tracks []catalog.SubtitleTrack, languages []string, format string) []catalog.SubtitleTrack {
	var selected []catalog.SubtitleTrack
	for _, want := range languages {
		var matching []catalog.SubtitleTrack
		for _, track := range tracks {
			if language.Matches(track.Language, want) {
				matching = append(matching, track)
			}
		}
		if len(matching) == 0 {
			continue
		}
		if format == "both" {
			selected = append(selected, matching...)
			continue
		}
		pick := matching[0]
		for _, track := range matching {
			if track.Format == format {
				pick = track
				break
			}
		}
		selected = append(selected, pick)
	}
	return selected
}

// postProcess runs the configured ffmpeg step. Failures are logged and never
// change the job outcome; the downloaded inputs are already in place.
func (o *Orchestrator) postProcess(ctx context.Context, logger *slog.Logger, videoPath string, subtitlePaths []string) {
	if o.processor == nil || o.opts.PostProcess == "" || o.opts.PostProcess == "none" {
		return
	}
	if len(subtitlePaths) == 0 {
		logger.Debug("post-processing skipped; no subtitle tracks")
		return
	}

	var (
		out string
		err error
	)
	switch o.opts.PostProcess {
	case "mux":
		out, err = o.processor.Mux(ctx, videoPath, subtitlePaths)
	case "burn":
		out, err = o.processor.Burn(ctx, videoPath, subtitlePaths)
	default:
		logger.Warn("unknown post-process mode", logging.String("mode", o.opts.PostProcess))
		return
	}
	if err != nil {
		logger.Error("post-processing failed", logging.Error(err))
		return
	}
	if !fileutil.Exists(out) {
		logger.Warn("post-processing reported success but produced no output",
			logging.String("path", out))
		return
	}
	logger.Info("post-processing complete", logging.String("path", out))
}
