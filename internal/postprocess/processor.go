package postprocess

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	langpkg "showgrab/internal/language"
	"showgrab/internal/logging"
	"showgrab/internal/services"
)

const ffmpegCommand = "ffmpeg"

// maxMuxTracks bounds how many subtitle files a single mux maps.
const maxMuxTracks = 4

// commandRunner executes an external command, returning an error for any
// non-zero exit.
type commandRunner func(ctx context.Context, name string, args ...string) error

// Processor wraps the external muxing tool.
type Processor struct {
	logger *slog.Logger
	run    commandRunner
}

// New constructs a Processor.
func New(logger *slog.Logger) *Processor {
	return &Processor{
		logger: logging.NewComponentLogger(logger, "postprocess"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner injects a custom command runner for tests.
func (p *Processor) WithCommandRunner(r commandRunner) {
	if p != nil && r != nil {
		p.run = r
	}
}

// Mux remuxes the video with the given subtitle files into a new multi-track
// sibling MKV without re-encoding. Subtitle inputs beyond the track limit
// are tolerated and simply not mapped. Returns the output path.
func (p *Processor) Mux(ctx context.Context, videoPath string, subtitlePaths []string) (string, error) {
	if strings.TrimSpace(videoPath) == "" {
		return "", fmt.Errorf("video path is required")
	}
	if len(subtitlePaths) == 0 {
		return "", fmt.Errorf("at least one subtitle path is required")
	}
	if len(subtitlePaths) > maxMuxTracks {
		subtitlePaths = subtitlePaths[:maxMuxTracks]
	}

	outputPath := siblingPath(videoPath, ".muxed.mkv")
	args := buildMuxArgs(videoPath, subtitlePaths, outputPath)

	p.logger.Debug("executing ffmpeg mux",
		logging.String("video", videoPath),
		logging.Int("subtitle_count", len(subtitlePaths)),
		logging.String("output", outputPath))

	if err := p.run(ctx, ffmpegCommand, args...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "postprocess", "mux", "", err)
	}

	p.logger.Info("subtitles muxed",
		logging.String("output", outputPath),
		logging.Int("tracks_added", len(subtitlePaths)))
	return outputPath, nil
}

// Burn re-encodes the video with the first subtitle hard-rendered into the
// picture; audio passes through unmodified. Returns the output path.
func (p *Processor) Burn(ctx context.Context, videoPath string, subtitlePaths []string) (string, error) {
	if strings.TrimSpace(videoPath) == "" {
		return "", fmt.Errorf("video path is required")
	}
	if len(subtitlePaths) == 0 {
		return "", fmt.Errorf("at least one subtitle path is required")
	}

	subtitle := subtitlePaths[0]
	ext := filepath.Ext(videoPath)
	if ext == "" {
		ext = ".mp4"
	}
	outputPath := siblingPath(videoPath, ".burned"+ext)

	args := []string{
		"-y",
		"-i", videoPath,
		"-vf", "subtitles=" + escapeFilterPath(subtitle),
		"-c:a", "copy",
		outputPath,
	}

	p.logger.Debug("executing ffmpeg burn",
		logging.String("video", videoPath),
		logging.String("subtitle", subtitle),
		logging.String("output", outputPath))

	if err := p.run(ctx, ffmpegCommand, args...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "postprocess", "burn", "", err)
	}

	p.logger.Info("subtitle burned in", logging.String("output", outputPath))
	return outputPath, nil
}

func buildMuxArgs(videoPath string, subtitlePaths []string, outputPath string) []string {
	args := []string{"-y", "-i", videoPath}
	for _, sub := range subtitlePaths {
		args = append(args, "-i", sub)
	}
	args = append(args, "-map", "0")
	for i := range subtitlePaths {
		args = append(args, "-map", fmt.Sprintf("%d", i+1))
	}
	args = append(args, "-c", "copy", "-c:s", "srt")
	for i, sub := range subtitlePaths {
		lang := languageFromPath(sub)
		if lang == "" {
			continue
		}
		args = append(args,
			fmt.Sprintf("-metadata:s:s:%d", i), "language="+lang,
			fmt.Sprintf("-metadata:s:s:%d", i), "title="+langpkg.DisplayName(lang),
		)
	}
	return append(args, outputPath)
}

// languageFromPath extracts the language tag from the "<stem>.<lang>.<fmt>"
// names the downloader writes. Unknown shapes yield an empty tag.
func languageFromPath(path string) string {
	base := filepath.Base(path)
	parts := strings.Split(base, ".")
	if len(parts) < 3 {
		return ""
	}
	return langpkg.Normalize(parts[len(parts)-2])
}

func siblingPath(videoPath, suffix string) string {
	ext := filepath.Ext(videoPath)
	return strings.TrimSuffix(videoPath, ext) + suffix
}

// escapeFilterPath quotes characters the ffmpeg filter grammar treats
// specially in file names.
func escapeFilterPath(path string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`[`, `\[`,
		`]`, `\]`,
	)
	return replacer.Replace(path)
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
