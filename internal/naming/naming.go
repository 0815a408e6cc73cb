package naming

import (
	"fmt"
	"path/filepath"
	"strings"

	"showgrab/internal/catalog"
	"showgrab/internal/textutil"
)

// fallbackTitle is used when the catalog reports no usable title at all.
const fallbackTitle = "untitled"

// knownContainers are matched as substrings against the video URL, in order.
var knownContainers = []string{"mp4", "mkv", "webm", "avi", "mov"}

// defaultContainer is the extension used when no known container matches.
const defaultContainer = "mp4"

// BaseTitle picks the display title by fixed language priority and sanitizes
// it for filesystem use.
func BaseTitle(info catalog.TitleInfo) string {
	for _, candidate := range []string{info.EnTitle, info.ArTitle, info.Title} {
		if sanitized := textutil.SanitizeFileName(textutil.CollapseSpaces(candidate)); sanitized != "" {
			return sanitized
		}
	}
	return fallbackTitle
}

// EpisodeTag renders the zero-padded SxxEyy tag for series episodes, or an
// empty string when the item is not a positioned episode.
func EpisodeTag(info catalog.TitleInfo) string {
	if !info.IsEpisode() {
		return ""
	}
	return fmt.Sprintf("S%02dE%02d", info.Season, info.Episode)
}

// Stem derives the output filename stem from catalog metadata, the chosen
// quality label, and the user template. Substitution is literal; placeholders
// are not expanded recursively, and missing season/episode values render as
// empty strings.
func Stem(info catalog.TitleInfo, qualityName, template string) string {
	title := BaseTitle(info)
	if tag := EpisodeTag(info); tag != "" {
		title += " " + tag
	}

	season, episode := "", ""
	if info.IsEpisode() {
		season = fmt.Sprintf("%02d", info.Season)
		episode = fmt.Sprintf("%02d", info.Episode)
	}

	replacer := strings.NewReplacer(
		"{title}", title,
		"{quality}", qualityName,
		"{season}", season,
		"{episode}", episode,
	)
	stem := strings.TrimSpace(replacer.Replace(template))
	if stem == "" {
		return title
	}
	return stem
}

// Extension infers the container extension (without dot) from a video URL by
// substring match against the known container list.
func Extension(videoURL string) string {
	lowered := strings.ToLower(videoURL)
	for _, container := range knownContainers {
		if strings.Contains(lowered, container) {
			return container
		}
	}
	return defaultContainer
}

// TargetDir computes the directory a job writes into: the flat output root,
// or "Show/Sxx" nesting when series-structured layout is requested and the
// item is a positioned episode.
func TargetDir(info catalog.TitleInfo, outputRoot string, seriesDirs bool) string {
	if !seriesDirs || !info.IsEpisode() {
		return outputRoot
	}
	show := BaseTitle(info)
	return filepath.Join(outputRoot, show, fmt.Sprintf("S%02d", info.Season))
}
