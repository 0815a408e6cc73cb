package textutil

import "strings"

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a path segment.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing
// whitespace and dots so it can never escape its directory or hide itself.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = strings.TrimSpace(fileNameReplacer.Replace(name))
	return strings.Trim(name, ".")
}

// CollapseSpaces folds runs of whitespace into single spaces.
func CollapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
