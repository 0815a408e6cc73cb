// Package naming derives deterministic output paths from catalog metadata.
//
// A filename stem is built from the localized title, an SxxEyy tag for series
// episodes, and a user template with {title} {quality} {season} {episode}
// placeholders. The container extension is inferred from the chosen video URL.
package naming
