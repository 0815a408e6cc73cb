// Package language normalizes the language tags attached to subtitle tracks.
//
// Catalog responses mix two-letter codes, three-letter codes, and full words
// ("ar", "ara", "Arabic"). All conversions are consolidated here so the
// download filter and the post-processor agree on what a language means.
package language
