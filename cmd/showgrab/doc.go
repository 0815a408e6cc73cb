// Command showgrab resolves catalog identifiers into episode sets and
// downloads the preferred encoding plus subtitles with bounded concurrency.
package main
