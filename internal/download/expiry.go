package download

import (
	"net/url"
	"strconv"
	"time"
)

// LinkExpiry extracts the expiry timestamp a media URL embeds as its
// "Expires" query parameter (unix seconds). The second return is false when
// the URL carries no parseable expiry.
//
// Expiry is advisory: the orchestrator warns when little time remains but
// never refreshes the link proactively; a stream that outlives its link
// fails and is handled by the ordinary retry policy.
func LinkExpiry(mediaURL string) (time.Time, bool) {
	parsed, err := url.Parse(mediaURL)
	if err != nil {
		return time.Time{}, false
	}
	query := parsed.Query()
	raw := query.Get("Expires")
	if raw == "" {
		raw = query.Get("expires")
	}
	if raw == "" {
		return time.Time{}, false
	}
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds <= 0 {
		return time.Time{}, false
	}
	return time.Unix(seconds, 0), true
}
