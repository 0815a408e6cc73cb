package catalog

import (
	"bytes"
	"encoding/json"
	"path"
	"strconv"
	"strings"
)

// Kind distinguishes standalone movies from series episodes.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindSeries  Kind = "series"
	KindUnknown Kind = ""
)

// ParseKind normalizes the kind strings the catalog emits.
func ParseKind(raw string) Kind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "movie", "film":
		return KindMovie
	case "series", "serie", "episode", "tv":
		return KindSeries
	default:
		return KindUnknown
	}
}

// TitleInfo is the immutable catalog record for one identifier.
type TitleInfo struct {
	ID      string
	EnTitle string
	ArTitle string
	Title   string
	Kind    Kind
	Season  int // 0 when the catalog reports none
	Episode int // 0 when the catalog reports none
}

// IsEpisode reports whether this record names a series episode with a full
// season/episode position.
func (t TitleInfo) IsEpisode() bool {
	return t.Kind == KindSeries && t.Season > 0 && t.Episode > 0
}

// QualityVariant is one offered encoding for an identifier. VideoURL embeds
// a time-limited expiry as a query parameter and must be treated as opaque.
type QualityVariant struct {
	Name       string
	Resolution string
	VideoURL   string
}

// SubtitleTrack is one subtitle offering; multiple tracks may share a
// language in different formats.
type SubtitleTrack struct {
	URL      string
	Language string
	Format   string
}

// IsPlaceholder reports whether the track is the catalog's not-yet-translated
// placeholder, which must be filtered out rather than downloaded.
func (s SubtitleTrack) IsPlaceholder() bool {
	base := path.Base(strings.TrimSpace(s.URL))
	return strings.HasPrefix(strings.ToLower(base), "loading.")
}

// SeasonItem is one row of the season-listing endpoint.
type SeasonItem struct {
	ID      string
	Kind    Kind
	Season  int
	Episode int
}

// GroupItem is one nested content row of the group-listing endpoint.
type GroupItem struct {
	ID       string
	SeriesID string
	Kind     Kind
	Season   int
	Episode  int
}

// Group is one entry of the group-listing endpoint.
type Group struct {
	Name  string
	Items []GroupItem
}

// flexString accepts JSON strings and numbers, normalizing both to a string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// Malformed scalar; treat as missing per the boundary contract.
		*f = ""
		return nil
	}
	*f = flexString(n.String())
	return nil
}

// flexInt accepts JSON numbers and numeric strings; anything else is zero.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*f = 0
			return nil
		}
		raw = s
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(value)
	return nil
}
