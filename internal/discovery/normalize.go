package discovery

import (
	"encoding/json"
	"strings"
)

// EpisodeRef is the unit produced by discovery. Only ID is required
// downstream; Season and Episode are zero when the source did not report a
// position.
type EpisodeRef struct {
	ID      string
	Season  int
	Episode int
	RootID  string
}

// episodeObject covers the object shapes the external episode endpoint
// emits. "id" takes precedence over "nb" when both are present.
type episodeObject struct {
	ID      json.Number `json:"id"`
	Nb      json.Number `json:"nb"`
	Season  int         `json:"season"`
	Episode int         `json:"episode"`
}

// normalizeEpisodeItems converts the heterogeneous episode-listing payload
// into EpisodeRefs, deduplicating by identifier while preserving first-seen
// order. All format heterogeneity is isolated here: items may be bare
// numbers, bare strings, or objects exposing "id" or "nb".
func normalizeEpisodeItems(raw []json.RawMessage, rootID string) []EpisodeRef {
	refs := make([]EpisodeRef, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	appendRef := func(ref EpisodeRef) {
		if ref.ID == "" {
			return
		}
		if _, dup := seen[ref.ID]; dup {
			return
		}
		seen[ref.ID] = struct{}{}
		ref.RootID = rootID
		refs = append(refs, ref)
	}

	for _, item := range raw {
		trimmed := strings.TrimSpace(string(item))
		if trimmed == "" || trimmed == "null" {
			continue
		}
		switch trimmed[0] {
		case '{':
			var obj episodeObject
			if err := json.Unmarshal(item, &obj); err != nil {
				continue
			}
			id := strings.TrimSpace(obj.ID.String())
			if id == "" {
				id = strings.TrimSpace(obj.Nb.String())
			}
			appendRef(EpisodeRef{ID: id, Season: obj.Season, Episode: obj.Episode})
		case '"':
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				continue
			}
			appendRef(EpisodeRef{ID: strings.TrimSpace(s)})
		default:
			var n json.Number
			if err := json.Unmarshal(item, &n); err != nil {
				continue
			}
			appendRef(EpisodeRef{ID: n.String()})
		}
	}
	return refs
}
