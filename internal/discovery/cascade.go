package discovery

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"showgrab/internal/catalog"
	"showgrab/internal/logging"
)

// Options configures a Cascade.
type Options struct {
	// EpisodesEndpoint enables strategy B when non-empty. See
	// config.Catalog.EpisodesEndpoint for the template contract.
	EpisodesEndpoint string
	// CrawlLanguages and CrawlLevels define the (language, level) pairs
	// strategy C scans.
	CrawlLanguages []string
	CrawlLevels    []int
}

// Cascade resolves root identifiers into ordered episode identifier lists.
type Cascade struct {
	client *catalog.Client
	cache  Cache
	opts   Options
	logger *slog.Logger
}

// crawlFailure records one failed (language, level) query of the best-effort
// crawl. Failures never abort the collection.
type crawlFailure struct {
	Lang  string
	Level int
	Err   error
}

// New constructs a cascade. A nil cache disables caching entirely.
func New(client *catalog.Client, cache Cache, opts Options, logger *slog.Logger) *Cascade {
	return &Cascade{
		client: client,
		cache:  cache,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "discovery"),
	}
}

// Resolve produces the ordered, deduplicated episode list for one root
// identifier. seasonFilter, when non-nil, restricts results to one season.
// bypassCache skips the cache read but the result is still persisted.
//
// Resolve only fails on context cancellation; an unreachable catalog yields
// an empty list so sibling roots keep processing.
func (c *Cascade) Resolve(ctx context.Context, rootID string, seasonFilter *int, bypassCache bool) ([]EpisodeRef, error) {
	logger := c.logger.With(logging.String(logging.FieldRootID, rootID))

	if c.cache != nil && !bypassCache {
		if entry, ok := c.cache.Get(rootID); ok && len(entry.EpisodeIDs) > 0 {
			logger.Debug("discovery cache hit",
				logging.Int("episode_count", len(entry.EpisodeIDs)))
			refs := make([]EpisodeRef, 0, len(entry.EpisodeIDs))
			for _, id := range entry.EpisodeIDs {
				refs = append(refs, EpisodeRef{ID: id, RootID: rootID})
			}
			return refs, nil
		}
	}

	refs := c.resolveUncached(ctx, logger, rootID, seasonFilter)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(refs) == 0 {
		logger.Warn("no episodes discovered for root identifier; all strategies exhausted")
	}

	if c.cache != nil {
		ids := make([]string, 0, len(refs))
		for _, ref := range refs {
			ids = append(ids, ref.ID)
		}
		entry := CacheEntry{RootID: rootID, UpdatedAt: time.Now().UTC(), EpisodeIDs: ids}
		if err := c.cache.Put(entry); err != nil {
			logger.Warn("failed to persist discovery cache entry", logging.Error(err))
		}
	}

	return refs, nil
}

func (c *Cascade) resolveUncached(ctx context.Context, logger *slog.Logger, rootID string, seasonFilter *int) []EpisodeRef {
	if refs := c.fromSeasonListing(ctx, logger, rootID, seasonFilter); len(refs) > 0 {
		logger.Info("episodes discovered via season listing",
			logging.String(logging.FieldStrategy, "season-listing"),
			logging.Int("episode_count", len(refs)))
		return refs
	}

	if c.opts.EpisodesEndpoint != "" {
		if refs := c.fromEpisodeEndpoint(ctx, logger, rootID, seasonFilter); len(refs) > 0 {
			logger.Info("episodes discovered via configured endpoint",
				logging.String(logging.FieldStrategy, "episode-endpoint"),
				logging.Int("episode_count", len(refs)))
			return refs
		}
	}

	refs, failures := c.crawl(ctx, rootID, seasonFilter)
	for _, failure := range failures {
		logger.Warn("group-listing crawl query failed; continuing",
			logging.String("lang", failure.Lang),
			logging.Int("level", failure.Level),
			logging.Error(failure.Err))
	}
	if len(refs) > 0 {
		logger.Info("episodes discovered via group-listing crawl",
			logging.String(logging.FieldStrategy, "crawl"),
			logging.Int("episode_count", len(refs)))
	}
	return refs
}

// fromSeasonListing implements strategy A: the season-listing endpoint,
// filtered to series items and the requested season.
func (c *Cascade) fromSeasonListing(ctx context.Context, logger *slog.Logger, rootID string, seasonFilter *int) []EpisodeRef {
	items, err := c.client.SeasonListing(ctx, rootID)
	if err != nil {
		logger.Debug("season listing unavailable",
			logging.String(logging.FieldStrategy, "season-listing"),
			logging.Error(err))
		return nil
	}

	refs := make([]EpisodeRef, 0, len(items))
	for _, item := range items {
		if item.Kind != catalog.KindSeries {
			continue
		}
		if seasonFilter != nil && item.Season != *seasonFilter {
			continue
		}
		refs = append(refs, EpisodeRef{
			ID:      item.ID,
			Season:  item.Season,
			Episode: item.Episode,
			RootID:  rootID,
		})
	}
	return sortAndDedupe(refs)
}

// fromEpisodeEndpoint implements strategy B: the externally configured
// episode-listing endpoint with its heterogeneous response shape.
func (c *Cascade) fromEpisodeEndpoint(ctx context.Context, logger *slog.Logger, rootID string, seasonFilter *int) []EpisodeRef {
	raw, err := c.client.EpisodeListing(ctx, c.opts.EpisodesEndpoint, rootID, seasonFilter)
	if err != nil {
		logger.Debug("episode endpoint unavailable",
			logging.String(logging.FieldStrategy, "episode-endpoint"),
			logging.Error(err))
		return nil
	}
	return sortAndDedupe(normalizeEpisodeItems(raw, rootID))
}

// crawl implements strategy C: a best-effort scan of the group listing
// across every configured (language, level) pair. Single-query failures are
// collected, not fatal.
func (c *Cascade) crawl(ctx context.Context, rootID string, seasonFilter *int) ([]EpisodeRef, []crawlFailure) {
	var failures []crawlFailure
	found := make(map[string]EpisodeRef)

	for _, lang := range c.opts.CrawlLanguages {
		for _, level := range c.opts.CrawlLevels {
			if ctx.Err() != nil {
				return nil, failures
			}
			groups, err := c.client.GroupListing(ctx, lang, level)
			if err != nil {
				failures = append(failures, crawlFailure{Lang: lang, Level: level, Err: err})
				continue
			}
			for _, group := range groups {
				for _, item := range group.Items {
					if item.Kind != catalog.KindSeries || item.SeriesID != rootID {
						continue
					}
					if seasonFilter != nil && item.Season != *seasonFilter {
						continue
					}
					found[item.ID] = EpisodeRef{
						ID:      item.ID,
						Season:  item.Season,
						Episode: item.Episode,
						RootID:  rootID,
					}
				}
			}
		}
	}

	refs := make([]EpisodeRef, 0, len(found))
	for _, ref := range found {
		refs = append(refs, ref)
	}
	return sortAndDedupe(refs), failures
}

// sortAndDedupe enforces the ordering invariant: ascending by
// (season, episode) with no duplicate identifiers, first occurrence kept.
func sortAndDedupe(refs []EpisodeRef) []EpisodeRef {
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].Season != refs[j].Season {
			return refs[i].Season < refs[j].Season
		}
		return refs[i].Episode < refs[j].Episode
	})

	seen := make(map[string]struct{}, len(refs))
	out := refs[:0]
	for _, ref := range refs {
		if _, dup := seen[ref.ID]; dup {
			continue
		}
		seen[ref.ID] = struct{}{}
		out = append(out, ref)
	}
	return out
}
