package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"showgrab/internal/logging"
	"showgrab/internal/services"
)

const userAgent = "showgrab/1.0"

// Client provides typed access to the catalog endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New constructs a catalog client. The timeout applies per request.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger(logger, "catalog"),
	}
}

type titleInfoResponse struct {
	ID      flexString `json:"id"`
	EnTitle string     `json:"en_title"`
	ArTitle string     `json:"ar_title"`
	Title   string     `json:"title"`
	Kind    string     `json:"kind"`
	Season  flexInt    `json:"season"`
	Episode flexInt    `json:"episode"`
}

// TitleInfo fetches the catalog record for one identifier.
func (c *Client) TitleInfo(ctx context.Context, id string) (TitleInfo, error) {
	var resp titleInfoResponse
	if err := c.getJSON(ctx, c.baseURL+"/video/"+url.PathEscape(id), &resp); err != nil {
		return TitleInfo{}, fmt.Errorf("fetch title info for %s: %w", id, err)
	}
	info := TitleInfo{
		ID:      string(resp.ID),
		EnTitle: strings.TrimSpace(resp.EnTitle),
		ArTitle: strings.TrimSpace(resp.ArTitle),
		Title:   strings.TrimSpace(resp.Title),
		Kind:    ParseKind(resp.Kind),
		Season:  int(resp.Season),
		Episode: int(resp.Episode),
	}
	if info.ID == "" {
		info.ID = id
	}
	return info, nil
}

type qualityResponse struct {
	Name       string `json:"name"`
	Resolution string `json:"resolution"`
	URL        string `json:"url"`
}

// Qualities fetches the encoding variants offered for an identifier. An
// empty list is not an error; the caller decides how to react.
func (c *Client) Qualities(ctx context.Context, id string) ([]QualityVariant, error) {
	var resp []qualityResponse
	if err := c.getJSON(ctx, c.baseURL+"/qualities/"+url.PathEscape(id), &resp); err != nil {
		return nil, fmt.Errorf("fetch qualities for %s: %w", id, err)
	}
	variants := make([]QualityVariant, 0, len(resp))
	for _, q := range resp {
		variants = append(variants, QualityVariant{
			Name:       strings.TrimSpace(q.Name),
			Resolution: strings.TrimSpace(q.Resolution),
			VideoURL:   strings.TrimSpace(q.URL),
		})
	}
	return variants, nil
}

type subtitlesResponse struct {
	Translations []struct {
		URL       string `json:"url"`
		Language  string `json:"language"`
		Extension string `json:"extension"`
	} `json:"translations"`
}

// Subtitles fetches the subtitle tracks for an identifier. The catalog's
// loading placeholders are filtered out here so no caller ever sees them.
func (c *Client) Subtitles(ctx context.Context, id string) ([]SubtitleTrack, error) {
	var resp subtitlesResponse
	if err := c.getJSON(ctx, c.baseURL+"/subtitles/"+url.PathEscape(id), &resp); err != nil {
		return nil, fmt.Errorf("fetch subtitles for %s: %w", id, err)
	}
	tracks := make([]SubtitleTrack, 0, len(resp.Translations))
	for _, t := range resp.Translations {
		track := SubtitleTrack{
			URL:      strings.TrimSpace(t.URL),
			Language: strings.TrimSpace(t.Language),
			Format:   strings.ToLower(strings.TrimSpace(t.Extension)),
		}
		if track.URL == "" || track.IsPlaceholder() {
			continue
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

type seasonItemResponse struct {
	ID      flexString `json:"id"`
	Kind    string     `json:"kind"`
	Season  flexInt    `json:"season"`
	Episode flexInt    `json:"episode"`
}

// SeasonListing fetches the sibling episodes the catalog reports for an
// identifier. This is the preferred discovery source.
func (c *Client) SeasonListing(ctx context.Context, id string) ([]SeasonItem, error) {
	var resp []seasonItemResponse
	if err := c.getJSON(ctx, c.baseURL+"/season/"+url.PathEscape(id), &resp); err != nil {
		return nil, fmt.Errorf("fetch season listing for %s: %w", id, err)
	}
	items := make([]SeasonItem, 0, len(resp))
	for _, item := range resp {
		if string(item.ID) == "" {
			continue
		}
		items = append(items, SeasonItem{
			ID:      string(item.ID),
			Kind:    ParseKind(item.Kind),
			Season:  int(item.Season),
			Episode: int(item.Episode),
		})
	}
	return items, nil
}

// EpisodeListing invokes the externally configured episode endpoint template.
// The response shape is heterogeneous (bare identifiers or objects with
// varying keys), so raw messages are returned for boundary normalization.
func (c *Client) EpisodeListing(ctx context.Context, endpoint, seriesID string, season *int) ([]json.RawMessage, error) {
	target := strings.ReplaceAll(endpoint, "{id}", url.PathEscape(seriesID))
	if strings.Contains(target, "{season}") {
		value := ""
		if season != nil {
			value = strconv.Itoa(*season)
		}
		target = strings.ReplaceAll(target, "{season}", value)
	}
	var resp []json.RawMessage
	if err := c.getJSON(ctx, target, &resp); err != nil {
		return nil, fmt.Errorf("fetch episode listing for %s: %w", seriesID, err)
	}
	return resp, nil
}

type groupListingResponse struct {
	Groups []struct {
		Name  string `json:"name"`
		Items []struct {
			ID      flexString `json:"id"`
			Series  flexString `json:"series"`
			Kind    string     `json:"kind"`
			Season  flexInt    `json:"season"`
			Episode flexInt    `json:"episode"`
		} `json:"items"`
	} `json:"groups"`
}

// GroupListing fetches one page of the site-wide group index for a
// (language, level) pair. This is the crawl source of last resort.
func (c *Client) GroupListing(ctx context.Context, lang string, level int) ([]Group, error) {
	target := fmt.Sprintf("%s/groups?lang=%s&level=%d", c.baseURL, url.QueryEscape(lang), level)
	var resp groupListingResponse
	if err := c.getJSON(ctx, target, &resp); err != nil {
		return nil, fmt.Errorf("fetch group listing lang=%s level=%d: %w", lang, level, err)
	}
	groups := make([]Group, 0, len(resp.Groups))
	for _, g := range resp.Groups {
		group := Group{Name: g.Name}
		for _, item := range g.Items {
			if string(item.ID) == "" {
				continue
			}
			group.Items = append(group.Items, GroupItem{
				ID:       string(item.ID),
				SeriesID: string(item.Series),
				Kind:     ParseKind(item.Kind),
				Season:   int(item.Season),
				Episode:  int(item.Episode),
			})
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// Stream opens the response body for an opaque media URL. The caller owns
// the returned ReadCloser. ContentLength is -1 when the server does not
// declare a size.
func (c *Client) Stream(ctx context.Context, mediaURL string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrTransient, "catalog", "open stream", "", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, 0, services.Wrap(services.ErrTransient, "catalog", "open stream",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	return resp.Body, resp.ContentLength, nil
}

func (c *Client) getJSON(ctx context.Context, target string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "catalog", "request", "", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("catalog request",
		logging.String("url", target),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "catalog", "request",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return services.Wrap(services.ErrTransient, "catalog", "request",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return services.Wrap(services.ErrTransient, "catalog", "read body", "", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode response from %s: %w", target, err)
	}
	return nil
}
