package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"showgrab/internal/services"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, nil)
}

func TestTitleInfoDecodesFlexibleFields(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/video/25006" {
			http.NotFound(w, r)
			return
		}
		// id arrives numeric, season as a string; both must normalize.
		w.Write([]byte(`{"id":25006,"en_title":"Sample","ar_title":"","kind":"serie","season":"1","episode":3}`))
	}))

	info, err := client.TitleInfo(context.Background(), "25006")
	if err != nil {
		t.Fatalf("TitleInfo failed: %v", err)
	}
	if info.ID != "25006" || info.EnTitle != "Sample" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.Kind != KindSeries || info.Season != 1 || info.Episode != 3 {
		t.Fatalf("unexpected kind/position: %+v", info)
	}
	if !info.IsEpisode() {
		t.Fatal("expected IsEpisode")
	}
}

func TestTitleInfoNotFound(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())

	_, err := client.TitleInfo(context.Background(), "404")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found marker, got %v", err)
	}
}

func TestQualitiesEmptyListIsNotAnError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	variants, err := client.Qualities(context.Background(), "1")
	if err != nil {
		t.Fatalf("Qualities failed: %v", err)
	}
	if len(variants) != 0 {
		t.Fatalf("expected empty list, got %v", variants)
	}
}

func TestSubtitlesFiltersPlaceholders(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"translations":[
			{"url":"https://cdn.example/subs/ep1.ar.srt","language":"ar","extension":"SRT"},
			{"url":"https://cdn.example/subs/loading.srt","language":"en","extension":"srt"},
			{"url":"","language":"fr","extension":"srt"}
		]}`))
	}))

	tracks, err := client.Subtitles(context.Background(), "1")
	if err != nil {
		t.Fatalf("Subtitles failed: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("expected single real track, got %v", tracks)
	}
	if tracks[0].Language != "ar" || tracks[0].Format != "srt" {
		t.Fatalf("unexpected track: %+v", tracks[0])
	}
}

func TestSeasonListingSkipsItemsWithoutID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":101,"kind":"series","season":1,"episode":1},
			{"kind":"series","season":1,"episode":2},
			{"id":"102","kind":"series","season":1,"episode":2}
		]`))
	}))

	items, err := client.SeasonListing(context.Background(), "3293")
	if err != nil {
		t.Fatalf("SeasonListing failed: %v", err)
	}
	if len(items) != 2 || items[0].ID != "101" || items[1].ID != "102" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestEpisodeListingSubstitutesTemplate(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[1,2,3]`))
	}))
	t.Cleanup(srv.Close)

	client := New(srv.URL, 5*time.Second, nil)
	season := 2
	raw, err := client.EpisodeListing(context.Background(), srv.URL+"/episodes/{id}?season={season}", "3293", &season)
	if err != nil {
		t.Fatalf("EpisodeListing failed: %v", err)
	}
	if len(raw) != 3 {
		t.Fatalf("expected 3 raw items, got %d", len(raw))
	}
	if gotPath != "/episodes/3293" || gotQuery != "season=2" {
		t.Fatalf("unexpected request: %s?%s", gotPath, gotQuery)
	}
}

func TestGroupListingDecodesNestedItems(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lang") != "ar" || r.URL.Query().Get("level") != "0" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"groups":[{"name":"g1","items":[
			{"id":7,"series":3293,"kind":"series","season":1,"episode":1}
		]}]}`))
	}))

	groups, err := client.GroupListing(context.Background(), "ar", 0)
	if err != nil {
		t.Fatalf("GroupListing failed: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Items) != 1 {
		t.Fatalf("unexpected groups: %+v", groups)
	}
	item := groups[0].Items[0]
	if item.ID != "7" || item.SeriesID != "3293" || item.Kind != KindSeries {
		t.Fatalf("unexpected item: %+v", item)
	}
}

func TestStreamRejectsNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	client := New(srv.URL, 5*time.Second, nil)
	_, _, err := client.Stream(context.Background(), srv.URL+"/v.mp4")
	if !services.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}
