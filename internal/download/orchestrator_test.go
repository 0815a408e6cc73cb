package download

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"showgrab/internal/catalog"
	"showgrab/internal/logging"
)

// fakeCatalog serves the endpoints one orchestrator run touches. Media
// bodies are served under /media/; hooks allow per-test failure injection.
type fakeCatalog struct {
	mu        sync.Mutex
	titles    map[string]map[string]any
	qualities map[string][]map[string]string
	subtitles map[string][]map[string]string

	streamHook  func(w http.ResponseWriter, r *http.Request) bool
	streamCalls atomic.Int64

	server *httptest.Server
}

func newFakeCatalog(t *testing.T) *fakeCatalog {
	t.Helper()
	f := &fakeCatalog{
		titles:    map[string]map[string]any{},
		qualities: map[string][]map[string]string{},
		subtitles: map[string][]map[string]string{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/video/", func(w http.ResponseWriter, r *http.Request) {
		f.serveJSON(w, f.lookupTitle(strings.TrimPrefix(r.URL.Path, "/video/")))
	})
	mux.HandleFunc("/qualities/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		payload := f.qualities[strings.TrimPrefix(r.URL.Path, "/qualities/")]
		f.mu.Unlock()
		if payload == nil {
			payload = []map[string]string{}
		}
		f.serveJSON(w, payload)
	})
	mux.HandleFunc("/subtitles/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		tracks := f.subtitles[strings.TrimPrefix(r.URL.Path, "/subtitles/")]
		f.mu.Unlock()
		f.serveJSON(w, map[string]any{"translations": tracks})
	})
	mux.HandleFunc("/media/", func(w http.ResponseWriter, r *http.Request) {
		f.streamCalls.Add(1)
		if f.streamHook != nil && !f.streamHook(w, r) {
			return
		}
		fmt.Fprintf(w, "payload:%s", filepath.Base(r.URL.Path))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeCatalog) lookupTitle(id string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if title, ok := f.titles[id]; ok {
		return title
	}
	return map[string]any{"id": id, "en_title": "Title " + id, "kind": "movie"}
}

func (f *fakeCatalog) serveJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func (f *fakeCatalog) addMovie(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.qualities[id] = []map[string]string{
		{"name": "mp4-1080", "resolution": "1080p", "url": f.server.URL + "/media/" + id + ".mp4"},
	}
}

func (f *fakeCatalog) client() *catalog.Client {
	return catalog.New(f.server.URL, 5*time.Second, logging.NewNop())
}

func newTestOrchestrator(t *testing.T, f *fakeCatalog, opts Options) *Orchestrator {
	t.Helper()
	if opts.OutputDir == "" {
		opts.OutputDir = t.TempDir()
	}
	if opts.Template == "" {
		opts.Template = "{title}"
	}
	o := New(f.client(), nil, opts, logging.NewNop())
	o.streamBackoff = time.Millisecond
	o.jobBackoff = time.Millisecond
	return o
}

func TestRunDownloadsVideoAndSubtitles(t *testing.T) {
	f := newFakeCatalog(t)
	f.addMovie("25006")
	f.subtitles["25006"] = []map[string]string{
		{"url": f.server.URL + "/media/25006.ar.srt", "language": "ar", "extension": "srt"},
		{"url": f.server.URL + "/media/25006.en.srt", "language": "en", "extension": "srt"},
	}

	outDir := t.TempDir()
	o := newTestOrchestrator(t, f, Options{
		OutputDir:         outDir,
		Quality:           "mp4-1080",
		SubtitleLanguages: []string{"ar", "en"},
		SubtitleFormat:    "srt",
	})

	summary := o.Run(context.Background(), []string{"25006"})
	if len(summary.Results) != 1 || summary.Results[0].Status != StatusOK {
		t.Fatalf("unexpected summary: %+v", summary.Results)
	}

	video := filepath.Join(outDir, "Title 25006.mp4")
	data, err := os.ReadFile(video)
	if err != nil {
		t.Fatalf("video not written: %v", err)
	}
	if string(data) != "payload:25006.mp4" {
		t.Fatalf("unexpected video content: %q", data)
	}
	for _, lang := range []string{"ar", "en"} {
		sub := filepath.Join(outDir, "Title 25006."+lang+".srt")
		if _, err := os.Stat(sub); err != nil {
			t.Fatalf("subtitle %s not written: %v", lang, err)
		}
	}
	if summary.Results[0].OutputPath != video {
		t.Fatalf("result path mismatch: %q", summary.Results[0].OutputPath)
	}
}

func TestRunRespectsConcurrencyBound(t *testing.T) {
	f := newFakeCatalog(t)
	var inFlight, peak atomic.Int64
	f.streamHook = func(w http.ResponseWriter, r *http.Request) bool {
		current := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			observed := peak.Load()
			if current <= observed || peak.CompareAndSwap(observed, current) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return true
	}

	ids := make([]string, 6)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i)
		f.addMovie(ids[i])
	}

	o := newTestOrchestrator(t, f, Options{Concurrency: 2})
	summary := o.Run(context.Background(), ids)
	for _, r := range summary.Results {
		if r.Status != StatusOK {
			t.Fatalf("job %s failed: %v", r.ID, r.Err)
		}
	}
	if got := peak.Load(); got > 2 {
		t.Fatalf("concurrency bound violated: %d simultaneous streams", got)
	}
}

func TestRunRecordsNoQualities(t *testing.T) {
	f := newFakeCatalog(t)
	// No addMovie: qualities list is empty.
	o := newTestOrchestrator(t, f, Options{})

	summary := o.Run(context.Background(), []string{"9001"})
	if summary.Results[0].Status != StatusNoQualities {
		t.Fatalf("expected no-qualities, got %+v", summary.Results[0])
	}
	completed, skipped, failed := summary.Counts()
	if completed != 0 || skipped != 1 || failed != 0 {
		t.Fatalf("unexpected counts: %d %d %d", completed, skipped, failed)
	}
}

func TestRunRecordsMissingQualityURL(t *testing.T) {
	f := newFakeCatalog(t)
	f.mu.Lock()
	f.qualities["42"] = []map[string]string{{"name": "hd", "resolution": "720p", "url": ""}}
	f.mu.Unlock()

	o := newTestOrchestrator(t, f, Options{})
	summary := o.Run(context.Background(), []string{"42"})
	if summary.Results[0].Status != StatusNoQualityURL {
		t.Fatalf("expected no-quality-url, got %+v", summary.Results[0])
	}
}

func TestStreamRetryRecoversFromTransientFailures(t *testing.T) {
	f := newFakeCatalog(t)
	f.addMovie("7")
	var failures atomic.Int64
	f.streamHook = func(w http.ResponseWriter, r *http.Request) bool {
		if failures.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return false
		}
		return true
	}

	outDir := t.TempDir()
	o := newTestOrchestrator(t, f, Options{OutputDir: outDir, StreamRetries: 4})
	summary := o.Run(context.Background(), []string{"7"})
	if summary.Results[0].Status != StatusOK {
		t.Fatalf("expected recovery, got %+v", summary.Results[0])
	}
	if f.streamCalls.Load() != 3 {
		t.Fatalf("expected 3 stream attempts, got %d", f.streamCalls.Load())
	}
	if _, err := os.Stat(filepath.Join(outDir, "Title 7.mp4")); err != nil {
		t.Fatalf("video missing after retry: %v", err)
	}
}

func TestJobFailureIsIsolated(t *testing.T) {
	f := newFakeCatalog(t)
	f.addMovie("good")
	f.streamHook = func(w http.ResponseWriter, r *http.Request) bool {
		if strings.Contains(r.URL.Path, "bad") {
			w.WriteHeader(http.StatusInternalServerError)
			return false
		}
		return true
	}
	f.addMovie("bad")

	o := newTestOrchestrator(t, f, Options{Concurrency: 1, StreamRetries: 1, JobRetries: 1})
	summary := o.Run(context.Background(), []string{"bad", "good"})

	if summary.Results[0].Status != StatusError || summary.Results[0].Err == nil {
		t.Fatalf("expected failing job to record an error, got %+v", summary.Results[0])
	}
	if summary.Results[1].Status != StatusOK {
		t.Fatalf("sibling job must not be affected: %+v", summary.Results[1])
	}
	if !summary.Failed() {
		t.Fatal("summary must surface the failure")
	}
}

func TestDryRunWritesNothing(t *testing.T) {
	f := newFakeCatalog(t)
	f.addMovie("11")
	outDir := t.TempDir()

	o := newTestOrchestrator(t, f, Options{OutputDir: outDir, DryRun: true})
	summary := o.Run(context.Background(), []string{"11"})
	if summary.Results[0].Status != StatusPlanned {
		t.Fatalf("expected planned, got %+v", summary.Results[0])
	}
	if summary.Results[0].OutputPath == "" {
		t.Fatal("dry run should still report the planned path")
	}
	if f.streamCalls.Load() != 0 {
		t.Fatal("dry run must not open streams")
	}
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("dry run wrote files: %v", entries)
	}
}

func TestSkipExistingLeavesFileUntouched(t *testing.T) {
	f := newFakeCatalog(t)
	f.addMovie("5")
	outDir := t.TempDir()
	existing := filepath.Join(outDir, "Title 5.mp4")
	if err := os.WriteFile(existing, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	o := newTestOrchestrator(t, f, Options{OutputDir: outDir, SkipExisting: true})
	summary := o.Run(context.Background(), []string{"5"})
	if summary.Results[0].Status != StatusOK {
		t.Fatalf("unexpected status: %+v", summary.Results[0])
	}
	data, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "original" {
		t.Fatalf("existing file was replaced: %q", data)
	}
	if f.streamCalls.Load() != 0 {
		t.Fatal("skip-existing must not stream")
	}
}

func TestOverwriteReplacesFile(t *testing.T) {
	f := newFakeCatalog(t)
	f.addMovie("5")
	outDir := t.TempDir()
	existing := filepath.Join(outDir, "Title 5.mp4")
	if err := os.WriteFile(existing, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	o := newTestOrchestrator(t, f, Options{OutputDir: outDir, Overwrite: true})
	summary := o.Run(context.Background(), []string{"5"})
	if summary.Results[0].Status != StatusOK {
		t.Fatalf("unexpected status: %+v", summary.Results[0])
	}
	data, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload:5.mp4" {
		t.Fatalf("file not replaced: %q", data)
	}
}

func TestCancelDrainsQueuedJobs(t *testing.T) {
	f := newFakeCatalog(t)
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.streamHook = func(w http.ResponseWriter, r *http.Request) bool {
		once.Do(func() { close(started) })
		<-release
		return true
	}
	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		f.addMovie(id)
	}

	o := newTestOrchestrator(t, f, Options{Concurrency: 1})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
		close(release)
	}()

	summary := o.Run(ctx, ids)
	if summary.Results[0].Status != StatusOK {
		t.Fatalf("in-flight job must finish: %+v", summary.Results[0])
	}
	for _, r := range summary.Results[1:] {
		if r.Status != StatusNotRun {
			t.Fatalf("queued job should be skipped, got %+v", r)
		}
	}
}

func TestSeriesDirsNestOutput(t *testing.T) {
	f := newFakeCatalog(t)
	f.mu.Lock()
	f.titles["e1"] = map[string]any{
		"id": "e1", "en_title": "Show", "kind": "series", "season": 1, "episode": 3,
	}
	f.mu.Unlock()
	f.addMovie("e1")

	outDir := t.TempDir()
	o := newTestOrchestrator(t, f, Options{OutputDir: outDir, SeriesDirs: true})
	summary := o.Run(context.Background(), []string{"e1"})
	if summary.Results[0].Status != StatusOK {
		t.Fatalf("unexpected status: %+v", summary.Results[0])
	}
	want := filepath.Join(outDir, "Show", "S01", "Show S01E03.mp4")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("nested output missing at %s: %v", want, err)
	}
}
