package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/LJTian/ExamFeed/internal/collector"
	"github.com/LJTian/ExamFeed/internal/processor"
	"github.com/LJTian/ExamFeed/internal/storage"
)

type stubFetcher struct {
	name  string
	items []collector.Announcement
	errs  []collector.PageError
	panic bool
}

func (f stubFetcher) Name() string { return f.name }

func (f stubFetcher) Fetch(context.Context) collector.Result {
	if f.panic {
		panic("selector exploded")
	}
	return collector.Result{Source: f.name, Items: f.items, Errors: f.errs}
}

type memorySink struct {
	mu    sync.Mutex
	snaps []*processor.Snapshot
	err   error
}

func (m *memorySink) Save(_ context.Context, snap *processor.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps = append(m.snaps, snap)
	return m.err
}

func item(source, title, url string) collector.Announcement {
	return collector.Announcement{Source: source, Channel: collector.ChannelJobs, Title: title, URL: url}
}

func readSnapshot(t *testing.T, path string) map[string]any {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("snapshot is not valid json: %v", err)
	}
	return out
}

func TestCollectIsolatesFailures(t *testing.T) {
	fetchers := []collector.Fetcher{
		stubFetcher{name: "Testbook", items: []collector.Announcement{item("Testbook", "SSC GD vacancy", "https://testbook.com/a")}},
		stubFetcher{name: "Broken", panic: true},
		stubFetcher{name: "Down", errs: []collector.PageError{{Source: "Down", Kind: collector.KindNetwork, Err: errors.New("refused")}}},
	}

	results := Collect(context.Background(), fetchers, nil)
	if len(results) != 3 {
		t.Fatalf("expected one result per fetcher, got %d", len(results))
	}
	if results[0].Source != "Testbook" || len(results[0].Items) != 1 {
		t.Fatalf("healthy source lost its items: %+v", results[0])
	}
	if results[1].Source != "Broken" || len(results[1].Errors) != 1 || results[1].Errors[0].Kind != collector.KindInternal {
		t.Fatalf("panic should be recorded as an internal error: %+v", results[1])
	}
	if len(results[2].Errors) != 1 {
		t.Fatalf("page errors should pass through: %+v", results[2])
	}
}

type namelessFetcher struct{}

func (namelessFetcher) Name() string { panic("no name configured") }

func (namelessFetcher) Fetch(context.Context) collector.Result { return collector.Result{} }

func TestCollectRecoversPanickingName(t *testing.T) {
	fetchers := []collector.Fetcher{
		stubFetcher{name: "Testbook", items: []collector.Announcement{item("Testbook", "SSC GD vacancy", "https://testbook.com/a")}},
		namelessFetcher{},
	}

	results := Collect(context.Background(), fetchers, nil)
	if len(results[0].Items) != 1 {
		t.Fatalf("healthy source lost its items: %+v", results[0])
	}
	got := results[1]
	if got.Source != "fetcher-1" || len(got.Errors) != 1 || got.Errors[0].Kind != collector.KindInternal {
		t.Fatalf("panicking Name should be recorded as an internal error: %+v", got)
	}
}

func TestRunOnceWritesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs", "data", "coaching.json")
	writer := storage.NewSnapshotFile(path)
	sink := &memorySink{err: errors.New("db unavailable")}

	fetchers := []collector.Fetcher{
		stubFetcher{name: "Testbook", items: []collector.Announcement{item("Testbook", "SSC GD vacancy", "https://testbook.com/a")}},
		stubFetcher{name: "Broken", panic: true},
	}
	s, err := New("", fetchers, processor.Options{Verbose: true}, writer, nil, sink)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	snap, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if !snap.OK || snap.Count != 1 || len(snap.Errors) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if len(sink.snaps) != 1 {
		t.Fatalf("sink should still receive the snapshot")
	}

	out := readSnapshot(t, path)
	if out["ok"] != true || out["count"].(float64) != 1 {
		t.Fatalf("unexpected file content: %v", out)
	}
}

func TestRunOnceWritesFallbackOnPanic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coaching.json")
	writer := storage.NewSnapshotFile(path)
	sink := &memorySink{}

	s, err := New("", nil, processor.Options{}, writer, nil, sink)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	s.aggregate = func([]collector.Result, processor.Options) *processor.Snapshot {
		panic("sort blew up")
	}

	snap, err := s.RunOnce(context.Background())
	if err == nil {
		t.Fatalf("expected error from panicking pipeline")
	}
	if snap == nil || snap.OK || snap.Error == "" {
		t.Fatalf("expected fallback snapshot, got %+v", snap)
	}
	if len(sink.snaps) != 0 {
		t.Fatalf("fallback snapshot must not reach the sinks")
	}

	out := readSnapshot(t, path)
	if out["ok"] != false || out["count"].(float64) != 0 {
		t.Fatalf("unexpected fallback content: %v", out)
	}
	items, ok := out["items"].([]any)
	if !ok || len(items) != 0 {
		t.Fatalf("fallback items should be an empty array, got %#v", out["items"])
	}
	if _, ok := out["error"].(string); !ok {
		t.Fatalf("fallback should carry an error message: %v", out)
	}
}

func TestRunOnceWriterFailure(t *testing.T) {
	writer := &memorySink{err: errors.New("disk full")}
	s, err := New("", nil, processor.Options{}, writer, nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	snap, err := s.RunOnce(context.Background())
	if err == nil {
		t.Fatalf("expected writer error to surface")
	}
	if snap == nil || snap.OK {
		t.Fatalf("expected fallback snapshot, got %+v", snap)
	}
	if len(writer.snaps) != 2 {
		t.Fatalf("writer should be tried for the snapshot and the fallback, got %d", len(writer.snaps))
	}
}

func TestNewRejectsBadCronSpec(t *testing.T) {
	if _, err := New("not a cron", nil, processor.Options{}, &memorySink{}, nil); err == nil {
		t.Fatalf("expected error for invalid cron spec")
	}
}
