package syncer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/faceguard/faceguard/internal/cachestore"
	"github.com/faceguard/faceguard/internal/config"
	"github.com/faceguard/faceguard/internal/journal"
	"github.com/faceguard/faceguard/internal/models"
)

type fakeAPI struct {
	mu         sync.Mutex
	catalog    *models.Cache
	catalogErr error
	photos     map[string][]byte
	photoErr   map[string]error
	posted     []models.AccessEvent
	postErr    error
}

func (f *fakeAPI) FetchCatalog(_ context.Context) (*models.Cache, error) {
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.catalog.Clone(), nil
}

func (f *fakeAPI) FetchPhoto(_ context.Context, url string) ([]byte, error) {
	if err := f.photoErr[url]; err != nil {
		return nil, err
	}
	if data, ok := f.photos[url]; ok {
		return data, nil
	}
	return nil, errors.New("photo not found")
}

func (f *fakeAPI) PostEvent(_ context.Context, event models.AccessEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return f.postErr
	}
	f.posted = append(f.posted, event)
	return nil
}

func (f *fakeAPI) postedEvents() []models.AccessEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AccessEvent{}, f.posted...)
}

// scriptedProvider embeds anything except payloads listed in fail.
type scriptedProvider struct {
	fail map[string]bool
}

func (p *scriptedProvider) Name() string { return "facenet" }
func (p *scriptedProvider) Embed(_ context.Context, image []byte) ([]float32, error) {
	if p.fail[string(image)] {
		return nil, errors.New("no face detected in image")
	}
	return []float32{float32(len(image)), 1, 0}, nil
}

func userID(id int64) *int64 { return &id }

func catalogFixture() *models.Cache {
	catalog := models.NewCache()
	catalog.Users = []models.User{{ID: 1, Identifier: "alice"}, {ID: 2, Identifier: "bob"}}
	catalog.Photos = []models.Photo{
		{UserID: userID(1), PersonName: "alice", URL: "/photos/1.jpg", Filename: "1.jpg"},
		{UserID: userID(2), PersonName: "bob", URL: "/photos/2.jpg", Filename: "2.jpg"},
	}
	return catalog
}

func newTestCoordinator(t *testing.T, api API) (*Coordinator, *cachestore.Store, *config.Live) {
	t.Helper()
	store := cachestore.New(filepath.Join(t.TempDir(), "cache.json"))
	if _, err := store.Load(); err != nil {
		t.Fatal(err)
	}
	live := config.NewLive(config.Config{
		Threshold:    0.6,
		GPIOPulse:    800 * time.Millisecond,
		SyncInterval: 5 * time.Minute,
	})
	coordinator := New(api, &scriptedProvider{}, store, nil, live, "")
	return coordinator, store, live
}

func TestResyncBuildsAndPersistsCache(t *testing.T) {
	api := &fakeAPI{
		catalog: catalogFixture(),
		photos: map[string][]byte{
			"/photos/1.jpg": []byte("photo-one"),
			"/photos/2.jpg": []byte("photo-two!"),
		},
	}
	path := filepath.Join(t.TempDir(), "cache.json")
	store := cachestore.New(path)
	if _, err := store.Load(); err != nil {
		t.Fatal(err)
	}
	live := config.NewLive(config.FromEnv())
	coordinator := New(api, &scriptedProvider{}, store, nil, live, "")

	if err := coordinator.Resync(context.Background()); err != nil {
		t.Fatalf("Resync failed: %v", err)
	}

	cache := store.Current()
	if len(cache.Embeddings) != 2 {
		t.Fatalf("embeddings = %d, want 2", len(cache.Embeddings))
	}
	if cache.Embeddings[0].ModelName != "facenet" {
		t.Errorf("model = %q, want facenet", cache.Embeddings[0].ModelName)
	}
	if cache.Embeddings[0].UserID == nil || *cache.Embeddings[0].UserID != 1 {
		t.Errorf("embedding not linked to user: %+v", cache.Embeddings[0])
	}

	// The snapshot must also be on disk for the next cold start.
	reloaded, err := cachestore.New(path).Load()
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(reloaded.Embeddings) != 2 {
		t.Errorf("persisted embeddings = %d, want 2", len(reloaded.Embeddings))
	}
}

func TestResyncAppliesOverridesOnlyOnSuccess(t *testing.T) {
	threshold := 0.85
	pulse := 500
	catalog := catalogFixture()
	catalog.Photos = nil
	catalog.Config = &models.RemoteConfig{Threshold: &threshold, GPIOPulseMs: &pulse}

	api := &fakeAPI{catalog: catalog}
	coordinator, _, live := newTestCoordinator(t, api)

	if err := coordinator.Resync(context.Background()); err != nil {
		t.Fatalf("Resync failed: %v", err)
	}
	if got := live.Threshold(); got != 0.85 {
		t.Errorf("threshold = %v, want 0.85", got)
	}
	if got := live.GPIOPulse(); got != 500*time.Millisecond {
		t.Errorf("pulse = %v, want 500ms", got)
	}
	// Sync interval was absent from the payload and must keep its value.
	if got := live.SyncInterval(); got != 5*time.Minute {
		t.Errorf("sync interval = %v, want 5m", got)
	}
}

func TestResyncFailureLeavesPreviousCacheIntact(t *testing.T) {
	api := &fakeAPI{catalog: catalogFixture(), photos: map[string][]byte{
		"/photos/1.jpg": []byte("photo-one"),
		"/photos/2.jpg": []byte("photo-two!"),
	}}
	coordinator, store, live := newTestCoordinator(t, api)
	if err := coordinator.Resync(context.Background()); err != nil {
		t.Fatalf("initial Resync failed: %v", err)
	}
	before := store.Current()

	api.catalogErr = errors.New("connection refused")
	if err := coordinator.Resync(context.Background()); err == nil {
		t.Fatal("expected Resync error when catalog fetch fails")
	}

	if store.Current() != before {
		t.Error("cache swapped despite failed resync")
	}
	if len(store.Current().Embeddings) != 2 {
		t.Errorf("previous cache damaged: %d embeddings", len(store.Current().Embeddings))
	}
	if live.Threshold() != 0.6 {
		t.Errorf("overrides changed on failed resync: %v", live.Threshold())
	}
}

func TestResyncSkipsFailedPhotos(t *testing.T) {
	catalog := catalogFixture()
	catalog.Photos = append(catalog.Photos,
		models.Photo{UserID: userID(1), PersonName: "alice", URL: "/photos/3.jpg", Filename: "3.jpg"})

	api := &fakeAPI{
		catalog: catalog,
		photos: map[string][]byte{
			"/photos/1.jpg": []byte("photo-one"),
			"/photos/2.jpg": []byte("blurry"),
			"/photos/3.jpg": []byte("photo-three"),
		},
		photoErr: map[string]error{"/photos/1.jpg": errors.New("404")},
	}
	provider := &scriptedProvider{fail: map[string]bool{"blurry": true}}

	store := cachestore.New(filepath.Join(t.TempDir(), "cache.json"))
	if _, err := store.Load(); err != nil {
		t.Fatal(err)
	}
	live := config.NewLive(config.FromEnv())
	coordinator := New(api, provider, store, nil, live, "")

	if err := coordinator.Resync(context.Background()); err != nil {
		t.Fatalf("Resync must tolerate per-photo failures: %v", err)
	}
	cache := store.Current()
	if len(cache.Embeddings) != 1 {
		t.Fatalf("embeddings = %d, want 1 (two photos skipped)", len(cache.Embeddings))
	}
	if cache.Embeddings[0].Filename != "3.jpg" {
		t.Errorf("kept %q, want 3.jpg", cache.Embeddings[0].Filename)
	}
}

func TestResyncMergesLocalEnrollments(t *testing.T) {
	localDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(localDir, "admin.jpg"), []byte("local"), 0o644); err != nil {
		t.Fatal(err)
	}

	catalog := catalogFixture()
	catalog.Photos = catalog.Photos[:1]
	api := &fakeAPI{catalog: catalog, photos: map[string][]byte{"/photos/1.jpg": []byte("photo-one")}}

	store := cachestore.New(filepath.Join(t.TempDir(), "cache.json"))
	if _, err := store.Load(); err != nil {
		t.Fatal(err)
	}
	live := config.NewLive(config.FromEnv())
	coordinator := New(api, &scriptedProvider{}, store, nil, live, localDir)

	if err := coordinator.Resync(context.Background()); err != nil {
		t.Fatalf("Resync failed: %v", err)
	}

	cache := store.Current()
	if len(cache.Embeddings) != 2 {
		t.Fatalf("embeddings = %d, want remote + local", len(cache.Embeddings))
	}
	var localFound bool
	for _, e := range cache.Embeddings {
		if e.IsLocal && e.PersonName == "admin" {
			localFound = true
		}
	}
	if !localFound {
		t.Error("local enrollment missing after resync")
	}
}

func TestReportJournalsAndPosts(t *testing.T) {
	jrnl, err := journal.Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	defer jrnl.Close()

	api := &fakeAPI{catalog: models.NewCache()}
	store := cachestore.New(filepath.Join(t.TempDir(), "cache.json"))
	live := config.NewLive(config.FromEnv())
	coordinator := New(api, &scriptedProvider{}, store, jrnl, live, "")

	coordinator.Report(models.AccessEvent{
		Identifier: "alice",
		Status:     models.StatusSuccess,
		DeviceID:   "edge-test",
		Confidence: 0.93,
	})
	coordinator.Wait()

	posted := api.postedEvents()
	if len(posted) != 1 || posted[0].Identifier != "alice" {
		t.Fatalf("posted = %+v, want one alice event", posted)
	}
	pending, err := jrnl.Unreported(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("unreported = %d, want 0 after successful post", len(pending))
	}
}

func TestDrainRecoversAfterOutage(t *testing.T) {
	jrnl, err := journal.Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	defer jrnl.Close()

	api := &fakeAPI{catalog: models.NewCache(), postErr: errors.New("link down")}
	store := cachestore.New(filepath.Join(t.TempDir(), "cache.json"))
	live := config.NewLive(config.FromEnv())
	coordinator := New(api, &scriptedProvider{}, store, jrnl, live, "")

	coordinator.Report(models.AccessEvent{Identifier: "bob", Status: models.StatusDenied, DeviceID: "edge-test"})
	coordinator.Wait()

	ctx := context.Background()
	pending, err := jrnl.Unreported(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("unreported = %d, want 1 while link is down", len(pending))
	}

	// Link comes back; the drainer delivers the backlog.
	api.mu.Lock()
	api.postErr = nil
	api.mu.Unlock()
	coordinator.Drain(ctx)

	if posted := api.postedEvents(); len(posted) != 1 || posted[0].Identifier != "bob" {
		t.Fatalf("posted = %+v, want drained bob event", posted)
	}
	pending, err = jrnl.Unreported(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("unreported = %d, want 0 after drain", len(pending))
	}
}
