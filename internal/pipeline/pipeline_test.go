// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/playdexapp/playdex/internal/cache"
	"github.com/playdexapp/playdex/internal/database"
	"github.com/playdexapp/playdex/internal/models"
)

// fakeSyncer returns a fixed player and counts sync calls.
type fakeSyncer struct {
	player *models.Player
	err    error
	calls  int
}

func (f *fakeSyncer) SyncLibrary(ctx context.Context, steamID string) (*models.Player, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.player, nil
}

// fakeRecommender returns a scripted envelope and counts generations.
type fakeRecommender struct {
	envelope models.RecommendationEnvelope
	calls    int
}

func (f *fakeRecommender) Generate(ctx context.Context, steamID string, records []models.OwnershipRecord) *models.RecommendationEnvelope {
	f.calls++
	env := f.envelope
	return &env
}

// fakeVanity resolves every name to a fixed Steam ID.
type fakeVanity struct {
	steamID string
	err     error
	calls   int
}

func (f *fakeVanity) ResolveVanityURL(ctx context.Context, vanityName string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.steamID, nil
}

// fakeEnricher classifies any appid with a canned entry.
type fakeEnricher struct {
	calls int
}

func (f *fakeEnricher) Enrich(ctx context.Context, appID int64, name string) *models.CatalogEntry {
	f.calls++
	if name == "" {
		name = "Enriched Title"
	}
	return &models.CatalogEntry{AppID: int64Ptr(appID), Name: name, Genre: "Action", IsVerified: true}
}

// fakePipelineDB serves canned rows and records favorite mutations. Setting
// a favorite fails with ErrNotFound unless the entry has an ownership row,
// mirroring the real favorite flag living on the ownership table.
type fakePipelineDB struct {
	player      *models.Player
	ownership   []models.OwnershipRecord
	entries     map[int64]*models.CatalogEntry
	favorites   []models.FavoriteGame
	genreTotals []database.GenrePlaytime

	owned          map[int64]bool
	favoriteSet    map[int64]bool
	nextEntryID    int64
	upsertedOwners int
}

func (f *fakePipelineDB) GetPlayerBySteamID(ctx context.Context, steamID string) (*models.Player, error) {
	if f.player == nil {
		return nil, models.ErrNotFound
	}
	return f.player, nil
}

func (f *fakePipelineDB) GetOwnership(ctx context.Context, playerID int64) ([]models.OwnershipRecord, error) {
	return f.ownership, nil
}

func (f *fakePipelineDB) GetEntryByAppID(ctx context.Context, appID int64) (*models.CatalogEntry, error) {
	entry, ok := f.entries[appID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return entry, nil
}

func (f *fakePipelineDB) UpsertCatalogEntry(ctx context.Context, entry *models.CatalogEntry) (*models.CatalogEntry, error) {
	f.nextEntryID++
	stored := *entry
	stored.ID = f.nextEntryID
	if f.entries == nil {
		f.entries = make(map[int64]*models.CatalogEntry)
	}
	if entry.AppID != nil {
		f.entries[*entry.AppID] = &stored
	}
	return &stored, nil
}

func (f *fakePipelineDB) UpsertOwnership(ctx context.Context, playerID, entryID int64, playtimeMinutes, recent2WeekMinutes int, syncedAt time.Time) error {
	if f.owned == nil {
		f.owned = make(map[int64]bool)
	}
	f.owned[entryID] = true
	f.upsertedOwners++
	return nil
}

func (f *fakePipelineDB) SetFavorite(ctx context.Context, playerID, entryID int64, favorite bool) error {
	if !f.owned[entryID] {
		return models.ErrNotFound
	}
	if f.favoriteSet == nil {
		f.favoriteSet = make(map[int64]bool)
	}
	f.favoriteSet[entryID] = favorite
	return nil
}

func (f *fakePipelineDB) ListFavorites(ctx context.Context, playerID int64) ([]models.FavoriteGame, error) {
	return f.favorites, nil
}

func (f *fakePipelineDB) PlaytimeByGenre(ctx context.Context, playerID int64) ([]database.GenrePlaytime, error) {
	return f.genreTotals, nil
}

func int64Ptr(v int64) *int64 { return &v }

func testOwnership() []models.OwnershipRecord {
	return []models.OwnershipRecord{
		{
			ID:       1,
			PlayerID: 1,
			EntryID:  1,
			Entry: &models.CatalogEntry{
				ID: 1, AppID: int64Ptr(440), Name: "Team Fortress 2",
				Genre: "Action", IsMultiplayer: true, IsVerified: true,
			},
			PlaytimeMinutes:    6000,
			Recent2WeekMinutes: 700,
		},
		{
			ID:       2,
			PlayerID: 1,
			EntryID:  2,
			Entry: &models.CatalogEntry{
				ID: 2, AppID: int64Ptr(620), Name: "Portal 2",
				Genre: "Adventure", IsVerified: true,
			},
			PlaytimeMinutes:    300,
			Recent2WeekMinutes: 0,
		},
	}
}

type testHarness struct {
	coordinator *Coordinator
	syncer      *fakeSyncer
	recommender *fakeRecommender
	enricher    *fakeEnricher
	vanity      *fakeVanity
	db          *fakePipelineDB
	store       cache.Store
}

func newTestCoordinator(t *testing.T) *testHarness {
	t.Helper()
	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	player := &models.Player{ID: 1, SteamID: "76561198000000001", Username: "gamer"}
	h := &testHarness{
		syncer: &fakeSyncer{player: player},
		recommender: &fakeRecommender{envelope: models.RecommendationEnvelope{
			Games: []models.RecommendedGame{{Name: "Hades", Comment: "Roguelike action", AppID: int64Ptr(1145360)}},
		}},
		enricher: &fakeEnricher{},
		vanity:   &fakeVanity{steamID: "76561198000000001"},
		db: &fakePipelineDB{
			player:    player,
			ownership: testOwnership(),
			entries: map[int64]*models.CatalogEntry{
				440: {ID: 1, AppID: int64Ptr(440), Name: "Team Fortress 2"},
			},
			favorites: []models.FavoriteGame{{AppID: int64Ptr(440), Name: "Team Fortress 2"}},
			genreTotals: []database.GenrePlaytime{
				{Genre: "Action", Minutes: 6000},
				{Genre: "Adventure", Minutes: 300},
			},
			owned:       map[int64]bool{1: true, 2: true},
			nextEntryID: 2,
		},
		store: store,
	}
	h.coordinator = NewCoordinator(h.syncer, h.recommender, h.enricher, h.vanity, h.db, store)
	return h
}

func TestGetLibraryAssemblesResponse(t *testing.T) {
	h := newTestCoordinator(t)

	library, err := h.coordinator.GetLibrary(context.Background(), "76561198000000001")
	if err != nil {
		t.Fatalf("get library: %v", err)
	}
	if library.TotalGames != 2 {
		t.Errorf("expected 2 games, got %d", library.TotalGames)
	}
	if library.Games[0].Name != "Team Fortress 2" {
		t.Errorf("expected playtime-descending order, got %+v", library.Games)
	}
	// 700 recent minutes: 3h / 12h / 26h
	if library.Activity.Last3Days != 3 || library.Activity.Last2Week != 12 || library.Activity.LastMonth != 26 {
		t.Errorf("unexpected activity: %+v", library.Activity)
	}
}

func TestGetLibraryServedFromCache(t *testing.T) {
	h := newTestCoordinator(t)

	if _, err := h.coordinator.GetLibrary(context.Background(), "76561198000000001"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := h.coordinator.GetLibrary(context.Background(), "76561198000000001"); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if h.syncer.calls != 1 {
		t.Errorf("cached response must not trigger a resync, got %d sync calls", h.syncer.calls)
	}
}

func TestGetLibrarySyncFailurePropagates(t *testing.T) {
	h := newTestCoordinator(t)
	h.syncer.err = errors.New("steam down")

	if _, err := h.coordinator.GetLibrary(context.Background(), "76561198000000001"); err == nil {
		t.Fatal("expected error when sync fails with no cached response")
	}
}

func TestGetRecommendationsCached(t *testing.T) {
	h := newTestCoordinator(t)

	first, err := h.coordinator.GetRecommendations(context.Background(), "76561198000000001")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := h.coordinator.GetRecommendations(context.Background(), "76561198000000001")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if h.recommender.calls != 1 {
		t.Errorf("expected one generation, got %d", h.recommender.calls)
	}
	if len(first.Games) != 1 || len(second.Games) != 1 || second.Games[0].Name != "Hades" {
		t.Errorf("cached envelope differs: %+v vs %+v", first, second)
	}
}

func TestGetRecommendationsEmbeddedFreshness(t *testing.T) {
	h := newTestCoordinator(t)

	base := time.Now()
	h.coordinator.now = func() time.Time { return base }
	if _, err := h.coordinator.GetRecommendations(context.Background(), "76561198000000001"); err != nil {
		t.Fatalf("first call: %v", err)
	}

	// Within the freshness window the cached envelope is reused.
	h.coordinator.now = func() time.Time { return base.Add(30 * time.Minute) }
	if _, err := h.coordinator.GetRecommendations(context.Background(), "76561198000000001"); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if h.recommender.calls != 1 {
		t.Fatalf("fresh envelope must be reused, got %d generations", h.recommender.calls)
	}

	// Past the window the envelope regenerates even while still cached.
	h.coordinator.now = func() time.Time { return base.Add(25 * time.Hour) }
	if _, err := h.coordinator.GetRecommendations(context.Background(), "76561198000000001"); err != nil {
		t.Fatalf("third call: %v", err)
	}
	if h.recommender.calls != 2 {
		t.Errorf("stale envelope must regenerate, got %d generations", h.recommender.calls)
	}
}

func TestAddFavoriteInvalidatesRecommendations(t *testing.T) {
	h := newTestCoordinator(t)
	ctx := context.Background()

	if _, err := h.coordinator.GetRecommendations(ctx, "76561198000000001"); err != nil {
		t.Fatalf("prime recommendations: %v", err)
	}
	if err := h.coordinator.AddFavorite(ctx, "76561198000000001", 440); err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	if !h.db.favoriteSet[1] {
		t.Error("favorite flag not set on catalog entry 1")
	}

	if _, err := h.coordinator.GetRecommendations(ctx, "76561198000000001"); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if h.recommender.calls != 2 {
		t.Errorf("favorite change must invalidate the cache, got %d generations", h.recommender.calls)
	}
}

func TestRemoveFavorite(t *testing.T) {
	h := newTestCoordinator(t)

	if err := h.coordinator.RemoveFavorite(context.Background(), "76561198000000001", 440); err != nil {
		t.Fatalf("remove favorite: %v", err)
	}
	if h.db.favoriteSet[1] {
		t.Error("favorite flag should be cleared")
	}
}

func TestAddFavoriteUnownedTitleCreatesRecord(t *testing.T) {
	h := newTestCoordinator(t)

	if err := h.coordinator.AddFavorite(context.Background(), "76561198000000001", 1145360); err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	if h.enricher.calls != 1 {
		t.Errorf("expected the unknown title to be enriched, got %d calls", h.enricher.calls)
	}
	if h.db.upsertedOwners != 1 {
		t.Errorf("expected a zero-playtime ownership record, got %d upserts", h.db.upsertedOwners)
	}
	if !h.db.favoriteSet[3] {
		t.Errorf("favorite flag not set on the new entry: %+v", h.db.favoriteSet)
	}
}

func TestRemoveFavoriteUnknownApp(t *testing.T) {
	h := newTestCoordinator(t)

	err := h.coordinator.RemoveFavorite(context.Background(), "76561198000000001", 999999)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListFavorites(t *testing.T) {
	h := newTestCoordinator(t)

	favorites, err := h.coordinator.ListFavorites(context.Background(), "76561198000000001")
	if err != nil {
		t.Fatalf("list favorites: %v", err)
	}
	if len(favorites) != 1 || favorites[0].Name != "Team Fortress 2" {
		t.Errorf("unexpected favorites: %+v", favorites)
	}
}

func TestGetProfileComposition(t *testing.T) {
	h := newTestCoordinator(t)

	profile, err := h.coordinator.GetProfile(context.Background(), "76561198000000001")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.Profile.Username != "gamer" {
		t.Errorf("unexpected player: %+v", profile.Profile)
	}
	if profile.Games.TotalGames != 2 || len(profile.Games.TopGames) != 2 {
		t.Errorf("unexpected games summary: %+v", profile.Games)
	}
	if len(profile.Recommendations) != 1 || profile.Recommendations[0].Name != "Hades" {
		t.Errorf("unexpected recommendations: %+v", profile.Recommendations)
	}
	// 6000 of 6300 minutes is Action: 95%, Adventure 5%
	if len(profile.FavoriteGenres) != 2 || profile.FavoriteGenres[0].Genre != "Action" || profile.FavoriteGenres[0].Percentage != 95 {
		t.Errorf("unexpected favorite genres: %+v", profile.FavoriteGenres)
	}
	// 700 recent minutes rounds to 12 2-week hours: casual
	if profile.Mood != "casual" {
		t.Errorf("expected casual mood, got %q", profile.Mood)
	}
}

func TestResolveVanityCached(t *testing.T) {
	h := newTestCoordinator(t)

	steamID, err := h.coordinator.ResolveVanity(context.Background(), "gamertag")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if steamID != "76561198000000001" {
		t.Errorf("unexpected steam id: %s", steamID)
	}

	if _, err := h.coordinator.ResolveVanity(context.Background(), "gamertag"); err != nil {
		t.Fatalf("cached resolve: %v", err)
	}
	if h.vanity.calls != 1 {
		t.Errorf("expected one upstream resolution, got %d", h.vanity.calls)
	}
}

func TestResolveVanityFailure(t *testing.T) {
	h := newTestCoordinator(t)
	h.vanity.err = models.ErrNotFound

	if _, err := h.coordinator.ResolveVanity(context.Background(), "nobody"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
