// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/playdexapp/playdex/internal/cache"
	"github.com/playdexapp/playdex/internal/models"
	steammodels "github.com/playdexapp/playdex/internal/models/steam"
)

// fakeSteamClient scripts the Steam API surface for engine tests.
type fakeSteamClient struct {
	summary        *steammodels.PlayerSummary
	summaryErr     error
	ownedGames     []steammodels.OwnedGame
	ownedGamesErr  error
	ownedGamesCall int
	recentGames    []steammodels.OwnedGame
	recentErr      error
}

func (f *fakeSteamClient) GetPlayerSummary(ctx context.Context, steamID string) (*steammodels.PlayerSummary, error) {
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return f.summary, nil
}

func (f *fakeSteamClient) GetOwnedGames(ctx context.Context, steamID string) ([]steammodels.OwnedGame, error) {
	f.ownedGamesCall++
	if f.ownedGamesErr != nil {
		return nil, f.ownedGamesErr
	}
	return f.ownedGames, nil
}

func (f *fakeSteamClient) GetRecentlyPlayedGames(ctx context.Context, steamID string) ([]steammodels.OwnedGame, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	return f.recentGames, nil
}

func (f *fakeSteamClient) GetAppDetails(ctx context.Context, appID int64) (*steammodels.AppDetails, error) {
	return &steammodels.AppDetails{Success: false}, nil
}

func (f *fakeSteamClient) GetAppList(ctx context.Context) ([]steammodels.App, error) {
	return nil, nil
}

func (f *fakeSteamClient) ResolveVanityURL(ctx context.Context, vanityName string) (string, error) {
	return "", nil
}

// ownershipRow mirrors the stored ownership state in the fake DB.
type ownershipRow struct {
	playtimeMinutes    int
	recent2WeekMinutes int
	syncedAt           time.Time
}

// fakeDB is an in-memory DBInterface.
type fakeDB struct {
	players   map[string]*models.Player
	entries   map[string]*models.CatalogEntry
	ownership map[string]ownershipRow
	nextID    int64
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		players:   make(map[string]*models.Player),
		entries:   make(map[string]*models.CatalogEntry),
		ownership: make(map[string]ownershipRow),
	}
}

func (f *fakeDB) GetPlayerBySteamID(ctx context.Context, steamID string) (*models.Player, error) {
	if p, ok := f.players[steamID]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: player %s", models.ErrNotFound, steamID)
}

func (f *fakeDB) FindOrCreatePlayer(ctx context.Context, steamID, username, avatarURL string) (*models.Player, error) {
	if p, ok := f.players[steamID]; ok {
		return p, nil
	}
	f.nextID++
	p := &models.Player{ID: f.nextID, SteamID: steamID, Username: username, AvatarURL: avatarURL}
	f.players[steamID] = p
	return p, nil
}

func (f *fakeDB) OldestSyncTime(ctx context.Context, playerID int64) (time.Time, error) {
	prefix := fmt.Sprintf("%d:", playerID)
	var oldest time.Time
	for key, row := range f.ownership {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if oldest.IsZero() || row.syncedAt.Before(oldest) {
			oldest = row.syncedAt
		}
	}
	return oldest, nil
}

func (f *fakeDB) UpsertCatalogEntry(ctx context.Context, entry *models.CatalogEntry) (*models.CatalogEntry, error) {
	if existing, ok := f.entries[entry.Name]; ok {
		stored := *entry
		stored.ID = existing.ID
		f.entries[entry.Name] = &stored
		return &stored, nil
	}
	f.nextID++
	stored := *entry
	stored.ID = f.nextID
	f.entries[entry.Name] = &stored
	return &stored, nil
}

func (f *fakeDB) UpsertOwnership(ctx context.Context, playerID, entryID int64, playtimeMinutes, recent2WeekMinutes int, syncedAt time.Time) error {
	key := fmt.Sprintf("%d:%d", playerID, entryID)
	f.ownership[key] = ownershipRow{
		playtimeMinutes:    playtimeMinutes,
		recent2WeekMinutes: recent2WeekMinutes,
		syncedAt:           syncedAt,
	}
	return nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	topics []string
}

func (r *recordingPublisher) Publish(topic string, payload interface{}) error {
	r.topics = append(r.topics, topic)
	return nil
}

func newTestEngine(t *testing.T, client *fakeSteamClient, db *fakeDB) (*Engine, *recordingPublisher) {
	t.Helper()
	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	publisher := &recordingPublisher{}
	enricher := NewCatalogEnricher(client, store)
	engine := NewEngine(client, db, store, enricher, publisher, 24*time.Hour)
	return engine, publisher
}

func testClient() *fakeSteamClient {
	return &fakeSteamClient{
		summary: &steammodels.PlayerSummary{
			SteamID:     "76561198000000001",
			PersonaName: "gordon",
			AvatarFull:  "https://example.com/a.jpg",
		},
		ownedGames: []steammodels.OwnedGame{
			{AppID: 440, Name: "Team Fortress 2", PlaytimeForever: 600, Playtime2Weeks: 120},
			{AppID: 620, Name: "Portal 2", PlaytimeForever: 300, Playtime2Weeks: 0},
		},
	}
}

func TestSyncLibraryFirstSync(t *testing.T) {
	client := testClient()
	db := newFakeDB()
	engine, publisher := newTestEngine(t, client, db)

	player, err := engine.SyncLibrary(context.Background(), "76561198000000001")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if player.Username != "gordon" {
		t.Errorf("unexpected player: %+v", player)
	}
	if len(db.ownership) != 2 {
		t.Errorf("expected 2 ownership rows, got %d", len(db.ownership))
	}
	if len(publisher.topics) != 1 || publisher.topics[0] != "library.synced" {
		t.Errorf("expected library.synced event, got %v", publisher.topics)
	}

	// Snapshot cached
	games, ok := engine.CachedOwnedGames("76561198000000001")
	if !ok || len(games) != 2 {
		t.Errorf("owned games snapshot missing: ok=%v games=%d", ok, len(games))
	}
}

func TestSyncLibrarySkipsFreshData(t *testing.T) {
	client := testClient()
	db := newFakeDB()
	engine, _ := newTestEngine(t, client, db)

	if _, err := engine.SyncLibrary(context.Background(), "76561198000000001"); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if _, err := engine.SyncLibrary(context.Background(), "76561198000000001"); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if client.ownedGamesCall != 1 {
		t.Errorf("fresh library must not refetch, owned games calls = %d", client.ownedGamesCall)
	}
}

func TestSyncLibraryResyncsStaleData(t *testing.T) {
	client := testClient()
	db := newFakeDB()
	engine, _ := newTestEngine(t, client, db)

	if _, err := engine.SyncLibrary(context.Background(), "76561198000000001"); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	// Move the clock past the staleness window
	engine.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	if _, err := engine.SyncLibrary(context.Background(), "76561198000000001"); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if client.ownedGamesCall != 2 {
		t.Errorf("stale library must refetch, owned games calls = %d", client.ownedGamesCall)
	}
}

func TestSyncLibraryRecentCountersAuthoritative(t *testing.T) {
	client := testClient()
	client.recentGames = []steammodels.OwnedGame{
		{AppID: 440, Name: "Team Fortress 2", Playtime2Weeks: 480},
	}
	db := newFakeDB()
	engine, _ := newTestEngine(t, client, db)

	if _, err := engine.SyncLibrary(context.Background(), "76561198000000001"); err != nil {
		t.Fatalf("sync: %v", err)
	}

	// Entry IDs: player=1, TF2=2, Portal 2=3
	if row := db.ownership["1:2"]; row.recent2WeekMinutes != 480 {
		t.Errorf("expected recently-played counter 480, got %d", row.recent2WeekMinutes)
	}
	// Titles absent from the recent list keep the owned-games counter.
	if row := db.ownership["1:3"]; row.recent2WeekMinutes != 0 {
		t.Errorf("expected owned-games counter 0, got %d", row.recent2WeekMinutes)
	}
}

func TestSyncLibraryRecentFetchFailureNonFatal(t *testing.T) {
	client := testClient()
	client.recentErr = errors.New("upstream down")
	db := newFakeDB()
	engine, _ := newTestEngine(t, client, db)

	if _, err := engine.SyncLibrary(context.Background(), "76561198000000001"); err != nil {
		t.Fatalf("expected sync to survive a recent-games failure, got %v", err)
	}
	if row := db.ownership["1:2"]; row.recent2WeekMinutes != 120 {
		t.Errorf("expected fallback to owned-games counter 120, got %d", row.recent2WeekMinutes)
	}
}

func TestSyncLibraryOwnedGamesFailureIsFatal(t *testing.T) {
	client := testClient()
	client.ownedGamesErr = errors.New("upstream down")
	db := newFakeDB()
	engine, publisher := newTestEngine(t, client, db)

	if _, err := engine.SyncLibrary(context.Background(), "76561198000000001"); err == nil {
		t.Fatal("expected error when owned games fetch fails")
	}
	if len(db.ownership) != 0 {
		t.Error("failed sync must not write ownership rows")
	}
	if len(publisher.topics) != 0 {
		t.Error("failed sync must not publish events")
	}
}

func TestSyncLibraryProfileFailureFallsBackToStoredPlayer(t *testing.T) {
	client := testClient()
	db := newFakeDB()
	engine, _ := newTestEngine(t, client, db)

	if _, err := engine.SyncLibrary(context.Background(), "76561198000000001"); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	client.summaryErr = errors.New("profile service down")
	player, err := engine.SyncLibrary(context.Background(), "76561198000000001")
	if err != nil {
		t.Fatalf("expected fallback to stored player, got %v", err)
	}
	if player.Username != "gordon" {
		t.Errorf("unexpected player: %+v", player)
	}
}

func TestSyncLibraryUnknownPlayerProfileFailure(t *testing.T) {
	client := testClient()
	client.summaryErr = errors.New("profile service down")
	db := newFakeDB()
	engine, _ := newTestEngine(t, client, db)

	if _, err := engine.SyncLibrary(context.Background(), "76561198000000001"); err == nil {
		t.Fatal("expected error for unknown player with failed profile fetch")
	}
}
