package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tutorhive/chat-core/internal/domain"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Concurrent tests hit SQLITE_BUSY without a busy timeout.
	db.Exec("PRAGMA busy_timeout=5000;")

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestGetOrCreateRoom_CreatesCanonicalPair(t *testing.T) {
	db := newRepoDB(t, &domain.ChatRoom{})

	r, err := GetOrCreateRoom(context.Background(), db, "bob", "alice", "math")
	if err != nil {
		t.Fatalf("GetOrCreateRoom: %v", err)
	}
	if r.ParticipantLow != "alice" || r.ParticipantHigh != "bob" {
		t.Fatalf("pair not canonical: %+v", r)
	}
	if r.ID == "" || r.PairKey != "alice|bob" || r.Category != "math" {
		t.Fatalf("unexpected room fields: %+v", r)
	}
}

func TestGetOrCreateRoom_SymmetricReturnsSameRoom(t *testing.T) {
	db := newRepoDB(t, &domain.ChatRoom{})
	ctx := context.Background()

	a, err := GetOrCreateRoom(ctx, db, "alice", "bob", "")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	b, err := GetOrCreateRoom(ctx, db, "bob", "alice", "ignored-category")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if a.ID != b.ID {
		t.Fatalf("expected same room for both directions, got %q and %q", a.ID, b.ID)
	}
	if b.Category != "" {
		t.Fatalf("category must not change on repeat calls, got %q", b.Category)
	}

	var n int64
	if err := db.Model(&domain.ChatRoom{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one room, got %d", n)
	}
}

func TestGetOrCreateRoom_ConcurrentCallersSingleRoom(t *testing.T) {
	db := newRepoDB(t, &domain.ChatRoom{})
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	ids := make([]string, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Alternate argument order to exercise normalization under race.
			var r *domain.ChatRoom
			var err error
			if i%2 == 0 {
				r, err = GetOrCreateRoom(ctx, db, "alice", "bob", "")
			} else {
				r, err = GetOrCreateRoom(ctx, db, "bob", "alice", "")
			}
			if r != nil {
				ids[i] = r.ID
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("worker %d got room %q, worker 0 got %q", i, ids[i], ids[0])
		}
	}

	var n int64
	if err := db.Model(&domain.ChatRoom{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one persisted room, got %d", n)
	}
}

func TestGetRoom_ScopedToParticipant(t *testing.T) {
	db := newRepoDB(t, &domain.ChatRoom{})
	ctx := context.Background()

	r, err := GetOrCreateRoom(ctx, db, "alice", "bob", "")
	if err != nil {
		t.Fatalf("GetOrCreateRoom: %v", err)
	}

	if _, err := GetRoom(ctx, db, r.ID, "alice"); err != nil {
		t.Fatalf("participant lookup failed: %v", err)
	}
	if _, err := GetRoom(ctx, db, r.ID, "carol"); err == nil {
		t.Fatal("non-participant lookup must fail")
	}
}

func TestListRoomsPage_OrderAndFilter(t *testing.T) {
	db := newRepoDB(t, &domain.ChatRoom{})
	ctx := context.Background()

	// Seed: alice has two rooms, carol+dave one of their own.
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	seed := []domain.ChatRoom{
		{ID: "r1", ParticipantLow: "alice", ParticipantHigh: "bob", PairKey: "alice|bob", CreatedAt: t0},
		{ID: "r2", ParticipantLow: "alice", ParticipantHigh: "carol", PairKey: "alice|carol", CreatedAt: t0.Add(time.Hour)},
		{ID: "r3", ParticipantLow: "carol", ParticipantHigh: "dave", PairKey: "carol|dave", CreatedAt: t0.Add(2 * time.Hour)},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	total, err := CountRooms(ctx, db, "alice")
	if err != nil || total != 2 {
		t.Fatalf("CountRooms = %d, %v", total, err)
	}
	page, err := ListRoomsPage(ctx, db, "alice", 0, 10)
	if err != nil {
		t.Fatalf("ListRoomsPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != "r2" || page[1].ID != "r1" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestRoomsStats(t *testing.T) {
	db := newRepoDB(t, &domain.ChatRoom{})
	ctx := context.Background()

	count, maxTS, err := RoomsStats(ctx, db, "alice")
	if err != nil || count != 0 || maxTS != nil {
		t.Fatalf("empty stats = (%d,%v,%v)", count, maxTS, err)
	}

	if _, err := GetOrCreateRoom(ctx, db, "alice", "bob", ""); err != nil {
		t.Fatalf("seed: %v", err)
	}
	count, maxTS, err = RoomsStats(ctx, db, "alice")
	if err != nil || count != 1 || maxTS == nil {
		t.Fatalf("stats after seed = (%d,%v,%v)", count, maxTS, err)
	}
}
