package services

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
	"github.com/tutorhive/chat-core/internal/repo"
)

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("svc_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.ChatRoom{}, &domain.ChatMessage{}, &domain.Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// roomRepoShim adapts the repo free functions to the RoomRepo interface.
type roomRepoShim struct{}

func (roomRepoShim) GetOrCreateRoom(ctx context.Context, db *gorm.DB, a, b, category string) (*domain.ChatRoom, error) {
	return repo.GetOrCreateRoom(ctx, db, a, b, category)
}

func (roomRepoShim) GetRoom(ctx context.Context, db *gorm.DB, id, userID string) (*domain.ChatRoom, error) {
	return repo.GetRoom(ctx, db, id, userID)
}

func (roomRepoShim) CountRooms(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountRooms(ctx, db, userID)
}

func (roomRepoShim) ListRoomsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.ChatRoom, error) {
	return repo.ListRoomsPage(ctx, db, userID, offset, limit)
}

// fakeDispatcher records every dispatched event for assertions.
type fakeDispatcher struct {
	mu     sync.Mutex
	room   []dispatched
	direct []dispatched
}

type dispatched struct {
	target string
	event  any
}

func (f *fakeDispatcher) Broadcast(roomID string, event any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.room = append(f.room, dispatched{target: roomID, event: event})
}

func (f *fakeDispatcher) SendToUser(userID string, event any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.direct = append(f.direct, dispatched{target: userID, event: event})
}

func (f *fakeDispatcher) directTo(userID string) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []any
	for _, d := range f.direct {
		if d.target == userID {
			out = append(out, d.event)
		}
	}
	return out
}

func (f *fakeDispatcher) broadcasts(roomID string) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []any
	for _, d := range f.room {
		if d.target == roomID {
			out = append(out, d.event)
		}
	}
	return out
}
