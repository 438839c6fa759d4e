package repo

import (
	"context"
	"testing"

	"github.com/tutorhive/chat-core/internal/domain"
)

func TestAppendMessage_AssignsIncreasingIDs(t *testing.T) {
	db := newRepoDB(t, &domain.ChatRoom{}, &domain.ChatMessage{})

	var last int64
	for i := 0; i < 5; i++ {
		m, err := AppendMessage(db, "room-1", "alice", "hello")
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if m.ID <= last {
			t.Fatalf("ids not strictly increasing: %d after %d", m.ID, last)
		}
		if m.CreatedAt.IsZero() || m.IsRead {
			t.Fatalf("unexpected message fields: %+v", m)
		}
		last = m.ID
	}
}

func TestListMessagesBefore_CursorWalk(t *testing.T) {
	db := newRepoDB(t, &domain.ChatRoom{}, &domain.ChatMessage{})

	var ids []int64
	for _, content := range []string{"m1", "m2", "m3", "m4", "m5"} {
		m, err := AppendMessage(db, "room-1", "alice", content)
		if err != nil {
			t.Fatalf("append %s: %v", content, err)
		}
		ids = append(ids, m.ID)
	}

	// Head page: newest first.
	page, err := ListMessagesBefore(db, "room-1", 0, 3)
	if err != nil {
		t.Fatalf("head page: %v", err)
	}
	if len(page) != 3 || page[0].Content != "m5" || page[1].Content != "m4" || page[2].Content != "m3" {
		t.Fatalf("head page wrong: %+v", page)
	}

	// Cursor page: strictly older than m3, no overlap, no gap.
	page, err = ListMessagesBefore(db, "room-1", page[2].ID, 3)
	if err != nil {
		t.Fatalf("cursor page: %v", err)
	}
	if len(page) != 2 || page[0].Content != "m2" || page[1].Content != "m1" {
		t.Fatalf("cursor page wrong: %+v", page)
	}

	// End of history: empty, not an error.
	page, err = ListMessagesBefore(db, "room-1", ids[0], 3)
	if err != nil {
		t.Fatalf("boundary page: %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("expected empty boundary page, got %+v", page)
	}
}

func TestListMessagesBefore_CursorStableUnderInserts(t *testing.T) {
	db := newRepoDB(t, &domain.ChatRoom{}, &domain.ChatMessage{})

	for _, content := range []string{"m1", "m2", "m3", "m4"} {
		if _, err := AppendMessage(db, "room-1", "alice", content); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	first, err := ListMessagesBefore(db, "room-1", 0, 2)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	cursor := first[len(first)-1].ID // m3

	// New messages arrive between page fetches.
	for _, content := range []string{"m5", "m6"} {
		if _, err := AppendMessage(db, "room-1", "bob", content); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	second, err := ListMessagesBefore(db, "room-1", cursor, 2)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second) != 2 || second[0].Content != "m2" || second[1].Content != "m1" {
		t.Fatalf("cursor page disturbed by inserts: %+v", second)
	}
}

func TestListMessagesBefore_FiltersByRoom(t *testing.T) {
	db := newRepoDB(t, &domain.ChatRoom{}, &domain.ChatMessage{})

	if _, err := AppendMessage(db, "room-1", "alice", "one"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := AppendMessage(db, "room-2", "carol", "other"); err != nil {
		t.Fatalf("append: %v", err)
	}

	page, err := ListMessagesBefore(db, "room-1", 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 1 || page[0].Content != "one" {
		t.Fatalf("rooms not isolated: %+v", page)
	}
}

func TestCountMessages_ErrorWithoutTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	if _, err := CountMessages(db, "room-1"); err == nil {
		t.Fatal("expected error counting without table")
	}
}

func TestMarkMessagesRead_OnlyCounterpartMessages(t *testing.T) {
	db := newRepoDB(t, &domain.ChatRoom{}, &domain.ChatMessage{})

	if _, err := AppendMessage(db, "room-1", "alice", "from alice"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := AppendMessage(db, "room-1", "bob", "from bob"); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Bob reads: only alice's message flips.
	n, err := MarkMessagesRead(db, "room-1", "bob")
	if err != nil || n != 1 {
		t.Fatalf("MarkMessagesRead = (%d, %v)", n, err)
	}

	var msgs []domain.ChatMessage
	if err := db.Order("id ASC").Find(&msgs).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if !msgs[0].IsRead || msgs[1].IsRead {
		t.Fatalf("wrong rows flipped: %+v", msgs)
	}

	// Second call is a no-op.
	n, err = MarkMessagesRead(db, "room-1", "bob")
	if err != nil || n != 0 {
		t.Fatalf("second MarkMessagesRead = (%d, %v)", n, err)
	}
}

func TestMessagesStats(t *testing.T) {
	db := newRepoDB(t, &domain.ChatRoom{}, &domain.ChatMessage{})

	count, maxID, err := MessagesStats(context.Background(), db, "room-1")
	if err != nil || count != 0 || maxID != 0 {
		t.Fatalf("empty stats = (%d,%d,%v)", count, maxID, err)
	}

	m, err := AppendMessage(db, "room-1", "alice", "hi")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	count, maxID, err = MessagesStats(context.Background(), db, "room-1")
	if err != nil || count != 1 || maxID != m.ID {
		t.Fatalf("stats after append = (%d,%d,%v)", count, maxID, err)
	}
}
