package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tutorhive/chat-core/internal/domain"
)

func newMessageService(t *testing.T) (*MessageService, *fakeDispatcher) {
	t.Helper()
	db := newSvcDB(t)
	disp := &fakeDispatcher{}
	return &MessageService{
		DB:              db,
		Rooms:           NewRoomService(db, roomRepoShim{}),
		Dispatcher:      disp,
		MaxContentRunes: 2000,
	}, disp
}

func TestSend_PersistsAndBroadcasts(t *testing.T) {
	svc, disp := newMessageService(t)
	ctx := context.Background()

	room, err := svc.Rooms.Open(ctx, "alice", "bob", "")
	if err != nil {
		t.Fatalf("open room: %v", err)
	}

	m, err := svc.Send(ctx, "alice", room.ID, "  hello bob  ")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if m.ID == 0 || m.Content != "hello bob" || m.SenderID != "alice" {
		t.Fatalf("unexpected message: %+v", m)
	}

	events := disp.broadcasts(room.ID)
	if len(events) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(events))
	}
	posted, ok := events[0].(domain.MessagePosted)
	if !ok || posted.Type != domain.EventMessagePosted || posted.Message.ID != m.ID {
		t.Fatalf("unexpected broadcast payload: %+v", events[0])
	}
}

func TestSend_Validation(t *testing.T) {
	svc, disp := newMessageService(t)
	ctx := context.Background()

	room, err := svc.Rooms.Open(ctx, "alice", "bob", "")
	if err != nil {
		t.Fatalf("open room: %v", err)
	}

	if _, err := svc.Send(ctx, "alice", room.ID, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("blank content: %v", err)
	}
	if _, err := svc.Send(ctx, "alice", room.ID, strings.Repeat("x", 2001)); !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("oversized content: %v", err)
	}
	if len(disp.broadcasts(room.ID)) != 0 {
		t.Fatal("validation failures must not broadcast")
	}
}

func TestSend_NonParticipantRejected(t *testing.T) {
	svc, disp := newMessageService(t)
	ctx := context.Background()

	room, err := svc.Rooms.Open(ctx, "alice", "bob", "")
	if err != nil {
		t.Fatalf("open room: %v", err)
	}

	if _, err := svc.Send(ctx, "mallory", room.ID, "hi"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
	if len(disp.broadcasts(room.ID)) != 0 {
		t.Fatal("rejected send must not broadcast")
	}
}

func TestListBefore_CursorWalkThroughService(t *testing.T) {
	svc, _ := newMessageService(t)
	ctx := context.Background()

	room, err := svc.Rooms.Open(ctx, "alice", "bob", "")
	if err != nil {
		t.Fatalf("open room: %v", err)
	}
	for _, content := range []string{"m1", "m2", "m3", "m4", "m5"} {
		if _, err := svc.Send(ctx, "alice", room.ID, content); err != nil {
			t.Fatalf("send %s: %v", content, err)
		}
	}

	head, err := svc.ListBefore(ctx, "bob", room.ID, 0, 3)
	if err != nil {
		t.Fatalf("head page: %v", err)
	}
	if len(head) != 3 || head[0].Content != "m5" || head[2].Content != "m3" {
		t.Fatalf("head page wrong: %+v", head)
	}

	tail, err := svc.ListBefore(ctx, "bob", room.ID, head[2].ID, 3)
	if err != nil {
		t.Fatalf("tail page: %v", err)
	}
	if len(tail) != 2 || tail[0].Content != "m2" || tail[1].Content != "m1" {
		t.Fatalf("tail page wrong: %+v", tail)
	}

	if _, err := svc.ListBefore(ctx, "mallory", room.ID, 0, 3); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("outsider listing: %v", err)
	}
}

func TestMarkRead_CounterpartOnly(t *testing.T) {
	svc, _ := newMessageService(t)
	ctx := context.Background()

	room, err := svc.Rooms.Open(ctx, "alice", "bob", "")
	if err != nil {
		t.Fatalf("open room: %v", err)
	}
	if _, err := svc.Send(ctx, "alice", room.ID, "unread"); err != nil {
		t.Fatalf("send: %v", err)
	}

	n, err := svc.MarkRead(ctx, "bob", room.ID)
	if err != nil || n != 1 {
		t.Fatalf("MarkRead = (%d, %v)", n, err)
	}
	n, err = svc.MarkRead(ctx, "alice", room.ID)
	if err != nil || n != 0 {
		t.Fatalf("sender MarkRead = (%d, %v)", n, err)
	}
	if _, err := svc.MarkRead(ctx, "mallory", room.ID); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("outsider MarkRead: %v", err)
	}
}
