package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tutorhive/chat-core/internal/auth"
	"github.com/tutorhive/chat-core/internal/broker"
	"github.com/tutorhive/chat-core/internal/config"
	"github.com/tutorhive/chat-core/internal/presence"
	"github.com/tutorhive/chat-core/internal/repo"
)

// newHubTestServer wires the router with a live in-process hub so the
// /events stream is registered, unlike newTestServer's nop dispatcher.
func newHubTestServer(t *testing.T) (*gin.Engine, *presence.Registry) {
	t.Helper()

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	reg := presence.NewRegistry()
	hub := broker.NewHub(zerolog.Nop(), 16)
	cfg := config.Config{
		APIBasePath:     "/api/v1",
		MaxMessageRunes: 100,
		HandshakeTTL:    time.Minute,
		IdempotencyTTL:  time.Hour,
		RateBypass:      true,
	}

	r := gin.New()
	RegisterRoutes(r, Deps{
		DB:         db,
		Dispatcher: hub,
		Verifier:   auth.HeaderVerifier{},
		Presence:   reg,
		Hub:        hub,
	}, cfg)
	return r, reg
}

// sseRecorder is a concurrency-safe ResponseWriter: the stream handler
// writes from its own goroutine while the test polls the body.
type sseRecorder struct {
	mu     sync.Mutex
	header http.Header
	buf    bytes.Buffer
	status int
}

func newSSERecorder() *sseRecorder {
	return &sseRecorder{header: make(http.Header)}
}

func (r *sseRecorder) Header() http.Header { return r.header }

func (r *sseRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

func (r *sseRecorder) WriteHeader(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = code
}

func (r *sseRecorder) Flush() {}

func (r *sseRecorder) contains(s string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Contains(r.buf.String(), s)
}

// stream opens /events for userID and returns the recorder, a cancel func,
// and a channel closed when the handler returns.
func stream(r *gin.Engine, userID, query string) (*sseRecorder, context.CancelFunc, chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events"+query, nil).WithContext(ctx)
	req.Header.Set("X-User-ID", userID)
	rec := newSSERecorder()
	done := make(chan struct{})
	go func() {
		r.ServeHTTP(rec, req)
		close(done)
	}()
	return rec, cancel, done
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestEvents_AttachDrivesPresence(t *testing.T) {
	r, reg := newHubTestServer(t)

	rec, cancel, done := stream(r, "bob", "")
	waitFor(t, "bob online", func() bool { return reg.IsOnline("bob") })

	// The REST presence read now reflects the attached stream.
	w := do(t, r, http.MethodGet, "/api/v1/presence/bob", "alice", nil, nil)
	var st struct {
		Online      bool `json:"online"`
		Connections int  `json:"connections"`
	}
	decode(t, w, &st)
	if !st.Online || st.Connections != 1 {
		t.Fatalf("bob status = %+v", st)
	}

	cancel()
	<-done
	waitFor(t, "bob offline", func() bool { return !reg.IsOnline("bob") })
	if rec.status != http.StatusOK {
		t.Fatalf("stream status = %d", rec.status)
	}
	if got := rec.header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("Content-Type = %q", got)
	}
}

func TestEvents_DeliversRoomBroadcastsAndDirectEvents(t *testing.T) {
	r, reg := newHubTestServer(t)

	open := do(t, r, http.MethodPost, "/api/v1/rooms", "alice",
		map[string]string{"other_user_id": "bob"}, nil)
	var room struct {
		ID string `json:"id"`
	}
	decode(t, open, &room)

	rec, cancel, done := stream(r, "bob", "?rooms="+room.ID)
	defer func() { cancel(); <-done }()
	waitFor(t, "bob online", func() bool { return reg.IsOnline("bob") })

	// Room broadcast reaches the joined stream.
	do(t, r, http.MethodPost, "/api/v1/rooms/"+room.ID+"/messages", "alice",
		map[string]string{"content": "hello bob"}, nil)
	waitFor(t, "message delivery", func() bool { return rec.contains("hello bob") })
	if !rec.contains(`"type":"message.posted"`) {
		t.Fatal("missing message.posted event type")
	}
	if !rec.contains("data: ") {
		t.Fatal("payload not framed as SSE data")
	}

	// A handshake addressed to bob rides his private channel, no room join
	// needed.
	do(t, r, http.MethodPost, "/api/v1/handshakes", "carol",
		map[string]string{"to_user_id": "bob"}, nil)
	waitFor(t, "request push", func() bool { return rec.contains(`"type":"request.pushed"`) })

	// Another user coming and going announces on the presence channel.
	_, cancelCarol, doneCarol := stream(r, "carol", "")
	waitFor(t, "carol online event", func() bool { return rec.contains(`"user_id":"carol","online":true`) })
	cancelCarol()
	<-doneCarol
	waitFor(t, "carol offline event", func() bool { return rec.contains(`"user_id":"carol","online":false`) })
}

func TestEvents_RejectsForeignRoom(t *testing.T) {
	r, _ := newHubTestServer(t)
	open := do(t, r, http.MethodPost, "/api/v1/rooms", "alice",
		map[string]string{"other_user_id": "bob"}, nil)
	var room struct {
		ID string `json:"id"`
	}
	decode(t, open, &room)

	w := do(t, r, http.MethodGet, "/api/v1/events?rooms="+room.ID, "mallory", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestEvents_AbsentWithoutHub(t *testing.T) {
	r, _ := newTestServer(t)
	w := do(t, r, http.MethodGet, "/api/v1/events", "alice", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 when no hub is wired", w.Code)
	}
}
