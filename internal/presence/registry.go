// Package presence tracks which users currently hold at least one live
// connection. The registry is an in-memory map pair guarded by a RWMutex:
// forward (user → set of connections) for online listing, reverse
// (connection → user) for O(1) disconnects. Nothing here is durable; the
// registry rebuilds itself from reconnects after a process restart.
package presence

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"

	"github.com/tutorhive/chat-core/internal/domain"
)

var (
	connGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "presence_connections",
		Help: "Current number of live connections.",
	})
	userGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "presence_online_users",
		Help: "Current number of distinct online users.",
	})
)

func init() {
	prometheus.MustRegister(connGauge, userGauge)
}

// Registry is the in-memory presence directory. Safe for concurrent use.
// Reads are snapshots with no ordering guarantee relative to concurrent
// connect/disconnect calls; they only drive a "who's available" hint.
type Registry struct {
	mu    sync.RWMutex
	users map[string]map[string]domain.PresenceEntry // user → connID → entry
	conns map[string]string                          // connID → user
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]map[string]domain.PresenceEntry),
		conns: make(map[string]string),
	}
}

// Connect records a live connection for userID. A user may hold any number of
// concurrent connections (multi-device). Reports whether the user was offline
// before this call, i.e. whether this connection brought them online.
func (r *Registry) Connect(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	wasOffline := len(r.users[userID]) == 0
	if r.users[userID] == nil {
		r.users[userID] = make(map[string]domain.PresenceEntry)
	}
	if _, dup := r.conns[connID]; !dup {
		connGauge.Inc()
	}
	r.users[userID][connID] = domain.PresenceEntry{
		UserID:      userID,
		ConnID:      connID,
		ConnectedAt: time.Now().UTC(),
	}
	r.conns[connID] = userID
	if wasOffline {
		userGauge.Inc()
	}
	return wasOffline
}

// Disconnect removes exactly the entry for connID. Reports the owning user
// and whether that user went fully offline (no remaining connections).
// Unknown connection ids are ignored.
func (r *Registry) Disconnect(connID string) (userID string, wentOffline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.conns[connID]
	if !ok {
		return "", false
	}
	delete(r.conns, connID)
	connGauge.Dec()

	entries := r.users[userID]
	delete(entries, connID)
	if len(entries) == 0 {
		delete(r.users, userID)
		userGauge.Dec()
		return userID, true
	}
	return userID, false
}

// IsOnline reports whether userID holds at least one live connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID]) > 0
}

// OnlineUsers returns the ids of all currently connected users, deduplicated
// across devices and sorted for stable output. excluding (usually the caller)
// is omitted when non-empty.
func (r *Registry) OnlineUsers(excluding string) []string {
	r.mu.RLock()
	ids := lo.Keys(r.users)
	r.mu.RUnlock()

	if excluding != "" {
		ids = lo.Without(ids, excluding)
	}
	sort.Strings(ids)
	return ids
}

// Connections returns the number of live connections held by userID.
func (r *Registry) Connections(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID])
}
