// Package broker defines the delivery primitive the chat core uses to notify
// clients, plus two implementations: an in-process hub and a NATS publisher.
//
// Dispatch is best effort and at most once. A recipient with no live
// subscription simply misses the event; there is no queued replay. That fits
// the core's contract — messages are durable in the store, notifications are
// not — and is a deliberate durability gap, not a defect to hide.
package broker

// Dispatcher is the injected publish/deliver primitive. Broadcast addresses
// every current subscriber of a room's channel; SendToUser addresses every
// active connection on one user's private channel. Both are fire-and-forget.
//
// Implementations must be safe for concurrent use.
type Dispatcher interface {
	Broadcast(roomID string, event any)
	SendToUser(userID string, event any)
}

// NopDispatcher discards all events. Useful as a default and in tests that
// exercise persistence without caring about delivery.
type NopDispatcher struct{}

// Broadcast implements Dispatcher.
func (NopDispatcher) Broadcast(string, any) {}

// SendToUser implements Dispatcher.
func (NopDispatcher) SendToUser(string, any) {}
