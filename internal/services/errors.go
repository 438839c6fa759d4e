// Package services defines the business logic for the chat core: room
// directory, message store, and the handshake orchestrator. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

var (
	// ErrSelfRoom is returned when a caller attempts to open a room with
	// themselves. Self-chat is not a supported room state.
	ErrSelfRoom = errors.New("cannot open a room with yourself")

	// ErrRoomNotFound indicates that the requested room does not exist or the
	// caller is not one of its participants.
	ErrRoomNotFound = errors.New("room not found")

	// ErrEmptyMessage is returned when a send carries no content after
	// normalization.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned when content exceeds the configured
	// maximum rune count.
	ErrMessageTooLong = errors.New("message too long")

	// ErrRequestNotFound indicates that the handshake request does not exist
	// or has expired.
	ErrRequestNotFound = errors.New("request not found")

	// ErrNotRequestTarget is returned when accept/reject is attempted by a
	// caller who is not the request's designated target.
	ErrNotRequestTarget = errors.New("caller is not the request target")

	// ErrRequestClosed is returned when a request has already reached a
	// terminal state; terminal states transition exactly once.
	ErrRequestClosed = errors.New("request already accepted or rejected")

	// ErrSelfRequest is returned when a user addresses a handshake request
	// to themselves.
	ErrSelfRequest = errors.New("cannot request a chat with yourself")

	// ErrMissingParticipant is returned when a participant id required by
	// the operation is blank. Rejected before any side effect.
	ErrMissingParticipant = errors.New("participant id is required")
)
