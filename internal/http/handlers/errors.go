package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorhive/chat-core/internal/services"
)

// Stable error codes returned in ErrorResponse.Code. Clients switch on these,
// so they are part of the API contract.
const (
	CodeValidation       = "validation_error"
	CodeSelfRoom         = "self_room"
	CodeRoomNotFound     = "room_not_found"
	CodeEmptyMessage     = "empty_message"
	CodeMessageTooLong   = "message_too_long"
	CodeRequestNotFound  = "request_not_found"
	CodeNotRequestTarget = "not_request_target"
	CodeRequestClosed    = "request_closed"
	CodeSelfRequest      = "self_request"
	CodeInternal         = "internal_error"
)

// failFromService maps a services-layer error onto a status and stable code.
// Unknown errors become opaque 500s so internals never leak to clients.
func failFromService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSelfRoom):
		fail(c, http.StatusUnprocessableEntity, CodeSelfRoom, "cannot open a room with yourself")
	case errors.Is(err, services.ErrRoomNotFound):
		fail(c, http.StatusNotFound, CodeRoomNotFound, "room not found")
	case errors.Is(err, services.ErrEmptyMessage):
		fail(c, http.StatusUnprocessableEntity, CodeEmptyMessage, "message content is empty")
	case errors.Is(err, services.ErrMessageTooLong):
		fail(c, http.StatusUnprocessableEntity, CodeMessageTooLong, "message content exceeds the maximum length")
	case errors.Is(err, services.ErrRequestNotFound):
		fail(c, http.StatusNotFound, CodeRequestNotFound, "connection request not found or expired")
	case errors.Is(err, services.ErrNotRequestTarget):
		fail(c, http.StatusForbidden, CodeNotRequestTarget, "only the request target may respond")
	case errors.Is(err, services.ErrRequestClosed):
		fail(c, http.StatusConflict, CodeRequestClosed, "connection request already resolved")
	case errors.Is(err, services.ErrSelfRequest):
		fail(c, http.StatusUnprocessableEntity, CodeSelfRequest, "cannot send a connection request to yourself")
	case errors.Is(err, services.ErrMissingParticipant):
		fail(c, http.StatusUnprocessableEntity, CodeValidation, "participant id is required")
	default:
		fail(c, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}
