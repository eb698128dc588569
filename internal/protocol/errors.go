package protocol

import "errors"

// Error message strings. Clients and tests match on these exact values,
// so they are never reworded once in use.
const (
	MsgUnknownType          = "Unknown message type"
	MsgInvalidForModel      = "Invalid message type for this consistency model"
	MsgArticleNotFound      = "Article not found"
	MsgCannotContactCoord   = "Unable to contact coordinator"
	MsgFailedGetIDFromCoord = "Failed to get article ID from coordinator"
	MsgFailedWriteQuorum    = "Failed to write to quorum"
	MsgCommunicationError   = "Communication error"
	MsgNotCoordinator       = "Not coordinator"
)

// ErrUnknownType is returned by Decode when the envelope's "type" field
// does not match any known message.
var ErrUnknownType = errors.New(MsgUnknownType)
