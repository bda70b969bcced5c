package services

import "time"

// UploadTicket binds an issued upload slot to a node, a key and the user it was issued to
type UploadTicket struct {
	UploadID   string
	NodeID     string
	StorageKey string
	UserID     string
	ExpiresAt  time.Time
}

// UploadTicketSigner mints and checks the opaque token handed out with an upload slot.
// The client echoes the token back on confirm so the server can tell the slot is its own.
type UploadTicketSigner interface {
	// Sign encodes ticket into a token that expires at ticket.ExpiresAt
	Sign(ticket *UploadTicket) (string, error)

	// Verify decodes token. Returns domain.ErrValidation for a tampered or expired token.
	Verify(token string) (*UploadTicket, error)
}
