package mailbox

import "context"

// MessageID is the store-assigned identifier of a message within one
// folder, opaque to everything above the store client.
type MessageID string

// Store opens sessions against the remote mail store. Access is strictly
// read-only; the crawler never flags or deletes source messages.
type Store interface {
	Connect(ctx context.Context) (Session, error)
}

// Session is one authenticated connection. A session is acquired once per
// ingestion cycle and must be closed on every exit path.
type Session interface {
	// List enumerates all message IDs in a folder.
	List(ctx context.Context, folder string) ([]MessageID, error)

	// Fetch retrieves the raw bytes of one message.
	Fetch(ctx context.Context, folder string, id MessageID) ([]byte, error)

	Close() error
}
