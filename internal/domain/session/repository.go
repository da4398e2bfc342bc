package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned by repositories when an identifier addresses no record.
var ErrNotFound = errors.New("session not found")

// Repository exposes data access for Session records. Every implementation
// returns normalized sessions, orders listings by website_index and performs
// updates as a single atomic write.
type Repository interface {
	NativeIDParser

	// List returns the requested page and the total number of matching records.
	List(ctx context.Context, params ListParams) ([]Session, int64, error)
	// FindOne returns the record addressed by id or ErrNotFound.
	FindOne(ctx context.Context, id Identifier) (Session, error)
	// UpdateTranscript sets the transcript and returns the updated record or ErrNotFound.
	UpdateTranscript(ctx context.Context, id Identifier, transcript string) (Session, error)
	// UpdatePeople replaces the people list and returns the updated record or ErrNotFound.
	UpdatePeople(ctx context.Context, id Identifier, people []Person) (Session, error)
	// Ping checks store connectivity.
	Ping(ctx context.Context) error
}

// Seeder replaces the entire contents of a store. It is used by the seeding
// command only; the HTTP API never creates or deletes records.
type Seeder interface {
	ReplaceAll(ctx context.Context, sessions []Session) (int, error)
}
