package domain

import (
	"context"

	"github.com/google/uuid"
)

// Store opens transactions over the persistent model. Every service operation runs
// inside exactly one of them; fn's error rolls the transaction back.
type Store interface {
	ReadTx(ctx context.Context, fn func(tx Tx) error) error
	WriteTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the repository surface available inside a transaction. Lookups of single rows
// return nil, nil when the row does not exist.
type Tx interface {
	UserStorage
	BoardStorage
	TicketStorage
}

// UserStorage persists accounts.
type UserStorage interface {
	// InsertUser fails with ErrDuplicateUsername when the username is taken.
	InsertUser(ctx context.Context, u User) error
	UserByUsername(ctx context.Context, username string) (*User, error)
}

// BoardStorage persists boards with their stages and tags.
type BoardStorage interface {
	ListBoardOverviews(ctx context.Context) ([]BoardOverview, error)
	GetBoard(ctx context.Context, id uuid.UUID) (*Board, error)
	InsertBoard(ctx context.Context, b Board) error
	UpdateBoard(ctx context.Context, b Board) error
	// DeleteBoard removes the board and everything it owns. It reports whether a row was deleted.
	DeleteBoard(ctx context.Context, id uuid.UUID) (bool, error)

	InsertStages(ctx context.Context, boardID uuid.UUID, stages []Stage) error
	ListStages(ctx context.Context, boardID uuid.UUID) ([]Stage, error)
	InsertTags(ctx context.Context, boardID uuid.UUID, tags []Tag) error
	ListTags(ctx context.Context, boardID uuid.UUID) ([]Tag, error)
}

// TicketStorage persists tickets and their tag links.
type TicketStorage interface {
	InsertTicket(ctx context.Context, t Ticket) error
	GetTicket(ctx context.Context, id uuid.UUID) (*Ticket, error)
	// GetTicketForUpdate is GetTicket holding a write lock on the row until the transaction ends.
	GetTicketForUpdate(ctx context.Context, id uuid.UUID) (*Ticket, error)
	UpdateTicket(ctx context.Context, t Ticket) error
	DeleteTicket(ctx context.Context, id uuid.UUID) (bool, error)
	ListTickets(ctx context.Context, boardID uuid.UUID) ([]Ticket, error)

	// DeleteTicketTags removes every link of one ticket and nothing else.
	DeleteTicketTags(ctx context.Context, ticketID uuid.UUID) error
	// InsertTicketTags links tags by nr; callers pass only nrs that exist on boardID.
	InsertTicketTags(ctx context.Context, ticketID, boardID uuid.UUID, tagNrs []int) error
	// TicketTags returns the tags linked to one ticket ordered by nr.
	TicketTags(ctx context.Context, ticketID uuid.UUID) ([]Tag, error)
	// BoardTicketTags returns the linked tags of every ticket of a board keyed by ticket id.
	BoardTicketTags(ctx context.Context, boardID uuid.UUID) (map[uuid.UUID][]Tag, error)
}
