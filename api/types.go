package api

import (
	"context"
	"time"

	"github.com/google/uuid"

	"boardify-api/domain"
)

// BoardService is the board surface used by handlers.
type BoardService interface {
	ListBoards(ctx context.Context) ([]domain.BoardOverview, error)
	GetBoard(ctx context.Context, id uuid.UUID) (domain.BoardPublic, error)
	CreateBoard(ctx context.Context, in domain.BoardCreate) (domain.BoardPublic, error)
	UpdateBoard(ctx context.Context, id uuid.UUID, upd domain.BoardUpdate) (domain.BoardPublic, error)
	DeleteBoard(ctx context.Context, id uuid.UUID) error
}

// TicketService is the ticket surface used by handlers.
type TicketService interface {
	CreateTicket(ctx context.Context, boardID uuid.UUID, in domain.TicketCreate) (domain.TicketPublic, error)
	UpdateTicket(ctx context.Context, id uuid.UUID, upd domain.TicketUpdate) (domain.TicketPublic, error)
	DeleteTicket(ctx context.Context, id uuid.UUID) error
}

// UserService registers and authenticates accounts.
type UserService interface {
	RegistrationEnabled() bool
	Register(ctx context.Context, c domain.Credentials) (domain.User, error)
	Authenticate(ctx context.Context, c domain.Credentials) (domain.User, error)
}

// Authenticator issues bearer tokens and resolves them back to users.
type Authenticator interface {
	IssueToken(username string) (string, time.Time, error)
	UserFromAuthHeader(ctx context.Context, header string) (domain.User, error)
}

// Deduper prevents processing of duplicate creates.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, username, key string) (bool, error)
	// Remove deletes a previously added key, used when the create fails.
	Remove(ctx context.Context, username, key string) error
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the dependencies of the HTTP surface.
type Services struct {
	Boards  BoardService
	Tickets TicketService
	Users   UserService
	Auth    Authenticator
	// Deduper is optional; without it Idempotency-Key headers are ignored.
	Deduper Deduper
	Health  Pinger
}
