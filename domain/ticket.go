package domain

import (
	"time"

	"github.com/google/uuid"
)

// Ticket is a unit of work on a board. IsDone is derived from StageNr, see ResolveCompletion.
type Ticket struct {
	ID          uuid.UUID  `json:"id"`
	BoardID     uuid.UUID  `json:"board_id"`
	StageNr     int        `json:"stage_nr"`
	IsDone      bool       `json:"is_done"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	DueAt       *time.Time `json:"due_at"`
}

// TicketPublic is a ticket with its resolved tags.
type TicketPublic struct {
	Ticket
	Tags []Tag `json:"tags"`
}

// TicketCreate is the payload for creating a ticket.
type TicketCreate struct {
	StageNr     int        `json:"stage_nr"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"due_at"`
	TagNrs      []int      `json:"tag_nrs"`
}

// TicketUpdate carries a partial ticket update. A non-nil TagNrs, even when empty,
// replaces the whole tag set of the ticket.
type TicketUpdate struct {
	StageNr     *int       `json:"stage_nr"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueAt       *time.Time `json:"due_at"`
	TagNrs      *[]int     `json:"tag_nrs"`
}

func (t TicketCreate) Validate() error {
	if t.Title == "" {
		return invalid("title", "must not be empty")
	}
	return nil
}

func (t TicketUpdate) Validate() error {
	if t.Title != nil && *t.Title == "" {
		return invalid("title", "must not be empty")
	}
	return nil
}
