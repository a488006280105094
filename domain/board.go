package domain

import "github.com/google/uuid"

// Board is a named kanban workspace.
type Board struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Stage is a numbered column of a board. Ordering is defined by Nr alone.
type Stage struct {
	Nr   int    `json:"nr"`
	Name string `json:"name"`
}

// Tag is a board scoped label.
type Tag struct {
	Nr   int    `json:"nr"`
	Name string `json:"name"`
}

// BoardOverview is a board with its ticket counters.
type BoardOverview struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	TicketsCount     int       `json:"tickets_count"`
	DoneTicketsCount int       `json:"done_tickets_count"`
}

// BoardPublic is a board with all nested collections resolved.
type BoardPublic struct {
	ID      uuid.UUID      `json:"id"`
	Name    string         `json:"name"`
	Stages  []Stage        `json:"stages"`
	Tags    []Tag          `json:"tags"`
	Tickets []TicketPublic `json:"tickets"`
}

// BoardCreate is the payload for creating a board together with its stages and tags.
type BoardCreate struct {
	Name   string  `json:"name"`
	Stages []Stage `json:"stages"`
	Tags   []Tag   `json:"tags"`
}

// BoardUpdate carries a partial board update; nil fields are preserved.
type BoardUpdate struct {
	Name *string `json:"name"`
}

// Validate checks name presence and nr uniqueness within the stage and tag sets.
func (b BoardCreate) Validate() error {
	if b.Name == "" {
		return invalid("name", "must not be empty")
	}
	seen := make(map[int]struct{}, len(b.Stages))
	for _, s := range b.Stages {
		if _, dup := seen[s.Nr]; dup {
			return invalid("stages", "duplicate stage nr")
		}
		seen[s.Nr] = struct{}{}
	}
	seen = make(map[int]struct{}, len(b.Tags))
	for _, t := range b.Tags {
		if _, dup := seen[t.Nr]; dup {
			return invalid("tags", "duplicate tag nr")
		}
		seen[t.Nr] = struct{}{}
	}
	return nil
}
