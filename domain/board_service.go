package domain

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// BoardService orchestrates board reads and writes.
type BoardService struct{ st Store }

func NewBoardService(st Store) BoardService { return BoardService{st: st} }

// ListBoards returns every board with ticket counters taken from a single aggregate read.
func (s BoardService) ListBoards(ctx context.Context) ([]BoardOverview, error) {
	var out []BoardOverview
	err := s.st.ReadTx(ctx, func(tx Tx) error {
		var err error
		out, err = tx.ListBoardOverviews(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	if out == nil {
		out = []BoardOverview{}
	}
	return out, nil
}

// GetBoard returns a board with its stages, tags and tickets.
func (s BoardService) GetBoard(ctx context.Context, id uuid.UUID) (BoardPublic, error) {
	var out BoardPublic
	err := s.st.ReadTx(ctx, func(tx Tx) error {
		var err error
		out, err = loadBoard(ctx, tx, id)
		return err
	})
	return out, err
}

// CreateBoard stores a board with its full stage and tag sets atomically.
func (s BoardService) CreateBoard(ctx context.Context, in BoardCreate) (BoardPublic, error) {
	if err := in.Validate(); err != nil {
		return BoardPublic{}, err
	}
	b := Board{ID: uuid.New(), Name: in.Name}
	var out BoardPublic
	err := s.st.WriteTx(ctx, func(tx Tx) error {
		if err := tx.InsertBoard(ctx, b); err != nil {
			return fmt.Errorf("insert board: %w", err)
		}
		if err := tx.InsertStages(ctx, b.ID, in.Stages); err != nil {
			return fmt.Errorf("insert stages: %w", err)
		}
		if err := tx.InsertTags(ctx, b.ID, in.Tags); err != nil {
			return fmt.Errorf("insert tags: %w", err)
		}
		var err error
		out, err = loadBoard(ctx, tx, b.ID)
		return err
	})
	if err != nil {
		return BoardPublic{}, err
	}
	log.WithFields(log.Fields{"board": b.ID, "stages": len(in.Stages), "tags": len(in.Tags)}).Debug("board created")
	return out, nil
}

// UpdateBoard applies a partial update; only the name is mutable.
func (s BoardService) UpdateBoard(ctx context.Context, id uuid.UUID, upd BoardUpdate) (BoardPublic, error) {
	if upd.Name != nil && *upd.Name == "" {
		return BoardPublic{}, invalid("name", "must not be empty")
	}
	var out BoardPublic
	err := s.st.WriteTx(ctx, func(tx Tx) error {
		b, err := tx.GetBoard(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBoardNotFound
		}
		if upd.Name != nil {
			b.Name = *upd.Name
			if err := tx.UpdateBoard(ctx, *b); err != nil {
				return fmt.Errorf("update board: %w", err)
			}
		}
		out, err = loadBoard(ctx, tx, id)
		return err
	})
	return out, err
}

// DeleteBoard removes a board together with its stages, tags, tickets and tag links.
func (s BoardService) DeleteBoard(ctx context.Context, id uuid.UUID) error {
	return s.st.WriteTx(ctx, func(tx Tx) error {
		deleted, err := tx.DeleteBoard(ctx, id)
		if err != nil {
			return fmt.Errorf("delete board: %w", err)
		}
		if !deleted {
			return ErrBoardNotFound
		}
		return nil
	})
}

func loadBoard(ctx context.Context, tx Tx, id uuid.UUID) (BoardPublic, error) {
	b, err := tx.GetBoard(ctx, id)
	if err != nil {
		return BoardPublic{}, err
	}
	if b == nil {
		return BoardPublic{}, ErrBoardNotFound
	}
	stages, err := tx.ListStages(ctx, id)
	if err != nil {
		return BoardPublic{}, fmt.Errorf("list stages: %w", err)
	}
	tags, err := tx.ListTags(ctx, id)
	if err != nil {
		return BoardPublic{}, fmt.Errorf("list tags: %w", err)
	}
	tickets, err := tx.ListTickets(ctx, id)
	if err != nil {
		return BoardPublic{}, fmt.Errorf("list tickets: %w", err)
	}
	links, err := tx.BoardTicketTags(ctx, id)
	if err != nil {
		return BoardPublic{}, fmt.Errorf("list ticket tags: %w", err)
	}

	out := BoardPublic{
		ID:      b.ID,
		Name:    b.Name,
		Stages:  nonNil(stages),
		Tags:    nonNil(tags),
		Tickets: make([]TicketPublic, 0, len(tickets)),
	}
	for _, t := range tickets {
		out.Tickets = append(out.Tickets, TicketPublic{Ticket: t, Tags: nonNil(links[t.ID])})
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
