package domain

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// TicketService orchestrates ticket writes and keeps IsDone consistent with the board stages.
type TicketService struct {
	st  Store
	now func() time.Time
}

func NewTicketService(st Store) TicketService { return TicketService{st: st, now: time.Now} }

// CreateTicket stores a ticket on boardID. Tag nrs that do not exist on the board are dropped.
func (s TicketService) CreateTicket(ctx context.Context, boardID uuid.UUID, in TicketCreate) (TicketPublic, error) {
	if err := in.Validate(); err != nil {
		return TicketPublic{}, err
	}
	t := Ticket{
		ID:          uuid.New(),
		BoardID:     boardID,
		StageNr:     in.StageNr,
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   s.now().UTC(),
		DueAt:       in.DueAt,
	}
	var out TicketPublic
	err := s.st.WriteTx(ctx, func(tx Tx) error {
		b, err := tx.GetBoard(ctx, boardID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBoardNotFound
		}
		stages, err := tx.ListStages(ctx, boardID)
		if err != nil {
			return fmt.Errorf("list stages: %w", err)
		}
		if t.IsDone, err = ResolveCompletion(stages, t.StageNr); err != nil {
			return err
		}
		if err := tx.InsertTicket(ctx, t); err != nil {
			return fmt.Errorf("insert ticket: %w", err)
		}
		if err := linkTags(ctx, tx, t, in.TagNrs); err != nil {
			return err
		}
		out, err = loadTicket(ctx, tx, t.ID)
		return err
	})
	if err != nil {
		return TicketPublic{}, err
	}
	log.WithFields(log.Fields{"ticket": t.ID, "board": boardID, "done": out.IsDone}).Debug("ticket created")
	return out, nil
}

// UpdateTicket applies the supplied fields. Writing StageNr recomputes IsDone; a present
// TagNrs replaces the ticket's links.
func (s TicketService) UpdateTicket(ctx context.Context, id uuid.UUID, upd TicketUpdate) (TicketPublic, error) {
	if err := upd.Validate(); err != nil {
		return TicketPublic{}, err
	}
	var out TicketPublic
	err := s.st.WriteTx(ctx, func(tx Tx) error {
		t, err := tx.GetTicketForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return ErrTicketNotFound
		}
		if upd.StageNr != nil {
			stages, err := tx.ListStages(ctx, t.BoardID)
			if err != nil {
				return fmt.Errorf("list stages: %w", err)
			}
			if t.IsDone, err = ResolveCompletion(stages, *upd.StageNr); err != nil {
				return err
			}
			t.StageNr = *upd.StageNr
		}
		if upd.Title != nil {
			t.Title = *upd.Title
		}
		if upd.Description != nil {
			t.Description = *upd.Description
		}
		if upd.DueAt != nil {
			t.DueAt = upd.DueAt
		}
		if err := tx.UpdateTicket(ctx, *t); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		if upd.TagNrs != nil {
			if err := tx.DeleteTicketTags(ctx, t.ID); err != nil {
				return fmt.Errorf("clear ticket tags: %w", err)
			}
			if err := linkTags(ctx, tx, *t, *upd.TagNrs); err != nil {
				return err
			}
		}
		out, err = loadTicket(ctx, tx, t.ID)
		return err
	})
	return out, err
}

// DeleteTicket removes a ticket and its tag links.
func (s TicketService) DeleteTicket(ctx context.Context, id uuid.UUID) error {
	return s.st.WriteTx(ctx, func(tx Tx) error {
		deleted, err := tx.DeleteTicket(ctx, id)
		if err != nil {
			return fmt.Errorf("delete ticket: %w", err)
		}
		if !deleted {
			return ErrTicketNotFound
		}
		return nil
	})
}

// linkTags links the subset of nrs that resolve to tags of the ticket's own board.
func linkTags(ctx context.Context, tx Tx, t Ticket, nrs []int) error {
	if len(nrs) == 0 {
		return nil
	}
	tags, err := tx.ListTags(ctx, t.BoardID)
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}
	resolved := ResolveTagNrs(tags, nrs)
	if dropped := len(nrs) - len(resolved); dropped > 0 {
		log.WithFields(log.Fields{"ticket": t.ID, "board": t.BoardID, "dropped": dropped}).Debug("unresolved tag nrs dropped")
	}
	if len(resolved) == 0 {
		return nil
	}
	if err := tx.InsertTicketTags(ctx, t.ID, t.BoardID, resolved); err != nil {
		return fmt.Errorf("link tags: %w", err)
	}
	return nil
}

// ResolveTagNrs returns the distinct nrs of requested that exist in tags, ascending.
func ResolveTagNrs(tags []Tag, requested []int) []int {
	known := make(map[int]struct{}, len(tags))
	for _, t := range tags {
		known[t.Nr] = struct{}{}
	}
	out := make([]int, 0, len(requested))
	seen := make(map[int]struct{}, len(requested))
	for _, nr := range requested {
		if _, ok := known[nr]; !ok {
			continue
		}
		if _, dup := seen[nr]; dup {
			continue
		}
		seen[nr] = struct{}{}
		out = append(out, nr)
	}
	sort.Ints(out)
	return out
}

func loadTicket(ctx context.Context, tx Tx, id uuid.UUID) (TicketPublic, error) {
	t, err := tx.GetTicket(ctx, id)
	if err != nil {
		return TicketPublic{}, err
	}
	if t == nil {
		return TicketPublic{}, ErrTicketNotFound
	}
	tags, err := tx.TicketTags(ctx, id)
	if err != nil {
		return TicketPublic{}, fmt.Errorf("list ticket tags: %w", err)
	}
	return TicketPublic{Ticket: *t, Tags: nonNil(tags)}, nil
}
