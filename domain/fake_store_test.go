package domain

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
)

var errInjected = errors.New("injected failure")

type fakeStore struct {
	users   map[string]User
	boards  map[uuid.UUID]Board
	stages  map[uuid.UUID][]Stage
	tags    map[uuid.UUID][]Tag
	tickets map[uuid.UUID]Ticket
	links   map[uuid.UUID][]int

	// failOn names a Tx method that returns errInjected when called.
	failOn string
	// locked records the ticket ids read through GetTicketForUpdate.
	locked []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   map[string]User{},
		boards:  map[uuid.UUID]Board{},
		stages:  map[uuid.UUID][]Stage{},
		tags:    map[uuid.UUID][]Tag{},
		tickets: map[uuid.UUID]Ticket{},
		links:   map[uuid.UUID][]int{},
	}
}

func (f *fakeStore) ReadTx(ctx context.Context, fn func(tx Tx) error) error {
	return fn(f)
}

func (f *fakeStore) WriteTx(ctx context.Context, fn func(tx Tx) error) error {
	snap := f.clone()
	if err := fn(f); err != nil {
		f.users, f.boards, f.stages, f.tags, f.tickets, f.links =
			snap.users, snap.boards, snap.stages, snap.tags, snap.tickets, snap.links
		return err
	}
	return nil
}

func (f *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	for k, v := range f.users {
		c.users[k] = v
	}
	for k, v := range f.boards {
		c.boards[k] = v
	}
	for k, v := range f.stages {
		c.stages[k] = append([]Stage(nil), v...)
	}
	for k, v := range f.tags {
		c.tags[k] = append([]Tag(nil), v...)
	}
	for k, v := range f.tickets {
		c.tickets[k] = v
	}
	for k, v := range f.links {
		c.links[k] = append([]int(nil), v...)
	}
	return c
}

func (f *fakeStore) fail(op string) error {
	if f.failOn == op {
		return errInjected
	}
	return nil
}

func (f *fakeStore) InsertUser(ctx context.Context, u User) error {
	if err := f.fail("InsertUser"); err != nil {
		return err
	}
	if _, ok := f.users[u.Username]; ok {
		return ErrDuplicateUsername
	}
	f.users[u.Username] = u
	return nil
}

func (f *fakeStore) UserByUsername(ctx context.Context, username string) (*User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeStore) ListBoardOverviews(ctx context.Context) ([]BoardOverview, error) {
	out := make([]BoardOverview, 0, len(f.boards))
	for _, b := range f.boards {
		ov := BoardOverview{ID: b.ID, Name: b.Name}
		for _, t := range f.tickets {
			if t.BoardID != b.ID {
				continue
			}
			ov.TicketsCount++
			if t.IsDone {
				ov.DoneTicketsCount++
			}
		}
		out = append(out, ov)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (f *fakeStore) GetBoard(ctx context.Context, id uuid.UUID) (*Board, error) {
	b, ok := f.boards[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (f *fakeStore) InsertBoard(ctx context.Context, b Board) error {
	if err := f.fail("InsertBoard"); err != nil {
		return err
	}
	f.boards[b.ID] = b
	return nil
}

func (f *fakeStore) UpdateBoard(ctx context.Context, b Board) error {
	f.boards[b.ID] = b
	return nil
}

func (f *fakeStore) DeleteBoard(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, ok := f.boards[id]; !ok {
		return false, nil
	}
	delete(f.boards, id)
	delete(f.stages, id)
	delete(f.tags, id)
	for tid, t := range f.tickets {
		if t.BoardID == id {
			delete(f.tickets, tid)
			delete(f.links, tid)
		}
	}
	return true, nil
}

func (f *fakeStore) InsertStages(ctx context.Context, boardID uuid.UUID, stages []Stage) error {
	if err := f.fail("InsertStages"); err != nil {
		return err
	}
	f.stages[boardID] = append(f.stages[boardID], stages...)
	return nil
}

func (f *fakeStore) ListStages(ctx context.Context, boardID uuid.UUID) ([]Stage, error) {
	out := append([]Stage(nil), f.stages[boardID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Nr < out[j].Nr })
	return out, nil
}

func (f *fakeStore) InsertTags(ctx context.Context, boardID uuid.UUID, tags []Tag) error {
	if err := f.fail("InsertTags"); err != nil {
		return err
	}
	f.tags[boardID] = append(f.tags[boardID], tags...)
	return nil
}

func (f *fakeStore) ListTags(ctx context.Context, boardID uuid.UUID) ([]Tag, error) {
	out := append([]Tag(nil), f.tags[boardID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Nr < out[j].Nr })
	return out, nil
}

func (f *fakeStore) InsertTicket(ctx context.Context, t Ticket) error {
	if err := f.fail("InsertTicket"); err != nil {
		return err
	}
	f.tickets[t.ID] = t
	return nil
}

func (f *fakeStore) GetTicket(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	t, ok := f.tickets[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeStore) GetTicketForUpdate(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	f.locked = append(f.locked, id)
	return f.GetTicket(ctx, id)
}

func (f *fakeStore) UpdateTicket(ctx context.Context, t Ticket) error {
	f.tickets[t.ID] = t
	return nil
}

func (f *fakeStore) DeleteTicket(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, ok := f.tickets[id]; !ok {
		return false, nil
	}
	delete(f.tickets, id)
	delete(f.links, id)
	return true, nil
}

func (f *fakeStore) ListTickets(ctx context.Context, boardID uuid.UUID) ([]Ticket, error) {
	var out []Ticket
	for _, t := range f.tickets {
		if t.BoardID == boardID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (f *fakeStore) DeleteTicketTags(ctx context.Context, ticketID uuid.UUID) error {
	delete(f.links, ticketID)
	return nil
}

func (f *fakeStore) InsertTicketTags(ctx context.Context, ticketID, boardID uuid.UUID, tagNrs []int) error {
	if err := f.fail("InsertTicketTags"); err != nil {
		return err
	}
	f.links[ticketID] = append(f.links[ticketID], tagNrs...)
	return nil
}

func (f *fakeStore) TicketTags(ctx context.Context, ticketID uuid.UUID) ([]Tag, error) {
	t, ok := f.tickets[ticketID]
	if !ok {
		return nil, nil
	}
	byNr := map[int]Tag{}
	for _, tag := range f.tags[t.BoardID] {
		byNr[tag.Nr] = tag
	}
	var out []Tag
	for _, nr := range f.links[ticketID] {
		out = append(out, byNr[nr])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nr < out[j].Nr })
	return out, nil
}

func (f *fakeStore) BoardTicketTags(ctx context.Context, boardID uuid.UUID) (map[uuid.UUID][]Tag, error) {
	out := map[uuid.UUID][]Tag{}
	for id, t := range f.tickets {
		if t.BoardID != boardID {
			continue
		}
		tags, _ := f.TicketTags(ctx, id)
		if len(tags) > 0 {
			out[id] = tags
		}
	}
	return out, nil
}
