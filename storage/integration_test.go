//go:build integration

package storage_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"

	"boardify-api/domain"
	"boardify-api/storage"
)

func setupStorage(t *testing.T) *storage.Storage {
	t.Helper()
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("boardify"),
		postgres.WithUsername("boardify"),
		postgres.WithPassword("boardify"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	st, err := storage.New(ctx, connStr, storage.Options{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(st.Close)

	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.Migrate(ctx), "schema must apply twice")
	return st
}

func TestPostgresBoardLifecycle(t *testing.T) {
	st := setupStorage(t)
	ctx := context.Background()
	boards := domain.NewBoardService(st)
	tickets := domain.NewTicketService(st)

	board, err := boards.CreateBoard(ctx, domain.BoardCreate{
		Name:   "Sprint",
		Stages: []domain.Stage{{Nr: 0, Name: "Todo"}, {Nr: 1, Name: "Doing"}, {Nr: 2, Name: "Done"}},
		Tags:   []domain.Tag{{Nr: 0, Name: "bug"}, {Nr: 1, Name: "feature"}},
	})
	require.NoError(t, err)
	assert.Len(t, board.Stages, 3)
	assert.Len(t, board.Tags, 2)
	assert.Empty(t, board.Tickets)

	due := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	ticket, err := tickets.CreateTicket(ctx, board.ID, domain.TicketCreate{
		StageNr: 0,
		Title:   "Fix login",
		DueAt:   &due,
		TagNrs:  []int{0, 5, 0},
	})
	require.NoError(t, err)
	assert.False(t, ticket.IsDone)
	assert.Equal(t, []domain.Tag{{Nr: 0, Name: "bug"}}, ticket.Tags)
	require.NotNil(t, ticket.DueAt)
	assert.True(t, ticket.DueAt.Equal(due))

	stage := 2
	tags := []int{1}
	ticket, err = tickets.UpdateTicket(ctx, ticket.ID, domain.TicketUpdate{StageNr: &stage, TagNrs: &tags})
	require.NoError(t, err)
	assert.True(t, ticket.IsDone)
	assert.Equal(t, []domain.Tag{{Nr: 1, Name: "feature"}}, ticket.Tags)

	other, err := tickets.CreateTicket(ctx, board.ID, domain.TicketCreate{Title: "Write docs"})
	require.NoError(t, err)

	overviews, err := boards.ListBoards(ctx)
	require.NoError(t, err)
	require.Len(t, overviews, 1)
	assert.Equal(t, 2, overviews[0].TicketsCount)
	assert.Equal(t, 1, overviews[0].DoneTicketsCount)

	full, err := boards.GetBoard(ctx, board.ID)
	require.NoError(t, err)
	require.Len(t, full.Tickets, 2)
	assert.Equal(t, ticket.ID, full.Tickets[0].ID)
	assert.Equal(t, other.ID, full.Tickets[1].ID)
	assert.Empty(t, full.Tickets[1].Tags)

	require.NoError(t, boards.DeleteBoard(ctx, board.ID))
	_, err = tickets.UpdateTicket(ctx, ticket.ID, domain.TicketUpdate{})
	assert.ErrorIs(t, err, domain.ErrTicketNotFound)
	_, err = boards.GetBoard(ctx, board.ID)
	assert.ErrorIs(t, err, domain.ErrBoardNotFound)
}

func TestPostgresTagLookupIsScopedToBoard(t *testing.T) {
	st := setupStorage(t)
	ctx := context.Background()
	boards := domain.NewBoardService(st)
	tickets := domain.NewTicketService(st)

	a, err := boards.CreateBoard(ctx, domain.BoardCreate{Name: "A", Stages: []domain.Stage{{Nr: 0, Name: "Todo"}}})
	require.NoError(t, err)
	_, err = boards.CreateBoard(ctx, domain.BoardCreate{
		Name:   "B",
		Stages: []domain.Stage{{Nr: 0, Name: "Todo"}},
		Tags:   []domain.Tag{{Nr: 3, Name: "urgent"}},
	})
	require.NoError(t, err)

	ticket, err := tickets.CreateTicket(ctx, a.ID, domain.TicketCreate{Title: "t", TagNrs: []int{3}})
	require.NoError(t, err)
	assert.Empty(t, ticket.Tags)
}

func TestPostgresDuplicateUsername(t *testing.T) {
	st := setupStorage(t)
	ctx := context.Background()
	users, err := domain.NewUserService(st, domain.NewBCryptHasher(bcrypt.MinCost), true)
	require.NoError(t, err)

	_, err = users.Register(ctx, domain.Credentials{Username: "alice", Password: "pw1"})
	require.NoError(t, err)
	_, err = users.Register(ctx, domain.Credentials{Username: "alice", Password: "pw2"})
	assert.ErrorIs(t, err, domain.ErrDuplicateUsername)

	_, err = users.Authenticate(ctx, domain.Credentials{Username: "alice", Password: "pw1"})
	assert.NoError(t, err)
	_, err = users.Register(ctx, domain.Credentials{Username: "Alice", Password: "pw3"})
	assert.NoError(t, err)
}

func TestPostgresWriteTxRollsBack(t *testing.T) {
	st := setupStorage(t)
	ctx := context.Background()
	boom := errors.New("boom")
	id := uuid.New()

	err := st.WriteTx(ctx, func(tx domain.Tx) error {
		if err := tx.InsertBoard(ctx, domain.Board{ID: id, Name: "ghost"}); err != nil {
			return err
		}
		if err := tx.InsertStages(ctx, id, []domain.Stage{{Nr: 0, Name: "Todo"}}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = st.ReadTx(ctx, func(tx domain.Tx) error {
		b, err := tx.GetBoard(ctx, id)
		if err != nil {
			return err
		}
		assert.Nil(t, b)
		stages, err := tx.ListStages(ctx, id)
		if err != nil {
			return err
		}
		assert.Empty(t, stages)
		return nil
	})
	require.NoError(t, err)
}

func TestPostgresConcurrentTicketUpdatesKeepBothEdits(t *testing.T) {
	st := setupStorage(t)
	ctx := context.Background()
	boards := domain.NewBoardService(st)
	tickets := domain.NewTicketService(st)

	board, err := boards.CreateBoard(ctx, domain.BoardCreate{
		Name:   "Sprint",
		Stages: []domain.Stage{{Nr: 0, Name: "Todo"}, {Nr: 1, Name: "Doing"}, {Nr: 2, Name: "Done"}},
		Tags:   []domain.Tag{{Nr: 0, Name: "bug"}, {Nr: 1, Name: "feature"}, {Nr: 2, Name: "chore"}},
	})
	require.NoError(t, err)
	ticket, err := tickets.CreateTicket(ctx, board.ID, domain.TicketCreate{Title: "draft", TagNrs: []int{0}})
	require.NoError(t, err)

	// Hold the row so both updates read it only after it is released.
	locked := make(chan struct{})
	release := make(chan struct{})
	holder := make(chan error, 1)
	go func() {
		holder <- st.WriteTx(ctx, func(tx domain.Tx) error {
			if _, err := tx.GetTicketForUpdate(ctx, ticket.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	select {
	case <-locked:
	case err := <-holder:
		t.Fatalf("lock ticket: %v", err)
	}

	stage, title := 2, "renamed"
	moveTags, renameTags := []int{1}, []int{2}
	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = tickets.UpdateTicket(ctx, ticket.ID, domain.TicketUpdate{StageNr: &stage, TagNrs: &moveTags})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = tickets.UpdateTicket(ctx, ticket.ID, domain.TicketUpdate{Title: &title, TagNrs: &renameTags})
	}()
	time.Sleep(200 * time.Millisecond)
	close(release)
	require.NoError(t, <-holder)
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	full, err := boards.GetBoard(ctx, board.ID)
	require.NoError(t, err)
	require.Len(t, full.Tickets, 1)
	got := full.Tickets[0]
	assert.Equal(t, "renamed", got.Title)
	assert.Equal(t, 2, got.StageNr)
	assert.True(t, got.IsDone)
	require.Len(t, got.Tags, 1, "tag sets of concurrent updates must not merge")
	assert.Contains(t, []int{1, 2}, got.Tags[0].Nr)
}

func TestPostgresInsertTicketOnMissingBoard(t *testing.T) {
	st := setupStorage(t)
	ctx := context.Background()

	err := st.WriteTx(ctx, func(tx domain.Tx) error {
		return tx.InsertTicket(ctx, domain.Ticket{
			ID:        uuid.New(),
			BoardID:   uuid.New(),
			Title:     "orphan",
			CreatedAt: time.Now().UTC(),
		})
	})
	assert.ErrorIs(t, err, domain.ErrBoardNotFound)
}

func TestPostgresPing(t *testing.T) {
	st := setupStorage(t)
	assert.NoError(t, st.Ping(context.Background()))
}
