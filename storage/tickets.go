package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"boardify-api/domain"
)

const ticketColumns = `id, board_id, stage_nr, is_done, title, description, created_at, due_at`

// InsertTicket reports domain.ErrBoardNotFound when the board was deleted concurrently.
func (q *queries) InsertTicket(ctx context.Context, t domain.Ticket) error {
	_, err := q.tx.Exec(ctx, `
		INSERT INTO tickets (`+ticketColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.BoardID, t.StageNr, t.IsDone, t.Title, t.Description, t.CreatedAt, t.DueAt)
	if isForeignKeyViolation(err) {
		return domain.ErrBoardNotFound
	}
	return err
}

func (q *queries) GetTicket(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	return q.selectTicket(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
}

// GetTicketForUpdate locks the ticket row until the transaction ends. Concurrent
// writers of the same ticket wait and then read the committed row.
func (q *queries) GetTicketForUpdate(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	return q.selectTicket(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1 FOR UPDATE`, id)
}

func (q *queries) selectTicket(ctx context.Context, sql string, id uuid.UUID) (*domain.Ticket, error) {
	rows, err := q.tx.Query(ctx, sql, id)
	if err != nil {
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	t, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[domain.Ticket])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return &t, nil
}

func (q *queries) UpdateTicket(ctx context.Context, t domain.Ticket) error {
	_, err := q.tx.Exec(ctx, `
		UPDATE tickets
		SET stage_nr = $2, is_done = $3, title = $4, description = $5, due_at = $6
		WHERE id = $1`,
		t.ID, t.StageNr, t.IsDone, t.Title, t.Description, t.DueAt)
	return err
}

// DeleteTicket relies on ON DELETE CASCADE for the ticket's tag links.
func (q *queries) DeleteTicket(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := q.tx.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (q *queries) ListTickets(ctx context.Context, boardID uuid.UUID) ([]domain.Ticket, error) {
	rows, err := q.tx.Query(ctx, `
		SELECT `+ticketColumns+` FROM tickets
		WHERE board_id = $1
		ORDER BY created_at, id`, boardID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Ticket])
}

func (q *queries) DeleteTicketTags(ctx context.Context, ticketID uuid.UUID) error {
	_, err := q.tx.Exec(ctx, `DELETE FROM ticket_tag_links WHERE ticket_id = $1`, ticketID)
	return err
}

func (q *queries) InsertTicketTags(ctx context.Context, ticketID, boardID uuid.UUID, tagNrs []int) error {
	batch := &pgx.Batch{}
	for _, nr := range tagNrs {
		batch.Queue(`
			INSERT INTO ticket_tag_links (ticket_id, board_id, tag_nr)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`, ticketID, boardID, nr)
	}
	return q.sendBatch(ctx, batch)
}

func (q *queries) TicketTags(ctx context.Context, ticketID uuid.UUID) ([]domain.Tag, error) {
	rows, err := q.tx.Query(ctx, `
		SELECT g.nr, g.name
		FROM ticket_tag_links l
		JOIN tags g ON g.board_id = l.board_id AND g.nr = l.tag_nr
		WHERE l.ticket_id = $1
		ORDER BY g.nr`, ticketID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Tag])
}

func (q *queries) BoardTicketTags(ctx context.Context, boardID uuid.UUID) (map[uuid.UUID][]domain.Tag, error) {
	rows, err := q.tx.Query(ctx, `
		SELECT l.ticket_id, g.nr, g.name
		FROM ticket_tag_links l
		JOIN tags g ON g.board_id = l.board_id AND g.nr = l.tag_nr
		WHERE l.board_id = $1
		ORDER BY l.ticket_id, g.nr`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domain.Tag)
	for rows.Next() {
		var ticketID uuid.UUID
		var tag domain.Tag
		if err := rows.Scan(&ticketID, &tag.Nr, &tag.Name); err != nil {
			return nil, err
		}
		out[ticketID] = append(out[ticketID], tag)
	}
	return out, rows.Err()
}
