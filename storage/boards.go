package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"boardify-api/domain"
)

// ListBoardOverviews counts tickets per board in one aggregate statement.
func (q *queries) ListBoardOverviews(ctx context.Context) ([]domain.BoardOverview, error) {
	rows, err := q.tx.Query(ctx, `
		SELECT b.id, b.name,
		       COUNT(t.id),
		       COUNT(t.id) FILTER (WHERE t.is_done)
		FROM boards b
		LEFT JOIN tickets t ON t.board_id = b.id
		GROUP BY b.id, b.name
		ORDER BY b.name, b.id`)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[domain.BoardOverview])
}

func (q *queries) GetBoard(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	var b domain.Board
	err := q.tx.QueryRow(ctx, `SELECT id, name FROM boards WHERE id = $1`, id).Scan(&b.ID, &b.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get board: %w", err)
	}
	return &b, nil
}

func (q *queries) InsertBoard(ctx context.Context, b domain.Board) error {
	_, err := q.tx.Exec(ctx, `INSERT INTO boards (id, name) VALUES ($1, $2)`, b.ID, b.Name)
	return err
}

func (q *queries) UpdateBoard(ctx context.Context, b domain.Board) error {
	_, err := q.tx.Exec(ctx, `UPDATE boards SET name = $2 WHERE id = $1`, b.ID, b.Name)
	return err
}

// DeleteBoard relies on ON DELETE CASCADE for stages, tags, tickets and their links.
func (q *queries) DeleteBoard(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := q.tx.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (q *queries) InsertStages(ctx context.Context, boardID uuid.UUID, stages []domain.Stage) error {
	batch := &pgx.Batch{}
	for _, s := range stages {
		batch.Queue(`INSERT INTO stages (board_id, nr, name) VALUES ($1, $2, $3)`, boardID, s.Nr, s.Name)
	}
	return q.sendBatch(ctx, batch)
}

func (q *queries) ListStages(ctx context.Context, boardID uuid.UUID) ([]domain.Stage, error) {
	rows, err := q.tx.Query(ctx, `SELECT nr, name FROM stages WHERE board_id = $1 ORDER BY nr`, boardID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Stage])
}

func (q *queries) InsertTags(ctx context.Context, boardID uuid.UUID, tags []domain.Tag) error {
	batch := &pgx.Batch{}
	for _, t := range tags {
		batch.Queue(`INSERT INTO tags (board_id, nr, name) VALUES ($1, $2, $3)`, boardID, t.Nr, t.Name)
	}
	return q.sendBatch(ctx, batch)
}

func (q *queries) ListTags(ctx context.Context, boardID uuid.UUID) ([]domain.Tag, error) {
	rows, err := q.tx.Query(ctx, `SELECT nr, name FROM tags WHERE board_id = $1 ORDER BY nr`, boardID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Tag])
}

func (q *queries) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	return q.tx.SendBatch(ctx, batch).Close()
}
