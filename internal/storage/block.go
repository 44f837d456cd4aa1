package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"boardx/internal/domain"
)

// BlockStore implements domain.BlockStore using SQLite.
type BlockStore struct {
	db *DB
}

func NewBlockStore(db *DB) *BlockStore {
	return &BlockStore{db: db}
}

var _ domain.BlockStore = (*BlockStore)(nil)

const blockColumns = `id, type, data, x, y, width, height`

func (s *BlockStore) Insert(ctx context.Context, b domain.SavedBlock) error {
	_, err := s.db.Conn().NamedExecContext(ctx,
		`INSERT INTO blocks (`+blockColumns+`) VALUES (:id, :type, :data, :x, :y, :width, :height)`, b,
	)
	return domain.NewStorageError("insert", err)
}

func (s *BlockStore) Get(ctx context.Context, id string) (*domain.SavedBlock, error) {
	var b domain.SavedBlock
	err := s.db.Conn().GetContext(ctx, &b, `SELECT `+blockColumns+` FROM blocks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get block %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, domain.NewStorageError("get", err)
	}
	return &b, nil
}

func (s *BlockStore) UpdatePosition(ctx context.Context, id string, x, y float64) error {
	return s.update(ctx, "update position", id, `UPDATE blocks SET x = ?, y = ? WHERE id = ?`, x, y, id)
}

func (s *BlockStore) UpdateSize(ctx context.Context, id string, width, height float64) error {
	return s.update(ctx, "update size", id, `UPDATE blocks SET width = ?, height = ? WHERE id = ?`, width, height, id)
}

func (s *BlockStore) UpdateText(ctx context.Context, id, text string) error {
	return s.update(ctx, "update text", id, `UPDATE blocks SET data = ? WHERE id = ?`, text, id)
}

// update runs a single-row UPDATE and turns "no row matched" into ErrNotFound.
func (s *BlockStore) update(ctx context.Context, op, id, query string, args ...any) error {
	res, err := s.db.Conn().ExecContext(ctx, query, args...)
	if err != nil {
		return domain.NewStorageError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewStorageError(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, domain.ErrNotFound)
	}
	return nil
}

// QueryByBounds returns every block whose box intersects r, in insertion order.
// Unmeasured blocks (zero width and height) match on their point alone.
func (s *BlockStore) QueryByBounds(ctx context.Context, r domain.Rect) ([]domain.SavedBlock, error) {
	blocks := []domain.SavedBlock{}
	err := s.db.Conn().SelectContext(ctx, &blocks,
		`SELECT `+blockColumns+` FROM blocks
		 WHERE x <= ? AND x + width >= ? AND y <= ? AND y + height >= ?
		 ORDER BY rowid ASC`,
		r.MaxX, r.MinX, r.MaxY, r.MinY,
	)
	if err != nil {
		return nil, domain.NewStorageError("query bounds", err)
	}
	return blocks, nil
}
