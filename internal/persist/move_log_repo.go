package persist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// MoveRecord is one accepted move, as written to the move log.
type MoveRecord struct {
	MapID        int16
	Unit         string
	Account      string
	FromX, FromY int
	ToX, ToY     int
	Remaining    int // allowance left on the destination cell
}

type MoveLogRepo struct {
	db *DB
}

func NewMoveLogRepo(db *DB) *MoveLogRepo {
	return &MoveLogRepo{db: db}
}

// WriteBatch atomically writes a batch of move records in a single transaction.
func (r *MoveLogRepo) WriteBatch(ctx context.Context, records []MoveRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range records {
		batch.Queue(
			`INSERT INTO move_log (map_id, unit_name, account, from_x, from_y, to_x, to_y, remaining)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			m.MapID, m.Unit, m.Account, m.FromX, m.FromY, m.ToX, m.ToY, m.Remaining,
		)
	}
	return r.db.inTx(ctx, "move log", func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("move log insert: %w", err)
		}
		return nil
	})
}
