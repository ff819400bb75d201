package persist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// UnitPosition is the stored cell of one deployed unit.
type UnitPosition struct {
	MapID int16
	Name  string
	X, Y  int
}

type UnitRepo struct {
	db *DB
}

func NewUnitRepo(db *DB) *UnitRepo {
	return &UnitRepo{db: db}
}

// LoadPositions returns every stored position on mapID, ordered by unit name.
func (r *UnitRepo) LoadPositions(ctx context.Context, mapID int16) ([]UnitPosition, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT map_id, unit_name, x, y FROM unit_positions
		 WHERE map_id = $1 ORDER BY unit_name`, mapID,
	)
	if err != nil {
		return nil, fmt.Errorf("load positions map %d: %w", mapID, err)
	}
	defer rows.Close()

	var out []UnitPosition
	for rows.Next() {
		var p UnitPosition
		if err := rows.Scan(&p.MapID, &p.Name, &p.X, &p.Y); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SavePositions upserts a batch of positions in a single transaction.
func (r *UnitRepo) SavePositions(ctx context.Context, positions []UnitPosition) error {
	if len(positions) == 0 {
		return nil
	}
	return r.db.inTx(ctx, "positions", func(tx pgx.Tx) error {
		for _, p := range positions {
			if _, err := tx.Exec(ctx,
				`INSERT INTO unit_positions (map_id, unit_name, x, y, updated_at)
				 VALUES ($1, $2, $3, $4, NOW())
				 ON CONFLICT (map_id, unit_name)
				 DO UPDATE SET x = EXCLUDED.x, y = EXCLUDED.y, updated_at = NOW()`,
				p.MapID, p.Name, p.X, p.Y,
			); err != nil {
				return fmt.Errorf("save position %s: %w", p.Name, err)
			}
		}
		return nil
	})
}
