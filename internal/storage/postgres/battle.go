package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/tactics/internal/game/battle"
	"github.com/cory-johannsen/tactics/internal/storage"
)

// BattleRepository keeps battle snapshots in the battles table.
type BattleRepository struct {
	db     *pgxpool.Pool
	closer func()
}

var _ storage.BattleRepository = (*BattleRepository)(nil)

// NewBattleRepository creates a BattleRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool with the battles
// migration applied.
func NewBattleRepository(db *pgxpool.Pool) *BattleRepository {
	return &BattleRepository{db: db}
}

// OpenBattleRepository creates a repository that owns p and closes it on
// Close.
func OpenBattleRepository(p *Pool) *BattleRepository {
	return &BattleRepository{db: p.DB(), closer: p.Close}
}

// Save upserts s.
//
// Postcondition: Load(s.ID) returns s.
func (r *BattleRepository) Save(ctx context.Context, s battle.Snapshot) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO battles (id, name, turns, rounds, over, winner, snapshot, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, turns = EXCLUDED.turns, rounds = EXCLUDED.rounds,
			over = EXCLUDED.over, winner = EXCLUDED.winner,
			snapshot = EXCLUDED.snapshot, saved_at = EXCLUDED.saved_at`,
		s.ID, s.Name, s.Turn, s.Round, s.Over, s.Winner, data, s.TakenAt,
	)
	if err != nil {
		return fmt.Errorf("saving battle %s: %w", s.ID, err)
	}
	return nil
}

// Load returns the snapshot stored for id.
//
// Postcondition: Returns storage.ErrBattleNotFound if no battle has id.
func (r *BattleRepository) Load(ctx context.Context, id uuid.UUID) (battle.Snapshot, error) {
	var data []byte
	err := r.db.QueryRow(ctx, `SELECT snapshot FROM battles WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return battle.Snapshot{}, storage.ErrBattleNotFound
		}
		return battle.Snapshot{}, fmt.Errorf("loading battle %s: %w", id, err)
	}
	return battle.UnmarshalSnapshot(data)
}

// List returns up to limit summaries, most recently saved first.
//
// Precondition: limit > 0.
func (r *BattleRepository) List(ctx context.Context, limit int) ([]storage.Summary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, turns, rounds, over, winner, saved_at
		FROM battles ORDER BY saved_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing battles: %w", err)
	}
	defer rows.Close()

	var out []storage.Summary
	for rows.Next() {
		var s storage.Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.Turns, &s.Rounds, &s.Over, &s.Winner, &s.SavedAt); err != nil {
			return nil, fmt.Errorf("scanning battle row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating battle rows: %w", err)
	}
	return out, nil
}

// Close releases the pool when the repository owns it.
func (r *BattleRepository) Close() error {
	if r.closer != nil {
		r.closer()
	}
	return nil
}
