// Package sqlite provides file-backed battle persistence through sqlx and the
// pure-Go modernc SQLite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/tactics/internal/game/battle"
	"github.com/cory-johannsen/tactics/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS battles (
	id       TEXT    PRIMARY KEY,
	name     TEXT    NOT NULL,
	turns    INTEGER NOT NULL,
	rounds   INTEGER NOT NULL,
	over     INTEGER NOT NULL,
	winner   TEXT    NOT NULL DEFAULT '',
	snapshot TEXT    NOT NULL,
	saved_at TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_battles_saved_at ON battles(saved_at);
`

// timeLayout is fixed width so saved_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// BattleRepository keeps battle snapshots in a SQLite file.
type BattleRepository struct {
	conn *sqlx.DB
}

var _ storage.BattleRepository = (*BattleRepository)(nil)

// Open opens or creates the database at path and applies the schema.
//
// Postcondition: Returns a ready repository or a non-nil error.
func Open(path string) (*BattleRepository, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Writers serialise on the file lock; one connection avoids busy errors.
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &BattleRepository{conn: conn}, nil
}

// Close closes the database connection.
func (r *BattleRepository) Close() error {
	return r.conn.Close()
}

// row mirrors the battles table.
type row struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Turns    int    `db:"turns"`
	Rounds   int    `db:"rounds"`
	Over     bool   `db:"over"`
	Winner   string `db:"winner"`
	Snapshot string `db:"snapshot"`
	SavedAt  string `db:"saved_at"`
}

// Save upserts s.
func (r *BattleRepository) Save(ctx context.Context, s battle.Snapshot) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	_, err = r.conn.NamedExecContext(ctx, `
		INSERT INTO battles (id, name, turns, rounds, over, winner, snapshot, saved_at)
		VALUES (:id, :name, :turns, :rounds, :over, :winner, :snapshot, :saved_at)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, turns = excluded.turns, rounds = excluded.rounds,
			over = excluded.over, winner = excluded.winner,
			snapshot = excluded.snapshot, saved_at = excluded.saved_at`,
		row{
			ID:       s.ID.String(),
			Name:     s.Name,
			Turns:    s.Turn,
			Rounds:   s.Round,
			Over:     s.Over,
			Winner:   s.Winner,
			Snapshot: string(data),
			SavedAt:  s.TakenAt.UTC().Format(timeLayout),
		})
	if err != nil {
		return fmt.Errorf("saving battle %s: %w", s.ID, err)
	}
	return nil
}

// Load returns the snapshot stored for id.
//
// Postcondition: Returns storage.ErrBattleNotFound if no battle has id.
func (r *BattleRepository) Load(ctx context.Context, id uuid.UUID) (battle.Snapshot, error) {
	var data string
	err := r.conn.GetContext(ctx, &data, `SELECT snapshot FROM battles WHERE id = ?`, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return battle.Snapshot{}, storage.ErrBattleNotFound
		}
		return battle.Snapshot{}, fmt.Errorf("loading battle %s: %w", id, err)
	}
	return battle.UnmarshalSnapshot([]byte(data))
}

// List returns up to limit summaries, most recently saved first.
//
// Precondition: limit > 0.
func (r *BattleRepository) List(ctx context.Context, limit int) ([]storage.Summary, error) {
	var rows []row
	err := r.conn.SelectContext(ctx, &rows, `
		SELECT id, name, turns, rounds, over, winner, '' AS snapshot, saved_at
		FROM battles ORDER BY saved_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing battles: %w", err)
	}
	out := make([]storage.Summary, 0, len(rows))
	for _, rw := range rows {
		id, err := uuid.Parse(rw.ID)
		if err != nil {
			return nil, fmt.Errorf("battle row %q: %w", rw.ID, err)
		}
		saved, err := time.Parse(timeLayout, rw.SavedAt)
		if err != nil {
			return nil, fmt.Errorf("battle %s saved_at: %w", id, err)
		}
		out = append(out, storage.Summary{
			ID:      id,
			Name:    rw.Name,
			Turns:   rw.Turns,
			Rounds:  rw.Rounds,
			Over:    rw.Over,
			Winner:  rw.Winner,
			SavedAt: saved,
		})
	}
	return out, nil
}
