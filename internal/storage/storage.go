// Package storage defines how battle snapshots are persisted. Back ends live
// in the postgres and sqlite subpackages.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/tactics/internal/game/battle"
)

// ErrBattleNotFound is returned when a battle lookup yields no results.
var ErrBattleNotFound = errors.New("battle not found")

// Summary is the listing row of a stored battle.
type Summary struct {
	ID      uuid.UUID
	Name    string
	Turns   int
	Rounds  int
	Over    bool
	Winner  string
	SavedAt time.Time
}

// SummaryOf extracts the listing row of s.
func SummaryOf(s battle.Snapshot) Summary {
	return Summary{
		ID:      s.ID,
		Name:    s.Name,
		Turns:   s.Turn,
		Rounds:  s.Round,
		Over:    s.Over,
		Winner:  s.Winner,
		SavedAt: s.TakenAt,
	}
}

// BattleRepository stores battle snapshots keyed by battle ID. Saving a
// battle again replaces the stored snapshot.
type BattleRepository interface {
	Save(ctx context.Context, s battle.Snapshot) error
	// Load returns ErrBattleNotFound when id is unknown.
	Load(ctx context.Context, id uuid.UUID) (battle.Snapshot, error)
	// List returns up to limit summaries, most recently saved first.
	List(ctx context.Context, limit int) ([]Summary, error)
	Close() error
}
