package ai_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/cory-johannsen/tactics/internal/game/ai"
	"github.com/cory-johannsen/tactics/internal/game/ident"
)

func TestWorldState_NearestAndWeakest(t *testing.T) {
	ws := &ai.WorldState{
		Self: &ai.UnitState{ID: 0, Name: "self", HLT: 100, MaxHLT: 100},
		Enemies: []*ai.UnitState{
			{ID: 3, HLT: 90, MaxHLT: 100, Distance: 1},
			{ID: 1, HLT: 20, MaxHLT: 100, Distance: 4},
			{ID: 2, HLT: 20, MaxHLT: 100, Distance: 5},
		},
	}
	if got := ws.ResolveTarget("nearest_enemy"); got != 3 {
		t.Fatalf("nearest: got %d, want 3", got)
	}
	if got := ws.ResolveTarget("weakest_enemy"); got != 1 {
		t.Fatalf("weakest: got %d, want 1 (closer of the tied)", got)
	}
	if got := ws.ResolveTarget("self"); got != 0 {
		t.Fatalf("self: got %d, want 0", got)
	}
	if got := ws.ResolveTarget("someone"); got != ident.None {
		t.Fatalf("unknown token: got %d, want None", got)
	}
	if ws.Enemy(2) == nil || ws.Enemy(9) != nil {
		t.Fatal("Enemy lookup mismatch")
	}
}

func TestWorldState_NoEnemies(t *testing.T) {
	ws := &ai.WorldState{Self: &ai.UnitState{ID: 4}}
	if ws.HasLivingEnemies() {
		t.Fatal("expected no enemies")
	}
	if ws.ResolveTarget("nearest_enemy") != ident.None || ws.ResolveTarget("weakest_enemy") != ident.None {
		t.Fatal("expected None targets without enemies")
	}
}

func TestWorldState_Table(t *testing.T) {
	ws := &ai.WorldState{
		Self:    &ai.UnitState{ID: 2, Name: "pike"},
		Enemies: []*ai.UnitState{{ID: 5}},
		Budget:  4,
	}
	tbl := ws.Table()
	self := tbl["self"].(map[string]any)
	if self["id"] != 2 || self["name"] != "pike" {
		t.Fatalf("unexpected self table %v", self)
	}
	if len(tbl["enemies"].([]any)) != 1 || tbl["budget"] != uint32(4) {
		t.Fatalf("unexpected table %v", tbl)
	}
}

func TestPropertyWorldState_WeakestHasMinimumPercent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "n")
		ws := &ai.WorldState{Self: &ai.UnitState{}}
		for i := 0; i < n; i++ {
			ws.Enemies = append(ws.Enemies, &ai.UnitState{
				ID:     ident.ID(i),
				HLT:    rapid.Uint32Range(0, 1000).Draw(rt, "hlt"),
				MaxHLT: 1000,
			})
		}
		w := ws.WeakestEnemy()
		for _, e := range ws.Enemies {
			if e.HLTPercent() < w.HLTPercent() {
				rt.Fatalf("enemy %d weaker than chosen %d", e.ID, w.ID)
			}
		}
	})
}
