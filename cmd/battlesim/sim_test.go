package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/tactics/internal/config"
	"github.com/cory-johannsen/tactics/internal/storage/sqlite"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Battle.Seed = 7
	cfg.Battle.MaxTurns = 60
	cfg.Battle.Parallel = 2
	return cfg
}

func TestSimulation_RunPersistsEveryBattle(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "sim.db")

	sim, err := newSimulation(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	outcomes, err := sim.Run(context.Background(), 3)
	require.NoError(t, err)
	sim.Close()

	require.Len(t, outcomes, 3)
	for i, o := range outcomes {
		assert.Equal(t, i, o.Run)
		assert.Positive(t, o.Result.Turns)
		assert.LessOrEqual(t, o.Result.Turns, cfg.Battle.MaxTurns)
	}

	repo, err := sqlite.Open(cfg.Storage.SQLitePath)
	require.NoError(t, err)
	defer repo.Close()
	list, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestSimulation_SeedIsReproducible(t *testing.T) {
	cfg := testConfig(t)
	play := func() []outcome {
		sim, err := newSimulation(context.Background(), cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		defer sim.Close()
		out, err := sim.Run(context.Background(), 2)
		require.NoError(t, err)
		return out
	}
	first, second := play(), play()
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Result, second[i].Result, "run %d", i)
		assert.Equal(t, first[i].Winner, second[i].Winner, "run %d", i)
	}
}

func TestSimulation_CancelledContext(t *testing.T) {
	cfg := testConfig(t)
	sim, err := newSimulation(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer sim.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sim.Run(ctx, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScenarioFor_Overrides(t *testing.T) {
	cfg := testConfig(t)
	cfg.Battle.Width = 30
	cfg.Battle.Height = 20
	sim, err := newSimulation(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer sim.Close()

	sc := sim.scenarioFor(3)
	assert.Equal(t, 30, sc.Map.Width)
	assert.Equal(t, 20, sc.Map.Height)
	assert.Equal(t, int64(10), sc.Map.Seed)
	assert.NotEqual(t, 30, sim.scenario.Map.Width, "shared scenario must stay untouched")
}

func TestLoadDomain_Unknown(t *testing.T) {
	_, err := loadDomain(config.AIConfig{Domain: "nope"})
	assert.ErrorContains(t, err, `"nope"`)

	d, err := loadDomain(config.AIConfig{Domain: "default"})
	require.NoError(t, err)
	assert.Equal(t, "default", d.ID)
}

func TestOpenRepository_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "mongo"
	_, err := openRepository(context.Background(), cfg)
	assert.ErrorContains(t, err, "mongo")

	cfg.Storage.Driver = "none"
	repo, err := openRepository(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, repo)
}

func TestTally(t *testing.T) {
	wins := tally([]outcome{{Winner: "blue"}, {Winner: ""}, {Winner: "blue"}, {Winner: "red"}})
	assert.Equal(t, map[string]int{"blue": 2, "red": 1, "none": 1}, wins)
	assert.Equal(t, []string{"blue", "none", "red"}, sortedFactions(wins))
}
