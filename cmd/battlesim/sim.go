package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/tactics/internal/config"
	"github.com/cory-johannsen/tactics/internal/game/ai"
	"github.com/cory-johannsen/tactics/internal/game/battle"
	"github.com/cory-johannsen/tactics/internal/game/content"
	"github.com/cory-johannsen/tactics/internal/game/dice"
	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/scripting"
	"github.com/cory-johannsen/tactics/internal/storage"
)

// scriptScope is the scripting VM that holds AI hooks.
const scriptScope = "ai"

// simulation holds everything shared by the battles of one invocation. All
// of it is read-only once built, except the script manager and repository,
// which are safe for concurrent use.
type simulation struct {
	cfg      config.Config
	registry *content.Registry
	scenario *content.Scenario
	planner  *ai.Planner
	scripts  *scripting.Manager
	repo     storage.BattleRepository
	logger   *zap.Logger
}

// outcome is the result of one run.
type outcome struct {
	Run    int
	ID     uuid.UUID
	Result battle.Result
	// Winner is the winning faction's name, empty on a draw or timeout.
	Winner string
}

// newSimulation loads content, scenario, AI domain, scripts and storage as
// cfg describes.
//
// Precondition: cfg is valid.
// Postcondition: Returns an error naming the first stage that failed.
func newSimulation(ctx context.Context, cfg config.Config, logger *zap.Logger) (*simulation, error) {
	s := &simulation{cfg: cfg, logger: logger}

	var err error
	if cfg.Content.Dir != "" {
		s.registry, err = content.LoadDir(cfg.Content.Dir)
	} else {
		s.registry, err = content.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}

	if cfg.Content.Scenario != "" {
		s.scenario, err = content.LoadScenarioFile(cfg.Content.Scenario, s.registry)
	} else {
		s.scenario, err = content.DefaultScenario(s.registry)
	}
	if err != nil {
		return nil, fmt.Errorf("loading scenario: %w", err)
	}

	domain, err := loadDomain(cfg.AI)
	if err != nil {
		return nil, err
	}

	var caller ai.ScriptCaller
	if cfg.Scripting.Dir != "" {
		s.scripts = scripting.NewManager(dice.NewLoggedRoller(dice.NewCryptoSource(), logger), logger)
		if err := s.scripts.LoadDir(scriptScope, cfg.Scripting.Dir, cfg.Scripting.InstructionLimit); err != nil {
			return nil, fmt.Errorf("loading AI scripts: %w", err)
		}
		caller = s.scripts
		logger.Info("scripting engine initialized", zap.String("dir", cfg.Scripting.Dir))
	}
	s.planner = ai.NewPlanner(domain, caller, scriptScope)

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	s.repo = repo
	return s, nil
}

func loadDomain(cfg config.AIConfig) (*ai.Domain, error) {
	if cfg.DomainDir == "" {
		d := ai.DefaultDomain()
		if cfg.Domain != "" && cfg.Domain != d.ID {
			return nil, fmt.Errorf("AI domain %q not found in built-in domains", cfg.Domain)
		}
		return d, nil
	}
	domains, err := ai.LoadDomains(cfg.DomainDir)
	if err != nil {
		return nil, fmt.Errorf("loading AI domains: %w", err)
	}
	for _, d := range domains {
		if d.ID == cfg.Domain {
			return d, nil
		}
	}
	return nil, fmt.Errorf("AI domain %q not found in %s", cfg.Domain, cfg.DomainDir)
}

// Close releases the scripting VMs and the repository.
func (s *simulation) Close() {
	if s.scripts != nil {
		s.scripts.Close()
	}
	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			s.logger.Warn("closing storage", zap.Error(err))
		}
	}
}

// Run plays runs battles, at most cfg.Battle.Parallel at a time, and returns
// the outcomes in run order.
//
// Postcondition: On error the outcomes of the runs that finished are still
// returned.
func (s *simulation) Run(ctx context.Context, runs int) ([]outcome, error) {
	results := make([]*outcome, runs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.Battle.Parallel, 1))
	for i := range runs {
		g.Go(func() error {
			o, err := s.play(gctx, i)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = o
			return nil
		})
	}
	err := g.Wait()
	var out []outcome
	for _, o := range results {
		if o != nil {
			out = append(out, *o)
		}
	}
	return out, err
}

func (s *simulation) play(ctx context.Context, run int) (*outcome, error) {
	start := time.Now()
	logger := s.logger.With(zap.Int("run", run))
	b, err := battle.FromScenario(s.scenarioFor(run), s.registry, battle.Config{
		MoveDivisor: s.cfg.Battle.MoveDivisor,
		RoundLength: s.cfg.Battle.RoundLength,
	}, s.cfg.Battle.ClimbThreshold, logger)
	if err != nil {
		return nil, err
	}
	opts := []ai.Option{ai.WithPlanner(s.planner)}
	if s.scripts != nil {
		opts = append(opts, ai.WithHooks(s.scripts, scriptScope))
	}
	ctrl := ai.NewController(s.rollerFor(run, logger), logger, opts...)

	res, runErr := b.Run(ctx, ctrl, s.cfg.Battle.MaxTurns)
	o := &outcome{Run: run, ID: b.ID, Result: res}
	if res.Winner != ident.None {
		o.Winner = b.Factions().Get(res.Winner).Name
	}
	if s.repo != nil {
		// Interrupted battles are saved as well.
		if err := s.repo.Save(context.WithoutCancel(ctx), b.Snapshot()); err != nil {
			return o, errors.Join(runErr, fmt.Errorf("saving battle %s: %w", b.ID, err))
		}
	}
	logger.Info("run complete",
		zap.String("battle", b.ID.String()),
		zap.String("winner", o.Winner),
		zap.Int("turns", res.Turns),
		zap.Duration("elapsed", time.Since(start)),
	)
	return o, runErr
}

// scenarioFor applies the size and seed overrides for one run.
func (s *simulation) scenarioFor(run int) *content.Scenario {
	sc := *s.scenario
	if len(sc.Map.Terrain) == 0 {
		if s.cfg.Battle.Width > 0 {
			sc.Map.Width = s.cfg.Battle.Width
		}
		if s.cfg.Battle.Height > 0 {
			sc.Map.Height = s.cfg.Battle.Height
		}
	}
	if s.cfg.Battle.Seed != 0 {
		sc.Map.Seed = s.cfg.Battle.Seed + int64(run)
	}
	return &sc
}

func (s *simulation) rollerFor(run int, logger *zap.Logger) *dice.Roller {
	if s.cfg.Battle.Seed == 0 {
		return dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
	}
	return dice.NewLoggedRoller(dice.NewSeededSource(uint64(s.cfg.Battle.Seed)+uint64(run)), logger)
}

// tally counts wins per faction name; draws and timeouts count under "none".
func tally(outcomes []outcome) map[string]int {
	wins := make(map[string]int)
	for _, o := range outcomes {
		name := o.Winner
		if name == "" {
			name = "none"
		}
		wins[name]++
	}
	return wins
}

// sortedFactions returns the keys of wins in name order.
func sortedFactions(wins map[string]int) []string {
	names := make([]string, 0, len(wins))
	for n := range wins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
