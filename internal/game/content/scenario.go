package content

import (
	"errors"
	"fmt"
	"os"

	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ident"
)

// Scenario is a resolved battle setup: the board and who stands where.
type Scenario struct {
	Name     string
	Map      MapSpec
	Cities   []CityPlacement
	Factions []FactionSpec
}

// MapSpec describes the board. With Terrain set the board is drawn as given,
// otherwise it is generated from Seed.
type MapSpec struct {
	Width     int
	Height    int
	Seed      int64
	Climb     int
	MaxHeight int
	// Terrain and Heights are row-major, Height rows of Width entries.
	Terrain [][]ident.ID
	Heights [][]int
}

// CityPlacement puts a city on the board.
type CityPlacement struct {
	City ident.ID
	At   grid.Location
}

// FactionSpec is one side of the battle.
type FactionSpec struct {
	Name   string
	Allies []string
	Units  []UnitPlacement
}

// UnitPlacement is one starting unit. Every other unit of a faction follows
// the unit marked Leader.
type UnitPlacement struct {
	Unit   ident.ID
	At     grid.Location
	Leader bool
}

type yamlScenario struct {
	Name     string        `yaml:"name"`
	Map      yamlMap       `yaml:"map"`
	Cities   []yamlCityAt  `yaml:"cities"`
	Factions []yamlFaction `yaml:"factions"`
}

type yamlMap struct {
	Width     int               `yaml:"width"`
	Height    int               `yaml:"height"`
	Seed      int64             `yaml:"seed"`
	Climb     int               `yaml:"climb_threshold"`
	MaxHeight int               `yaml:"max_height"`
	Legend    map[string]string `yaml:"legend"`
	Rows      []string          `yaml:"rows"`
	Heights   []string          `yaml:"heights"`
}

type yamlCityAt struct {
	City string        `yaml:"city"`
	At   grid.Location `yaml:"at"`
}

type yamlFaction struct {
	Name   string       `yaml:"name"`
	Allies []string     `yaml:"allies"`
	Units  []yamlUnitAt `yaml:"units"`
}

type yamlUnitAt struct {
	Unit   string        `yaml:"unit"`
	At     grid.Location `yaml:"at"`
	Leader bool          `yaml:"leader"`
}

// LoadScenarioFile reads and resolves a scenario against r.
//
// Precondition: path must point to a readable scenario YAML file.
// Postcondition: Returns a validated Scenario or a non-nil error.
func LoadScenarioFile(path string, r *Registry) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file %s: %w", path, err)
	}
	s, err := LoadScenarioBytes(data, r)
	if err != nil {
		return nil, fmt.Errorf("loading scenario %s: %w", path, err)
	}
	return s, nil
}

// LoadScenarioBytes parses and resolves a scenario against r.
//
// Postcondition: Returns a validated Scenario or a non-nil error naming every
// problem found.
func LoadScenarioBytes(data []byte, r *Registry) (*Scenario, error) {
	var ys yamlScenario
	if err := decodeStrict(data, &ys); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	b := &builder{r: r}
	s := &Scenario{
		Name: ys.Name,
		Map: MapSpec{
			Width:     ys.Map.Width,
			Height:    ys.Map.Height,
			Seed:      ys.Map.Seed,
			Climb:     ys.Map.Climb,
			MaxHeight: ys.Map.MaxHeight,
		},
	}
	if len(ys.Map.Rows) > 0 {
		s.Map.Height = len(ys.Map.Rows)
		s.Map.Width = len([]rune(ys.Map.Rows[0]))
		s.Map.Terrain = b.rows(ys.Map.Rows, ys.Map.Legend, s.Map.Width)
		s.Map.Heights = b.heights(ys.Map.Heights, s.Map.Width, s.Map.Height)
	}
	if s.Map.Width <= 0 || s.Map.Height <= 0 {
		b.fail("map: dimensions %dx%d must be positive", s.Map.Width, s.Map.Height)
	}
	inBounds := func(l grid.Location) bool {
		return l.X >= 0 && l.Y >= 0 && l.X < s.Map.Width && l.Y < s.Map.Height
	}

	taken := make(map[grid.Location]string)
	for _, c := range ys.Cities {
		owner := "city " + c.City
		if !inBounds(c.At) {
			b.fail("%s: location %s is off the map", owner, c.At)
		}
		if prev, dup := taken[c.At]; dup {
			b.fail("%s: location %s already holds %s", owner, c.At, prev)
		}
		taken[c.At] = owner
		s.Cities = append(s.Cities, CityPlacement{City: b.ref(Cities, c.City, owner), At: c.At})
	}

	names := make(map[string]bool, len(ys.Factions))
	for _, f := range ys.Factions {
		if f.Name == "" || names[f.Name] {
			b.fail("faction %q: names must be unique and non-empty", f.Name)
		}
		names[f.Name] = true
	}
	occupied := make(map[grid.Location]bool)
	for _, f := range ys.Factions {
		owner := "faction " + f.Name
		for _, a := range f.Allies {
			if !names[a] {
				b.fail("%s: unknown ally %q", owner, a)
			}
		}
		spec := FactionSpec{Name: f.Name, Allies: f.Allies}
		leaders := 0
		for _, u := range f.Units {
			uo := owner + " unit " + u.Unit
			if !inBounds(u.At) {
				b.fail("%s: location %s is off the map", uo, u.At)
			}
			if occupied[u.At] {
				b.fail("%s: location %s is already occupied", uo, u.At)
			}
			occupied[u.At] = true
			if u.Leader {
				leaders++
			}
			spec.Units = append(spec.Units, UnitPlacement{Unit: b.ref(Units, u.Unit, uo), At: u.At, Leader: u.Leader})
		}
		if leaders > 1 {
			b.fail("%s: at most one leader, found %d", owner, leaders)
		}
		s.Factions = append(s.Factions, spec)
	}
	if len(s.Factions) < 2 {
		b.fail("scenario needs at least two factions, found %d", len(s.Factions))
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	return s, nil
}

func (b *builder) rows(rows []string, legend map[string]string, width int) [][]ident.ID {
	out := make([][]ident.ID, len(rows))
	for y, row := range rows {
		cells := []rune(row)
		if len(cells) != width {
			b.fail("map: row %d has %d cells, want %d", y, len(cells), width)
		}
		out[y] = make([]ident.ID, len(cells))
		for x, c := range cells {
			key, ok := legend[string(c)]
			if !ok {
				b.fail("map: row %d: symbol %q missing from legend", y, string(c))
				out[y][x] = ident.None
				continue
			}
			out[y][x] = b.ref(Terrains, key, "map legend")
		}
	}
	return out
}

func (b *builder) heights(rows []string, width, height int) [][]int {
	if len(rows) == 0 {
		return nil
	}
	if len(rows) != height {
		b.fail("map: %d height rows, want %d", len(rows), height)
	}
	out := make([][]int, len(rows))
	for y, row := range rows {
		if len(row) != width {
			b.fail("map: height row %d has %d cells, want %d", y, len(row), width)
		}
		out[y] = make([]int, len(row))
		for x, c := range row {
			if c < '0' || c > '9' {
				b.fail("map: height row %d: %q is not a digit", y, c)
				continue
			}
			out[y][x] = int(c - '0')
		}
	}
	return out
}

// Grid builds the scenario board with its cities placed. climb is used when
// the scenario leaves the climb threshold unset.
func (s *Scenario) Grid(r *Registry, climb int) *grid.Grid {
	if s.Map.Climb > 0 {
		climb = s.Map.Climb
	}
	var g *grid.Grid
	if len(s.Map.Terrain) > 0 {
		g = grid.New(s.Map.Width, s.Map.Height, climb, s.Map.Terrain[0][0], r)
		for y, row := range s.Map.Terrain {
			for x, t := range row {
				h := 0
				if y < len(s.Map.Heights) && x < len(s.Map.Heights[y]) {
					h = s.Map.Heights[y][x]
				}
				g.SetTerrain(grid.Location{X: x, Y: y}, t, h)
			}
		}
	} else {
		g = grid.Generate(grid.GenConfig{
			Width:     s.Map.Width,
			Height:    s.Map.Height,
			Seed:      s.Map.Seed,
			Climb:     climb,
			MaxHeight: s.Map.MaxHeight,
		}, r.Terrains(), r)
		s.clearDeployments(g, r)
	}
	for _, c := range s.Cities {
		g.SetCity(c.At, c.City)
	}
	return g
}

// clearDeployments turns impassable tiles under cities and starting units
// into the cheapest passable terrain.
func (s *Scenario) clearDeployments(g *grid.Grid, r *Registry) {
	open := ident.None
	var best uint32
	for _, t := range r.Terrains() {
		if t.Cost > 0 && (!open.Valid() || t.Cost < best) {
			open, best = t.ID, t.Cost
		}
	}
	if !open.Valid() {
		return
	}
	level := func(l grid.Location) {
		if t := g.Tile(l); !t.Passable() {
			g.SetTerrain(l, open, t.Height)
		}
	}
	for _, c := range s.Cities {
		level(c.At)
	}
	for _, f := range s.Factions {
		for _, u := range f.Units {
			level(u.At)
		}
	}
}
