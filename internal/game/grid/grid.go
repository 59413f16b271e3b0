package grid

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/tactics/internal/game/effect"
	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/join"
)

// DefaultClimbThreshold is the largest height difference a single step may
// cross.
const DefaultClimbThreshold = 2

// Grid is a rectangular board of tiles.
//
// It keeps two relations: unit ↔ location (one to one) and faction →
// location (each location controlled by at most one faction). Every mutation
// goes through Grid so both stay consistent.
type Grid struct {
	width, height int
	climb         int
	tiles         []Tile
	adj           [][4]uint32
	lookup        Lookup

	units   *join.Inner[ident.ID, Location]
	control *join.Outer[ident.ID, Location]
}

// New creates a width × height grid of terrain, all at height 0, with the
// adjacency table fully computed.
//
// Precondition: width > 0, height > 0, climb >= 0.
func New(width, height, climb int, terrain ident.ID, l Lookup) *Grid {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("grid: New: invalid dimensions %dx%d", width, height))
	}
	if climb < 0 {
		panic(fmt.Sprintf("grid: New: negative climb threshold %d", climb))
	}
	g := &Grid{
		width:   width,
		height:  height,
		climb:   climb,
		tiles:   make([]Tile, width*height),
		adj:     make([][4]uint32, width*height),
		lookup:  l,
		units:   join.NewInner[ident.ID, Location](),
		control: join.NewOuter[ident.ID, Location](),
	}
	def := l.Terrain(terrain)
	for i := range g.tiles {
		g.tiles[i] = newTile(def, 0)
	}
	g.UpdateAdjacencyAll()
	return g
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// ClimbThreshold returns the largest height difference one step may cross.
func (g *Grid) ClimbThreshold() int { return g.climb }

// InBounds reports whether l lies on the board.
func (g *Grid) InBounds(l Location) bool {
	return l.X >= 0 && l.Y >= 0 && l.X < g.width && l.Y < g.height
}

func (g *Grid) index(l Location) int {
	if !g.InBounds(l) {
		panic(fmt.Sprintf("grid: location %s outside %dx%d board", l, g.width, g.height))
	}
	return l.Y*g.width + l.X
}

// Tile returns the tile at l.
//
// Precondition: l is in bounds.
func (g *Grid) Tile(l Location) *Tile { return &g.tiles[g.index(l)] }

// SetTerrain replaces the terrain and height of l and recomputes the local
// adjacency.
func (g *Grid) SetTerrain(l Location, terrain ident.ID, height int) {
	t := g.Tile(l)
	city, occupy, recruited := t.City, t.occupy, t.recruited
	mod := t.modifier
	if mod != nil {
		t.revertModifier()
	}
	*t = newTile(g.lookup.Terrain(terrain), height)
	t.City, t.occupy, t.recruited = city, occupy, recruited
	if mod != nil {
		t.AddAppliable(mod)
	}
	g.UpdateAdjacency(l)
}

// SetCity places city on l.
func (g *Grid) SetCity(l Location, city ident.ID) {
	g.Tile(l).City = city
}

// UpdateAdjacencyAll recomputes the cost table of every tile.
func (g *Grid) UpdateAdjacencyAll() {
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			g.computeCosts(Location{X: x, Y: y})
		}
	}
}

// UpdateAdjacency recomputes the cost table of l and of every neighbour that
// steps into l.
func (g *Grid) UpdateAdjacency(l Location) {
	g.computeCosts(l)
	for _, d := range Directions {
		if n := l.Step(d); g.InBounds(n) {
			g.computeCosts(n)
		}
	}
}

func (g *Grid) computeCosts(from Location) {
	i := g.index(from)
	src := &g.tiles[i]
	for _, d := range Directions {
		to := from.Step(d)
		if !g.InBounds(to) {
			g.adj[i][d] = 0
			continue
		}
		g.adj[i][d] = g.stepCost(src, &g.tiles[g.index(to)])
	}
}

// stepCost is 0 when either tile is impassable or the height difference
// exceeds the climb threshold, else the destination cost plus the climb.
func (g *Grid) stepCost(src, dst *Tile) uint32 {
	if !src.Passable() || !dst.Passable() {
		return 0
	}
	rise := dst.Height - src.Height
	if abs(rise) > g.climb {
		return 0
	}
	c := dst.Cost()
	if rise > 0 {
		c += uint32(rise)
	}
	return c
}

// Cost returns the cost of stepping from l in direction d; 0 means blocked by
// terrain or the board edge.
func (g *Grid) Cost(l Location, d Direction) uint32 {
	return g.adj[g.index(l)][d]
}

// Distance returns the Manhattan distance between a and b.
func (g *Grid) Distance(a, b Location) int { return a.Distance(b) }

// UnitAt returns the unit occupying l.
func (g *Grid) UnitAt(l Location) (ident.ID, bool) {
	return g.units.Left(l)
}

// LocationOf returns the location of unit.
func (g *Grid) LocationOf(unit ident.ID) (Location, bool) {
	return g.units.Right(unit)
}

// Units returns every placed unit id in ascending order.
func (g *Grid) Units() []ident.ID {
	ids := g.units.Lefts()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Controller returns the faction controlling l.
func (g *Grid) Controller(l Location) (ident.ID, bool) {
	return g.control.Owner(l)
}

// Controlled returns the locations faction controls, in row-major order.
func (g *Grid) Controlled(faction ident.ID) []Location {
	locs := g.control.Values(faction)
	sortLocations(locs)
	return locs
}

// SetControl assigns l to faction and returns the faction that lost it.
func (g *Grid) SetControl(l Location, faction ident.ID) (ident.ID, bool) {
	g.index(l)
	return g.control.Replace(faction, l)
}

// ClearControl removes every location faction controls.
func (g *Grid) ClearControl(faction ident.ID) []Location {
	return g.control.RemoveKey(faction)
}

// PlaceUnit puts unit on l and gives its faction control of l.
//
// Postcondition: Returns false when l is off-board, impassable, occupied, or
// the unit is already placed.
func (g *Grid) PlaceUnit(unit, faction ident.ID, l Location) bool {
	if !g.InBounds(l) || !g.Tile(l).Passable() {
		return false
	}
	if !g.units.Insert(unit, l) {
		return false
	}
	g.control.Replace(faction, l)
	return true
}

// RemoveUnit takes unit off the board. Control of its tile is unchanged.
func (g *Grid) RemoveUnit(unit ident.ID) (Location, bool) {
	return g.units.RemoveLeft(unit)
}

// PathCost walks path from l and returns the total cost and end location. A
// unit standing on l does not block its own path.
//
// Postcondition: ok is false when any step leaves the board, is blocked by
// terrain, or enters a tile occupied by another unit.
func (g *Grid) PathCost(l Location, path []Direction) (cost uint32, end Location, ok bool) {
	mover, hasMover := g.units.Left(l)
	cur := l
	for _, d := range path {
		c := g.Cost(cur, d)
		if c == 0 {
			return 0, l, false
		}
		next := cur.Step(d)
		if occupant, taken := g.units.Left(next); taken && !(hasMover && occupant == mover) {
			return 0, l, false
		}
		cost += c
		cur = next
	}
	return cost, cur, true
}

// MoveUnit walks unit along path. The move is atomic: when any step is
// blocked the unit stays where it started and nothing changes. Every tile
// entered is claimed for faction.
//
// Postcondition: Returns the locations entered, in order, and true on success.
func (g *Grid) MoveUnit(unit, faction ident.ID, path []Direction) ([]Location, bool) {
	start, ok := g.units.Right(unit)
	if !ok {
		panic(fmt.Sprintf("grid: MoveUnit: unit %s is not on the board", unit))
	}
	entered := make([]Location, 0, len(path))
	cur := start
	for _, d := range path {
		if g.Cost(cur, d) == 0 {
			return nil, false
		}
		next := cur.Step(d)
		if occupant, taken := g.units.Left(next); taken && occupant != unit {
			return nil, false
		}
		entered = append(entered, next)
		cur = next
	}
	if len(entered) == 0 {
		return entered, true
	}
	g.units.Replace(unit, cur)
	for _, l := range entered {
		g.control.Replace(faction, l)
	}
	return entered, true
}

// ApplyToLocation folds a into the tile at l and recomputes the local
// adjacency when the tile cost may have changed.
func (g *Grid) ApplyToLocation(l Location, a effect.Appliable) bool {
	ok := g.Tile(l).AddAppliable(a)
	if _, isMod := a.(*effect.Modifier); ok && isMod {
		g.UpdateAdjacency(l)
	}
	return ok
}

// ApplyStatus instantiates s onto the tile at l.
func (g *Grid) ApplyStatus(l Location, s effect.Status) bool {
	return g.ApplyToLocation(l, s.Appliable(g.lookup))
}

// DecrementDurations ticks every tile modifier and attribute once, expiring
// and substituting successors.
func (g *Grid) DecrementDurations() {
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			l := Location{X: x, Y: y}
			next, changed := g.tiles[g.index(l)].tick(g.lookup)
			for _, a := range next {
				g.ApplyToLocation(l, a)
			}
			if changed {
				g.UpdateAdjacency(l)
			}
		}
	}
}

// Recruit marks the city on l as having raised its unit for faction and
// returns the unit definition to spawn.
//
// Postcondition: Returns false when l has no city, the city has no recruit,
// faction does not control l, the tile is occupied, or it already recruited.
func (g *Grid) Recruit(l Location, faction ident.ID) (ident.ID, bool) {
	t := g.Tile(l)
	if !t.City.Valid() || t.recruited {
		return ident.None, false
	}
	city := g.lookup.City(t.City)
	if !city.Recruit.Valid() {
		return ident.None, false
	}
	if owner, ok := g.control.Owner(l); !ok || owner != faction {
		return ident.None, false
	}
	if g.units.ContainsRight(l) {
		return ident.None, false
	}
	t.recruited = true
	return city.Recruit, true
}

// Cities returns every location holding a city, in row-major order.
func (g *Grid) Cities() []Location {
	var out []Location
	for i := range g.tiles {
		if g.tiles[i].City.Valid() {
			out = append(out, Location{X: i % g.width, Y: i / g.width})
		}
	}
	return out
}

func sortLocations(locs []Location) {
	sort.Slice(locs, func(i, j int) bool {
		if locs[i].Y != locs[j].Y {
			return locs[i].Y < locs[j].Y
		}
		return locs[i].X < locs[j].X
	})
}
