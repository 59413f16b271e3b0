package grid

import (
	"container/heap"

	"github.com/cory-johannsen/tactics/internal/game/ident"
)

// pathNode is a node in the A* and Dijkstra search graphs.
type pathNode struct {
	loc    Location
	parent *pathNode
	dir    Direction // step taken from parent
	gCost  uint32    // actual cost from start
	fCost  uint32    // gCost + heuristic
	index  int       // heap index
}

type nodeHeap []*pathNode

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	if h[i].fCost != h[j].fCost {
		return h[i].fCost < h[j].fCost
	}
	// Deterministic expansion order on ties.
	if h[i].loc.Y != h[j].loc.Y {
		return h[i].loc.Y < h[j].loc.Y
	}
	return h[i].loc.X < h[j].loc.X
}

func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *nodeHeap) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[:n-1]
	return node
}

// FindPath finds the cheapest sequence of steps from start to goal using A*
// over the directional cost table. Tiles occupied by units other than a unit
// on goal are treated as blocked.
//
// Postcondition: ok is false when goal is unreachable. When start == goal the
// path is empty and ok is true.
func (g *Grid) FindPath(start, goal Location) (path []Direction, cost uint32, ok bool) {
	if !g.InBounds(start) || !g.InBounds(goal) {
		return nil, 0, false
	}
	if start == goal {
		return []Direction{}, 0, true
	}

	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, &pathNode{loc: start, fCost: uint32(start.Distance(goal))})
	best := map[Location]uint32{start: 0}
	closed := make(map[Location]struct{}, 64)

	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		if cur.loc == goal {
			return reconstruct(cur), cur.gCost, true
		}
		if _, done := closed[cur.loc]; done {
			continue
		}
		closed[cur.loc] = struct{}{}

		for _, d := range Directions {
			step := g.Cost(cur.loc, d)
			if step == 0 {
				continue
			}
			next := cur.loc.Step(d)
			if _, done := closed[next]; done {
				continue
			}
			if next != goal && g.units.ContainsRight(next) {
				continue
			}
			gCost := cur.gCost + step
			if prev, seen := best[next]; seen && prev <= gCost {
				continue
			}
			best[next] = gCost
			heap.Push(open, &pathNode{
				loc:    next,
				parent: cur,
				dir:    d,
				gCost:  gCost,
				fCost:  gCost + uint32(next.Distance(goal)),
			})
		}
	}
	return nil, 0, false
}

func reconstruct(n *pathNode) []Direction {
	var path []Direction
	for ; n.parent != nil; n = n.parent {
		path = append(path, n.dir)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Reachable returns every unoccupied location reachable from start within
// budget, mapped to its cheapest cost. start itself is included at cost 0.
func (g *Grid) Reachable(start Location, budget uint32) map[Location]uint32 {
	out := map[Location]uint32{start: 0}
	if !g.InBounds(start) {
		return map[Location]uint32{}
	}
	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, &pathNode{loc: start})
	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		if cur.gCost > out[cur.loc] {
			continue
		}
		for _, d := range Directions {
			step := g.Cost(cur.loc, d)
			if step == 0 {
				continue
			}
			next := cur.loc.Step(d)
			if g.units.ContainsRight(next) {
				continue
			}
			gCost := cur.gCost + step
			if gCost > budget {
				continue
			}
			if prev, seen := out[next]; seen && prev <= gCost {
				continue
			}
			out[next] = gCost
			heap.Push(open, &pathNode{loc: next, gCost: gCost, fCost: gCost})
		}
	}
	return out
}

// floodControlled runs a breadth-first fill from seeds over tiles controlled
// by faction. Seeds are always visited.
func (g *Grid) floodControlled(faction ident.ID, seeds []Location) []Location {
	seen := make(map[Location]struct{}, len(seeds))
	queue := make([]Location, 0, len(seeds))
	for _, s := range seeds {
		if _, ok := seen[s]; ok || !g.InBounds(s) {
			continue
		}
		seen[s] = struct{}{}
		queue = append(queue, s)
	}
	for i := 0; i < len(queue); i++ {
		cur := queue[i]
		for _, d := range Directions {
			next := cur.Step(d)
			if !g.InBounds(next) {
				continue
			}
			if _, ok := seen[next]; ok {
				continue
			}
			if !g.control.Contains(faction, next) {
				continue
			}
			seen[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return queue
}

// FindUnitCities returns the ids of every city reachable from unit's tile
// through tiles controlled by faction. The slice is empty when the unit is
// cut off.
func (g *Grid) FindUnitCities(unit, faction ident.ID) []ident.ID {
	start, ok := g.units.Right(unit)
	if !ok {
		return nil
	}
	var cities []ident.ID
	for _, l := range g.floodControlled(faction, []Location{start}) {
		if c := g.Tile(l).City; c.Valid() && g.control.Contains(faction, l) {
			cities = append(cities, c)
		}
	}
	return cities
}

// FindLocationsSupplied returns the tiles connected to unit's tile through
// faction control, or nil when that region contains no faction-controlled
// city.
func (g *Grid) FindLocationsSupplied(unit, faction ident.ID) []Location {
	start, ok := g.units.Right(unit)
	if !ok {
		return nil
	}
	region := g.floodControlled(faction, []Location{start})
	for _, l := range region {
		if g.Tile(l).City.Valid() && g.control.Contains(faction, l) {
			sortLocations(region)
			return region
		}
	}
	return nil
}

// SuppliedRegion returns every tile connected through faction control to a
// city faction controls.
func (g *Grid) SuppliedRegion(faction ident.ID) []Location {
	var seeds []Location
	for _, l := range g.Cities() {
		if g.control.Contains(faction, l) {
			seeds = append(seeds, l)
		}
	}
	region := g.floodControlled(faction, seeds)
	sortLocations(region)
	return region
}

// ExpandControl extends faction control one ring outward from its supplied
// region into passable tiles that are uncontrolled, unoccupied and city-free.
//
// Postcondition: Returns the newly claimed locations in row-major order.
func (g *Grid) ExpandControl(faction ident.ID) []Location {
	claim := make(map[Location]struct{})
	for _, l := range g.SuppliedRegion(faction) {
		for _, d := range Directions {
			next := l.Step(d)
			if !g.InBounds(next) {
				continue
			}
			t := g.Tile(next)
			if !t.Passable() || t.City.Valid() {
				continue
			}
			if _, owned := g.control.Owner(next); owned {
				continue
			}
			if g.units.ContainsRight(next) {
				continue
			}
			claim[next] = struct{}{}
		}
	}
	out := make([]Location, 0, len(claim))
	for l := range claim {
		g.control.Insert(faction, l)
		out = append(out, l)
	}
	sortLocations(out)
	return out
}

// FindLocations resolves a around origin facing d, filtered to the board.
func (g *Grid) FindLocations(origin Location, a Area, d Direction) []Location {
	all := a.Locations(origin, d)
	out := all[:0]
	for _, l := range all {
		if g.InBounds(l) {
			out = append(out, l)
		}
	}
	return out
}

// FindUnits returns the units standing in a around origin facing d.
func (g *Grid) FindUnits(origin Location, a Area, d Direction) []ident.ID {
	var out []ident.ID
	for _, l := range g.FindLocations(origin, a, d) {
		if u, ok := g.units.Left(l); ok {
			out = append(out, u)
		}
	}
	return out
}
