// Package grid provides the battlefield: tiles, terrain, cities, directional
// movement costs, pathfinding, territory control and area queries.
//
// The grid stores only ids. Units and factions live in their owning arenas.
package grid

import (
	"fmt"
	"strings"
)

// Location is a board coordinate. X grows east, Y grows south.
type Location struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

// String renders l as "(x,y)".
func (l Location) String() string { return fmt.Sprintf("(%d,%d)", l.X, l.Y) }

// Step returns the neighbour of l in direction d. The result may lie off the
// board.
func (l Location) Step(d Direction) Location {
	dx, dy := d.Delta()
	return Location{X: l.X + dx, Y: l.Y + dy}
}

// Distance returns the Manhattan distance between l and o.
func (l Location) Distance(o Location) int {
	return abs(l.X-o.X) + abs(l.Y-o.Y)
}

// Direction is one of the four cardinal directions.
type Direction uint8

// The four cardinal directions, in adjacency-table order.
const (
	North Direction = iota
	East
	South
	West
)

// Directions lists every direction in adjacency-table order.
var Directions = [4]Direction{North, East, South, West}

var directionNames = [4]string{"north", "east", "south", "west"}

// String returns the lower-case direction name.
func (d Direction) String() string {
	if int(d) >= len(directionNames) {
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
	return directionNames[d]
}

// ParseDirection converts a name or its initial into a Direction.
func ParseDirection(s string) (Direction, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range directionNames {
		if s == n || (len(s) == 1 && s[0] == n[0]) {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("grid: unknown direction %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Opposite returns the direction pointing back.
//
// Precondition: d is one of the four cardinal directions.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case East:
		return West
	case South:
		return North
	case West:
		return East
	default:
		panic(fmt.Sprintf("grid: Direction.Opposite: invalid direction %d", uint8(d)))
	}
}

// Delta returns the coordinate offset of one step in d.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	case West:
		return -1, 0
	default:
		panic(fmt.Sprintf("grid: Direction.Delta: invalid direction %d", uint8(d)))
	}
}

// perpendicular returns the two directions at right angles to d.
func (d Direction) perpendicular() (Direction, Direction) {
	if d == North || d == South {
		return West, East
	}
	return North, South
}

// Shape selects how an Area expands around its origin.
type Shape uint8

const (
	Single Shape = iota
	Radial
	Path
)

var shapeNames = [3]string{"single", "radial", "path"}

// String returns the content-file spelling of s.
func (s Shape) String() string {
	if int(s) >= len(shapeNames) {
		return fmt.Sprintf("Shape(%d)", uint8(s))
	}
	return shapeNames[s]
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Shape) UnmarshalText(b []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(b)))
	for i, n := range shapeNames {
		if v == n {
			*s = Shape(i)
			return nil
		}
	}
	return fmt.Errorf("grid: unknown area shape %q", string(b))
}

// MarshalText implements encoding.TextMarshaler.
func (s Shape) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Area describes a set of locations relative to an origin.
//
//   - Single: the origin only.
//   - Radial: every location within Radius Manhattan distance of the origin.
//   - Path: Width locations either side of the origin perpendicular to the
//     direction, extruded Range steps along it. The origin row is excluded.
type Area struct {
	Shape  Shape `yaml:"shape" json:"shape"`
	Radius int   `yaml:"radius,omitempty" json:"radius,omitempty"`
	Width  int   `yaml:"width,omitempty" json:"width,omitempty"`
	Range  int   `yaml:"range,omitempty" json:"range,omitempty"`
}

// Locations resolves a around origin facing d, without bounds filtering.
func (a Area) Locations(origin Location, d Direction) []Location {
	switch a.Shape {
	case Single:
		return []Location{origin}
	case Radial:
		out := make([]Location, 0, 2*a.Radius*(a.Radius+1)+1)
		for dy := -a.Radius; dy <= a.Radius; dy++ {
			span := a.Radius - abs(dy)
			for dx := -span; dx <= span; dx++ {
				out = append(out, Location{X: origin.X + dx, Y: origin.Y + dy})
			}
		}
		return out
	case Path:
		left, right := d.perpendicular()
		row := []Location{origin}
		l, r := origin, origin
		for i := 0; i < a.Width; i++ {
			l, r = l.Step(left), r.Step(right)
			row = append(row, l, r)
		}
		out := make([]Location, 0, len(row)*a.Range)
		for step := 1; step <= a.Range; step++ {
			for i := range row {
				row[i] = row[i].Step(d)
			}
			out = append(out, row...)
		}
		return out
	default:
		panic(fmt.Sprintf("grid: Area.Locations: invalid shape %d", uint8(a.Shape)))
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
