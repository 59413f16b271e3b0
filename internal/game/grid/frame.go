package grid

import "github.com/cory-johannsen/tactics/internal/game/ident"

// FrameTile is the renderable state of one tile.
type FrameTile struct {
	Terrain    ident.ID `json:"terrain"`
	Height     int      `json:"height"`
	City       ident.ID `json:"city"`
	Occupant   ident.ID `json:"occupant"`
	Controller ident.ID `json:"controller"`
}

// Frame is everything an external renderer needs to draw the board.
type Frame struct {
	Width  int                   `json:"width"`
	Height int                   `json:"height"`
	Tiles  []FrameTile           `json:"tiles"` // row-major
	Units  map[ident.ID]Location `json:"units"`
}

// Frame captures the current board state.
func (g *Grid) Frame() Frame {
	f := Frame{
		Width:  g.width,
		Height: g.height,
		Tiles:  make([]FrameTile, len(g.tiles)),
		Units:  make(map[ident.ID]Location, g.units.Len()),
	}
	for i := range g.tiles {
		l := Location{X: i % g.width, Y: i / g.width}
		t := &g.tiles[i]
		ft := FrameTile{
			Terrain:    t.Terrain,
			Height:     t.Height,
			City:       t.City,
			Occupant:   ident.None,
			Controller: ident.None,
		}
		if u, ok := g.units.Left(l); ok {
			ft.Occupant = u
			f.Units[u] = l
		}
		if c, ok := g.control.Owner(l); ok {
			ft.Controller = c
		}
		f.Tiles[i] = ft
	}
	return f
}

// At returns the frame tile at l.
func (f Frame) At(l Location) FrameTile { return f.Tiles[l.Y*f.Width+l.X] }
