package grid

import (
	"fmt"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig controls procedural board generation.
type GenConfig struct {
	Width     int
	Height    int
	Seed      int64
	Climb     int
	MaxHeight int
	Octaves   int
	Frequency float64
}

// Generate builds a board whose heights and terrain follow layered simplex
// noise. Each tile gets the first terrain in ascending Elevation order whose
// band contains the tile's normalised elevation; the last terrain catches the
// rest.
//
// Precondition: len(terrains) > 0.
// Postcondition: the same config and terrains always yield the same board.
func Generate(cfg GenConfig, terrains []Terrain, l Lookup) *Grid {
	if len(terrains) == 0 {
		panic("grid: Generate: no terrains")
	}
	bands := append([]Terrain(nil), terrains...)
	sort.SliceStable(bands, func(i, j int) bool { return bands[i].Elevation < bands[j].Elevation })
	if cfg.Octaves <= 0 {
		cfg.Octaves = 4
	}
	if cfg.Frequency <= 0 {
		cfg.Frequency = 0.08
	}
	if cfg.MaxHeight < 0 {
		panic(fmt.Sprintf("grid: Generate: negative max height %d", cfg.MaxHeight))
	}

	elevNoise := opensimplex.NewNormalized(cfg.Seed)
	g := New(cfg.Width, cfg.Height, cfg.Climb, bands[len(bands)-1].ID, l)
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			e := octaveNoise(elevNoise, float64(x), float64(y), cfg.Octaves, cfg.Frequency, 0.5)
			t := bands[len(bands)-1]
			for _, b := range bands {
				if e <= b.Elevation {
					t = b
					break
				}
			}
			i := g.index(Location{X: x, Y: y})
			g.tiles[i] = newTile(t, int(e*float64(cfg.MaxHeight)))
		}
	}
	g.UpdateAdjacencyAll()
	return g
}

// octaveNoise layers several frequencies of noise into a value in [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}
