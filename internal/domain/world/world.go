// Package world generates the infinite overworld. Terrain is a pure function
// of the world seed and a tile coordinate, so nothing generated is ever
// stored: every caller that asks about the same tile sees the same world.
package world

import (
	"hash/fnv"
	"math"
)

type TerrainType string

const (
	TerrainGrass    TerrainType = "grass"
	TerrainMeadow   TerrainType = "meadow"
	TerrainThicket  TerrainType = "thicket"
	TerrainForest   TerrainType = "forest"
	TerrainDeepWood TerrainType = "deep_wood"
	TerrainClearing TerrainType = "clearing"
	TerrainSand     TerrainType = "sand"
	TerrainDunes    TerrainType = "dunes"
	TerrainOasis    TerrainType = "oasis"
	TerrainMarsh    TerrainType = "marsh"
	TerrainBog      TerrainType = "bog"
	TerrainMire     TerrainType = "mire"
	TerrainRock     TerrainType = "rock"
	TerrainScree    TerrainType = "scree"
	TerrainPeak     TerrainType = "peak"
	TerrainSnow     TerrainType = "snow"
	TerrainIce      TerrainType = "ice"
	TerrainTaiga    TerrainType = "taiga"
)

// Terrain describes one tile. Difficulty ranges 0..10 and drives the
// per-step encounter probability.
type Terrain struct {
	Type       TerrainType `json:"type"`
	Label      string      `json:"label"`
	Color      string      `json:"color"`
	Difficulty int         `json:"difficulty"`
}

// Cell is a terrain lookup result annotated with its coordinate and biome.
type Cell struct {
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Terrain Terrain `json:"terrain"`
	Biome   string  `json:"biome"`
}

type biome struct {
	name     string
	terrains []Terrain
}

// Biome tables. The first terrain of each biome is its dominant tile; later
// entries are rarer local variation.
var biomes = []biome{
	{name: "plains", terrains: []Terrain{
		{Type: TerrainGrass, Label: "Grassland", Color: "#7bb661", Difficulty: 1},
		{Type: TerrainMeadow, Label: "Wildflower Meadow", Color: "#9acd6a", Difficulty: 0},
		{Type: TerrainThicket, Label: "Bramble Thicket", Color: "#5e8c4a", Difficulty: 3},
	}},
	{name: "forest", terrains: []Terrain{
		{Type: TerrainForest, Label: "Forest Floor", Color: "#3d6b35", Difficulty: 4},
		{Type: TerrainClearing, Label: "Sunlit Clearing", Color: "#6fa85c", Difficulty: 2},
		{Type: TerrainDeepWood, Label: "Deep Woods", Color: "#25461f", Difficulty: 7},
	}},
	{name: "desert", terrains: []Terrain{
		{Type: TerrainSand, Label: "Open Sand", Color: "#e0c178", Difficulty: 3},
		{Type: TerrainDunes, Label: "Shifting Dunes", Color: "#d4ad5e", Difficulty: 5},
		{Type: TerrainOasis, Label: "Oasis", Color: "#59a8a0", Difficulty: 1},
	}},
	{name: "swamp", terrains: []Terrain{
		{Type: TerrainMarsh, Label: "Marshland", Color: "#5c7351", Difficulty: 5},
		{Type: TerrainBog, Label: "Peat Bog", Color: "#4a5c41", Difficulty: 7},
		{Type: TerrainMire, Label: "Sucking Mire", Color: "#3a4833", Difficulty: 9},
	}},
	{name: "mountains", terrains: []Terrain{
		{Type: TerrainRock, Label: "Rocky Slope", Color: "#8d8d8d", Difficulty: 5},
		{Type: TerrainScree, Label: "Loose Scree", Color: "#767676", Difficulty: 7},
		{Type: TerrainPeak, Label: "Windswept Peak", Color: "#b8bec4", Difficulty: 10},
	}},
	{name: "tundra", terrains: []Terrain{
		{Type: TerrainSnow, Label: "Snowfield", Color: "#e8eef2", Difficulty: 4},
		{Type: TerrainTaiga, Label: "Sparse Taiga", Color: "#7f9a8a", Difficulty: 3},
		{Type: TerrainIce, Label: "Sheet Ice", Color: "#bcd8e8", Difficulty: 8},
	}},
}

// biomeScale sets the size of biome regions in tiles.
const biomeScale = 24.0

// Generator maps integer tile coordinates to terrain. It carries only the
// immutable seed, so it is safe to share across sessions and goroutines.
type Generator struct {
	seed int64
}

func NewGenerator(seed string) *Generator {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	return &Generator{seed: int64(h.Sum64())}
}

// TerrainAt returns the cell at (x, y). Deterministic: equal coordinates
// always yield equal cells, across calls and across Generator instances
// built from the same seed.
func (g *Generator) TerrainAt(x, y int) Cell {
	b := g.biomeAt(x, y)

	// Squaring the per-tile hash biases the pick toward the biome's dominant
	// terrain while keeping the rarer variants reachable.
	r := g.hash01(1, x, y)
	idx := int(r * r * float64(len(b.terrains)))
	if idx >= len(b.terrains) {
		idx = len(b.terrains) - 1
	}

	return Cell{X: x, Y: y, Terrain: b.terrains[idx], Biome: b.name}
}

// Adjacent returns every cell within the Chebyshev radius of (x, y) in
// row-major order. The center cell is excluded; callers already know it.
func (g *Generator) Adjacent(x, y, radius int) []Cell {
	if radius < 1 {
		return nil
	}
	cells := make([]Cell, 0, (2*radius+1)*(2*radius+1)-1)
	for cy := y - radius; cy <= y+radius; cy++ {
		for cx := x - radius; cx <= x+radius; cx++ {
			if cx == x && cy == y {
				continue
			}
			cells = append(cells, g.TerrainAt(cx, cy))
		}
	}
	return cells
}

func (g *Generator) biomeAt(x, y int) biome {
	v := g.noise(0, x, y, biomeScale)
	idx := int(v * float64(len(biomes)))
	if idx >= len(biomes) {
		idx = len(biomes) - 1
	}
	return biomes[idx]
}

// noise is bilinearly interpolated value noise: lattice corners get hashed
// values and the interior blends smoothly between them, producing contiguous
// regions instead of per-tile static.
func (g *Generator) noise(channel, x, y int, scale float64) float64 {
	fx := float64(x) / scale
	fy := float64(y) / scale
	x0 := math.Floor(fx)
	y0 := math.Floor(fy)
	tx := smoothstep(fx - x0)
	ty := smoothstep(fy - y0)

	ix0 := int(x0)
	iy0 := int(y0)
	c00 := g.hash01(channel, ix0, iy0)
	c10 := g.hash01(channel, ix0+1, iy0)
	c01 := g.hash01(channel, ix0, iy0+1)
	c11 := g.hash01(channel, ix0+1, iy0+1)

	top := lerp(c00, c10, tx)
	bottom := lerp(c01, c11, tx)
	return lerp(top, bottom, ty)
}

// hash01 maps (seed, channel, x, y) to [0, 1) with an avalanche mix so
// neighboring coordinates decorrelate.
func (g *Generator) hash01(channel, x, y int) float64 {
	h := uint64(g.seed) ^ 0x9e3779b97f4a7c15
	h ^= uint64(int64(channel)) * 0xff51afd7ed558ccd
	h ^= uint64(int64(x)) * 0xbf58476d1ce4e5b9
	h = (h ^ h>>30) * 0x94d049bb133111eb
	h ^= uint64(int64(y)) * 0xd6e8feb86659fd93
	h = (h ^ h>>27) * 0xbf58476d1ce4e5b9
	h ^= h >> 31
	return float64(h>>11) / float64(uint64(1)<<53)
}

func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
