package world

import "testing"

func TestTerrainAtDeterministic(t *testing.T) {
	g1 := NewGenerator("determinism")
	g2 := NewGenerator("determinism")

	for y := -40; y <= 40; y += 4 {
		for x := -40; x <= 40; x += 4 {
			a := g1.TerrainAt(x, y)
			b := g2.TerrainAt(x, y)
			if a != b {
				t.Fatalf("generators disagree at (%d,%d): %+v vs %+v", x, y, a, b)
			}
			if again := g1.TerrainAt(x, y); again != a {
				t.Fatalf("repeated lookup differs at (%d,%d)", x, y)
			}
		}
	}
}

func TestDifferentSeedsProduceDifferentWorlds(t *testing.T) {
	g1 := NewGenerator("alpha")
	g2 := NewGenerator("beta")

	diffs := 0
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if g1.TerrainAt(x, y) != g2.TerrainAt(x, y) {
				diffs++
			}
		}
	}
	if diffs == 0 {
		t.Fatalf("400 tiles identical across different seeds")
	}
}

func TestTerrainAtFieldsPopulated(t *testing.T) {
	g := NewGenerator("fields")
	for y := -10; y <= 10; y++ {
		for x := -10; x <= 10; x++ {
			c := g.TerrainAt(x, y)
			if c.X != x || c.Y != y {
				t.Fatalf("coordinate mismatch: got (%d,%d), want (%d,%d)", c.X, c.Y, x, y)
			}
			if c.Biome == "" || c.Terrain.Label == "" || c.Terrain.Type == "" {
				t.Fatalf("incomplete cell at (%d,%d): %+v", x, y, c)
			}
			if c.Terrain.Difficulty < 0 || c.Terrain.Difficulty > 10 {
				t.Fatalf("difficulty %d out of range at (%d,%d)", c.Terrain.Difficulty, x, y)
			}
		}
	}
}

func TestAdjacentRowMajorExcludingCenter(t *testing.T) {
	g := NewGenerator("adjacent")
	cells := g.Adjacent(3, -2, 1)

	if len(cells) != 8 {
		t.Fatalf("Adjacent radius 1 returned %d cells, want 8", len(cells))
	}

	wantCoords := [][2]int{
		{2, -3}, {3, -3}, {4, -3},
		{2, -2}, {4, -2},
		{2, -1}, {3, -1}, {4, -1},
	}
	for i, c := range cells {
		if c.X != wantCoords[i][0] || c.Y != wantCoords[i][1] {
			t.Fatalf("cell %d at (%d,%d), want (%d,%d)", i, c.X, c.Y, wantCoords[i][0], wantCoords[i][1])
		}
		if c != g.TerrainAt(c.X, c.Y) {
			t.Fatalf("Adjacent cell %d disagrees with TerrainAt", i)
		}
	}
}

func TestAdjacentRadiusTwo(t *testing.T) {
	g := NewGenerator("adjacent")
	cells := g.Adjacent(0, 0, 2)
	if len(cells) != 24 {
		t.Fatalf("Adjacent radius 2 returned %d cells, want 24", len(cells))
	}
	for _, c := range cells {
		if c.X == 0 && c.Y == 0 {
			t.Fatalf("center cell included")
		}
	}
}

func TestAdjacentNonPositiveRadius(t *testing.T) {
	g := NewGenerator("adjacent")
	if got := g.Adjacent(0, 0, 0); got != nil {
		t.Fatalf("radius 0 returned %v, want nil", got)
	}
	if got := g.Adjacent(0, 0, -1); got != nil {
		t.Fatalf("negative radius returned %v, want nil", got)
	}
}

func TestBiomesFormContiguousRegions(t *testing.T) {
	g := NewGenerator("regions")

	// With region size well above one tile, most horizontal neighbors share a
	// biome. Per-tile static would put this near the 1/6 base rate.
	same, total := 0, 0
	for y := 0; y < 50; y++ {
		for x := 0; x < 49; x++ {
			if g.TerrainAt(x, y).Biome == g.TerrainAt(x+1, y).Biome {
				same++
			}
			total++
		}
	}
	if ratio := float64(same) / float64(total); ratio < 0.8 {
		t.Fatalf("neighbor biome agreement %.2f, want >= 0.8", ratio)
	}
}
