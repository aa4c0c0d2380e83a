// Package monster holds the static monster catalog types and the per-encounter
// instances rolled from them.
package monster

import "slices"

// Template is a read-only catalog entry. Lower rarity means more common.
// An empty biome list allows the monster everywhere.
type Template struct {
	Name       string   `json:"name" yaml:"name"`
	Rarity     int      `json:"rarity" yaml:"rarity"`
	MinLevel   int      `json:"min_level" yaml:"min_level"`
	MaxLevel   int      `json:"max_level" yaml:"max_level"`
	BaseHealth int      `json:"base_health" yaml:"base_health"`
	Biomes     []string `json:"biomes,omitempty" yaml:"biomes"`
	Habits     string   `json:"habits,omitempty" yaml:"habits"`
	Appearance string   `json:"appearance,omitempty" yaml:"appearance"`
}

// AllowedIn reports whether the template can spawn in the named biome.
func (t Template) AllowedIn(biome string) bool {
	if len(t.Biomes) == 0 {
		return true
	}
	return slices.Contains(t.Biomes, biome)
}

// Instance is one rolled encounter. It lives only until its description
// request completes.
type Instance struct {
	Template
	Level     int `json:"level"`
	MaxHealth int `json:"max_health"`
}
