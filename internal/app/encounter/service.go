// Package encounter rolls random monster encounters on player movement and
// drives the narrator call that describes them.
package encounter

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	domaingame "overworld-server/internal/domain/game"
	"overworld-server/internal/domain/monster"
	"overworld-server/internal/domain/world"
	"overworld-server/internal/platform/bus"
	"overworld-server/internal/platform/mq"
	"overworld-server/internal/platform/state"
)

// contextRadius is the neighborhood handed to the narrator around the
// encounter tile.
const contextRadius = 2

// Narrator produces an encounter description for a prompt payload.
type Narrator interface {
	Describe(ctx context.Context, payload any) (string, error)
}

// Catalog supplies the monster templates in stable order.
type Catalog interface {
	Templates() []monster.Template
}

type Config struct {
	Logger    zerolog.Logger
	SessionID uuid.UUID
	Store     *state.Store
	Bus       *bus.Bus
	Generator *world.Generator
	Catalog   Catalog
	Narrator  Narrator
	Cache     *redis.Client // optional description cache
	CacheTTL  time.Duration
	Publisher mq.Publisher
	Rand      *rand.Rand
	// Enqueue posts a continuation onto the session event loop. The narrator
	// response must re-enter single-threaded execution through it.
	Enqueue func(func())
}

// Sampler checks for an encounter after every player move. On a trigger it
// pauses the simulation, asks the narrator for a description and resumes
// with a window open. That narrator call is the only asynchronous hop in the
// whole session.
type Sampler struct {
	logger    zerolog.Logger
	sessionID uuid.UUID
	store     *state.Store
	bus       *bus.Bus
	gen       *world.Generator
	catalog   Catalog
	narrator  Narrator
	cache     *redis.Client
	cacheTTL  time.Duration
	pub       mq.Publisher
	rng       *rand.Rand
	enqueue   func(func())
}

func NewSampler(cfg Config) *Sampler {
	return &Sampler{
		logger:    cfg.Logger,
		sessionID: cfg.SessionID,
		store:     cfg.Store,
		bus:       cfg.Bus,
		gen:       cfg.Generator,
		catalog:   cfg.Catalog,
		narrator:  cfg.Narrator,
		cache:     cfg.Cache,
		cacheTTL:  cfg.CacheTTL,
		pub:       cfg.Publisher,
		rng:       cfg.Rand,
		enqueue:   cfg.Enqueue,
	}
}

// Bind subscribes the sampler to player movement.
func (s *Sampler) Bind() {
	s.bus.On(domaingame.EventPlayerMove, func(any) {
		s.check()
	})
}

func (s *Sampler) check() {
	worldTree := s.store.Subtree(domaingame.SubtreeWorld)
	terrain, ok := worldTree["terrain"].(world.Terrain)
	if !ok {
		// No terrain observed yet; encounters need a known tile.
		return
	}
	if !s.shouldTrigger(terrain.Difficulty) {
		return
	}

	biome, _ := worldTree["biome"].(string)
	candidates := s.candidatesFor(biome)
	if len(candidates) == 0 {
		// Nothing can spawn here; skip the encounter rather than divide by
		// an undefined highest rarity.
		s.logger.Debug().Str("biome", biome).Msg("encounter skipped, no candidates")
		return
	}

	inst := s.roll(candidates)
	s.trigger(inst, biome, terrain)
}

// shouldTrigger draws against the terrain's difficulty: difficulty/10 is the
// per-step encounter probability, so 0 never triggers and 10 always does.
func (s *Sampler) shouldTrigger(difficulty int) bool {
	return s.rng.Float64() < float64(difficulty)/10
}

func (s *Sampler) candidatesFor(biome string) []monster.Template {
	templates := s.catalog.Templates()
	candidates := make([]monster.Template, 0, len(templates))
	for _, t := range templates {
		if t.AllowedIn(biome) {
			candidates = append(candidates, t)
		}
	}
	return candidates
}

// roll picks a template by rarity-inverted weight and instantiates it.
// Weight is highestRarity-rarity+1, so the rarest candidate still gets
// weight 1. Selection is a linear cumulative scan in catalog order; ties on
// the draw boundary resolve to the earlier catalog entry.
func (s *Sampler) roll(candidates []monster.Template) monster.Instance {
	highest := 0
	for _, c := range candidates {
		if c.Rarity > highest {
			highest = c.Rarity
		}
	}
	total := 0.0
	for _, c := range candidates {
		total += float64(highest - c.Rarity + 1)
	}

	draw := s.rng.Float64() * total
	chosen := candidates[0] // float edge-case fallback
	cumulative := 0.0
	for _, c := range candidates {
		cumulative += float64(highest - c.Rarity + 1)
		if cumulative > draw {
			chosen = c
			break
		}
	}

	level := s.rollLevel(chosen.MinLevel, chosen.MaxLevel)
	return monster.Instance{
		Template:  chosen,
		Level:     level,
		MaxHealth: level * chosen.BaseHealth,
	}
}

// rollLevel draws uniformly on [min, max] and rounds to the nearest integer,
// half up, so both endpoints stay reachable.
func (s *Sampler) rollLevel(min, max int) int {
	return int(math.Round(float64(min) + s.rng.Float64()*float64(max-min)))
}

func (s *Sampler) trigger(inst monster.Instance, biome string, terrain world.Terrain) {
	player := s.store.Subtree(domaingame.SubtreePlayer)
	x, _ := player["x"].(int)
	y, _ := player["y"].(int)

	current := world.Cell{X: x, Y: y, Terrain: terrain, Biome: biome}
	surrounding := make([]string, 0)
	for _, cell := range s.gen.Adjacent(x, y, contextRadius) {
		surrounding = append(surrounding, describeCell(cell))
	}

	prompt := map[string]any{
		"currentTerrain":     describeCell(current),
		"monster":            inst,
		"playerState":        promptPlayer(player),
		"surroundingTerrain": surrounding,
	}

	// Pause before the asynchronous hop; the orchestrator discards input
	// while paused, which is what keeps this request the only one in flight.
	s.store.Dispatch(domaingame.SubtreeUI, state.Tree{"isPaused": true})

	if err := mq.PublishJSON(context.Background(), s.pub, "game.encounter.triggered", map[string]any{
		"session_id": s.sessionID,
		"monster":    inst.Name,
		"level":      inst.Level,
		"biome":      biome,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("encounter event publish failed")
	}

	go func() {
		text := s.describe(inst, current, prompt)
		s.enqueue(func() {
			s.store.Dispatch(domaingame.SubtreeUI, state.Tree{"isPaused": false})
			s.bus.Emit(domaingame.EventWindowOpen, domaingame.Window{
				ID:      uuid.NewString(),
				Title:   fmt.Sprintf("A %s appears!", inst.Name),
				Lines:   append(strings.Split(text, "\n"), "", fmt.Sprintf("Level %d — %d health", inst.Level, inst.MaxHealth)),
				Buttons: []domaingame.Button{{ID: "close", Label: "Continue"}},
			})
		})
	}()
}

// describe fetches the encounter text, trying the cache first. Any narrator
// failure degrades to a canned description; the game must never stay paused
// because the backend misbehaved.
func (s *Sampler) describe(inst monster.Instance, cell world.Cell, prompt map[string]any) string {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	key := fmt.Sprintf("description:%s:%s:%s", inst.Name, cell.Biome, cell.Terrain.Type)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil && cached != "" {
			return cached
		}
	}

	text, err := s.narrator.Describe(ctx, prompt)
	if err != nil {
		s.logger.Warn().Err(err).Str("monster", inst.Name).Msg("narrator call failed, using fallback description")
		return fallbackDescription(inst, cell)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, text, s.cacheTTL).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("description cache write failed")
		}
	}
	return text
}

func fallbackDescription(inst monster.Instance, cell world.Cell) string {
	return fmt.Sprintf("A %s bursts from the %s before you can react. %s",
		inst.Name, strings.ToLower(cell.Terrain.Label), inst.Appearance)
}

// describeCell renders a coordinate-annotated biome/terrain string for the
// narrator prompt.
func describeCell(c world.Cell) string {
	return fmt.Sprintf("(%d,%d) %s / %s", c.X, c.Y, c.Biome, c.Terrain.Label)
}

// promptPlayer flattens the player subtree for serialization: identifier
// sets become sorted lists so the prompt JSON is stable and readable.
func promptPlayer(player state.Tree) state.Tree {
	out := make(state.Tree, len(player))
	for k, v := range player {
		if set, ok := v.(map[string]struct{}); ok {
			out[k] = domaingame.SortedSet(set)
			continue
		}
		out[k] = v
	}
	return out
}
