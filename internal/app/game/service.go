// Package game runs one player's session: a single-goroutine event loop that
// owns the session's state store and event bus, translates input into domain
// actions and drives the render surface.
package game

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"overworld-server/internal/app/encounter"
	domaingame "overworld-server/internal/domain/game"
	"overworld-server/internal/domain/world"
	"overworld-server/internal/platform/bus"
	"overworld-server/internal/platform/mq"
	"overworld-server/internal/platform/state"
)

const (
	tileSize = 24

	startHealth = 30
	startEnergy = 20

	restEnergyGain = 5
	restHealthGain = 1
	moveEnergyCost = 1

	// Terrain at or above this difficulty gets a one-time warning window.
	dangerThreshold = 8
)

// Renderer is the render-surface collaborator. DrawText renders a single
// line; the session splits multi-line content itself. Present marks the end
// of a frame.
type Renderer interface {
	Clear()
	FillBackground(color string)
	SetDrawColor(color string)
	SetFont(size int, family, style string)
	FillRect(x, y, w, h int)
	DrawText(text string, x, y int)
	Present()
}

// InputEvent is one discrete key press or click target from the input
// collaborator.
type InputEvent struct {
	Key    string `json:"key,omitempty"`
	Target string `json:"target,omitempty"`
}

type Config struct {
	Logger     zerolog.Logger
	Generator  *world.Generator
	Catalog    encounter.Catalog
	Narrator   encounter.Narrator
	Cache      *redis.Client
	CacheTTL   time.Duration
	Publisher  mq.Publisher
	Renderer   Renderer
	ViewRadius int
	// RandSeed pins the session's random source; 0 seeds from the clock.
	RandSeed int64
}

// Session is the orchestrator for one game. All state mutation happens on
// the goroutine running Run; other goroutines talk to it through Offer and
// Defer.
type Session struct {
	id       uuid.UUID
	logger   zerolog.Logger
	store    *state.Store
	bus      *bus.Bus
	gen      *world.Generator
	sampler  *encounter.Sampler
	renderer Renderer
	pub      mq.Publisher

	viewRadius int
	inputs     chan InputEvent
	deferred   chan func()
}

// InitialState returns the three session subtrees in their starting shape.
func InitialState() map[string]state.Tree {
	return map[string]state.Tree{
		domaingame.SubtreePlayer: {
			"x":            0,
			"y":            0,
			"health":       startHealth,
			"maxHealth":    startHealth,
			"energy":       startEnergy,
			"maxEnergy":    startEnergy,
			"experience":   0,
			"abilities":    map[string]struct{}{},
			"conditions":   map[string]struct{}{},
			"requirements": map[string]struct{}{},
			"warned":       false,
		},
		domaingame.SubtreeUI: {
			"isPaused": false,
			"windows":  domaingame.WindowList{},
		},
		domaingame.SubtreeWorld: {
			"biome":   "",
			"terrain": nil,
		},
	}
}

func NewSession(cfg Config) *Session {
	seed := cfg.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	id := uuid.New()
	s := &Session{
		id:         id,
		logger:     cfg.Logger.With().Str("game_session", id.String()).Logger(),
		store:      state.NewWith(InitialState()),
		bus:        bus.New(),
		gen:        cfg.Generator,
		renderer:   cfg.Renderer,
		pub:        cfg.Publisher,
		viewRadius: cfg.ViewRadius,
		inputs:     make(chan InputEvent, 64),
		deferred:   make(chan func(), 16),
	}
	s.sampler = encounter.NewSampler(encounter.Config{
		Logger:    s.logger,
		SessionID: id,
		Store:     s.store,
		Bus:       s.bus,
		Generator: cfg.Generator,
		Catalog:   cfg.Catalog,
		Narrator:  cfg.Narrator,
		Cache:     cfg.Cache,
		CacheTTL:  cfg.CacheTTL,
		Publisher: cfg.Publisher,
		Rand:      rand.New(rand.NewSource(seed)),
		Enqueue:   s.Defer,
	})
	s.sampler.Bind()
	s.bus.On(domaingame.EventWindowOpen, func(payload any) {
		if w, ok := payload.(domaingame.Window); ok {
			s.openWindow(w)
		}
	})
	s.bus.On(domaingame.EventWindowClose, func(any) {
		s.closeTopWindow()
	})
	s.store.Subscribe(s.drawFrame)
	return s
}

func (s *Session) ID() uuid.UUID { return s.id }

// Offer delivers an input event without blocking the transport reader.
// Events are dropped when the loop is saturated.
func (s *Session) Offer(ev InputEvent) {
	select {
	case s.inputs <- ev:
	default:
	}
}

// Defer queues fn onto the session event loop.
func (s *Session) Defer(fn func()) {
	s.deferred <- fn
}

// Run processes input and deferred continuations until ctx is cancelled.
// Everything that touches the store or the bus happens on this goroutine.
func (s *Session) Run(ctx context.Context) {
	s.refreshWorldInfo()
	s.drawFrame()
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-s.deferred:
			fn()
		case ev := <-s.inputs:
			s.handleInput(ev)
		}
	}
}

func (s *Session) handleInput(ev InputEvent) {
	if s.paused() {
		// A narrator request is in flight; nothing may mutate state until it
		// resumes.
		return
	}
	if ev.Target != "" {
		s.handleClick(ev.Target)
		return
	}
	switch ev.Key {
	case "ArrowUp", "w":
		s.movePlayer(0, -1)
	case "ArrowDown", "s":
		s.movePlayer(0, 1)
	case "ArrowLeft", "a":
		s.movePlayer(-1, 0)
	case "ArrowRight", "d":
		s.movePlayer(1, 0)
	case "r":
		s.rest()
	case "i":
		s.openInventory()
	case "f":
		s.search()
	case "h":
		s.openHelp()
	case "Escape":
		s.bus.Emit(domaingame.EventWindowClose, nil)
	default:
		// Unmapped keys are ignored.
	}
}

func (s *Session) paused() bool {
	isPaused, _ := s.store.Subtree(domaingame.SubtreeUI)["isPaused"].(bool)
	return isPaused
}

func (s *Session) movePlayer(dx, dy int) {
	player := s.store.Subtree(domaingame.SubtreePlayer)
	x, _ := player["x"].(int)
	y, _ := player["y"].(int)
	energy, _ := player["energy"].(int)
	if energy < moveEnergyCost {
		s.openWindow(domaingame.Window{
			ID:      uuid.NewString(),
			Title:   "Exhausted",
			Lines:   []string{"You are too tired to keep walking.", "Rest (r) to recover energy."},
			Buttons: []domaingame.Button{{ID: "close", Label: "OK"}},
		})
		return
	}

	nx, ny := x+dx, y+dy
	s.store.Dispatch(domaingame.SubtreePlayer, state.Tree{
		"x":      nx,
		"y":      ny,
		"energy": energy - moveEnergyCost,
	})
	s.refreshWorldInfo()
	s.warnIfDangerous()

	s.bus.Emit(domaingame.EventPlayerMove, nil)
	if err := mq.PublishJSON(context.Background(), s.pub, "game.player.moved", map[string]any{
		"session_id": s.id,
		"x":          nx,
		"y":          ny,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("move event publish failed")
	}
}

// refreshWorldInfo recomputes the observed biome and terrain for the player's
// tile. It dispatches only on change so subscribers do not fan out for every
// step inside the same terrain.
func (s *Session) refreshWorldInfo() {
	player := s.store.Subtree(domaingame.SubtreePlayer)
	x, _ := player["x"].(int)
	y, _ := player["y"].(int)
	cell := s.gen.TerrainAt(x, y)

	worldTree := s.store.Subtree(domaingame.SubtreeWorld)
	biome, _ := worldTree["biome"].(string)
	terrain, ok := worldTree["terrain"].(world.Terrain)
	if ok && biome == cell.Biome && terrain == cell.Terrain {
		return
	}
	s.store.Dispatch(domaingame.SubtreeWorld, state.Tree{
		"biome":   cell.Biome,
		"terrain": cell.Terrain,
	})
}

// warnIfDangerous opens a one-time warning the first time the player steps
// onto high-difficulty terrain.
func (s *Session) warnIfDangerous() {
	player := s.store.Subtree(domaingame.SubtreePlayer)
	if warned, _ := player["warned"].(bool); warned {
		return
	}
	terrain, ok := s.store.Subtree(domaingame.SubtreeWorld)["terrain"].(world.Terrain)
	if !ok || terrain.Difficulty < dangerThreshold {
		return
	}
	s.store.Dispatch(domaingame.SubtreePlayer, state.Tree{"warned": true})
	s.openWindow(domaingame.Window{
		ID:      uuid.NewString(),
		Title:   "Danger",
		Lines:   []string{fmt.Sprintf("The %s ahead looks treacherous.", terrain.Label), "Monsters here will be stronger."},
		Buttons: []domaingame.Button{{ID: "close", Label: "Understood"}},
	})
}

func (s *Session) rest() {
	player := s.store.Subtree(domaingame.SubtreePlayer)
	energy, _ := player["energy"].(int)
	maxEnergy, _ := player["maxEnergy"].(int)
	health, _ := player["health"].(int)
	maxHealth, _ := player["maxHealth"].(int)
	s.store.Dispatch(domaingame.SubtreePlayer, state.Tree{
		"energy": min(energy+restEnergyGain, maxEnergy),
		"health": min(health+restHealthGain, maxHealth),
	})
}

func (s *Session) search() {
	player := s.store.Subtree(domaingame.SubtreePlayer)
	x, _ := player["x"].(int)
	y, _ := player["y"].(int)

	lines := make([]string, 0, 8)
	for _, cell := range s.gen.Adjacent(x, y, 1) {
		lines = append(lines, fmt.Sprintf("(%d,%d) %s — %s", cell.X, cell.Y, cell.Biome, cell.Terrain.Label))
	}
	s.bus.Emit(domaingame.EventWindowOpen, domaingame.Window{
		ID:      uuid.NewString(),
		Title:   "Surroundings",
		Lines:   lines,
		Buttons: []domaingame.Button{{ID: "close", Label: "Close"}},
	})
}

func (s *Session) openInventory() {
	player := s.store.Subtree(domaingame.SubtreePlayer)
	experience, _ := player["experience"].(int)
	abilities, _ := player["abilities"].(map[string]struct{})
	conditions, _ := player["conditions"].(map[string]struct{})

	lines := []string{fmt.Sprintf("Experience: %d", experience), ""}
	lines = append(lines, "Abilities:")
	if len(abilities) == 0 {
		lines = append(lines, "  none")
	}
	for _, id := range domaingame.SortedSet(abilities) {
		lines = append(lines, "  "+id)
	}
	lines = append(lines, "Conditions:")
	if len(conditions) == 0 {
		lines = append(lines, "  none")
	}
	for _, id := range domaingame.SortedSet(conditions) {
		lines = append(lines, "  "+id)
	}

	s.bus.Emit(domaingame.EventWindowOpen, domaingame.Window{
		ID:      uuid.NewString(),
		Title:   "Inventory",
		Lines:   lines,
		Buttons: []domaingame.Button{{ID: "close", Label: "Close"}},
	})
}

func (s *Session) openHelp() {
	s.bus.Emit(domaingame.EventWindowOpen, domaingame.Window{
		ID:    uuid.NewString(),
		Title: "Help",
		Lines: []string{
			"Arrows / WASD — move",
			"r — rest",
			"f — search surroundings",
			"i — inventory",
			"h — this help",
			"Escape — close window",
		},
		Buttons: []domaingame.Button{{ID: "close", Label: "Close"}},
	})
}

func (s *Session) handleClick(target string) {
	windows, _ := s.store.Subtree(domaingame.SubtreeUI)["windows"].(domaingame.WindowList)
	if len(windows) == 0 {
		return
	}
	top := windows[len(windows)-1]
	for _, btn := range top.Buttons {
		if btn.ID == target {
			s.bus.Emit(domaingame.EventWindowClose, nil)
			return
		}
	}
}

func (s *Session) openWindow(w domaingame.Window) {
	windows, _ := s.store.Subtree(domaingame.SubtreeUI)["windows"].(domaingame.WindowList)
	s.store.Dispatch(domaingame.SubtreeUI, state.Tree{"windows": append(windows, w)})
}

func (s *Session) closeTopWindow() {
	windows, _ := s.store.Subtree(domaingame.SubtreeUI)["windows"].(domaingame.WindowList)
	if len(windows) == 0 {
		return
	}
	s.store.Dispatch(domaingame.SubtreeUI, state.Tree{"windows": windows[:len(windows)-1]})
}

// drawFrame repaints the whole surface from the current state. It runs as a
// store subscriber, so every dispatch ends with a consistent frame.
func (s *Session) drawFrame() {
	r := s.renderer
	player := s.store.Subtree(domaingame.SubtreePlayer)
	x, _ := player["x"].(int)
	y, _ := player["y"].(int)

	span := 2*s.viewRadius + 1
	viewPx := span * tileSize

	r.Clear()
	r.FillBackground("#101014")

	for cy := y - s.viewRadius; cy <= y+s.viewRadius; cy++ {
		for cx := x - s.viewRadius; cx <= x+s.viewRadius; cx++ {
			cell := s.gen.TerrainAt(cx, cy)
			px := (cx - x + s.viewRadius) * tileSize
			py := (cy - y + s.viewRadius) * tileSize
			r.SetDrawColor(cell.Terrain.Color)
			r.FillRect(px, py, tileSize, tileSize)
		}
	}

	// Player marker in the center tile.
	r.SetDrawColor("#ffffff")
	r.FillRect(s.viewRadius*tileSize+tileSize/3, s.viewRadius*tileSize+tileSize/3, tileSize/3, tileSize/3)

	s.drawHUD(r, viewPx)
	s.drawWindows(r)
	r.Present()
}

func (s *Session) drawHUD(r Renderer, viewPx int) {
	player := s.store.Subtree(domaingame.SubtreePlayer)
	health, _ := player["health"].(int)
	maxHealth, _ := player["maxHealth"].(int)
	energy, _ := player["energy"].(int)
	maxEnergy, _ := player["maxEnergy"].(int)
	experience, _ := player["experience"].(int)

	worldTree := s.store.Subtree(domaingame.SubtreeWorld)
	biome, _ := worldTree["biome"].(string)
	label := ""
	if terrain, ok := worldTree["terrain"].(world.Terrain); ok {
		label = terrain.Label
	}

	r.SetDrawColor("#e8e8e8")
	r.SetFont(14, "monospace", "")
	r.DrawText(fmt.Sprintf("HP %d/%d  EN %d/%d  XP %d", health, maxHealth, energy, maxEnergy, experience), 8, viewPx+18)
	r.DrawText(fmt.Sprintf("%s — %s", biome, label), 8, viewPx+36)
}

// drawWindows paints the open window stack. Content lines may contain
// embedded newlines; they are split here because DrawText renders exactly
// one line.
func (s *Session) drawWindows(r Renderer) {
	windows, _ := s.store.Subtree(domaingame.SubtreeUI)["windows"].(domaingame.WindowList)
	for i, w := range windows {
		px := 40 + i*16
		py := 40 + i*16
		r.SetDrawColor("#1c1c24")
		r.FillRect(px, py, 360, 240)
		r.SetDrawColor("#e8e8e8")
		r.SetFont(16, "monospace", "bold")
		r.DrawText(w.Title, px+12, py+24)
		r.SetFont(13, "monospace", "")
		line := 0
		for _, content := range w.Lines {
			for _, part := range splitLines(content) {
				r.DrawText(part, px+12, py+48+line*16)
				line++
			}
		}
		for j, btn := range w.Buttons {
			r.DrawText("[ "+btn.Label+" ]", px+12+j*100, py+220)
		}
	}
}

func splitLines(content string) []string {
	lines := []string{}
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lines = append(lines, content[start:i])
			start = i + 1
		}
	}
	return append(lines, content[start:])
}
