package game

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	domaingame "overworld-server/internal/domain/game"
	"overworld-server/internal/domain/monster"
	"overworld-server/internal/domain/world"
	"overworld-server/internal/platform/state"
)

// emptyCatalog keeps encounters out of orchestration tests: with no
// candidates every trigger roll is skipped.
type emptyCatalog struct{}

func (emptyCatalog) Templates() []monster.Template { return nil }

type nopNarrator struct{}

func (nopNarrator) Describe(context.Context, any) (string, error) { return "unused", nil }

type recordingRenderer struct {
	presents int
	texts    []string
}

func (r *recordingRenderer) Clear()                         { r.texts = r.texts[:0] }
func (r *recordingRenderer) FillBackground(string)          {}
func (r *recordingRenderer) SetDrawColor(string)            {}
func (r *recordingRenderer) SetFont(int, string, string)    {}
func (r *recordingRenderer) FillRect(int, int, int, int)    {}
func (r *recordingRenderer) DrawText(text string, _, _ int) { r.texts = append(r.texts, text) }
func (r *recordingRenderer) Present()                       { r.presents++ }

func newTestSession() (*Session, *recordingRenderer) {
	renderer := &recordingRenderer{}
	s := NewSession(Config{
		Logger:     zerolog.Nop(),
		Generator:  world.NewGenerator("session-test"),
		Catalog:    emptyCatalog{},
		Narrator:   nopNarrator{},
		Renderer:   renderer,
		ViewRadius: 2,
		RandSeed:   1,
	})
	return s, renderer
}

func (s *Session) playerInt(t *testing.T, field string) int {
	t.Helper()
	v, ok := s.store.Subtree(domaingame.SubtreePlayer)[field].(int)
	if !ok {
		t.Fatalf("player field %q missing or not int", field)
	}
	return v
}

func (s *Session) openWindows() domaingame.WindowList {
	windows, _ := s.store.Subtree(domaingame.SubtreeUI)["windows"].(domaingame.WindowList)
	return windows
}

func TestMoveUpdatesPositionAndEnergy(t *testing.T) {
	s, _ := newTestSession()

	s.handleInput(InputEvent{Key: "ArrowRight"})
	if got := s.playerInt(t, "x"); got != 1 {
		t.Fatalf("x = %d, want 1", got)
	}
	if got := s.playerInt(t, "energy"); got != startEnergy-1 {
		t.Fatalf("energy = %d, want %d", got, startEnergy-1)
	}

	s.handleInput(InputEvent{Key: "w"})
	if got := s.playerInt(t, "y"); got != -1 {
		t.Fatalf("y = %d, want -1", got)
	}
	if got := s.playerInt(t, "x"); got != 1 {
		t.Fatalf("x changed on vertical move: %d", got)
	}
}

func TestMoveObservesTerrain(t *testing.T) {
	s, _ := newTestSession()

	s.handleInput(InputEvent{Key: "d"})

	worldTree := s.store.Subtree(domaingame.SubtreeWorld)
	if biome, _ := worldTree["biome"].(string); biome == "" {
		t.Fatalf("biome not observed after move")
	}
	if _, ok := worldTree["terrain"].(world.Terrain); !ok {
		t.Fatalf("terrain not observed after move: %T", worldTree["terrain"])
	}
}

func TestPausedSessionDiscardsInput(t *testing.T) {
	s, _ := newTestSession()
	s.store.Dispatch(domaingame.SubtreeUI, state.Tree{"isPaused": true})

	s.handleInput(InputEvent{Key: "ArrowRight"})
	s.handleInput(InputEvent{Key: "f"})
	s.handleInput(InputEvent{Target: "close"})

	if got := s.playerInt(t, "x"); got != 0 {
		t.Fatalf("paused move applied: x = %d", got)
	}
	if got := s.playerInt(t, "energy"); got != startEnergy {
		t.Fatalf("paused move spent energy: %d", got)
	}
	if n := len(s.openWindows()); n != 0 {
		t.Fatalf("paused input opened %d windows", n)
	}
}

func TestExhaustedPlayerCannotMove(t *testing.T) {
	s, _ := newTestSession()
	s.store.Dispatch(domaingame.SubtreePlayer, state.Tree{"energy": 0})

	s.handleInput(InputEvent{Key: "ArrowDown"})

	if got := s.playerInt(t, "y"); got != 0 {
		t.Fatalf("exhausted move applied: y = %d", got)
	}
	windows := s.openWindows()
	if len(windows) != 1 || windows[0].Title != "Exhausted" {
		t.Fatalf("windows = %v", windows)
	}
}

func TestRestRecoversAndCaps(t *testing.T) {
	s, _ := newTestSession()
	s.store.Dispatch(domaingame.SubtreePlayer, state.Tree{"energy": 0, "health": 25})

	s.handleInput(InputEvent{Key: "r"})
	if got := s.playerInt(t, "energy"); got != restEnergyGain {
		t.Fatalf("energy = %d, want %d", got, restEnergyGain)
	}
	if got := s.playerInt(t, "health"); got != 26 {
		t.Fatalf("health = %d, want 26", got)
	}

	for i := 0; i < 20; i++ {
		s.handleInput(InputEvent{Key: "r"})
	}
	if got := s.playerInt(t, "energy"); got != startEnergy {
		t.Fatalf("energy overshot max: %d", got)
	}
	if got := s.playerInt(t, "health"); got != startHealth {
		t.Fatalf("health overshot max: %d", got)
	}
}

func TestSearchOpensSurroundingsWindow(t *testing.T) {
	s, _ := newTestSession()

	s.handleInput(InputEvent{Key: "f"})

	windows := s.openWindows()
	if len(windows) != 1 || windows[0].Title != "Surroundings" {
		t.Fatalf("windows = %v", windows)
	}
	if len(windows[0].Lines) != 8 {
		t.Fatalf("survey has %d lines, want 8", len(windows[0].Lines))
	}
}

func TestInventoryAndHelpWindows(t *testing.T) {
	s, _ := newTestSession()

	s.handleInput(InputEvent{Key: "i"})
	s.handleInput(InputEvent{Key: "h"})

	windows := s.openWindows()
	if len(windows) != 2 {
		t.Fatalf("opened %d windows, want 2", len(windows))
	}
	if windows[0].Title != "Inventory" || windows[1].Title != "Help" {
		t.Fatalf("titles = %q, %q", windows[0].Title, windows[1].Title)
	}
}

func TestEscapeClosesTopWindow(t *testing.T) {
	s, _ := newTestSession()
	s.handleInput(InputEvent{Key: "i"})
	s.handleInput(InputEvent{Key: "h"})

	s.handleInput(InputEvent{Key: "Escape"})
	windows := s.openWindows()
	if len(windows) != 1 || windows[0].Title != "Inventory" {
		t.Fatalf("windows after Escape = %v", windows)
	}

	s.handleInput(InputEvent{Key: "Escape"})
	if n := len(s.openWindows()); n != 0 {
		t.Fatalf("%d windows after second Escape", n)
	}

	// Escape with nothing open is a no-op.
	s.handleInput(InputEvent{Key: "Escape"})
}

func TestClickMatchesTopWindowButtons(t *testing.T) {
	s, _ := newTestSession()
	s.handleInput(InputEvent{Key: "h"})

	s.handleInput(InputEvent{Target: "bogus"})
	if n := len(s.openWindows()); n != 1 {
		t.Fatalf("unknown target closed a window: %d open", n)
	}

	s.handleInput(InputEvent{Target: "close"})
	if n := len(s.openWindows()); n != 0 {
		t.Fatalf("close button left %d windows", n)
	}

	// Clicks with no window open are ignored.
	s.handleInput(InputEvent{Target: "close"})
}

func TestDangerWarningFiresOnce(t *testing.T) {
	s, _ := newTestSession()
	s.store.Dispatch(domaingame.SubtreeWorld, state.Tree{
		"biome":   "mountains",
		"terrain": world.Terrain{Type: world.TerrainPeak, Label: "Windswept Peak", Difficulty: 10},
	})

	s.warnIfDangerous()
	windows := s.openWindows()
	if len(windows) != 1 || windows[0].Title != "Danger" {
		t.Fatalf("windows = %v", windows)
	}

	s.warnIfDangerous()
	if n := len(s.openWindows()); n != 1 {
		t.Fatalf("warning repeated: %d windows", n)
	}
}

func TestNoWarningBelowThreshold(t *testing.T) {
	s, _ := newTestSession()
	s.store.Dispatch(domaingame.SubtreeWorld, state.Tree{
		"biome":   "plains",
		"terrain": world.Terrain{Type: world.TerrainGrass, Label: "Grassland", Difficulty: dangerThreshold - 1},
	})

	s.warnIfDangerous()
	if n := len(s.openWindows()); n != 0 {
		t.Fatalf("warning below threshold: %d windows", n)
	}
}

func TestEveryDispatchEndsWithAFrame(t *testing.T) {
	s, renderer := newTestSession()
	before := renderer.presents

	s.handleInput(InputEvent{Key: "ArrowRight"})

	if renderer.presents <= before {
		t.Fatalf("no frame presented after input")
	}
	if len(renderer.texts) == 0 {
		t.Fatalf("frame carried no HUD text")
	}
}

func TestOfferNeverBlocks(t *testing.T) {
	s, _ := newTestSession()
	for i := 0; i < 500; i++ {
		s.Offer(InputEvent{Key: "ArrowRight"})
	}
}

func TestRunProcessesDeferredWork(t *testing.T) {
	s, _ := newTestSession()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	done := make(chan struct{})
	s.Defer(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("deferred work never ran")
	}
}
