// Package game defines the domain vocabulary shared by the session runtime:
// bus event names, state subtree keys and the UI window descriptors.
package game

import "sort"

// Bus event names. PLAYER_MOVE carries no payload; WINDOW_OPEN carries a
// Window; WINDOW_CLOSE closes the most recently opened window.
const (
	EventPlayerMove  = "PLAYER_MOVE"
	EventWindowOpen  = "WINDOW_OPEN"
	EventWindowClose = "WINDOW_CLOSE"
)

// State subtree keys.
const (
	SubtreePlayer = "player"
	SubtreeUI     = "ui"
	SubtreeWorld  = "world"
)

type Button struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Window is one open UI window: a title, ordered content lines and ordered
// buttons.
type Window struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Lines   []string `json:"lines"`
	Buttons []Button `json:"buttons"`
}

// WindowList is the ordered stack of open windows kept in the ui subtree.
type WindowList []Window

// CloneValue satisfies the state store's clone hook so snapshots never alias
// the live window stack.
func (w WindowList) CloneValue() any {
	out := make(WindowList, len(w))
	for i, win := range w {
		win.Lines = append([]string(nil), win.Lines...)
		win.Buttons = append([]Button(nil), win.Buttons...)
		out[i] = win
	}
	return out
}

// SortedSet returns the members of an identifier set in sorted order, for
// display and for serialization into narrator prompts.
func SortedSet(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
