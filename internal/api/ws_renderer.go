package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// renderOp is one draw primitive forwarded to the browser canvas.
type renderOp struct {
	Op     string `json:"op"`
	Color  string `json:"color,omitempty"`
	Text   string `json:"text,omitempty"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	W      int    `json:"w,omitempty"`
	H      int    `json:"h,omitempty"`
	Size   int    `json:"size,omitempty"`
	Family string `json:"family,omitempty"`
	Style  string `json:"style,omitempty"`
}

// wsRenderer implements the game render surface over a websocket. Draw calls
// buffer into the current frame; Present ships the frame as a single message
// under a write deadline so a dead socket cannot wedge the game loop.
type wsRenderer struct {
	conn *websocket.Conn
	mu   sync.Mutex
	ops  []renderOp
}

func newWSRenderer(conn *websocket.Conn) *wsRenderer {
	return &wsRenderer{conn: conn}
}

func (r *wsRenderer) Clear() {
	r.ops = append(r.ops[:0], renderOp{Op: "clear"})
}

func (r *wsRenderer) FillBackground(color string) {
	r.ops = append(r.ops, renderOp{Op: "background", Color: color})
}

func (r *wsRenderer) SetDrawColor(color string) {
	r.ops = append(r.ops, renderOp{Op: "color", Color: color})
}

func (r *wsRenderer) SetFont(size int, family, style string) {
	r.ops = append(r.ops, renderOp{Op: "font", Size: size, Family: family, Style: style})
}

func (r *wsRenderer) FillRect(x, y, w, h int) {
	r.ops = append(r.ops, renderOp{Op: "rect", X: x, Y: y, W: w, H: h})
}

func (r *wsRenderer) DrawText(text string, x, y int) {
	r.ops = append(r.ops, renderOp{Op: "text", Text: text, X: x, Y: y})
}

func (r *wsRenderer) Present() {
	frame := make([]renderOp, len(r.ops))
	copy(frame, r.ops)
	r.ops = r.ops[:0]

	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	_ = r.conn.WriteJSON(map[string]any{"type": "render", "ops": frame})
}
