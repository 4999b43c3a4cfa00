package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"

	"github.com/mapsketch/mapsketch/internal/geom"
	"github.com/mapsketch/mapsketch/internal/sketch"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// the page is served from the same origin; embedding elsewhere is fine
	CheckOrigin: func(r *http.Request) bool { return true },
}

// pointerMsg is one client event on the pointer stream.
type pointerMsg struct {
	Type string  `json:"type"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
	Mode string  `json:"mode"`
}

// stateMsg is the full session state pushed back to the client.
type stateMsg struct {
	Type        string          `json:"type"`
	Mode        string          `json:"mode"`
	Selected    string          `json:"selected"`
	Measurement string          `json:"measurement"`
	Simplify    string          `json:"simplify"`
	Collection  json.RawMessage `json:"collection"`
}

// wsControl fans the engine's basemap affordances and layer re-binding out
// to the attached websocket. Without a socket both are no-ops.
type wsControl struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsControl) attach(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *wsControl) detach(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
}

func (c *wsControl) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.WriteJSON(v)
}

// SetDragging implements sketch.MapControl.
func (c *wsControl) SetDragging(enabled bool) {
	_ = c.send(map[string]any{"type": "control", "dragging": enabled})
}

// SetCursor implements sketch.MapControl.
func (c *wsControl) SetCursor(cursor string) {
	_ = c.send(map[string]any{"type": "control", "cursor": cursor})
}

// Bind implements sketch.Binder: the client is told to re-create the
// interactive overlay of a restored layer. A write failure propagates so
// the store can surface the layer as possibly not editable.
func (c *wsControl) Bind(layer *sketch.Layer) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	if err := conn.WriteJSON(map[string]any{"type": "bind", "layer": layer.ID}); err != nil {
		return errors.New("socket write failed: " + err.Error())
	}
	return nil
}

// HandleSocket upgrades to a websocket and feeds its pointer-event stream
// into the session. Path: /ws/sessions/{id}
func (s *ServerContext) HandleSocket(w http.ResponseWriter, r *http.Request) {
	entry, id := s.sessionFromPath(r.URL.Path, "/ws/sessions/")
	if entry == nil {
		http.NotFound(w, r)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session", id).Msg("Websocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	entry.ctl.attach(conn)
	defer entry.ctl.detach(conn)

	log.Debug().Str("session", id).Msg("Pointer stream attached")

	for {
		var msg pointerMsg
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("session", id).Msg("Pointer stream failed")
			}
			return
		}

		pushState := true
		entry.With(func(sess *sketch.Session) {
			pt := orb.Point{msg.Lng, msg.Lat}
			px := geom.Pixel{X: msg.X, Y: msg.Y}

			switch msg.Type {
			case "down":
				sess.PointerDown(pt, px)
			case "move":
				sess.PointerMove(pt, px)
				// only live edits need a state echo per move
				pushState = sess.Mode() == sketch.ModeEditVertices ||
					sess.Mode() == sketch.ModeDragShape
			case "up":
				sess.PointerUp(pt, px)
			case "finish":
				sess.Finish()
			case "cancel":
				sess.Cancel()
			case "zoom":
				sess.SetZoom(msg.Zoom)
				pushState = false
			case "mode":
				mode, err := sketch.ParseMode(msg.Mode)
				if err != nil {
					_ = entry.ctl.send(map[string]any{"type": "error", "message": err.Error()})
					pushState = false
					return
				}
				sess.SetMode(mode)
			default:
				pushState = false
			}

			if pushState {
				s.pushState(entry, sess)
			}
		})
	}
}

// pushState sends the full session state over the attached socket. Callers
// hold the entry lock.
func (s *ServerContext) pushState(entry *Entry, sess *sketch.Session) {
	collection, err := sess.Export()
	if err != nil {
		log.Error().Err(err).Msg("Failed to export collection for state push")
		return
	}

	_ = entry.ctl.send(stateMsg{
		Type:        "state",
		Mode:        sess.Mode().String(),
		Selected:    sess.Selected(),
		Measurement: sess.Measurement(),
		Simplify:    sess.SimplifyLabel(),
		Collection:  collection,
	})
}
