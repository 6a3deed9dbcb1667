// Package ws hosts the curve editor over websockets: editor clients send
// pointer and key events and receive rendered frames, preview clients
// receive the RGB frames that also go to the LED driver.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-daycurve/internal/editor"
	"github.com/coreman2200/funtimes-daycurve/internal/led"
	"github.com/coreman2200/funtimes-daycurve/internal/store"
)

const secondsPerDay = 24 * 60 * 60

// Options configures a State.
type Options struct {
	Set        *store.Set
	CurvesPath string // empty disables persistence

	Width  int
	Height int

	FPS        int
	Brightness float64
	LEDCount   int
	Driver     led.Driver

	// UnitProcessor labels the editor's vertical axis; nil uses the
	// editor default.
	UnitProcessor func(float64) string

	// Now is the clock used for the day position; nil means time.Now.
	Now func() time.Time
}

// State owns the editor, the curve set and all connected clients. All editor
// access goes through the mutex; the editor itself is single-threaded.
type State struct {
	mu sync.Mutex

	ed         *editor.Editor
	set        *store.Set
	curvesPath string

	fps        int
	brightness float64
	ledCount   int
	driver     led.Driver

	frameID   uint64
	startTime time.Time
	now       func() time.Time

	dirty      bool
	unsaved    bool
	lastMarker int

	editorClients  map[*websocket.Conn]bool
	previewClients map[*websocket.Conn]bool
}

func New(opts Options) *State {
	s := &State{
		set:            opts.Set,
		curvesPath:     opts.CurvesPath,
		fps:            opts.FPS,
		brightness:     opts.Brightness,
		ledCount:       opts.LEDCount,
		driver:         opts.Driver,
		startTime:      time.Now(),
		now:            opts.Now,
		lastMarker:     -1,
		editorClients:  map[*websocket.Conn]bool{},
		previewClients: map[*websocket.Conn]bool{},
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.fps <= 0 {
		s.fps = 30
	}
	// hooks run synchronously inside editor calls, with s.mu already held
	s.ed = editor.New(editor.Options{
		Width:         opts.Width,
		Height:        opts.Height,
		UnitProcessor: opts.UnitProcessor,
		OnChange:      func() { s.unsaved = true },
		RequestRedraw: func() { s.dirty = true },
	})
	s.ed.SetCurves(s.set.Build())
	return s
}

// controlMsg is one editor event from a client.
type controlMsg struct {
	Type   string  `json:"type"` // down | move | up | delete | resize | time
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Time   float64 `json:"time"`
}

type editorFrame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	RGBA    []byte `json:"rgba"`
}

type previewFrame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	RGB     []byte `json:"rgb"`
}

// HandleEditorWS upgrades an editor client: it receives control messages and
// pushes a rendered frame after every change.
func (s *State) HandleEditorWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.editorClients[conn] = true
	s.dirty = true
	s.flushLocked()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.editorClients, conn)
		s.mu.Unlock()
		conn.Close()
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg controlMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Err(err).Msg("bad control message")
			continue
		}
		s.apply(msg)
	}
}

// HandleFramesWS upgrades a preview client that receives the sampled RGB
// frames driven to the LEDs.
func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.previewClients[conn] = true
	s.mu.Unlock()
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.previewClients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := map[string]any{
		"frame_id": s.frameID,
		"uptime_s": time.Since(s.startTime).Seconds(),
		"fps":      s.fps,
		"curves":   len(s.ed.Curves()),
		"leds":     s.ledCount,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// apply dispatches one control message to the editor and flushes the
// resulting frame and any pending save.
func (s *State) apply(msg controlMsg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch msg.Type {
	case "down":
		s.ed.PointerDown(msg.X, msg.Y)
	case "move":
		s.ed.PointerMove(msg.X, msg.Y)
	case "up":
		s.ed.PointerUp()
	case "delete":
		s.ed.DeleteSelected()
	case "resize":
		s.ed.Resize(msg.Width, msg.Height)
	case "time":
		s.ed.SetCurrentTime(msg.Time)
	default:
		log.Debug().Str("type", msg.Type).Msg("unknown control message")
	}
	s.flushLocked()
}

// Sample exposes the authored value of curve ci at x to external consumers.
func (s *State) Sample(ci int, x float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ed.Sample(ci, x)
}

// flushLocked broadcasts a fresh editor frame when the display is stale and
// persists the curve set when it was edited. Caller holds s.mu.
func (s *State) flushLocked() {
	if s.unsaved {
		s.set = store.Snapshot(s.set, s.ed.Curves())
		if s.curvesPath != "" {
			if err := store.Save(s.curvesPath, s.set); err != nil {
				log.Error().Err(err).Str("path", s.curvesPath).Msg("curve save failed")
			}
		}
		s.unsaved = false
	}
	if !s.dirty || len(s.editorClients) == 0 {
		s.dirty = false
		return
	}
	s.dirty = false
	img := s.ed.Render()
	s.frameID++
	w, h := s.ed.Size()
	b, _ := json.Marshal(editorFrame{
		T:       time.Now().UnixNano(),
		FrameID: s.frameID,
		Width:   w,
		Height:  h,
		RGBA:    img.Pix,
	})
	for c := range s.editorClients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write editor frame")
		}
	}
}

// RunRenderLoop drives the LED output from the authored curves at the
// wall-clock time of day until the context is cancelled.
func (s *State) RunRenderLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *State) tick() {
	dayT := normalizedDayTime(s.now())

	s.mu.Lock()
	// move the displayed marker only when it lands on a new pixel column
	w, _ := s.ed.Size()
	col := int(dayT * float64(w))
	if col != s.lastMarker {
		s.lastMarker = col
		s.ed.SetCurrentTime(dayT)
	}
	buf := s.sampleStripLocked(dayT)
	s.frameID++
	id := s.frameID
	drv := s.driver
	s.flushLocked()
	s.mu.Unlock()

	if drv != nil {
		if err := drv.Write(buf); err != nil {
			log.Debug().Err(err).Msg("led write")
		}
	}
	s.broadcastPreview(id, buf)
}

// sampleStripLocked builds the uniform strip frame for the day position:
// one curve drives a grayscale output, several drive the red, green and
// blue channels from the first three. Caller holds s.mu.
func (s *State) sampleStripLocked(dayT float64) []byte {
	var r, g, b uint8
	switch len(s.ed.Curves()) {
	case 0:
	case 1:
		v := quantize(s.ed.Sample(0, dayT) * s.brightness)
		r, g, b = v, v, v
	default:
		r = quantize(s.ed.Sample(0, dayT) * s.brightness)
		g = quantize(s.ed.Sample(1, dayT) * s.brightness)
		b = quantize(s.ed.Sample(2, dayT) * s.brightness)
	}
	buf := make([]byte, s.ledCount*3)
	for i := 0; i < s.ledCount; i++ {
		buf[i*3+0] = r
		buf[i*3+1] = g
		buf[i*3+2] = b
	}
	return buf
}

func (s *State) broadcastPreview(id uint64, rgb []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.previewClients) == 0 {
		return
	}
	b, _ := json.Marshal(previewFrame{T: time.Now().UnixNano(), FrameID: id, RGB: rgb})
	for c := range s.previewClients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}

// normalizedDayTime maps a wall-clock instant to [0,1) over its local day.
func normalizedDayTime(t time.Time) float64 {
	h, m, sec := t.Clock()
	return float64(h*3600+m*60+sec) / secondsPerDay
}

func quantize(v float64) uint8 {
	q := int(v * 255.0)
	if q < 0 {
		q = 0
	}
	if q > 255 {
		q = 255
	}
	return uint8(q)
}
