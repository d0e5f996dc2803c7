package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"emotionchart/internal/aggregate"
	"emotionchart/internal/logger"
	"emotionchart/internal/models"
	"emotionchart/internal/view"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// errWriteFailed marks a session whose connection can no longer be written
var errWriteFailed = errors.New("live session write failed")

// Live session modes
const (
	liveModeStream      = "stream"
	liveModeLine        = "line"
	liveModeTransitions = "transitions"
)

// clientMessage is an interaction forwarded by the browser
type clientMessage struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	PageX  float64 `json:"pageX"`
	PageY  float64 `json:"pageY"`
	Marker string  `json:"marker"`
	Size   int     `json:"size"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Offset string  `json:"offset"`
}

// serverMessage is a scene, frame, hover, paragraph or error update
type serverMessage struct {
	Type       string           `json:"type"`
	SVG        string           `json:"svg,omitempty"`
	Chunk      string           `json:"chunk,omitempty"`
	Seq        int              `json:"seq,omitempty"`
	DelayMS    int64            `json:"delay_ms,omitempty"`
	DurationMS int64            `json:"duration_ms,omitempty"`
	Hover      *view.HoverEvent `json:"hover,omitempty"`
	Paragraph  *string          `json:"paragraph,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// liveSession owns the views of one websocket connection. Every view call and
// every write happens on the session goroutine.
type liveSession struct {
	id   string
	mode string
	conn *websocket.Conn
	log  *logger.Logger

	stream *view.StreamView
	line   *view.LineView
	trans  *view.TransitionsView

	hovered  string
	frames   chan view.Frame
	dropped  atomic.Int64
	writeErr error
}

// liveMode picks the session mode from ?mode= or the older ?chart=line
func liveMode(r *http.Request) string {
	q := r.URL.Query()
	switch {
	case q.Get("mode") == liveModeTransitions:
		return liveModeTransitions
	case q.Get("mode") == liveModeLine, q.Get("chart") == liveModeLine:
		return liveModeLine
	default:
		return liveModeStream
	}
}

// HandleLiveSocket upgrades to a websocket and drives a server-side view
func (s *Server) HandleLiveSocket(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseChartParams(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	mode := liveMode(r)
	var ds *models.Dataset
	switch mode {
	case liveModeLine:
		if ds = s.dataset(w, r, s.Config.LineDataSource); ds == nil {
			return
		}
	case liveModeStream:
		if ds = s.dataset(w, r, s.Config.DataSource); ds == nil {
			return
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already answered the request
		s.log.Warn("websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	s.sessions.Add(1)
	defer s.sessions.Done()

	sess := &liveSession{
		id:     uuid.NewString(),
		mode:   mode,
		conn:   conn,
		log:    logger.For(logger.ComponentLive),
		frames: make(chan view.Frame, 1),
	}
	defer sess.close()

	if err := sess.open(ds, p); err != nil {
		sess.log.Error("failed to open live view", err, map[string]interface{}{"session": sess.id, "mode": mode})
		sess.send(serverMessage{Type: "error", Error: err.Error()})
		return
	}
	sess.log.Info("live session started", map[string]interface{}{"session": sess.id, "mode": mode})
	sess.run(s.base)
}

// open creates the view for the session mode and sends its first scene
func (ls *liveSession) open(ds *models.Dataset, p chartParams) error {
	switch ls.mode {
	case liveModeLine:
		ls.line = view.NewLineView(ds.Records)
		return ls.sendScene(ls.line.Scene(), "")

	case liveModeTransitions:
		if err := ls.ensureTransitions(); err != nil {
			return err
		}
		return ls.sendScene(ls.trans.Scene(), "")

	default:
		v, err := streamView(ds, p)
		if err != nil {
			return err
		}
		ls.stream = v
		v.OnChunkChange(func(oldSize, newSize int) {
			ls.log.Debug("chunk size changed", map[string]interface{}{"session": ls.id, "from": oldSize, "to": newSize})
		})
		// rebuilds run on the session goroutine; the failure surfaces from handle
		v.OnRebuild(func(scene *view.Scene) {
			if err := ls.sendScene(scene, v.ChunkLabel()); err != nil && ls.writeErr == nil {
				ls.writeErr = fmt.Errorf("%w: %v", errWriteFailed, err)
			}
		})
		return ls.sendScene(v.Scene(), v.ChunkLabel())
	}
}

func (ls *liveSession) ensureTransitions() error {
	if ls.trans != nil {
		return nil
	}
	v, err := view.NewTransitionsView(view.TransitionOptions{})
	if err != nil {
		return err
	}
	v.OnFrame(func(f view.Frame) {
		// never block the animator; a slow client skips frames
		select {
		case ls.frames <- f:
		default:
			ls.dropped.Add(1)
		}
	})
	ls.trans = v
	return nil
}

// run is the session event loop. A reader goroutine feeds it client messages.
func (ls *liveSession) run(base context.Context) {
	ctx, cancel := context.WithCancel(base)
	defer cancel()

	inbound := make(chan clientMessage)
	readErr := make(chan error, 1)
	go ls.readPump(ctx, inbound, readErr)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ls.conn.SetWriteDeadline(time.Now().Add(writeWait))
			ls.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return

		case err := <-readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ls.log.Warn("live session read failed", map[string]interface{}{"session": ls.id, "error": err.Error()})
			}
			return

		case msg := <-inbound:
			if err := ls.handle(ctx, msg); err != nil {
				if errors.Is(err, errWriteFailed) {
					ls.log.Warn("live session write failed", map[string]interface{}{"session": ls.id, "error": err.Error()})
					return
				}
				if errors.Is(err, view.ErrDestroyed) {
					return
				}
				if sendErr := ls.send(serverMessage{Type: "error", Error: err.Error()}); sendErr != nil {
					return
				}
			}

		case f := <-ls.frames:
			if err := ls.sendFrame(f); err != nil {
				return
			}

		case <-ticker.C:
			ls.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ls.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump decodes client messages until the connection fails
func (ls *liveSession) readPump(ctx context.Context, inbound chan<- clientMessage, readErr chan<- error) {
	ls.conn.SetReadLimit(maxMessageSize)
	ls.conn.SetReadDeadline(time.Now().Add(pongWait))
	ls.conn.SetPongHandler(func(string) error {
		ls.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg clientMessage
		if err := ls.conn.ReadJSON(&msg); err != nil {
			readErr <- err
			return
		}
		select {
		case inbound <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// handle applies one client message to the session's view
func (ls *liveSession) handle(ctx context.Context, msg clientMessage) error {
	err := ls.apply(ctx, msg)
	if ls.writeErr != nil {
		err, ls.writeErr = ls.writeErr, nil
	}
	return err
}

func (ls *liveSession) apply(ctx context.Context, msg clientMessage) error {
	switch msg.Type {
	case "pointer":
		return ls.pointer(msg)

	case "enter":
		if ls.line == nil {
			return ls.pointer(msg)
		}
		return ls.enter(msg.Marker, view.PointerEvent{PageX: msg.PageX, PageY: msg.PageY})

	case "leave":
		return ls.leave()

	case "click":
		if ls.line == nil {
			return nil
		}
		text, err := ls.line.Click(msg.Marker)
		if err != nil {
			return err
		}
		return ls.send(serverMessage{Type: "paragraph", Paragraph: &text})

	case "chunk":
		if ls.stream == nil {
			return nil
		}
		if msg.Size < view.MinChunkSize || msg.Size > view.MaxChunkSize {
			return fmt.Errorf("chunk must be between %d and %d, got %d: %w", view.MinChunkSize, view.MaxChunkSize, msg.Size, aggregate.ErrInvalidChunkSize)
		}
		return ls.stream.SetChunkSize(msg.Size)

	case "offset":
		offset, err := aggregate.ParseOffset(msg.Offset)
		if err != nil {
			return err
		}
		if ls.trans != nil {
			return ls.trans.SetOffset(offset)
		}
		if ls.stream != nil {
			return ls.stream.SetOffset(offset)
		}
		return nil

	case "resize":
		// only the streamgraph follows its container
		if ls.stream == nil || msg.Width <= 0 {
			return nil
		}
		return ls.stream.Resize(msg.Width, msg.Height)

	case "animate":
		if err := ls.ensureTransitions(); err != nil {
			return err
		}
		if ls.trans.Playing() {
			return nil
		}
		if err := ls.trans.Play(ctx); err != nil && !errors.Is(err, view.ErrAnimatorRunning) {
			return err
		}
		ls.log.Debug("transitions started", map[string]interface{}{"session": ls.id})
		return nil

	case "stop":
		if ls.trans != nil {
			ls.trans.Pause()
			ls.log.Debug("transitions paused", map[string]interface{}{"session": ls.id, "dropped_frames": ls.dropped.Load()})
		}
		return nil

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (ls *liveSession) pointer(msg clientMessage) error {
	ev := view.PointerEvent{X: msg.X, Y: msg.Y, PageX: msg.PageX, PageY: msg.PageY}
	switch {
	case ls.stream != nil:
		hover, err := ls.stream.PointerMove(ev)
		if err != nil {
			return err
		}
		return ls.sendHover(hover)

	case ls.line != nil:
		mk, ok := ls.line.MarkerAt(msg.X, msg.Y)
		if !ok {
			return ls.leave()
		}
		if mk.ID == ls.hovered {
			return nil
		}
		return ls.enter(mk.ID, ev)
	}
	return nil
}

func (ls *liveSession) enter(markerID string, ev view.PointerEvent) error {
	if ls.hovered != "" && ls.hovered != markerID {
		if err := ls.leave(); err != nil {
			return err
		}
	}
	hover, err := ls.line.PointerEnter(markerID, ev)
	if err != nil {
		return err
	}
	ls.hovered = markerID
	return ls.sendHover(hover)
}

func (ls *liveSession) leave() error {
	switch {
	case ls.stream != nil:
		hover, err := ls.stream.PointerLeave()
		if err != nil {
			return err
		}
		return ls.sendHover(hover)

	case ls.line != nil && ls.hovered != "":
		hover, err := ls.line.PointerLeave(ls.hovered)
		if err != nil {
			return err
		}
		ls.hovered = ""
		return ls.sendHover(hover)
	}
	return nil
}

func (ls *liveSession) send(msg serverMessage) error {
	ls.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return ls.conn.WriteJSON(msg)
}

func (ls *liveSession) sendHover(hover view.HoverEvent) error {
	return ls.send(serverMessage{Type: "hover", Hover: &hover})
}

func (ls *liveSession) sendScene(scene *view.Scene, chunk string) error {
	svg, err := sceneSVG(scene)
	if err != nil {
		return err
	}
	return ls.send(serverMessage{Type: "scene", SVG: svg, Chunk: chunk})
}

func (ls *liveSession) sendFrame(f view.Frame) error {
	svg, err := sceneSVG(f.Scene)
	if err != nil {
		return err
	}
	return ls.send(serverMessage{
		Type:       "frame",
		SVG:        svg,
		Seq:        f.Seq,
		DelayMS:    f.DelayMS,
		DurationMS: f.Duration,
	})
}

func sceneSVG(scene *view.Scene) (string, error) {
	var sb strings.Builder
	if err := scene.WriteSVG(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// close releases the views, which also stops a running animator
func (ls *liveSession) close() {
	if ls.trans != nil {
		ls.trans.Destroy()
	}
	if ls.stream != nil {
		ls.stream.Destroy()
	}
	if ls.line != nil {
		ls.line.Destroy()
	}
	ls.conn.Close()
	ls.log.Info("live session closed", map[string]interface{}{"session": ls.id, "mode": ls.mode})
}
