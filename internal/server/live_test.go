package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"emotionchart/internal/logger"
	"emotionchart/internal/view"
)

func dialLive(t *testing.T, srv *Server, query string) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv.SetupRoutes())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/live" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("Failed to dial %s (status %d): %v", url, status, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg serverMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	return msg
}

func writeMessage(t *testing.T, conn *websocket.Conn, msg clientMessage) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("Failed to write message: %v", err)
	}
}

func TestLiveStreamSession(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	conn := dialLive(t, srv, "?chunk=1")

	scene := readMessage(t, conn)
	if scene.Type != "scene" {
		t.Fatalf("Expected scene message, got %s", scene.Type)
	}
	if !strings.HasPrefix(scene.SVG, "<svg") {
		t.Errorf("Expected svg markup, got %.40q", scene.SVG)
	}
	if scene.Chunk != "Chunk: 1" {
		t.Errorf("Expected Chunk: 1, got %q", scene.Chunk)
	}

	writeMessage(t, conn, clientMessage{Type: "pointer", X: 45, Y: 500, PageX: 100, PageY: 200})
	hover := readMessage(t, conn)
	if hover.Type != "hover" || hover.Hover == nil {
		t.Fatalf("Expected hover message, got %+v", hover)
	}
	if !hover.Hover.Tooltip.Visible {
		t.Error("Expected tooltip to be visible")
	}
	if hover.Hover.HoverLine == nil || !hover.Hover.HoverLine.Visible {
		t.Error("Expected hover line to be visible")
	}

	writeMessage(t, conn, clientMessage{Type: "chunk", Size: 2})
	rebuilt := readMessage(t, conn)
	if rebuilt.Type != "scene" || rebuilt.Chunk != "Chunk: 2" {
		t.Errorf("Expected rebuilt scene for chunk 2, got %s %q", rebuilt.Type, rebuilt.Chunk)
	}

	writeMessage(t, conn, clientMessage{Type: "chunk", Size: 0})
	if msg := readMessage(t, conn); msg.Type != "error" {
		t.Errorf("Expected error for chunk 0, got %s", msg.Type)
	}

	writeMessage(t, conn, clientMessage{Type: "leave"})
	left := readMessage(t, conn)
	if left.Type != "hover" || left.Hover.Tooltip.Visible {
		t.Errorf("Expected hidden tooltip after leave, got %+v", left)
	}

	writeMessage(t, conn, clientMessage{Type: "teleport"})
	if msg := readMessage(t, conn); msg.Type != "error" || !strings.Contains(msg.Error, "teleport") {
		t.Errorf("Expected unknown message error, got %+v", msg)
	}
}

func TestLiveLineSession(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	conn := dialLive(t, srv, "?chart=line")

	if msg := readMessage(t, conn); msg.Type != "scene" {
		t.Fatalf("Expected scene message, got %s", msg.Type)
	}

	writeMessage(t, conn, clientMessage{Type: "enter", Marker: "dot-joy-0", PageX: 10, PageY: 10})
	enter := readMessage(t, conn)
	if enter.Type != "hover" || enter.Hover.MarkerID != "dot-joy-0" || !enter.Hover.Active {
		t.Fatalf("Expected active hover on dot-joy-0, got %+v", enter)
	}
	if !strings.Contains(enter.Hover.Tooltip.HTML, "Emotion: joy") {
		t.Errorf("Expected tooltip to name the emotion, got %q", enter.Hover.Tooltip.HTML)
	}

	writeMessage(t, conn, clientMessage{Type: "click", Marker: "dot-joy-0"})
	click := readMessage(t, conn)
	if click.Type != "paragraph" || click.Paragraph == nil || *click.Paragraph != "Call me Ishmael." {
		t.Errorf("Expected clicked paragraph, got %+v", click)
	}

	writeMessage(t, conn, clientMessage{Type: "leave", Marker: "dot-joy-0"})
	leave := readMessage(t, conn)
	if leave.Type != "hover" || leave.Hover.Active {
		t.Errorf("Expected inactive hover after leave, got %+v", leave)
	}

	writeMessage(t, conn, clientMessage{Type: "click", Marker: "dot-none-9"})
	if msg := readMessage(t, conn); msg.Type != "error" {
		t.Errorf("Expected error for unknown marker, got %s", msg.Type)
	}
}

func TestLiveTransitionsSession(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	conn := dialLive(t, srv, "?mode=transitions")

	if msg := readMessage(t, conn); msg.Type != "scene" {
		t.Fatalf("Expected scene message, got %s", msg.Type)
	}

	writeMessage(t, conn, clientMessage{Type: "animate"})
	frame := readMessage(t, conn)
	if frame.Type != "frame" {
		t.Fatalf("Expected frame message, got %s", frame.Type)
	}
	if frame.Seq < 1 {
		t.Errorf("Expected positive frame sequence, got %d", frame.Seq)
	}
	if frame.DurationMS != 1500 {
		t.Errorf("Expected 1500ms transition, got %d", frame.DurationMS)
	}

	writeMessage(t, conn, clientMessage{Type: "offset", Offset: "silhouette"})
	writeMessage(t, conn, clientMessage{Type: "stop"})
	writeMessage(t, conn, clientMessage{Type: "offset", Offset: "bogus"})
	for {
		msg := readMessage(t, conn)
		if msg.Type == "frame" {
			continue
		}
		if msg.Type != "error" {
			t.Errorf("Expected error for bad offset, got %s", msg.Type)
		}
		break
	}
}

func TestLiveSessionsEndOnShutdown(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	conn := dialLive(t, srv, "")
	readMessage(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Expected sessions to finish, got %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("Expected going away close, got %v", err)
	}
}

func TestLiveSocketRejectsBadParams(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	rr := serve(srv, http.MethodGet, "/ws/live?chunk=0")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

// serverConn returns the server side of a fresh websocket connection
func serverConn(t *testing.T) *websocket.Conn {
	t.Helper()
	conns := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	t.Cleanup(ts.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	select {
	case conn := <-conns:
		return conn
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for the server connection")
		return nil
	}
}

func TestLiveRebuildWriteFailureEndsSession(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	ds, err := srv.loadDataset(context.Background(), srv.Config.DataSource)
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}
	p, err := srv.parseChartParams(nil)
	if err != nil {
		t.Fatal(err)
	}

	sess := &liveSession{
		id:     "test",
		mode:   liveModeStream,
		conn:   serverConn(t),
		log:    logger.For(logger.ComponentLive),
		frames: make(chan view.Frame, 1),
	}
	defer sess.close()
	if err := sess.open(ds, p); err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}

	sess.conn.Close()
	err = sess.handle(context.Background(), clientMessage{Type: "chunk", Size: 2})
	if !errors.Is(err, errWriteFailed) {
		t.Fatalf("Expected errWriteFailed, got %v", err)
	}
	if sess.writeErr != nil {
		t.Error("Expected the write error to be consumed")
	}
}
