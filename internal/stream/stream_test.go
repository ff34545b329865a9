package stream

import (
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestFrameCodec(t *testing.T) {
	ps := []dynamo.Particle{
		dynamo.NewParticle(r2.Vec{X: 1.5, Y: 2.5}, 3),
		dynamo.NewParticle(r2.Vec{X: 100, Y: 200}, 4.25),
	}
	msg := AppendFrame(nil, 7, 0.5, ps)

	h, values, err := DecodeFrame(msg)
	if err != nil {
		t.Fatal(err)
	}
	if h.Frame != 7 || h.Time != 0.5 || h.Count != 2 {
		t.Errorf("header = %+v", h)
	}
	want := []float32{1.5, 2.5, 3, 100, 200, 4.25}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("values = %v, want %v", values, want)
			break
		}
	}

	for _, bad := range [][]byte{nil, {OpFrame}, msg[:len(msg)-1], EncodeScreen(1, 1)} {
		if _, _, err := DecodeFrame(bad); !errors.Is(err, ErrMalformed) {
			t.Errorf("DecodeFrame(%d bytes) err = %v", len(bad), err)
		}
	}
}

func TestSpawnAndScreenCodec(t *testing.T) {
	req := SpawnRequest{X: 10, Y: 20, Radius: 5}
	got, err := DecodeSpawn(EncodeSpawn(req))
	if err != nil || got != req {
		t.Errorf("spawn = %+v, %v", got, err)
	}
	if _, err := DecodeSpawn([]byte{OpSpawn, 1}); !errors.Is(err, ErrMalformed) {
		t.Errorf("short spawn err = %v", err)
	}

	w, h, err := DecodeScreen(EncodeScreen(640, 480))
	if err != nil || w != 640 || h != 480 {
		t.Errorf("screen = %v x %v, %v", w, h, err)
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(r2.Vec{X: 320, Y: 240}, 2, quiet)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)

	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if w, h, err := DecodeScreen(msg); err != nil || w != 320 || h != 240 {
		t.Fatalf("screen = %v x %v, %v", w, h, err)
	}
	if hub.Clients() != 1 {
		t.Fatalf("clients = %d", hub.Clients())
	}

	ps := []dynamo.Particle{dynamo.NewParticle(r2.Vec{X: 5, Y: 6}, 2)}
	hub.OnFrame(1, 0.1, ps) // skipped, not a multiple of 2
	hub.OnFrame(2, 0.2, ps)

	_, msg, err = conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	h, values, err := DecodeFrame(msg)
	if err != nil {
		t.Fatal(err)
	}
	if h.Frame != 2 || h.Count != 1 || values[0] != 5 || values[1] != 6 || values[2] != 2 {
		t.Errorf("frame %+v values %v", h, values)
	}
}

func TestHubSpawnRequests(t *testing.T) {
	hub := NewHub(r2.Vec{X: 100, Y: 100}, 1, quiet)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatal(err)
	}

	conn.WriteMessage(websocket.BinaryMessage, []byte{OpSpawn, 0})
	conn.WriteMessage(websocket.TextMessage, []byte("hello"))
	want := SpawnRequest{X: 50, Y: 60, Radius: 4}
	if err := conn.WriteMessage(websocket.BinaryMessage, EncodeSpawn(want)); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-hub.Spawns():
		if got != want {
			t.Errorf("spawn = %+v, want %+v", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no spawn request received")
	}
}

func TestHubDisconnect(t *testing.T) {
	hub := NewHub(r2.Vec{X: 100, Y: 100}, 1, quiet)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	conn.ReadMessage()
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for hub.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client not removed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// broadcasting with no clients is a no-op
	hub.OnFrame(1, 0, nil)
}

func TestHubServesViewer(t *testing.T) {
	hub := NewHub(r2.Vec{X: 100, Y: 100}, 1, quiet)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<canvas") {
		t.Error("viewer page not served")
	}
}
