package hub

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
)

func quietHub(opts ...Option) *Hub {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New("test", opts...)
}

func readEnvelope(t *testing.T, ws *websocket.Conn) Envelope {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	return env
}

func TestEncode(t *testing.T) {
	m, err := Encode(TypeSession, map[string]string{"state": "start"})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(m.Data, &env); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if env.Type != TypeSession || string(env.Data) != `{"state":"start"}` {
		t.Errorf("envelope = %+v", env)
	}
}

func TestBroadcastWithoutSubscribers(t *testing.T) {
	h := quietHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	if err := h.Publish(TypeSession, "x"); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", h.ClientCount())
	}
}

func TestBacklogIsBounded(t *testing.T) {
	h := quietHub(WithBacklog(2))
	for i := 0; i < 5; i++ {
		h.remember(Message{Data: []byte{byte(i)}})
	}
	if len(h.backlog) != 2 || h.backlog[0].Data[0] != 3 || h.backlog[1].Data[0] != 4 {
		t.Errorf("backlog = %v", h.backlog)
	}
}

func TestRegisterRoutesRejectsPlainHTTP(t *testing.T) {
	h := quietHub()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	h.RegisterRoutes(app, "/ws/sessions")

	resp, err := app.Test(httptest.NewRequest("GET", "/ws/sessions", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("Status = %d, want 426", resp.StatusCode)
	}
}

func TestWebSocketSubscriber(t *testing.T) {
	h := quietHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	// Published before anyone subscribes; replayed from the backlog.
	h.Publish(TypeSession, map[string]string{"state": "early"})
	time.Sleep(20 * time.Millisecond)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	h.RegisterRoutes(app, "/ws/sessions")
	go app.Listen(":18090")
	defer app.Shutdown()
	time.Sleep(100 * time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18090/ws/sessions", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()

	if env := readEnvelope(t, ws); env.Type != TypeHello {
		t.Errorf("first frame = %s, want hello", env.Type)
	}
	if env := readEnvelope(t, ws); string(env.Data) != `{"state":"early"}` {
		t.Errorf("backlog frame = %s", env.Data)
	}

	time.Sleep(50 * time.Millisecond)
	if h.ClientCount() != 1 {
		t.Errorf("ClientCount = %d, want 1", h.ClientCount())
	}

	h.Publish(TypeSession, map[string]string{"state": "dispatched"})
	if env := readEnvelope(t, ws); env.Type != TypeSession || string(env.Data) != `{"state":"dispatched"}` {
		t.Errorf("live frame = %+v", env)
	}

	ws.Close()
	time.Sleep(100 * time.Millisecond)
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0 after disconnect", h.ClientCount())
	}
	if h.GetStats().Sent < 1 {
		t.Error("Sent should be at least 1")
	}
}
